package logging

import (
	"io"

	"github.com/pterm/pterm"
)

// PresentError writes a command failure to w with credentials masked.
func PresentError(w io.Writer, err error) {
	if err == nil {
		return
	}
	pterm.Fprintln(w, pterm.Red("Error: ")+Mask(err.Error()))
}
