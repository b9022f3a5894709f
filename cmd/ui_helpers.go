package cmd

import (
	"fmt"
	"io"
	"sync"
	"time"
	"unicode/utf8"
)

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// startInlineSpinner starts a simple inline spinner animation on a single line.
// It displays rotating animation frames followed by the provided text, updating
// the same line in the terminal. The spinner runs in a separate goroutine and
// can be stopped by calling the returned function.
//
// The line is cut to width so it never wraps, and it is cleared when the spinner
// stops so the next progress line starts at column zero.
func startInlineSpinner(w io.Writer, text string, frames []string, interval time.Duration, width int) func() {
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		i := 0
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		drawn := 0
		for {
			select {
			case <-stop:
				// Clear the spinner line completely, then return
				fmt.Fprintf(w, "\r%*s\r", drawn, "")
				return
			case <-ticker.C:
				line := truncate(fmt.Sprintf("%s %s", frames[i%len(frames)], text), width-1)
				fmt.Fprintf(w, "\r%s", line)
				drawn = utf8.RuneCountInString(line)
				i++
			}
		}
	}()
	return func() {
		close(stop)
		wg.Wait()
	}
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
