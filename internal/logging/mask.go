// Copyright (c) 2025 Brio
// Licensed under the MIT License. See LICENSE file in the project root for details.

// Package logging provides the console and log plumbing shared by both tools.
// It builds the structured pterm logger the mock kernel writes to, masks credentials
// in endpoint URLs before they are printed, and formats transport errors for people.
//
// The package helps ensure that secrets embedded in a kernel URL (user info, tokens
// in the query string) are not accidentally exposed in logs or error messages.
package logging

import (
	"regexp"
)

var (
	reURLUserInfo = regexp.MustCompile(`(?i)(wss?://|https?://)([^:/@\s]+):([^@/\s]+)(@)`) // ws://user:pass@host
	reToken       = regexp.MustCompile(`(?i)(token=|bearer\s+)([A-Za-z0-9._-]+)`)
	rePassword    = regexp.MustCompile(`(?i)(password=)([^\s;&]+)`)
	reAPIKey      = regexp.MustCompile(`(?i)(apikey=|api_key=)([^\s;&]+)`)
)

// Mask replaces sensitive values in the input string with "*".
// For URLs with user info, both username and password are masked.
func Mask(s string) string {
	out := s
	out = reURLUserInfo.ReplaceAllString(out, "$1*:*$4")
	out = reToken.ReplaceAllString(out, "$1***")
	out = rePassword.ReplaceAllString(out, "$1***")
	out = reAPIKey.ReplaceAllString(out, "$1***")
	return out
}
