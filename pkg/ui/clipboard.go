package ui

import "github.com/atotto/clipboard"

// copyToClipboard writes text to the system clipboard. Kept behind a
// seam so tests and headless environments can tolerate its absence.
var copyToClipboard = func(text string) error {
	return clipboard.WriteAll(text)
}
