package report

import (
	"errors"
	"fmt"

	"github.com/atotto/clipboard"
)

// ErrClipboardUnsupported is returned when no clipboard utility exists.
var ErrClipboardUnsupported = errors.New("clipboard not supported on this system")

// Replaced in tests.
var (
	copyFn      = clipboard.WriteAll
	unsupported = clipboard.Unsupported
)

// CopyText places text on the system clipboard.
func CopyText(text string) error {
	if unsupported {
		return ErrClipboardUnsupported
	}
	if err := copyFn(text); err != nil {
		return fmt.Errorf("copy to clipboard: %w", err)
	}
	return nil
}
