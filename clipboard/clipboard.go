// Package clipboard puts the path of a finished recording on the system
// clipboard.
package clipboard

import (
	"errors"

	cb "github.com/atotto/clipboard"
)

func Read() (string, error) {
	return cb.ReadAll()
}

func Copy(text string) error {
	if text == "" {
		return errors.New("clipboard: nothing to copy")
	}
	if cb.Unsupported {
		return errors.New("clipboard: no clipboard utility found (install xclip, xsel or wl-clipboard)")
	}
	return cb.WriteAll(text)
}
