//go:build windows

package session

import (
	"os"

	"github.com/evanzqian-eng/Chess-Genie/internal/errors"
)

// openFileNoFollowRead opens a game record for reading.
// O_NOFOLLOW does not exist on Windows.
func openFileNoFollowRead(path string) (*os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFound("file", path)
		}
		return nil, errors.NewInvalidRequest(err.Error())
	}
	return f, nil
}
