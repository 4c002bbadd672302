//go:build !windows

package session

import (
	stderrors "errors"
	"os"
	"syscall"

	"github.com/evanzqian-eng/Chess-Genie/internal/errors"
)

// openFileNoFollowRead opens a game record for reading, refusing a symlinked final component.
func openFileNoFollowRead(path string) (*os.File, error) {
	fd, err := syscall.Open(path, syscall.O_RDONLY|syscall.O_NOFOLLOW|syscall.O_CLOEXEC, 0)
	if err != nil {
		switch {
		case stderrors.Is(err, syscall.ELOOP):
			return nil, errors.NewInvalidRequest("cannot read from symlink")
		case stderrors.Is(err, syscall.ENOENT):
			return nil, errors.NewNotFound("file", path)
		}
		return nil, errors.NewInvalidRequest(err.Error())
	}
	return os.NewFile(uintptr(fd), path), nil
}
