//go:build linux

package buildscratch

import (
	"errors"
	"fmt"
	"os"
	"syscall"
)

func fallocate(f *os.File, offset int64, size int64) error {
	err := syscall.Fallocate(int(f.Fd()), 0, offset, size)
	if errors.Is(err, syscall.EOPNOTSUPP) {
		return fakeFallocate(f, offset, size)
	}
	if err != nil {
		return fmt.Errorf("linux fallocate: %w", err)
	}
	return nil
}
