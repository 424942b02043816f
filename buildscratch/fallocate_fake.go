package buildscratch

import (
	"fmt"
	"os"
)

// fakeFallocate preallocates space by writing zero blocks, for platforms
// or filesystems where the native syscall is unavailable.
func fakeFallocate(f *os.File, offset int64, size int64) error {
	const blockSize = 4096
	var zero [blockSize]byte

	if _, err := f.Seek(offset, 0); err != nil {
		return fmt.Errorf("fake fallocate: seek: %w", err)
	}
	for size > 0 {
		step := size
		if step > blockSize {
			step = blockSize
		}
		if _, err := f.Write(zero[:step]); err != nil {
			return fmt.Errorf("fake fallocate: write: %w", err)
		}
		size -= step
	}
	return nil
}
