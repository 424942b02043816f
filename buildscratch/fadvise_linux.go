//go:build linux

package buildscratch

import (
	"log/slog"
	"os"

	"golang.org/x/sys/unix"
)

// adviseSequential hints that f will be written and then re-read
// linearly start-to-finish, matching the write-then-replay access
// pattern every bucket scratch file follows.
func adviseSequential(f *os.File) {
	if err := unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_SEQUENTIAL); err != nil {
		slog.Warn("buildscratch: fadvise(SEQUENTIAL) failed", "error", err)
	}
}

// adviseDontNeed tells the OS the page cache backing f is no longer
// needed, once a bucket has been fully replayed.
func adviseDontNeed(f *os.File) {
	if err := unix.Fadvise(int(f.Fd()), 0, 0, unix.FADV_DONTNEED); err != nil {
		slog.Warn("buildscratch: fadvise(DONTNEED) failed", "error", err)
	}
}
