//go:build !linux

package buildscratch

import "os"

// adviseSequential is a no-op outside Linux; fadvise has no portable
// equivalent.
func adviseSequential(f *os.File) {}

// adviseDontNeed is a no-op outside Linux.
func adviseDontNeed(f *os.File) {}
