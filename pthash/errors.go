package pthash

import "errors"

// ErrHashCollision is returned when two distinct keys produce an
// identical 64-bit fingerprint (detected after sort), or when the
// per-bucket pivot search exhausts its safeguard cap without finding
// a valid placement — both are treated as the same failure mode per
// spec.md §4.E.
var ErrHashCollision = errors.New("pthash: hash collision")

// errInvalidEncKind signals a corrupt or unrecognized pivot-encoding
// tag on the read path.
var errInvalidEncKind = errors.New("pthash: invalid pivot encoding kind")
