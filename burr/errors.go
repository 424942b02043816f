package burr

import "errors"

// ErrHashCollision is returned when the fallback ribbon's expanding-m
// retry loop exhausts its iteration budget. Layer builds do not return
// it: rows a layer cannot place are bumped to the next layer.
var ErrHashCollision = errors.New("burr: hash collision")
