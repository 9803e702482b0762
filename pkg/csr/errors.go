package csr

import "errors"

var (
	// ErrInputCorruption indicates a destination id out of the node range was
	// found while building the index. Construction input is assumed
	// internally consistent; this is a fatal, unrecoverable condition.
	ErrInputCorruption = errors.New("csr: edge destination out of range")

	// ErrTooManyNodes indicates N does not fit in a dense 32-bit NodeId.
	ErrTooManyNodes = errors.New("csr: node count exceeds NodeId range")
)
