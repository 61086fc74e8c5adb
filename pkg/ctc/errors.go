package ctc

import "errors"

var (
	ErrInvalidShape    = errors.New("invalid batch shape")
	ErrInvalidTarget   = errors.New("invalid target")
	ErrBufferTooSmall  = errors.New("output buffer too small")
	ErrUnknownTopology = errors.New("unknown topology")
)
