package lbf

import "errors"

var (
	ErrInvalidMagic     = errors.New("invalid LBF magic")
	ErrUnsupportedMajor = errors.New("unsupported LBF major version")
	ErrCorruptFile      = errors.New("corrupt LBF file")
	ErrMissingSection   = errors.New("missing LBF section")
)
