package cell

import (
	"errors"
	"fmt"
)

// ErrOverflow is the root of all errors caused by a value or data not fitting its destination.
var ErrOverflow = errors.New("overflow")

// ErrUnderflow is the root of all errors caused by reading more bits than available.
var ErrUnderflow = errors.New("underflow")

var ErrNotFit1023 = fmt.Errorf("%w: cell data size should fit into 1023 bits", ErrOverflow)
var ErrTooBigValue = fmt.Errorf("%w: too big value", ErrOverflow)
var ErrTooMuchRefs = errors.New("too much refs")
var ErrNoMoreRefs = errors.New("no more refs exists")
var ErrNegative = errors.New("value should be non negative")
var ErrTooBigSize = errors.New("too big size")
var ErrSmallSlice = errors.New("too small slice for this size")
var ErrRefCannotBeNil = errors.New("ref cannot be nil")
var ErrAddressTypeNotSupported = errors.New("address type is not supported")

var ErrMalformedBOC = errors.New("malformed boc")
var ErrChecksumMismatch = errors.New("checksum not matches")

var ErrDictKeySize = errors.New("dictionary key size mismatch")
var ErrNoSuchKeyInDict = errors.New("no such key in dict")

var ErrInvalidSpecialCell = errors.New("invalid special cell")

var ErrNotEnoughData = func(has, need int) error {
	return fmt.Errorf("%w: not enough data in reader, need %d, has %d", ErrUnderflow, need, has)
}

func malformed(format string, args ...any) error {
	err := fmt.Errorf("%w: "+format, append([]any{ErrMalformedBOC}, args...)...)
	Logger("rejected boc:", err)
	return err
}

// Logger receives diagnostics about rejected input, silent by default.
var Logger = func(v ...any) {}
