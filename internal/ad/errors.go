package ad

import "errors"

var (
	// ErrSpaceTooLarge indicates a derivative space exceeding MaxSize slots.
	ErrSpaceTooLarge = errors.New("ad: derivative space exceeds capacity")

	// ErrIndexMap indicates a primary-variable index map of the wrong length
	// or with entries outside the reservoir space.
	ErrIndexMap = errors.New("ad: invalid primary variable index map")
)
