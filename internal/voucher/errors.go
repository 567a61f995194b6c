package voucher

import "errors"

var (
	// ErrNotFound indicates no voucher exists for the code or id.
	ErrNotFound = errors.New("voucher: not found")
	// ErrUnavailable indicates the voucher is deactivated or used up.
	ErrUnavailable = errors.New("voucher: not available")
	// ErrConflict indicates a must-be-unique voucher met a cart that already
	// carries a sale.
	ErrConflict = errors.New("voucher: cannot be combined with other sales")
	// ErrInvalidCode indicates the code is empty after normalization.
	ErrInvalidCode = errors.New("voucher: invalid code")
	// ErrInvalidType indicates an unknown voucher type.
	ErrInvalidType = errors.New("voucher: invalid type")
	// ErrPercentageRequired indicates a percentage-family voucher without a
	// percentage.
	ErrPercentageRequired = errors.New("voucher: percentage is required for this type")
	// ErrReferenceRequired indicates a reference-family voucher without a
	// referenced product or category.
	ErrReferenceRequired = errors.New("voucher: referenced entity is required for this type")
	// ErrCodeExists indicates the normalized code is already taken.
	ErrCodeExists = errors.New("voucher: code already exists")
	// ErrReferenceNotFound indicates the referenced product or category no
	// longer exists.
	ErrReferenceNotFound = errors.New("voucher: referenced entity does not exist")
)
