package clinic

import "errors"

var (
	ErrClinicNotFound     = errors.New("clinic not found")
	ErrDuplicateName      = errors.New("clinic name already in use")
	ErrStockNotFound      = errors.New("stock not found")
	ErrInvalidStockAmount = errors.New("stock quantity cannot go negative")
)
