package prescription

import "errors"

var (
	ErrPrescriptionNotFound = errors.New("prescription not found")
	ErrDuplicateID          = errors.New("prescription id already assigned")
	ErrUnknownSubdocument   = errors.New("unknown subdocument type")
	ErrSubItemNotFound      = errors.New("prescription sub-item not found")
)
