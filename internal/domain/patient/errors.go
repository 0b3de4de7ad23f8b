package patient

import "errors"

var (
	ErrPatientNotFound       = errors.New("patient not found")
	ErrDuplicateMobileNumber = errors.New("patient with this mobile number already exists")
	ErrDuplicatePatientID    = errors.New("patient id already assigned")
	ErrPaymentNotFound       = errors.New("payment group not found")
	ErrTCCardNotFound        = errors.New("tc card not found")
	ErrDocumentNotFound      = errors.New("patient document not found")
)
