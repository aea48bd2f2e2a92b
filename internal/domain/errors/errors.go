package errors

import "errors"

var (
	ErrAlreadyExists        = errors.New("already exists")
	ErrNotFound             = errors.New("not found")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrInvalidProduct       = errors.New("invalid product")
	ErrValidation           = errors.New("invalid request")
	ErrForbidden            = errors.New("forbidden")
	ErrProviderUnavailable  = errors.New("payment setup failed")
	ErrEraseNotConfirmed    = errors.New("erase mode requires PURGE_CONFIRM=YES")
	ErrOrderNotReconcilable = errors.New("order has no checkout session")
)
