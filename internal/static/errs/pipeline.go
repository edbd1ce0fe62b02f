package errs

import "errors"

var (
	InternalError       = errors.New("internal error")
	CodeRequired        = errors.New("code is required")
	LanguageRequired    = errors.New("language is required")
	LanguageInactive    = errors.New("language is not active")
	LanguageUnsupported = errors.New("language is not supported")
	ExecutionNotFound   = errors.New("execution not found")
	ExecutionNotPending = errors.New("execution is not pending")
	SessionNotFound     = errors.New("session not found")
	ResultNotFound      = errors.New("result not found")
	ImageNotFound       = errors.New("image not found")
	DatasetTooLarge     = errors.New("dataset exceeds upload size limit")
)
