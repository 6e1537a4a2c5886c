package models

// AppError is a structured application error with HTTP status code.
type AppError struct {
	Code    string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
	Status  int    `json:"-"`
}

func (e *AppError) Error() string { return e.Message }

// Error codes.
const (
	CodeWrongMode   = "WRONG_MODE"
	CodeNoChange    = "NO_CHANGE"
	CodeBadRequest  = "BAD_REQUEST"
	CodeNotFound    = "NOT_FOUND"
	CodeHardware    = "HARDWARE"
	CodeInternal    = "INTERNAL"
	CodeBusy        = "BUSY"
	CodeUnsupported = "UNSUPPORTED"
)

// Error constructors.
var (
	// ErrWrongMode reports an operation the current bridge mode does not support.
	ErrWrongMode = func(msg string) *AppError {
		return &AppError{Code: CodeWrongMode, Message: msg, Status: 409}
	}
	// ErrNoChange reports a mode transition to the mode already active. It is
	// informational; nothing was changed.
	ErrNoChange = func(msg string) *AppError {
		return &AppError{Code: CodeNoChange, Message: msg, Status: 409}
	}
	ErrNotFound = func(msg string) *AppError {
		return &AppError{Code: CodeNotFound, Message: msg, Status: 404}
	}
	ErrBadRequest = func(msg string) *AppError {
		return &AppError{Code: CodeBadRequest, Message: msg, Status: 400}
	}
	ErrHardware = func(msg string) *AppError {
		return &AppError{Code: CodeHardware, Message: msg, Status: 502}
	}
	ErrInternal = func(msg string) *AppError {
		return &AppError{Code: CodeInternal, Message: msg, Status: 500}
	}
	ErrUnsupported = func(msg string) *AppError {
		return &AppError{Code: CodeUnsupported, Message: msg, Status: 501}
	}
	ErrBusy = &AppError{Code: CodeBusy, Message: "control loop not running", Status: 503}
)

// IsCode reports whether err is an AppError with the given code.
func IsCode(err *AppError, code string) bool {
	return err != nil && err.Code == code
}
