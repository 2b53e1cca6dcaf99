package errors

import "fmt"

type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code, message string, cause ...error) *AppError {
	var c error
	if len(cause) > 0 {
		c = cause[0]
	}
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   c,
	}
}

var (
	ErrConfigNotFound = &AppError{Code: "CONFIG_001", Message: "configuration not found"}
	ErrConfigInvalid  = &AppError{Code: "CONFIG_002", Message: "invalid configuration"}

	ErrNameRequired  = &AppError{Code: "VAL_001", Message: "medication name is required"}
	ErrDaysRequired  = &AppError{Code: "VAL_002", Message: "at least one day must be selected"}
	ErrPhoneRequired = &AppError{Code: "VAL_003", Message: "a phone number is required for WhatsApp alerts"}
	ErrBadClockTime  = &AppError{Code: "VAL_004", Message: "time must be in H:MM AM/PM format"}

	ErrRemoteSync        = &AppError{Code: "SYNC_001", Message: "could not reach the reminder backend"}
	ErrRemoteRejected    = &AppError{Code: "SYNC_002", Message: "the reminder backend rejected the request"}
	ErrRemoteUnavailable = &AppError{Code: "SYNC_003", Message: "reminder backend temporarily unavailable"}

	ErrVibrationUnsupported = &AppError{Code: "FEAT_001", Message: "vibration is not supported on this device"}
	ErrWhatsAppUnavailable  = &AppError{Code: "FEAT_002", Message: "WhatsApp channel is not configured"}

	ErrReminderNotFound   = &AppError{Code: "STORE_001", Message: "reminder not found"}
	ErrMedicationNotFound = &AppError{Code: "STORE_002", Message: "medication not found"}
	ErrEventNotFound      = &AppError{Code: "STORE_003", Message: "event not found"}

	ErrNoActiveAlert = &AppError{Code: "ALERT_001", Message: "no alert is currently active"}

	ErrUnauthorized = &AppError{Code: "AUTH_001", Message: "unauthorized"}
	ErrForbidden    = &AppError{Code: "AUTH_002", Message: "forbidden"}

	ErrNotFound   = &AppError{Code: "GEN_001", Message: "resource not found"}
	ErrBadRequest = &AppError{Code: "GEN_002", Message: "bad request"}
	ErrInternal   = &AppError{Code: "GEN_003", Message: "internal error"}
)

func IsAppError(err error) bool {
	_, ok := err.(*AppError)
	return ok
}

func GetCode(err error) string {
	if appErr, ok := err.(*AppError); ok {
		return appErr.Code
	}
	return "UNKNOWN"
}

func Wrap(err error, code, message string) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   err,
	}
}

// IsValidation reports whether err is a validation failure that should be
// shown inline rather than treated as a server fault.
func IsValidation(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return len(appErr.Code) >= 3 && appErr.Code[:3] == "VAL"
	}
	return false
}

// IsSync reports whether err came from the remote sync collaborator. Local
// state stands when a sync error is returned; callers only notify the user.
func IsSync(err error) bool {
	if appErr, ok := err.(*AppError); ok {
		return len(appErr.Code) >= 4 && appErr.Code[:4] == "SYNC"
	}
	return false
}
