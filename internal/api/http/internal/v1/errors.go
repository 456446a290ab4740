package v1

// Errors
const (
	UnknownErrorCode    = 0
	UnknownErrorMessage = "unknown error"

	AccountAlreadyExistsCode    = 1001
	AccountAlreadyExistsMessage = "account with this email already exists"
	AccountNotFoundCode         = 1002
	AccountNotFoundMessage      = "no account found with this email"
	// invalid, consumed, unknown and expired codes share one external
	// category on purpose
	InvalidVerificationCodeCode    = 1003
	InvalidVerificationCodeMessage = "invalid or expired verification code"
	EmailAlreadyVerifiedCode       = 1004
	EmailAlreadyVerifiedMessage    = "email already verified"
	InvalidGoogleTokenCode         = 1005
	InvalidGoogleTokenMessage      = "invalid google token"

	NoteNotFoundCode    = 2001
	NoteNotFoundMessage = "note not found"
)

type ErrorCode int
type ErrorMessage string

type ErrorStruct struct {
	ErrorCode    `json:"error_code"`
	ErrorMessage `json:"error_message"`
} // @name ErrorStruct

type ValidationErrorStruct struct {
	ErrorCode    int               `json:"error_code"`
	ErrorMessage string            `json:"error_message"`
	Errors       []ValidationError `json:"validation_errors"`
}

type ValidationError struct {
	FieldKey     string `json:"field_key"`
	ErrorMessage string `json:"error_message"`
}

func getErrorStruct(code ErrorCode) *ErrorStruct {
	errorStruct := &ErrorStruct{
		ErrorCode:    UnknownErrorCode,
		ErrorMessage: UnknownErrorMessage,
	}

	switch code {
	case AccountAlreadyExistsCode:
		errorStruct.ErrorCode = AccountAlreadyExistsCode
		errorStruct.ErrorMessage = AccountAlreadyExistsMessage
	case AccountNotFoundCode:
		errorStruct.ErrorCode = AccountNotFoundCode
		errorStruct.ErrorMessage = AccountNotFoundMessage
	case InvalidVerificationCodeCode:
		errorStruct.ErrorCode = InvalidVerificationCodeCode
		errorStruct.ErrorMessage = InvalidVerificationCodeMessage
	case EmailAlreadyVerifiedCode:
		errorStruct.ErrorCode = EmailAlreadyVerifiedCode
		errorStruct.ErrorMessage = EmailAlreadyVerifiedMessage
	case InvalidGoogleTokenCode:
		errorStruct.ErrorCode = InvalidGoogleTokenCode
		errorStruct.ErrorMessage = InvalidGoogleTokenMessage
	case NoteNotFoundCode:
		errorStruct.ErrorCode = NoteNotFoundCode
		errorStruct.ErrorMessage = NoteNotFoundMessage
	}

	return errorStruct
}
