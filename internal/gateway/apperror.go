package gateway

type AppError struct {
	Status  int
	Code    string
	Message string
}

func (e *AppError) Error() string {
	return e.Message
}

var (
	ErrMissingToken      = &AppError{Status: 401, Code: "MISSING_TOKEN", Message: "authorization token required"}
	ErrInvalidToken      = &AppError{Status: 401, Code: "INVALID_TOKEN", Message: "invalid or expired token"}
	ErrInvalidRequest    = &AppError{Status: 400, Code: "INVALID_REQUEST", Message: "invalid request payload"}
	ErrInvalidAccount    = &AppError{Status: 400, Code: "INVALID_ACCOUNT", Message: "account number is not a valid IBAN"}
	ErrUnknownAction     = &AppError{Status: 400, Code: "UNKNOWN_ACTION", Message: "unknown confirmation action"}
	ErrUnknownStatus     = &AppError{Status: 400, Code: "UNKNOWN_STATUS", Message: "unknown payment status"}
	ErrAccountNotFound   = &AppError{Status: 404, Code: "ACCOUNT_NOT_FOUND", Message: "account not found"}
	ErrPaymentNotFound   = &AppError{Status: 404, Code: "PAYMENT_NOT_FOUND", Message: "payment not found"}
	ErrBankNotFound      = &AppError{Status: 404, Code: "BANK_NOT_FOUND", Message: "no bank configured for this BIC"}
	ErrAccountExists     = &AppError{Status: 409, Code: "ACCOUNT_EXISTS", Message: "account is already linked"}
	ErrAlreadyProcessed  = &AppError{Status: 409, Code: "ALREADY_PROCESSED", Message: "payment was already processed"}
	ErrInternal          = &AppError{Status: 500, Code: "INTERNAL_ERROR", Message: "an unexpected error occurred"}
)
