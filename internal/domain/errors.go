package domain

import "errors"

var (
	ErrNotFound         = errors.New("not found")
	ErrAccountNotFound  = errors.New("account not found")
	ErrBankNotFound     = errors.New("bank not found")
	ErrAlreadyProcessed = errors.New("transaction already processed")
	ErrAccountExists    = errors.New("account number already in use")
	ErrInvalidAccount   = errors.New("account number is not a valid IBAN")
)
