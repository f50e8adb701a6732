// Package errors defines the domain error taxonomy shared by the wallet,
// ledger and transfer services. Every business rejection carries a stable
// Code so the API layer can map it without string matching.
package errors

import (
	stderrors "errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Code identifies a class of domain failure.
type Code string

const (
	CodePartyNotFound     Code = "PARTY_NOT_FOUND"
	CodeWalletNotFound    Code = "WALLET_NOT_FOUND"
	CodeDuplicateAddress  Code = "DUPLICATE_ADDRESS"
	CodeDuplicateContact  Code = "DUPLICATE_CONTACT"
	CodeInvalidArgument   Code = "INVALID_ARGUMENT"
	CodeSameParty         Code = "SAME_PARTY"
	CodeInsufficientFunds Code = "INSUFFICIENT_FUNDS"
	CodeTransferFailed    Code = "TRANSFER_FAILED"
	CodeUnauthorized      Code = "UNAUTHORIZED"
	CodeForbidden         Code = "FORBIDDEN"
)

// DomainError is a typed business or infrastructure failure.
//
// Address, Requested and Available are populated when the failure concerns a
// specific wallet. Err holds the underlying cause and is never rendered to API
// callers.
type DomainError struct {
	Code      Code
	Message   string
	Address   string
	Requested decimal.Decimal
	Available decimal.Decimal
	Err       error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error { return e.Err }

// Is matches any DomainError carrying the same Code, so the sentinels below
// work with errors.Is regardless of the attached context.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Sentinels for errors.Is.
var (
	ErrPartyNotFound     = &DomainError{Code: CodePartyNotFound, Message: "party not found"}
	ErrWalletNotFound    = &DomainError{Code: CodeWalletNotFound, Message: "wallet not found"}
	ErrDuplicateAddress  = &DomainError{Code: CodeDuplicateAddress, Message: "UPI ID already exists"}
	ErrDuplicateContact  = &DomainError{Code: CodeDuplicateContact, Message: "phone number already registered"}
	ErrInvalidArgument   = &DomainError{Code: CodeInvalidArgument, Message: "invalid argument"}
	ErrSameParty         = &DomainError{Code: CodeSameParty, Message: "cannot send money to yourself"}
	ErrInsufficientFunds = &DomainError{Code: CodeInsufficientFunds, Message: "insufficient balance"}
	ErrTransferFailed    = &DomainError{Code: CodeTransferFailed, Message: "transaction failed"}
	ErrUnauthorized      = &DomainError{Code: CodeUnauthorized, Message: "invalid phone number or PIN"}
	ErrForbidden         = &DomainError{Code: CodeForbidden, Message: "operation not permitted for this party"}
)

func PartyNotFound(address string) *DomainError {
	return &DomainError{
		Code:    CodePartyNotFound,
		Message: fmt.Sprintf("UPI ID not found: %s", address),
		Address: address,
	}
}

func WalletNotFound(address string) *DomainError {
	return &DomainError{
		Code:    CodeWalletNotFound,
		Message: fmt.Sprintf("wallet not found for UPI ID: %s", address),
		Address: address,
	}
}

func DuplicateAddress(address string) *DomainError {
	return &DomainError{
		Code:    CodeDuplicateAddress,
		Message: fmt.Sprintf("UPI ID already exists: %s", address),
		Address: address,
	}
}

func DuplicateContact(phone string) *DomainError {
	return &DomainError{
		Code:    CodeDuplicateContact,
		Message: fmt.Sprintf("phone number already registered: %s", phone),
	}
}

func InvalidArgument(format string, args ...any) *DomainError {
	return &DomainError{
		Code:    CodeInvalidArgument,
		Message: fmt.Sprintf(format, args...),
	}
}

func SameParty(address string) *DomainError {
	return &DomainError{
		Code:    CodeSameParty,
		Message: "cannot send money to yourself",
		Address: address,
	}
}

// InsufficientFunds reports the balance actually available at the time of the
// check.
func InsufficientFunds(address string, requested, available decimal.Decimal) *DomainError {
	return &DomainError{
		Code:      CodeInsufficientFunds,
		Message:   fmt.Sprintf("insufficient balance. Available: %s, requested: %s", available.StringFixed(2), requested.StringFixed(2)),
		Address:   address,
		Requested: requested,
		Available: available,
	}
}

// TransferFailed wraps an infrastructure failure that happened after
// validation. No partial effect remains, so the caller may retry.
func TransferFailed(cause error) *DomainError {
	return &DomainError{
		Code:    CodeTransferFailed,
		Message: "transaction failed, no funds were moved",
		Err:     cause,
	}
}

// Forbidden is returned when an authenticated party acts on another party's
// wallet.
func Forbidden(address string) *DomainError {
	return &DomainError{
		Code:    CodeForbidden,
		Message: fmt.Sprintf("operation not permitted on UPI ID: %s", address),
		Address: address,
	}
}

// CodeOf returns the Code of the first DomainError in err's chain, or "".
func CodeOf(err error) Code {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Code
	}
	return ""
}

// IsRetryable reports whether the caller may safely retry the operation.
func IsRetryable(err error) bool {
	return stderrors.Is(err, ErrTransferFailed)
}
