package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ApiResponse is the envelope every HTTP endpoint answers with.
type ApiResponse struct {
	Status    string      `json:"status"`
	Data      interface{} `json:"data,omitempty"`
	Message   string      `json:"message,omitempty"`
	ErrorCode string      `json:"errorCode,omitempty"`
}

// CreateTransactionRequest is the body of POST /transaction/create.
type CreateTransactionRequest struct {
	UserId      string          `json:"userId"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description"`
	Type        TransactionType `json:"type"`
	Currency    string          `json:"currency"`
}

// TransactionResponse is the transaction shape returned by the ledger API.
type TransactionResponse struct {
	Id          string            `json:"id"`
	UserId      string            `json:"userId"`
	Amount      decimal.Decimal   `json:"amount"`
	Description string            `json:"description"`
	Type        TransactionType   `json:"type"`
	Status      TransactionStatus `json:"status"`
	CreatedAt   time.Time         `json:"createdAt"`
}

// UpdateBalanceRequest is the body of POST /user/balance/update.
type UpdateBalanceRequest struct {
	UserId     string          `json:"userId"`
	NewBalance decimal.Decimal `json:"newBalance"`
}

// FreezeAccountRequest is the body of POST /user/freeze and /user/unfreeze.
type FreezeAccountRequest struct {
	UserId string `json:"userId"`
}

// CreateUserRequest is the body of POST /user/create on the balance service.
type CreateUserRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
}

// CurrencyConversionResponse is the payload of GET /convert.
type CurrencyConversionResponse struct {
	FromCurrency    string          `json:"fromCurrency"`
	ToCurrency      string          `json:"toCurrency"`
	Amount          decimal.Decimal `json:"amount"`
	ConvertedAmount decimal.Decimal `json:"convertedAmount"`
	Rate            decimal.Decimal `json:"rate"`
}
