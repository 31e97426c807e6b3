package model

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/shopspring/decimal"
)

type Session struct {
	Account          *common.Address `json:"account,omitempty"`
	IsSubmitting     bool            `json:"isSubmitting"`
	TransactionCount int64           `json:"transactionCount"`
}

type TransferForm struct {
	AddressTo string `json:"addressTo"`
	Amount    string `json:"amount"`
	Keyword   string `json:"keyword"`
	Message   string `json:"message"`
}

// Form field names accepted by TransferForm.Set.
const (
	FieldAddressTo = "addressTo"
	FieldAmount    = "amount"
	FieldKeyword   = "keyword"
	FieldMessage   = "message"
)

// Set merges a single named field into the form and reports whether the
// name was recognised.
func (f *TransferForm) Set(name, value string) bool {
	switch name {
	case FieldAddressTo:
		f.AddressTo = value
	case FieldAmount:
		f.Amount = value
	case FieldKeyword:
		f.Keyword = value
	case FieldMessage:
		f.Message = value
	default:
		return false
	}
	return true
}

type TransferRecord struct {
	AddressFrom string          `json:"addressFrom"`
	AddressTo   string          `json:"addressTo"`
	Timestamp   string          `json:"timestamp"`
	Amount      decimal.Decimal `json:"amount"`
	Message     string          `json:"message"`
	Keyword     string          `json:"keyword"`
}

// RawTransfer mirrors the TransferStruct tuple returned by the ledger
// contract. Field order must match the ABI components.
type RawTransfer struct {
	Sender    common.Address `json:"sender"`
	Receiver  common.Address `json:"receiver"`
	Amount    *big.Int       `json:"amount"`
	Message   string         `json:"message"`
	Timestamp *big.Int       `json:"timestamp"`
	Keyword   string         `json:"keyword"`
}
