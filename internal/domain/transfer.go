/**
 * @description
 * This file defines the core domain models for the ramp-service transfer flow.
 * These structs represent the main entities and data transfer objects (DTOs)
 * used throughout the service's business logic, database interactions, and API layers.
 *
 * @notes
 * - A Transfer's ID is the client-supplied idempotency key. The database enforces
 *   uniqueness on it, which is what makes transfer creation exactly-once.
 * - Monetary amounts use shopspring/decimal and serialize as strings so that no
 *   precision is lost crossing the JSON boundary.
 */

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransferType distinguishes fiat-to-crypto (in) from crypto-to-fiat (out) movements.
type TransferType string

const (
	TransferTypeIn  TransferType = "TransferIn"
	TransferTypeOut TransferType = "TransferOut"
)

// TransferStatus is the lifecycle state of a transfer record.
type TransferStatus string

const (
	TransferStatusStarted   TransferStatus = "TransferStarted"
	TransferStatusFailed    TransferStatus = "TransferFailed"
	TransferStatusCompleted TransferStatus = "TransferCompleted"
)

// FiatType is an ISO-style fiat currency code supported by the ramp.
type FiatType string

const (
	FiatTypeXAF FiatType = "XAF"
	FiatTypeXOF FiatType = "XOF"
	FiatTypeUSD FiatType = "USD"
)

// CryptoType is a crypto asset supported by the ramp.
type CryptoType string

const (
	CryptoTypeCELO CryptoType = "CELO"
	CryptoTypeCUSD CryptoType = "cUSD"
	CryptoTypeCEUR CryptoType = "cEUR"
)

// Transfer represents one fiat<->crypto movement instance. This struct maps
// directly to the `transfers` table in the database.
type Transfer struct {
	// ID equals the idempotency key the client sent when initiating the transfer.
	ID              string          `json:"id"`
	QuoteID         string          `json:"quoteId"`
	FiatAccountID   string          `json:"fiatAccountId"`
	TransferAddress string          `json:"transferAddress"`
	TransferType    TransferType    `json:"transferType"`
	FiatType        FiatType        `json:"fiatType"`
	CryptoType      CryptoType      `json:"cryptoType"`
	AmountProvided  string          `json:"amountProvided"`
	AmountReceived  string          `json:"amountReceived"`
	Fee             decimal.Decimal `json:"fee"`
	Status          TransferStatus  `json:"status"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// TransferRequest is the DTO for incoming transfer initiation API requests.
type TransferRequest struct {
	QuoteID       string `json:"quoteId"`
	FiatAccountID string `json:"fiatAccountId"`
}

// TransferResult is what the initiation endpoints return to the caller. Replayed
// requests receive the same result shape built from the persisted record.
type TransferResult struct {
	TransferID      string         `json:"transferId"`
	TransferStatus  TransferStatus `json:"transferStatus"`
	TransferAddress string         `json:"transferAddress"`
}

// TransferStatusResponse is the full read-model returned by the status endpoint.
type TransferStatusResponse struct {
	Status          TransferStatus  `json:"status"`
	TransferType    TransferType    `json:"transferType"`
	FiatType        FiatType        `json:"fiatType"`
	CryptoType      CryptoType      `json:"cryptoType"`
	AmountProvided  string          `json:"amountProvided"`
	AmountReceived  string          `json:"amountReceived"`
	Fee             decimal.Decimal `json:"fee"`
	FiatAccountID   string          `json:"fiatAccountId"`
	TransferID      string          `json:"transferId"`
	TransferAddress string          `json:"transferAddress"`
}

// StatusResponse builds the status read-model from a persisted transfer.
func (t *Transfer) StatusResponse() TransferStatusResponse {
	return TransferStatusResponse{
		Status:          t.Status,
		TransferType:    t.TransferType,
		FiatType:        t.FiatType,
		CryptoType:      t.CryptoType,
		AmountProvided:  t.AmountProvided,
		AmountReceived:  t.AmountReceived,
		Fee:             t.Fee,
		FiatAccountID:   t.FiatAccountID,
		TransferID:      t.ID,
		TransferAddress: t.TransferAddress,
	}
}

// Result builds the initiation result from a persisted transfer.
func (t *Transfer) Result() TransferResult {
	return TransferResult{
		TransferID:      t.ID,
		TransferStatus:  t.Status,
		TransferAddress: t.TransferAddress,
	}
}
