/**
 * @description
 * This file defines the Quote domain model. Quotes are issued by the quoting
 * subsystem and are read-only from the ramp-service's perspective: transfer
 * initiation resolves a quote by id, reads its locked-in amounts and its
 * per-account-schema fee table, and never mutates it.
 */

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// QuoteFeeEntry is one row of a quote's fee table, keyed by fiat account schema.
type QuoteFeeEntry struct {
	Fee          decimal.Decimal `json:"fee"`
	FeeType      string          `json:"feeType,omitempty"`
	FeeFrequency string          `json:"feeFrequency,omitempty"`
}

// QuoteDetails carries the locked-in pricing of a quote.
type QuoteDetails struct {
	FiatType        FiatType        `json:"fiatType"`
	CryptoType      CryptoType      `json:"cryptoType"`
	FiatAmount      decimal.Decimal `json:"fiatAmount"`
	CryptoAmount    decimal.Decimal `json:"cryptoAmount"`
	GuaranteedUntil time.Time       `json:"guaranteedUntil"`
}

// Quote is a previously issued, time-bounded price/fee quotation.
// GuaranteedUntil is a hard expiry; what happens when a transfer is started
// against an expired quote is governed by the service's expired-quote policy.
type Quote struct {
	ID          string                              `json:"id"`
	FiatAccount map[FiatAccountSchema]QuoteFeeEntry `json:"fiatAccount"`
	Quote       QuoteDetails                        `json:"quote"`
}

// ExpiredAt reports whether the quote's guarantee window has passed at the
// given instant.
func (q *Quote) ExpiredAt(now time.Time) bool {
	return now.After(q.Quote.GuaranteedUntil)
}
