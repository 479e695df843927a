/**
 * @description
 * Fee selection for transfer initiation. A quote carries a fee table keyed by
 * fiat account schema; the entry is picked from the resolved account's type.
 *
 * @notes
 * - The fallback order is intentionally asymmetric between directions and
 *   reproduces the behavior the settlement desk has been reconciling against:
 *   transfer-in only ever falls back to DuniaWallet, transfer-out falls back
 *   through DuniaWallet to AccountNumber.
 */

package app

import (
	"errors"

	"github.com/shopspring/decimal"

	"github.com/duniapay/ramp-service/internal/domain"
)

// ErrFeeEntryMissing is returned under the reject policy when the quote's fee
// table has no entry for the resolved account schema.
var ErrFeeEntryMissing = errors.New("no fee entry for fiat account type")

// MissingFeePolicy governs what happens when a quote's fee table lacks an
// entry for the account's schema.
type MissingFeePolicy string

const (
	// MissingFeeZero charges a zero fee when the entry is absent. This is the
	// legacy behavior and the default.
	MissingFeeZero MissingFeePolicy = "zero"
	// MissingFeeReject fails the initiation when the entry is absent.
	MissingFeeReject MissingFeePolicy = "reject"
)

// feeSchemaFor maps an account's type to the fee-table schema key used for the
// given direction, preserving the direction-dependent fallback order.
func feeSchemaFor(accountType domain.FiatAccountType, direction domain.TransferType) domain.FiatAccountSchema {
	if accountType == domain.FiatAccountTypeMobileMoney {
		return domain.FiatAccountSchemaMobileMoney
	}
	if direction == domain.TransferTypeIn {
		return domain.FiatAccountSchemaDuniaWallet
	}
	if accountType == domain.FiatAccountTypeDuniaWallet {
		return domain.FiatAccountSchemaDuniaWallet
	}
	return domain.FiatAccountSchemaAccountNumber
}

// ComputeFee selects the fee a transfer pays from the quote's fee table.
func ComputeFee(quote *domain.Quote, accountType domain.FiatAccountType, direction domain.TransferType, policy MissingFeePolicy) (decimal.Decimal, error) {
	schema := feeSchemaFor(accountType, direction)
	if entry, ok := quote.FiatAccount[schema]; ok {
		return entry.Fee, nil
	}
	if policy == MissingFeeReject {
		return decimal.Zero, ErrFeeEntryMissing
	}
	return decimal.Zero, nil
}
