/**
 * @description
 * This file defines the `Repository` interface, which specifies the contract for all
 * data access operations required by the ramp-service. By defining an interface,
 * we decouple the application's business logic from the specific database implementation
 * (e.g., PostgreSQL), making the code more modular and easier to test.
 *
 * @notes
 * - CreateTransfer is the serialization point for idempotent initiation: a
 *   duplicate transfer id must surface as ErrTransferExists so the caller can
 *   treat it as the authoritative duplicate-detection signal.
 */

package store

import (
	"context"

	"github.com/duniapay/ramp-service/internal/domain"
)

// Repository defines the set of methods for interacting with the database.
type Repository interface {
	// Quote methods (read-only; quotes are owned by the quoting subsystem)
	FindQuoteByID(ctx context.Context, quoteID string) (*domain.Quote, error)

	// Transfer methods
	CreateTransfer(ctx context.Context, transfer *domain.Transfer) error
	FindTransferByID(ctx context.Context, transferID string) (*domain.Transfer, error)

	// Fiat account methods
	CreateFiatAccount(ctx context.Context, account *domain.FiatAccount) error
	FindFiatAccountByID(ctx context.Context, accountID string) (*domain.FiatAccount, error)
	FindFiatAccountsByOwner(ctx context.Context, owner string) ([]domain.FiatAccount, error)
	DeleteFiatAccount(ctx context.Context, accountID, owner string) error

	// KYC methods
	CreateKycRecord(ctx context.Context, record *domain.KycRecord) error
	FindKycRecord(ctx context.Context, owner string, schema domain.KycSchema) (*domain.KycRecord, error)
	UpdateKycStatus(ctx context.Context, owner string, schema domain.KycSchema, status domain.KycStatus) error
	DeleteKycRecord(ctx context.Context, owner string, schema domain.KycSchema) error
}
