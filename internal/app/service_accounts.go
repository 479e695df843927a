/**
 * @description
 * Fiat account registration and KYC submission paths. These are plain validated
 * writes and reads with no concurrency hazard beyond the database's uniqueness
 * constraints, so the service layer stays thin.
 */

package app

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/duniapay/ramp-service/internal/domain"
)

// RegisterFiatAccount stores a new fiat account for the owner from a decoded,
// schema-typed registration payload.
func (s *Service) RegisterFiatAccount(ctx context.Context, owner string, data domain.FiatAccountData) (*domain.FiatAccount, error) {
	account := domain.NewFiatAccount(uuid.NewString(), owner, data)
	if err := s.repo.CreateFiatAccount(ctx, account); err != nil {
		return nil, err
	}
	log.Printf("level=info component=accounts msg=\"fiat account registered\" fiat_account_id=%s schema=%s", account.ID, account.FiatAccountSchema)
	return account, nil
}

// ListFiatAccounts returns every account the owner has registered.
func (s *Service) ListFiatAccounts(ctx context.Context, owner string) ([]domain.FiatAccount, error) {
	return s.repo.FindFiatAccountsByOwner(ctx, owner)
}

// RemoveFiatAccount deletes one of the owner's accounts.
func (s *Service) RemoveFiatAccount(ctx context.Context, accountID, owner string) error {
	return s.repo.DeleteFiatAccount(ctx, accountID, owner)
}

// SubmitKyc stores a PersonalDataAndDocuments submission in KycPending state.
func (s *Service) SubmitKyc(ctx context.Context, owner string, schema domain.KycSchema, submission domain.KycSubmission) (*domain.KycRecord, error) {
	record := &domain.KycRecord{
		ID:                     uuid.NewString(),
		Owner:                  owner,
		KycSchemaName:          schema,
		FirstName:              submission.FirstName,
		MiddleName:             submission.MiddleName,
		LastName:               submission.LastName,
		DateOfBirth:            submission.DateOfBirth.String(),
		Address:                submission.Address.String(),
		PhoneNumber:            submission.PhoneNumber,
		SelfieDocument:         submission.SelfieDocument,
		IdentificationDocument: submission.IdentificationDocument,
		Status:                 domain.KycStatusPending,
	}
	if err := s.repo.CreateKycRecord(ctx, record); err != nil {
		return nil, err
	}
	log.Printf("level=info component=kyc msg=\"kyc submitted\" schema=%s", schema)
	return record, nil
}

// GetKycStatus returns the review state of the owner's submission.
func (s *Service) GetKycStatus(ctx context.Context, owner string, schema domain.KycSchema) (domain.KycStatus, error) {
	record, err := s.repo.FindKycRecord(ctx, owner, schema)
	if err != nil {
		return "", err
	}
	return record.Status, nil
}

// RemoveKyc deletes the owner's submission under the given schema.
func (s *Service) RemoveKyc(ctx context.Context, owner string, schema domain.KycSchema) error {
	return s.repo.DeleteKycRecord(ctx, owner, schema)
}
