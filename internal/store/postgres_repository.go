/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository` interface.
 * It contains all the necessary SQL queries to interact with the database tables
 * holding quotes, transfers, fiat accounts, and KYC records.
 *
 * @dependencies
 * - context, errors: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver for database operations.
 * - internal/domain: Contains the domain models used for data transfer.
 */

package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/duniapay/ramp-service/internal/domain"
)

var (
	ErrQuoteNotFound       = errors.New("quote not found")
	ErrTransferNotFound    = errors.New("transfer not found")
	ErrTransferExists      = errors.New("transfer already exists")
	ErrFiatAccountNotFound = errors.New("fiat account not found")
	ErrFiatAccountExists   = errors.New("fiat account already exists")
	ErrKycRecordNotFound   = errors.New("kyc record not found")
	ErrKycRecordExists     = errors.New("kyc record already exists")
)

// pgUniqueViolation is the SQLSTATE code PostgreSQL reports for unique
// constraint violations.
const pgUniqueViolation = "23505"

// PostgresRepository is a concrete implementation of the Repository interface for PostgreSQL.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new instance of PostgresRepository.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// FindQuoteByID retrieves a quote by its id. The fee table and pricing details
// are stored as JSONB columns mirroring the shape the quoting subsystem writes.
func (r *PostgresRepository) FindQuoteByID(ctx context.Context, quoteID string) (*domain.Quote, error) {
	var (
		quote       domain.Quote
		feeTableRaw []byte
		detailsRaw  []byte
	)
	query := `SELECT id, fiat_account, quote FROM quotes WHERE id = $1`
	err := r.db.QueryRow(ctx, query, quoteID).Scan(&quote.ID, &feeTableRaw, &detailsRaw)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrQuoteNotFound
		}
		return nil, err
	}
	if err := json.Unmarshal(feeTableRaw, &quote.FiatAccount); err != nil {
		return nil, fmt.Errorf("decode quote fee table: %w", err)
	}
	if err := json.Unmarshal(detailsRaw, &quote.Quote); err != nil {
		return nil, fmt.Errorf("decode quote details: %w", err)
	}
	return &quote, nil
}

// CreateTransfer inserts a transfer record. The primary key on transfers.id is
// the uniqueness backstop for idempotent initiation; a violation surfaces as
// ErrTransferExists rather than a raw driver error.
func (r *PostgresRepository) CreateTransfer(ctx context.Context, transfer *domain.Transfer) error {
	now := time.Now().UTC()
	transfer.CreatedAt = now
	transfer.UpdatedAt = now

	query := `
		INSERT INTO transfers (
			id, quote_id, fiat_account_id, transfer_address, transfer_type,
			fiat_type, crypto_type, amount_provided, amount_received, fee,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.Exec(ctx, query,
		transfer.ID,
		transfer.QuoteID,
		transfer.FiatAccountID,
		transfer.TransferAddress,
		transfer.TransferType,
		transfer.FiatType,
		transfer.CryptoType,
		transfer.AmountProvided,
		transfer.AmountReceived,
		transfer.Fee,
		transfer.Status,
		transfer.CreatedAt,
		transfer.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrTransferExists
		}
		return err
	}
	return nil
}

// FindTransferByID retrieves a transfer by its id (the idempotency key).
func (r *PostgresRepository) FindTransferByID(ctx context.Context, transferID string) (*domain.Transfer, error) {
	var transfer domain.Transfer
	query := `
		SELECT id, quote_id, fiat_account_id, transfer_address, transfer_type,
		       fiat_type, crypto_type, amount_provided, amount_received, fee,
		       status, created_at, updated_at
		FROM transfers
		WHERE id = $1
	`
	err := r.db.QueryRow(ctx, query, transferID).Scan(
		&transfer.ID,
		&transfer.QuoteID,
		&transfer.FiatAccountID,
		&transfer.TransferAddress,
		&transfer.TransferType,
		&transfer.FiatType,
		&transfer.CryptoType,
		&transfer.AmountProvided,
		&transfer.AmountReceived,
		&transfer.Fee,
		&transfer.Status,
		&transfer.CreatedAt,
		&transfer.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrTransferNotFound
		}
		return nil, err
	}
	return &transfer, nil
}

// CreateFiatAccount inserts a registered fiat account.
func (r *PostgresRepository) CreateFiatAccount(ctx context.Context, account *domain.FiatAccount) error {
	account.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO fiat_accounts (
			id, owner, account_name, institution_name, fiat_account_type,
			fiat_account_schema, account_number, mobile, operator, country, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	_, err := r.db.Exec(ctx, query,
		account.ID,
		account.Owner,
		account.AccountName,
		account.InstitutionName,
		account.FiatAccountType,
		account.FiatAccountSchema,
		account.AccountNumber,
		account.Mobile,
		account.Operator,
		account.Country,
		account.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrFiatAccountExists
		}
		return err
	}
	return nil
}

// FindFiatAccountByID retrieves a fiat account by id without owner scoping;
// transfer initiation resolves accounts referenced by quotes this way.
func (r *PostgresRepository) FindFiatAccountByID(ctx context.Context, accountID string) (*domain.FiatAccount, error) {
	query := `
		SELECT id, owner, account_name, institution_name, fiat_account_type,
		       fiat_account_schema, account_number, mobile, operator, country, created_at
		FROM fiat_accounts
		WHERE id = $1
	`
	return r.scanFiatAccount(r.db.QueryRow(ctx, query, accountID))
}

// FindFiatAccountsByOwner lists every account registered by an owner address.
func (r *PostgresRepository) FindFiatAccountsByOwner(ctx context.Context, owner string) ([]domain.FiatAccount, error) {
	query := `
		SELECT id, owner, account_name, institution_name, fiat_account_type,
		       fiat_account_schema, account_number, mobile, operator, country, created_at
		FROM fiat_accounts
		WHERE owner = $1
		ORDER BY created_at DESC
	`
	rows, err := r.db.Query(ctx, query, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []domain.FiatAccount{}
	for rows.Next() {
		var account domain.FiatAccount
		if err := rows.Scan(
			&account.ID,
			&account.Owner,
			&account.AccountName,
			&account.InstitutionName,
			&account.FiatAccountType,
			&account.FiatAccountSchema,
			&account.AccountNumber,
			&account.Mobile,
			&account.Operator,
			&account.Country,
			&account.CreatedAt,
		); err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// DeleteFiatAccount removes an account owned by the given address.
func (r *PostgresRepository) DeleteFiatAccount(ctx context.Context, accountID, owner string) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM fiat_accounts WHERE id = $1 AND owner = $2`, accountID, owner)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrFiatAccountNotFound
	}
	return nil
}

func (r *PostgresRepository) scanFiatAccount(row pgx.Row) (*domain.FiatAccount, error) {
	var account domain.FiatAccount
	err := row.Scan(
		&account.ID,
		&account.Owner,
		&account.AccountName,
		&account.InstitutionName,
		&account.FiatAccountType,
		&account.FiatAccountSchema,
		&account.AccountNumber,
		&account.Mobile,
		&account.Operator,
		&account.Country,
		&account.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrFiatAccountNotFound
		}
		return nil, err
	}
	return &account, nil
}

// CreateKycRecord inserts a KYC submission. The unique index on
// (owner, kyc_schema) makes re-submission a conflict.
func (r *PostgresRepository) CreateKycRecord(ctx context.Context, record *domain.KycRecord) error {
	record.CreatedAt = time.Now().UTC()

	query := `
		INSERT INTO kyc_records (
			id, owner, kyc_schema, first_name, middle_name, last_name,
			date_of_birth, address, phone_number, selfie_document,
			identification_document, status, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`
	_, err := r.db.Exec(ctx, query,
		record.ID,
		record.Owner,
		record.KycSchemaName,
		record.FirstName,
		record.MiddleName,
		record.LastName,
		record.DateOfBirth,
		record.Address,
		record.PhoneNumber,
		record.SelfieDocument,
		record.IdentificationDocument,
		record.Status,
		record.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrKycRecordExists
		}
		return err
	}
	return nil
}

// FindKycRecord retrieves the KYC record for an owner under a given schema.
func (r *PostgresRepository) FindKycRecord(ctx context.Context, owner string, schema domain.KycSchema) (*domain.KycRecord, error) {
	var record domain.KycRecord
	query := `
		SELECT id, owner, kyc_schema, first_name, middle_name, last_name,
		       date_of_birth, address, phone_number, selfie_document,
		       identification_document, status, created_at
		FROM kyc_records
		WHERE owner = $1 AND kyc_schema = $2
	`
	err := r.db.QueryRow(ctx, query, owner, schema).Scan(
		&record.ID,
		&record.Owner,
		&record.KycSchemaName,
		&record.FirstName,
		&record.MiddleName,
		&record.LastName,
		&record.DateOfBirth,
		&record.Address,
		&record.PhoneNumber,
		&record.SelfieDocument,
		&record.IdentificationDocument,
		&record.Status,
		&record.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrKycRecordNotFound
		}
		return nil, err
	}
	return &record, nil
}

// UpdateKycStatus sets the review state of an existing KYC record.
func (r *PostgresRepository) UpdateKycStatus(ctx context.Context, owner string, schema domain.KycSchema, status domain.KycStatus) error {
	tag, err := r.db.Exec(ctx,
		`UPDATE kyc_records SET status = $1 WHERE owner = $2 AND kyc_schema = $3`,
		status, owner, schema,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrKycRecordNotFound
	}
	return nil
}

// DeleteKycRecord removes the KYC record for an owner under a given schema.
func (r *PostgresRepository) DeleteKycRecord(ctx context.Context, owner string, schema domain.KycSchema) error {
	tag, err := r.db.Exec(ctx, `DELETE FROM kyc_records WHERE owner = $1 AND kyc_schema = $2`, owner, schema)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrKycRecordNotFound
	}
	return nil
}
