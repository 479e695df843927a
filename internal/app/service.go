/**
 * @description
 * This file contains the core business logic for the ramp-service. The `Service`
 * struct owns the transfer initiation state machine, coordinating between the
 * idempotency key store, the database repository, the wallet address deriver,
 * and the message broker.
 *
 * Key features:
 * - Exactly-once transfer creation keyed on the client-supplied idempotency key.
 *   The Redis gate is a fast path; the transfers table's unique id constraint is
 *   the correctness backstop, so two racing requests cannot both create a record.
 * - Quote-driven fee and amount computation, direction-aware.
 * - Configurable policies for expired quotes and missing fee entries.
 *
 * @dependencies
 * - context, errors, fmt, log, time: Standard Go libraries.
 * - internal/domain, internal/store: For domain models and data access.
 * - pkg/wallet, pkg/rabbitmq: For address derivation and event publishing.
 */

package app

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/duniapay/ramp-service/internal/domain"
	"github.com/duniapay/ramp-service/internal/store"
	"github.com/duniapay/ramp-service/pkg/rabbitmq"
	"github.com/duniapay/ramp-service/pkg/wallet"
)

var (
	// ErrMissingIdempotencyKey means the client sent no idempotency-key header.
	ErrMissingIdempotencyKey = errors.New("idempotency key is required")
	// ErrQuoteExpired is returned under the reject policy when initiation
	// references a quote past its guarantee window.
	ErrQuoteExpired = errors.New("quote guarantee window has passed")
	// ErrTransferStateInconsistent means the idempotency key is burned but no
	// transfer record exists for it. Nothing recovers this automatically.
	ErrTransferStateInconsistent = errors.New("idempotency key used but transfer record missing")
)

// ExpiredQuotePolicy governs initiation against a quote whose guaranteedUntil
// has passed.
type ExpiredQuotePolicy string

const (
	// ExpiredQuoteProceed creates the transfer with status TransferStarted even
	// when the quote is expired. This reproduces the legacy behavior, where a
	// failed status assigned on expiry was immediately overwritten, and is the
	// default until product confirms expiry should block.
	ExpiredQuoteProceed ExpiredQuotePolicy = "proceed"
	// ExpiredQuoteReject fails initiation with ErrQuoteExpired.
	ExpiredQuoteReject ExpiredQuotePolicy = "reject"
)

// TransferEventExchange is the default topic exchange lifecycle events are
// published to.
const TransferEventExchange = "ramp.events"

// Service provides the core business logic for the ramp.
type Service struct {
	repo            store.Repository
	keys            IdempotencyKeyStore
	deriver         wallet.Deriver
	eventProducer   rabbitmq.Publisher
	eventExchange   string
	senderKey       string
	receiverKey     string
	onExpiredQuote  ExpiredQuotePolicy
	missingFeeEntry MissingFeePolicy

	// now is injectable so quote-expiry behavior is testable.
	now func() time.Time
}

// NewService creates a new ramp service instance.
func NewService(
	repo store.Repository,
	keys IdempotencyKeyStore,
	deriver wallet.Deriver,
	producer rabbitmq.Publisher,
	senderKey string,
	receiverKey string,
	onExpiredQuote ExpiredQuotePolicy,
	missingFeeEntry MissingFeePolicy,
) *Service {
	return &Service{
		repo:            repo,
		keys:            keys,
		deriver:         deriver,
		eventProducer:   producer,
		eventExchange:   TransferEventExchange,
		senderKey:       senderKey,
		receiverKey:     receiverKey,
		onExpiredQuote:  onExpiredQuote,
		missingFeeEntry: missingFeeEntry,
		now:             time.Now,
	}
}

// SetEventExchange overrides the exchange lifecycle events publish to. An
// empty name keeps the default.
func (s *Service) SetEventExchange(name string) {
	if name != "" {
		s.eventExchange = name
	}
}

// keyMaterialFor picks the direction-appropriate signing key: transfers in are
// funded from the ramp's sender wallet, transfers out pay into the receiver wallet.
func (s *Service) keyMaterialFor(direction domain.TransferType) string {
	if direction == domain.TransferTypeIn {
		return s.senderKey
	}
	return s.receiverKey
}

// InitiateTransfer runs the transfer initiation state machine. A fresh
// domain.Transfer value is allocated per call; nothing is shared between
// concurrent requests except the repository and the key store.
func (s *Service) InitiateTransfer(ctx context.Context, direction domain.TransferType, idempotencyKey string, req domain.TransferRequest) (*domain.TransferResult, error) {
	if idempotencyKey == "" {
		return nil, ErrMissingIdempotencyKey
	}

	// Fast-path gate. Unavailable covers both "already used" and cache errors;
	// either way the replay lookup below is the safe continuation.
	if !s.keys.CheckAvailable(ctx, idempotencyKey) {
		return s.replayTransfer(ctx, idempotencyKey)
	}

	transferAddress, err := s.deriver.DeriveAddress(s.keyMaterialFor(direction))
	if err != nil {
		return nil, fmt.Errorf("derive transfer address: %w", err)
	}

	quote, err := s.repo.FindQuoteByID(ctx, req.QuoteID)
	if err != nil {
		return nil, fmt.Errorf("resolve quote %s: %w", req.QuoteID, err)
	}
	account, err := s.repo.FindFiatAccountByID(ctx, req.FiatAccountID)
	if err != nil {
		return nil, fmt.Errorf("resolve fiat account %s: %w", req.FiatAccountID, err)
	}

	fee, err := ComputeFee(quote, account.FiatAccountType, direction, s.missingFeeEntry)
	if err != nil {
		return nil, err
	}

	transfer := &domain.Transfer{
		ID:              idempotencyKey,
		QuoteID:         quote.ID,
		FiatAccountID:   account.ID,
		TransferAddress: transferAddress,
		TransferType:    direction,
		FiatType:        quote.Quote.FiatType,
		CryptoType:      quote.Quote.CryptoType,
		Fee:             fee,
		Status:          domain.TransferStatusStarted,
	}

	// Transfers in collect fiat and hand out crypto; transfers out are the mirror.
	if direction == domain.TransferTypeIn {
		transfer.AmountProvided = quote.Quote.FiatAmount.String()
		transfer.AmountReceived = quote.Quote.CryptoAmount.String()
	} else {
		transfer.AmountProvided = quote.Quote.CryptoAmount.String()
		transfer.AmountReceived = quote.Quote.FiatAmount.String()
	}

	if quote.ExpiredAt(s.now()) {
		if s.onExpiredQuote == ExpiredQuoteReject {
			log.Printf("level=warn component=transfer msg=\"quote expired; rejecting initiation\" quote_id=%s guaranteed_until=%s", quote.ID, quote.Quote.GuaranteedUntil.Format(time.RFC3339))
			return nil, ErrQuoteExpired
		}
		log.Printf("level=warn component=transfer msg=\"quote expired; proceeding per policy\" quote_id=%s guaranteed_until=%s", quote.ID, quote.Quote.GuaranteedUntil.Format(time.RFC3339))
	}

	if err := s.repo.CreateTransfer(ctx, transfer); err != nil {
		// A duplicate id means another request with the same key won the race.
		// That is the authoritative signal, regardless of what the cache said.
		return nil, err
	}

	// Best-effort from here on: the transfer record exists and is authoritative.
	if !s.keys.MarkUsed(ctx, idempotencyKey, transfer.ID) {
		log.Printf("level=warn component=transfer msg=\"idempotency key not marked; replay protection relies on unique id\" transfer_id=%s", transfer.ID)
	}
	s.publishInitiated(ctx, transfer)

	log.Printf("level=info component=transfer msg=\"transfer initiated\" transfer_id=%s type=%s fiat=%s crypto=%s", transfer.ID, transfer.TransferType, transfer.FiatType, transfer.CryptoType)
	result := transfer.Result()
	return &result, nil
}

// replayTransfer serves a request whose idempotency key is already burned by
// returning the current state of the record created the first time around.
func (s *Service) replayTransfer(ctx context.Context, idempotencyKey string) (*domain.TransferResult, error) {
	transfer, err := s.repo.FindTransferByID(ctx, idempotencyKey)
	if err != nil {
		if errors.Is(err, store.ErrTransferNotFound) {
			// Key burned but no record: either the cache lied (an error was
			// treated as "used") or a crash landed between SETNX and INSERT.
			log.Printf("level=error component=transfer msg=\"idempotency key used but no transfer record\" key=%s", idempotencyKey)
			return nil, ErrTransferStateInconsistent
		}
		return nil, err
	}
	result := transfer.Result()
	return &result, nil
}

// GetTransferStatus returns the full read-model for a transfer.
func (s *Service) GetTransferStatus(ctx context.Context, transferID string) (*domain.TransferStatusResponse, error) {
	transfer, err := s.repo.FindTransferByID(ctx, transferID)
	if err != nil {
		return nil, err
	}
	response := transfer.StatusResponse()
	return &response, nil
}

func (s *Service) publishInitiated(ctx context.Context, transfer *domain.Transfer) {
	if s.eventProducer == nil {
		return
	}
	routingKey := "transfer.initiated.in"
	if transfer.TransferType == domain.TransferTypeOut {
		routingKey = "transfer.initiated.out"
	}
	event := rabbitmq.TransferInitiatedEvent{
		TransferID:      transfer.ID,
		TransferType:    string(transfer.TransferType),
		Status:          string(transfer.Status),
		FiatType:        string(transfer.FiatType),
		CryptoType:      string(transfer.CryptoType),
		TransferAddress: transfer.TransferAddress,
		Timestamp:       time.Now().UTC(),
	}
	if err := s.eventProducer.Publish(ctx, s.eventExchange, routingKey, event); err != nil {
		log.Printf("level=warn component=transfer msg=\"event publish failed\" transfer_id=%s routing_key=%s err=%v", transfer.ID, routingKey, err)
	}
}
