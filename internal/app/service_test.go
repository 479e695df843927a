package app

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/duniapay/ramp-service/internal/domain"
	"github.com/duniapay/ramp-service/internal/store"
)

// rampRepoStub embeds the Repository interface and backs transfers with an
// in-memory map guarded by a mutex, so the unique-id arbitration the real
// database performs is reproduced faithfully under concurrency.
type rampRepoStub struct {
	store.Repository

	mu        sync.Mutex
	transfers map[string]*domain.Transfer
	quote     *domain.Quote
	account   *domain.FiatAccount

	createCalls int
}

func (s *rampRepoStub) FindQuoteByID(ctx context.Context, quoteID string) (*domain.Quote, error) {
	if s.quote == nil || s.quote.ID != quoteID {
		return nil, store.ErrQuoteNotFound
	}
	return s.quote, nil
}

func (s *rampRepoStub) FindFiatAccountByID(ctx context.Context, accountID string) (*domain.FiatAccount, error) {
	if s.account == nil || s.account.ID != accountID {
		return nil, store.ErrFiatAccountNotFound
	}
	return s.account, nil
}

func (s *rampRepoStub) CreateTransfer(ctx context.Context, transfer *domain.Transfer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.createCalls++
	if s.transfers == nil {
		s.transfers = make(map[string]*domain.Transfer)
	}
	if _, exists := s.transfers[transfer.ID]; exists {
		return store.ErrTransferExists
	}
	copied := *transfer
	s.transfers[transfer.ID] = &copied
	return nil
}

func (s *rampRepoStub) FindTransferByID(ctx context.Context, transferID string) (*domain.Transfer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	transfer, ok := s.transfers[transferID]
	if !ok {
		return nil, store.ErrTransferNotFound
	}
	copied := *transfer
	return &copied, nil
}

// keyStoreStub mimics Redis SETNX semantics in memory. With alwaysAvailable
// set, CheckAvailable lies and reports every key as fresh, which forces the
// repository's unique constraint to arbitrate racing creations.
type keyStoreStub struct {
	mu              sync.Mutex
	used            map[string]string
	alwaysAvailable bool
	failChecks      bool
}

func (k *keyStoreStub) CheckAvailable(ctx context.Context, key string) bool {
	if k.failChecks {
		// A cache error reads as "not available".
		return false
	}
	if k.alwaysAvailable {
		return true
	}
	k.mu.Lock()
	defer k.mu.Unlock()
	_, exists := k.used[key]
	return !exists
}

func (k *keyStoreStub) MarkUsed(ctx context.Context, key, transferID string) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.used == nil {
		k.used = make(map[string]string)
	}
	if _, exists := k.used[key]; exists {
		return false
	}
	k.used[key] = transferID
	return true
}

type deriverStub struct{}

func (deriverStub) DeriveAddress(keyMaterial string) (string, error) {
	if keyMaterial == "" {
		return "", errors.New("no key material")
	}
	return "0xaddr-" + keyMaterial, nil
}

func testQuote(guaranteedUntil time.Time) *domain.Quote {
	return &domain.Quote{
		ID: "quote-1",
		FiatAccount: map[domain.FiatAccountSchema]domain.QuoteFeeEntry{
			domain.FiatAccountSchemaMobileMoney: {Fee: decimal.NewFromInt(50)},
			domain.FiatAccountSchemaDuniaWallet: {Fee: decimal.NewFromInt(25)},
		},
		Quote: domain.QuoteDetails{
			FiatType:        domain.FiatTypeXAF,
			CryptoType:      domain.CryptoTypeCUSD,
			FiatAmount:      decimal.NewFromInt(1000),
			CryptoAmount:    decimal.NewFromInt(10),
			GuaranteedUntil: guaranteedUntil,
		},
	}
}

func testAccount() *domain.FiatAccount {
	return &domain.FiatAccount{
		ID:              "account-1",
		Owner:           "0xowner",
		FiatAccountType: domain.FiatAccountTypeMobileMoney,
	}
}

func newTestService(repo *rampRepoStub, keys IdempotencyKeyStore) *Service {
	return NewService(repo, keys, deriverStub{}, nil, "sender-key", "receiver-key", ExpiredQuoteProceed, MissingFeeZero)
}

func TestInitiateTransfer_MissingKeyRejected(t *testing.T) {
	svc := newTestService(&rampRepoStub{}, &keyStoreStub{})

	_, err := svc.InitiateTransfer(context.Background(), domain.TransferTypeIn, "", domain.TransferRequest{QuoteID: "quote-1", FiatAccountID: "account-1"})
	if !errors.Is(err, ErrMissingIdempotencyKey) {
		t.Fatalf("expected ErrMissingIdempotencyKey, got %v", err)
	}
}

func TestInitiateTransfer_CreatesStartedTransfer(t *testing.T) {
	repo := &rampRepoStub{quote: testQuote(time.Now().Add(time.Hour)), account: testAccount()}
	keys := &keyStoreStub{}
	svc := newTestService(repo, keys)

	result, err := svc.InitiateTransfer(context.Background(), domain.TransferTypeIn, "key-1", domain.TransferRequest{QuoteID: "quote-1", FiatAccountID: "account-1"})
	if err != nil {
		t.Fatalf("InitiateTransfer returned error: %v", err)
	}
	if result.TransferID != "key-1" {
		t.Fatalf("expected transfer id to equal idempotency key, got %q", result.TransferID)
	}
	if result.TransferStatus != domain.TransferStatusStarted {
		t.Fatalf("expected TransferStarted, got %q", result.TransferStatus)
	}
	if result.TransferAddress != "0xaddr-sender-key" {
		t.Fatalf("expected transfer-in to use the sender key, got %q", result.TransferAddress)
	}

	persisted := repo.transfers["key-1"]
	if persisted == nil {
		t.Fatal("expected a persisted transfer record")
	}
	if persisted.AmountProvided != "1000" || persisted.AmountReceived != "10" {
		t.Fatalf("expected in-direction amounts 1000/10, got %s/%s", persisted.AmountProvided, persisted.AmountReceived)
	}
	if !persisted.Fee.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected MobileMoney fee 50, got %s", persisted.Fee)
	}
	if keys.used["key-1"] != "key-1" {
		t.Fatalf("expected key marked used with transfer id, got %q", keys.used["key-1"])
	}
}

func TestInitiateTransfer_OutDirectionReversesAmountsAndKey(t *testing.T) {
	repo := &rampRepoStub{quote: testQuote(time.Now().Add(time.Hour)), account: testAccount()}
	svc := newTestService(repo, &keyStoreStub{})

	result, err := svc.InitiateTransfer(context.Background(), domain.TransferTypeOut, "key-out", domain.TransferRequest{QuoteID: "quote-1", FiatAccountID: "account-1"})
	if err != nil {
		t.Fatalf("InitiateTransfer returned error: %v", err)
	}
	if result.TransferAddress != "0xaddr-receiver-key" {
		t.Fatalf("expected transfer-out to use the receiver key, got %q", result.TransferAddress)
	}

	persisted := repo.transfers["key-out"]
	if persisted.AmountProvided != "10" || persisted.AmountReceived != "1000" {
		t.Fatalf("expected out-direction amounts 10/1000, got %s/%s", persisted.AmountProvided, persisted.AmountReceived)
	}
}

func TestInitiateTransfer_ExactlyOnceUnderConcurrency(t *testing.T) {
	repo := &rampRepoStub{quote: testQuote(time.Now().Add(time.Hour)), account: testAccount()}
	// The cache claims every key is fresh, so only the repository's unique id
	// constraint separates winner from losers.
	svc := newTestService(repo, &keyStoreStub{alwaysAvailable: true})

	const workers = 16
	var wg sync.WaitGroup
	errs := make([]error, workers)
	results := make([]*domain.TransferResult, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = svc.InitiateTransfer(context.Background(), domain.TransferTypeIn, "shared-key", domain.TransferRequest{QuoteID: "quote-1", FiatAccountID: "account-1"})
		}(i)
	}
	wg.Wait()

	if len(repo.transfers) != 1 {
		t.Fatalf("expected exactly one persisted transfer, got %d", len(repo.transfers))
	}

	winners := 0
	for i := 0; i < workers; i++ {
		switch {
		case errs[i] == nil:
			winners++
			if results[i].TransferID != "shared-key" {
				t.Fatalf("winner reported wrong transfer id %q", results[i].TransferID)
			}
		case errors.Is(errs[i], store.ErrTransferExists):
			// A loser of the insert race; acceptable per the conflict contract.
		default:
			t.Fatalf("unexpected error from request %d: %v", i, errs[i])
		}
	}
	if winners < 1 {
		t.Fatal("expected at least one request to win creation")
	}
}

func TestInitiateTransfer_ReplayReturnsExistingRecord(t *testing.T) {
	repo := &rampRepoStub{quote: testQuote(time.Now().Add(time.Hour)), account: testAccount()}
	keys := &keyStoreStub{}
	svc := newTestService(repo, keys)

	first, err := svc.InitiateTransfer(context.Background(), domain.TransferTypeIn, "key-replay", domain.TransferRequest{QuoteID: "quote-1", FiatAccountID: "account-1"})
	if err != nil {
		t.Fatalf("first initiation returned error: %v", err)
	}

	second, err := svc.InitiateTransfer(context.Background(), domain.TransferTypeIn, "key-replay", domain.TransferRequest{QuoteID: "quote-1", FiatAccountID: "account-1"})
	if err != nil {
		t.Fatalf("replay returned error: %v", err)
	}
	if second.TransferID != first.TransferID || second.TransferAddress != first.TransferAddress {
		t.Fatalf("expected replay to return the original record, got %+v vs %+v", second, first)
	}
	if repo.createCalls != 1 {
		t.Fatalf("expected a single create attempt, got %d", repo.createCalls)
	}
}

func TestInitiateTransfer_CacheErrorRoutesToReplayPath(t *testing.T) {
	repo := &rampRepoStub{
		quote:   testQuote(time.Now().Add(time.Hour)),
		account: testAccount(),
		transfers: map[string]*domain.Transfer{
			"key-cache-down": {
				ID:              "key-cache-down",
				Status:          domain.TransferStatusStarted,
				TransferAddress: "0xexisting",
			},
		},
	}
	svc := newTestService(repo, &keyStoreStub{failChecks: true})

	result, err := svc.InitiateTransfer(context.Background(), domain.TransferTypeIn, "key-cache-down", domain.TransferRequest{QuoteID: "quote-1", FiatAccountID: "account-1"})
	if err != nil {
		t.Fatalf("expected replay result despite cache failure, got %v", err)
	}
	if result.TransferAddress != "0xexisting" {
		t.Fatalf("expected the persisted record's address, got %q", result.TransferAddress)
	}
	if repo.createCalls != 0 {
		t.Fatalf("expected no create attempts when cache reads fail, got %d", repo.createCalls)
	}
}

func TestInitiateTransfer_KeyUsedButRecordMissingIsInconsistent(t *testing.T) {
	repo := &rampRepoStub{quote: testQuote(time.Now().Add(time.Hour)), account: testAccount()}
	keys := &keyStoreStub{used: map[string]string{"orphan-key": "orphan-key"}}
	svc := newTestService(repo, keys)

	_, err := svc.InitiateTransfer(context.Background(), domain.TransferTypeIn, "orphan-key", domain.TransferRequest{QuoteID: "quote-1", FiatAccountID: "account-1"})
	if !errors.Is(err, ErrTransferStateInconsistent) {
		t.Fatalf("expected ErrTransferStateInconsistent, got %v", err)
	}
}

func TestInitiateTransfer_UnknownQuoteOrAccount(t *testing.T) {
	repo := &rampRepoStub{quote: testQuote(time.Now().Add(time.Hour)), account: testAccount()}
	svc := newTestService(repo, &keyStoreStub{})

	_, err := svc.InitiateTransfer(context.Background(), domain.TransferTypeIn, "key-q", domain.TransferRequest{QuoteID: "no-such-quote", FiatAccountID: "account-1"})
	if !errors.Is(err, store.ErrQuoteNotFound) {
		t.Fatalf("expected ErrQuoteNotFound, got %v", err)
	}

	_, err = svc.InitiateTransfer(context.Background(), domain.TransferTypeIn, "key-a", domain.TransferRequest{QuoteID: "quote-1", FiatAccountID: "no-such-account"})
	if !errors.Is(err, store.ErrFiatAccountNotFound) {
		t.Fatalf("expected ErrFiatAccountNotFound, got %v", err)
	}
}

func TestInitiateTransfer_ExpiredQuoteProceedPolicy(t *testing.T) {
	repo := &rampRepoStub{quote: testQuote(time.Now().Add(-time.Minute)), account: testAccount()}
	svc := newTestService(repo, &keyStoreStub{})

	result, err := svc.InitiateTransfer(context.Background(), domain.TransferTypeIn, "key-expired", domain.TransferRequest{QuoteID: "quote-1", FiatAccountID: "account-1"})
	if err != nil {
		t.Fatalf("proceed policy should not fail on expiry, got %v", err)
	}
	if result.TransferStatus != domain.TransferStatusStarted {
		t.Fatalf("proceed policy should yield TransferStarted, got %q", result.TransferStatus)
	}
}

func TestInitiateTransfer_ExpiredQuoteRejectPolicy(t *testing.T) {
	repo := &rampRepoStub{quote: testQuote(time.Now().Add(-time.Minute)), account: testAccount()}
	svc := NewService(repo, &keyStoreStub{}, deriverStub{}, nil, "sender-key", "receiver-key", ExpiredQuoteReject, MissingFeeZero)

	_, err := svc.InitiateTransfer(context.Background(), domain.TransferTypeIn, "key-expired", domain.TransferRequest{QuoteID: "quote-1", FiatAccountID: "account-1"})
	if !errors.Is(err, ErrQuoteExpired) {
		t.Fatalf("expected ErrQuoteExpired, got %v", err)
	}
	if len(repo.transfers) != 0 {
		t.Fatalf("reject policy must not persist a transfer, found %d", len(repo.transfers))
	}
}

func TestGetTransferStatus_RoundTrip(t *testing.T) {
	repo := &rampRepoStub{quote: testQuote(time.Now().Add(time.Hour)), account: testAccount()}
	svc := newTestService(repo, &keyStoreStub{})

	created, err := svc.InitiateTransfer(context.Background(), domain.TransferTypeIn, "key-status", domain.TransferRequest{QuoteID: "quote-1", FiatAccountID: "account-1"})
	if err != nil {
		t.Fatalf("InitiateTransfer returned error: %v", err)
	}

	status, err := svc.GetTransferStatus(context.Background(), created.TransferID)
	if err != nil {
		t.Fatalf("GetTransferStatus returned error: %v", err)
	}
	if status.Status != created.TransferStatus {
		t.Fatalf("status mismatch: %q vs %q", status.Status, created.TransferStatus)
	}
	if status.TransferAddress != created.TransferAddress {
		t.Fatalf("address mismatch: %q vs %q", status.TransferAddress, created.TransferAddress)
	}
	if status.AmountProvided != "1000" || status.AmountReceived != "10" {
		t.Fatalf("unexpected amounts %s/%s", status.AmountProvided, status.AmountReceived)
	}
}

func TestGetTransferStatus_UnknownID(t *testing.T) {
	svc := newTestService(&rampRepoStub{}, &keyStoreStub{})

	_, err := svc.GetTransferStatus(context.Background(), "missing")
	if !errors.Is(err, store.ErrTransferNotFound) {
		t.Fatalf("expected ErrTransferNotFound, got %v", err)
	}
}
