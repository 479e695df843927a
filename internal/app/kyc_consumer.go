/**
 * @description
 * Consumer applying out-of-band KYC review decisions to stored records. The
 * compliance tooling publishes kyc.review.* events; this handler validates the
 * decision against the record's current state before persisting it.
 *
 * @notes
 * - Malformed events and invalid transitions are acknowledged and dropped;
 *   re-queuing them could never succeed. Only infrastructure errors trigger a
 *   re-queue.
 */

package app

import (
	"context"
	"encoding/json"
	"errors"
	"log"

	"github.com/duniapay/ramp-service/internal/domain"
	"github.com/duniapay/ramp-service/internal/store"
)

// KycReviewEvent is the payload published by the compliance review tooling.
type KycReviewEvent struct {
	Owner     string `json:"owner"`
	KycSchema string `json:"kycSchema"`
	KycStatus string `json:"kycStatus"`
}

// KycReviewConsumer applies review decisions to stored KYC records.
type KycReviewConsumer struct {
	repo store.Repository
}

// KycReviewConsumer returns a consumer sharing the service's repository.
func (s *Service) KycReviewConsumer() *KycReviewConsumer {
	return &KycReviewConsumer{repo: s.repo}
}

// isValidKycTransition enumerates the review state machine. Pending records
// get a decision; approved records can only lapse.
func isValidKycTransition(from, to domain.KycStatus) bool {
	switch from {
	case domain.KycStatusPending:
		return to == domain.KycStatusApproved || to == domain.KycStatusDenied
	case domain.KycStatusApproved:
		return to == domain.KycStatusExpired
	default:
		return false
	}
}

// HandleMessage processes one review event. It returns false only for
// infrastructure failures, which re-queues the delivery.
func (c *KycReviewConsumer) HandleMessage(body []byte) bool {
	var event KycReviewEvent
	if err := json.Unmarshal(body, &event); err != nil {
		log.Printf("level=warn component=kyc_review msg=\"malformed event; dropping\" err=%v", err)
		return true
	}

	schema := domain.KycSchema(event.KycSchema)
	if schema != domain.KycSchemaPersonalDataAndDocuments {
		log.Printf("level=warn component=kyc_review msg=\"unknown kyc schema; dropping\" schema=%q", event.KycSchema)
		return true
	}
	target := domain.KycStatus(event.KycStatus)
	switch target {
	case domain.KycStatusApproved, domain.KycStatusDenied, domain.KycStatusExpired:
	default:
		log.Printf("level=warn component=kyc_review msg=\"unknown kyc status; dropping\" status=%q", event.KycStatus)
		return true
	}

	ctx := context.Background()
	record, err := c.repo.FindKycRecord(ctx, event.Owner, schema)
	if err != nil {
		if errors.Is(err, store.ErrKycRecordNotFound) {
			log.Printf("level=warn component=kyc_review msg=\"no record for review decision; dropping\" schema=%s", schema)
			return true
		}
		log.Printf("level=error component=kyc_review msg=\"record lookup failed; re-queuing\" err=%v", err)
		return false
	}

	if !isValidKycTransition(record.Status, target) {
		log.Printf("level=warn component=kyc_review msg=\"invalid status transition; dropping\" from=%s to=%s", record.Status, target)
		return true
	}

	if err := c.repo.UpdateKycStatus(ctx, event.Owner, schema, target); err != nil {
		if errors.Is(err, store.ErrKycRecordNotFound) {
			// Deleted between lookup and update; nothing left to review.
			return true
		}
		log.Printf("level=error component=kyc_review msg=\"status update failed; re-queuing\" err=%v", err)
		return false
	}

	log.Printf("level=info component=kyc_review msg=\"kyc status updated\" from=%s to=%s", record.Status, target)
	return true
}
