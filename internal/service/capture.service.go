package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fitledger/internal/domain"
	"fitledger/internal/events"
	"fitledger/internal/gateway"
	"fitledger/internal/metrics"
	"fitledger/internal/money"
	"fitledger/internal/ordercode"
	"fitledger/internal/repo"
)

// EntitlementTTLs sets the optional expiry written onto new records, per
// item type. Zero duration means the entitlement never expires.
type EntitlementTTLs struct {
	Bundle time.Duration
	Course time.Duration
}

type FailedItem struct {
	ItemID string `json:"item_id"`
	Reason string `json:"reason"`
}

type CaptureResult struct {
	OrderID         string                  `json:"order_id"`
	CaptureID       string                  `json:"capture_id,omitempty"`
	Status          string                  `json:"status"`
	PayerID         string                  `json:"payer_id,omitempty"`
	AlreadyCaptured bool                    `json:"already_captured"`
	Records         []domain.PurchaseRecord `json:"-"`
	FailedItems     []FailedItem            `json:"failed_items,omitempty"`
}

// CaptureService turns one gateway capture into N durable purchase records.
// The fan-out is deliberately not atomic: each record is independently
// valuable after a real charge, so a failed write is collected and left to
// reconciliation instead of rolling back its siblings.
type CaptureService struct {
	gw      gateway.Client
	ledger  repo.LedgerRepo
	journal repo.JournalRepo
	pub     *events.Publisher
	ttls    EntitlementTTLs
	log     *slog.Logger
}

func NewCaptureService(
	gw gateway.Client,
	ledger repo.LedgerRepo,
	journal repo.JournalRepo,
	pub *events.Publisher,
	ttls EntitlementTTLs,
	log *slog.Logger,
) *CaptureService {
	return &CaptureService{gw: gw, ledger: ledger, journal: journal, pub: pub, ttls: ttls, log: log}
}

func (s *CaptureService) CapturePayment(ctx context.Context, orderID string) (*CaptureResult, error) {
	outcome, err := s.gw.Capture(ctx, orderID)
	if errors.Is(err, domain.ErrAlreadyCaptured) {
		// Idempotency lives here, not in the ledger: the gateway's replay
		// rejection means the original capture already fanned out, so a
		// second set of records must never be written.
		metrics.CaptureReplays.Inc()
		s.log.Info("capture replay ignored", slog.String("order_id", orderID))
		return &CaptureResult{OrderID: orderID, Status: "COMPLETED", AlreadyCaptured: true}, nil
	}
	if err != nil {
		return nil, err
	}

	if outcome.CustomID == "" {
		// Money moved with no way to attribute it. Nothing to retry;
		// operators reconcile from the gateway's transaction log.
		s.log.Error("captured order carries no encoding, manual reconciliation required",
			slog.String("order_id", orderID),
			slog.String("capture_id", outcome.CaptureID),
			slog.String("amount", outcome.Amount.Value()),
		)
		return nil, domain.ErrMissingOrderEncoding
	}

	decoded, err := ordercode.Decode(outcome.CustomID)
	if err != nil {
		s.log.Error("captured order encoding is malformed, manual reconciliation required",
			slog.String("order_id", orderID),
			slog.String("encoding", outcome.CustomID),
			slog.Any("error", err),
		)
		return nil, err
	}

	now := time.Now().UTC()
	if err := s.journal.Begin(ctx, &repo.CaptureJournal{
		PaymentID:   orderID,
		Encoding:    outcome.CustomID,
		AmountMinor: outcome.Amount.MinorUnits,
		Currency:    outcome.Amount.Currency,
		ItemCount:   len(decoded.Items),
		Status:      repo.JournalRecording,
		CreatedAt:   now,
		UpdatedAt:   now,
	}); err != nil {
		// The ledger writes are the valuable part; a journal miss only
		// costs automatic repair of a later partial failure.
		s.log.Warn("capture journal write failed", slog.String("order_id", orderID), slog.Any("error", err))
	}

	result := &CaptureResult{
		OrderID:   orderID,
		CaptureID: outcome.CaptureID,
		Status:    outcome.Status,
		PayerID:   outcome.PayerID,
	}

	shares := money.Split(outcome.Amount, len(decoded.Items))
	for i, item := range decoded.Items {
		record := &domain.PurchaseRecord{
			ID:          uuid.New(),
			BuyerID:     decoded.BuyerID,
			ItemID:      item.ID,
			ItemType:    item.Type,
			PaymentID:   orderID,
			AmountMinor: shares[i].MinorUnits,
			Currency:    shares[i].Currency,
			IsActive:    true,
			ExpiresAt:   s.expiry(item.Type, now),
			CreatedAt:   now,
		}
		if err := s.ledger.Create(ctx, record); err != nil {
			// No early abort: every remaining item still deserves its
			// record. Failures land in the result and in the journal's
			// RECORDING state for the reconciliation worker.
			metrics.FanoutFailures.Inc()
			s.log.Error("ledger write failed during fan-out",
				slog.String("order_id", orderID),
				slog.String("item_id", item.ID),
				slog.Any("error", err),
			)
			result.FailedItems = append(result.FailedItems, FailedItem{ItemID: item.ID, Reason: err.Error()})
			continue
		}
		metrics.LedgerRecordsWritten.Inc()
		result.Records = append(result.Records, *record)
		s.publish(ctx, record)
	}

	if len(result.FailedItems) == 0 {
		if err := s.journal.MarkComplete(ctx, orderID); err != nil {
			s.log.Warn("failed to complete capture journal", slog.String("order_id", orderID), slog.Any("error", err))
		}
	} else {
		s.log.Warn("partial fan-out, journal left for reconciliation",
			slog.String("order_id", orderID),
			slog.Int("written", len(result.Records)),
			slog.Int("failed", len(result.FailedItems)),
		)
	}

	metrics.CapturesCompleted.Inc()
	return result, nil
}

func (s *CaptureService) expiry(t domain.ItemType, now time.Time) *time.Time {
	var ttl time.Duration
	switch t {
	case domain.ItemTypeBundle:
		ttl = s.ttls.Bundle
	case domain.ItemTypeCourse:
		ttl = s.ttls.Course
	}
	if ttl <= 0 {
		return nil
	}
	at := now.Add(ttl)
	return &at
}

func (s *CaptureService) publish(ctx context.Context, record *domain.PurchaseRecord) {
	if !s.pub.Enabled() {
		return
	}
	err := s.pub.PublishPurchaseRecorded(ctx, events.PurchaseRecorded{
		PaymentID:   record.PaymentID,
		BuyerID:     record.BuyerID,
		ItemID:      record.ItemID,
		ItemType:    string(record.ItemType),
		AmountMinor: record.AmountMinor,
		Currency:    record.Currency,
		RecordedAt:  record.CreatedAt,
	})
	if err != nil {
		s.log.Warn("purchase event publish failed", slog.String("item_id", record.ItemID), slog.Any("error", err))
	}
}
