package service

import (
	"context"
	"log/slog"
	"time"

	"fitledger/internal/metrics"
	"fitledger/internal/repo"
)

// AccessService answers "does this buyer currently hold a live entitlement
// for this item". Expiry is lazy: a record past its expiry is deactivated by
// the first check that touches it, so between expiry and that check it stays
// nominally active. There is no background sweep.
type AccessService struct {
	ledger repo.LedgerRepo
	log    *slog.Logger
}

func NewAccessService(ledger repo.LedgerRepo, log *slog.Logger) *AccessService {
	return &AccessService{ledger: ledger, log: log}
}

// HasAccess never fails: an unauthenticated buyer, a missing record, or a
// ledger error all read as "no access". Content gating must degrade to
// denial, not to a 500.
func (s *AccessService) HasAccess(ctx context.Context, buyerID, itemID string) bool {
	if buyerID == "" || itemID == "" {
		metrics.AccessChecks.WithLabelValues("denied").Inc()
		return false
	}

	record, err := s.ledger.FindActive(ctx, buyerID, itemID)
	if err != nil {
		s.log.Error("entitlement lookup failed",
			slog.String("buyer_id", buyerID),
			slog.String("item_id", itemID),
			slog.Any("error", err),
		)
		metrics.AccessChecks.WithLabelValues("error").Inc()
		return false
	}
	if record == nil {
		metrics.AccessChecks.WithLabelValues("denied").Inc()
		return false
	}

	if record.Expired(time.Now()) {
		if err := s.ledger.Deactivate(ctx, record.ID); err != nil {
			// The next check will retry the flip; access is denied either way.
			s.log.Error("failed to deactivate expired record",
				slog.String("record_id", record.ID.String()),
				slog.Any("error", err),
			)
		}
		metrics.LazyDeactivations.Inc()
		metrics.AccessChecks.WithLabelValues("expired").Inc()
		return false
	}

	metrics.AccessChecks.WithLabelValues("granted").Inc()
	return record.IsActive
}
