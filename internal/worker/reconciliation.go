package worker

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"fitledger/internal/domain"
	"fitledger/internal/metrics"
	"fitledger/internal/money"
	"fitledger/internal/ordercode"
	"fitledger/internal/repo"
	"fitledger/internal/service"
)

// ReconciliationWorker repairs partial capture fan-outs. A journal entry
// stuck in RECORDING means the gateway took the money but at least one
// per-item ledger write failed; the entry's stored encoding is enough to
// re-derive exactly the missing records. The gateway already captured, so
// nothing here talks to it: the journal is the source of truth.
type ReconciliationWorker struct {
	journal  repo.JournalRepo
	ledger   repo.LedgerRepo
	ttls     service.EntitlementTTLs
	interval time.Duration
	minAge   time.Duration
	log      *slog.Logger
}

func NewReconciliationWorker(
	journal repo.JournalRepo,
	ledger repo.LedgerRepo,
	ttls service.EntitlementTTLs,
	interval, minAge time.Duration,
	log *slog.Logger,
) *ReconciliationWorker {
	return &ReconciliationWorker{
		journal:  journal,
		ledger:   ledger,
		ttls:     ttls,
		interval: interval,
		minAge:   minAge,
		log:      log,
	}
}

func (w *ReconciliationWorker) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	w.log.Info("reconciliation worker started")
	for {
		select {
		case <-ctx.Done():
			w.log.Info("reconciliation worker stopped")
			return
		case <-ticker.C:
			if err := w.Process(ctx); err != nil {
				w.log.Error("reconciliation pass failed", slog.Any("error", err))
			}
		}
	}
}

func (w *ReconciliationWorker) Process(ctx context.Context) error {
	stuck, err := w.journal.FindStuck(ctx, w.minAge)
	if err != nil {
		return err
	}
	if len(stuck) == 0 {
		return nil
	}

	w.log.Info("repairing incomplete captures", slog.Int("count", len(stuck)))
	for _, entry := range stuck {
		if err := w.repair(ctx, entry); err != nil {
			w.log.Error("repair failed, will retry next pass",
				slog.String("payment_id", entry.PaymentID),
				slog.Any("error", err),
			)
		}
	}
	return nil
}

func (w *ReconciliationWorker) repair(ctx context.Context, entry repo.CaptureJournal) error {
	decoded, err := ordercode.Decode(entry.Encoding)
	if err != nil {
		// Should be impossible: the capture service decoded this same
		// string before journaling it. Loud log, manual follow-up.
		w.log.Error("journaled encoding no longer decodes, manual reconciliation required",
			slog.String("payment_id", entry.PaymentID),
			slog.String("encoding", entry.Encoding),
			slog.Any("error", err),
		)
		return err
	}

	existing, err := w.ledger.FindByPayment(ctx, entry.PaymentID)
	if err != nil {
		return err
	}
	present := make(map[string]struct{}, len(existing))
	for _, r := range existing {
		present[r.ItemID] = struct{}{}
	}

	total := money.Amount{MinorUnits: entry.AmountMinor, Currency: entry.Currency}
	shares := money.Split(total, len(decoded.Items))

	repaired := 0
	for i, item := range decoded.Items {
		if _, ok := present[item.ID]; ok {
			continue
		}
		record := &domain.PurchaseRecord{
			ID:          uuid.New(),
			BuyerID:     decoded.BuyerID,
			ItemID:      item.ID,
			ItemType:    item.Type,
			PaymentID:   entry.PaymentID,
			AmountMinor: shares[i].MinorUnits,
			Currency:    shares[i].Currency,
			IsActive:    true,
			// Expiry anchored to the original capture, not the repair, so a
			// repaired record grants exactly what the failed write would have.
			ExpiresAt: w.expiry(item.Type, entry.CreatedAt),
			CreatedAt: time.Now().UTC(),
		}
		if err := w.ledger.Create(ctx, record); err != nil {
			return err
		}
		metrics.ReconciliationRepairs.Inc()
		repaired++
		w.log.Info("re-wrote missing purchase record",
			slog.String("payment_id", entry.PaymentID),
			slog.String("item_id", item.ID),
		)
	}

	return w.journal.MarkComplete(ctx, entry.PaymentID)
}

func (w *ReconciliationWorker) expiry(t domain.ItemType, capturedAt time.Time) *time.Time {
	var ttl time.Duration
	switch t {
	case domain.ItemTypeBundle:
		ttl = w.ttls.Bundle
	case domain.ItemTypeCourse:
		ttl = w.ttls.Course
	}
	if ttl <= 0 {
		return nil
	}
	at := capturedAt.Add(ttl)
	return &at
}
