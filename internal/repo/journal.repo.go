package repo

import (
	"context"
	"database/sql"
	"time"
)

const (
	JournalRecording = "RECORDING"
	JournalComplete  = "COMPLETE"
)

// CaptureJournal tracks one capture's fan-out. A row stuck in RECORDING
// means funds were captured but not every per-item ledger write landed; the
// reconciliation worker re-derives the missing rows from the stored
// encoding.
type CaptureJournal struct {
	PaymentID   string
	Encoding    string
	AmountMinor int64
	Currency    string
	ItemCount   int
	Status      string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type JournalRepo interface {
	Begin(ctx context.Context, entry *CaptureJournal) error
	MarkComplete(ctx context.Context, paymentID string) error
	// FindStuck returns RECORDING entries older than olderThan.
	FindStuck(ctx context.Context, olderThan time.Duration) ([]CaptureJournal, error)
}

type journalRepo struct {
	db *sql.DB
}

func NewJournalRepo(db *sql.DB) JournalRepo {
	return &journalRepo{db: db}
}

func (r *journalRepo) Begin(ctx context.Context, entry *CaptureJournal) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO capture_journal (payment_id, encoding, amount_minor, currency, item_count, status, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.PaymentID, entry.Encoding, entry.AmountMinor, entry.Currency,
		entry.ItemCount, entry.Status, entry.CreatedAt, entry.UpdatedAt,
	)
	return err
}

func (r *journalRepo) MarkComplete(ctx context.Context, paymentID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE capture_journal SET status = $1, updated_at = now() WHERE payment_id = $2`,
		JournalComplete, paymentID)
	return err
}

func (r *journalRepo) FindStuck(ctx context.Context, olderThan time.Duration) ([]CaptureJournal, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT payment_id, encoding, amount_minor, currency, item_count, status, created_at, updated_at
		 FROM capture_journal WHERE status = $1 AND updated_at < $2`,
		JournalRecording, time.Now().Add(-olderThan),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []CaptureJournal
	for rows.Next() {
		var entry CaptureJournal
		if err := rows.Scan(
			&entry.PaymentID,
			&entry.Encoding,
			&entry.AmountMinor,
			&entry.Currency,
			&entry.ItemCount,
			&entry.Status,
			&entry.CreatedAt,
			&entry.UpdatedAt,
		); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}
