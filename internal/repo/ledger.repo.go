package repo

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"fitledger/internal/domain"
)

// LedgerRepo is the durable entitlement store. Append-mostly: records are
// created by capture fan-out, deactivated by lazy expiry, never deleted.
// Create enforces no idempotency key; de-duplication is the capture
// service's job via the gateway's already-captured rejection.
type LedgerRepo interface {
	Create(ctx context.Context, record *domain.PurchaseRecord) error
	// FindActive returns the newest active record for (buyer, item), or nil.
	// The record may already be past its expiry; callers own the lazy flip.
	FindActive(ctx context.Context, buyerID, itemID string) (*domain.PurchaseRecord, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
	FindByPayment(ctx context.Context, paymentID string) ([]domain.PurchaseRecord, error)
}

type ledgerRepo struct {
	db *sql.DB
}

func NewLedgerRepo(db *sql.DB) LedgerRepo {
	return &ledgerRepo{db: db}
}

const purchaseColumns = `id, buyer_id, item_id, item_type, payment_id, amount_minor, currency, is_active, expires_at, created_at`

func (r *ledgerRepo) Create(ctx context.Context, record *domain.PurchaseRecord) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO purchases (`+purchaseColumns+`) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		record.ID, record.BuyerID, record.ItemID, record.ItemType, record.PaymentID,
		record.AmountMinor, record.Currency, record.IsActive, record.ExpiresAt, record.CreatedAt,
	)
	return err
}

func (r *ledgerRepo) FindActive(ctx context.Context, buyerID, itemID string) (*domain.PurchaseRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+purchaseColumns+` FROM purchases
		 WHERE buyer_id = $1 AND item_id = $2 AND is_active
		 ORDER BY created_at DESC LIMIT 1`,
		buyerID, itemID,
	)
	record, err := scanPurchase(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return record, nil
}

func (r *ledgerRepo) Deactivate(ctx context.Context, id uuid.UUID) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE purchases SET is_active = FALSE WHERE id = $1`, id)
	return err
}

func (r *ledgerRepo) FindByPayment(ctx context.Context, paymentID string) ([]domain.PurchaseRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+purchaseColumns+` FROM purchases WHERE payment_id = $1`, paymentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []domain.PurchaseRecord
	for rows.Next() {
		record, err := scanPurchase(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, *record)
	}
	return records, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanPurchase(row rowScanner) (*domain.PurchaseRecord, error) {
	var record domain.PurchaseRecord
	err := row.Scan(
		&record.ID,
		&record.BuyerID,
		&record.ItemID,
		&record.ItemType,
		&record.PaymentID,
		&record.AmountMinor,
		&record.Currency,
		&record.IsActive,
		&record.ExpiresAt,
		&record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &record, nil
}
