package repo

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"fitledger/internal/domain"
)

// MemoryLedger is an in-memory LedgerRepo for tests and the simulator.
type MemoryLedger struct {
	mu      sync.Mutex
	records []domain.PurchaseRecord
}

func NewMemoryLedger() *MemoryLedger {
	return &MemoryLedger{}
}

func (m *MemoryLedger) Create(_ context.Context, record *domain.PurchaseRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, *record)
	return nil
}

func (m *MemoryLedger) FindActive(_ context.Context, buyerID, itemID string) (*domain.PurchaseRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var newest *domain.PurchaseRecord
	for i := range m.records {
		r := &m.records[i]
		if r.BuyerID != buyerID || r.ItemID != itemID || !r.IsActive {
			continue
		}
		if newest == nil || r.CreatedAt.After(newest.CreatedAt) {
			newest = r
		}
	}
	if newest == nil {
		return nil, nil
	}
	copied := *newest
	return &copied, nil
}

func (m *MemoryLedger) Deactivate(_ context.Context, id uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.records {
		if m.records[i].ID == id {
			m.records[i].IsActive = false
			return nil
		}
	}
	return fmt.Errorf("record %s not found", id)
}

func (m *MemoryLedger) FindByPayment(_ context.Context, paymentID string) ([]domain.PurchaseRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.PurchaseRecord
	for _, r := range m.records {
		if r.PaymentID == paymentID {
			out = append(out, r)
		}
	}
	return out, nil
}

// Len reports the total number of records ever written.
func (m *MemoryLedger) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

// MemoryJournal is an in-memory JournalRepo for tests and the simulator.
type MemoryJournal struct {
	mu      sync.Mutex
	entries map[string]*CaptureJournal
}

func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{entries: make(map[string]*CaptureJournal)}
}

func (m *MemoryJournal) Begin(_ context.Context, entry *CaptureJournal) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[entry.PaymentID]; exists {
		return fmt.Errorf("journal entry %s already exists", entry.PaymentID)
	}
	copied := *entry
	m.entries[entry.PaymentID] = &copied
	return nil
}

func (m *MemoryJournal) MarkComplete(_ context.Context, paymentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[paymentID]
	if !ok {
		return fmt.Errorf("journal entry %s not found", paymentID)
	}
	entry.Status = JournalComplete
	entry.UpdatedAt = time.Now()
	return nil
}

func (m *MemoryJournal) FindStuck(_ context.Context, olderThan time.Duration) ([]CaptureJournal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cutoff := time.Now().Add(-olderThan)
	var out []CaptureJournal
	for _, entry := range m.entries {
		if entry.Status == JournalRecording && entry.UpdatedAt.Before(cutoff) {
			out = append(out, *entry)
		}
	}
	return out, nil
}

// Status returns a journal entry's status for assertions.
func (m *MemoryJournal) Status(paymentID string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.entries[paymentID]
	if !ok {
		return "", false
	}
	return entry.Status, true
}
