package cart

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"sync"

	"github.com/shopspring/decimal"

	"infohub/internal/domain"
	"infohub/internal/localstore"
)

// Manager is a single-user in-memory cart. Lines keep insertion order and are unique by product id.
// When a store is attached every mutation writes a snapshot under the cart key.
type Manager struct {
	store  localstore.Store
	logger *log.Logger

	mu      sync.Mutex
	lines   []domain.CartLine
	version uint64

	// persistMu orders snapshot writes; written is the version of the last one stored.
	persistMu sync.Mutex
	written   uint64
}

// snapshot is the cart as of one mutation.
type snapshot struct {
	version uint64
	lines   []domain.CartLine
}

// commit bumps the version and copies the lines. Caller holds mu.
func (m *Manager) commit() snapshot {
	m.version++
	return snapshot{version: m.version, lines: append([]domain.CartLine(nil), m.lines...)}
}

func NewManager(store localstore.Store, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Manager{store: store, logger: logger}
}

// Summary is the cart with its derived values.
type Summary struct {
	Lines      []domain.CartLine `json:"items"`
	Total      decimal.Decimal   `json:"total"`
	TotalItems int               `json:"totalItems"`
	IsEmpty    bool              `json:"isEmpty"`
}

// Restore loads the persisted snapshot, if any.
func (m *Manager) Restore(ctx context.Context) error {
	if m.store == nil {
		return nil
	}
	var lines []domain.CartLine
	if err := localstore.GetJSON(ctx, m.store, localstore.KeyCart, &lines); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("restore cart: %w", err)
	}
	valid := lines[:0]
	for _, l := range lines {
		if l.Quantity > 0 {
			valid = append(valid, l)
		}
	}
	m.mu.Lock()
	m.lines = valid
	m.mu.Unlock()
	return nil
}

// Add puts qty units of p in the cart, merging with an existing line. qty below 1 counts as 1.
func (m *Manager) Add(ctx context.Context, p domain.Product, qty int) {
	if qty < 1 {
		qty = 1
	}
	m.mu.Lock()
	if i := m.index(p.ID); i >= 0 {
		m.lines[i].Quantity += qty
	} else {
		m.lines = append(m.lines, domain.CartLine{Product: p, Quantity: qty})
	}
	snap := m.commit()
	m.mu.Unlock()
	m.persist(ctx, snap)
}

// Remove drops the line for id; absent ids are ignored.
func (m *Manager) Remove(ctx context.Context, id int64) {
	m.mu.Lock()
	i := m.index(id)
	if i < 0 {
		m.mu.Unlock()
		return
	}
	m.lines = append(m.lines[:i], m.lines[i+1:]...)
	snap := m.commit()
	m.mu.Unlock()
	m.persist(ctx, snap)
}

// UpdateQuantity sets the quantity of id. Zero or negative removes the line.
func (m *Manager) UpdateQuantity(ctx context.Context, id int64, qty int) error {
	if qty <= 0 {
		m.Remove(ctx, id)
		return nil
	}
	m.mu.Lock()
	i := m.index(id)
	if i < 0 {
		m.mu.Unlock()
		return fmt.Errorf("cart line %d: %w", id, domain.ErrNotFound)
	}
	m.lines[i].Quantity = qty
	snap := m.commit()
	m.mu.Unlock()
	m.persist(ctx, snap)
	return nil
}

func (m *Manager) Clear(ctx context.Context) {
	m.mu.Lock()
	m.lines = nil
	snap := m.commit()
	m.mu.Unlock()
	m.persist(ctx, snap)
}

func (m *Manager) Lines() []domain.CartLine {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.CartLine(nil), m.lines...)
}

func (m *Manager) Contains(id int64) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.index(id) >= 0
}

// Total is the sum of price times quantity over all lines.
func (m *Manager) Total() decimal.Decimal {
	m.mu.Lock()
	defer m.mu.Unlock()
	total := decimal.Zero
	for _, l := range m.lines {
		total = total.Add(l.Subtotal())
	}
	return total
}

func (m *Manager) TotalItems() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, l := range m.lines {
		n += l.Quantity
	}
	return n
}

func (m *Manager) IsEmpty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.lines) == 0
}

func (m *Manager) Summary() Summary {
	lines := m.Lines()
	s := Summary{Lines: lines, Total: decimal.Zero, IsEmpty: len(lines) == 0}
	for _, l := range lines {
		s.Total = s.Total.Add(l.Subtotal())
		s.TotalItems += l.Quantity
	}
	if s.Lines == nil {
		s.Lines = []domain.CartLine{}
	}
	return s
}

func (m *Manager) index(id int64) int {
	for i, l := range m.lines {
		if l.Product.ID == id {
			return i
		}
	}
	return -1
}

// persist writes snap unless a later snapshot is already stored.
func (m *Manager) persist(ctx context.Context, snap snapshot) {
	if m.store == nil {
		return
	}
	m.persistMu.Lock()
	defer m.persistMu.Unlock()
	if snap.version <= m.written {
		return
	}
	var err error
	if len(snap.lines) == 0 {
		err = m.store.Remove(ctx, localstore.KeyCart)
	} else {
		err = localstore.SetJSON(ctx, m.store, localstore.KeyCart, snap.lines)
	}
	if err != nil {
		m.logger.Printf("cart: persist version=%d error=%v", snap.version, err)
		return
	}
	m.written = snap.version
}
