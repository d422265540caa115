package favorites

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"sync"

	"infohub/internal/backend"
	"infohub/internal/domain"
)

// Backend is the favorites slice of the REST backend.
type Backend interface {
	Favorites(ctx context.Context, token string) ([]domain.Product, error)
	AddFavorite(ctx context.Context, token string, productID int64) error
	RemoveFavorite(ctx context.Context, token string, productID int64) error
	ClearFavorites(ctx context.Context, token string) error
}

// State tracks the optimistic update of a single favorite.
type State int

const (
	Idle State = iota
	Pending
	Committed
	RolledBack
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Committed:
		return "committed"
	case RolledBack:
		return "rolled_back"
	default:
		return "idle"
	}
}

type Action string

const (
	ActionAdded   Action = "added"
	ActionRemoved Action = "removed"
)

type ToggleResult struct {
	Action     Action `json:"action"`
	IsFavorite bool   `json:"isFavorite"`
}

// Manager holds the favorites of the signed-in user. Local state is flipped before the backend
// call and reverted when the call fails. Mutations of the same product id are serialized.
type Manager struct {
	backend Backend
	logger  *log.Logger
	locks   *keyedMutex

	// clearGate is held shared by mutations and exclusively by Clear, so nothing lands between the
	// id snapshot and the bulk delete.
	clearGate sync.RWMutex

	mu       sync.RWMutex
	userID   int64
	token    string
	gen      uint64
	products map[int64]domain.Product
	states   map[int64]State
}

func NewManager(b Backend, logger *log.Logger) *Manager {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Manager{
		backend:  b,
		logger:   logger,
		locks:    newKeyedMutex(),
		products: make(map[int64]domain.Product),
		states:   make(map[int64]State),
	}
}

// SetUser switches the identity favorites are scoped to. A nil user signs out and empties the set.
// In-flight calls started for a previous identity no longer touch local state.
func (m *Manager) SetUser(user *domain.User, token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if user != nil && token != "" && user.ID == m.userID && token == m.token {
		return
	}
	m.gen++
	m.products = make(map[int64]domain.Product)
	m.states = make(map[int64]State)
	if user == nil || token == "" {
		m.userID, m.token = 0, ""
		return
	}
	m.userID, m.token = user.ID, token
}

// lockID takes the clear gate shared, then the per-id lock.
func (m *Manager) lockID(id int64) func() {
	m.clearGate.RLock()
	unlock := m.locks.Lock(id)
	return func() {
		unlock()
		m.clearGate.RUnlock()
	}
}

func (m *Manager) session() (string, uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.token == "" {
		return "", 0, domain.ErrNotAuthenticated
	}
	return m.token, m.gen, nil
}

// IsFavorite is a local lookup; false when signed out.
func (m *Manager) IsFavorite(id int64) bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.products[id]
	return ok
}

// State reports where the last mutation of id stands.
func (m *Manager) State(id int64) State {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.states[id]
}

// List returns the favorited products ordered by id.
func (m *Manager) List() []domain.Product {
	m.mu.RLock()
	out := make([]domain.Product, 0, len(m.products))
	for _, p := range m.products {
		out = append(out, p)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.products)
}

// Toggle flips product and persists the flip. On backend failure the flip is reverted and the error returned.
func (m *Manager) Toggle(ctx context.Context, p domain.Product) (ToggleResult, error) {
	token, gen, err := m.session()
	if err != nil {
		return ToggleResult{}, err
	}
	unlock := m.lockID(p.ID)
	defer unlock()

	add := !m.IsFavorite(p.ID)
	if err := m.apply(ctx, token, gen, p, add); err != nil {
		return ToggleResult{IsFavorite: !add}, err
	}
	if add {
		return ToggleResult{Action: ActionAdded, IsFavorite: true}, nil
	}
	return ToggleResult{Action: ActionRemoved, IsFavorite: false}, nil
}

// Add is a no-op when p is already a favorite.
func (m *Manager) Add(ctx context.Context, p domain.Product) error {
	token, gen, err := m.session()
	if err != nil {
		return err
	}
	unlock := m.lockID(p.ID)
	defer unlock()
	if m.IsFavorite(p.ID) {
		return nil
	}
	return m.apply(ctx, token, gen, p, true)
}

// Remove is a no-op when id is not a favorite.
func (m *Manager) Remove(ctx context.Context, id int64) error {
	token, gen, err := m.session()
	if err != nil {
		return err
	}
	unlock := m.lockID(id)
	defer unlock()

	m.mu.RLock()
	p, ok := m.products[id]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	return m.apply(ctx, token, gen, p, false)
}

// apply runs one Idle/Committed/RolledBack -> Pending -> Committed|RolledBack transition. Caller holds the id lock.
func (m *Manager) apply(ctx context.Context, token string, gen uint64, p domain.Product, add bool) error {
	m.mu.Lock()
	if m.gen != gen {
		m.mu.Unlock()
		return domain.ErrNotAuthenticated
	}
	prev, had := m.products[p.ID]
	if add {
		m.products[p.ID] = p
	} else {
		delete(m.products, p.ID)
	}
	m.states[p.ID] = Pending
	m.mu.Unlock()

	var err error
	if add {
		err = m.backend.AddFavorite(ctx, token, p.ID)
		if errors.Is(err, domain.ErrAlreadyExists) {
			err = nil
		}
	} else {
		err = m.backend.RemoveFavorite(ctx, token, p.ID)
		if errors.Is(err, domain.ErrNotFound) {
			err = nil
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return err
	}
	if err != nil {
		if had {
			m.products[p.ID] = prev
		} else {
			delete(m.products, p.ID)
		}
		m.states[p.ID] = RolledBack
		m.logger.Printf("favorites: rollback id=%d add=%t error=%v", p.ID, add, err)
		return fmt.Errorf("persist favorite %d: %w", p.ID, err)
	}
	m.states[p.ID] = Committed
	return nil
}

// Clear removes every favorite. Backends without the bulk endpoint get one delete per item.
func (m *Manager) Clear(ctx context.Context) error {
	token, gen, err := m.session()
	if err != nil {
		return err
	}
	m.clearGate.Lock()
	defer m.clearGate.Unlock()
	ids := m.ids()

	err = m.backend.ClearFavorites(ctx, token)
	if err == nil {
		m.forget(gen, ids...)
		return nil
	}
	if status := backend.StatusCode(err); status != http.StatusNotFound && status != http.StatusMethodNotAllowed {
		return fmt.Errorf("clear favorites: %w", err)
	}

	m.logger.Printf("favorites: bulk clear unsupported, deleting %d items", len(ids))
	for _, id := range ids {
		if err := m.backend.RemoveFavorite(ctx, token, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("clear favorite %d: %w", id, err)
		}
		m.forget(gen, id)
	}
	return nil
}

// Load replaces local favorites with the backend's list. On failure local state is kept.
func (m *Manager) Load(ctx context.Context) error {
	token, gen, err := m.session()
	if err != nil {
		return err
	}
	products, err := m.backend.Favorites(ctx, token)
	if err != nil {
		m.logger.Printf("favorites: load error=%v", err)
		return fmt.Errorf("load favorites: %w", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return nil
	}
	m.products = make(map[int64]domain.Product, len(products))
	for _, p := range products {
		m.products[p.ID] = p
	}
	return nil
}

func (m *Manager) ids() []int64 {
	m.mu.RLock()
	ids := make([]int64, 0, len(m.products))
	for id := range m.products {
		ids = append(ids, id)
	}
	m.mu.RUnlock()
	// fixed order so concurrent Clears cannot deadlock
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func (m *Manager) forget(gen uint64, ids ...int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return
	}
	for _, id := range ids {
		delete(m.products, id)
		m.states[id] = Committed
	}
}
