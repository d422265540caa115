package favorites

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"infohub/internal/backend"
	"infohub/internal/domain"
)

type stubBackend struct {
	mu        sync.Mutex
	calls     []string
	addErr    error
	removeErr error
	clearErr  error
	list      []domain.Product
	listErr   error

	gate    map[int64]chan struct{}
	entered chan int64

	clearEntered chan struct{}
	clearRelease chan struct{}
	server       map[int64]bool
}

func (s *stubBackend) record(call string) {
	s.mu.Lock()
	s.calls = append(s.calls, call)
	s.mu.Unlock()
}

func (s *stubBackend) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

func (s *stubBackend) wait(id int64) {
	if s.entered != nil {
		s.entered <- id
	}
	if ch, ok := s.gate[id]; ok {
		<-ch
	}
}

func (s *stubBackend) Favorites(context.Context, string) ([]domain.Product, error) {
	s.record("list")
	return s.list, s.listErr
}

func (s *stubBackend) AddFavorite(_ context.Context, _ string, id int64) error {
	s.record(fmt.Sprintf("add:%d", id))
	s.wait(id)
	if s.addErr == nil {
		s.mu.Lock()
		if s.server != nil {
			s.server[id] = true
		}
		s.mu.Unlock()
	}
	return s.addErr
}

func (s *stubBackend) RemoveFavorite(_ context.Context, _ string, id int64) error {
	s.record(fmt.Sprintf("remove:%d", id))
	s.wait(id)
	return s.removeErr
}

func (s *stubBackend) ClearFavorites(context.Context, string) error {
	s.record("clear")
	if s.clearEntered != nil {
		close(s.clearEntered)
		<-s.clearRelease
	}
	if s.clearErr == nil {
		s.mu.Lock()
		if s.server != nil {
			s.server = make(map[int64]bool)
		}
		s.mu.Unlock()
	}
	return s.clearErr
}

func (s *stubBackend) onServer(id int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.server[id]
}

func signedIn(b Backend) *Manager {
	m := NewManager(b, nil)
	m.SetUser(&domain.User{ID: 1, Name: "Ana"}, "tok")
	return m
}

func product(id int64) domain.Product {
	return domain.Product{ID: id, Name: fmt.Sprintf("p%d", id)}
}

func TestToggleUnauthenticatedTwice(t *testing.T) {
	b := &stubBackend{}
	m := NewManager(b, nil)

	for i := 0; i < 2; i++ {
		if _, err := m.Toggle(context.Background(), product(1)); !errors.Is(err, domain.ErrNotAuthenticated) {
			t.Fatalf("call %d: expected ErrNotAuthenticated, got %v", i, err)
		}
	}
	if m.IsFavorite(1) || m.State(1) != Idle {
		t.Fatalf("state changed without a user")
	}
	if len(b.Calls()) != 0 {
		t.Fatalf("backend contacted: %v", b.Calls())
	}
}

func TestToggleAddThenRemove(t *testing.T) {
	b := &stubBackend{}
	m := signedIn(b)

	res, err := m.Toggle(context.Background(), product(7))
	if err != nil {
		t.Fatalf("toggle add: %v", err)
	}
	if res.Action != ActionAdded || !res.IsFavorite || !m.IsFavorite(7) {
		t.Fatalf("unexpected add result %+v", res)
	}
	if m.State(7) != Committed {
		t.Fatalf("expected committed, got %s", m.State(7))
	}

	res, err = m.Toggle(context.Background(), product(7))
	if err != nil {
		t.Fatalf("toggle remove: %v", err)
	}
	if res.Action != ActionRemoved || res.IsFavorite || m.IsFavorite(7) {
		t.Fatalf("unexpected remove result %+v", res)
	}
	if got := b.Calls(); len(got) != 2 || got[0] != "add:7" || got[1] != "remove:7" {
		t.Fatalf("unexpected calls %v", got)
	}
}

func TestToggleRollsBackOnFailure(t *testing.T) {
	b := &stubBackend{addErr: domain.ErrBackendUnavailable}
	m := signedIn(b)

	res, err := m.Toggle(context.Background(), product(3))
	if !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if res.IsFavorite || m.IsFavorite(3) {
		t.Fatalf("optimistic add not reverted")
	}
	if m.State(3) != RolledBack {
		t.Fatalf("expected rolled_back, got %s", m.State(3))
	}

	// removal failure restores the product snapshot
	b.addErr = nil
	if err := m.Add(context.Background(), product(4)); err != nil {
		t.Fatalf("add: %v", err)
	}
	b.removeErr = domain.ErrBackendUnavailable
	if _, err := m.Toggle(context.Background(), product(4)); err == nil {
		t.Fatalf("expected remove failure")
	}
	if !m.IsFavorite(4) || m.List()[0].Name != "p4" {
		t.Fatalf("optimistic remove not reverted: %+v", m.List())
	}
}

func TestAddRemoveIdempotent(t *testing.T) {
	b := &stubBackend{}
	m := signedIn(b)
	ctx := context.Background()

	if err := m.Add(ctx, product(1)); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := m.Add(ctx, product(1)); err != nil {
		t.Fatalf("second add: %v", err)
	}
	if err := m.Remove(ctx, 2); err != nil {
		t.Fatalf("remove absent: %v", err)
	}
	if got := b.Calls(); len(got) != 1 {
		t.Fatalf("expected a single backend call, got %v", got)
	}
	if m.Count() != 1 {
		t.Fatalf("expected 1 favorite, got %d", m.Count())
	}
}

func TestAlreadyPersistedIsSuccess(t *testing.T) {
	b := &stubBackend{addErr: fmt.Errorf("wrapped: %w", domain.ErrAlreadyExists)}
	m := signedIn(b)
	if err := m.Add(context.Background(), product(5)); err != nil {
		t.Fatalf("expected conflict to count as committed, got %v", err)
	}
	if !m.IsFavorite(5) {
		t.Fatalf("expected favorite kept")
	}
}

func TestClearBulk(t *testing.T) {
	b := &stubBackend{}
	m := signedIn(b)
	ctx := context.Background()
	for _, id := range []int64{1, 2, 3} {
		if err := m.Add(ctx, product(id)); err != nil {
			t.Fatalf("add %d: %v", id, err)
		}
	}
	if err := m.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	for _, id := range []int64{1, 2, 3} {
		if m.IsFavorite(id) {
			t.Fatalf("id %d still favorite after clear", id)
		}
	}
	if calls := b.Calls(); calls[len(calls)-1] != "clear" {
		t.Fatalf("expected bulk clear, got %v", calls)
	}
}

func TestClearFallsBackToPerItem(t *testing.T) {
	b := &stubBackend{clearErr: &backend.APIError{StatusCode: http.StatusMethodNotAllowed}}
	m := signedIn(b)
	ctx := context.Background()
	_ = m.Add(ctx, product(2))
	_ = m.Add(ctx, product(1))

	if err := m.Clear(ctx); err != nil {
		t.Fatalf("clear: %v", err)
	}
	calls := b.Calls()
	want := []string{"add:2", "add:1", "clear", "remove:1", "remove:2"}
	if fmt.Sprint(calls) != fmt.Sprint(want) {
		t.Fatalf("expected %v, got %v", want, calls)
	}
	if m.Count() != 0 {
		t.Fatalf("expected empty favorites")
	}
}

func TestClearFailureKeepsState(t *testing.T) {
	b := &stubBackend{clearErr: domain.ErrBackendUnavailable}
	m := signedIn(b)
	_ = m.Add(context.Background(), product(1))
	if err := m.Clear(context.Background()); !errors.Is(err, domain.ErrBackendUnavailable) {
		t.Fatalf("expected backend error, got %v", err)
	}
	if !m.IsFavorite(1) {
		t.Fatalf("favorites dropped on failed clear")
	}
}

func TestSameIDTogglesSerialize(t *testing.T) {
	release := make(chan struct{})
	b := &stubBackend{gate: map[int64]chan struct{}{9: release}, entered: make(chan int64, 4)}
	m := signedIn(b)
	ctx := context.Background()

	var wg sync.WaitGroup
	results := make([]ToggleResult, 2)
	wg.Add(1)
	go func() {
		defer wg.Done()
		results[0], _ = m.Toggle(ctx, product(9))
	}()
	<-b.entered
	if m.State(9) != Pending {
		t.Fatalf("expected pending while backend call in flight, got %s", m.State(9))
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		results[1], _ = m.Toggle(ctx, product(9))
	}()

	select {
	case <-b.entered:
		t.Fatalf("second toggle reached backend before the first completed")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-b.entered
	wg.Wait()

	if results[0].Action != ActionAdded || results[1].Action != ActionRemoved {
		t.Fatalf("unexpected ordering %+v", results)
	}
	if m.IsFavorite(9) {
		t.Fatalf("expected add then remove to end unfavorited")
	}
	if m.locks.size() != 0 {
		t.Fatalf("expected id locks released, %d left", m.locks.size())
	}
}

func TestDifferentIDsRunConcurrently(t *testing.T) {
	release := make(chan struct{})
	b := &stubBackend{gate: map[int64]chan struct{}{1: release}, entered: make(chan int64, 4)}
	m := signedIn(b)
	ctx := context.Background()

	done := make(chan struct{})
	go func() {
		_, _ = m.Toggle(ctx, product(1))
		close(done)
	}()
	<-b.entered

	finished := make(chan error, 1)
	go func() {
		_, err := m.Toggle(ctx, product(2))
		finished <- err
	}()
	<-b.entered

	select {
	case err := <-finished:
		if err != nil {
			t.Fatalf("toggle 2: %v", err)
		}
	case <-time.After(time.Second):
		t.Fatalf("toggle on a different id blocked")
	}
	close(release)
	<-done
	if !m.IsFavorite(1) || !m.IsFavorite(2) {
		t.Fatalf("expected both favorites")
	}
}

func TestSignOutDropsInFlightResult(t *testing.T) {
	release := make(chan struct{})
	b := &stubBackend{gate: map[int64]chan struct{}{1: release}, entered: make(chan int64, 1), addErr: domain.ErrBackendUnavailable}
	m := signedIn(b)

	done := make(chan struct{})
	go func() {
		_, _ = m.Toggle(context.Background(), product(1))
		close(done)
	}()
	<-b.entered
	m.SetUser(nil, "")
	if m.IsFavorite(1) {
		t.Fatalf("sign out must empty favorites")
	}

	m.SetUser(&domain.User{ID: 2}, "tok2")
	close(release)
	<-done
	if m.IsFavorite(1) || m.State(1) != Idle {
		t.Fatalf("stale call touched new user's state")
	}
}

func TestLoadReplacesAndKeepsOnFailure(t *testing.T) {
	b := &stubBackend{list: []domain.Product{product(10), product(11)}}
	m := signedIn(b)
	_ = m.Add(context.Background(), product(1))

	if err := m.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.IsFavorite(1) || !m.IsFavorite(10) || m.Count() != 2 {
		t.Fatalf("unexpected favorites %+v", m.List())
	}

	b.listErr = domain.ErrBackendUnavailable
	if err := m.Load(context.Background()); err == nil {
		t.Fatalf("expected load error")
	}
	if m.Count() != 2 {
		t.Fatalf("failed load must keep cached favorites")
	}
}

func TestToggleDuringClearWaitsForClear(t *testing.T) {
	b := &stubBackend{
		clearEntered: make(chan struct{}),
		clearRelease: make(chan struct{}),
		server:       map[int64]bool{1: true},
	}
	m := signedIn(b)
	if err := m.Add(context.Background(), product(1)); err != nil {
		t.Fatalf("add: %v", err)
	}

	clearDone := make(chan error, 1)
	go func() { clearDone <- m.Clear(context.Background()) }()
	<-b.clearEntered

	toggleDone := make(chan error, 1)
	go func() {
		_, err := m.Toggle(context.Background(), product(2))
		toggleDone <- err
	}()

	select {
	case <-toggleDone:
		t.Fatalf("toggle finished while clear was in flight")
	case <-time.After(50 * time.Millisecond):
	}

	close(b.clearRelease)
	if err := <-clearDone; err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := <-toggleDone; err != nil {
		t.Fatalf("toggle: %v", err)
	}

	for _, id := range []int64{1, 2} {
		if m.IsFavorite(id) != b.onServer(id) {
			t.Fatalf("id %d: local=%t server=%t", id, m.IsFavorite(id), b.onServer(id))
		}
	}
	if !m.IsFavorite(2) || m.IsFavorite(1) {
		t.Fatalf("expected only 2 to remain, got %v", m.List())
	}
}
