package points

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"infohub/internal/domain"
)

func TestTierFor(t *testing.T) {
	cases := []struct {
		points int
		name   string
		next   int
	}{
		{-5, "Bronze", 100},
		{0, "Bronze", 100},
		{99, "Bronze", 100},
		{100, "Prata", 500},
		{499, "Prata", 500},
		{500, "Ouro", 1000},
		{750, "Ouro", 1000},
		{1000, "Platina", 5000},
		{4999, "Platina", 5000},
		{5000, "Diamante", 10000},
		{25000, "Diamante", 10000},
	}
	for _, tc := range cases {
		got := TierFor(tc.points)
		if got.Name != tc.name || got.Next != tc.next {
			t.Fatalf("TierFor(%d) = %s/%d, want %s/%d", tc.points, got.Name, got.Next, tc.name, tc.next)
		}
		if got.Color == "" {
			t.Fatalf("tier %s missing color", got.Name)
		}
	}
}

func TestProgress(t *testing.T) {
	if p := Progress(750); p != 50 {
		t.Fatalf("expected 50%%, got %d", p)
	}
	if p := Progress(20000); p != 100 {
		t.Fatalf("expected diamond above ceiling to cap at 100, got %d", p)
	}
	if p := Progress(0); p != 0 {
		t.Fatalf("expected 0, got %d", p)
	}
	if n := PointsToNext(750); n != 250 {
		t.Fatalf("expected 250 to next, got %d", n)
	}
	if n := PointsToNext(7000); n != 0 {
		t.Fatalf("diamond has no next tier, got %d", n)
	}
}

func TestNegativePointsCountAsZero(t *testing.T) {
	if n := PointsToNext(-5); n != 100 {
		t.Fatalf("expected 100 to next for a negative total, got %d", n)
	}
	if p := Progress(-5); p != 0 {
		t.Fatalf("expected 0%% for a negative total, got %d", p)
	}
}

type stubBackend struct {
	balance     int
	history     []domain.PointsTransaction
	ranking     []domain.RankingEntry
	err         error
	inFlight    int32
	maxInFlight int32
}

func (s *stubBackend) track() func() {
	n := atomic.AddInt32(&s.inFlight, 1)
	for {
		cur := atomic.LoadInt32(&s.maxInFlight)
		if n <= cur || atomic.CompareAndSwapInt32(&s.maxInFlight, cur, n) {
			break
		}
	}
	time.Sleep(20 * time.Millisecond)
	return func() { atomic.AddInt32(&s.inFlight, -1) }
}

func (s *stubBackend) PointsBalance(context.Context, string) (int, error) {
	defer s.track()()
	return s.balance, s.err
}

func (s *stubBackend) PointsHistory(context.Context, string) ([]domain.PointsTransaction, error) {
	defer s.track()()
	return s.history, s.err
}

func (s *stubBackend) Ranking(context.Context, int) ([]domain.RankingEntry, error) {
	defer s.track()()
	return s.ranking, s.err
}

func TestReadsDegradeOnFailure(t *testing.T) {
	svc := New(&stubBackend{balance: 999, err: errors.New("boom")}, nil)
	ctx := context.Background()

	b := svc.Balance(ctx, "tok")
	if b.Points != 0 || b.Tier.Name != "Bronze" {
		t.Fatalf("expected zeroed balance, got %+v", b)
	}
	if h := svc.History(ctx, "tok"); h == nil || len(h) != 0 {
		t.Fatalf("expected empty non-nil history, got %v", h)
	}
	if r := svc.Ranking(ctx, 10); r == nil || len(r) != 0 {
		t.Fatalf("expected empty non-nil ranking, got %v", r)
	}
	if s := svc.Summary(ctx, "tok"); s.Total != 0 || s.Transactions != 0 {
		t.Fatalf("expected zero summary, got %+v", s)
	}
}

func TestBalanceTier(t *testing.T) {
	b := New(&stubBackend{balance: 750}, nil).Balance(context.Background(), "tok")
	if b.Tier.Name != "Ouro" || b.Tier.Next != 1000 || b.ToNext != 250 {
		t.Fatalf("unexpected balance %+v", b)
	}
}

func TestHistorySummaryAndRanking(t *testing.T) {
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	backend := &stubBackend{
		history: []domain.PointsTransaction{
			{ID: 1, ActionType: "post", Points: 10, Timestamp: now.Add(-2 * time.Hour)},
			{ID: 2, ActionType: "curtida", Points: 2, Timestamp: now},
			{ID: 3, ActionType: "post", Points: 10, Timestamp: now.Add(-time.Hour)},
			{ID: 4, ActionType: "resgate", Points: -15, Timestamp: now.Add(-3 * time.Hour)},
		},
		ranking: []domain.RankingEntry{{Position: 1, Name: "A", Points: 6000}, {Position: 2, Name: "B", Points: 120, Tier: "Custom"}},
	}
	svc := New(backend, nil)
	ctx := context.Background()

	h := svc.History(ctx, "tok")
	if h[0].ID != 2 || h[3].ID != 4 {
		t.Fatalf("expected newest first, got %+v", h)
	}

	s := svc.Summary(ctx, "tok")
	if s.Total != 7 || s.Earned != 22 || s.Spent != 15 || s.ByAction["post"] != 20 || s.Transactions != 4 {
		t.Fatalf("unexpected summary %+v", s)
	}

	r := svc.Ranking(ctx, 10)
	if r[0].Tier != "Diamante" || r[1].Tier != "Custom" {
		t.Fatalf("unexpected ranking tiers %+v", r)
	}
}

func TestDashboardRunsConcurrently(t *testing.T) {
	backend := &stubBackend{balance: 150, history: []domain.PointsTransaction{{Points: 150, ActionType: "compra"}}}
	d := New(backend, nil).Dashboard(context.Background(), "tok", 5)
	if d.Balance.Tier.Name != "Prata" || d.Summary.Total != 150 || len(d.History) != 1 {
		t.Fatalf("unexpected dashboard %+v", d)
	}
	if atomic.LoadInt32(&backend.maxInFlight) < 2 {
		t.Fatalf("expected concurrent backend reads, max in flight %d", backend.maxInFlight)
	}
}
