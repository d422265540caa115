package points

import (
	"context"
	"io"
	"log"
	"sort"

	"golang.org/x/sync/errgroup"

	"infohub/internal/domain"
)

// Backend is the points slice of the REST backend.
type Backend interface {
	PointsBalance(ctx context.Context, token string) (int, error)
	PointsHistory(ctx context.Context, token string) ([]domain.PointsTransaction, error)
	Ranking(ctx context.Context, limit int) ([]domain.RankingEntry, error)
}

// Service aggregates points reads. Every read degrades to a zero value on backend failure so
// screens can render an empty state.
type Service struct {
	backend Backend
	logger  *log.Logger
}

func New(b Backend, logger *log.Logger) *Service {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Service{backend: b, logger: logger}
}

type Balance struct {
	Points   int  `json:"points"`
	Tier     Tier `json:"tier"`
	Progress int  `json:"progress"`
	ToNext   int  `json:"toNext"`
}

func balanceFor(points int) Balance {
	return Balance{Points: points, Tier: TierFor(points), Progress: Progress(points), ToNext: PointsToNext(points)}
}

func (s *Service) Balance(ctx context.Context, token string) Balance {
	points, err := s.backend.PointsBalance(ctx, token)
	if err != nil {
		s.logger.Printf("points: balance error=%v", err)
		points = 0
	}
	return balanceFor(points)
}

// History is newest first.
func (s *Service) History(ctx context.Context, token string) []domain.PointsTransaction {
	txs, err := s.backend.PointsHistory(ctx, token)
	if err != nil {
		s.logger.Printf("points: history error=%v", err)
		return []domain.PointsTransaction{}
	}
	out := append([]domain.PointsTransaction{}, txs...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out
}

// Ranking fills in tiers the backend did not send.
func (s *Service) Ranking(ctx context.Context, limit int) []domain.RankingEntry {
	entries, err := s.backend.Ranking(ctx, limit)
	if err != nil {
		s.logger.Printf("points: ranking error=%v", err)
		return []domain.RankingEntry{}
	}
	out := make([]domain.RankingEntry, 0, len(entries))
	for _, e := range entries {
		if e.Tier == "" {
			e.Tier = TierFor(e.Points).Name
		}
		out = append(out, e)
	}
	return out
}

// Summary totals a transaction history by action type.
type Summary struct {
	Total        int            `json:"total"`
	Earned       int            `json:"earned"`
	Spent        int            `json:"spent"`
	ByAction     map[string]int `json:"byAction"`
	Transactions int            `json:"transactions"`
}

func Summarize(txs []domain.PointsTransaction) Summary {
	s := Summary{ByAction: make(map[string]int)}
	for _, tx := range txs {
		s.Total += tx.Points
		if tx.Points >= 0 {
			s.Earned += tx.Points
		} else {
			s.Spent -= tx.Points
		}
		action := tx.ActionType
		if action == "" {
			action = "outro"
		}
		s.ByAction[action] += tx.Points
		s.Transactions++
	}
	return s
}

func (s *Service) Summary(ctx context.Context, token string) Summary {
	return Summarize(s.History(ctx, token))
}

type Dashboard struct {
	Balance Balance                    `json:"balance"`
	History []domain.PointsTransaction `json:"history"`
	Summary Summary                    `json:"summary"`
	Ranking []domain.RankingEntry      `json:"ranking"`
}

// Dashboard loads balance, history and ranking concurrently. Each part degrades on its own.
func (s *Service) Dashboard(ctx context.Context, token string, rankingLimit int) Dashboard {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d.Balance = s.Balance(gctx, token)
		return nil
	})
	g.Go(func() error {
		d.History = s.History(gctx, token)
		return nil
	})
	g.Go(func() error {
		d.Ranking = s.Ranking(gctx, rankingLimit)
		return nil
	})
	_ = g.Wait()
	d.Summary = Summarize(d.History)
	return d
}
