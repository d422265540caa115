package domain

import "time"

type PointsTransaction struct {
	ID          int64     `json:"id"`
	ActionType  string    `json:"actionType"`
	Points      int       `json:"points"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

type RankingEntry struct {
	Position int    `json:"position"`
	UserID   int64  `json:"userId"`
	Name     string `json:"name"`
	Points   int    `json:"points"`
	Tier     string `json:"tier"`
}
