// Package analytics runs read-only queries against already-synced
// projections. Callers sync the involved entity types first; an empty
// result is not an error.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/naimgaunaa/TPO-Pokerstars/pkg/models"
	"github.com/naimgaunaa/TPO-Pokerstars/pkg/store"
	"github.com/naimgaunaa/TPO-Pokerstars/services/projector/internal/projection"
)

// Queries groups the analytical queries over the three projection stores.
type Queries struct {
	docs  store.DocumentStore
	parts store.PartitionedStore
	graph store.GraphStore
	now   func() time.Time
}

// New creates Queries. A nil clock uses time.Now.
func New(docs store.DocumentStore, parts store.PartitionedStore, graph store.GraphStore, now func() time.Time) *Queries {
	if now == nil {
		now = time.Now
	}
	return &Queries{docs: docs, parts: parts, graph: graph, now: now}
}

// ModalityVolume is the summed pot of one game modality.
type ModalityVolume struct {
	Modality string
	Volume   float64
	Hands    int64
}

// VolumeByModality sums hand pots per modality over the trailing days.
func (q *Queries) VolumeByModality(ctx context.Context, days int) ([]ModalityVolume, error) {
	if days <= 0 {
		return nil, fmt.Errorf("%w: days must be positive", store.ErrInvalidArgument)
	}

	since := q.now().UTC().AddDate(0, 0, -days)
	groups, err := q.docs.SumBy(ctx, projection.CollectionHands, store.Query{
		Conditions: []store.Condition{{Field: "played_at", Op: store.OpGte, Value: since}},
	}, "modality", "pot")
	if err != nil {
		return nil, err
	}

	out := make([]ModalityVolume, 0, len(groups))
	for _, g := range groups {
		out = append(out, ModalityVolume{Modality: g.Key, Volume: g.Total, Hands: g.Count})
	}
	return out, nil
}

// UserBalance is one row of the balance ranking.
type UserBalance struct {
	UserID       int64
	Name         string
	Balance      float64
	NetDeposits  float64
	HandWinnings float64
	HandsPlayed  int64
	HandsWon     int64
}

// TopBalances returns the k users with the highest balance.
func (q *Queries) TopBalances(ctx context.Context, k int) ([]UserBalance, error) {
	if k <= 0 {
		return nil, fmt.Errorf("%w: k must be positive", store.ErrInvalidArgument)
	}

	docs, err := q.docs.Find(ctx, projection.CollectionUsers, store.Query{
		SortField:  "balance",
		Descending: true,
		Limit:      k,
	})
	if err != nil {
		return nil, err
	}

	out := make([]UserBalance, 0, len(docs))
	for _, d := range docs {
		out = append(out, UserBalance{
			UserID:       asInt(d["user_id"]),
			Name:         asString(d["name"]),
			Balance:      asFloat(d["balance"]),
			NetDeposits:  asFloat(d["net_deposits"]),
			HandWinnings: asFloat(d["hand_winnings"]),
			HandsPlayed:  asInt(d["hands_played"]),
			HandsWon:     asInt(d["hands_won"]),
		})
	}
	return out, nil
}

// HandSummary is a hand as returned by hand queries.
type HandSummary struct {
	HandID   int64
	TableID  int64
	Pot      float64
	Rake     float64
	WinnerID int64
	Modality string
	PlayedAt time.Time
}

func handSummary(d store.Fields) HandSummary {
	return HandSummary{
		HandID:   asInt(d["hand_id"]),
		TableID:  asInt(d["table_id"]),
		Pot:      asFloat(d["pot"]),
		Rake:     asFloat(d["rake"]),
		WinnerID: asInt(d["winner_id"]),
		Modality: asString(d["modality"]),
		PlayedAt: asTime(d["played_at"]),
	}
}

// HandsByTableAndDate looks up one (table, day) partition.
func (q *Queries) HandsByTableAndDate(ctx context.Context, tableID int64, day time.Time) ([]HandSummary, error) {
	docs, err := q.parts.FindPartition(ctx, projection.TableHandsByTableDate, tableID, projection.Day(day))
	if err != nil {
		return nil, err
	}

	out := make([]HandSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, handSummary(d))
	}
	return out, nil
}

// TransactionSummary is a transaction as returned by transaction queries.
type TransactionSummary struct {
	TransactionID int64
	UserID        int64
	Amount        float64
	Type          string
	Status        string
	Method        string
	OccurredAt    time.Time
}

func transactionSummary(d store.Fields) TransactionSummary {
	return TransactionSummary{
		TransactionID: asInt(d["transaction_id"]),
		UserID:        asInt(d["user_id"]),
		Amount:        asFloat(d["amount"]),
		Type:          asString(d["type"]),
		Status:        asString(d["status"]),
		Method:        asString(d["method"]),
		OccurredAt:    asTime(d["occurred_at"]),
	}
}

// TransactionsByUserAndDate looks up one (user, day) partition.
func (q *Queries) TransactionsByUserAndDate(ctx context.Context, userID int64, day time.Time) ([]TransactionSummary, error) {
	docs, err := q.parts.FindPartition(ctx, projection.TableTransactionsByUserDate, userID, projection.Day(day))
	if err != nil {
		return nil, err
	}

	out := make([]TransactionSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, transactionSummary(d))
	}
	return out, nil
}

// PlayersAtMultipleTables returns users seated at min or more distinct tables.
func (q *Queries) PlayersAtMultipleTables(ctx context.Context, min int) ([]store.NeighborCount, error) {
	if min <= 0 {
		return nil, fmt.Errorf("%w: min must be positive", store.ErrInvalidArgument)
	}
	return q.graph.NeighborCounts(ctx, projection.KindUser, projection.EdgePlayedAt, min)
}

// SharedTablePairs returns user pairs sharing more than minShared tables,
// each unordered pair once. A zero limit returns every pair.
func (q *Queries) SharedTablePairs(ctx context.Context, minShared, limit int) ([]store.NeighborPair, error) {
	if minShared < 0 || limit < 0 {
		return nil, fmt.Errorf("%w: thresholds must not be negative", store.ErrInvalidArgument)
	}
	return q.graph.SharedNeighborPairs(ctx, projection.KindUser, projection.EdgePlayedAt, minShared, limit)
}

// HighPotHands returns hands of the given calendar month (UTC) whose pot
// exceeds minPot, largest first.
func (q *Queries) HighPotHands(ctx context.Context, minPot float64, year int, month time.Month) ([]HandSummary, error) {
	if month < time.January || month > time.December {
		return nil, fmt.Errorf("%w: month %d", store.ErrInvalidArgument, month)
	}

	from := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	docs, err := q.docs.Find(ctx, projection.CollectionHands, store.Query{
		Conditions: []store.Condition{
			{Field: "pot", Op: store.OpGt, Value: minPot},
			{Field: "played_at", Op: store.OpGte, Value: from},
			{Field: "played_at", Op: store.OpLt, Value: from.AddDate(0, 1, 0)},
		},
		SortField:  "pot",
		Descending: true,
	})
	if err != nil {
		return nil, err
	}

	out := make([]HandSummary, 0, len(docs))
	for _, d := range docs {
		out = append(out, handSummary(d))
	}
	return out, nil
}

// Deposits is a user's deposits through one payment method.
type Deposits struct {
	UserID       int64
	Method       string
	Total        float64
	Transactions []TransactionSummary
}

// DepositsByMethod lists a user's deposits through method, oldest first.
func (q *Queries) DepositsByMethod(ctx context.Context, userID int64, method string) (Deposits, error) {
	result := Deposits{UserID: userID, Method: method}

	docs, err := q.docs.Find(ctx, projection.CollectionTransactions, store.Query{
		Conditions: []store.Condition{
			{Field: "user_id", Op: store.OpEq, Value: userID},
			{Field: "type", Op: store.OpEq, Value: models.TransactionDeposit},
			{Field: "method", Op: store.OpEq, Value: method},
		},
		SortField: "occurred_at",
	})
	if err != nil {
		return result, err
	}

	for _, d := range docs {
		t := transactionSummary(d)
		result.Total += t.Amount
		result.Transactions = append(result.Transactions, t)
	}
	return result, nil
}
