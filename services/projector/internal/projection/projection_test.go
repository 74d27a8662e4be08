package projection

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/naimgaunaa/TPO-Pokerstars/pkg/models"
	"github.com/naimgaunaa/TPO-Pokerstars/pkg/store"
)

func ptr[T any](v T) *T { return &v }

func TestBuildDocumentHand(t *testing.T) {
	playedAt := time.Date(2025, 9, 14, 20, 15, 30, 123456789, time.UTC)
	hand := models.Hand{
		ID:       1,
		TableID:  10,
		Pot:      ptr(300.0),
		PlayedAt: &playedAt,
		WinnerID: ptr(int64(1)),
	}

	doc, err := BuildDocument(hand)
	require.NoError(t, err)

	assert.Equal(t, CollectionHands, doc.Collection)
	assert.Equal(t, "1", doc.Key)
	assert.Equal(t, 300.0, doc.Fields["pot"])
	assert.Equal(t, int64(1), doc.Fields["winner_id"])
	assert.Equal(t, 0.0, doc.Fields["rake"], "missing money coerces to zero")
	assert.Equal(t, Unknown, doc.Fields["modality"])
	assert.Equal(t, Unknown, doc.Fields["table_type"])
	assert.Equal(t, time.Date(2025, 9, 14, 20, 15, 30, 123000000, time.UTC), doc.Fields["played_at"])
}

func TestBuildDocumentIsDeterministic(t *testing.T) {
	rows := []models.SourceRow{
		models.User{ID: 1, Name: ptr("Ana"), Balance: ptr(100.0)},
		models.Hand{ID: 2, TableID: 3, Pot: ptr(50.5)},
		models.Transaction{ID: 4, UserID: 1, Amount: ptr(20.0), Type: ptr(models.TransactionDeposit)},
		models.Tournament{ID: 5, Name: ptr("Sunday Million")},
	}

	for _, row := range rows {
		t.Run(string(row.Entity()), func(t *testing.T) {
			first, err := BuildDocument(row)
			require.NoError(t, err)
			second, err := BuildDocument(row)
			require.NoError(t, err)
			assert.Equal(t, first, second)
		})
	}
}

func TestBuildDocumentUserKeepsBalanceAuthoritative(t *testing.T) {
	user := models.User{
		ID:           7,
		Name:         ptr("Luis"),
		Balance:      ptr(150.0),
		Deposits:     ptr(500.0),
		Withdrawals:  ptr(120.0),
		HandWinnings: ptr(75.0),
		HandsPlayed:  12,
		HandsWon:     3,
	}

	doc, err := BuildDocument(user)
	require.NoError(t, err)

	assert.Equal(t, CollectionUsers, doc.Collection)
	assert.Equal(t, "7", doc.Key)
	assert.Equal(t, 150.0, doc.Fields["balance"])
	assert.Equal(t, 380.0, doc.Fields["net_deposits"])
	assert.Equal(t, 75.0, doc.Fields["hand_winnings"])
	assert.Equal(t, 0.0, doc.Fields["chip_balance"])
	assert.Equal(t, Unknown, doc.Fields["email"])
	assert.Equal(t, int64(12), doc.Fields["hands_played"])
}

func TestBuildDocumentErrors(t *testing.T) {
	t.Run("non positive id", func(t *testing.T) {
		_, err := BuildDocument(models.Hand{ID: 0, TableID: 1})
		assert.True(t, store.IsRowMapping(err))
	})

	t.Run("seat has no document form", func(t *testing.T) {
		_, err := BuildDocument(models.Seat{UserID: 1, TableID: 1})
		assert.ErrorIs(t, err, store.ErrUnsupportedProjection)
		assert.False(t, store.IsRowMapping(err))
	})
}

func TestBuildPartitionedDocument(t *testing.T) {
	// 23:30 in UTC-3 is already the next day in UTC
	loc := time.FixedZone("ART", -3*60*60)
	playedAt := time.Date(2025, 9, 14, 23, 30, 0, 0, loc)

	doc, err := BuildPartitionedDocument(models.Hand{ID: 1, TableID: 5, PlayedAt: &playedAt, Pot: ptr(1200.0)})
	require.NoError(t, err)

	assert.Equal(t, TableHandsByTableDate, doc.Table)
	assert.Equal(t, store.PartitionKey{OwnerID: 5, Day: "2025-09-15", EntityID: 1}, doc.Key)
	assert.Equal(t, "5_2025-09-15_1", doc.Fields["doc_id"])
	assert.Equal(t, 1200.0, doc.Fields["pot"])
	assert.Equal(t, 0.0, doc.Fields["rake"])

	again, err := BuildPartitionedDocument(models.Hand{ID: 1, TableID: 5, PlayedAt: &playedAt, Pot: ptr(1200.0)})
	require.NoError(t, err)
	assert.Equal(t, doc, again)
}

func TestBuildPartitionedDocumentTransaction(t *testing.T) {
	at := time.Date(2025, 10, 1, 8, 0, 0, 0, time.UTC)
	doc, err := BuildPartitionedDocument(models.Transaction{
		ID:         9,
		UserID:     2,
		OccurredAt: &at,
		Amount:     ptr(250.0),
		Type:       ptr(models.TransactionWithdrawal),
	})
	require.NoError(t, err)

	assert.Equal(t, TableTransactionsByUserDate, doc.Table)
	assert.Equal(t, "2_2025-10-01_9", doc.Key.String())
	assert.Equal(t, models.TransactionWithdrawal, doc.Fields["type"])
	assert.Equal(t, Unknown, doc.Fields["method"])
}

func TestBuildPartitionedDocumentErrors(t *testing.T) {
	tests := []struct {
		name string
		row  models.SourceRow
	}{
		{"hand without timestamp", models.Hand{ID: 1, TableID: 5}},
		{"hand without table", models.Hand{ID: 1, PlayedAt: ptr(time.Now())}},
		{"transaction without timestamp", models.Transaction{ID: 1, UserID: 2}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := BuildPartitionedDocument(tt.row)
			assert.True(t, store.IsRowMapping(err))
		})
	}

	_, err := BuildPartitionedDocument(models.User{ID: 1})
	assert.ErrorIs(t, err, store.ErrUnsupportedProjection)
}

func TestBuildGraphElementsSeat(t *testing.T) {
	elements, err := BuildGraphElements(models.Seat{
		UserID:        1,
		UserName:      ptr("Ana"),
		TableID:       10,
		TableModality: ptr("Texas Hold'em"),
	})
	require.NoError(t, err)

	require.Len(t, elements.Nodes, 2)
	assert.Equal(t, LabelUser, elements.Nodes[0].Label)
	assert.Equal(t, int64(1), elements.Nodes[0].ID)
	assert.Equal(t, "Ana", elements.Nodes[0].Attributes["name"])
	assert.Equal(t, LabelTable, elements.Nodes[1].Label)
	assert.Equal(t, Unknown, elements.Nodes[1].Attributes["type"])

	require.Len(t, elements.Edges, 1)
	edge := elements.Edges[0]
	assert.Equal(t, EdgePlayedAt, edge.Type)
	assert.Equal(t, store.NodeRef{Label: LabelUser, KeyProperty: KeyUser, ID: 1}, edge.From)
	assert.Equal(t, store.NodeRef{Label: LabelTable, KeyProperty: KeyTable, ID: 10}, edge.To)
}

func TestBuildGraphElementsNodesOnly(t *testing.T) {
	user, err := BuildGraphElements(models.User{ID: 2, Name: ptr("Luis")})
	require.NoError(t, err)
	assert.Len(t, user.Nodes, 1)
	assert.Empty(t, user.Edges)

	table, err := BuildGraphElements(models.Table{ID: 3, Modality: ptr("Omaha"), Type: ptr("cash")})
	require.NoError(t, err)
	assert.Equal(t, store.Fields{"modality": "Omaha", "type": "cash"}, table.Nodes[0].Attributes)

	_, err = BuildGraphElements(models.Seat{UserID: 1})
	assert.True(t, store.IsRowMapping(err))

	_, err = BuildGraphElements(models.Hand{ID: 1})
	assert.ErrorIs(t, err, store.ErrUnsupportedProjection)
}
