package projection

import (
	"fmt"
	"time"

	"github.com/naimgaunaa/TPO-Pokerstars/pkg/models"
	"github.com/naimgaunaa/TPO-Pokerstars/pkg/store"
)

// PartitionKeyFor derives the composite key of an entity owned by ownerID at t.
func PartitionKeyFor(ownerID int64, t time.Time, entityID int64) store.PartitionKey {
	return store.PartitionKey{OwnerID: ownerID, Day: Day(t), EntityID: entityID}
}

// BuildPartitionedDocument maps a row to its partitioned form. Hands are
// partitioned by table and day, transactions by user and day. A row without
// a timestamp cannot be bucketed and is rejected.
func BuildPartitionedDocument(row models.SourceRow) (store.PartitionedDocument, error) {
	switch r := row.(type) {
	case models.Hand:
		if err := requirePositive(r, "id_mano", r.ID); err != nil {
			return store.PartitionedDocument{}, err
		}
		if err := requirePositive(r, "id_mesa", r.TableID); err != nil {
			return store.PartitionedDocument{}, err
		}
		if r.PlayedAt == nil {
			return store.PartitionedDocument{}, store.NewMappingError(string(r.Entity()), r.RowID(), "fecha_hora is required for day partitioning")
		}

		playedAt := timestamp(*r.PlayedAt)
		k := PartitionKeyFor(r.TableID, playedAt, r.ID)
		return store.PartitionedDocument{
			Table: TableHandsByTableDate,
			Key:   k,
			Fields: store.Fields{
				"doc_id":    k.String(),
				"hand_id":   r.ID,
				"table_id":  r.TableID,
				"day":       k.Day,
				"played_at": playedAt,
				"pot":       money(r.Pot),
				"rake":      money(r.Rake),
				"winner_id": id(r.WinnerID),
				"modality":  text(r.Modality),
			},
		}, nil

	case models.Transaction:
		if err := requirePositive(r, "id_transaccion", r.ID); err != nil {
			return store.PartitionedDocument{}, err
		}
		if err := requirePositive(r, "id_usuario", r.UserID); err != nil {
			return store.PartitionedDocument{}, err
		}
		if r.OccurredAt == nil {
			return store.PartitionedDocument{}, store.NewMappingError(string(r.Entity()), r.RowID(), "fecha is required for day partitioning")
		}

		occurredAt := timestamp(*r.OccurredAt)
		k := PartitionKeyFor(r.UserID, occurredAt, r.ID)
		return store.PartitionedDocument{
			Table: TableTransactionsByUserDate,
			Key:   k,
			Fields: store.Fields{
				"doc_id":         k.String(),
				"transaction_id": r.ID,
				"user_id":        r.UserID,
				"day":            k.Day,
				"occurred_at":    occurredAt,
				"amount":         money(r.Amount),
				"type":           text(r.Type),
				"status":         text(r.Status),
				"method":         text(r.Method),
			},
		}, nil
	}

	return store.PartitionedDocument{}, fmt.Errorf("%w: %s rows have no partitioned form", store.ErrUnsupportedProjection, row.Entity())
}
