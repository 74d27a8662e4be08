package projection

import (
	"fmt"

	"github.com/naimgaunaa/TPO-Pokerstars/pkg/models"
	"github.com/naimgaunaa/TPO-Pokerstars/pkg/store"
)

// GraphElements are the nodes and edges one row contributes. Nodes must be
// merged before edges.
type GraphElements struct {
	Nodes []store.Node
	Edges []store.Edge
}

// Node kinds used by graph queries
var (
	KindUser  = store.NodeKind{Label: LabelUser, KeyProperty: KeyUser}
	KindTable = store.NodeKind{Label: LabelTable, KeyProperty: KeyTable}
)

func userRef(userID int64) store.NodeRef {
	return store.NodeRef{Label: LabelUser, KeyProperty: KeyUser, ID: userID}
}

func tableRef(tableID int64) store.NodeRef {
	return store.NodeRef{Label: LabelTable, KeyProperty: KeyTable, ID: tableID}
}

func userNode(userID int64, name *string) store.Node {
	return store.Node{
		NodeRef:    userRef(userID),
		Attributes: store.Fields{"name": text(name)},
	}
}

func tableNode(tableID int64, modality, tableType *string) store.Node {
	return store.Node{
		NodeRef: tableRef(tableID),
		Attributes: store.Fields{
			"modality": text(modality),
			"type":     text(tableType),
		},
	}
}

// BuildGraphElements maps a row to graph nodes and edges. A seat yields both
// endpoints and a single PLAYED_AT edge from the user to the table.
func BuildGraphElements(row models.SourceRow) (GraphElements, error) {
	switch r := row.(type) {
	case models.User:
		if err := requirePositive(r, "id_usuario", r.ID); err != nil {
			return GraphElements{}, err
		}
		return GraphElements{Nodes: []store.Node{userNode(r.ID, r.Name)}}, nil

	case models.Table:
		if err := requirePositive(r, "id_mesa", r.ID); err != nil {
			return GraphElements{}, err
		}
		return GraphElements{Nodes: []store.Node{tableNode(r.ID, r.Modality, r.Type)}}, nil

	case models.Seat:
		if err := requirePositive(r, "id_usuario", r.UserID); err != nil {
			return GraphElements{}, err
		}
		if err := requirePositive(r, "id_mesa", r.TableID); err != nil {
			return GraphElements{}, err
		}
		return GraphElements{
			Nodes: []store.Node{
				userNode(r.UserID, r.UserName),
				tableNode(r.TableID, r.TableModality, r.TableType),
			},
			Edges: []store.Edge{{
				Type: EdgePlayedAt,
				From: userRef(r.UserID),
				To:   tableRef(r.TableID),
			}},
		}, nil
	}

	return GraphElements{}, fmt.Errorf("%w: %s rows have no graph form", store.ErrUnsupportedProjection, row.Entity())
}
