package projection

import (
	"fmt"
	"time"

	"github.com/naimgaunaa/TPO-Pokerstars/pkg/models"
	"github.com/naimgaunaa/TPO-Pokerstars/pkg/store"
)

// UserDocument is the denormalized user view. Balance is the stored real
// balance; net deposits and hand winnings are informational and never folded
// into it.
type UserDocument struct {
	UserID       int64   `json:"user_id"`
	Name         string  `json:"name"`
	Email        string  `json:"email"`
	Country      string  `json:"country"`
	KYCVerified  bool    `json:"kyc_verified"`
	Balance      float64 `json:"balance"`
	ChipBalance  float64 `json:"chip_balance"`
	Deposits     float64 `json:"deposits"`
	Withdrawals  float64 `json:"withdrawals"`
	NetDeposits  float64 `json:"net_deposits"`
	HandWinnings float64 `json:"hand_winnings"`
	HandsPlayed  int64   `json:"hands_played"`
	HandsWon     int64   `json:"hands_won"`
}

// Fields renders the document for storage.
func (d UserDocument) Fields() store.Fields {
	return store.Fields{
		"user_id":       d.UserID,
		"name":          d.Name,
		"email":         d.Email,
		"country":       d.Country,
		"kyc_verified":  d.KYCVerified,
		"balance":       d.Balance,
		"chip_balance":  d.ChipBalance,
		"deposits":      d.Deposits,
		"withdrawals":   d.Withdrawals,
		"net_deposits":  d.NetDeposits,
		"hand_winnings": d.HandWinnings,
		"hands_played":  d.HandsPlayed,
		"hands_won":     d.HandsWon,
	}
}

// HandDocument is the denormalized hand view including its table type.
type HandDocument struct {
	HandID    int64      `json:"hand_id"`
	TableID   int64      `json:"table_id"`
	Pot       float64    `json:"pot"`
	Rake      float64    `json:"rake"`
	WinnerID  int64      `json:"winner_id"`
	Modality  string     `json:"modality"`
	TableType string     `json:"table_type"`
	PlayedAt  *time.Time `json:"played_at,omitempty"`
}

// Fields renders the document for storage. A missing timestamp is omitted.
func (d HandDocument) Fields() store.Fields {
	f := store.Fields{
		"hand_id":    d.HandID,
		"table_id":   d.TableID,
		"pot":        d.Pot,
		"rake":       d.Rake,
		"winner_id":  d.WinnerID,
		"modality":   d.Modality,
		"table_type": d.TableType,
	}
	if d.PlayedAt != nil {
		f["played_at"] = *d.PlayedAt
	}
	return f
}

// TransactionDocument is the denormalized transaction view.
type TransactionDocument struct {
	TransactionID int64      `json:"transaction_id"`
	UserID        int64      `json:"user_id"`
	UserName      string     `json:"user_name"`
	Method        string     `json:"method"`
	Amount        float64    `json:"amount"`
	Status        string     `json:"status"`
	Type          string     `json:"type"`
	AMLCompliant  bool       `json:"aml_compliant"`
	OccurredAt    *time.Time `json:"occurred_at,omitempty"`
}

// Fields renders the document for storage. A missing timestamp is omitted.
func (d TransactionDocument) Fields() store.Fields {
	f := store.Fields{
		"transaction_id": d.TransactionID,
		"user_id":        d.UserID,
		"user_name":      d.UserName,
		"method":         d.Method,
		"amount":         d.Amount,
		"status":         d.Status,
		"type":           d.Type,
		"aml_compliant":  d.AMLCompliant,
	}
	if d.OccurredAt != nil {
		f["occurred_at"] = *d.OccurredAt
	}
	return f
}

// TournamentDocument mirrors a tournament.
type TournamentDocument struct {
	TournamentID int64      `json:"tournament_id"`
	Name         string     `json:"name"`
	Type         string     `json:"type"`
	Modality     string     `json:"modality"`
	BuyIn        float64    `json:"buy_in"`
	MaxPlayers   int64      `json:"max_players"`
	StartsAt     *time.Time `json:"starts_at,omitempty"`
}

// Fields renders the document for storage. A missing start time is omitted.
func (d TournamentDocument) Fields() store.Fields {
	f := store.Fields{
		"tournament_id": d.TournamentID,
		"name":          d.Name,
		"type":          d.Type,
		"modality":      d.Modality,
		"buy_in":        d.BuyIn,
		"max_players":   d.MaxPlayers,
	}
	if d.StartsAt != nil {
		f["starts_at"] = *d.StartsAt
	}
	return f
}

func optionalTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	ts := timestamp(*t)
	return &ts
}

// NewUserDocument builds the user view from its row.
func NewUserDocument(u models.User) UserDocument {
	deposits, withdrawals := money(u.Deposits), money(u.Withdrawals)
	return UserDocument{
		UserID:       u.ID,
		Name:         text(u.Name),
		Email:        text(u.Email),
		Country:      text(u.Country),
		KYCVerified:  flag(u.KYCVerified),
		Balance:      money(u.Balance),
		ChipBalance:  money(u.ChipBalance),
		Deposits:     deposits,
		Withdrawals:  withdrawals,
		NetDeposits:  deposits - withdrawals,
		HandWinnings: money(u.HandWinnings),
		HandsPlayed:  u.HandsPlayed,
		HandsWon:     u.HandsWon,
	}
}

// NewHandDocument builds the hand view from its row.
func NewHandDocument(h models.Hand) HandDocument {
	return HandDocument{
		HandID:    h.ID,
		TableID:   h.TableID,
		Pot:       money(h.Pot),
		Rake:      money(h.Rake),
		WinnerID:  id(h.WinnerID),
		Modality:  text(h.Modality),
		TableType: text(h.TableType),
		PlayedAt:  optionalTime(h.PlayedAt),
	}
}

// NewTransactionDocument builds the transaction view from its row.
func NewTransactionDocument(t models.Transaction) TransactionDocument {
	return TransactionDocument{
		TransactionID: t.ID,
		UserID:        t.UserID,
		UserName:      text(t.UserName),
		Method:        text(t.Method),
		Amount:        money(t.Amount),
		Status:        text(t.Status),
		Type:          text(t.Type),
		AMLCompliant:  flag(t.AMLCompliance),
		OccurredAt:    optionalTime(t.OccurredAt),
	}
}

// NewTournamentDocument builds the tournament view from its row.
func NewTournamentDocument(t models.Tournament) TournamentDocument {
	return TournamentDocument{
		TournamentID: t.ID,
		Name:         text(t.Name),
		Type:         text(t.Type),
		Modality:     text(t.Modality),
		BuyIn:        money(t.BuyIn),
		MaxPlayers:   count32(t.MaxPlayers),
		StartsAt:     optionalTime(t.StartsAt),
	}
}

// BuildDocument maps a row to its document. The derived key is the source
// primary key.
func BuildDocument(row models.SourceRow) (store.Document, error) {
	switch r := row.(type) {
	case models.User:
		if err := requirePositive(r, "id_usuario", r.ID); err != nil {
			return store.Document{}, err
		}
		return store.Document{Collection: CollectionUsers, Key: key(r.ID), Fields: NewUserDocument(r).Fields()}, nil

	case models.Hand:
		if err := requirePositive(r, "id_mano", r.ID); err != nil {
			return store.Document{}, err
		}
		return store.Document{Collection: CollectionHands, Key: key(r.ID), Fields: NewHandDocument(r).Fields()}, nil

	case models.Transaction:
		if err := requirePositive(r, "id_transaccion", r.ID); err != nil {
			return store.Document{}, err
		}
		return store.Document{Collection: CollectionTransactions, Key: key(r.ID), Fields: NewTransactionDocument(r).Fields()}, nil

	case models.Tournament:
		if err := requirePositive(r, "id_torneo", r.ID); err != nil {
			return store.Document{}, err
		}
		return store.Document{Collection: CollectionTournaments, Key: key(r.ID), Fields: NewTournamentDocument(r).Fields()}, nil
	}

	return store.Document{}, fmt.Errorf("%w: %s rows have no document form", store.ErrUnsupportedProjection, row.Entity())
}
