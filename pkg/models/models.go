package models

import (
	"fmt"
	"strconv"
	"time"
)

// EntityType names a record-store entity that can be projected.
type EntityType string

const (
	EntityUser        EntityType = "user"
	EntityTable       EntityType = "table"
	EntityHand        EntityType = "hand"
	EntityTransaction EntityType = "transaction"
	EntitySeat        EntityType = "seat"
	EntityTournament  EntityType = "tournament"
)

// EntityTypes lists every projectable entity in dependency order.
var EntityTypes = []EntityType{
	EntityUser,
	EntityTable,
	EntityTournament,
	EntityHand,
	EntityTransaction,
	EntitySeat,
}

// ParseEntityType validates a user-supplied entity name.
func ParseEntityType(s string) (EntityType, error) {
	for _, e := range EntityTypes {
		if string(e) == s {
			return e, nil
		}
	}
	return "", fmt.Errorf("unknown entity type %q", s)
}

// Transaction types and statuses as stored in the record store.
const (
	TransactionDeposit    = "deposito"
	TransactionWithdrawal = "retiro"
	StatusCompleted       = "completada"
)

// SourceRow is one immutable snapshot read from the record store.
type SourceRow interface {
	Entity() EntityType
	// RowID identifies the row in logs and failure reports.
	RowID() string
}

// User represents the usuario table joined with its transaction and hand aggregates
type User struct {
	ID           int64      `json:"id_usuario" db:"id_usuario"`
	Name         *string    `json:"nombre" db:"nombre"`
	Email        *string    `json:"email" db:"email"`
	Country      *string    `json:"pais" db:"pais"`
	KYCVerified  *bool      `json:"verificacion_kyc" db:"verificacion_kyc"`
	RegisteredAt *time.Time `json:"fecha_registro" db:"fecha_registro"`
	Balance      *float64   `json:"saldo_real" db:"saldo_real"`
	ChipBalance  *float64   `json:"saldo_fichas" db:"saldo_fichas"`
	Deposits     *float64   `json:"depositos" db:"depositos"`
	Withdrawals  *float64   `json:"retiros" db:"retiros"`
	HandWinnings *float64   `json:"ganancias_mesas" db:"ganancias_mesas"`
	HandsPlayed  int64      `json:"manos_jugadas" db:"manos_jugadas"`
	HandsWon     int64      `json:"manos_ganadas" db:"manos_ganadas"`
}

func (u User) Entity() EntityType { return EntityUser }
func (u User) RowID() string      { return strconv.FormatInt(u.ID, 10) }

// Table represents the mesa table
type Table struct {
	ID           int64   `json:"id_mesa" db:"id_mesa"`
	Modality     *string `json:"modalidad" db:"modalidad"`
	Type         *string `json:"tipo" db:"tipo"`
	MaxPlayers   *int32  `json:"max_jugadores" db:"max_jugadores"`
	Blinds       *string `json:"ciegas" db:"ciegas"`
	TournamentID *int64  `json:"id_torneo" db:"id_torneo"`
}

func (t Table) Entity() EntityType { return EntityTable }
func (t Table) RowID() string      { return strconv.FormatInt(t.ID, 10) }

// Hand represents the mano table joined with its table type
type Hand struct {
	ID        int64      `json:"id_mano" db:"id_mano"`
	TableID   int64      `json:"id_mesa" db:"id_mesa"`
	Rake      *float64   `json:"rake" db:"rake"`
	Pot       *float64   `json:"bote_total" db:"bote_total"`
	PlayedAt  *time.Time `json:"fecha_hora" db:"fecha_hora"`
	WinnerID  *int64     `json:"ganador_id" db:"ganador_id"`
	Modality  *string    `json:"modalidad" db:"modalidad"`
	TableType *string    `json:"tipo_mesa" db:"tipo_mesa"`
}

func (h Hand) Entity() EntityType { return EntityHand }
func (h Hand) RowID() string      { return strconv.FormatInt(h.ID, 10) }

// Transaction represents the transaccion table joined with user name and payment method
type Transaction struct {
	ID            int64      `json:"id_transaccion" db:"id_transaccion"`
	UserID        int64      `json:"id_usuario" db:"id_usuario"`
	UserName      *string    `json:"nombre_usuario" db:"nombre_usuario"`
	Method        *string    `json:"medio" db:"medio"`
	OccurredAt    *time.Time `json:"fecha" db:"fecha"`
	Amount        *float64   `json:"monto" db:"monto"`
	Status        *string    `json:"estado" db:"estado"`
	Type          *string    `json:"tipo" db:"tipo"`
	AMLCompliance *bool      `json:"cumplimiento_aml" db:"cumplimiento_aml"`
}

func (t Transaction) Entity() EntityType { return EntityTransaction }
func (t Transaction) RowID() string      { return strconv.FormatInt(t.ID, 10) }

// Seat represents the usuario_mesa relation with both endpoints' display attributes
type Seat struct {
	UserID        int64   `json:"id_usuario" db:"id_usuario"`
	UserName      *string `json:"nombre" db:"nombre"`
	TableID       int64   `json:"id_mesa" db:"id_mesa"`
	TableModality *string `json:"modalidad" db:"modalidad"`
	TableType     *string `json:"tipo" db:"tipo"`
}

func (s Seat) Entity() EntityType { return EntitySeat }
func (s Seat) RowID() string {
	return strconv.FormatInt(s.UserID, 10) + ":" + strconv.FormatInt(s.TableID, 10)
}

// Tournament represents the torneo table
type Tournament struct {
	ID         int64      `json:"id_torneo" db:"id_torneo"`
	Name       *string    `json:"nombre" db:"nombre"`
	StartsAt   *time.Time `json:"hora_inicio" db:"hora_inicio"`
	Type       *string    `json:"tipo" db:"tipo"`
	Modality   *string    `json:"modalidad" db:"modalidad"`
	BuyIn      *float64   `json:"buy_in" db:"buy_in"`
	MaxPlayers *int32     `json:"max_jugadores" db:"max_jugadores"`
}

func (t Tournament) Entity() EntityType { return EntityTournament }
func (t Tournament) RowID() string      { return strconv.FormatInt(t.ID, 10) }
