package source

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/naimgaunaa/TPO-Pokerstars/pkg/logger"
	"github.com/naimgaunaa/TPO-Pokerstars/pkg/models"
	"github.com/naimgaunaa/TPO-Pokerstars/pkg/store"
)

// AMLReviewThreshold is the amount above which a transaction is flagged for
// anti-money-laundering review.
const AMLReviewThreshold = 2000.0

// TxBeginner starts relational transactions; *pgxpool.Pool satisfies it.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// BalanceInvalidator overwrites a cached balance after it changed.
type BalanceInvalidator interface {
	Invalidate(ctx context.Context, userID int64, balance float64) error
}

// TransactionInput is a deposit or withdrawal request.
type TransactionInput struct {
	UserID   int64
	MethodID int64
	Amount   float64
	Type     string
}

// Validate rejects malformed requests before touching the database.
func (in TransactionInput) Validate() error {
	if in.UserID <= 0 {
		return fmt.Errorf("%w: user id must be positive", store.ErrInvalidArgument)
	}
	if in.MethodID <= 0 {
		return fmt.Errorf("%w: payment method id must be positive", store.ErrInvalidArgument)
	}
	if in.Amount <= 0 {
		return fmt.Errorf("%w: amount must be positive", store.ErrInvalidArgument)
	}
	if in.Type != models.TransactionDeposit && in.Type != models.TransactionWithdrawal {
		return fmt.Errorf("%w: type must be %q or %q", store.ErrInvalidArgument, models.TransactionDeposit, models.TransactionWithdrawal)
	}
	return nil
}

// AMLCompliant reports whether the amount passes without review.
func (in TransactionInput) AMLCompliant() bool {
	return in.Amount <= AMLReviewThreshold
}

// signedAmount is the balance delta the transaction applies.
func (in TransactionInput) signedAmount() float64 {
	if in.Type == models.TransactionWithdrawal {
		return -in.Amount
	}
	return in.Amount
}

// TransactionReceipt describes a committed transaction.
type TransactionReceipt struct {
	TransactionID int64     `json:"transaction_id"`
	OccurredAt    time.Time `json:"occurred_at"`
	NewBalance    float64   `json:"new_balance"`
	AMLCompliant  bool      `json:"aml_compliant"`
}

// Ledger is the balance-affecting write path of the record store.
type Ledger struct {
	db          TxBeginner
	invalidator BalanceInvalidator
	logger      *logger.Logger
}

// NewLedger creates a Ledger that invalidates cached balances through invalidator.
func NewLedger(db TxBeginner, invalidator BalanceInvalidator, logger *logger.Logger) *Ledger {
	return &Ledger{db: db, invalidator: invalidator, logger: logger}
}

const (
	insertTransactionQuery = `
		INSERT INTO transaccion (id_usuario, id_metodo, monto, tipo, estado, cumplimiento_aml)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id_transaccion, fecha`

	adjustBalanceQuery = `
		UPDATE usuario SET saldo_real = saldo_real + $1
		WHERE id_usuario = $2
		RETURNING saldo_real::float8`
)

// RecordTransaction stores a completed transaction and adjusts the user's
// balance in one relational transaction, then overwrites the cached balance.
// If only the cache overwrite fails the receipt is still returned with the error.
func (l *Ledger) RecordTransaction(ctx context.Context, in TransactionInput) (TransactionReceipt, error) {
	if err := in.Validate(); err != nil {
		return TransactionReceipt{}, err
	}

	receipt := TransactionReceipt{AMLCompliant: in.AMLCompliant()}
	if !receipt.AMLCompliant {
		l.logger.WithFields(map[string]string{
			"user":   fmt.Sprint(in.UserID),
			"amount": fmt.Sprintf("%.2f", in.Amount),
		}).Warn("Transaction flagged for AML review")
	}

	tx, err := l.db.Begin(ctx)
	if err != nil {
		return TransactionReceipt{}, store.NewSourceError("begin transaction", err)
	}
	defer func() {
		// No-op once committed
		_ = tx.Rollback(ctx)
	}()

	err = tx.QueryRow(ctx, insertTransactionQuery,
		in.UserID, in.MethodID, in.Amount, in.Type, models.StatusCompleted, receipt.AMLCompliant,
	).Scan(&receipt.TransactionID, &receipt.OccurredAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return TransactionReceipt{}, fmt.Errorf("user %d or payment method %d: %w", in.UserID, in.MethodID, store.ErrNotFound)
		}
		return TransactionReceipt{}, store.NewSourceError("insert transaction", err)
	}

	err = tx.QueryRow(ctx, adjustBalanceQuery, in.signedAmount(), in.UserID).Scan(&receipt.NewBalance)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return TransactionReceipt{}, fmt.Errorf("user %d: %w", in.UserID, store.ErrNotFound)
		}
		return TransactionReceipt{}, store.NewSourceError("adjust balance", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return TransactionReceipt{}, store.NewSourceError("commit transaction", err)
	}

	l.logger.Infof("Recorded %s %d for user %d: %.2f (balance %.2f)",
		in.Type, receipt.TransactionID, in.UserID, in.Amount, receipt.NewBalance)

	if err := l.invalidator.Invalidate(ctx, in.UserID, receipt.NewBalance); err != nil {
		l.logger.Errorf("Failed to overwrite cached balance for user %d: %v", in.UserID, err)
		return receipt, fmt.Errorf("transaction %d committed but cache overwrite failed: %w", receipt.TransactionID, err)
	}
	return receipt, nil
}
