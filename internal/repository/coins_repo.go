package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"linguameet/internal/model"
)

// TransferTx is the view of the store a balance mutation sees inside
// its transaction. Lock* statements take row locks, so a concurrent
// mutation touching the same user blocks until this one commits.
type TransferTx interface {
	LockUserByID(ctx context.Context, id string) (model.User, error)
	LockUserByEmail(ctx context.Context, email string) (model.User, error)
	SetBalance(ctx context.Context, userID string, balance int64) error
}

type CoinsRepository struct {
	pool *pgxpool.Pool
}

func NewCoinsRepository(pool *pgxpool.Pool) *CoinsRepository {
	return &CoinsRepository{pool: pool}
}

func (r *CoinsRepository) Balance(ctx context.Context, userID string) (int64, error) {
	var balance int64
	err := r.pool.QueryRow(ctx,
		`SELECT balance FROM users WHERE id = $1`, userID).Scan(&balance)

	if errors.Is(err, pgx.ErrNoRows) {
		return 0, model.ErrUserNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return balance, nil
}

// InTransfer runs fn inside one transaction. Either every write fn
// performed is committed or none is; a concurrent reader never sees a
// debited sender without the credited recipient.
func (r *CoinsRepository) InTransfer(ctx context.Context, fn func(tx TransferTx) error) error {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.ReadCommitted})
	if err != nil {
		return fmt.Errorf("begin transfer: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(&transferTx{tx: tx}); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit transfer: %w", err)
	}
	return nil
}

type transferTx struct {
	tx pgx.Tx
}

func (t *transferTx) LockUserByID(ctx context.Context, id string) (model.User, error) {
	return t.lockUser(ctx,
		`SELECT id, email, balance FROM users WHERE id = $1 FOR UPDATE`, id)
}

func (t *transferTx) LockUserByEmail(ctx context.Context, email string) (model.User, error) {
	return t.lockUser(ctx,
		`SELECT id, email, balance FROM users WHERE email = $1 FOR UPDATE`, email)
}

func (t *transferTx) lockUser(ctx context.Context, query string, arg string) (model.User, error) {
	var u model.User
	err := t.tx.QueryRow(ctx, query, arg).Scan(&u.ID, &u.Email, &u.Balance)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("lock user row: %w", err)
	}
	return u, nil
}

func (t *transferTx) SetBalance(ctx context.Context, userID string, balance int64) error {
	tag, err := t.tx.Exec(ctx,
		`UPDATE users SET balance = $2, updated_at = $3 WHERE id = $1`,
		userID, balance, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}
