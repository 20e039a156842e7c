package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"linguameet/internal/model"
)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userSelect = `
	SELECT u.id, u.email, u.password_hash, u.first_name, u.last_name,
	       u.avatar_url, u.balance, u.created_at, u.updated_at,
	       p.age, p.gender, p.interests, p.completed
	FROM users u
	LEFT JOIN user_profiles p ON p.user_id = u.id`

func (r *UserRepository) FindByID(ctx context.Context, id string) (model.User, error) {
	return r.scanOne(r.pool.QueryRow(ctx, userSelect+` WHERE u.id = $1`, id))
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (model.User, error) {
	return r.scanOne(r.pool.QueryRow(ctx, userSelect+` WHERE u.email = $1`, email))
}

func (r *UserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE email = $1)`, email).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check email exists: %w", err)
	}
	return exists, nil
}

// Create inserts the user row together with its empty profile
// sub-record in one transaction.
func (r *UserRepository) Create(ctx context.Context, u model.User) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin create user: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	_, err = tx.Exec(ctx,
		`INSERT INTO users (id, email, password_hash, first_name, last_name, avatar_url, balance, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		u.ID, u.Email, u.PasswordHash, u.FirstName, u.LastName, u.AvatarURL, u.Balance, u.CreatedAt, u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create user: %w", err)
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO user_profiles (user_id, updated_at) VALUES ($1, $2)`,
		u.ID, u.CreatedAt)
	if err != nil {
		return fmt.Errorf("create user profile: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit create user: %w", err)
	}
	return nil
}

func (r *UserRepository) scanOne(row pgx.Row) (model.User, error) {
	var (
		u         model.User
		age       *int
		gender    *string
		interests []string
		completed *bool
	)

	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &u.FirstName, &u.LastName,
		&u.AvatarURL, &u.Balance, &u.CreatedAt, &u.UpdatedAt,
		&age, &gender, &interests, &completed)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.User{}, model.ErrUserNotFound
	}
	if err != nil {
		return model.User{}, fmt.Errorf("find user: %w", err)
	}

	if completed != nil {
		profile := &model.UserProfile{
			UserID:    u.ID,
			Age:       age,
			Interests: interests,
			Completed: *completed,
		}
		if gender != nil {
			profile.Gender = *gender
		}
		u.Profile = profile
	}

	return u, nil
}
