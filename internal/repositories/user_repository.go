package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"asset-system/internal/entities"
	apperrors "asset-system/pkg/errors"
)

type UserRepositoryInterface interface {
	FindByEmail(ctx context.Context, email string) (*entities.User, error)
	FindByID(ctx context.Context, id uint64) (*entities.User, error)
	Create(ctx context.Context, user *entities.User) (uint64, error)
	TouchLastLogin(ctx context.Context, id uint64) error
}

type UserRepository struct {
	storage *pgxpool.Pool
}

func NewUserRepository(storage *pgxpool.Pool) UserRepositoryInterface {
	return &UserRepository{storage: storage}
}

const userColumns = "id, org_id, email, password_hash, fio, phone, last_login_at, created_at"

func (r *UserRepository) scanUser(row pgx.Row) (*entities.User, error) {
	var u entities.User
	err := row.Scan(&u.ID, &u.OrgID, &u.Email, &u.PasswordHash, &u.Fio, &u.Phone, &u.LastLoginAt, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrUserNotFound
		}
		return nil, apperrors.NewStoreError("users.find", err)
	}
	return &u, nil
}

func (r *UserRepository) FindByEmail(ctx context.Context, email string) (*entities.User, error) {
	row := r.storage.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE email = $1", email)
	return r.scanUser(row)
}

func (r *UserRepository) FindByID(ctx context.Context, id uint64) (*entities.User, error) {
	row := r.storage.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id)
	return r.scanUser(row)
}

func (r *UserRepository) Create(ctx context.Context, user *entities.User) (uint64, error) {
	err := r.storage.QueryRow(ctx,
		"INSERT INTO users (org_id, email, password_hash, fio, phone, created_at) VALUES ($1, $2, $3, $4, $5, $6) RETURNING id",
		user.OrgID, user.Email, user.PasswordHash, user.Fio, user.Phone, time.Now().UTC(),
	).Scan(&user.ID)
	if err != nil {
		return 0, apperrors.NewStoreError("users.create", err)
	}
	return user.ID, nil
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id uint64) error {
	_, err := r.storage.Exec(ctx, "UPDATE users SET last_login_at = NOW() WHERE id = $1", id)
	if err != nil {
		return apperrors.NewStoreError("users.touchLastLogin", err)
	}
	return nil
}
