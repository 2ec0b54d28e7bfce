package implementations

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
)

type UserRepository struct {
	db *sql.DB
}

type rowScanner interface {
	Scan(dest ...any) error
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user domain.User) (domain.User, error) {
	logger.Info("user repository create", logger.Fields{
		"username": user.Username,
		"role":     user.Role,
	})

	const query = `
INSERT INTO users (
	username,
	password_hash,
	role
) VALUES ($1, $2, $3)
RETURNING username, password_hash, role, created_at, updated_at`

	var created domain.User
	if err := scanUser(r.db.QueryRowContext(
		ctx,
		query,
		user.Username,
		user.PasswordHash,
		user.Role,
	), &created); err != nil {
		logger.Error("user repository create failed", err, logger.Fields{
			"username": user.Username,
		})
		return domain.User{}, fmt.Errorf("create user: %w", err)
	}

	logger.Info("user repository create success", logger.Fields{
		"username": created.Username,
	})

	return created, nil
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (domain.User, error) {
	const query = `
SELECT username, password_hash, role, created_at, updated_at
FROM users
WHERE username = $1`

	var user domain.User
	if err := scanUser(r.db.QueryRowContext(ctx, query, username), &user); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			logger.Info("user repository record not found", logger.Fields{
				"username": username,
			})
			return domain.User{}, domain.ErrRecordNotFound
		}
		logger.Error("user repository get by username failed", err, logger.Fields{
			"username": username,
		})
		return domain.User{}, storeError("get user by username", err)
	}

	return user, nil
}

func scanUser(row rowScanner, user *domain.User) error {
	return row.Scan(
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.CreatedAt,
		&user.UpdatedAt,
	)
}
