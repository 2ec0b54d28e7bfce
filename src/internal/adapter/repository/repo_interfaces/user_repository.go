package repo_interfaces

import (
	"context"

	"github.com/api-sage/bank-ledger/src/internal/domain"
)

type UserRepository interface {
	Create(ctx context.Context, user domain.User) (domain.User, error)
	GetByUsername(ctx context.Context, username string) (domain.User, error)
}
