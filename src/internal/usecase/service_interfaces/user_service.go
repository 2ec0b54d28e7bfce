package service_interfaces

import (
	"context"

	"github.com/api-sage/bank-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/bank-ledger/src/internal/commons"
)

type UserService interface {
	CreateUser(ctx context.Context, req models.CreateUserRequest) (commons.Response[models.CreateUserResponse], error)
	GetUser(ctx context.Context, username string) (commons.Response[models.GetUserResponse], error)
	VerifyPassword(ctx context.Context, username string, password string) (commons.Response[models.VerifyPasswordResponse], error)
}
