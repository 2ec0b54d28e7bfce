package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/api-sage/bank-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/bank-ledger/src/internal/adapter/repository/repo_interfaces"
	"github.com/api-sage/bank-ledger/src/internal/commons"
	"github.com/api-sage/bank-ledger/src/internal/domain"
	"github.com/api-sage/bank-ledger/src/internal/logger"
	"github.com/api-sage/bank-ledger/src/internal/usecase/service_interfaces"
)

var _ service_interfaces.UserService = (*UserService)(nil)

type UserService struct {
	userRepo repo_interfaces.UserRepository
}

func NewUserService(userRepo repo_interfaces.UserRepository) *UserService {
	return &UserService{userRepo: userRepo}
}

func (s *UserService) CreateUser(ctx context.Context, req models.CreateUserRequest) (commons.Response[models.CreateUserResponse], error) {
	logger.Info("user service create user request", logger.Fields{
		"payload": logger.SanitizePayload(req),
	})

	if err := req.Validate(); err != nil {
		logger.Error("user service create user validation failed", err, nil)
		return commons.ErrorResponse[models.CreateUserResponse]("validation failed", err.Error()), err
	}

	role := domain.RoleNormal
	if trimmed := strings.ToUpper(strings.TrimSpace(req.Role)); trimmed != "" {
		role = domain.Role(trimmed)
	}

	hashed, err := hashPassword(strings.TrimSpace(req.Password))
	if err != nil {
		logger.Error("user service create user hash password failed", err, nil)
		return commons.ErrorResponse[models.CreateUserResponse]("failed to create user", "failed to hash password"), err
	}

	user := domain.User{
		Username:     strings.TrimSpace(req.Username),
		PasswordHash: hashed,
		Role:         role,
	}

	created, err := s.userRepo.Create(ctx, user)
	if err != nil {
		logger.Error("user service create user repository failed", err, logger.Fields{
			"username": user.Username,
		})
		if isUniqueViolation(err) {
			return commons.ErrorResponse[models.CreateUserResponse]("validation failed", "username already exists"), err
		}
		return commons.ErrorResponse[models.CreateUserResponse]("failed to create user", "Unable to create user right now"), err
	}

	response := models.CreateUserResponse{
		Username:  created.Username,
		Role:      string(created.Role),
		CreatedAt: created.CreatedAt.Format(time.RFC3339),
	}

	logger.Info("user service create user success", logger.Fields{
		"username": response.Username,
		"role":     response.Role,
	})

	return commons.SuccessResponse("user created successfully", response), nil
}

func (s *UserService) GetUser(ctx context.Context, username string) (commons.Response[models.GetUserResponse], error) {
	username = strings.TrimSpace(username)
	if username == "" {
		err := fmt.Errorf("username is required")
		return commons.ErrorResponse[models.GetUserResponse]("validation failed", err.Error()), err
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[models.GetUserResponse]("User not found"), err
		}
		logger.Error("user service get user failed", err, logger.Fields{
			"username": username,
		})
		return commons.ErrorResponse[models.GetUserResponse]("failed to get user", "Unable to fetch user right now"), err
	}

	response := models.GetUserResponse{
		Username:  user.Username,
		Role:      string(user.Role),
		CreatedAt: user.CreatedAt.Format(time.RFC3339),
		UpdatedAt: user.UpdatedAt.Format(time.RFC3339),
	}

	return commons.SuccessResponse("user fetched successfully", response), nil
}

func (s *UserService) VerifyPassword(ctx context.Context, username string, password string) (commons.Response[models.VerifyPasswordResponse], error) {
	username = strings.TrimSpace(username)
	password = strings.TrimSpace(password)

	if username == "" {
		err := fmt.Errorf("username is required")
		return commons.ErrorResponse[models.VerifyPasswordResponse]("validation failed", err.Error()), err
	}
	if password == "" {
		err := fmt.Errorf("password is required")
		return commons.ErrorResponse[models.VerifyPasswordResponse]("validation failed", err.Error()), err
	}

	user, err := s.userRepo.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, domain.ErrRecordNotFound) {
			return commons.ErrorResponse[models.VerifyPasswordResponse]("User not found"), err
		}
		logger.Error("user service verify password lookup failed", err, logger.Fields{
			"username": username,
		})
		return commons.ErrorResponse[models.VerifyPasswordResponse]("failed to verify password", "Unable to verify password right now"), err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			logger.Info("user service verify password mismatch", logger.Fields{
				"username": username,
			})
			return commons.ErrorResponse[models.VerifyPasswordResponse]("invalid password", "provided password does not match"), fmt.Errorf("invalid password")
		}
		wrappedErr := fmt.Errorf("verify password: %w", err)
		logger.Error("user service verify password compare failed", wrappedErr, logger.Fields{
			"username": username,
		})
		return commons.ErrorResponse[models.VerifyPasswordResponse]("failed to verify password", "Unable to verify password right now"), wrappedErr
	}

	response := models.VerifyPasswordResponse{
		Username: username,
		IsValid:  true,
	}

	return commons.SuccessResponse("password verified successfully", response), nil
}

func hashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	return string(hashed), nil
}
