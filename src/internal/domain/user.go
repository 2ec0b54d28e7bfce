package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Role string

const (
	RoleNormal Role = "NORMAL"
	RoleVIP    Role = "VIP"
	RoleAdmin  Role = "ADMIN"
)

type User struct {
	Username     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RolePolicy captures the numeric limits and capability flags attached to a
// role. Policies are static: resolving one never touches storage.
type RolePolicy struct {
	MaxSingleTransaction   decimal.Decimal
	CanOperateAnyAccount   bool
	CanViewAllTransactions bool
}

func (r Role) Valid() bool {
	switch r {
	case RoleNormal, RoleVIP, RoleAdmin:
		return true
	default:
		return false
	}
}

func (r Role) Policy() RolePolicy {
	switch r {
	case RoleVIP:
		return RolePolicy{
			MaxSingleTransaction: decimal.NewFromInt(50000),
		}
	case RoleAdmin:
		return RolePolicy{
			MaxSingleTransaction:   decimal.NewFromInt(1000000),
			CanOperateAnyAccount:   true,
			CanViewAllTransactions: true,
		}
	default:
		return RolePolicy{
			MaxSingleTransaction: decimal.NewFromInt(10000),
		}
	}
}

func (p RolePolicy) CheckAmount(amount decimal.Decimal) error {
	if amount.GreaterThan(p.MaxSingleTransaction) {
		return fmt.Errorf("%w: amount %s exceeds limit %s", ErrLimitExceeded, amount.StringFixed(2), p.MaxSingleTransaction.StringFixed(2))
	}
	return nil
}
