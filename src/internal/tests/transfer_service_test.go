package services_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/api-sage/bank-ledger/src/internal/adapter/http/models"
	"github.com/api-sage/bank-ledger/src/internal/domain"
)

func TestTransferServiceValidationError(t *testing.T) {
	f := newFixture()

	_, err := f.transfers.Transfer(context.Background(), models.TransferRequest{
		FromCardNumber: "6200000000000001",
		ToCardNumber:   "6200000000000001",
		Amount:         "10",
	})
	if err == nil {
		t.Fatal("expected validation error for same-card transfer")
	}
}

func TestTransferServiceMovesFundsAndRecordsBothSides(t *testing.T) {
	f := newFixture()
	f.seedUser("alice", domain.RoleNormal)
	f.seedUser("bob", domain.RoleNormal)
	fromCard := f.mustOpenAccount(t, "alice", "100")
	toCard := f.mustOpenAccount(t, "bob", "20")
	ctx := context.Background()

	resp, err := f.transfers.Transfer(ctx, models.TransferRequest{
		FromCardNumber: fromCard,
		ToCardNumber:   toCard,
		Amount:         "30",
		Description:    "rent",
	})
	if err != nil {
		t.Fatalf("transfer: %v", err)
	}
	if resp.Data.FromBalance != "70.00" || resp.Data.ToBalance != "50.00" {
		t.Fatalf("unexpected balances after transfer: %+v", resp.Data)
	}
	if resp.Data.Reference == "" {
		t.Fatal("expected transfer reference to be set")
	}

	fromHistory, err := f.accounts.GetTransactionHistory(ctx, fromCard)
	if err != nil {
		t.Fatalf("get debit history: %v", err)
	}
	debitEntry := (*fromHistory.Data)[1]
	if debitEntry.Type != string(domain.TransactionTypeWithdrawal) {
		t.Fatalf("expected withdrawal on debit side, got %s", debitEntry.Type)
	}
	if want := "transfer to " + toCard + ": rent"; debitEntry.Description != want {
		t.Fatalf("expected description %q, got %q", want, debitEntry.Description)
	}

	toHistory, err := f.accounts.GetTransactionHistory(ctx, toCard)
	if err != nil {
		t.Fatalf("get credit history: %v", err)
	}
	creditEntry := (*toHistory.Data)[1]
	if creditEntry.Type != string(domain.TransactionTypeDeposit) {
		t.Fatalf("expected deposit on credit side, got %s", creditEntry.Type)
	}
	if !strings.HasPrefix(creditEntry.Description, "transfer from "+fromCard) {
		t.Fatalf("unexpected credit description %q", creditEntry.Description)
	}
}

func TestTransferServiceInsufficientBalance(t *testing.T) {
	f := newFixture()
	f.seedUser("alice", domain.RoleNormal)
	f.seedUser("bob", domain.RoleNormal)
	fromCard := f.mustOpenAccount(t, "alice", "10")
	toCard := f.mustOpenAccount(t, "bob", "")

	_, err := f.transfers.Transfer(context.Background(), models.TransferRequest{
		FromCardNumber: fromCard,
		ToCardNumber:   toCard,
		Amount:         "10.01",
	})
	if !errors.Is(err, domain.ErrInsufficientBalance) {
		t.Fatalf("expected insufficient balance, got %v", err)
	}

	assertBalance(t, f, fromCard, "10.00")
	assertBalance(t, f, toCard, "0.00")
}

func TestTransferServiceFrozenDebitAccount(t *testing.T) {
	f := newFixture()
	f.seedUser("alice", domain.RoleNormal)
	f.seedUser("bob", domain.RoleNormal)
	fromCard := f.mustOpenAccount(t, "alice", "100")
	toCard := f.mustOpenAccount(t, "bob", "")
	ctx := context.Background()

	if _, err := f.accounts.Freeze(ctx, models.StatusOpRequest{CardNumber: fromCard}); err != nil {
		t.Fatalf("freeze: %v", err)
	}

	_, err := f.transfers.Transfer(ctx, models.TransferRequest{
		FromCardNumber: fromCard,
		ToCardNumber:   toCard,
		Amount:         "10",
	})
	if !errors.Is(err, domain.ErrStateConflict) {
		t.Fatalf("expected state conflict for frozen debit account, got %v", err)
	}
	assertBalance(t, f, toCard, "0.00")
}

func TestTransferServiceSenderLimitApplies(t *testing.T) {
	f := newFixture()
	f.seedUser("alice", domain.RoleNormal)
	f.seedUser("bob", domain.RoleVIP)
	fromCard := f.mustOpenAccount(t, "alice", "20000")
	toCard := f.mustOpenAccount(t, "bob", "")

	// The debit side's role caps the transfer, regardless of the credit
	// side's role.
	_, err := f.transfers.Transfer(context.Background(), models.TransferRequest{
		FromCardNumber: fromCard,
		ToCardNumber:   toCard,
		Amount:         "15000",
	})
	if !errors.Is(err, domain.ErrLimitExceeded) {
		t.Fatalf("expected limit exceeded, got %v", err)
	}
}

func TestTransferServicePostingFailureLeavesBothSidesUnchanged(t *testing.T) {
	f := newFixture()
	f.seedUser("alice", domain.RoleNormal)
	f.seedUser("bob", domain.RoleNormal)
	fromCard := f.mustOpenAccount(t, "alice", "100")
	toCard := f.mustOpenAccount(t, "bob", "20")

	f.store.savePairErr = errors.New("connection reset")

	_, err := f.transfers.Transfer(context.Background(), models.TransferRequest{
		FromCardNumber: fromCard,
		ToCardNumber:   toCard,
		Amount:         "30",
	})
	if err == nil {
		t.Fatal("expected transfer to fail when posting fails")
	}

	f.store.savePairErr = nil

	assertBalance(t, f, fromCard, "100.00")
	assertBalance(t, f, toCard, "20.00")
	if got := f.store.entryCount(fromCard); got != 1 {
		t.Fatalf("expected no debit entries from failed transfer, got %d", got)
	}
	if got := f.store.entryCount(toCard); got != 1 {
		t.Fatalf("expected no credit entries from failed transfer, got %d", got)
	}
}

func TestTransferServiceOppositeDirectionsDoNotDeadlock(t *testing.T) {
	f := newFixture()
	f.seedUser("alice", domain.RoleNormal)
	f.seedUser("bob", domain.RoleNormal)
	cardA := f.mustOpenAccount(t, "alice", "100")
	cardB := f.mustOpenAccount(t, "bob", "100")

	const rounds = 20
	var wg sync.WaitGroup
	wg.Add(2)

	transfer := func(from, to string) {
		defer wg.Done()
		for i := 0; i < rounds; i++ {
			if _, err := f.transfers.Transfer(context.Background(), models.TransferRequest{
				FromCardNumber: from,
				ToCardNumber:   to,
				Amount:         "1",
			}); err != nil {
				t.Errorf("transfer %s -> %s: %v", from, to, err)
				return
			}
		}
	}

	go transfer(cardA, cardB)
	go transfer(cardB, cardA)
	wg.Wait()

	// Equal flow in both directions nets to zero.
	assertBalance(t, f, cardA, "100.00")
	assertBalance(t, f, cardB, "100.00")
}

func assertBalance(t *testing.T, f *fixture, cardNumber string, want string) {
	t.Helper()

	resp, err := f.accounts.GetAccount(context.Background(), cardNumber)
	if err != nil {
		t.Fatalf("get account %s: %v", cardNumber, err)
	}
	if got := resp.Data.Balance; got != want {
		t.Fatalf("expected balance %s for %s, got %s", want, cardNumber, got)
	}
}
