// Command migrate imports a legacy flat-file ledger (accounts.json and
// users.json) into the relational store. Safe to re-run: the import skips
// existing users and accounts and appends only the missing log entries.
package main

import (
	"context"
	"log"
	"time"

	"github.com/api-sage/bank-ledger/src/internal/adapter/repository/implementations"
	"github.com/api-sage/bank-ledger/src/internal/adapter/repository/snapshot"
	"github.com/api-sage/bank-ledger/src/internal/config"
	"github.com/api-sage/bank-ledger/src/internal/usecase/services"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := implementations.RunMigrations(ctx, cfg.DatabaseDSN, cfg.MigrationsDir); err != nil {
		log.Fatalf("run migrations: %v", err)
	}

	db, err := implementations.Open(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("open database: %v", err)
	}
	defer db.Close()

	accountRepo := implementations.NewAccountRepository(db)
	transactionRepo := implementations.NewTransactionRepository(db)
	userRepo := implementations.NewUserRepository(db)
	reconciler := services.NewReconciliationService(transactionRepo)
	importer := services.NewImportService(accountRepo, userRepo, reconciler, snapshot.NewStore(cfg.LegacyDataDir))

	if _, err := importer.Run(ctx); err != nil {
		log.Fatalf("import legacy data: %v", err)
	}
}
