package repository

import (
	"github.com/reelkit/reelkit/internal/domain/billingevent"
	"github.com/reelkit/reelkit/internal/domain/ledger"
	"github.com/reelkit/reelkit/internal/logger"
	"github.com/reelkit/reelkit/internal/postgres"
	postgresRepo "github.com/reelkit/reelkit/internal/repository/postgres"
)

func NewLedgerRepository(db *postgres.DB, logger *logger.Logger) ledger.Repository {
	return postgresRepo.NewLedgerRepository(db, logger)
}

func NewBillingEventRepository(db *postgres.DB, logger *logger.Logger) billingevent.Repository {
	return postgresRepo.NewBillingEventRepository(db, logger)
}
