package database

import (
	"github.com/robalyx/slashcore/internal/database/models"
	"github.com/uptrace/bun"
	"go.uber.org/zap"
)

// Repository provides access to all database models.
type Repository struct {
	invocation *models.InvocationModel
	syncRun    *models.SyncRunModel
}

// NewRepository creates a new repository instance with all models.
func NewRepository(db *bun.DB, logger *zap.Logger) *Repository {
	return &Repository{
		invocation: models.NewInvocation(db, logger),
		syncRun:    models.NewSyncRun(db, logger),
	}
}

// Invocation returns the model for the interaction audit log.
func (r *Repository) Invocation() *models.InvocationModel {
	return r.invocation
}

// SyncRun returns the model for registration pass records.
func (r *Repository) SyncRun() *models.SyncRunModel {
	return r.syncRun
}
