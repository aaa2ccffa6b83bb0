package store

import (
	"context"

	"sqlchat/internal/store/model"
)

// Store is the entry point for local persistence.
type Store interface {
	History() HistoryRepository
	Close() error
}

// HistoryRepository keeps the question/statement audit trail.
type HistoryRepository interface {
	Insert(ctx context.Context, rec *model.QueryLogModel) error
	ListRecent(ctx context.Context, limit int) ([]model.QueryLogModel, error)
	ListBySession(ctx context.Context, sessionID string, limit int) ([]model.QueryLogModel, error)
}
