package service

//go:generate mockgen -source=interfaces.go -destination=mocks/mocks.go -package=mocks

import (
	"context"

	"joconde_watcher/internal/domain"
)

type BatchReader interface {
	ReadBatch(path string) (*domain.Batch, error)
}

type NoticeStore interface {
	Insert(ctx context.Context, notice *domain.Notice, audit domain.LoadAudit) error
}

type TransactionManager interface {
	WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error
	WithSavepoint(ctx context.Context, fn func(ctx context.Context) error) error
}

type Archiver interface {
	Archive(path string) (string, error)
}

type Publisher interface {
	Publish(ctx context.Context, outcome *domain.IngestOutcome) error
	Close() error
}
