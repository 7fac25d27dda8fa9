package storage

import (
	"context"

	"github.com/google/uuid"
)

type LinkStorage interface {
	Create(ctx context.Context, link *Link) error
	GetByCode(ctx context.Context, code string) (*Link, error)
	GetByAlias(ctx context.Context, alias string) (*Link, error)
	// GetByCodeOrAlias matches code or custom_alias exactly, case-sensitive.
	GetByCodeOrAlias(ctx context.Context, codeOrAlias string) (*Link, error)
	List(ctx context.Context) ([]*Link, error)
	SetDisabled(ctx context.Context, code string, disabled bool) error
	Delete(ctx context.Context, code string) error
	IncrementClickCount(ctx context.Context, id uuid.UUID) error
}

type ClickStorage interface {
	Create(ctx context.Context, click *Click) error
	// ListByLink returns all clicks for a link ordered by timestamp descending.
	ListByLink(ctx context.Context, linkID uuid.UUID) ([]*Click, error)
}
