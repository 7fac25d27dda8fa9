package service

import (
	"context"
	"errors"
	"net/url"
	"time"

	"shortlink/pkg/logging"
	"shortlink/pkg/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// maxGenerateAttempts bounds the collision-retry loop for generated codes.
const maxGenerateAttempts = 5

type LinkService struct {
	links   storage.LinkStorage
	logger  *logging.Logger
	nowFunc func() time.Time
}

func NewLinkService(links storage.LinkStorage, logger *logging.Logger) *LinkService {
	return &LinkService{
		links:   links,
		logger:  logger,
		nowFunc: time.Now,
	}
}

type CreateLinkRequest struct {
	LongURL     string  `json:"longUrl"`
	CustomAlias *string `json:"customAlias,omitempty"`
	ExpiryDays  *int    `json:"expiryDays,omitempty"`
}

// CreateLink issues a new short link. A custom alias, when given, becomes
// the link's code after validation and a uniqueness check. Otherwise codes
// are generated, starting at 6 symbols and widening by one every two retry
// attempts. The store's unique constraints are the final arbiter: losing a
// check-then-insert race counts as a detected collision.
func (s *LinkService) CreateLink(ctx context.Context, req *CreateLinkRequest) (*storage.Link, error) {
	if err := validateLongURL(req.LongURL); err != nil {
		return nil, err
	}

	now := s.nowFunc()
	var expiresAt *time.Time
	if req.ExpiryDays != nil && *req.ExpiryDays > 0 {
		t := now.AddDate(0, 0, *req.ExpiryDays)
		expiresAt = &t
	}

	if req.CustomAlias != nil && *req.CustomAlias != "" {
		return s.createWithAlias(ctx, req.LongURL, *req.CustomAlias, now, expiresAt)
	}
	return s.createGenerated(ctx, req.LongURL, now, expiresAt)
}

func (s *LinkService) createWithAlias(ctx context.Context, longURL, alias string, now time.Time, expiresAt *time.Time) (*storage.Link, error) {
	if err := ValidateAlias(alias); err != nil {
		return nil, err
	}

	existing, err := s.links.GetByCodeOrAlias(ctx, alias)
	if err != nil {
		s.logger.LogStorageFailure(ctx, "get_by_alias", alias, err)
		return nil, ErrStorageFailure
	}
	if existing != nil {
		return nil, ErrAliasTaken
	}

	link := &storage.Link{
		ID:          uuid.New(),
		Code:        alias,
		CustomAlias: &alias,
		LongURL:     longURL,
		CreatedAt:   now,
		ExpiresAt:   expiresAt,
	}
	if err := s.links.Create(ctx, link); err != nil {
		if errors.Is(err, storage.ErrUniqueViolation) {
			// Lost the race to a concurrent request with the same alias.
			return nil, ErrAliasTaken
		}
		s.logger.LogStorageFailure(ctx, "create_link", alias, err)
		return nil, ErrStorageFailure
	}

	s.logger.LogLinkOperation(ctx, "create", alias, true)
	return link, nil
}

func (s *LinkService) createGenerated(ctx context.Context, longURL string, now time.Time, expiresAt *time.Time) (*storage.Link, error) {
	for attempt := 0; attempt < maxGenerateAttempts; attempt++ {
		// Widen by one symbol every two attempts to cut collision odds.
		code, err := GenerateCode(DefaultCodeLength + attempt/2)
		if err != nil {
			return nil, err
		}

		existing, err := s.links.GetByCode(ctx, code)
		if err != nil {
			s.logger.LogStorageFailure(ctx, "get_by_code", code, err)
			return nil, ErrStorageFailure
		}
		if existing != nil {
			continue
		}

		link := &storage.Link{
			ID:        uuid.New(),
			Code:      code,
			LongURL:   longURL,
			CreatedAt: now,
			ExpiresAt: expiresAt,
		}
		err = s.links.Create(ctx, link)
		if errors.Is(err, storage.ErrUniqueViolation) {
			// The pre-check raced another insert; regenerate.
			continue
		}
		if err != nil {
			s.logger.LogStorageFailure(ctx, "create_link", code, err)
			return nil, ErrStorageFailure
		}

		s.logger.LogLinkOperation(ctx, "create", code, true)
		return link, nil
	}
	return nil, ErrGenerationExhausted
}

// Resolve maps a code or alias to its link, applying the disabled and
// expiry checks in that order. Disabling is an explicit administrative
// override, so a disabled and expired link reports disabled.
func (s *LinkService) Resolve(ctx context.Context, codeOrAlias string) (*storage.Link, error) {
	link, err := s.links.GetByCodeOrAlias(ctx, codeOrAlias)
	if err != nil {
		s.logger.LogStorageFailure(ctx, "resolve", codeOrAlias, err)
		return nil, ErrStorageFailure
	}
	if link == nil {
		return nil, ErrNotFound
	}
	if link.Disabled {
		return nil, ErrDisabled
	}
	if link.ExpiresAt != nil && link.ExpiresAt.Before(s.nowFunc()) {
		return nil, ErrExpired
	}
	return link, nil
}

// GetLink returns a link's metadata without disabled/expiry gating. The
// stats view reports on expired links too.
func (s *LinkService) GetLink(ctx context.Context, codeOrAlias string) (*storage.Link, error) {
	link, err := s.links.GetByCodeOrAlias(ctx, codeOrAlias)
	if err != nil {
		s.logger.LogStorageFailure(ctx, "get_link", codeOrAlias, err)
		return nil, ErrStorageFailure
	}
	if link == nil {
		return nil, ErrNotFound
	}
	return link, nil
}

// ListLinks returns all links newest-first for the admin view.
func (s *LinkService) ListLinks(ctx context.Context) ([]*storage.Link, error) {
	links, err := s.links.List(ctx)
	if err != nil {
		s.logger.LogStorageFailure(ctx, "list_links", "", err)
		return nil, ErrStorageFailure
	}
	return links, nil
}

// SetDisabled toggles the administrative kill switch on a link.
func (s *LinkService) SetDisabled(ctx context.Context, code string, disabled bool) error {
	err := s.links.SetDisabled(ctx, code, disabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		s.logger.LogStorageFailure(ctx, "set_disabled", code, err)
		return ErrStorageFailure
	}
	s.logger.LogLinkOperation(ctx, "set_disabled", code, true)
	return nil
}

// DeleteLink removes a link; the store cascades the delete to its clicks.
func (s *LinkService) DeleteLink(ctx context.Context, code string) error {
	err := s.links.Delete(ctx, code)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		s.logger.LogStorageFailure(ctx, "delete_link", code, err)
		return ErrStorageFailure
	}
	s.logger.LogLinkOperation(ctx, "delete", code, true)
	return nil
}

func validateLongURL(raw string) error {
	parsed, err := url.ParseRequestURI(raw)
	if err != nil {
		return ErrInvalidURL
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return ErrInvalidURL
	}
	if parsed.Host == "" {
		return ErrInvalidURL
	}
	return nil
}
