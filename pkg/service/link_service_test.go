package service

import (
	"context"
	"testing"
	"time"

	"shortlink/pkg/logging"
	"shortlink/pkg/storage"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLinkStorage struct {
	links map[string]*storage.Link // keyed by code
	// uniqueViolations forces the next N Create calls to fail with
	// storage.ErrUniqueViolation regardless of the pre-check.
	uniqueViolations int
	createCalls      int
}

func newMockLinkStorage() *mockLinkStorage {
	return &mockLinkStorage{links: make(map[string]*storage.Link)}
}

func (m *mockLinkStorage) Create(ctx context.Context, link *storage.Link) error {
	m.createCalls++
	if m.uniqueViolations > 0 {
		m.uniqueViolations--
		return storage.ErrUniqueViolation
	}
	if _, exists := m.links[link.Code]; exists {
		return storage.ErrUniqueViolation
	}
	m.links[link.Code] = link
	return nil
}

func (m *mockLinkStorage) GetByCode(ctx context.Context, code string) (*storage.Link, error) {
	if link, exists := m.links[code]; exists {
		return link, nil
	}
	return nil, nil
}

func (m *mockLinkStorage) GetByAlias(ctx context.Context, alias string) (*storage.Link, error) {
	for _, link := range m.links {
		if link.CustomAlias != nil && *link.CustomAlias == alias {
			return link, nil
		}
	}
	return nil, nil
}

func (m *mockLinkStorage) GetByCodeOrAlias(ctx context.Context, codeOrAlias string) (*storage.Link, error) {
	if link, err := m.GetByCode(ctx, codeOrAlias); err != nil || link != nil {
		return link, err
	}
	return m.GetByAlias(ctx, codeOrAlias)
}

func (m *mockLinkStorage) List(ctx context.Context) ([]*storage.Link, error) {
	var links []*storage.Link
	for _, link := range m.links {
		links = append(links, link)
	}
	return links, nil
}

func (m *mockLinkStorage) SetDisabled(ctx context.Context, code string, disabled bool) error {
	link, exists := m.links[code]
	if !exists {
		return pgx.ErrNoRows
	}
	link.Disabled = disabled
	return nil
}

func (m *mockLinkStorage) Delete(ctx context.Context, code string) error {
	if _, exists := m.links[code]; !exists {
		return pgx.ErrNoRows
	}
	delete(m.links, code)
	return nil
}

func (m *mockLinkStorage) IncrementClickCount(ctx context.Context, id uuid.UUID) error {
	for _, link := range m.links {
		if link.ID == id {
			link.ClickCount++
		}
	}
	return nil
}

func newTestLinkService(store storage.LinkStorage) *LinkService {
	return NewLinkService(store, logging.NewLogger(logging.LevelError))
}

func TestCreateLinkInvalidURL(t *testing.T) {
	svc := newTestLinkService(newMockLinkStorage())

	tests := []struct {
		name string
		url  string
	}{
		{"not a url", "not-a-valid-url"},
		{"missing scheme", "example.com/page"},
		{"ftp scheme", "ftp://example.com/file"},
		{"javascript scheme", "javascript:alert(1)"},
		{"empty", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateLink(context.Background(), &CreateLinkRequest{LongURL: tt.url})
			assert.ErrorIs(t, err, ErrInvalidURL)
		})
	}
}

func TestCreateLinkGeneratesCode(t *testing.T) {
	store := newMockLinkStorage()
	svc := newTestLinkService(store)

	link, err := svc.CreateLink(context.Background(), &CreateLinkRequest{LongURL: "https://example.com/a"})
	require.NoError(t, err)

	assert.Len(t, link.Code, DefaultCodeLength)
	for _, c := range link.Code {
		assert.Contains(t, CodeAlphabet(), string(c))
	}
	assert.Nil(t, link.CustomAlias)
	assert.False(t, link.Disabled)
	assert.EqualValues(t, 0, link.ClickCount)
	assert.Nil(t, link.ExpiresAt)

	// Round-trip: the fresh code resolves back to the destination.
	resolved, err := svc.Resolve(context.Background(), link.Code)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a", resolved.LongURL)
}

func TestCreateLinkReservedAlias(t *testing.T) {
	svc := newTestLinkService(newMockLinkStorage())

	for _, alias := range []string{"admin", "Admin", "API", "stats"} {
		a := alias
		_, err := svc.CreateLink(context.Background(), &CreateLinkRequest{
			LongURL:     "https://example.com/a",
			CustomAlias: &a,
		})
		assert.ErrorIs(t, err, ErrAliasReserved, "alias %q", alias)
	}
}

func TestCreateLinkInvalidAliasFormat(t *testing.T) {
	svc := newTestLinkService(newMockLinkStorage())

	alias := "no!"
	_, err := svc.CreateLink(context.Background(), &CreateLinkRequest{
		LongURL:     "https://example.com/a",
		CustomAlias: &alias,
	})
	assert.ErrorIs(t, err, ErrAliasInvalidFormat)
}

func TestCreateLinkAliasTaken(t *testing.T) {
	store := newMockLinkStorage()
	svc := newTestLinkService(store)

	alias := "my-alias"
	first, err := svc.CreateLink(context.Background(), &CreateLinkRequest{
		LongURL:     "https://example.com/a",
		CustomAlias: &alias,
	})
	require.NoError(t, err)
	assert.Equal(t, alias, first.Code)
	require.NotNil(t, first.CustomAlias)
	assert.Equal(t, alias, *first.CustomAlias)

	_, err = svc.CreateLink(context.Background(), &CreateLinkRequest{
		LongURL:     "https://example.com/b",
		CustomAlias: &alias,
	})
	assert.ErrorIs(t, err, ErrAliasTaken)
}

func TestCreateLinkAliasInsertRaceSurfacesTaken(t *testing.T) {
	store := newMockLinkStorage()
	store.uniqueViolations = 1
	svc := newTestLinkService(store)

	alias := "raced"
	_, err := svc.CreateLink(context.Background(), &CreateLinkRequest{
		LongURL:     "https://example.com/a",
		CustomAlias: &alias,
	})
	assert.ErrorIs(t, err, ErrAliasTaken)
}

func TestCreateLinkRetriesOnInsertRace(t *testing.T) {
	store := newMockLinkStorage()
	// Pre-check passes but the insert loses the race twice.
	store.uniqueViolations = 2
	svc := newTestLinkService(store)

	link, err := svc.CreateLink(context.Background(), &CreateLinkRequest{LongURL: "https://example.com/a"})
	require.NoError(t, err)
	assert.Equal(t, 3, store.createCalls)
	// Third attempt (index 2) widens to 7 symbols.
	assert.Len(t, link.Code, 7)
}

func TestCreateLinkGenerationExhausted(t *testing.T) {
	store := newMockLinkStorage()
	store.uniqueViolations = maxGenerateAttempts
	svc := newTestLinkService(store)

	_, err := svc.CreateLink(context.Background(), &CreateLinkRequest{LongURL: "https://example.com/a"})
	assert.ErrorIs(t, err, ErrGenerationExhausted)
	assert.Equal(t, maxGenerateAttempts, store.createCalls)
}

func TestCreateLinkExpiry(t *testing.T) {
	store := newMockLinkStorage()
	svc := newTestLinkService(store)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)
	svc.nowFunc = func() time.Time { return now }

	days := 30
	link, err := svc.CreateLink(context.Background(), &CreateLinkRequest{
		LongURL:    "https://example.com/a",
		ExpiryDays: &days,
	})
	require.NoError(t, err)
	require.NotNil(t, link.ExpiresAt)
	assert.Equal(t, now.AddDate(0, 0, 30), *link.ExpiresAt)
}

func TestCreateLinkNonPositiveExpiryIgnored(t *testing.T) {
	svc := newTestLinkService(newMockLinkStorage())

	for _, days := range []int{0, -1, -30} {
		d := days
		link, err := svc.CreateLink(context.Background(), &CreateLinkRequest{
			LongURL:    "https://example.com/a",
			ExpiryDays: &d,
		})
		require.NoError(t, err)
		assert.Nil(t, link.ExpiresAt, "expiryDays %d", days)
	}
}

func TestResolveNotFound(t *testing.T) {
	svc := newTestLinkService(newMockLinkStorage())

	_, err := svc.Resolve(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestResolveDisabledBeforeExpired(t *testing.T) {
	store := newMockLinkStorage()
	svc := newTestLinkService(store)

	past := time.Now().Add(-time.Hour)
	store.links["dead12"] = &storage.Link{
		ID:        uuid.New(),
		Code:      "dead12",
		LongURL:   "https://example.com/a",
		Disabled:  true,
		ExpiresAt: &past,
	}

	// Disabled takes precedence even when the link is also expired.
	_, err := svc.Resolve(context.Background(), "dead12")
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestResolveExpired(t *testing.T) {
	store := newMockLinkStorage()
	svc := newTestLinkService(store)

	past := time.Now().Add(-time.Hour)
	store.links["old123"] = &storage.Link{
		ID:        uuid.New(),
		Code:      "old123",
		LongURL:   "https://example.com/a",
		ExpiresAt: &past,
	}

	_, err := svc.Resolve(context.Background(), "old123")
	assert.ErrorIs(t, err, ErrExpired)
}

func TestResolveByAlias(t *testing.T) {
	store := newMockLinkStorage()
	svc := newTestLinkService(store)

	alias := "docs"
	store.links["docs"] = &storage.Link{
		ID:          uuid.New(),
		Code:        "docs",
		CustomAlias: &alias,
		LongURL:     "https://example.com/docs",
	}

	link, err := svc.Resolve(context.Background(), "docs")
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/docs", link.LongURL)
}

func TestResolveCaseSensitive(t *testing.T) {
	store := newMockLinkStorage()
	svc := newTestLinkService(store)

	store.links["AbC123"] = &storage.Link{
		ID:      uuid.New(),
		Code:    "AbC123",
		LongURL: "https://example.com/a",
	}

	_, err := svc.Resolve(context.Background(), "abc123")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSetDisabledAndDelete(t *testing.T) {
	store := newMockLinkStorage()
	svc := newTestLinkService(store)

	link, err := svc.CreateLink(context.Background(), &CreateLinkRequest{LongURL: "https://example.com/a"})
	require.NoError(t, err)

	require.NoError(t, svc.SetDisabled(context.Background(), link.Code, true))
	_, err = svc.Resolve(context.Background(), link.Code)
	assert.ErrorIs(t, err, ErrDisabled)

	require.NoError(t, svc.SetDisabled(context.Background(), link.Code, false))
	_, err = svc.Resolve(context.Background(), link.Code)
	assert.NoError(t, err)

	require.NoError(t, svc.DeleteLink(context.Background(), link.Code))
	_, err = svc.Resolve(context.Background(), link.Code)
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, svc.SetDisabled(context.Background(), "missing", true), ErrNotFound)
	assert.ErrorIs(t, svc.DeleteLink(context.Background(), "missing"), ErrNotFound)
}
