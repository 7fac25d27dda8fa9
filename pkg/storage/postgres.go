package storage

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrUniqueViolation is returned by Create when the code or alias already
// exists. The unique constraints are the final arbiter for issuance races.
var ErrUniqueViolation = errors.New("unique constraint violation")

const uniqueViolationCode = "23505"

type PostgresLinkStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresLinkStorage(pool *pgxpool.Pool) *PostgresLinkStorage {
	return &PostgresLinkStorage{pool: pool}
}

func (s *PostgresLinkStorage) Create(ctx context.Context, link *Link) error {
	query := `INSERT INTO links (id, code, custom_alias, long_url, created_at, expires_at, disabled, click_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := s.pool.Exec(ctx, query, link.ID, link.Code, link.CustomAlias, link.LongURL, link.CreatedAt, link.ExpiresAt, link.Disabled, link.ClickCount)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode {
			return ErrUniqueViolation
		}
		return err
	}
	return nil
}

func (s *PostgresLinkStorage) scanLink(row pgx.Row) (*Link, error) {
	var link Link
	err := row.Scan(&link.ID, &link.Code, &link.CustomAlias, &link.LongURL, &link.CreatedAt, &link.ExpiresAt, &link.Disabled, &link.ClickCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &link, nil
}

const linkColumns = `id, code, custom_alias, long_url, created_at, expires_at, disabled, click_count`

func (s *PostgresLinkStorage) GetByCode(ctx context.Context, code string) (*Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE code = $1`
	return s.scanLink(s.pool.QueryRow(ctx, query, code))
}

func (s *PostgresLinkStorage) GetByAlias(ctx context.Context, alias string) (*Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE custom_alias = $1`
	return s.scanLink(s.pool.QueryRow(ctx, query, alias))
}

func (s *PostgresLinkStorage) GetByCodeOrAlias(ctx context.Context, codeOrAlias string) (*Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links WHERE code = $1 OR custom_alias = $1`
	return s.scanLink(s.pool.QueryRow(ctx, query, codeOrAlias))
}

func (s *PostgresLinkStorage) List(ctx context.Context) ([]*Link, error) {
	query := `SELECT ` + linkColumns + ` FROM links ORDER BY created_at DESC`
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var links []*Link
	for rows.Next() {
		var link Link
		if err := rows.Scan(&link.ID, &link.Code, &link.CustomAlias, &link.LongURL, &link.CreatedAt, &link.ExpiresAt, &link.Disabled, &link.ClickCount); err != nil {
			return nil, err
		}
		links = append(links, &link)
	}
	return links, rows.Err()
}

func (s *PostgresLinkStorage) SetDisabled(ctx context.Context, code string, disabled bool) error {
	query := `UPDATE links SET disabled = $2 WHERE code = $1`
	tag, err := s.pool.Exec(ctx, query, code, disabled)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *PostgresLinkStorage) Delete(ctx context.Context, code string) error {
	// clicks go with the link via ON DELETE CASCADE
	query := `DELETE FROM links WHERE code = $1`
	tag, err := s.pool.Exec(ctx, query, code)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (s *PostgresLinkStorage) IncrementClickCount(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE links SET click_count = click_count + 1 WHERE id = $1`
	_, err := s.pool.Exec(ctx, query, id)
	return err
}

type PostgresClickStorage struct {
	pool *pgxpool.Pool
}

func NewPostgresClickStorage(pool *pgxpool.Pool) *PostgresClickStorage {
	return &PostgresClickStorage{pool: pool}
}

func (s *PostgresClickStorage) Create(ctx context.Context, click *Click) error {
	query := `INSERT INTO clicks (id, link_id, timestamp, country, referrer, user_agent)
		VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := s.pool.Exec(ctx, query, click.ID, click.LinkID, click.Timestamp, click.Country, click.Referrer, click.UserAgent)
	return err
}

func (s *PostgresClickStorage) ListByLink(ctx context.Context, linkID uuid.UUID) ([]*Click, error) {
	query := `SELECT id, link_id, timestamp, country, referrer, user_agent
		FROM clicks WHERE link_id = $1 ORDER BY timestamp DESC`
	rows, err := s.pool.Query(ctx, query, linkID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var clicks []*Click
	for rows.Next() {
		var click Click
		if err := rows.Scan(&click.ID, &click.LinkID, &click.Timestamp, &click.Country, &click.Referrer, &click.UserAgent); err != nil {
			return nil, err
		}
		clicks = append(clicks, &click)
	}
	return clicks, rows.Err()
}
