package storage

import (
	"time"

	"github.com/google/uuid"
)

type Link struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	Code        string     `json:"code" db:"code"`
	CustomAlias *string    `json:"custom_alias,omitempty" db:"custom_alias"`
	LongURL     string     `json:"long_url" db:"long_url"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty" db:"expires_at"`
	Disabled    bool       `json:"disabled" db:"disabled"`
	ClickCount  int64      `json:"click_count" db:"click_count"`
}

type Click struct {
	ID        uuid.UUID `json:"id" db:"id"`
	LinkID    uuid.UUID `json:"link_id" db:"link_id"`
	Timestamp time.Time `json:"timestamp" db:"timestamp"`
	Country   string    `json:"country" db:"country"`
	Referrer  string    `json:"referrer" db:"referrer"`
	UserAgent string    `json:"user_agent" db:"user_agent"`
}
