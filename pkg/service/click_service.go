package service

import (
	"context"
	"time"

	"shortlink/pkg/cache"
	"shortlink/pkg/geoip"
	"shortlink/pkg/logging"
	"shortlink/pkg/storage"

	"github.com/google/uuid"
)

// recentClickLimit is how many of the newest clicks the stats view returns.
const recentClickLimit = 20

type ClickService struct {
	clicks   storage.ClickStorage
	links    storage.LinkStorage
	geoCache cache.GeoCacheInterface
	geo      geoip.Resolver
	logger   *logging.Logger
	nowFunc  func() time.Time
}

func NewClickService(clicks storage.ClickStorage, links storage.LinkStorage, geoCache cache.GeoCacheInterface, geo geoip.Resolver, logger *logging.Logger) *ClickService {
	return &ClickService{
		clicks:   clicks,
		links:    links,
		geoCache: geoCache,
		geo:      geo,
		logger:   logger,
		nowFunc:  time.Now,
	}
}

// RecordClick appends a click event and bumps the owning link's counter.
// Geo enrichment is best-effort: lookup failures degrade to "Unknown" and
// never fail the recording path.
func (s *ClickService) RecordClick(ctx context.Context, linkID uuid.UUID, ip, referrer, userAgent string) (*storage.Click, error) {
	country := s.lookupCountry(ctx, ip)

	if referrer == "" {
		referrer = "direct"
	}

	click := &storage.Click{
		ID:        uuid.New(),
		LinkID:    linkID,
		Timestamp: s.nowFunc(),
		Country:   country,
		Referrer:  referrer,
		UserAgent: userAgent,
	}
	if err := s.clicks.Create(ctx, click); err != nil {
		s.logger.LogStorageFailure(ctx, "create_click", linkID.String(), err)
		return nil, ErrStorageFailure
	}

	// The counter is a denormalized convenience; the store applies the
	// increment atomically and the click log stays the source of truth.
	if err := s.links.IncrementClickCount(ctx, linkID); err != nil {
		s.logger.LogStorageFailure(ctx, "increment_click_count", linkID.String(), err)
	}

	return click, nil
}

// lookupCountry consults the geo cache first, then the external resolver.
// Cached entries never expire. Nothing here propagates an error.
func (s *ClickService) lookupCountry(ctx context.Context, ip string) string {
	if ip == "" {
		return "Unknown"
	}

	entry, err := s.geoCache.Get(ctx, ip)
	if err == nil && entry != nil {
		s.logger.LogGeoLookup(ctx, true, entry.Country)
		return entry.Country
	}
	if err != nil {
		s.logger.Warn(ctx, "geo cache read failed", "error", err.Error())
	}

	country, err := s.geo.Lookup(ctx, ip)
	if err != nil {
		s.logger.Warn(ctx, "geo lookup failed", "error", err.Error())
		return "Unknown"
	}

	if err := s.geoCache.Upsert(ctx, ip, country); err != nil {
		s.logger.Warn(ctx, "geo cache write failed", "error", err.Error())
	}
	s.logger.LogGeoLookup(ctx, false, country)
	return country
}

type LinkStats struct {
	TotalClicks    int              `json:"totalClicks"`
	CountryCounts  map[string]int   `json:"countryCounts"`
	ReferrerCounts map[string]int   `json:"referrerCounts"`
	RecentClicks   []*storage.Click `json:"recentClicks"`
}

// Stats reduces a link's click history: total count, country and referrer
// frequencies, and the 20 most recent clicks. Read-only and idempotent.
func (s *ClickService) Stats(ctx context.Context, linkID uuid.UUID) (*LinkStats, error) {
	clicks, err := s.clicks.ListByLink(ctx, linkID)
	if err != nil {
		s.logger.LogStorageFailure(ctx, "list_clicks", linkID.String(), err)
		return nil, ErrStorageFailure
	}

	stats := &LinkStats{
		TotalClicks:    len(clicks),
		CountryCounts:  make(map[string]int),
		ReferrerCounts: make(map[string]int),
	}

	for _, click := range clicks {
		if click.Country != "" {
			stats.CountryCounts[click.Country]++
		}
		if click.Referrer != "" {
			ref := click.Referrer
			if ref == "direct" {
				ref = "Direct"
			}
			stats.ReferrerCounts[ref]++
		}
	}

	if len(clicks) > recentClickLimit {
		clicks = clicks[:recentClickLimit]
	}
	stats.RecentClicks = clicks
	if stats.RecentClicks == nil {
		stats.RecentClicks = []*storage.Click{}
	}

	return stats, nil
}
