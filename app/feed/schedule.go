package feed

import (
	"fmt"
	"math"
	"math/rand/v2"
	"time"
)

const (
	scheduleWindow = 7 * 24 * time.Hour

	idleInterval   = 24 * 60 * 60 // seconds between refreshes of a quiet feed
	idleJitter     = 30 * 60      // spread idle refreshes so they do not pile up
	maxIdleRate    = 0.1          // articles per day below which a feed counts as quiet
	minRefreshes   = 4            // refreshes per expected article
	longestWait    = 12 * 60 * 60
)

// computeNextUpdateTime derives the next refresh time from how often the feed
// published over the last week. Active feeds are polled a few times per
// expected article, quiet feeds once a day with jitter.
func computeNextUpdateTime(recentArticles int, now time.Time) int64 {
	perDay := float64(recentArticles) / 7.0

	if perDay <= maxIdleRate {
		jitter := rand.Int64N(2*idleJitter+1) - idleJitter
		return now.Unix() + idleInterval + jitter
	}

	interval := int64(math.Round(idleInterval / perDay / minRefreshes))
	if interval > longestWait {
		interval = longestWait
	}
	return now.Unix() + interval
}

func (s *Service) scheduleNext(feedID int64) error {
	now := time.Now()
	recent, err := s.articles.CountRecent(feedID, now.Add(-scheduleWindow).Unix())
	if err != nil {
		return fmt.Errorf("failed to count recent articles: %w", err)
	}
	return s.feeds.UpdateNextUpdateTime(feedID, computeNextUpdateTime(recent, now))
}
