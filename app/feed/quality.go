package feed

import (
	"context"
	"log/slog"
	"time"

	"github.com/paulstaab/headless-rss/app/content"
	"github.com/paulstaab/headless-rss/app/database"
)

const (
	qualityCheckInterval = 7 * 24 * 60 * 60 // seconds between checks per feed

	// A readability extraction this much longer than the stored content means
	// the feed only publishes teasers and fulltext extraction should be used.
	fulltextRatio = 1.5
)

// maybeCheckQuality periodically samples one article per feed to decide
// whether the feed needs fulltext extraction or generated summaries. Flags
// only ever switch on; a feed that once published teasers is assumed to keep
// doing so. Failures are logged and retried at the next interval.
func (s *Service) maybeCheckQuality(ctx context.Context, f *database.Feed) {
	now := time.Now().Unix()
	if now-f.LastQualityCheck < qualityCheckInterval {
		return
	}

	article, err := s.articles.GetLatestWithURL(f.ID)
	if err != nil {
		slog.Error("Failed to load article for quality check", "feed_url", f.URL, "error", err)
		return
	}

	useExtracted := f.UseExtractedFulltext
	useLLM := f.UseLLMSummary

	if article != nil {
		if !useExtracted {
			extracted, err := s.extractor.Run(ctx, article.URL, true)
			if err != nil {
				slog.Debug("Quality check extraction failed", "url", article.URL, "error", err)
			} else {
				stored := content.PlainText(article.Content)
				if float64(len(extracted)) > fulltextRatio*float64(len(stored)) {
					useExtracted = true
					slog.Info("Enabling fulltext extraction", "feed_url", f.URL)
				}
			}
		}

		if !useLLM && s.llm.Enabled() {
			good, err := s.llm.CheckSummaryQuality(ctx, content.PlainText(article.Content), article.Summary)
			if err != nil {
				slog.Debug("Summary quality check failed", "feed_url", f.URL, "error", err)
			} else if !good {
				useLLM = true
				slog.Info("Enabling generated summaries", "feed_url", f.URL)
			}
		}
	}

	if err := s.feeds.UpdateQuality(f.ID, now, useExtracted, useLLM); err != nil {
		slog.Error("Failed to store quality check result", "feed_url", f.URL, "error", err)
		return
	}

	f.LastQualityCheck = now
	f.UseExtractedFulltext = useExtracted
	f.UseLLMSummary = useLLM
}
