package feed

import (
	"context"
	"fmt"
	"log/slog"
	"time"
	"unicode/utf8"

	"github.com/paulstaab/headless-rss/app/content"
	"github.com/paulstaab/headless-rss/app/database"
)

const (
	// New subscriptions only import the latest entries so an old feed does
	// not flood the reader; refreshes accept more because dedup drops what
	// is already stored.
	addArticleLimit     = 10
	refreshArticleLimit = 50

	retentionPeriod = 90 * 24 * time.Hour
)

type Service struct {
	feeds     database.FeedRepository
	articles  database.ArticleRepository
	folders   database.FolderRepository
	parser    *Parser
	extractor *content.Extractor
	llm       *content.LLMClient
}

func NewService(feeds database.FeedRepository, articles database.ArticleRepository, folders database.FolderRepository,
	parser *Parser, extractor *content.Extractor, llm *content.LLMClient) *Service {
	return &Service{
		feeds:     feeds,
		articles:  articles,
		folders:   folders,
		parser:    parser,
		extractor: extractor,
		llm:       llm,
	}
}

// Add subscribes to a new feed. The feed is fetched and parsed before
// anything is written, so a dead URL never leaves a half-created feed behind.
func (s *Service) Add(ctx context.Context, feedURL string, folderID int64) (*database.Feed, error) {
	existing, err := s.feeds.GetByURL(feedURL)
	if err != nil {
		return nil, fmt.Errorf("failed to look up feed: %w", err)
	}
	if existing != nil {
		return nil, ErrFeedExists
	}

	parsed, err := s.parser.Run(ctx, feedURL)
	if err != nil {
		return nil, err
	}

	if folderID == 0 {
		folderID, err = s.folders.GetOrCreateRootID()
		if err != nil {
			return nil, fmt.Errorf("failed to resolve root folder: %w", err)
		}
	} else {
		folder, err := s.folders.GetByID(folderID)
		if err != nil {
			return nil, fmt.Errorf("failed to look up folder: %w", err)
		}
		if folder == nil {
			return nil, ErrFolderNotFound
		}
	}

	newFeed := &database.Feed{
		URL:         feedURL,
		Title:       parsed.Title,
		Link:        parsed.Link,
		FaviconLink: parsed.FaviconLink,
		FolderID:    folderID,
		Added:       time.Now().Unix(),
	}

	if err := s.feeds.Create(newFeed); err != nil {
		return nil, fmt.Errorf("failed to create feed: %w", err)
	}

	inserted, err := s.storeArticles(ctx, newFeed, parsed.Articles, addArticleLimit)
	if err != nil {
		return nil, err
	}

	if err := s.scheduleNext(newFeed.ID); err != nil {
		return nil, err
	}

	slog.Info("Feed added", "url", feedURL, "title", newFeed.Title, "articles", inserted)
	return newFeed, nil
}

// Update refreshes one feed: fetch, store new entries, prune stale ones and
// schedule the next refresh. On fetch or parse failure the error counter is
// incremented and the previous schedule stays in place, so a broken feed is
// retried at its old cadence instead of hammering the source.
func (s *Service) Update(ctx context.Context, f *database.Feed) error {
	parsed, err := s.parser.Run(ctx, f.URL)
	if err != nil {
		if stateErr := s.feeds.UpdateErrorState(f.ID, f.UpdateErrorCount+1, err.Error()); stateErr != nil {
			slog.Error("Failed to record feed error", "url", f.URL, "error", stateErr)
		}
		return err
	}

	if f.UpdateErrorCount > 0 || f.LastUpdateError != "" {
		if err := s.feeds.UpdateErrorState(f.ID, 0, ""); err != nil {
			return fmt.Errorf("failed to reset feed error state: %w", err)
		}
	}

	if parsed.Title != "" && parsed.Title != f.Title {
		if err := s.feeds.UpdateTitle(f.ID, parsed.Title); err != nil {
			return fmt.Errorf("failed to update feed title: %w", err)
		}
		f.Title = parsed.Title
	}

	inserted, err := s.storeArticles(ctx, f, parsed.Articles, refreshArticleLimit)
	if err != nil {
		return err
	}

	observed := make([]string, 0, len(parsed.Articles))
	for _, article := range parsed.Articles {
		observed = append(observed, article.GUIDHash)
	}

	cutoff := time.Now().Add(-retentionPeriod).Unix()
	pruned, err := s.articles.DeleteStale(f.ID, observed, cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune stale articles: %w", err)
	}

	if err := s.scheduleNext(f.ID); err != nil {
		return err
	}

	s.maybeCheckQuality(ctx, f)

	slog.Info("Feed refreshed", "url", f.URL, "new_articles", inserted, "pruned", pruned)
	return nil
}

// Due returns the non-mailing-list feeds whose next refresh time has passed.
func (s *Service) Due(now time.Time) ([]database.Feed, error) {
	return s.feeds.GetDue(now.Unix())
}

func (s *Service) Get(id int64) (*database.Feed, error) {
	f, err := s.feeds.GetByID(id)
	if err != nil {
		return nil, fmt.Errorf("failed to look up feed: %w", err)
	}
	if f == nil {
		return nil, ErrFeedNotFound
	}
	return f, nil
}

func (s *Service) GetAll() ([]database.Feed, error) {
	return s.feeds.GetAll()
}

func (s *Service) Delete(id int64) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.feeds.Delete(id)
}

func (s *Service) Move(id int64, folderID int64) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	folder, err := s.folders.GetByID(folderID)
	if err != nil {
		return fmt.Errorf("failed to look up folder: %w", err)
	}
	if folder == nil {
		return ErrFolderNotFound
	}
	return s.feeds.UpdateFolder(id, folderID)
}

func (s *Service) Rename(id int64, title string) error {
	if _, err := s.Get(id); err != nil {
		return err
	}
	return s.feeds.UpdateTitle(id, title)
}

func (s *Service) storeArticles(ctx context.Context, f *database.Feed, articles []database.Article, limit int) (int, error) {
	if len(articles) > limit {
		articles = articles[:limit]
	}

	inserted := 0
	for i := range articles {
		article := articles[i]

		exists, err := s.articles.ExistsByGUIDHash(f.ID, article.GUIDHash)
		if err != nil {
			return inserted, fmt.Errorf("failed to check for duplicate article: %w", err)
		}
		if exists {
			continue
		}

		article.FeedID = f.ID
		s.enrich(ctx, f, &article)

		if err := s.articles.Insert(&article); err != nil {
			slog.Error("Failed to store article", "feed_url", f.URL, "guid", article.GUID, "error", err)
			continue
		}
		inserted++
	}

	return inserted, nil
}

func (s *Service) enrich(ctx context.Context, f *database.Feed, article *database.Article) {
	if f.UseExtractedFulltext && article.URL != "" {
		extracted, err := s.extractor.Run(ctx, article.URL, false)
		if err != nil {
			slog.Debug("Fulltext extraction failed", "url", article.URL, "error", err)
		} else if extracted != "" {
			article.Content = extracted
			article.ContentHash = content.ContentHash(extracted)
		}
	}

	article.Summary = s.summarize(ctx, f, article.Content)
}

func (s *Service) summarize(ctx context.Context, f *database.Feed, body string) string {
	text := content.PlainText(body)
	if utf8.RuneCountInString(text) < content.ShortSummaryLength {
		return text
	}

	if f.UseLLMSummary && s.llm.Enabled() {
		summary, err := s.llm.SummarizeArticle(ctx, text)
		if err != nil {
			slog.Warn("Summary generation failed", "feed_url", f.URL, "error", err)
		} else {
			return summary
		}
	}

	return content.FallbackSummary(body)
}
