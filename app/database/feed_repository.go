package database

import (
	"database/sql"
	"fmt"
)

var _ FeedRepository = (*feedRepository)(nil)

type feedRepository struct {
	db *DB
}

func NewFeedRepository(db *DB) FeedRepository {
	return &feedRepository{db: db}
}

const feedColumns = `id, url, COALESCE(title, ''), COALESCE(favicon_link, ''), COALESCE(link, ''),
	       folder_id, added, next_update_time, ordering, pinned,
	       update_error_count, COALESCE(last_update_error, ''), is_mailing_list,
	       COALESCE(last_quality_check, 0), use_extracted_fulltext, use_llm_summary`

func (r *feedRepository) scanFeed(row interface{ Scan(...any) error }) (*Feed, error) {
	var feed Feed
	err := row.Scan(
		&feed.ID, &feed.URL, &feed.Title, &feed.FaviconLink, &feed.Link,
		&feed.FolderID, &feed.Added, &feed.NextUpdateTime, &feed.Ordering, &feed.Pinned,
		&feed.UpdateErrorCount, &feed.LastUpdateError, &feed.IsMailingList,
		&feed.LastQualityCheck, &feed.UseExtractedFulltext, &feed.UseLLMSummary,
	)
	if err != nil {
		return nil, err
	}
	return &feed, nil
}

func (r *feedRepository) Create(feed *Feed) error {
	result, err := r.db.Exec(`
		INSERT INTO feeds (url, title, favicon_link, link, folder_id, added,
		                   next_update_time, ordering, pinned, is_mailing_list)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, feed.URL, feed.Title, feed.FaviconLink, feed.Link, feed.FolderID, feed.Added,
		feed.NextUpdateTime, feed.Ordering, feed.Pinned, feed.IsMailingList)
	if err != nil {
		return fmt.Errorf("failed to create feed: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get feed id: %w", err)
	}
	feed.ID = id

	return nil
}

func (r *feedRepository) GetByID(id int64) (*Feed, error) {
	feed, err := r.scanFeed(r.db.QueryRow(`SELECT `+feedColumns+` FROM feeds WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed by id: %w", err)
	}
	return feed, nil
}

func (r *feedRepository) GetByURL(url string) (*Feed, error) {
	feed, err := r.scanFeed(r.db.QueryRow(`SELECT `+feedColumns+` FROM feeds WHERE url = ?`, url))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed by url: %w", err)
	}
	return feed, nil
}

func (r *feedRepository) GetAll() ([]Feed, error) {
	rows, err := r.db.Query(`SELECT ` + feedColumns + ` FROM feeds ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get feeds: %w", err)
	}
	defer rows.Close()

	return r.collectFeeds(rows)
}

// GetDue returns non-mailing-list feeds whose next_update_time is unset or in
// the past, oldest due first.
func (r *feedRepository) GetDue(now int64) ([]Feed, error) {
	rows, err := r.db.Query(`
		SELECT `+feedColumns+`
		FROM feeds
		WHERE is_mailing_list = 0
		  AND (next_update_time IS NULL OR next_update_time <= ?)
		ORDER BY COALESCE(next_update_time, 0)
	`, now)
	if err != nil {
		return nil, fmt.Errorf("failed to get feeds due for refresh: %w", err)
	}
	defer rows.Close()

	return r.collectFeeds(rows)
}

func (r *feedRepository) collectFeeds(rows *sql.Rows) ([]Feed, error) {
	var feeds []Feed
	for rows.Next() {
		feed, err := r.scanFeed(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan feed row: %w", err)
		}
		feeds = append(feeds, *feed)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating feed rows: %w", err)
	}

	return feeds, nil
}

func (r *feedRepository) UpdateTitle(id int64, title string) error {
	_, err := r.db.Exec(`UPDATE feeds SET title = ? WHERE id = ?`, title, id)
	if err != nil {
		return fmt.Errorf("failed to update feed title: %w", err)
	}
	return nil
}

func (r *feedRepository) UpdateFolder(id int64, folderID int64) error {
	_, err := r.db.Exec(`UPDATE feeds SET folder_id = ? WHERE id = ?`, folderID, id)
	if err != nil {
		return fmt.Errorf("failed to update feed folder: %w", err)
	}
	return nil
}

func (r *feedRepository) UpdateNextUpdateTime(id int64, nextUpdateTime int64) error {
	_, err := r.db.Exec(`UPDATE feeds SET next_update_time = ? WHERE id = ?`, nextUpdateTime, id)
	if err != nil {
		return fmt.Errorf("failed to update next update time: %w", err)
	}
	return nil
}

func (r *feedRepository) UpdateErrorState(id int64, errorCount int, lastError string) error {
	var lastErrorValue any
	if lastError != "" {
		lastErrorValue = lastError
	}

	_, err := r.db.Exec(`
		UPDATE feeds SET update_error_count = ?, last_update_error = ? WHERE id = ?
	`, errorCount, lastErrorValue, id)
	if err != nil {
		return fmt.Errorf("failed to update feed error state: %w", err)
	}
	return nil
}

func (r *feedRepository) UpdateQuality(id int64, lastQualityCheck int64, useExtractedFulltext bool, useLLMSummary bool) error {
	_, err := r.db.Exec(`
		UPDATE feeds
		SET last_quality_check = ?, use_extracted_fulltext = ?, use_llm_summary = ?
		WHERE id = ?
	`, lastQualityCheck, useExtractedFulltext, useLLMSummary, id)
	if err != nil {
		return fmt.Errorf("failed to update feed quality flags: %w", err)
	}
	return nil
}

// Delete removes a feed and, via the foreign key cascade, all its articles.
func (r *feedRepository) Delete(id int64) error {
	_, err := r.db.Exec(`DELETE FROM feeds WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete feed: %w", err)
	}
	return nil
}
