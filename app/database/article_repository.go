package database

import (
	"database/sql"
	"fmt"
	"strings"
)

var _ ArticleRepository = (*articleRepository)(nil)

type articleRepository struct {
	db *DB
}

func NewArticleRepository(db *DB) ArticleRepository {
	return &articleRepository{db: db}
}

const articleColumns = `a.id, a.feed_id, COALESCE(a.title, ''), COALESCE(a.author, ''),
	       COALESCE(a.content, ''), COALESCE(a.summary, ''), COALESCE(a.content_hash, ''),
	       COALESCE(a.fingerprint, ''), a.guid, a.guid_hash, COALESCE(a.url, ''),
	       COALESCE(a.enclosure_link, ''), COALESCE(a.enclosure_mime, ''),
	       COALESCE(a.media_thumbnail, ''), COALESCE(a.media_description, ''),
	       COALESCE(a.pub_date, 0), COALESCE(a.updated_date, 0), a.last_modified,
	       a.unread, a.starred, a.rtl`

func scanArticle(row interface{ Scan(...any) error }) (*Article, error) {
	var a Article
	err := row.Scan(
		&a.ID, &a.FeedID, &a.Title, &a.Author,
		&a.Content, &a.Summary, &a.ContentHash,
		&a.Fingerprint, &a.GUID, &a.GUIDHash, &a.URL,
		&a.EnclosureLink, &a.EnclosureMime,
		&a.MediaThumbnail, &a.MediaDescription,
		&a.PubDate, &a.UpdatedDate, &a.LastModified,
		&a.Unread, &a.Starred, &a.RTL,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *articleRepository) Insert(article *Article) error {
	result, err := r.db.Exec(`
		INSERT INTO articles (feed_id, title, author, content, summary, content_hash,
		                      fingerprint, guid, guid_hash, url, enclosure_link, enclosure_mime,
		                      media_thumbnail, media_description, pub_date, updated_date,
		                      last_modified, unread, starred, rtl)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, article.FeedID, article.Title, article.Author, article.Content, article.Summary,
		article.ContentHash, article.Fingerprint, article.GUID, article.GUIDHash, article.URL,
		article.EnclosureLink, article.EnclosureMime, article.MediaThumbnail,
		article.MediaDescription, article.PubDate, article.UpdatedDate,
		article.LastModified, article.Unread, article.Starred, article.RTL)
	if err != nil {
		return fmt.Errorf("failed to insert article: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get article id: %w", err)
	}
	article.ID = id

	return nil
}

func (r *articleRepository) List(filter ArticleFilter) ([]Article, error) {
	query := `SELECT ` + articleColumns + ` FROM articles a`
	var conditions []string
	var args []any

	if filter.FolderID > 0 {
		query += ` JOIN feeds f ON f.id = a.feed_id`
		conditions = append(conditions, `f.folder_id = ?`)
		args = append(args, filter.FolderID)
	}
	if filter.FeedID > 0 {
		conditions = append(conditions, `a.feed_id = ?`)
		args = append(args, filter.FeedID)
	}
	if filter.StarredOnly {
		conditions = append(conditions, `a.starred = 1`)
	}
	if !filter.GetRead {
		conditions = append(conditions, `a.unread = 1`)
	}
	if filter.NewestItemID > 0 {
		conditions = append(conditions, `a.id <= ?`)
		args = append(args, filter.NewestItemID)
	}
	if filter.LastModified > 0 {
		conditions = append(conditions, `a.last_modified >= ?`)
		args = append(args, filter.LastModified)
	}

	if len(conditions) > 0 {
		query += ` WHERE ` + strings.Join(conditions, ` AND `)
	}

	if filter.OldestFirst {
		query += ` ORDER BY a.id ASC`
	} else {
		query += ` ORDER BY a.id DESC`
	}

	if filter.MaxResults > 0 {
		query += ` LIMIT ?`
		args = append(args, filter.MaxResults)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list articles: %w", err)
	}
	defer rows.Close()

	var articles []Article
	for rows.Next() {
		article, err := scanArticle(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan article row: %w", err)
		}
		articles = append(articles, *article)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating article rows: %w", err)
	}

	return articles, nil
}

func (r *articleRepository) GetByGUIDHash(feedID int64, guidHash string) (*Article, error) {
	article, err := scanArticle(r.db.QueryRow(`
		SELECT `+articleColumns+` FROM articles a WHERE a.feed_id = ? AND a.guid_hash = ?
	`, feedID, guidHash))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get article by guid hash: %w", err)
	}
	return article, nil
}

func (r *articleRepository) ExistsByGUIDHash(feedID int64, guidHash string) (bool, error) {
	var id int64
	err := r.db.QueryRow(`
		SELECT id FROM articles WHERE feed_id = ? AND guid_hash = ? LIMIT 1
	`, feedID, guidHash).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to check for duplicate article: %w", err)
	}
	return true, nil
}

// GetLatestWithURL returns the newest article of a feed that has an external
// link, used as the sample for feed quality checks.
func (r *articleRepository) GetLatestWithURL(feedID int64) (*Article, error) {
	article, err := scanArticle(r.db.QueryRow(`
		SELECT `+articleColumns+`
		FROM articles a
		WHERE a.feed_id = ? AND a.url IS NOT NULL AND a.url != ''
		ORDER BY a.id DESC
		LIMIT 1
	`, feedID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest article: %w", err)
	}
	return article, nil
}

func (r *articleRepository) NewestItemID() (int64, error) {
	var id int64
	err := r.db.QueryRow(`SELECT COALESCE(MAX(id), 0) FROM articles`).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to get newest item id: %w", err)
	}
	return id, nil
}

func (r *articleRepository) CountRecent(feedID int64, since int64) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM articles WHERE feed_id = ? AND pub_date > ?
	`, feedID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count recent articles: %w", err)
	}
	return count, nil
}

func (r *articleRepository) CountUnread(feedID int64) (int, error) {
	var count int
	err := r.db.QueryRow(`
		SELECT COUNT(*) FROM articles WHERE feed_id = ? AND unread = 1
	`, feedID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count unread articles: %w", err)
	}
	return count, nil
}

func (r *articleRepository) MarkRead(ids []int64, read bool, now int64) (int, error) {
	return r.mark(`unread`, !read, ids, now)
}

func (r *articleRepository) MarkStarred(ids []int64, starred bool, now int64) (int, error) {
	return r.mark(`starred`, starred, ids, now)
}

func (r *articleRepository) mark(column string, value bool, ids []int64, now int64) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	placeholders := strings.Repeat("?,", len(ids)-1) + "?"
	args := []any{value, now}
	for _, id := range ids {
		args = append(args, id)
	}

	result, err := r.db.Exec(`
		UPDATE articles SET `+column+` = ?, last_modified = ? WHERE id IN (`+placeholders+`)
	`, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to mark articles: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected row count: %w", err)
	}

	return int(affected), nil
}

func (r *articleRepository) MarkReadUpTo(newestItemID int64, now int64) (int, error) {
	result, err := r.db.Exec(`
		UPDATE articles SET unread = 0, last_modified = ? WHERE id <= ?
	`, now, newestItemID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark articles as read: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected row count: %w", err)
	}

	return int(affected), nil
}

func (r *articleRepository) MarkReadByFeedUpTo(feedID int64, newestItemID int64, now int64) (int, error) {
	result, err := r.db.Exec(`
		UPDATE articles SET unread = 0, last_modified = ? WHERE feed_id = ? AND id <= ?
	`, now, feedID, newestItemID)
	if err != nil {
		return 0, fmt.Errorf("failed to mark feed articles as read: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected row count: %w", err)
	}

	return int(affected), nil
}

// DeleteStale removes articles of a feed that have dropped out of the
// upstream document (not in observedGUIDHashes), are read, unstarred and were
// last modified before the cutoff. All conditions must hold.
func (r *articleRepository) DeleteStale(feedID int64, observedGUIDHashes []string, cutoff int64) (int, error) {
	query := `
		DELETE FROM articles
		WHERE feed_id = ?
		  AND unread = 0
		  AND starred = 0
		  AND last_modified < ?`
	args := []any{feedID, cutoff}

	if len(observedGUIDHashes) > 0 {
		placeholders := strings.Repeat("?,", len(observedGUIDHashes)-1) + "?"
		query += ` AND guid_hash NOT IN (` + placeholders + `)`
		for _, hash := range observedGUIDHashes {
			args = append(args, hash)
		}
	}

	result, err := r.db.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale articles: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected row count: %w", err)
	}

	return int(affected), nil
}

// DeleteStaleMailingLists prunes read, unstarred, stale articles across all
// mailing list pseudo-feeds. There is no upstream document to diff against,
// so no observed-set condition applies.
func (r *articleRepository) DeleteStaleMailingLists(cutoff int64) (int, error) {
	result, err := r.db.Exec(`
		DELETE FROM articles
		WHERE feed_id IN (SELECT id FROM feeds WHERE is_mailing_list = 1)
		  AND unread = 0
		  AND starred = 0
		  AND last_modified < ?
	`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete stale mailing list articles: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get affected row count: %w", err)
	}

	return int(affected), nil
}
