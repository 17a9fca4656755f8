package api

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/paulstaab/headless-rss/app/cfg"
	"github.com/paulstaab/headless-rss/app/content"
	"github.com/paulstaab/headless-rss/app/database"
	"github.com/paulstaab/headless-rss/app/email"
	"github.com/paulstaab/headless-rss/app/feed"
	"github.com/paulstaab/headless-rss/app/folder"
)

func (h *Handler) GetHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) GetVersion(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"version": cfg.GetVersion()})
}

// GetStatus is probed by News clients at startup. The warnings relate to
// Nextcloud server setups and never apply here.
func (h *Handler) GetStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"version": cfg.GetVersion(),
		"warnings": gin.H{
			"improperlyConfiguredCron": false,
			"incorrectDbCharset":       false,
		},
	})
}

func (h *Handler) ListFolders(c *gin.Context) {
	folders, err := h.folderService.GetAll()
	if err != nil {
		h.internalError(c, "list_folders", err)
		return
	}

	result := make([]folderJSON, 0, len(folders))
	for _, f := range folders {
		if f.IsRoot {
			continue
		}
		result = append(result, toFolderJSON(f))
	}

	c.JSON(http.StatusOK, gin.H{"folders": result})
}

func (h *Handler) CreateFolder(c *gin.Context) {
	var req folderNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request body"})
		return
	}

	created, err := h.folderService.Create(req.Name)
	switch {
	case errors.Is(err, folder.ErrInvalidName):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, folder.ErrFolderExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		h.internalError(c, "create_folder", err)
	default:
		c.JSON(http.StatusOK, gin.H{"folders": []folderJSON{toFolderJSON(*created)}})
	}
}

func (h *Handler) RenameFolder(c *gin.Context) {
	id, ok := h.pathID(c, "folderId")
	if !ok {
		return
	}

	var req folderNameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request body"})
		return
	}

	err := h.folderService.Rename(id, req.Name)
	switch {
	case errors.Is(err, folder.ErrInvalidName):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.Is(err, folder.ErrFolderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, folder.ErrFolderExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case err != nil:
		h.internalError(c, "rename_folder", err)
	default:
		c.Status(http.StatusOK)
	}
}

func (h *Handler) DeleteFolder(c *gin.Context) {
	id, ok := h.pathID(c, "folderId")
	if !ok {
		return
	}

	err := h.folderService.Delete(id)
	switch {
	case errors.Is(err, folder.ErrFolderNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case err != nil:
		h.internalError(c, "delete_folder", err)
	default:
		c.Status(http.StatusOK)
	}
}

func (h *Handler) MarkFolderRead(c *gin.Context) {
	id, ok := h.pathID(c, "folderId")
	if !ok {
		return
	}

	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request body"})
		return
	}

	feeds, err := h.feeds.GetAll()
	if err != nil {
		h.internalError(c, "mark_folder_read", err)
		return
	}

	now := time.Now().Unix()
	for _, f := range feeds {
		if f.FolderID != id {
			continue
		}
		if _, err := h.articles.MarkReadByFeedUpTo(f.ID, req.NewestItemID, now); err != nil {
			h.internalError(c, "mark_folder_read", err)
			return
		}
	}

	c.Status(http.StatusOK)
}

func (h *Handler) ListFeeds(c *gin.Context) {
	feeds, err := h.feedService.GetAll()
	if err != nil {
		h.internalError(c, "list_feeds", err)
		return
	}

	result := make([]feedJSON, 0, len(feeds))
	for _, f := range feeds {
		unread, err := h.articles.CountUnread(f.ID)
		if err != nil {
			h.internalError(c, "list_feeds", err)
			return
		}
		result = append(result, toFeedJSON(f, unread))
	}

	starred, err := h.articles.List(database.ArticleFilter{StarredOnly: true, GetRead: true})
	if err != nil {
		h.internalError(c, "list_feeds", err)
		return
	}

	newestItemID, err := h.articles.NewestItemID()
	if err != nil {
		h.internalError(c, "list_feeds", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"feeds":        result,
		"starredCount": len(starred),
		"newestItemId": newestItemID,
	})
}

func (h *Handler) CreateFeed(c *gin.Context) {
	var req createFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.URL == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request body"})
		return
	}

	created, err := h.feedService.Add(c.Request.Context(), req.URL, req.FolderID)

	var ssrfErr *content.SSRFError
	var parseErr *feed.ParsingError
	switch {
	case errors.Is(err, feed.ErrFeedExists):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, feed.ErrFolderNotFound):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case errors.As(err, &ssrfErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.As(err, &parseErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case err != nil:
		h.internalError(c, "create_feed", err)
	default:
		unread, err := h.articles.CountUnread(created.ID)
		if err != nil {
			h.internalError(c, "create_feed", err)
			return
		}
		newestItemID, err := h.articles.NewestItemID()
		if err != nil {
			h.internalError(c, "create_feed", err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"feeds":        []feedJSON{toFeedJSON(*created, unread)},
			"newestItemId": newestItemID,
		})
	}
}

func (h *Handler) DeleteFeed(c *gin.Context) {
	id, ok := h.pathID(c, "feedId")
	if !ok {
		return
	}

	err := h.feedService.Delete(id)
	switch {
	case errors.Is(err, feed.ErrFeedNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case err != nil:
		h.internalError(c, "delete_feed", err)
	default:
		c.Status(http.StatusOK)
	}
}

func (h *Handler) MoveFeed(c *gin.Context) {
	id, ok := h.pathID(c, "feedId")
	if !ok {
		return
	}

	var req moveFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request body"})
		return
	}

	err := h.feedService.Move(id, req.FolderID)
	switch {
	case errors.Is(err, feed.ErrFeedNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, feed.ErrFolderNotFound):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case err != nil:
		h.internalError(c, "move_feed", err)
	default:
		c.Status(http.StatusOK)
	}
}

func (h *Handler) RenameFeed(c *gin.Context) {
	id, ok := h.pathID(c, "feedId")
	if !ok {
		return
	}

	var req renameFeedRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.FeedTitle == "" {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "feedTitle must not be empty"})
		return
	}

	err := h.feedService.Rename(id, req.FeedTitle)
	switch {
	case errors.Is(err, feed.ErrFeedNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case err != nil:
		h.internalError(c, "rename_feed", err)
	default:
		c.Status(http.StatusOK)
	}
}

func (h *Handler) MarkFeedRead(c *gin.Context) {
	id, ok := h.pathID(c, "feedId")
	if !ok {
		return
	}

	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request body"})
		return
	}

	if _, err := h.feedService.Get(id); err != nil {
		if errors.Is(err, feed.ErrFeedNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		h.internalError(c, "mark_feed_read", err)
		return
	}

	if _, err := h.articles.MarkReadByFeedUpTo(id, req.NewestItemID, time.Now().Unix()); err != nil {
		h.internalError(c, "mark_feed_read", err)
		return
	}

	c.Status(http.StatusOK)
}

const (
	itemTypeFeed    = 0
	itemTypeFolder  = 1
	itemTypeStarred = 2
	itemTypeAll     = 3
)

func (h *Handler) ListItems(c *gin.Context) {
	filter := database.ArticleFilter{
		MaxResults:   h.queryInt(c, "batchSize", -1),
		NewestItemID: int64(h.queryInt(c, "offset", 0)),
		GetRead:      h.queryBool(c, "getRead", true),
		OldestFirst:  h.queryBool(c, "oldestFirst", false),
	}
	if filter.MaxResults < 0 {
		filter.MaxResults = 0
	}

	h.applyItemType(c, &filter)

	items, err := h.articles.List(filter)
	if err != nil {
		h.internalError(c, "list_items", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": h.toItems(items)})
}

func (h *Handler) ListUpdatedItems(c *gin.Context) {
	filter := database.ArticleFilter{
		LastModified: int64(h.queryInt(c, "lastModified", 0)),
		GetRead:      true,
	}

	h.applyItemType(c, &filter)

	items, err := h.articles.List(filter)
	if err != nil {
		h.internalError(c, "list_updated_items", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"items": h.toItems(items)})
}

func (h *Handler) applyItemType(c *gin.Context, filter *database.ArticleFilter) {
	id := int64(h.queryInt(c, "id", 0))

	switch h.queryInt(c, "type", itemTypeAll) {
	case itemTypeFeed:
		filter.FeedID = id
	case itemTypeFolder:
		filter.FolderID = id
	case itemTypeStarred:
		filter.StarredOnly = true
		filter.GetRead = true
	}
}

func (h *Handler) MarkItemRead(c *gin.Context) {
	h.markItem(c, true)
}

func (h *Handler) MarkItemUnread(c *gin.Context) {
	h.markItem(c, false)
}

func (h *Handler) markItem(c *gin.Context, read bool) {
	id, ok := h.pathID(c, "itemId")
	if !ok {
		return
	}

	affected, err := h.articles.MarkRead([]int64{id}, read, time.Now().Unix())
	if err != nil {
		h.internalError(c, "mark_item", err)
		return
	}
	if affected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}

	c.Status(http.StatusOK)
}

func (h *Handler) MarkItemsRead(c *gin.Context) {
	h.markItems(c, true)
}

func (h *Handler) MarkItemsUnread(c *gin.Context) {
	h.markItems(c, false)
}

func (h *Handler) markItems(c *gin.Context, read bool) {
	var req itemIDsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request body"})
		return
	}

	if _, err := h.articles.MarkRead(req.Items, read, time.Now().Unix()); err != nil {
		h.internalError(c, "mark_items", err)
		return
	}

	c.Status(http.StatusOK)
}

func (h *Handler) MarkAllItemsRead(c *gin.Context) {
	var req markReadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request body"})
		return
	}

	if _, err := h.articles.MarkReadUpTo(req.NewestItemID, time.Now().Unix()); err != nil {
		h.internalError(c, "mark_all_read", err)
		return
	}

	c.Status(http.StatusOK)
}

func (h *Handler) StarItem(c *gin.Context) {
	h.starItem(c, true)
}

func (h *Handler) UnstarItem(c *gin.Context) {
	h.starItem(c, false)
}

// The v1.2 star routes address items by feed id and guid hash rather than by
// item id; the first path segment is the feed id.
func (h *Handler) starItem(c *gin.Context, starred bool) {
	feedID, ok := h.pathID(c, "itemId")
	if !ok {
		return
	}
	guidHash := c.Param("guidHash")

	article, err := h.articles.GetByGUIDHash(feedID, guidHash)
	if err != nil {
		h.internalError(c, "star_item", err)
		return
	}
	if article == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "item not found"})
		return
	}

	if _, err := h.articles.MarkStarred([]int64{article.ID}, starred, time.Now().Unix()); err != nil {
		h.internalError(c, "star_item", err)
		return
	}

	c.Status(http.StatusOK)
}

func (h *Handler) StarItems(c *gin.Context) {
	h.starItems(c, true)
}

func (h *Handler) UnstarItems(c *gin.Context) {
	h.starItems(c, false)
}

func (h *Handler) starItems(c *gin.Context, starred bool) {
	var req starRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request body"})
		return
	}

	now := time.Now().Unix()
	var ids []int64
	for _, item := range req.Items {
		article, err := h.articles.GetByGUIDHash(item.FeedID, item.GUIDHash)
		if err != nil {
			h.internalError(c, "star_items", err)
			return
		}
		if article != nil {
			ids = append(ids, article.ID)
		}
	}

	if _, err := h.articles.MarkStarred(ids, starred, now); err != nil {
		h.internalError(c, "star_items", err)
		return
	}

	c.Status(http.StatusOK)
}

func (h *Handler) AddEmailCredentials(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid request body"})
		return
	}

	err := h.emailService.AddCredentials(&database.EmailCredential{
		Protocol: req.Protocol,
		Server:   req.Server,
		Port:     req.Port,
		Username: req.Username,
		Password: req.Password,
	})
	switch {
	case errors.Is(err, email.ErrUnsupportedProtocol), errors.Is(err, email.ErrConnectionFailed):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	case err != nil:
		h.internalError(c, "add_email_credentials", err)
	default:
		c.Status(http.StatusOK)
	}
}

func (h *Handler) pathID(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "invalid " + name})
		return 0, false
	}
	return id, true
}

func (h *Handler) queryInt(c *gin.Context, name string, fallback int) int {
	value := c.Query(name)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (h *Handler) queryBool(c *gin.Context, name string, fallback bool) bool {
	value := c.Query(name)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (h *Handler) toItems(articles []database.Article) []itemJSON {
	items := make([]itemJSON, 0, len(articles))
	for _, a := range articles {
		items = append(items, toItemJSON(a))
	}
	return items
}

func (h *Handler) internalError(c *gin.Context, operation string, err error) {
	slog.Error("Request failed", "operation", operation, "error", err)
	c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
}
