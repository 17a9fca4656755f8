package api

import (
	"github.com/paulstaab/headless-rss/app/database"
	"github.com/paulstaab/headless-rss/app/email"
	"github.com/paulstaab/headless-rss/app/feed"
	"github.com/paulstaab/headless-rss/app/folder"
)

type Handler struct {
	feedService   *feed.Service
	folderService *folder.Service
	emailService  *email.Service
	feeds         database.FeedRepository
	articles      database.ArticleRepository
}

// JSON shapes follow the Nextcloud News API v1.2, which existing reader apps
// speak. Field names and casing are part of that contract.

type folderJSON struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

type feedJSON struct {
	ID               int64  `json:"id"`
	URL              string `json:"url"`
	Title            string `json:"title"`
	FaviconLink      string `json:"faviconLink"`
	Added            int64  `json:"added"`
	FolderID         int64  `json:"folderId"`
	UnreadCount      int    `json:"unreadCount"`
	Ordering         int    `json:"ordering"`
	Link             string `json:"link"`
	Pinned           bool   `json:"pinned"`
	UpdateErrorCount int    `json:"updateErrorCount"`
	LastUpdateError  string `json:"lastUpdateError"`
}

type itemJSON struct {
	ID               int64  `json:"id"`
	GUID             string `json:"guid"`
	GUIDHash         string `json:"guidHash"`
	URL              string `json:"url"`
	Title            string `json:"title"`
	Author           string `json:"author"`
	PubDate          int64  `json:"pubDate"`
	UpdatedDate      int64  `json:"updatedDate"`
	Body             string `json:"body"`
	EnclosureMime    string `json:"enclosureMime"`
	EnclosureLink    string `json:"enclosureLink"`
	MediaThumbnail   string `json:"mediaThumbnail"`
	MediaDescription string `json:"mediaDescription"`
	FeedID           int64  `json:"feedId"`
	Unread           bool   `json:"unread"`
	Starred          bool   `json:"starred"`
	LastModified     int64  `json:"lastModified"`
	RTL              bool   `json:"rtl"`
	Fingerprint      string `json:"fingerprint"`
	ContentHash      string `json:"contentHash"`
}

type folderNameRequest struct {
	Name string `json:"name"`
}

type createFeedRequest struct {
	URL      string `json:"url"`
	FolderID int64  `json:"folderId"`
}

type moveFeedRequest struct {
	FolderID int64 `json:"folderId"`
}

type renameFeedRequest struct {
	FeedTitle string `json:"feedTitle"`
}

type markReadRequest struct {
	NewestItemID int64 `json:"newestItemId"`
}

type itemIDsRequest struct {
	Items []int64 `json:"items"`
}

type starRequest struct {
	Items []struct {
		FeedID   int64  `json:"feedId"`
		GUIDHash string `json:"guidHash"`
	} `json:"items"`
}

type credentialsRequest struct {
	Protocol string `json:"protocol"`
	Server   string `json:"server"`
	Port     int    `json:"port"`
	Username string `json:"username"`
	Password string `json:"password"`
}

func toFolderJSON(f database.Folder) folderJSON {
	return folderJSON{ID: f.ID, Name: f.Name}
}

func toFeedJSON(f database.Feed, unreadCount int) feedJSON {
	return feedJSON{
		ID:               f.ID,
		URL:              f.URL,
		Title:            f.Title,
		FaviconLink:      f.FaviconLink,
		Added:            f.Added,
		FolderID:         f.FolderID,
		UnreadCount:      unreadCount,
		Ordering:         f.Ordering,
		Link:             f.Link,
		Pinned:           f.Pinned,
		UpdateErrorCount: f.UpdateErrorCount,
		LastUpdateError:  f.LastUpdateError,
	}
}

func toItemJSON(a database.Article) itemJSON {
	return itemJSON{
		ID:               a.ID,
		GUID:             a.GUID,
		GUIDHash:         a.GUIDHash,
		URL:              a.URL,
		Title:            a.Title,
		Author:           a.Author,
		PubDate:          a.PubDate,
		UpdatedDate:      a.UpdatedDate,
		Body:             a.Content,
		EnclosureMime:    a.EnclosureMime,
		EnclosureLink:    a.EnclosureLink,
		MediaThumbnail:   a.MediaThumbnail,
		MediaDescription: a.MediaDescription,
		FeedID:           a.FeedID,
		Unread:           a.Unread,
		Starred:          a.Starred,
		LastModified:     a.LastModified,
		RTL:              a.RTL,
		Fingerprint:      a.Fingerprint,
		ContentHash:      a.ContentHash,
	}
}
