package database

// Folder groups feeds. Exactly one folder per database is the root folder,
// which has no name and is created by the initial migration.
type Folder struct {
	ID     int64
	Name   string // empty for the root folder
	IsRoot bool
}

// Feed is a polled content source: either an RSS/Atom URL or, for mailing
// list pseudo-feeds, a sender address.
type Feed struct {
	ID               int64
	URL              string // globally unique, sender address for mailing lists
	Title            string
	FaviconLink      string
	Link             string
	FolderID         int64
	Added            int64  // unix seconds
	NextUpdateTime   *int64 // nil or past means "refresh now"
	Ordering         int
	Pinned           bool
	UpdateErrorCount int
	LastUpdateError  string
	IsMailingList    bool

	LastQualityCheck     int64 // unix seconds, 0 if never checked
	UseExtractedFulltext bool
	UseLLMSummary        bool
}

// Article is one deduplicated content item belonging to a feed.
// GUIDHash is the dedup key within a feed; Fingerprint is auxiliary metadata.
type Article struct {
	ID               int64
	FeedID           int64
	Title            string
	Author           string
	Content          string
	Summary          string
	ContentHash      string
	Fingerprint      string
	GUID             string
	GUIDHash         string
	URL              string
	EnclosureLink    string
	EnclosureMime    string
	MediaThumbnail   string
	MediaDescription string
	PubDate          int64 // unix seconds
	UpdatedDate      int64 // unix seconds
	LastModified     int64 // unix seconds, bumped on every mutation
	Unread           bool
	Starred          bool
	RTL              bool
}

// EmailCredential holds the connection data for one polled mailbox.
// The password is stored in clear text; the repository interface exists so
// encryption at rest can be added without touching the polling logic.
type EmailCredential struct {
	ID       int64
	Protocol string // only "imap" is implemented
	Server   string
	Port     int
	Username string
	Password string
}
