package database

// ArticleFilter narrows article queries. Zero values mean "no constraint",
// matching the Nextcloud News items endpoint semantics.
type ArticleFilter struct {
	FeedID       int64
	FolderID     int64
	StarredOnly  bool
	MaxResults   int
	NewestItemID int64
	GetRead      bool
	OldestFirst  bool
	LastModified int64
}

type FeedRepository interface {
	Create(feed *Feed) error
	GetByID(id int64) (*Feed, error)
	GetByURL(url string) (*Feed, error)
	GetAll() ([]Feed, error)
	GetDue(now int64) ([]Feed, error)

	UpdateTitle(id int64, title string) error
	UpdateFolder(id int64, folderID int64) error
	UpdateNextUpdateTime(id int64, nextUpdateTime int64) error
	UpdateErrorState(id int64, errorCount int, lastError string) error
	UpdateQuality(id int64, lastQualityCheck int64, useExtractedFulltext bool, useLLMSummary bool) error

	Delete(id int64) error
}

type ArticleRepository interface {
	Insert(article *Article) error
	List(filter ArticleFilter) ([]Article, error)
	GetByGUIDHash(feedID int64, guidHash string) (*Article, error)
	ExistsByGUIDHash(feedID int64, guidHash string) (bool, error)
	GetLatestWithURL(feedID int64) (*Article, error)
	NewestItemID() (int64, error)
	CountRecent(feedID int64, since int64) (int, error)
	CountUnread(feedID int64) (int, error)

	MarkRead(ids []int64, read bool, now int64) (int, error)
	MarkStarred(ids []int64, starred bool, now int64) (int, error)
	MarkReadUpTo(newestItemID int64, now int64) (int, error)
	MarkReadByFeedUpTo(feedID int64, newestItemID int64, now int64) (int, error)

	DeleteStale(feedID int64, observedGUIDHashes []string, cutoff int64) (int, error)
	DeleteStaleMailingLists(cutoff int64) (int, error)
}

type FolderRepository interface {
	Create(name string) (*Folder, error)
	GetByID(id int64) (*Folder, error)
	GetByName(name string) (*Folder, error)
	GetAll() ([]Folder, error)
	GetOrCreateRootID() (int64, error)
	Rename(id int64, name string) error
	Delete(id int64) error
}

type CredentialRepository interface {
	Add(credential *EmailCredential) error
	GetAll() ([]EmailCredential, error)
}
