package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/emersion/go-imap"

	"github.com/paulstaab/headless-rss/app/database"
)

type fakeMailbox struct {
	messages []*imap.Message
	seen     map[uint32]bool
	loginErr error
	logins   int
	selected string
}

func newFakeMailbox() *fakeMailbox {
	return &fakeMailbox{seen: make(map[uint32]bool)}
}

func (f *fakeMailbox) Login(username, password string) error {
	f.logins++
	return f.loginErr
}

func (f *fakeMailbox) Select(name string, readOnly bool) (*imap.MailboxStatus, error) {
	f.selected = name
	return &imap.MailboxStatus{Name: name}, nil
}

func (f *fakeMailbox) Search(criteria *imap.SearchCriteria) ([]uint32, error) {
	var ids []uint32
	for _, msg := range f.messages {
		if !f.seen[msg.SeqNum] {
			ids = append(ids, msg.SeqNum)
		}
	}
	return ids, nil
}

func (f *fakeMailbox) Fetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error {
	defer close(ch)
	for _, msg := range f.messages {
		if seqset.Contains(msg.SeqNum) {
			ch <- msg
		}
	}
	return nil
}

func (f *fakeMailbox) Store(seqset *imap.SeqSet, item imap.StoreItem, value interface{}, ch chan *imap.Message) error {
	for _, msg := range f.messages {
		if seqset.Contains(msg.SeqNum) {
			f.seen[msg.SeqNum] = true
		}
	}
	return nil
}

func (f *fakeMailbox) Logout() error {
	return nil
}

func buildMessage(seqNum uint32, displayName, mailbox, host, subject string, newsletter bool) *imap.Message {
	return buildMessageWithCharset(seqNum, displayName, mailbox, host, subject, "utf-8", newsletter)
}

func buildMessageWithCharset(seqNum uint32, displayName, mailbox, host, subject, charsetName string, newsletter bool) *imap.Message {
	headers := fmt.Sprintf("From: %s <%s@%s>\r\nSubject: %s\r\n", displayName, mailbox, host, subject)
	if newsletter {
		headers += "List-Unsubscribe: <mailto:unsubscribe@" + host + ">\r\n"
	}
	headers += "Content-Type: text/plain; charset=" + charsetName + "\r\n"
	raw := headers + "\r\nHello from the newsletter.\r\n"

	section := &imap.BodySectionName{}
	return &imap.Message{
		SeqNum: seqNum,
		Envelope: &imap.Envelope{
			Subject: subject,
			Date:    time.Date(2023, 7, 3, 10, 0, 0, 0, time.UTC),
			From: []*imap.Address{
				{PersonalName: displayName, MailboxName: mailbox, HostName: host},
			},
		},
		Body: map[*imap.BodySectionName]imap.Literal{
			section: bytes.NewBufferString(raw),
		},
	}
}

type emailFixture struct {
	service     *Service
	mailbox     *fakeMailbox
	feeds       database.FeedRepository
	articles    database.ArticleRepository
	credentials database.CredentialRepository
}

func newEmailFixture(t *testing.T) *emailFixture {
	t.Helper()

	db, err := database.NewConnection(filepath.Join(t.TempDir(), "test.sqlite"))
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if _, _, err := database.RunMigrations(db); err != nil {
		t.Fatalf("Failed to run migrations: %v", err)
	}

	mailbox := newFakeMailbox()
	dial := func(addr string) (MailboxClient, error) { return mailbox, nil }

	feeds := database.NewFeedRepository(db)
	articles := database.NewArticleRepository(db)
	folders := database.NewFolderRepository(db)
	credentials := database.NewCredentialRepository(db)

	return &emailFixture{
		service:     NewService(credentials, feeds, articles, folders, nil, dial),
		mailbox:     mailbox,
		feeds:       feeds,
		articles:    articles,
		credentials: credentials,
	}
}

func (f *emailFixture) registerMailbox(t *testing.T) {
	t.Helper()
	err := f.service.AddCredentials(&database.EmailCredential{
		Protocol: "imap",
		Server:   "mail.example.com",
		Port:     993,
		Username: "reader",
		Password: "secret",
	})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
}

func TestAddCredentialsVerifiesLogin(t *testing.T) {
	f := newEmailFixture(t)
	f.mailbox.loginErr = errors.New("authentication failed")

	err := f.service.AddCredentials(&database.EmailCredential{
		Protocol: "imap", Server: "mail.example.com", Port: 993,
		Username: "reader", Password: "wrong",
	})
	if !errors.Is(err, ErrConnectionFailed) {
		t.Errorf("Expected ErrConnectionFailed, got: %v", err)
	}

	stored, err := f.credentials.GetAll()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(stored) != 0 {
		t.Errorf("Expected no stored credentials after failed login, got: %d", len(stored))
	}
}

func TestAddCredentialsRejectsUnknownProtocol(t *testing.T) {
	f := newEmailFixture(t)

	err := f.service.AddCredentials(&database.EmailCredential{Protocol: "pop3"})
	if !errors.Is(err, ErrUnsupportedProtocol) {
		t.Errorf("Expected ErrUnsupportedProtocol, got: %v", err)
	}
}

func TestFetchAllCreatesMailingListFeeds(t *testing.T) {
	f := newEmailFixture(t)
	f.registerMailbox(t)

	f.mailbox.messages = []*imap.Message{
		buildMessage(1, "Weekly News", "news", "example.com", "Issue 1", true),
		buildMessage(2, "Weekly News", "news", "example.com", "Issue 2", true),
		buildMessage(3, "", "digest", "other.org", "Digest 1", true),
	}

	if err := f.service.FetchAll(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	newsFeed, err := f.feeds.GetByURL("news@example.com")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if newsFeed == nil {
		t.Fatal("Expected mailing list feed for news@example.com")
	}
	if !newsFeed.IsMailingList {
		t.Error("Expected feed to be flagged as mailing list")
	}
	if newsFeed.Title != "Weekly News" {
		t.Errorf("Expected title from display name, got: %q", newsFeed.Title)
	}

	newsArticles, err := f.articles.List(database.ArticleFilter{FeedID: newsFeed.ID, GetRead: true})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(newsArticles) != 2 {
		t.Errorf("Expected 2 articles, got: %d", len(newsArticles))
	}

	digestFeed, err := f.feeds.GetByURL("digest@other.org")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if digestFeed == nil {
		t.Fatal("Expected mailing list feed for digest@other.org")
	}
	if digestFeed.Title != "Other" {
		t.Errorf("Expected title from domain label, got: %q", digestFeed.Title)
	}

	for seq := uint32(1); seq <= 3; seq++ {
		if !f.mailbox.seen[seq] {
			t.Errorf("Expected message %d to be flagged seen", seq)
		}
	}
}

func TestFetchAllSecondSweepAddsNothing(t *testing.T) {
	f := newEmailFixture(t)
	f.registerMailbox(t)

	f.mailbox.messages = []*imap.Message{
		buildMessage(1, "Weekly News", "news", "example.com", "Issue 1", true),
	}

	if err := f.service.FetchAll(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if err := f.service.FetchAll(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	feed, err := f.feeds.GetByURL("news@example.com")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	articles, err := f.articles.List(database.ArticleFilter{FeedID: feed.ID, GetRead: true})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(articles) != 1 {
		t.Errorf("Expected 1 article after repeated sweeps, got: %d", len(articles))
	}
}

// A newsletter declaring a charset the MIME stack does not know must still be
// stored (raw bytes as-is) and flagged seen, or the same message would fail
// again on every sweep.
func TestFetchAllHandlesUnknownCharset(t *testing.T) {
	f := newEmailFixture(t)
	f.registerMailbox(t)

	f.mailbox.messages = []*imap.Message{
		buildMessageWithCharset(1, "Weekly News", "news", "example.com", "Issue 1", "x-unknown-charset", true),
	}

	if err := f.service.FetchAll(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	feed, err := f.feeds.GetByURL("news@example.com")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if feed == nil {
		t.Fatal("Expected mailing list feed despite the unknown charset")
	}

	articles, err := f.articles.List(database.ArticleFilter{FeedID: feed.ID, GetRead: true})
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("Expected 1 article, got: %d", len(articles))
	}

	if !f.mailbox.seen[1] {
		t.Error("Expected the message to be flagged seen")
	}
}

func TestEnvelopeCharsetReaderConfigured(t *testing.T) {
	if imap.CharsetReader == nil {
		t.Fatal("Expected an IMAP charset reader for encoded-word envelope fields")
	}
}

func TestFetchAllIgnoresRegularMail(t *testing.T) {
	f := newEmailFixture(t)
	f.registerMailbox(t)

	f.mailbox.messages = []*imap.Message{
		buildMessage(1, "A Friend", "friend", "example.com", "Hi there", false),
	}

	if err := f.service.FetchAll(context.Background()); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	feed, err := f.feeds.GetByURL("friend@example.com")
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if feed != nil {
		t.Error("Expected no feed for regular mail")
	}

	// Handled messages are flagged seen even when skipped.
	if !f.mailbox.seen[1] {
		t.Error("Expected skipped message to be flagged seen")
	}
}
