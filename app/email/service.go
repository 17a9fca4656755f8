package email

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/emersion/go-imap"

	"github.com/paulstaab/headless-rss/app/content"
	"github.com/paulstaab/headless-rss/app/database"
)

var (
	ErrConnectionFailed    = errors.New("could not connect to mailbox")
	ErrUnsupportedProtocol = errors.New("only the imap protocol is supported")
)

const retentionPeriod = 90 * 24 * time.Hour

type Service struct {
	credentials database.CredentialRepository
	feeds       database.FeedRepository
	articles    database.ArticleRepository
	folders     database.FolderRepository
	llm         *content.LLMClient
	dial        Dialer
}

func NewService(credentials database.CredentialRepository, feeds database.FeedRepository,
	articles database.ArticleRepository, folders database.FolderRepository,
	llm *content.LLMClient, dial Dialer) *Service {
	if dial == nil {
		dial = DialTLS
	}
	return &Service{
		credentials: credentials,
		feeds:       feeds,
		articles:    articles,
		folders:     folders,
		llm:         llm,
		dial:        dial,
	}
}

// AddCredentials verifies a mailbox login end to end before storing it, so a
// typo in the password is reported immediately instead of failing silently on
// every poll.
func (s *Service) AddCredentials(credential *database.EmailCredential) error {
	if credential.Protocol != "imap" {
		return ErrUnsupportedProtocol
	}

	conn, err := s.dial(fmt.Sprintf("%s:%d", credential.Server, credential.Port))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	defer conn.Logout()

	if err := conn.Login(credential.Username, credential.Password); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	if err := s.credentials.Add(credential); err != nil {
		return fmt.Errorf("failed to store credentials: %w", err)
	}

	slog.Info("Mailbox registered", "server", credential.Server, "username", credential.Username)
	return nil
}

// FetchAll polls every registered mailbox for unseen newsletter emails and
// prunes old mailing list articles. A failing mailbox is logged and skipped
// so one dead account does not block the others.
func (s *Service) FetchAll(ctx context.Context) error {
	credentials, err := s.credentials.GetAll()
	if err != nil {
		return fmt.Errorf("failed to load mailbox credentials: %w", err)
	}

	for i := range credentials {
		if err := s.pollMailbox(ctx, &credentials[i]); err != nil {
			slog.Error("Mailbox poll failed", "server", credentials[i].Server,
				"username", credentials[i].Username, "error", err)
		}
	}

	cutoff := time.Now().Add(-retentionPeriod).Unix()
	pruned, err := s.articles.DeleteStaleMailingLists(cutoff)
	if err != nil {
		return fmt.Errorf("failed to prune mailing list articles: %w", err)
	}
	if pruned > 0 {
		slog.Info("Pruned mailing list articles", "count", pruned)
	}

	return nil
}

func (s *Service) pollMailbox(ctx context.Context, credential *database.EmailCredential) error {
	conn, err := s.dial(fmt.Sprintf("%s:%d", credential.Server, credential.Port))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	defer conn.Logout()

	if err := conn.Login(credential.Username, credential.Password); err != nil {
		return fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}

	if _, err := conn.Select("INBOX", false); err != nil {
		return fmt.Errorf("failed to select inbox: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.WithoutFlags = []string{imap.SeenFlag}
	ids, err := conn.Search(criteria)
	if err != nil {
		return fmt.Errorf("failed to search for unseen messages: %w", err)
	}
	if len(ids) == 0 {
		return nil
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(ids...)

	messages := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- conn.Fetch(seqset, []imap.FetchItem{imap.FetchEnvelope, imap.FetchItem("BODY.PEEK[]")}, messages)
	}()

	// Messages are only flagged seen once they were processed without error,
	// so a crash mid-poll leaves the remainder for the next sweep.
	processed := new(imap.SeqSet)
	for msg := range messages {
		if err := s.processMessage(ctx, msg); err != nil {
			slog.Error("Failed to process email", "seq", msg.SeqNum, "error", err)
			continue
		}
		processed.AddNum(msg.SeqNum)
	}

	if err := <-done; err != nil {
		return fmt.Errorf("failed to fetch messages: %w", err)
	}

	if !processed.Empty() {
		item := imap.FormatFlagsOp(imap.AddFlags, true)
		if err := conn.Store(processed, item, []interface{}{imap.SeenFlag}, nil); err != nil {
			return fmt.Errorf("failed to flag messages as seen: %w", err)
		}
	}

	return nil
}
