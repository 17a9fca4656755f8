package email

import (
	"cmp"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-message"
	"github.com/emersion/go-message/mail"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/paulstaab/headless-rss/app/content"
	"github.com/paulstaab/headless-rss/app/database"
)

// processMessage turns one unseen email into mailing list articles. Emails
// without a List-Unsubscribe header are regular mail, not newsletters, and
// are skipped.
func (s *Service) processMessage(ctx context.Context, msg *imap.Message) error {
	if msg.Envelope == nil || len(msg.Envelope.From) == 0 {
		return fmt.Errorf("message has no sender")
	}

	section := imap.BodySectionName{}
	literal := msg.GetBody(&section)
	if literal == nil {
		return fmt.Errorf("message body not found")
	}

	// An unknown charset still yields a usable reader; the raw bytes are
	// taken as-is rather than losing the whole message.
	reader, err := mail.CreateReader(literal)
	if err != nil && !message.IsUnknownCharset(err) {
		return fmt.Errorf("failed to read message: %w", err)
	}

	if reader.Header.Get("List-Unsubscribe") == "" {
		slog.Debug("Skipping non-newsletter email", "subject", msg.Envelope.Subject)
		return nil
	}

	bodyText, bodyHTML, err := readBodyParts(reader)
	if err != nil {
		return err
	}

	from := msg.Envelope.From[0]
	address := from.MailboxName + "@" + from.HostName

	feed, err := s.ensureMailingListFeed(address, mailingListTitle(from.PersonalName, from.HostName))
	if err != nil {
		return err
	}

	date := msg.Envelope.Date
	if date.IsZero() {
		date = time.Now()
	}

	body := cmp.Or(bodyHTML, bodyText)
	if content.LooksLikeHTML(body) {
		body = content.SanitizeNewsletterHTML(body)
	}

	return s.storeEmailArticles(ctx, feed, msg.Envelope.Subject, address, body, date)
}

// readBodyParts collects the inline text and HTML parts of a message.
// Part-level charsets are decoded by the message reader.
func readBodyParts(reader *mail.Reader) (bodyText, bodyHTML string, err error) {
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		} else if err != nil && !message.IsUnknownCharset(err) {
			return "", "", fmt.Errorf("failed to read message part: %w", err)
		}
		if part == nil {
			break
		}

		header, ok := part.Header.(*mail.InlineHeader)
		if !ok {
			continue
		}

		contentType, _, _ := header.ContentType()
		data, err := io.ReadAll(part.Body)
		if err != nil {
			return "", "", fmt.Errorf("failed to read message part body: %w", err)
		}

		switch contentType {
		case "text/html":
			bodyHTML = string(data)
		case "text/plain":
			bodyText = string(data)
		}
	}

	return bodyText, bodyHTML, nil
}

// mailingListTitle names a pseudo-feed after the sender: the display name
// when there is one, the capitalized first domain label otherwise.
func mailingListTitle(displayName, host string) string {
	if name := strings.TrimSpace(displayName); name != "" {
		return name
	}
	label, _, _ := strings.Cut(host, ".")
	return cases.Title(language.Und).String(label)
}

func (s *Service) ensureMailingListFeed(address, title string) (*database.Feed, error) {
	existing, err := s.feeds.GetByURL(address)
	if err != nil {
		return nil, fmt.Errorf("failed to look up mailing list feed: %w", err)
	}
	if existing != nil {
		return existing, nil
	}

	rootID, err := s.folders.GetOrCreateRootID()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve root folder: %w", err)
	}

	feed := &database.Feed{
		URL:           address,
		Title:         title,
		FolderID:      rootID,
		Added:         time.Now().Unix(),
		IsMailingList: true,
	}
	if err := s.feeds.Create(feed); err != nil {
		return nil, fmt.Errorf("failed to create mailing list feed: %w", err)
	}

	slog.Info("Mailing list added", "sender", address, "title", title)
	return feed, nil
}

// storeEmailArticles converts an email body into one or more articles. When
// the model recognizes a digest of linked stories, each story becomes its own
// article; everything else, including any structuring failure, is stored as a
// single article.
func (s *Service) storeEmailArticles(ctx context.Context, feed *database.Feed, subject, address, body string, date time.Time) error {
	var articles []database.Article

	if s.llm.Enabled() {
		structure, err := s.llm.StructureNewsletter(ctx, subject, address, content.PlainText(body))
		if err != nil {
			slog.Warn("Newsletter structuring failed, storing a single article",
				"sender", address, "error", err)
		} else if structure.IsMulti() {
			for _, item := range structure.Items {
				itemBody := cmp.Or(item.Content, item.Summary)
				articles = append(articles, database.Article{
					Title:   cmp.Or(item.Title, subject),
					Content: itemBody,
					Summary: cmp.Or(item.Summary, content.FallbackSummary(itemBody)),
					URL:     item.URL,
					GUID:    fmt.Sprintf("%s:%s:%s", address, subject, item.URL),
				})
			}
		} else {
			articles = append(articles, database.Article{
				Title:   subject,
				Content: cmp.Or(structure.Content, body),
				Summary: cmp.Or(structure.Summary, content.FallbackSummary(body)),
				GUID:    fmt.Sprintf("%s:%s", address, subject),
			})
		}
	}

	if len(articles) == 0 {
		articles = append(articles, database.Article{
			Title:   subject,
			Content: body,
			Summary: content.FallbackSummary(body),
			GUID:    fmt.Sprintf("%s:%s", address, subject),
		})
	}

	now := time.Now().Unix()
	for i := range articles {
		article := &articles[i]
		article.FeedID = feed.ID
		article.Author = feed.Title
		article.GUIDHash = content.GUIDHash(article.GUID)
		article.ContentHash = content.ContentHash(article.Content)
		article.Fingerprint = content.Fingerprint(article.Content, article.Title, article.URL)
		article.PubDate = date.Unix()
		article.UpdatedDate = date.Unix()
		article.LastModified = now
		article.Unread = true

		exists, err := s.articles.ExistsByGUIDHash(feed.ID, article.GUIDHash)
		if err != nil {
			return fmt.Errorf("failed to check for duplicate article: %w", err)
		}
		if exists {
			continue
		}

		if err := s.articles.Insert(article); err != nil {
			return fmt.Errorf("failed to store article: %w", err)
		}
	}

	return nil
}
