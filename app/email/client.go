package email

import (
	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/charset"
)

func init() {
	// Decodes RFC 2047 encoded words in envelope fields, so non-UTF-8
	// subjects arrive readable.
	imap.CharsetReader = charset.Reader
}

// MailboxClient is the subset of the IMAP client the poller needs. Tests
// substitute an in-memory fake for it.
type MailboxClient interface {
	Login(username, password string) error
	Select(name string, readOnly bool) (*imap.MailboxStatus, error)
	Search(criteria *imap.SearchCriteria) ([]uint32, error)
	Fetch(seqset *imap.SeqSet, items []imap.FetchItem, ch chan *imap.Message) error
	Store(seqset *imap.SeqSet, item imap.StoreItem, value interface{}, ch chan *imap.Message) error
	Logout() error
}

// Dialer opens a mailbox connection to addr ("host:port").
type Dialer func(addr string) (MailboxClient, error)

func DialTLS(addr string) (MailboxClient, error) {
	return client.DialTLS(addr, nil)
}
