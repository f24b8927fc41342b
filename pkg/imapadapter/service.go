package imapadapter

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	"github.com/emersion/go-message/mail"

	"crmhub-backend/internal/platform"
)

// Credentials are one user's IMAP connection settings
type Credentials struct {
	Server   string
	Port     int
	Username string
	Password string
}

// CredentialsProvider supplies per-user IMAP credentials
type CredentialsProvider interface {
	IMAPCredentials(ctx context.Context, userID string) (*Credentials, error)
}

// Adapter implements platform.Adapter over plain IMAP. IMAP has no contact
// book and no thread ids, so contacts are derived from message envelopes and
// threads from normalized subject lines.
type Adapter struct {
	credentials CredentialsProvider
	// window bounds the envelope scan when no Since watermark exists yet
	window time.Duration
}

// NewAdapter creates an IMAP platform adapter
func NewAdapter(credentials CredentialsProvider) *Adapter {
	return &Adapter{
		credentials: credentials,
		window:      30 * 24 * time.Hour,
	}
}

func (a *Adapter) Platform() string   { return platform.PlatformIMAP }
func (a *Adapter) SupportsPush() bool { return false }

func (a *Adapter) connect(ctx context.Context, userID string) (*client.Client, *Credentials, error) {
	creds, err := a.credentials.IMAPCredentials(ctx, userID)
	if err != nil {
		return nil, nil, platform.ErrAuthExpired
	}

	c, err := client.DialTLS(fmt.Sprintf("%s:%d", creds.Server, creds.Port), nil)
	if err != nil {
		return nil, nil, fmt.Errorf("unable to connect to %s: %w", creds.Server, err)
	}
	if err := c.Login(creds.Username, creds.Password); err != nil {
		c.Logout()
		return nil, nil, platform.ErrAuthExpired
	}
	return c, creds, nil
}

func (a *Adapter) FetchContacts(ctx context.Context, userID string) ([]platform.Contact, error) {
	c, creds, err := a.connect(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer c.Logout()

	envelopes, err := a.fetchEnvelopes(c, time.Now().Add(-a.window), 200)
	if err != nil {
		return nil, err
	}

	owner := strings.ToLower(creds.Username)
	seen := make(map[string]bool)
	var contacts []platform.Contact
	for _, env := range envelopes {
		for _, addr := range append(env.From, env.To...) {
			email := strings.ToLower(addr.Address())
			if email == "" || email == owner || seen[email] {
				continue
			}
			seen[email] = true
			contacts = append(contacts, platform.Contact{
				Platform: platform.PlatformIMAP,
				NativeID: email,
				Name:     addr.PersonalName,
				Email:    email,
			})
		}
	}
	return contacts, nil
}

func (a *Adapter) FetchMessages(ctx context.Context, userID string, opts platform.FetchOptions) ([]platform.Message, error) {
	c, creds, err := a.connect(ctx, userID)
	if err != nil {
		return nil, err
	}
	defer c.Logout()

	since := opts.Since
	if since.IsZero() {
		since = time.Now().Add(-a.window)
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 200
	}

	fetched, err := a.fetchFull(c, since, uint32(limit))
	if err != nil {
		return nil, err
	}

	owner := strings.ToLower(creds.Username)
	messages := make([]platform.Message, 0, len(fetched))
	for _, msg := range fetched {
		if msg.Envelope == nil {
			continue
		}
		converted, ok := convertMessage(msg, owner)
		if !ok {
			continue
		}
		messages = append(messages, converted)
	}
	return messages, nil
}

// fetchEnvelopes loads envelopes of messages since the given time, newest
// last, capped at limit
func (a *Adapter) fetchEnvelopes(c *client.Client, since time.Time, limit uint32) ([]*imap.Envelope, error) {
	msgs, err := a.fetch(c, since, limit, false)
	if err != nil {
		return nil, err
	}
	envelopes := make([]*imap.Envelope, 0, len(msgs))
	for _, m := range msgs {
		if m.Envelope != nil {
			envelopes = append(envelopes, m.Envelope)
		}
	}
	return envelopes, nil
}

func (a *Adapter) fetchFull(c *client.Client, since time.Time, limit uint32) ([]*imap.Message, error) {
	return a.fetch(c, since, limit, true)
}

func (a *Adapter) fetch(c *client.Client, since time.Time, limit uint32, withBody bool) ([]*imap.Message, error) {
	if _, err := c.Select("INBOX", true); err != nil {
		return nil, fmt.Errorf("unable to select INBOX: %w", err)
	}

	criteria := imap.NewSearchCriteria()
	criteria.Since = since
	uids, err := c.UidSearch(criteria)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}
	if len(uids) == 0 {
		return nil, nil
	}
	if uint32(len(uids)) > limit {
		uids = uids[uint32(len(uids))-limit:]
	}

	seqset := new(imap.SeqSet)
	seqset.AddNum(uids...)

	section := &imap.BodySectionName{Peek: true}
	items := []imap.FetchItem{imap.FetchEnvelope, imap.FetchFlags, imap.FetchUid}
	if withBody {
		items = append(items, section.FetchItem())
	}

	ch := make(chan *imap.Message, 10)
	done := make(chan error, 1)
	go func() {
		done <- c.UidFetch(seqset, items, ch)
	}()

	var out []*imap.Message
	for msg := range ch {
		out = append(out, msg)
	}
	if err := <-done; err != nil {
		return out, fmt.Errorf("fetch failed: %w", err)
	}
	return out, nil
}

func convertMessage(msg *imap.Message, owner string) (platform.Message, bool) {
	env := msg.Envelope
	if env.MessageId == "" || len(env.From) == 0 {
		return platform.Message{}, false
	}

	sender := env.From[0]
	senderEmail := strings.ToLower(sender.Address())

	out := platform.Message{
		Platform:    platform.PlatformIMAP,
		NativeID:    env.MessageId,
		SenderID:    senderEmail,
		SenderName:  sender.PersonalName,
		SenderEmail: senderEmail,
		Content:     bodyText(msg),
		Timestamp:   env.Date,
		Read:        hasFlag(msg.Flags, imap.SeenFlag),
		Meta: platform.EmailMetadata{
			ThreadID:    subjectThreadID(env.Subject),
			SubjectLine: env.Subject,
			MessageID:   env.MessageId,
		},
	}

	if senderEmail == owner {
		if len(env.To) == 0 {
			return platform.Message{}, false
		}
		recipient := env.To[0]
		out.CounterpartyID = strings.ToLower(recipient.Address())
		out.CounterpartyName = recipient.PersonalName
		out.CounterpartyEmail = out.CounterpartyID
	} else {
		out.CounterpartyID = senderEmail
		out.CounterpartyName = sender.PersonalName
		out.CounterpartyEmail = senderEmail
	}
	return out, true
}

// subjectThreadID groups reply chains by their normalized subject, since
// plain IMAP exposes no thread identifier
func subjectThreadID(subject string) string {
	s := strings.TrimSpace(strings.ToLower(subject))
	for {
		trimmed := s
		for _, prefix := range []string{"re:", "fwd:", "fw:"} {
			trimmed = strings.TrimSpace(strings.TrimPrefix(trimmed, prefix))
		}
		if trimmed == s {
			break
		}
		s = trimmed
	}
	if s == "" {
		return ""
	}
	return "subj:" + s
}

func hasFlag(flags []string, flag string) bool {
	for _, f := range flags {
		if f == flag {
			return true
		}
	}
	return false
}

// bodyText extracts the first inline text part of the message, truncated
// so a pathological body cannot blow up storage
func bodyText(msg *imap.Message) string {
	section := &imap.BodySectionName{Peek: true}
	r := msg.GetBody(section)
	if r == nil {
		return ""
	}

	mr, err := mail.CreateReader(r)
	if err != nil {
		return ""
	}
	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Printf("[IMAP] Error reading message part: %v", err)
			break
		}
		if _, ok := part.Header.(*mail.InlineHeader); ok {
			body, err := io.ReadAll(io.LimitReader(part.Body, 64*1024))
			if err != nil {
				return ""
			}
			return string(body)
		}
	}
	return ""
}
