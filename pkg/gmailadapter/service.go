package gmailadapter

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/people/v1"

	"crmhub-backend/internal/platform"
)

// TokenProvider supplies and persists per-user OAuth tokens. Token refresh
// happens inside the adapter; the provider just stores the result.
type TokenProvider interface {
	Token(ctx context.Context, userID string) (*oauth2.Token, error)
	SaveToken(userID string, token *oauth2.Token) error
}

// Adapter implements platform.Adapter on the Gmail and People APIs
type Adapter struct {
	clientID     string
	clientSecret string
	tokens       TokenProvider
}

type notifyTokenSource struct {
	src     oauth2.TokenSource
	current *oauth2.Token
	userID  string
	tokens  TokenProvider
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if s.current.AccessToken != t.AccessToken {
		s.current = t
		if err := s.tokens.SaveToken(s.userID, t); err != nil {
			log.Printf("[Gmail] Failed to persist refreshed token for %s: %v", s.userID, err)
		}
	}
	return t, nil
}

// NewAdapter creates a Gmail platform adapter
func NewAdapter(clientID, clientSecret string, tokens TokenProvider) *Adapter {
	return &Adapter{
		clientID:     clientID,
		clientSecret: clientSecret,
		tokens:       tokens,
	}
}

func (a *Adapter) Platform() string { return platform.PlatformGmail }

// SupportsPush is true: Gmail delivers change notifications over Pub/Sub
func (a *Adapter) SupportsPush() bool { return true }

func (a *Adapter) httpClient(ctx context.Context, userID string) (*oauth2.Token, option.ClientOption, error) {
	token, err := a.tokens.Token(ctx, userID)
	if err != nil {
		return nil, nil, platform.ErrAuthExpired
	}

	config := &oauth2.Config{
		ClientID:     a.clientID,
		ClientSecret: a.clientSecret,
		Endpoint:     google.Endpoint,
	}
	wrapped := &notifyTokenSource{
		src:     config.TokenSource(ctx, token),
		current: token,
		userID:  userID,
		tokens:  a.tokens,
	}
	return token, option.WithHTTPClient(oauth2.NewClient(ctx, wrapped)), nil
}

func (a *Adapter) FetchContacts(ctx context.Context, userID string) ([]platform.Contact, error) {
	_, clientOpt, err := a.httpClient(ctx, userID)
	if err != nil {
		return nil, err
	}

	svc, err := people.NewService(ctx, clientOpt)
	if err != nil {
		return nil, fmt.Errorf("unable to create People service: %w", err)
	}

	var contacts []platform.Contact
	pageToken := ""
	for {
		call := svc.People.Connections.List("people/me").
			PersonFields("names,emailAddresses,phoneNumbers,photos").
			PageSize(200)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Context(ctx).Do()
		if err != nil {
			return contacts, mapGoogleError(err)
		}

		for _, person := range resp.Connections {
			contacts = append(contacts, convertPerson(person))
		}

		pageToken = resp.NextPageToken
		if pageToken == "" {
			break
		}
	}
	return contacts, nil
}

func (a *Adapter) FetchMessages(ctx context.Context, userID string, opts platform.FetchOptions) ([]platform.Message, error) {
	_, clientOpt, err := a.httpClient(ctx, userID)
	if err != nil {
		return nil, err
	}

	srv, err := gmail.NewService(ctx, clientOpt)
	if err != nil {
		return nil, fmt.Errorf("unable to create Gmail service: %w", err)
	}

	profile, err := srv.Users.GetProfile("me").Context(ctx).Do()
	if err != nil {
		return nil, mapGoogleError(err)
	}
	ownerEmail := strings.ToLower(profile.EmailAddress)

	query := ""
	if !opts.Since.IsZero() {
		// Gmail's after: operator takes a unix timestamp and is inclusive
		query = fmt.Sprintf("after:%d", opts.Since.Unix())
	}

	limit := int64(opts.Limit)
	if limit <= 0 || limit > 500 {
		limit = 500
	}

	var messages []platform.Message
	pageToken := ""
	for {
		call := srv.Users.Messages.List("me").MaxResults(limit)
		if query != "" {
			call = call.Q(query)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Context(ctx).Do()
		if err != nil {
			return messages, mapGoogleError(err)
		}

		for _, stub := range resp.Messages {
			full, err := srv.Users.Messages.Get("me", stub.Id).
				Format("metadata").
				MetadataHeaders("From", "To", "Subject", "Message-ID").
				Context(ctx).Do()
			if err != nil {
				return messages, mapGoogleError(err)
			}
			messages = append(messages, convertMessage(full, ownerEmail))
		}

		pageToken = resp.NextPageToken
		if pageToken == "" || int64(len(messages)) >= limit {
			break
		}
	}
	return messages, nil
}

func convertPerson(person *people.Person) platform.Contact {
	contact := platform.Contact{
		Platform: platform.PlatformGmail,
		NativeID: person.ResourceName,
	}
	if len(person.Names) > 0 {
		contact.Name = person.Names[0].DisplayName
	}
	if len(person.EmailAddresses) > 0 {
		contact.Email = person.EmailAddresses[0].Value
	}
	if len(person.PhoneNumbers) > 0 {
		contact.Phone = person.PhoneNumbers[0].Value
	}
	if len(person.Photos) > 0 {
		contact.PhotoURL = person.Photos[0].Url
	}
	return contact
}

func convertMessage(msg *gmail.Message, ownerEmail string) platform.Message {
	out := platform.Message{
		Platform:  platform.PlatformGmail,
		NativeID:  msg.Id,
		Timestamp: time.UnixMilli(msg.InternalDate),
		Read:      !hasLabel(msg, "UNREAD"),
	}

	var from, to, subject string
	if msg.Payload != nil {
		for _, h := range msg.Payload.Headers {
			switch h.Name {
			case "From":
				from = h.Value
			case "To":
				to = h.Value
			case "Subject":
				subject = h.Value
			}
		}
	}
	out.Content = msg.Snippet
	out.Meta = platform.EmailMetadata{ThreadID: msg.ThreadId, SubjectLine: subject}

	senderName, senderEmail := parseAddress(from)
	out.SenderID = senderEmail
	out.SenderName = senderName
	out.SenderEmail = senderEmail

	if strings.ToLower(senderEmail) == ownerEmail {
		// Outbound: the counterparty is the first recipient
		name, email := parseAddress(to)
		out.CounterpartyID = email
		out.CounterpartyName = name
		out.CounterpartyEmail = email
	} else {
		out.CounterpartyID = senderEmail
		out.CounterpartyName = senderName
		out.CounterpartyEmail = senderEmail
	}
	return out
}

func hasLabel(msg *gmail.Message, label string) bool {
	for _, l := range msg.LabelIds {
		if l == label {
			return true
		}
	}
	return false
}

// parseAddress extracts the display name and address from an RFC 5322
// address header, tolerating bare addresses and address lists
func parseAddress(header string) (name, email string) {
	if header == "" {
		return "", ""
	}
	if addrs, err := mail.ParseAddressList(header); err == nil && len(addrs) > 0 {
		return addrs[0].Name, addrs[0].Address
	}
	if addr, err := mail.ParseAddress(header); err == nil {
		return addr.Name, addr.Address
	}
	return "", strings.TrimSpace(header)
}

func mapGoogleError(err error) error {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case 401:
			return platform.ErrAuthExpired
		case 429:
			return &platform.RateLimitedError{Platform: platform.PlatformGmail, RetryAfter: time.Minute}
		}
	}
	return err
}
