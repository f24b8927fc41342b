package platform

import "time"

// Supported platform names. Adapters register under one of these.
const (
	PlatformGmail = "gmail"
	PlatformIMAP  = "imap"
	PlatformSlack = "slack"
)

// Contact is a raw contact as observed on one platform, before filtering
// and unification.
type Contact struct {
	Platform string
	NativeID string
	Name     string
	Email    string
	Phone    string
	Handle   string
	PhotoURL string
	Meta     Metadata
}

// HasReachableIdentifier reports whether the contact can be reached at all
func (c Contact) HasReachableIdentifier() bool {
	return c.Email != "" || c.Phone != "" || c.Handle != ""
}

// Message is a raw message as delivered by one platform, before dedup and
// thread grouping.
type Message struct {
	Platform    string
	NativeID    string
	SenderID    string
	SenderName  string
	SenderEmail string
	// Counterparty identifies the other party of the conversation. For
	// inbound messages it equals the sender; for outbound the recipient.
	CounterpartyID    string
	CounterpartyName  string
	CounterpartyEmail string
	Content           string
	Timestamp         time.Time
	Read              bool
	Meta              Metadata
}
