package platform

// Metadata is the per-platform message/contact payload. Each platform ships
// its own concrete variant; consumers ask for capabilities instead of probing
// fields, so adding a platform is a compile-checked variant addition.
type Metadata interface {
	// NativeThreadKey returns the platform's own thread identifier, if any
	NativeThreadKey() (string, bool)
	// Channel returns the conversation/channel identifier, if any
	Channel() (string, bool)
	// Subject returns the message subject line, if any
	Subject() (string, bool)
}

// EmailMetadata is the variant for email platforms (Gmail, IMAP)
type EmailMetadata struct {
	ThreadID    string // RFC 5322 thread or Gmail thread id
	SubjectLine string
	MessageID   string // RFC 5322 Message-ID header
}

func (m EmailMetadata) NativeThreadKey() (string, bool) { return m.ThreadID, m.ThreadID != "" }
func (m EmailMetadata) Channel() (string, bool)         { return "", false }
func (m EmailMetadata) Subject() (string, bool)         { return m.SubjectLine, m.SubjectLine != "" }

// ChatMetadata is the variant for team-chat platforms (Slack-style)
type ChatMetadata struct {
	ChannelID string
	ThreadTS  string // reply-thread timestamp; empty for top-level messages
}

func (m ChatMetadata) NativeThreadKey() (string, bool) { return m.ThreadTS, m.ThreadTS != "" }
func (m ChatMetadata) Channel() (string, bool)         { return m.ChannelID, m.ChannelID != "" }
func (m ChatMetadata) Subject() (string, bool)         { return "", false }
