package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"crmhub-backend/internal/platform"
	"crmhub-backend/pkg/fuzzy"
)

// FilteredContact is a contact excluded from unification, with the reasons
type FilteredContact struct {
	Contact platform.Contact `json:"contact"`
	Reasons []string         `json:"reasons"`
}

// FilterResult partitions an import batch into real contacts and bots.
// Every contact lands in exactly one of the two sides.
type FilterResult struct {
	Real     []platform.Contact `json:"real"`
	Filtered []FilteredContact  `json:"filtered"`
}

// Default automation keyword set for email local parts. Tuning parameters,
// override via WithAutomationKeywords.
var defaultAutomationKeywords = []string{
	"noreply", "no-reply", "no_reply", "donotreply", "do-not-reply",
	"notifications", "notification", "notify",
	"bot", "robot", "system", "alert", "alerts",
	"mailer", "mailer-daemon", "postmaster", "newsletter",
	"automated", "updates", "digest",
}

// Default transactional/ESP sender domains
var defaultTransactionalDomains = []string{
	"mailchimp.com", "sendgrid.net", "sendgrid.com", "mailgun.org",
	"amazonses.com", "sparkpostmail.com", "mandrillapp.com",
	"substack.com", "intercom-mail.com", "zendesk.com",
	"marketo.com", "hubspot.com", "salesforce.com",
}

var defaultNameTokens = []string{"bot", "system", "notifications", "notification", "noreply", "no-reply", "alert", "daemon"}

// idLikeName matches display names that are purely numeric or machine ids
var idLikeName = regexp.MustCompile(`^[0-9][0-9_\-\.]*$|^[a-f0-9\-]{20,}$`)

// BotFilter pre-filters platform contacts before they enter unification.
// Each rule is independently sufficient to flag; precision of exclusion is
// favored over recall of spam.
type BotFilter struct {
	keywords   []string
	domains    []string
	nameTokens []string
}

// BotFilterOption customizes the filter's keyword sets
type BotFilterOption func(*BotFilter)

func WithAutomationKeywords(keywords []string) BotFilterOption {
	return func(f *BotFilter) { f.keywords = keywords }
}

func WithTransactionalDomains(domains []string) BotFilterOption {
	return func(f *BotFilter) { f.domains = domains }
}

func NewBotFilter(opts ...BotFilterOption) *BotFilter {
	f := &BotFilter{
		keywords:   defaultAutomationKeywords,
		domains:    defaultTransactionalDomains,
		nameTokens: defaultNameTokens,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Partition splits a batch into real contacts and filtered bots. No records
// are written; filtered entries never reach the unifier.
func (f *BotFilter) Partition(batch []platform.Contact) FilterResult {
	result := FilterResult{
		Real:     make([]platform.Contact, 0, len(batch)),
		Filtered: make([]FilteredContact, 0),
	}

	for _, contact := range batch {
		reasons := f.reasons(contact)
		if len(reasons) > 0 {
			result.Filtered = append(result.Filtered, FilteredContact{Contact: contact, Reasons: reasons})
		} else {
			result.Real = append(result.Real, contact)
		}
	}

	return result
}

func (f *BotFilter) reasons(contact platform.Contact) []string {
	var reasons []string

	if contact.Email != "" {
		localPart := fuzzy.EmailLocalPart(contact.Email)
		for _, keyword := range f.keywords {
			// Token match, not substring: "bot" must not flag "abbott@"
			if localPart == keyword || containsToken(localPart, keyword) {
				reasons = append(reasons, fmt.Sprintf("email local part %q matches automation keyword %q", localPart, keyword))
				break
			}
		}

		domain := fuzzy.EmailDomain(contact.Email)
		for _, known := range f.domains {
			if domain == known || strings.HasSuffix(domain, "."+known) {
				reasons = append(reasons, fmt.Sprintf("email domain %q is a known transactional sender", domain))
				break
			}
		}
	}

	if contact.Name != "" {
		name := fuzzy.NormalizeName(contact.Name)
		for _, token := range f.nameTokens {
			if containsToken(name, token) {
				reasons = append(reasons, fmt.Sprintf("display name %q matches automation pattern %q", contact.Name, token))
				break
			}
		}
		if idLikeName.MatchString(strings.ReplaceAll(name, " ", "")) {
			reasons = append(reasons, fmt.Sprintf("display name %q is purely numeric or id-like", contact.Name))
		}
	}

	if strings.TrimSpace(contact.Name) == "" && !contact.HasReachableIdentifier() {
		reasons = append(reasons, "contact has neither a usable name nor a reachable identifier")
	}

	return reasons
}

// containsToken matches token as a whole word inside the normalized name
func containsToken(name, token string) bool {
	for _, word := range strings.FieldsFunc(name, func(r rune) bool {
		return r == ' ' || r == '-' || r == '_' || r == '.' || r == '+'
	}) {
		if word == token {
			return true
		}
	}
	return false
}
