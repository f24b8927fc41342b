package usecase

import (
	"sort"

	contactdomain "crmhub-backend/internal/contact/domain"
	"crmhub-backend/internal/platform"
	"crmhub-backend/pkg/fuzzy"
)

// Decision bands consumed by callers of the matcher
const (
	AutoMergeThreshold = 0.85 // at/above: attach to the candidate
	ReviewThreshold    = 0.40 // [review, auto-merge): surface for manual disambiguation
)

// Tier confidences
const (
	scoreExactIdentity = 1.0
	scoreEmailMatch    = 0.95
	scorePhoneMatch    = 0.90
	fuzzyNameCutoff    = 0.55 // minimum normalized name similarity for tier 4
	fuzzyScoreFloor    = 0.50
	fuzzyScoreCeil     = 0.80
)

// phoneCompareDigits is how many trailing digits two phone numbers must share.
// Comparing the national-number tail tolerates country-code variance.
const phoneCompareDigits = 9

// topK caps the candidate list returned to callers
const topK = 5

// MatchCandidate is an ephemeral scoring result, consumed immediately by the
// caller and never persisted
type MatchCandidate struct {
	ContactID     string   `json:"contact_id"`
	Score         float64  `json:"score"`
	MatchedFields []string `json:"matched_fields"`
}

// MatchPool is the unified-contact pool of one user, loaded once per batch
type MatchPool struct {
	Contacts   []*contactdomain.UnifiedContact
	Identities map[string][]*contactdomain.PlatformIdentity // keyed by contact ID
}

// ScoreCandidates ranks the pool against one platform contact, highest
// confidence first, truncated to the top five. It is a pure function of its
// inputs: identical inputs always produce identical scores and ranking.
func ScoreCandidates(c platform.Contact, pool MatchPool) []MatchCandidate {
	// Tier 1: exact platform identity. This is literally "already known" and
	// short-circuits all further scoring.
	for _, contact := range pool.Contacts {
		for _, identity := range pool.Identities[contact.ID] {
			if identity.Platform == c.Platform && identity.NativeID == c.NativeID {
				return []MatchCandidate{{
					ContactID:     contact.ID,
					Score:         scoreExactIdentity,
					MatchedFields: []string{"platform_identity"},
				}}
			}
		}
	}

	candidates := make([]MatchCandidate, 0)
	for _, contact := range pool.Contacts {
		if candidate, ok := scoreContact(c, contact, pool.Identities[contact.ID]); ok {
			candidates = append(candidates, candidate)
		}
	}

	// Deterministic ranking: score descending, contact id ascending on ties
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].ContactID < candidates[j].ContactID
	})

	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates
}

// scoreContact evaluates tiers 2-4 for one pool contact. The highest tier that
// matches determines the confidence.
func scoreContact(c platform.Contact, contact *contactdomain.UnifiedContact, identities []*contactdomain.PlatformIdentity) (MatchCandidate, bool) {
	// Tier 2: normalized email equality against the canonical email and every
	// raw platform email
	if c.Email != "" {
		email := fuzzy.NormalizeEmail(c.Email)
		if contact.Email != nil && fuzzy.NormalizeEmail(*contact.Email) == email {
			return MatchCandidate{ContactID: contact.ID, Score: scoreEmailMatch, MatchedFields: []string{"email"}}, true
		}
		for _, identity := range identities {
			if identity.RawEmail != "" && fuzzy.NormalizeEmail(identity.RawEmail) == email {
				return MatchCandidate{ContactID: contact.ID, Score: scoreEmailMatch, MatchedFields: []string{"email"}}, true
			}
		}
	}

	// Tier 3: trailing-digits phone comparison
	if c.Phone != "" {
		phone := fuzzy.TrailingDigits(c.Phone, phoneCompareDigits)
		if phone != "" {
			if contact.Phone != nil && fuzzy.TrailingDigits(*contact.Phone, phoneCompareDigits) == phone {
				return MatchCandidate{ContactID: contact.ID, Score: scorePhoneMatch, MatchedFields: []string{"phone"}}, true
			}
			for _, identity := range identities {
				if identity.RawPhone != "" && fuzzy.TrailingDigits(identity.RawPhone, phoneCompareDigits) == phone {
					return MatchCandidate{ContactID: contact.ID, Score: scorePhoneMatch, MatchedFields: []string{"phone"}}, true
				}
			}
		}
	}

	// Tier 4: fuzzy name similarity plus at least one weak secondary signal
	if c.Name != "" && contact.FullName != "" {
		similarity := fuzzy.NameSimilarity(c.Name, contact.FullName)
		if similarity >= fuzzyNameCutoff {
			fields := secondarySignals(c, contact, identities)
			if len(fields) > 0 {
				// Map similarity in [cutoff, 1] onto [floor, ceil]
				score := fuzzyScoreFloor + (similarity-fuzzyNameCutoff)/(1-fuzzyNameCutoff)*(fuzzyScoreCeil-fuzzyScoreFloor)
				return MatchCandidate{
					ContactID:     contact.ID,
					Score:         score,
					MatchedFields: append([]string{"name"}, fields...),
				}, true
			}
		}
	}

	return MatchCandidate{}, false
}

// secondarySignals collects the weak corroborating signals for a fuzzy name
// match: a shared email domain or overlapping initials.
func secondarySignals(c platform.Contact, contact *contactdomain.UnifiedContact, identities []*contactdomain.PlatformIdentity) []string {
	var fields []string

	if c.Email != "" {
		domain := fuzzy.EmailDomain(c.Email)
		if domain != "" {
			if contact.Email != nil && fuzzy.EmailDomain(*contact.Email) == domain {
				fields = append(fields, "email_domain")
			} else {
				for _, identity := range identities {
					if identity.RawEmail != "" && fuzzy.EmailDomain(identity.RawEmail) == domain {
						fields = append(fields, "email_domain")
						break
					}
				}
			}
		}
	}

	if c.Name != "" && contact.FullName != "" {
		if initials := fuzzy.Initials(c.Name); initials != "" && initials == fuzzy.Initials(contact.FullName) {
			fields = append(fields, "initials")
		}
	}

	return fields
}
