package usecase

import (
	"fmt"
	"testing"

	contactdomain "crmhub-backend/internal/contact/domain"
	"crmhub-backend/internal/platform"
)

func strptr(s string) *string { return &s }

func poolOf(contacts ...*contactdomain.UnifiedContact) MatchPool {
	return MatchPool{Contacts: contacts, Identities: map[string][]*contactdomain.PlatformIdentity{}}
}

func TestScoreCandidatesExactIdentityShortCircuits(t *testing.T) {
	pool := MatchPool{
		Contacts: []*contactdomain.UnifiedContact{
			{ID: "c1", FullName: "Jane Doe", Email: strptr("jane@corp.com")},
			{ID: "c2", FullName: "Jane Doe", Email: strptr("jane@corp.com")},
		},
		Identities: map[string][]*contactdomain.PlatformIdentity{
			"c1": {{Platform: platform.PlatformSlack, NativeID: "U123"}},
		},
	}

	got := ScoreCandidates(platform.Contact{
		Platform: platform.PlatformSlack,
		NativeID: "U123",
		Name:     "J. Doe",
		Email:    "jane@corp.com",
	}, pool)

	if len(got) != 1 {
		t.Fatalf("expected exactly one candidate, got %d", len(got))
	}
	if got[0].ContactID != "c1" || got[0].Score != 1.0 {
		t.Errorf("got %+v, want c1 at 1.0", got[0])
	}
	if len(got[0].MatchedFields) != 1 || got[0].MatchedFields[0] != "platform_identity" {
		t.Errorf("unexpected matched fields %v", got[0].MatchedFields)
	}
}

func TestScoreCandidatesEmailTier(t *testing.T) {
	pool := poolOf(&contactdomain.UnifiedContact{ID: "c1", FullName: "Jane Doe", Email: strptr("Jane@Corp.com")})

	got := ScoreCandidates(platform.Contact{
		Platform: platform.PlatformGmail,
		NativeID: "people/1",
		Name:     "Completely Different Name",
		Email:    "  jane@corp.COM ",
	}, pool)

	if len(got) != 1 || got[0].Score != 0.95 {
		t.Fatalf("expected one candidate at 0.95, got %+v", got)
	}
	if got[0].Score < AutoMergeThreshold {
		t.Errorf("email match must clear the auto-merge band")
	}
}

func TestScoreCandidatesPhoneTierIgnoresCountryCode(t *testing.T) {
	pool := poolOf(&contactdomain.UnifiedContact{ID: "c1", FullName: "Bob", Phone: strptr("+1 (415) 555-0142")})

	got := ScoreCandidates(platform.Contact{
		Platform: platform.PlatformSlack,
		NativeID: "U9",
		Name:     "Robert",
		Phone:    "4155550142",
	}, pool)

	if len(got) != 1 || got[0].Score != 0.90 {
		t.Fatalf("expected one candidate at 0.90, got %+v", got)
	}
}

func TestScoreCandidatesFuzzyNameNeedsSecondarySignal(t *testing.T) {
	tests := []struct {
		name    string
		contact platform.Contact
		want    int
	}{
		{
			name: "similar name with shared email domain",
			contact: platform.Contact{
				Platform: platform.PlatformSlack, NativeID: "U1",
				Name: "Jon Smith", Email: "jsmith@corp.com",
			},
			want: 1,
		},
		{
			name: "similar name alone is not enough",
			contact: platform.Contact{
				Platform: platform.PlatformSlack, NativeID: "U2",
				Name: "Don Smith", Email: "don@elsewhere.net",
			},
			want: 0,
		},
		{
			name: "dissimilar name with shared domain",
			contact: platform.Contact{
				Platform: platform.PlatformSlack, NativeID: "U3",
				Name: "Alice Wu", Email: "alice@corp.com",
			},
			want: 0,
		},
	}

	pool := poolOf(&contactdomain.UnifiedContact{ID: "c1", FullName: "John Smith", Email: strptr("john.smith@corp.com")})

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreCandidates(tt.contact, pool)
			if len(got) != tt.want {
				t.Errorf("got %d candidates, want %d: %+v", len(got), tt.want, got)
			}
			if tt.want == 1 {
				if got[0].Score < ReviewThreshold || got[0].Score >= AutoMergeThreshold {
					t.Errorf("fuzzy score %.2f outside review band", got[0].Score)
				}
			}
		})
	}
}

func TestScoreCandidatesTierOrdering(t *testing.T) {
	// One candidate per tier; ranking must follow tier confidence.
	pool := MatchPool{
		Contacts: []*contactdomain.UnifiedContact{
			{ID: "email-match", FullName: "Other", Email: strptr("jane@corp.com")},
			{ID: "phone-match", FullName: "Other", Phone: strptr("+84 987 654 321")},
			{ID: "name-match", FullName: "Jane Doe", Email: strptr("someone@corp.com")},
		},
		Identities: map[string][]*contactdomain.PlatformIdentity{},
	}

	got := ScoreCandidates(platform.Contact{
		Platform: platform.PlatformGmail,
		NativeID: "people/7",
		Name:     "Jane Doe",
		Email:    "jane@corp.com",
		Phone:    "987654321",
	}, pool)

	if len(got) != 3 {
		t.Fatalf("expected three candidates, got %+v", got)
	}
	wantOrder := []string{"email-match", "phone-match", "name-match"}
	for i, id := range wantOrder {
		if got[i].ContactID != id {
			t.Errorf("position %d: got %s, want %s", i, got[i].ContactID, id)
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("scores not descending at %d: %+v", i, got)
		}
	}
}

func TestScoreCandidatesDeterministicTieBreak(t *testing.T) {
	pool := poolOf(
		&contactdomain.UnifiedContact{ID: "c-b", FullName: "X", Email: strptr("same@corp.com")},
		&contactdomain.UnifiedContact{ID: "c-a", FullName: "X", Email: strptr("same@corp.com")},
	)
	in := platform.Contact{Platform: platform.PlatformGmail, NativeID: "n", Name: "Y", Email: "same@corp.com"}

	first := ScoreCandidates(in, pool)
	for i := 0; i < 10; i++ {
		again := ScoreCandidates(in, pool)
		if fmt.Sprintf("%+v", again) != fmt.Sprintf("%+v", first) {
			t.Fatalf("ranking is not deterministic: %+v vs %+v", first, again)
		}
	}
	if first[0].ContactID != "c-a" {
		t.Errorf("equal scores must break ties by contact id, got %s first", first[0].ContactID)
	}
}

func TestScoreCandidatesCapsAtFive(t *testing.T) {
	pool := MatchPool{Identities: map[string][]*contactdomain.PlatformIdentity{}}
	for i := 0; i < 8; i++ {
		pool.Contacts = append(pool.Contacts, &contactdomain.UnifiedContact{
			ID:       fmt.Sprintf("c%d", i),
			FullName: "X",
			Email:    strptr("dup@corp.com"),
		})
	}

	got := ScoreCandidates(platform.Contact{Platform: platform.PlatformGmail, NativeID: "n", Name: "Y", Email: "dup@corp.com"}, pool)
	if len(got) != topK {
		t.Errorf("got %d candidates, want %d", len(got), topK)
	}
}
