package usecase

import (
	"testing"

	"crmhub-backend/internal/platform"
)

func TestBotFilterFlagsAutomationSenders(t *testing.T) {
	filter := NewBotFilter()

	tests := []struct {
		name     string
		contact  platform.Contact
		filtered bool
	}{
		{
			name:     "noreply local part",
			contact:  platform.Contact{Platform: "gmail", NativeID: "1", Name: "GitHub", Email: "noreply@github.com"},
			filtered: true,
		},
		{
			name:     "hyphenated no-reply local part",
			contact:  platform.Contact{Platform: "gmail", NativeID: "2", Email: "no-reply@accounts.example.com"},
			filtered: true,
		},
		{
			name:     "keyword must match a whole token",
			contact:  platform.Contact{Platform: "gmail", NativeID: "3", Name: "Tony Abbott", Email: "abbott@example.com"},
			filtered: false,
		},
		{
			name:     "transactional sender domain",
			contact:  platform.Contact{Platform: "gmail", NativeID: "4", Name: "Weekly Digest", Email: "hello@sendgrid.net"},
			filtered: true,
		},
		{
			name:     "transactional sender subdomain",
			contact:  platform.Contact{Platform: "gmail", NativeID: "5", Name: "Promo", Email: "promo@mail.amazonses.com"},
			filtered: true,
		},
		{
			name:     "bot display name",
			contact:  platform.Contact{Platform: "slack", NativeID: "U1", Name: "Deploy Bot", Handle: "deploybot"},
			filtered: true,
		},
		{
			name:     "numeric display name",
			contact:  platform.Contact{Platform: "slack", NativeID: "U2", Name: "48213377", Handle: "u48213377"},
			filtered: true,
		},
		{
			name:     "no name and nothing reachable",
			contact:  platform.Contact{Platform: "slack", NativeID: "U3"},
			filtered: true,
		},
		{
			name:     "ordinary human contact",
			contact:  platform.Contact{Platform: "gmail", NativeID: "6", Name: "Jane Doe", Email: "jane.doe@corp.com"},
			filtered: false,
		},
		{
			name:     "name only is enough",
			contact:  platform.Contact{Platform: "slack", NativeID: "U4", Name: "Jane Doe", Handle: "jane"},
			filtered: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := filter.Partition([]platform.Contact{tt.contact})
			got := len(result.Filtered) == 1
			if got != tt.filtered {
				t.Errorf("filtered = %v, want %v (reasons: %v)", got, tt.filtered, result.Filtered)
			}
			if tt.filtered && len(result.Filtered[0].Reasons) == 0 {
				t.Error("filtered contact carries no reasons")
			}
		})
	}
}

func TestBotFilterPartitionIsExclusive(t *testing.T) {
	filter := NewBotFilter()

	batch := []platform.Contact{
		{Platform: "gmail", NativeID: "1", Name: "Jane Doe", Email: "jane@corp.com"},
		{Platform: "gmail", NativeID: "2", Email: "noreply@github.com"},
		{Platform: "slack", NativeID: "U1", Name: "Alert Bot", Handle: "alerts"},
		{Platform: "gmail", NativeID: "3", Name: "John Smith", Email: "john@smith.org"},
	}

	result := filter.Partition(batch)
	if len(result.Real)+len(result.Filtered) != len(batch) {
		t.Fatalf("partition sizes %d + %d != %d", len(result.Real), len(result.Filtered), len(batch))
	}

	seen := make(map[string]bool)
	for _, c := range result.Real {
		seen[c.NativeID] = true
	}
	for _, fc := range result.Filtered {
		if seen[fc.Contact.NativeID] {
			t.Errorf("contact %s appears on both sides of the partition", fc.Contact.NativeID)
		}
	}
}

func TestBotFilterCustomKeywords(t *testing.T) {
	filter := NewBotFilter(WithAutomationKeywords([]string{"ci"}))

	result := filter.Partition([]platform.Contact{
		{Platform: "gmail", NativeID: "1", Email: "ci@builds.example.com"},
		{Platform: "gmail", NativeID: "2", Name: "GitHub", Email: "noreply@example.com"},
	})

	if len(result.Filtered) != 1 || result.Filtered[0].Contact.NativeID != "1" {
		t.Fatalf("expected only the ci sender filtered, got %+v", result.Filtered)
	}
}
