package gmailadapter

import "testing"

func TestParseAddress(t *testing.T) {
	tests := []struct {
		header    string
		wantName  string
		wantEmail string
	}{
		{`Jane Doe <jane@corp.com>`, "Jane Doe", "jane@corp.com"},
		{`"Doe, Jane" <jane@corp.com>`, "Doe, Jane", "jane@corp.com"},
		{`jane@corp.com`, "", "jane@corp.com"},
		{`Jane Doe <jane@corp.com>, Bob <bob@corp.com>`, "Jane Doe", "jane@corp.com"},
		{``, "", ""},
	}

	for _, tt := range tests {
		name, email := parseAddress(tt.header)
		if name != tt.wantName || email != tt.wantEmail {
			t.Errorf("parseAddress(%q) = (%q, %q), want (%q, %q)",
				tt.header, name, email, tt.wantName, tt.wantEmail)
		}
	}
}
