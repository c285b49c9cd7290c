package review

import "testing"

func TestStripMentions(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"leading mention", "@alice please check this", "please check this"},
		{"mid mention", "hey @bob what about this?", "hey what about this?"},
		{"multiple mentions", "@alice @bob thoughts?", "thoughts?"},
		{"no mention", "looks good to me", "looks good to me"},
		{"only mention", "@alice", ""},
		{"email is kept", "mail me at a@b.com", "mail me at a@b.com"},
		{"collapses whitespace", "  spaced   @x   out  ", "spaced out"},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripMentions(tt.body); got != tt.want {
				t.Errorf("StripMentions(%q) = %q, want %q", tt.body, got, tt.want)
			}
		})
	}
}
