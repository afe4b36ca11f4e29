package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		maxLen int
		want   string
	}{
		{name: "short", input: "Brochet", maxLen: 10, want: "Brochet"},
		{name: "exact", input: "Brochet", maxLen: 7, want: "Brochet"},
		{name: "long", input: "Pêche à la mouche", maxLen: 10, want: "Pêche à..."},
		{name: "tiny limit", input: "Brochet", maxLen: 3, want: "Bro"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.input, tt.maxLen); got != tt.want {
				t.Errorf("truncate() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFormatRating(t *testing.T) {
	tests := []struct {
		rating float64
		want   string
	}{
		{rating: 0, want: "....."},
		{rating: 3.4, want: "***.."},
		{rating: 3.5, want: "****."},
		{rating: 9, want: "*****"},
		{rating: -1, want: "....."},
	}

	for _, tt := range tests {
		if got := formatRating(tt.rating); got != tt.want {
			t.Errorf("formatRating(%v) = %q, want %q", tt.rating, got, tt.want)
		}
	}
}

func TestListFlags_Options(t *testing.T) {
	tests := []struct {
		name    string
		flags   listFlags
		want    map[string]string
		wantErr bool
	}{
		{
			name:  "operators",
			flags: listFlags{filters: []string{"rating[gte]=3", "category=peche"}},
			want:  map[string]string{"rating[gte]": "3", "category": "peche"},
		},
		{
			name:  "value with equals sign",
			flags: listFlags{filters: []string{"refLink=https://x.org/?a=b"}},
			want:  map[string]string{"refLink": "https://x.org/?a=b"},
		},
		{
			name:    "missing value separator",
			flags:   listFlags{filters: []string{"rating"}},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := tt.flags.options()
			if (err != nil) != tt.wantErr {
				t.Fatalf("options() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			for k, v := range tt.want {
				if opts.Filter[k] != v {
					t.Errorf("Filter[%q] = %q, want %q", k, opts.Filter[k], v)
				}
			}
		})
	}
}

func TestTable_Render(t *testing.T) {
	var buf bytes.Buffer
	prev := out
	out = &buf
	defer func() { out = prev }()

	table := NewTable("ID", "TITLE")
	table.AddRow("a1", "Brochet")
	table.Render()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("Render() wrote %d lines, want 3:\n%s", len(lines), buf.String())
	}
	if !strings.HasPrefix(lines[1], "--") || !strings.Contains(lines[2], "Brochet") {
		t.Errorf("unexpected table:\n%s", buf.String())
	}
}
