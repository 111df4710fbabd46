package search

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewReportQuery(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  Query
	}{
		{"Only terms", "spam links", Query{Terms: "spam links"}},
		{"Prefix filter", "spam reported:bob", Query{Terms: "spam", Reported: "bob"}},
		{"Flag filter", "--reporter alice spam", Query{Terms: "spam", Reporter: "alice"}},
		{"Both filters", "reporter:alice --reported bob", Query{Reported: "bob", Reporter: "alice"}},
		{"Unknown flag stays a term", "--loud spam", Query{Terms: "--loud spam"}},
		{"Dangling flag stays a term", "spam --reported", Query{Terms: "spam --reported"}},
		{"Colon in text", "see: http://x", Query{Terms: "see: http://x"}},
		{"Empty", "   ", Query{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewReportQuery(tt.input)
			tt.want.RawInput = tt.input
			require.Equal(t, tt.want, got)
		})
	}
}

func TestQuery_IsEmpty(t *testing.T) {
	require.True(t, NewReportQuery("").IsEmpty())
	require.False(t, NewReportQuery("reported:bob").IsEmpty())
}
