package search

import (
	"chat-relay/domain"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestNewQuery(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected Query
	}{
		{"terms only", "deploy friday", Query{Terms: "deploy friday", Limit: DefaultLimit}},
		{"from filter", "deploy --from alice", Query{Terms: "deploy", From: "alice", Limit: DefaultLimit}},
		{"group and limit", "--group team --limit 3 standup", Query{Terms: "standup", GroupID: "team", Limit: 3}},
		{"limit is capped", "x --limit 5000", Query{Terms: "x", Limit: MaxLimit}},
		{"bad limit ignored", "x --limit many", Query{Terms: "x", Limit: DefaultLimit}},
		{"unknown flag skipped", "x --mood happy", Query{Terms: "x", Limit: DefaultLimit}},
		{"dangling flag is a term", "x --from", Query{Terms: "x --from", Limit: DefaultLimit}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			query := NewQuery(tt.input)
			tt.expected.RawInput = tt.input
			require.Equal(t, tt.expected, query)
		})
	}
}

func TestQuery_IsEmpty(t *testing.T) {
	req := require.New(t)
	req.True(NewQuery("   ").IsEmpty())
	req.False(NewQuery("--from alice").IsEmpty())
	req.False(Query{GroupID: domain.GroupID("team")}.IsEmpty())
}
