package search

import (
	"chat-relay/domain"
	"strconv"
	"strings"
)

const (
	DefaultLimit = 10
	MaxLimit     = 100
)

// Query represents the structured parameters of a message search.
// It decouples the raw user input from what the index needs.
type Query struct {
	RawInput string          // The original input of the user
	Terms    string          // Free text matched against message content
	From     domain.Identity // Only messages sent by this identity
	GroupID  domain.GroupID  // Only messages of this group
	Limit    int             // Number of results
}

// NewQuery parses a raw string carrying command-line style flags.
// Example: deploy friday --from alice --group 1b4e... --limit 5
func NewQuery(input string) Query {
	query := Query{RawInput: input, Limit: DefaultLimit}

	parts := strings.Fields(input)
	var textTerms []string

	for i := 0; i < len(parts); i++ {
		part := parts[i]

		if strings.HasPrefix(part, "--") && i+1 < len(parts) {
			value := parts[i+1]
			switch strings.TrimPrefix(part, "--") {
			case "from":
				query.From = domain.Identity(value)
			case "group":
				query.GroupID = domain.GroupID(value)
			case "limit":
				if limit, err := strconv.Atoi(value); err == nil && limit > 0 {
					query.Limit = min(limit, MaxLimit)
				}
			}
			i++ // Skip the value part in next iteration
			continue
		}

		textTerms = append(textTerms, part)
	}

	query.Terms = strings.Join(textTerms, " ")
	return query
}

// IsEmpty reports whether the query carries neither terms nor filters.
func (q Query) IsEmpty() bool {
	return q.Terms == "" && q.From == "" && q.GroupID == ""
}
