package search

import (
	"chat-relay/domain"
	"strings"
)

const (
	FieldReported = "reported"
	FieldReporter = "reporter"
)

// Query represents the structured parameters for a report search.
// It decouples the operator input from the actual storage engine requirements.
type Query struct {
	RawInput string          // The original input from the operator
	Terms    string          // Free words matched against the reason
	Reported domain.Identity // Only reports against this identity
	Reporter domain.Identity // Only reports filed by this identity
}

// NewReportQuery parses a raw string to extract filters.
// Both "reported:bob" and "--reported bob" are understood.
// Example: spam links --reporter alice
func NewReportQuery(input string) Query {
	query := Query{RawInput: input}

	parts := strings.Fields(input)
	var textTerms []string

	for i := 0; i < len(parts); i++ {
		part := parts[i]

		if strings.HasPrefix(part, "--") && i+1 < len(parts) {
			if query.setFilter(strings.TrimPrefix(part, "--"), parts[i+1]) {
				i++ // Skip the value part in next iteration
				continue
			}
		}
		if key, val, ok := strings.Cut(part, ":"); ok && val != "" && query.setFilter(key, val) {
			continue
		}
		textTerms = append(textTerms, part)
	}

	query.Terms = strings.Join(textTerms, " ")
	return query
}

func (q *Query) setFilter(key, val string) bool {
	switch key {
	case FieldReported:
		q.Reported = domain.Identity(val)
	case FieldReporter:
		q.Reporter = domain.Identity(val)
	default:
		return false
	}
	return true
}

// IsEmpty reports whether the query matches every report.
func (q Query) IsEmpty() bool {
	return q.Terms == "" && q.Reported == "" && q.Reporter == ""
}
