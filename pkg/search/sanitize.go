package search

import "strings"

const maxQueryLength = 100

// SanitizeFTSQuery turns raw user input into a literal FTS5 phrase. FTS5
// interprets its own query language (AND/OR/NOT, NEAR(), column filters,
// quotes) even through parameterized queries, so the input is length-capped,
// has embedded quotes doubled, and is wrapped in quotes so none of those
// operators apply. Empty or whitespace-only input yields "".
func SanitizeFTSQuery(input string) string {
	input = strings.TrimSpace(input)
	if len(input) > maxQueryLength {
		input = input[:maxQueryLength]
	}
	if input == "" {
		return ""
	}

	input = strings.ReplaceAll(input, `"`, `""`)

	return `"` + input + `"`
}

// BuildPrefixQuery builds the typeahead form of a sanitized query: the quoted
// phrase with a trailing * so the last token prefix-matches.
func BuildPrefixQuery(userInput string) string {
	sanitized := SanitizeFTSQuery(userInput)
	if sanitized == "" {
		return ""
	}
	return sanitized + "*"
}
