package regex

import "regexp"

var (
	// Revision and path patterns
	Revision = regexp.MustCompile(`^\d+$`)

	// AI response parsing: from the first '{' to the last '}' as long as a
	// "findings" key sits in between.
	FindingsObject = regexp.MustCompile(`(?s)\{.*"findings".*\}`)
)
