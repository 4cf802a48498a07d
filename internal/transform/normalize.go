package transform

import (
	"regexp"
	"strings"
)

var (
	listMarkerPattern = regexp.MustCompile(`([1-9])\. ?`)
	brRunPattern      = regexp.MustCompile(`(?:<br>){3,}`)
)

// Normalize enforces the line-break convention downstream templates expect:
// every numbered list marker (1-9 followed by "." with or without a trailing
// space) gets a <br><br> after it, and runs of three or more <br> collapse to
// exactly two. Idempotent: applying it twice equals applying it once.
func Normalize(text string) string {
	s := strings.TrimSpace(text)
	s = listMarkerPattern.ReplaceAllString(s, "${1}. <br><br>")
	s = brRunPattern.ReplaceAllString(s, "<br><br>")
	return s
}
