// Package plan extracts date-tagged content segments from monthly plan
// documents.
//
// A plan document is free-form UTF-8 text containing zero or more segments of
// the form <YYYY-MM-DD>content</YYYY-MM-DD>. Tags are expected to be
// well-formed and non-nested. When they are not, the parser is deliberately
// non-greedy and first-match-wins: each segment ends at the first closing tag
// carrying the same date as its opening tag, and scanning resumes after that
// closing tag.
package plan

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
)

// ErrNotFound is returned when no usable segment exists for the request.
var ErrNotFound = errors.New("plan: no dated segment found")

const dateLayout = "2006-01-02"

var openTagPattern = regexp.MustCompile(`<(\d{4}-\d{2}-\d{2})>`)

// Segment is the result of one extraction.
type Segment struct {
	DateRequested time.Time
	DateUsed      time.Time
	Text          string
	Fallback      bool
}

type taggedSegment struct {
	date time.Time
	text string
}

// segments scans the document for well-formed date-tagged segments, in
// document order. Open tags without a matching close tag are skipped.
func segments(doc string) []taggedSegment {
	var out []taggedSegment

	pos := 0
	for pos < len(doc) {
		loc := openTagPattern.FindStringSubmatchIndex(doc[pos:])
		if loc == nil {
			break
		}

		dateStr := doc[pos+loc[2] : pos+loc[3]]
		openEnd := pos + loc[1]

		date, err := time.Parse(dateLayout, dateStr)
		if err != nil {
			// Shaped like a date tag but not a real date (e.g. month 13).
			pos = openEnd
			continue
		}

		closing := "</" + dateStr + ">"
		rel := strings.Index(doc[openEnd:], closing)
		if rel < 0 {
			pos = openEnd
			continue
		}

		out = append(out, taggedSegment{
			date: date,
			text: strings.TrimSpace(doc[openEnd : openEnd+rel]),
		})
		pos = openEnd + rel + len(closing)
	}

	return out
}

// Extract returns the segment tagged exactly targetDate. ErrNotFound is
// returned both when the document holds no valid tags and when no tag matches
// the date; there is no fallback.
func Extract(doc string, targetDate time.Time) (Segment, error) {
	target := truncateToDay(targetDate)

	for _, seg := range segments(doc) {
		if seg.date.Equal(target) {
			return Segment{
				DateRequested: target,
				DateUsed:      seg.date,
				Text:          seg.text,
			}, nil
		}
	}
	return Segment{}, ErrNotFound
}

// ExtractNearest returns the exact segment when present, and otherwise the
// segment whose date is closest to targetDate by absolute day distance. Ties
// are broken by document order (first tag wins). Fallback text is prefixed
// with a marker naming the date actually used.
func ExtractNearest(doc string, targetDate time.Time) (Segment, error) {
	target := truncateToDay(targetDate)

	segs := segments(doc)
	if len(segs) == 0 {
		return Segment{}, ErrNotFound
	}

	best := segs[0]
	bestDist := dayDistance(best.date, target)
	for _, seg := range segs[1:] {
		if seg.date.Equal(target) {
			return Segment{
				DateRequested: target,
				DateUsed:      seg.date,
				Text:          seg.text,
			}, nil
		}
		if d := dayDistance(seg.date, target); d < bestDist {
			best, bestDist = seg, d
		}
	}

	if best.date.Equal(target) {
		return Segment{
			DateRequested: target,
			DateUsed:      best.date,
			Text:          best.text,
		}, nil
	}

	return Segment{
		DateRequested: target,
		DateUsed:      best.date,
		Text:          fmt.Sprintf("【注：以下为 %s 的内容】\n\n%s", best.date.Format(dateLayout), best.text),
		Fallback:      true,
	}, nil
}

// ExtractRelative returns the exact segment when present; otherwise the latest
// segment dated strictly before targetDate, and failing that the earliest
// segment in the document. The date actually used is reported on the segment
// rather than embedded in its text, so the caller decides how to annotate.
func ExtractRelative(doc string, targetDate time.Time) (Segment, error) {
	target := truncateToDay(targetDate)

	segs := segments(doc)
	if len(segs) == 0 {
		return Segment{}, ErrNotFound
	}

	var before, earliest *taggedSegment
	for i := range segs {
		seg := &segs[i]
		if seg.date.Equal(target) {
			return Segment{
				DateRequested: target,
				DateUsed:      seg.date,
				Text:          seg.text,
			}, nil
		}
		if seg.date.Before(target) && (before == nil || seg.date.After(before.date)) {
			before = seg
		}
		if earliest == nil || seg.date.Before(earliest.date) {
			earliest = seg
		}
	}

	chosen := before
	if chosen == nil {
		chosen = earliest
	}
	return Segment{
		DateRequested: target,
		DateUsed:      chosen.date,
		Text:          chosen.text,
		Fallback:      true,
	}, nil
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func dayDistance(a, b time.Time) int {
	d := int(a.Sub(b) / (24 * time.Hour))
	if d < 0 {
		return -d
	}
	return d
}
