// Package schedule decides whether a user's daily report is due at a given
// instant.
package schedule

import (
	"fmt"
	"strconv"
	"time"

	"dailyreport/internal/models"
)

// WindowMinutes is the width of the send window. It matches the scheduler
// tick: the evaluator must be invoked at least once every WindowMinutes or
// sends may be skipped.
const WindowMinutes = 5

// Evaluator checks send schedules against a fixed-offset local time zone.
type Evaluator struct {
	loc *time.Location
}

// New builds an Evaluator for the given fixed UTC offset in hours.
func New(tzOffsetHours int) *Evaluator {
	name := fmt.Sprintf("UTC%+d", tzOffsetHours)
	return &Evaluator{loc: time.FixedZone(name, tzOffsetHours*3600)}
}

// Location returns the evaluator's local time zone.
func (e *Evaluator) Location() *time.Location { return e.loc }

// IsDue reports whether the user's report should be sent at instant now.
//
// The window is [SendMinute, SendMinute+WindowMinutes) within SendHour. The
// upper bound is intentionally not clamped at 60: a SendMinute of 58 yields a
// window of [58, 63), of which minutes 60-62 never occur, shortening that
// user's effective window. Downstream consumers depend on this exact boundary,
// so it is preserved as is.
func (e *Evaluator) IsDue(s *models.UserSettings, now time.Time) bool {
	if !s.IsActive {
		return false
	}

	local := now.In(e.loc)

	if local.Hour() != s.SendHour {
		return false
	}
	if local.Minute() < s.SendMinute || local.Minute() >= s.SendMinute+WindowMinutes {
		return false
	}

	if len(s.SendDays) > 0 {
		today := strconv.Itoa(local.Day())
		found := false
		for _, d := range s.SendDays {
			if d == today {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}
