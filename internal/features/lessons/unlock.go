package lessons

import (
	"fmt"
	"time"
)

// AccessLabel is the link text once a lesson is reachable.
const AccessLabel = "Accéder"

// frenchWeekDays maps time.Weekday to the French day names stored in the
// times_tables week_day column. The mapping is fixed; day names never go
// through locale machinery.
var frenchWeekDays = map[time.Weekday]string{
	time.Monday:    "Lundi",
	time.Tuesday:   "Mardi",
	time.Wednesday: "Mercredi",
	time.Thursday:  "Jeudi",
	time.Friday:    "Vendredi",
	time.Saturday:  "Samedi",
	time.Sunday:    "Dimanche",
}

// weekDayNumbers is the reverse mapping, for next-occurrence arithmetic.
var weekDayNumbers = func() map[string]time.Weekday {
	m := make(map[string]time.Weekday, len(frenchWeekDays))
	for d, name := range frenchWeekDays {
		m[name] = d
	}
	return m
}()

// CurrentWeekDay returns the French name of now's weekday.
func CurrentWeekDay(now time.Time) string {
	return frenchWeekDays[now.Weekday()]
}

// parseStartTime parses a timetable time-of-day string. MariaDB TIME columns
// scan as "HH:MM:SS"; form submissions may carry "HH:MM".
func parseStartTime(startTime string) (time.Duration, error) {
	var h, m, s int
	if _, err := fmt.Sscanf(startTime, "%d:%d:%d", &h, &m, &s); err != nil {
		if _, err := fmt.Sscanf(startTime, "%d:%d", &h, &m); err != nil {
			return 0, fmt.Errorf("parsing start time %q: %w", startTime, err)
		}
		s = 0
	}
	if h < 0 || h > 23 || m < 0 || m > 59 || s < 0 || s > 59 {
		return 0, fmt.Errorf("start time %q out of range", startTime)
	}
	return time.Duration(h)*time.Hour + time.Duration(m)*time.Minute + time.Duration(s)*time.Second, nil
}

// RemainingSeconds returns the whole seconds between now and today's date
// combined with startTime, clamped at zero. Zero means the lesson is
// accessible.
//
// "Today" is correct for the day-lesson listing because it only ever shows
// lessons scheduled on the current weekday. Any caller working with other
// days must use NextOccurrence instead.
func RemainingSeconds(startTime string, now time.Time) (int64, error) {
	offset, err := parseStartTime(startTime)
	if err != nil {
		return 0, err
	}

	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	remaining := int64(dayStart.Add(offset).Sub(now) / time.Second)
	if remaining < 0 {
		return 0, nil
	}
	return remaining, nil
}

// NextOccurrence returns the next date-time at which the (weekDay, startTime)
// slot occurs, strictly after now when today's slot already started.
func NextOccurrence(weekDay, startTime string, now time.Time) (time.Time, error) {
	target, ok := weekDayNumbers[weekDay]
	if !ok {
		return time.Time{}, fmt.Errorf("unknown week day %q", weekDay)
	}
	offset, err := parseStartTime(startTime)
	if err != nil {
		return time.Time{}, err
	}

	days := (int(target) - int(now.Weekday()) + 7) % 7
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	occurrence := dayStart.AddDate(0, 0, days).Add(offset)
	if !occurrence.After(now) {
		occurrence = occurrence.AddDate(0, 0, 7)
	}
	return occurrence, nil
}

// FormatRemaining renders a remaining-seconds value the way the lesson list
// first paints it: integer division into hours, minutes, seconds, each
// zero-padded to two digits. FormatRemaining(3661) == "01h 01m 01s".
func FormatRemaining(remainingSeconds int64) string {
	if remainingSeconds < 0 {
		remainingSeconds = 0
	}
	hours := remainingSeconds / 3600
	minutes := (remainingSeconds % 3600) / 60
	seconds := remainingSeconds % 60
	return fmt.Sprintf("%02dh %02dm %02ds", hours, minutes, seconds)
}
