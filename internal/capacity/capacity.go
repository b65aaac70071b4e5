// Package capacity provides pure working-capacity math and the fixed
// time-unit table used to render and parse hour values. It performs no I/O.
package capacity

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"
)

// ErrInvalidDuration is returned for negative or non-finite inputs.
var ErrInvalidDuration = errors.New("invalid duration")

// Fixed unit table: 1 week = 5 days, 1 day = 8 hours.
const (
	HoursPerDay    = 8
	DaysPerWeek    = 5
	MinutesPerHour = 60
)

// DefaultWorkingDays is the Monday-Friday fallback schedule used when
// neither the member nor the project configures one.
var DefaultWorkingDays = []time.Weekday{
	time.Monday, time.Tuesday, time.Wednesday, time.Thursday, time.Friday,
}

// MemberHours returns perDay multiplied by the count of scheduled working
// days falling within [start, end], compared at day granularity inclusive
// of both endpoints.
func MemberHours(perDay float64, workingDays []time.Weekday, start, end time.Time) (float64, error) {
	if perDay < 0 || math.IsNaN(perDay) || math.IsInf(perDay, 0) {
		return 0, fmt.Errorf("%w: per-day capacity %v", ErrInvalidDuration, perDay)
	}
	if len(workingDays) == 0 {
		return 0, fmt.Errorf("%w: empty working-day schedule", ErrInvalidDuration)
	}
	days, err := WorkingDayCount(workingDays, start, end)
	if err != nil {
		return 0, err
	}
	return perDay * float64(days), nil
}

// WorkingDayCount counts the scheduled weekdays in [start, end] inclusive.
func WorkingDayCount(workingDays []time.Weekday, start, end time.Time) (int, error) {
	startDay := truncateToDay(start)
	endDay := truncateToDay(end)
	if endDay.Before(startDay) {
		return 0, fmt.Errorf("%w: end %s before start %s", ErrInvalidDuration,
			endDay.Format("2006-01-02"), startDay.Format("2006-01-02"))
	}
	scheduled := make(map[time.Weekday]bool, len(workingDays))
	for _, wd := range workingDays {
		scheduled[wd] = true
	}
	count := 0
	for d := startDay; !d.After(endDay); d = d.AddDate(0, 0, 1) {
		if scheduled[d.Weekday()] {
			count++
		}
	}
	return count, nil
}

// ResolveSchedule picks the member schedule if set, then the project
// default, then Monday-Friday.
func ResolveSchedule(memberDays, projectDays []time.Weekday) []time.Weekday {
	if len(memberDays) > 0 {
		return memberDays
	}
	if len(projectDays) > 0 {
		return projectDays
	}
	return DefaultWorkingDays
}

// ParseWeekdays parses a CSV of weekday numbers (0=Sunday .. 6=Saturday),
// the storage format for working-day schedules. Unknown or empty fields
// are skipped; an empty string yields nil.
func ParseWeekdays(csv string) []time.Weekday {
	if strings.TrimSpace(csv) == "" {
		return nil
	}
	var out []time.Weekday
	for _, f := range strings.Split(csv, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil || n < 0 || n > 6 {
			continue
		}
		out = append(out, time.Weekday(n))
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Readable formats an hours value with the fixed unit table, e.g. "1d 4h 30m".
// The value is rounded to the nearest minute; zero renders as "0m".
func Readable(hours float64) (string, error) {
	if hours < 0 || math.IsNaN(hours) || math.IsInf(hours, 0) {
		return "", fmt.Errorf("%w: %v hours", ErrInvalidDuration, hours)
	}
	totalMinutes := int64(math.Round(hours * MinutesPerHour))
	if totalMinutes == 0 {
		return "0m", nil
	}
	const (
		minutesPerDay  = HoursPerDay * MinutesPerHour
		minutesPerWeek = DaysPerWeek * minutesPerDay
	)
	weeks := totalMinutes / minutesPerWeek
	totalMinutes -= weeks * minutesPerWeek
	days := totalMinutes / minutesPerDay
	totalMinutes -= days * minutesPerDay
	hrs := totalMinutes / MinutesPerHour
	mins := totalMinutes - hrs*MinutesPerHour

	var parts []string
	if weeks > 0 {
		parts = append(parts, fmt.Sprintf("%dw", weeks))
	}
	if days > 0 {
		parts = append(parts, fmt.Sprintf("%dd", days))
	}
	if hrs > 0 {
		parts = append(parts, fmt.Sprintf("%dh", hrs))
	}
	if mins > 0 {
		parts = append(parts, fmt.Sprintf("%dm", mins))
	}
	return strings.Join(parts, " "), nil
}

// Parse is the inverse of Readable: "2w 1d 3h 30m" -> hours. Round-trips
// with Readable within one minute.
func Parse(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty string", ErrInvalidDuration)
	}
	var minutes int64
	for _, field := range strings.Fields(s) {
		if len(field) < 2 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, field)
		}
		unit := field[len(field)-1]
		n, err := strconv.ParseInt(field[:len(field)-1], 10, 64)
		if err != nil || n < 0 {
			return 0, fmt.Errorf("%w: %q", ErrInvalidDuration, field)
		}
		switch unit {
		case 'w':
			minutes += n * DaysPerWeek * HoursPerDay * MinutesPerHour
		case 'd':
			minutes += n * HoursPerDay * MinutesPerHour
		case 'h':
			minutes += n * MinutesPerHour
		case 'm':
			minutes += n
		default:
			return 0, fmt.Errorf("%w: unknown unit in %q", ErrInvalidDuration, field)
		}
	}
	return float64(minutes) / MinutesPerHour, nil
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
