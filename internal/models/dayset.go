package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// ErrInvalidDay is returned when a stored day value is not a teaching day.
var ErrInvalidDay = errors.New("invalid teaching day")

// DaySet is the normalized form of every stored day value. Friday never appears in a DaySet.
type DaySet []time.Weekday

var weekdayAliases = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"sun":       time.Sunday,
	"monday":    time.Monday,
	"mon":       time.Monday,
	"tuesday":   time.Tuesday,
	"tue":       time.Tuesday,
	"tues":      time.Tuesday,
	"wednesday": time.Wednesday,
	"wed":       time.Wednesday,
	"thursday":  time.Thursday,
	"thu":       time.Thursday,
	"thur":      time.Thursday,
	"thurs":     time.Thursday,
	"saturday":  time.Saturday,
	"sat":       time.Saturday,
}

// maxDecodeDepth bounds unwrapping of JSON strings that were encoded more than once.
const maxDecodeDepth = 3

// ParseWeekday resolves a full or abbreviated day name.
func ParseWeekday(name string) (time.Weekday, error) {
	day, ok := weekdayAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return 0, fmt.Errorf("%w: %q", ErrInvalidDay, name)
	}
	return day, nil
}

// ParseDaySet normalizes the encodings found in stored preference and section rows: native slices,
// JSON arrays, JSON strings holding a JSON array, and comma separated legacy text.
func ParseDaySet(raw any) (DaySet, error) {
	switch v := raw.(type) {
	case nil:
		return nil, nil
	case DaySet:
		return dedupeDays(v), nil
	case []time.Weekday:
		return dedupeDays(v), nil
	case []string:
		return parseDayNames(v)
	case []any:
		names := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %v", ErrInvalidDay, item)
			}
			names = append(names, s)
		}
		return parseDayNames(names)
	case []byte:
		return parseDayText(string(v), 0)
	case string:
		return parseDayText(v, 0)
	default:
		return nil, fmt.Errorf("unsupported day set encoding %T", raw)
	}
}

func parseDayText(text string, depth int) (DaySet, error) {
	text = strings.TrimSpace(text)
	if text == "" || text == "null" || text == "[]" {
		return nil, nil
	}
	if depth > maxDecodeDepth {
		return nil, fmt.Errorf("day set nested too deeply: %q", text)
	}
	switch text[0] {
	case '[':
		var names []string
		if err := json.Unmarshal([]byte(text), &names); err != nil {
			return nil, fmt.Errorf("decode day set: %w", err)
		}
		return parseDayNames(names)
	case '"':
		var inner string
		if err := json.Unmarshal([]byte(text), &inner); err != nil {
			return nil, fmt.Errorf("decode day set: %w", err)
		}
		return parseDayText(inner, depth+1)
	}
	return parseDayNames(strings.FieldsFunc(text, func(r rune) bool {
		return r == ',' || r == '/' || r == ';'
	}))
}

func parseDayNames(names []string) (DaySet, error) {
	days := make(DaySet, 0, len(names))
	for _, name := range names {
		if strings.TrimSpace(name) == "" {
			continue
		}
		day, err := ParseWeekday(name)
		if err != nil {
			return nil, err
		}
		days = append(days, day)
	}
	if len(days) == 0 {
		return nil, nil
	}
	return dedupeDays(days), nil
}

func dedupeDays(days []time.Weekday) DaySet {
	if len(days) == 0 {
		return nil
	}
	seen := make(map[time.Weekday]bool, len(days))
	out := make(DaySet, 0, len(days))
	for _, day := range days {
		if seen[day] {
			continue
		}
		seen[day] = true
		out = append(out, day)
	}
	return out
}

// Empty reports whether the set carries no day, meaning "any day" on preferences.
func (d DaySet) Empty() bool {
	return len(d) == 0
}

// Contains reports whether day is in the set.
func (d DaySet) Contains(day time.Weekday) bool {
	for _, item := range d {
		if item == day {
			return true
		}
	}
	return false
}

// Shares reports whether both sets have at least one day in common.
func (d DaySet) Shares(other DaySet) bool {
	for _, day := range d {
		if other.Contains(day) {
			return true
		}
	}
	return false
}

// Equal compares the sets ignoring order.
func (d DaySet) Equal(other DaySet) bool {
	if len(d) != len(other) {
		return false
	}
	for _, day := range d {
		if !other.Contains(day) {
			return false
		}
	}
	return true
}

// Names returns the full day names in set order.
func (d DaySet) Names() []string {
	names := make([]string, 0, len(d))
	for _, day := range d {
		names = append(names, day.String())
	}
	return names
}

func (d DaySet) String() string {
	return strings.Join(d.Names(), "/")
}

// Value stores the set as a JSON array of day names, or NULL when empty.
func (d DaySet) Value() (driver.Value, error) {
	if len(d) == 0 {
		return nil, nil
	}
	payload, err := json.Marshal(d.Names())
	if err != nil {
		return nil, err
	}
	return string(payload), nil
}

// Scan implements sql.Scanner.
func (d *DaySet) Scan(src any) error {
	parsed, err := ParseDaySet(src)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// MarshalJSON renders day names.
func (d DaySet) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("null"), nil
	}
	return json.Marshal(d.Names())
}

// UnmarshalJSON accepts every encoding ParseDaySet understands.
func (d *DaySet) UnmarshalJSON(data []byte) error {
	parsed, err := ParseDaySet(data)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
