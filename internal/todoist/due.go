package todoist

import (
	"errors"
	"fmt"
	"time"
)

const (
	dateOnlyLayout  = "2006-01-02"
	naiveTimeLayout = "2006-01-02T15:04:05"
)

// ErrDueFormat is returned for due dates in none of the known layouts.
var ErrDueFormat = errors.New("unrecognised due date")

// Due is a task's due date as Todoist reports it.
type Due struct {
	Date        string  `json:"date"`
	Timezone    *string `json:"timezone"`
	String      string  `json:"string"`
	Lang        string  `json:"lang"`
	IsRecurring bool    `json:"is_recurring"`
}

// IsDateOnly reports whether the due carries no time of day.
func (d Due) IsDateOnly() bool {
	_, err := time.Parse(dateOnlyLayout, d.Date)
	return err == nil
}

// Time resolves the due to an instant. Full RFC 3339 timestamps are taken
// as-is. Date-only values are midnight in the due's own timezone, else in
// override, else in the local zone. Floating date-times are local.
func (d Due) Time(override *time.Location) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, d.Date); err == nil {
		return t, nil
	}

	if _, err := time.Parse(dateOnlyLayout, d.Date); err == nil {
		loc := override
		if d.Timezone != nil && *d.Timezone != "" {
			tz, err := time.LoadLocation(*d.Timezone)
			if err != nil {
				return time.Time{}, fmt.Errorf("%w: timezone %q: %v", ErrDueFormat, *d.Timezone, err)
			}
			loc = tz
		}
		if loc == nil {
			loc = time.Local
		}
		return time.ParseInLocation(dateOnlyLayout, d.Date, loc)
	}

	if t, err := time.ParseInLocation(naiveTimeLayout, d.Date, time.Local); err == nil {
		return t, nil
	}

	return time.Time{}, fmt.Errorf("%w: %q", ErrDueFormat, d.Date)
}
