package reminder

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	dateLayout  = "2006-01-02"
	clockLayout = "15:04:05"
)

// Date is a calendar date on the host's local clock.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// DateOf returns the calendar date of t in t's location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q (use YYYY-MM-DD): %w", s, err)
	}
	return DateOf(t), nil
}

func (d Date) IsZero() bool {
	return d == Date{}
}

func (d Date) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Clock is a local time of day with second precision.
type Clock struct {
	Hour   int
	Minute int
	Second int
}

// ClockOf returns the time of day of t, dropping sub-second precision.
func ClockOf(t time.Time) Clock {
	return Clock{Hour: t.Hour(), Minute: t.Minute(), Second: t.Second()}
}

// ParseClock parses HH:MM or HH:MM:SS. A fractional second part is
// accepted and discarded.
func ParseClock(s string) (Clock, error) {
	s = strings.TrimSpace(s)
	layouts := []string{"15:04:05.999999999", "15:04"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return ClockOf(t), nil
		}
	}
	return Clock{}, fmt.Errorf("invalid time %q (use HH:MM or HH:MM:SS)", s)
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", c.Hour, c.Minute, c.Second)
}

func (c Clock) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Clock) UnmarshalText(b []byte) error {
	parsed, err := ParseClock(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// State is the delivery state derived from a reminder's flags.
type State int

const (
	StatePending State = iota
	StateDue
	StateDelivered
)

func (s State) String() string {
	switch s {
	case StateDue:
		return "due"
	case StateDelivered:
		return "delivered"
	default:
		return "pending"
	}
}

// Reminder represents a single reminder and its delivery flags.
type Reminder struct {
	ID           string `json:"id"`
	Title        string `json:"title" validate:"required"`
	Description  string `json:"description" validate:"required"`
	Date         Date   `json:"date"`
	Time         Clock  `json:"time"`
	LeadHours    int    `json:"notify_when" validate:"gte=0"`
	ShouldNotify bool   `json:"should_notify"`
	DidNotify    bool   `json:"did_notify"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Complete reports whether both title and description are filled in.
func (r Reminder) Complete() bool {
	return r.Title != "" && r.Description != ""
}

// Validate checks the reminder can be committed to a store.
func (r Reminder) Validate() error {
	if err := validate.Struct(r); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return err
		}
		for _, fe := range verrs {
			switch fe.Field() {
			case "Title", "Description":
				return fmt.Errorf("%w: %s is required", ErrIncomplete, strings.ToLower(fe.Field()))
			}
		}
		return fmt.Errorf("%w: %s", ErrInvalid, verrs[0].Error())
	}
	if r.Date.IsZero() {
		return fmt.Errorf("%w: date is required", ErrInvalid)
	}
	if r.Time.Hour < 0 || r.Time.Hour > 23 || r.Time.Minute < 0 || r.Time.Minute > 59 || r.Time.Second < 0 || r.Time.Second > 59 {
		return fmt.Errorf("%w: time %s out of range", ErrInvalid, r.Time)
	}
	return nil
}

// NotifyAt returns the wall-clock instant in loc at which the reminder
// should fire: its date and time moved back by LeadHours.
func (r Reminder) NotifyAt(loc *time.Location) time.Time {
	return time.Date(r.Date.Year, r.Date.Month, r.Date.Day,
		r.Time.Hour-r.LeadHours, r.Time.Minute, r.Time.Second, 0, loc)
}

func (r Reminder) State() State {
	switch {
	case r.DidNotify:
		return StateDelivered
	case r.ShouldNotify:
		return StateDue
	default:
		return StatePending
	}
}

// ShortID is the abbreviated ID shown in listings.
func (r Reminder) ShortID() string {
	if len(r.ID) > 8 {
		return r.ID[:8]
	}
	return r.ID
}

// UpdateFields holds optional fields for a partial update.
type UpdateFields struct {
	Title       *string
	Description *string
	Date        *Date
	Time        *Clock
	LeadHours   *int
}

func (f UpdateFields) reschedules() bool {
	return f.Date != nil || f.Time != nil || f.LeadHours != nil
}

func (f UpdateFields) apply(r *Reminder) {
	if f.Title != nil {
		r.Title = *f.Title
	}
	if f.Description != nil {
		r.Description = *f.Description
	}
	if f.Date != nil {
		r.Date = *f.Date
	}
	if f.Time != nil {
		r.Time = *f.Time
	}
	if f.LeadHours != nil {
		r.LeadHours = *f.LeadHours
	}
}
