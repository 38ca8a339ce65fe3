// Package clock supplies the business timestamp every other component works
// with. The lot operates in a single timezone; all persisted timestamps are
// naive local text in that zone and must never be re-localized by callers.
package clock

import "time"

// DateTimeLayout is the persisted form of every business timestamp.
const DateTimeLayout = "2006-01-02 15:04:05"

// DateLayout is the persisted form of business dates (subscription cycles,
// finance entry dates).
const DateLayout = "2006-01-02"

// Clock yields the current business time. Handlers and the cash session
// manager depend on this interface rather than time.Now so tests can pin
// the clock to a known instant.
type Clock interface {
	Now() time.Time
	Today() time.Time
}

// Business is the production Clock, bound to the configured lot timezone.
type Business struct {
	loc *time.Location
}

// NewBusiness loads the named IANA timezone and returns a Business clock.
func NewBusiness(tz string) (*Business, error) {
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, err
	}
	return &Business{loc: loc}, nil
}

// Now returns the current time in the business timezone.
func (b *Business) Now() time.Time { return time.Now().In(b.loc) }

// Today returns the current business date at midnight.
func (b *Business) Today() time.Time { return Midnight(b.Now()) }

// Location exposes the business timezone for parsing helpers.
func (b *Business) Location() *time.Location { return b.loc }

// Midnight truncates a timestamp to the start of its day, preserving the
// location.
func Midnight(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// FormatDateTime renders a timestamp in the persisted text form.
func FormatDateTime(t time.Time) string { return t.Format(DateTimeLayout) }

// FormatDate renders a date in the persisted text form.
func FormatDate(t time.Time) string { return t.Format(DateLayout) }

// ParseDateTime parses persisted timestamp text in the given location. A
// malformed value is an error; there is no silent fallback, a corrupt
// timestamp must surface instead of producing a wrong fee.
func ParseDateTime(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateTimeLayout, s, loc)
}

// ParseDate parses persisted date text in the given location.
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(DateLayout, s, loc)
}
