package schedule

import (
	"fmt"
	"iter"
	"regexp"
	"strings"
	"time"
	_ "time/tzdata"
)

const (
	dateLabelLayout = "Monday, January 2, 2006"
	timeLabelLayout = "03:04 PM"
)

var datePattern = regexp.MustCompile(`^20[0-9]{2}-[0-9]{2}-[0-9]{2}$`)

type DateOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

type TimeOption struct {
	Value      string `json:"value"`
	Label      string `json:"label"`
	ViewerDate string `json:"viewer_date"`
	ViewerTime string `json:"viewer_time"`
	Zone       string `json:"zone"`
}

// ViewerSlot is an origin slot expressed in the viewer's timezone.
type ViewerSlot struct {
	Date    string
	Time    string
	Zone    string
	Display string
	Instant time.Time
}

// Catalog generates the bookable dates and times for the single consultant
// calendar.
type Catalog struct {
	Origin    *time.Location
	Hours     Hours
	DaysAhead int
}

func NewCatalog(origin *time.Location, hours Hours, daysAhead int) *Catalog {
	if origin == nil {
		origin = time.UTC
	}
	return &Catalog{Origin: origin, Hours: hours, DaysAhead: daysAhead}
}

// Today returns midnight of now's calendar day in the origin timezone.
func (c *Catalog) Today(now time.Time) time.Time {
	y, m, d := now.In(c.Origin).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, c.Origin)
}

// ParseDate parses a "YYYY-MM-DD" origin date.
func (c *Catalog) ParseDate(s string) (time.Time, error) {
	if !datePattern.MatchString(s) {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	d, err := time.ParseInLocation(DateLayout, s, c.Origin)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
	}
	return d, nil
}

// Instant is the moment an origin date and time of day denote.
func (c *Catalog) Instant(date string, clock Clock) (time.Time, error) {
	d, err := c.ParseDate(date)
	if err != nil {
		return time.Time{}, err
	}
	return time.Date(d.Year(), d.Month(), d.Day(), clock.Hour(), clock.Minute(), 0, 0, c.Origin), nil
}

// Dates lists weekdays among the next DaysAhead calendar days, today
// included while it still has an open slot.
func (c *Catalog) Dates(now time.Time) []DateOption {
	today := c.Today(now)
	dates := make([]DateOption, 0, c.DaysAhead)
	for i := 0; i < c.DaysAhead; i++ {
		day := today.AddDate(0, 0, i)
		if wd := day.Weekday(); wd == time.Saturday || wd == time.Sunday {
			continue
		}
		if i == 0 {
			last := time.Date(day.Year(), day.Month(), day.Day(), c.Hours.Close.Hour(), c.Hours.Close.Minute(), 0, 0, c.Origin)
			if !last.After(now) {
				continue
			}
		}
		dates = append(dates, DateOption{
			Value: day.Format(DateLayout),
			Label: day.Format(dateLabelLayout),
		})
	}
	return dates
}

// Times yields the open slots for date as seen from viewer. Booked times and
// slots that are not in the future are skipped. The sequence is rebuilt on
// every iteration.
func (c *Catalog) Times(date string, booked map[string]struct{}, viewer *time.Location, now time.Time) iter.Seq[TimeOption] {
	if viewer == nil {
		viewer = c.Origin
	}
	return func(yield func(TimeOption) bool) {
		if _, err := c.ParseDate(date); err != nil {
			return
		}
		for clock := range c.Hours.All() {
			value := clock.String()
			if _, taken := booked[value]; taken {
				continue
			}
			instant, err := c.Instant(date, clock)
			if err != nil || !instant.After(now) {
				continue
			}
			local := instant.In(viewer)
			zone := local.Format("MST")
			opt := TimeOption{
				Value:      value,
				Label:      fmt.Sprintf("%s (%s)", local.Format(timeLabelLayout), zone),
				ViewerDate: local.Format(DateLayout),
				ViewerTime: local.Format(ClockLayout),
				Zone:       zone,
			}
			if !yield(opt) {
				return
			}
		}
	}
}

// ToViewer converts an origin date and time into the viewer's timezone. An
// empty tz means the origin timezone.
func (c *Catalog) ToViewer(date, clock, tz string) (ViewerSlot, error) {
	loc, err := LoadViewer(tz, c.Origin)
	if err != nil {
		return ViewerSlot{}, err
	}
	cl, err := ParseClock(clock)
	if err != nil {
		return ViewerSlot{}, err
	}
	instant, err := c.Instant(date, cl)
	if err != nil {
		return ViewerSlot{}, err
	}

	local := instant.In(loc)
	zone := local.Format("MST")
	return ViewerSlot{
		Date:    local.Format(DateLayout),
		Time:    local.Format(ClockLayout),
		Zone:    zone,
		Display: fmt.Sprintf("%s at %s (%s)", local.Format(dateLabelLayout), local.Format(timeLabelLayout), zone),
		Instant: instant,
	}, nil
}

// LoadViewer resolves an IANA timezone id, falling back when tz is blank.
func LoadViewer(tz string, fallback *time.Location) (*time.Location, error) {
	tz = strings.TrimSpace(tz)
	if tz == "" {
		if fallback == nil {
			return time.UTC, nil
		}
		return fallback, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", tz, err)
	}
	return loc, nil
}
