package schedule

import (
	"errors"
	"fmt"
	"iter"
	"regexp"
	"strconv"
	"time"
)

const (
	DateLayout  = "2006-01-02"
	ClockLayout = "15:04"
)

var (
	ErrInvalidClock = errors.New("invalid time of day")
	ErrInvalidDate  = errors.New("invalid date")
	ErrInvalidHours = errors.New("invalid business hours")
)

var clockPattern = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// Clock is a time of day, in minutes after midnight.
type Clock int

// ParseClock parses a 24-hour "HH:MM" value.
func ParseClock(s string) (Clock, error) {
	m := clockPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidClock, s)
	}
	h, _ := strconv.Atoi(m[1])
	mm, _ := strconv.Atoi(m[2])
	return Clock(h*60 + mm), nil
}

func (c Clock) Hour() int   { return int(c) / 60 }
func (c Clock) Minute() int { return int(c) % 60 }

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour(), c.Minute())
}

// Hours is the daily booking window in the origin timezone. Both ends are
// bookable; slots start every Interval from Open.
type Hours struct {
	Open     Clock
	Close    Clock
	Interval time.Duration
}

func NewHours(open, close string, interval time.Duration) (Hours, error) {
	o, err := ParseClock(open)
	if err != nil {
		return Hours{}, err
	}
	c, err := ParseClock(close)
	if err != nil {
		return Hours{}, err
	}
	if c < o {
		return Hours{}, fmt.Errorf("%w: closes %s before it opens %s", ErrInvalidHours, c, o)
	}
	if interval < time.Minute || interval%time.Minute != 0 {
		return Hours{}, fmt.Errorf("%w: interval %s must be a whole number of minutes", ErrInvalidHours, interval)
	}
	return Hours{Open: o, Close: c, Interval: interval}, nil
}

func (h Hours) step() int {
	return int(h.Interval / time.Minute)
}

// Contains reports whether c is inside the window and on the interval grid.
func (h Hours) Contains(c Clock) bool {
	if c < h.Open || c > h.Close {
		return false
	}
	return int(c-h.Open)%h.step() == 0
}

// All yields every slot start in the window, in order.
func (h Hours) All() iter.Seq[Clock] {
	return func(yield func(Clock) bool) {
		step := h.step()
		if step <= 0 {
			return
		}
		for c := h.Open; c <= h.Close; c += Clock(step) {
			if !yield(c) {
				return
			}
		}
	}
}
