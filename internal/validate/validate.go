package validate

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/Eursukkul/consultation-booking/internal/schedule"
)

var ErrInvalid = errors.New("invalid value")

// Kind selects the rule set applied to a form field.
type Kind int

const (
	KindName Kind = iota
	KindEmail
	KindPhone
	KindBusiness
	KindDate
	KindTime
	KindMessage
)

func (k Kind) String() string {
	switch k {
	case KindName:
		return "name"
	case KindEmail:
		return "email"
	case KindPhone:
		return "phone"
	case KindBusiness:
		return "business"
	case KindDate:
		return "date"
	case KindTime:
		return "time"
	case KindMessage:
		return "message"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

const (
	maxTextLen    = 100
	maxEmailLen   = 254
	maxPhoneLen   = 20
	minPhoneDigit = 7
	maxMessageLen = 2000
)

var (
	scriptBlock   = regexp.MustCompile(`(?is)<script\b.*?</script\s*>`)
	scriptOpen    = regexp.MustCompile(`(?i)<\s*/?\s*script\b[^>]*>?`)
	unsafeScheme  = regexp.MustCompile(`(?i)(?:javascript|vbscript|data)\s*:`)
	eventHandler  = regexp.MustCompile(`(?i)\bon[a-z]+\s*=`)
	emailPattern  = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phoneAllowed  = regexp.MustCompile(`[^0-9 +\-()]`)
	angleBrackets = strings.NewReplacer("<", "", ">", "")
)

// Validator applies the form rules. Date checks are relative to the now
// passed in, so results are deterministic.
type Validator struct {
	catalog     *schedule.Catalog
	horizonDays int
}

func New(catalog *schedule.Catalog, horizonDays int) *Validator {
	return &Validator{catalog: catalog, horizonDays: horizonDays}
}

// Field returns the sanitized value, or "" and an error wrapping ErrInvalid.
func (v *Validator) Field(kind Kind, raw string, now time.Time) (string, error) {
	clean := Sanitize(raw)

	var (
		out string
		ok  bool
	)
	switch kind {
	case KindName, KindBusiness:
		out, ok = text(clean)
	case KindEmail:
		out, ok = email(clean)
	case KindPhone:
		out, ok = phone(clean)
	case KindDate:
		out, ok = v.date(clean, now)
	case KindTime:
		out, ok = v.clock(clean)
	case KindMessage:
		out, ok = message(clean)
	default:
		return "", fmt.Errorf("%w: unknown field kind %s", ErrInvalid, kind)
	}

	if !ok {
		return "", fmt.Errorf("%w: %s", ErrInvalid, kind)
	}
	return out, nil
}

// Sanitize removes script blocks, dangerous URI schemes and inline event
// handler attributes.
// Removal repeats until nothing changes, so nested payloads such as
// "javajavascript:script:" do not survive a single pass.
func Sanitize(raw string) string {
	s := raw
	for {
		next := scriptBlock.ReplaceAllString(s, "")
		next = scriptOpen.ReplaceAllString(next, "")
		next = unsafeScheme.ReplaceAllString(next, "")
		next = eventHandler.ReplaceAllString(next, "")
		if next == s {
			return strings.TrimSpace(s)
		}
		s = next
	}
}

func text(s string) (string, bool) {
	var b strings.Builder
	for _, r := range s {
		if unicode.IsLetter(r) || r == ' ' || r == '-' || r == '\'' || r == '.' {
			b.WriteRune(r)
		}
	}
	out := strings.TrimSpace(truncate(b.String(), maxTextLen))
	return out, out != ""
}

func email(s string) (string, bool) {
	s = strings.ToLower(s)
	if len(s) > maxEmailLen || !emailPattern.MatchString(s) {
		return "", false
	}
	return s, true
}

func phone(s string) (string, bool) {
	out := strings.TrimSpace(truncate(phoneAllowed.ReplaceAllString(s, ""), maxPhoneLen))
	digits := 0
	for _, r := range out {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	if digits < minPhoneDigit {
		return "", false
	}
	return out, true
}

func message(s string) (string, bool) {
	out := strings.TrimSpace(truncate(angleBrackets.Replace(s), maxMessageLen))
	return out, out != ""
}

func (v *Validator) date(s string, now time.Time) (string, bool) {
	d, err := v.catalog.ParseDate(s)
	if err != nil {
		return "", false
	}
	today := v.catalog.Today(now)
	last := today.AddDate(0, 0, v.horizonDays)
	if d.Before(today) || d.After(last) {
		return "", false
	}
	return s, true
}

func (v *Validator) clock(s string) (string, bool) {
	c, err := schedule.ParseClock(s)
	if err != nil || !v.catalog.Hours.Contains(c) {
		return "", false
	}
	return s, true
}

func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
