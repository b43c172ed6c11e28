// Package duration turns operator-entered validity periods into voucher tags
// and RouterOS limit-uptime values.
package duration

import (
	"regexp"
	"strconv"
	"strings"
)

// Canonical tags.
const (
	TagHour  = "1H"
	TagDay   = "DÍA"
	TagWeek  = "SEM"
	TagFort  = "15D"
	TagMonth = "MES"
)

// DefaultTag is returned for empty or unparseable input.
const DefaultTag = TagHour

// Rule maps a lower-cased, trimmed duration string to a tag.
type Rule struct {
	Name  string
	Apply func(s string) (string, bool)
}

var exactTokens = map[string]string{
	"30d": TagMonth,
	"15d": TagFort,
	"7d":  TagWeek,
	"1d":  TagDay,
	"24h": TagDay,
	"1m":  TagMonth,
	"1w":  TagWeek,
}

// first match wins
var wordTokens = []struct {
	word string
	tag  string
}{
	{"mes", TagMonth},
	{"month", TagMonth},
	{"sem", TagWeek},
	{"week", TagWeek},
	{"día", TagDay},
	{"dia", TagDay},
	{"day", TagDay},
}

var (
	leadingHoursRe = regexp.MustCompile(`^(\d+)\s*h`)
	daysRe         = regexp.MustCompile(`(\d+)\s*d`)
	integerRe      = regexp.MustCompile(`\d+`)
)

var rules = []Rule{
	{
		Name: "exact",
		Apply: func(s string) (string, bool) {
			tag, ok := exactTokens[s]
			return tag, ok
		},
	},
	{
		Name: "word",
		Apply: func(s string) (string, bool) {
			for _, w := range wordTokens {
				if strings.Contains(s, w.word) {
					return w.tag, true
				}
			}
			return "", false
		},
	},
	{
		Name: "hours",
		Apply: func(s string) (string, bool) {
			m := leadingHoursRe.FindStringSubmatch(s)
			if m == nil {
				return "", false
			}
			n, ok := count(m[1])
			if !ok {
				return "", false
			}
			return strconv.Itoa(n) + "H", true
		},
	},
	{
		Name: "days",
		Apply: func(s string) (string, bool) {
			m := daysRe.FindStringSubmatch(s)
			if m == nil {
				return "", false
			}
			n, ok := count(m[1])
			if !ok {
				return "", false
			}
			if n == 1 {
				return TagDay, true
			}
			return strconv.Itoa(n) + "D", true
		},
	},
	{
		Name: "number",
		Apply: func(s string) (string, bool) {
			digits := integerRe.FindString(s)
			if digits == "" {
				return "", false
			}
			n, ok := count(digits)
			if !ok {
				return "", false
			}
			if n >= 24 {
				return strconv.Itoa(n) + "D", true
			}
			return strconv.Itoa(n) + "H", true
		},
	},
}

// Rules returns the ordered rule table used by Normalize.
func Rules() []Rule {
	out := make([]Rule, len(rules))
	copy(out, rules)
	return out
}

// Normalize maps a free-form duration ("01:00:00", "1d", "7d", "2 horas") to a
// canonical tag. It never fails: anything it cannot read becomes DefaultTag.
func Normalize(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return DefaultTag
	}
	for _, r := range rules {
		if tag, ok := r.Apply(s); ok {
			return tag
		}
	}
	return DefaultTag
}

func count(digits string) (int, bool) {
	n, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return n, true
}
