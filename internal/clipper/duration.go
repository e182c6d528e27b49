package clipper

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	isoDurationRe = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)
	hoursRe       = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(?:hours?|hrs?|h\b)`)
	minutesRe     = regexp.MustCompile(`(\d+)\s*(?:minutes?|mins?|m\b)`)
)

// ParseDurationMinutes converts a schema.org duration to whole minutes.
// It understands the ISO 8601 form sites publish in markup ("PT1H30M")
// and the human form some older pages leave in text ("1 hr 30 mins").
// Unparseable input yields zero, which downstream treats as unknown.
func ParseDurationMinutes(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	if m := isoDurationRe.FindStringSubmatch(strings.ToUpper(s)); m != nil {
		days := atoiDefault(m[1])
		hours := atoiDefault(m[2])
		minutes := atoiDefault(m[3])
		seconds := atoiDefault(m[4])
		total := days*24*60 + hours*60 + minutes
		if seconds >= 30 {
			total++
		}
		return total
	}

	lower := strings.ToLower(s)
	total := 0
	if m := hoursRe.FindStringSubmatch(lower); m != nil {
		h, err := strconv.ParseFloat(m[1], 64)
		if err == nil {
			total += int(h * 60)
		}
	}
	if m := minutesRe.FindStringSubmatch(lower); m != nil {
		total += atoiDefault(m[1])
	}
	if total == 0 {
		// A bare number is taken as minutes.
		if n, err := strconv.Atoi(lower); err == nil && n > 0 {
			return n
		}
	}
	return total
}

func atoiDefault(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
