package utils

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	isoDurationRe   = regexp.MustCompile(`^P(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)
	humanDurationRe = regexp.MustCompile(`(?i)(?:(\d+)\s*d(?:ays?)?\b)?\s*(?:(\d+)\s*h(?:ours?|rs?)?\b)?\s*(?:(\d+)\s*m(?:in(?:s|utes)?)?\b)?`)
)

// ParseMinutes converts a recipe timing string to whole minutes. It
// accepts ISO-8601 durations ("PT1H30M") and loose human forms
// ("1 h 30 min", "45 minutes"). Returns nil when the string is empty,
// unparseable, or parses to zero; scraped pages often carry junk in
// these fields and a missing timing is preferable to a wrong one.
func ParseMinutes(s string) *int {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}

	if m := isoDurationRe.FindStringSubmatch(s); m != nil {
		days := atoiOrZero(m[1])
		hours := atoiOrZero(m[2])
		minutes := atoiOrZero(m[3])
		seconds := atoiOrZero(m[4])
		total := days*1440 + hours*60 + minutes + seconds/60
		if total == 0 {
			return nil
		}
		return &total
	}

	if m := humanDurationRe.FindStringSubmatch(s); m != nil {
		days := atoiOrZero(m[1])
		hours := atoiOrZero(m[2])
		minutes := atoiOrZero(m[3])
		total := days*1440 + hours*60 + minutes
		if total == 0 {
			return nil
		}
		return &total
	}

	return nil
}

func atoiOrZero(s string) int {
	if s == "" {
		return 0
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
