package leave

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

var (
	datePattern   = regexp.MustCompile(`\b\d{4}-\d{1,2}-\d{1,2}\b`)
	daysPattern   = regexp.MustCompile(`\b(\d{1,3}|a|an|one|two|three|four|five|six|seven|eight|nine|ten)\s+(?:full\s+|working\s+)?days?\b`)
	reasonPattern = regexp.MustCompile(`(?i)(?:\bbecause\b|\breason\s*(?:is|:)|\bdue to\b)\s*(.+)$`)
)

var numberWords = map[string]int{
	"a": 1, "an": 1, "one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

// extraction is what one message contributed.
type extraction struct {
	leaveType Type
	dates     []time.Time
	days      int
	reason    string
}

// extract pulls leave fields out of a message. Malformed dates are reported
// so the user can correct them.
func extract(message string) (extraction, error) {
	var ex extraction

	if t, ok := ParseType(message); ok {
		ex.leaveType = t
	}

	for _, raw := range datePattern.FindAllString(message, 2) {
		d, err := parseDate(raw)
		if err != nil {
			return ex, err
		}
		ex.dates = append(ex.dates, d)
	}

	if m := daysPattern.FindStringSubmatch(strings.ToLower(message)); m != nil {
		if n, ok := numberWords[m[1]]; ok {
			ex.days = n
		} else if n, err := strconv.Atoi(m[1]); err == nil {
			ex.days = n
		}
	}

	if m := reasonPattern.FindStringSubmatch(message); m != nil {
		ex.reason = strings.TrimSpace(strings.TrimRight(m[1], ". "))
	}

	return ex, nil
}

func parseDate(raw string) (time.Time, error) {
	d, err := time.Parse(dateLayout, normaliseDate(raw))
	if err != nil {
		return time.Time{}, fmt.Errorf("%q is not a valid date, please use YYYY-MM-DD", raw)
	}
	return d, nil
}

// normaliseDate pads single-digit month and day so 2026-1-5 parses.
func normaliseDate(raw string) string {
	parts := strings.Split(raw, "-")
	if len(parts) != 3 {
		return raw
	}
	for i := 1; i < 3; i++ {
		if len(parts[i]) == 1 {
			parts[i] = "0" + parts[i]
		}
	}
	return strings.Join(parts, "-")
}

// inclusiveDays counts calendar days from start to end, both included.
func inclusiveDays(start, end time.Time) int {
	return int(end.Sub(start).Hours()/24) + 1
}
