package medicine

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Accepts "8", "8:00", "8.30", "8 am", "08:15pm", "20:15" after lowercasing
// and separator normalization.
var reminderTimeRe = regexp.MustCompile(`^(\d{1,2})(?::(\d{1,2}))?\s*(am|pm)?$`)

// NormalizeReminderTime converts free-form clock-time input into a canonical
// "HH:MM" 24-hour string. Unparseable or out-of-range values return ok=false;
// callers filter them out rather than failing the whole request.
func NormalizeReminderTime(raw string) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = strings.ReplaceAll(s, ".", ":")
	s = strings.Join(strings.Fields(s), " ")

	m := reminderTimeRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}

	hour, err := strconv.Atoi(m[1])
	if err != nil {
		return "", false
	}

	minute := 0
	if m[2] != "" {
		minute, err = strconv.Atoi(m[2])
		if err != nil {
			return "", false
		}
	}

	switch m[3] {
	case "am":
		if hour < 1 || hour > 12 {
			return "", false
		}
		if hour == 12 {
			hour = 0
		}
	case "pm":
		if hour < 1 || hour > 12 {
			return "", false
		}
		if hour != 12 {
			hour += 12
		}
	}

	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return "", false
	}

	return fmt.Sprintf("%02d:%02d", hour, minute), true
}

// NormalizeReminderTimes normalizes a set of reminder-time inputs. Each value
// may itself be a comma-separated list. Invalid entries are dropped and the
// result is de-duplicated, preserving first-occurrence order.
func NormalizeReminderTimes(values []string) []string {
	seen := make(map[string]struct{})
	out := make([]string, 0, len(values))

	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			norm, ok := NormalizeReminderTime(part)
			if !ok {
				continue
			}
			if _, dup := seen[norm]; dup {
				continue
			}
			seen[norm] = struct{}{}
			out = append(out, norm)
		}
	}

	return out
}

// splitReminderTime breaks a normalized "HH:MM" string into hour and minute.
// Only call with values produced by NormalizeReminderTime.
func splitReminderTime(norm string) (hour, minute int, ok bool) {
	parts := strings.SplitN(norm, ":", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, false
	}
	return h, m, true
}
