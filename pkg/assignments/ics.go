package assignments

import (
	"math"
	"regexp"
	"strings"
	"time"
)

const icsStampLayout = "20060102T150405Z"

var slugRe = regexp.MustCompile(`[^a-z0-9]+`)

// ICS renders a single-event iCalendar document for a. stamp is the DTSTAMP.
func ICS(a *Assignment, stamp time.Time) string {
	start := DueInstant(a)
	end := start.Add(time.Duration(eventMinutes(a.EstimateHours)) * time.Minute)

	desc := a.Notes
	if a.Course != "" {
		desc = a.Course + " — " + a.Notes
	}

	lines := []string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//Assignment Planner//EN",
		"BEGIN:VEVENT",
		"UID:" + a.ID + "@assignment-planner",
		"DTSTAMP:" + stamp.UTC().Format(icsStampLayout),
		"DTSTART:" + start.UTC().Format(icsStampLayout),
		"DTEND:" + end.UTC().Format(icsStampLayout),
		"SUMMARY:" + strings.ReplaceAll(a.Title, "\n", " "),
		"DESCRIPTION:" + strings.ReplaceAll(desc, "\n", " "),
		"PRIORITY:" + icsPriority(a.Priority),
		"END:VEVENT",
		"END:VCALENDAR",
	}
	return strings.Join(lines, "\r\n") + "\r\n"
}

// ICSFileName returns the download name for a's calendar file.
func ICSFileName(a *Assignment) string {
	return "assignment_" + slugRe.ReplaceAllString(strings.ToLower(a.Title), "-") + ".ics"
}

// eventMinutes is the event length: the estimate, at least 30 minutes, one hour when unset.
func eventMinutes(hours float64) int {
	if hours == 0 || math.IsNaN(hours) {
		hours = 1
	}
	return max(30, int(math.Round(hours*60)))
}

func icsPriority(p Priority) string {
	switch p {
	case PriorityHigh:
		return "1"
	case PriorityMedium:
		return "5"
	default:
		return "9"
	}
}
