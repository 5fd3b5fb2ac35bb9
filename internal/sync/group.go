package sync

import (
	"time"

	"github.com/heyfriend/heyfriend/internal/backend"
	"github.com/heyfriend/heyfriend/internal/overlay"
)

// DayLabels names the two relative days a thread header can show.
type DayLabels struct {
	Today     string
	Yesterday string
}

var dayLabels = map[overlay.Language]DayLabels{
	overlay.LangEnglish: {Today: "Today", Yesterday: "Yesterday"},
	overlay.LangSwahili: {Today: "Leo", Yesterday: "Jana"},
	overlay.LangArabic:  {Today: "اليوم", Yesterday: "أمس"},
	overlay.LangChinese: {Today: "今天", Yesterday: "昨天"},
}

// LabelsFor returns the day labels for lang, falling back to English.
func LabelsFor(lang overlay.Language) DayLabels {
	if l, ok := dayLabels[lang]; ok {
		return l
	}
	return dayLabels[overlay.LangEnglish]
}

// DayGroup is a run of messages sent on one local calendar day.
type DayGroup struct {
	Day      time.Time
	Label    string
	Messages []backend.Message
}

// DateLayout formats days that are neither today nor yesterday.
const DateLayout = "Mon Jan 02 2006"

// GroupByDay splits messages into runs that share a calendar day in now's
// location. A new group starts whenever a message's day differs from the
// previous message's, so the groups concatenate back to msgs.
func GroupByDay(msgs []backend.Message, now time.Time, labels DayLabels) []DayGroup {
	loc := now.Location()
	today := startOfDay(now)
	yesterday := startOfDay(now.Add(-24 * time.Hour))

	var groups []DayGroup
	for _, m := range msgs {
		day := startOfDay(m.Timestamp.In(loc))
		if n := len(groups); n == 0 || !groups[n-1].Day.Equal(day) {
			label := day.Format(DateLayout)
			switch {
			case day.Equal(today):
				label = labels.Today
			case day.Equal(yesterday):
				label = labels.Yesterday
			}
			groups = append(groups, DayGroup{Day: day, Label: label})
		}
		last := &groups[len(groups)-1]
		last.Messages = append(last.Messages, m)
	}
	return groups
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
