package sync

import (
	"strings"
	"testing"
	"time"

	"github.com/heyfriend/heyfriend/internal/backend"
	"github.com/heyfriend/heyfriend/internal/overlay"
)

func TestGroupByDay(t *testing.T) {
	loc := time.FixedZone("EAT", 3*60*60)
	now := time.Date(2026, 5, 14, 9, 0, 0, 0, loc)
	at := func(id string, d time.Time) backend.Message { return backend.Message{ID: id, Timestamp: d} }

	msgs := []backend.Message{
		at("old", time.Date(2026, 5, 1, 12, 0, 0, 0, loc)),
		at("y1", time.Date(2026, 5, 13, 8, 0, 0, 0, loc)),
		// 22:30 UTC on the 13th is already the 14th in EAT.
		at("t1", time.Date(2026, 5, 13, 22, 30, 0, 0, time.UTC)),
		at("t2", time.Date(2026, 5, 14, 8, 59, 0, 0, loc)),
	}

	groups := GroupByDay(msgs, now, LabelsFor(overlay.LangSwahili))
	want := []struct {
		label string
		ids   []string
	}{
		{"Fri May 01 2026", []string{"old"}},
		{"Jana", []string{"y1"}},
		{"Leo", []string{"t1", "t2"}},
	}
	if len(groups) != len(want) {
		t.Fatalf("got %d groups, want %d", len(groups), len(want))
	}
	for i, w := range want {
		g := groups[i]
		if g.Label != w.label {
			t.Errorf("group %d label = %q, want %q", i, g.Label, w.label)
		}
		if len(g.Messages) != len(w.ids) {
			t.Fatalf("group %d has %d messages, want %d", i, len(g.Messages), len(w.ids))
		}
		for j, id := range w.ids {
			if g.Messages[j].ID != id {
				t.Errorf("group %d message %d = %s, want %s", i, j, g.Messages[j].ID, id)
			}
		}
	}
}

func TestGroupByDayEmpty(t *testing.T) {
	if groups := GroupByDay(nil, time.Now(), LabelsFor(overlay.LangEnglish)); len(groups) != 0 {
		t.Errorf("got %d groups, want 0", len(groups))
	}
}

func TestGroupByDayUnsorted(t *testing.T) {
	loc := time.UTC
	now := time.Date(2026, 5, 14, 9, 0, 0, 0, loc)
	may1 := time.Date(2026, 5, 1, 10, 0, 0, 0, loc)
	may2 := time.Date(2026, 5, 2, 10, 0, 0, 0, loc)
	msgs := []backend.Message{
		{ID: "a", Timestamp: may1},
		{ID: "b", Timestamp: may2},
		{ID: "c", Timestamp: may1.Add(time.Hour)},
	}

	groups := GroupByDay(msgs, now, LabelsFor(overlay.LangEnglish))
	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3", len(groups))
	}
	var ids []string
	for _, g := range groups {
		for _, m := range g.Messages {
			ids = append(ids, m.ID)
		}
	}
	if got := strings.Join(ids, ","); got != "a,b,c" {
		t.Errorf("concatenated order = %s, want a,b,c", got)
	}
	if groups[0].Label != groups[2].Label {
		t.Errorf("labels %q and %q differ for the same day", groups[0].Label, groups[2].Label)
	}
}

func TestLabelsFor(t *testing.T) {
	tests := []struct {
		lang  overlay.Language
		today string
	}{
		{overlay.LangEnglish, "Today"},
		{overlay.LangSwahili, "Leo"},
		{overlay.LangArabic, "اليوم"},
		{overlay.LangChinese, "今天"},
		{overlay.Language("fr"), "Today"},
	}
	for _, tt := range tests {
		if got := LabelsFor(tt.lang).Today; got != tt.today {
			t.Errorf("LabelsFor(%s).Today = %q, want %q", tt.lang, got, tt.today)
		}
	}
}
