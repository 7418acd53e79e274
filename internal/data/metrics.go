package data

import (
	"strings"
	"time"
)

// DateKey is the calendar-date format used for daily progress entries.
const DateKey = "2006-01-02"

// Metrics holds the derived fields of a story. They are recomputed
// from the page list after every mutation, never edited directly.
type Metrics struct {
	WordCount      int
	Badges         []string
	CompletionDate *time.Time
	DailyProgress  map[string]int
}

const completionPageCount = 5

var badgeThresholds = []struct {
	name  string
	pages int
	words int
}{
	{"First Page", 1, 0},
	{"Story Builder", 5, 0},
	{"Author", 10, 0},
	{"Word Wizard", 0, 100},
	{"Master Writer", 0, 500},
}

// CountWords sums the whitespace-delimited non-empty tokens over all
// page texts. Whitespace-only pages contribute 0.
func CountWords(pages []Page) int {
	total := 0
	for _, p := range pages {
		total += len(strings.Fields(p.Text))
	}
	return total
}

// Badges evaluates the badge thresholds against a page count and word
// count. The result depends on nothing else; deleting pages can take
// a previously earned badge away again.
func Badges(pageCount, wordCount int) []string {
	badges := make([]string, 0, len(badgeThresholds))
	for _, t := range badgeThresholds {
		if pageCount >= t.pages && wordCount >= t.words {
			badges = append(badges, t.name)
		}
	}
	return badges
}

// ComputeMetrics derives the metrics for a story whose page list is
// pages. The existing story supplies the sticky completion date and
// the accumulated daily progress; it is not modified. The completion
// date is set at now the first time the page count reaches 5 and is
// carried forward unchanged from then on, even if pages are deleted.
// Today's daily-progress entry is overwritten with the fresh word
// count; entries for other days are copied untouched.
func ComputeMetrics(existing *Story, pages []Page, now time.Time) Metrics {
	wordCount := CountWords(pages)

	m := Metrics{
		WordCount:     wordCount,
		Badges:        Badges(len(pages), wordCount),
		DailyProgress: map[string]int{},
	}

	if existing != nil {
		m.CompletionDate = existing.CompletionDate
		for day, words := range existing.DailyProgress {
			m.DailyProgress[day] = words
		}
	}
	if m.CompletionDate == nil && len(pages) >= completionPageCount {
		completed := now
		m.CompletionDate = &completed
	}
	m.DailyProgress[now.Format(DateKey)] = wordCount

	return m
}
