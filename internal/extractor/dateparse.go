package extractor

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"nugget/internal/domain"
)

// Clock abstracts "today" so date parsing is testable without touching
// the wall clock from within the pipeline.
type Clock interface {
	Today() time.Time
}

type realClock struct{}

func (realClock) Today() time.Time { return time.Now() }

// RealClock is the production Clock implementation.
var RealClock Clock = realClock{}

const isoDate = "2006-01-02"

var explicitDateRe = regexp.MustCompile(`(\d{4})[.\-](\d{1,2})[.\-](\d{1,2})`)

// parseDateRange implements §4.C's date-parsing priority: relative shift,
// then the Korean phrase map, then explicit YYYY-MM-DD/YYYY.MM.DD forms.
func parseDateRange(question string, lastState *domain.ConversationState, clock Clock) domain.DateRange {
	q := strings.ToLower(question)
	today := clock.Today()

	if lastState != nil && lastState.HasDates() &&
		(strings.Contains(q, "그 전주") || (strings.Contains(q, "전주") && !strings.Contains(q, "지난주") && !strings.Contains(q, "이번주"))) {
		ls, err1 := time.Parse(isoDate, lastState.StartDate)
		le, err2 := time.Parse(isoDate, lastState.EndDate)
		if err1 == nil && err2 == nil {
			return domain.DateRange{
				StartDate:       ls.AddDate(0, 0, -7).Format(isoDate),
				EndDate:         le.AddDate(0, 0, -7).Format(isoDate),
				IsRelativeShift: true,
			}
		}
	}

	for _, phrase := range []string{"지난주", "이번주", "지난달", "이번달", "어제", "오늘"} {
		if strings.Contains(q, phrase) {
			s, e := phraseToRange(phrase, today)
			return domain.DateRange{StartDate: s, EndDate: e}
		}
	}

	if m := explicitDateRe.FindStringSubmatch(question); m != nil {
		if d, ok := parseYMD(m); ok {
			s := d.Format(isoDate)
			return domain.DateRange{StartDate: s, EndDate: s}
		}
	}

	return domain.DateRange{}
}

func parseYMD(m []string) (time.Time, bool) {
	y, err1 := strconv.Atoi(m[1])
	mo, err2 := strconv.Atoi(m[2])
	d, err3 := strconv.Atoi(m[3])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	return time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC), true
}

// phraseToRange implements the ISO-week (Monday-start) phrase map from
// §4.C Step 2.
func phraseToRange(phrase string, today time.Time) (string, string) {
	switch phrase {
	case "오늘":
		return today.Format(isoDate), today.Format(isoDate)
	case "어제":
		y := today.AddDate(0, 0, -1)
		return y.Format(isoDate), y.Format(isoDate)
	case "이번주":
		monday := mondayOf(today)
		return monday.Format(isoDate), today.Format(isoDate)
	case "지난주":
		mondayThisWeek := mondayOf(today)
		mondayLastWeek := mondayThisWeek.AddDate(0, 0, -7)
		sundayLastWeek := mondayLastWeek.AddDate(0, 0, 6)
		return mondayLastWeek.Format(isoDate), sundayLastWeek.Format(isoDate)
	case "이번달":
		first := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		return first.Format(isoDate), today.Format(isoDate)
	case "지난달":
		firstThisMonth := time.Date(today.Year(), today.Month(), 1, 0, 0, 0, 0, today.Location())
		lastOfPrior := firstThisMonth.AddDate(0, 0, -1)
		firstOfPrior := time.Date(lastOfPrior.Year(), lastOfPrior.Month(), 1, 0, 0, 0, 0, today.Location())
		return firstOfPrior.Format(isoDate), lastOfPrior.Format(isoDate)
	default:
		week := today.AddDate(0, 0, -7)
		return week.Format(isoDate), today.Format(isoDate)
	}
}

func mondayOf(t time.Time) time.Time {
	wd := int(t.Weekday())
	if wd == 0 { // Sunday
		wd = 7
	}
	return t.AddDate(0, 0, -(wd - 1))
}
