package intent

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"time"

	"github.com/siherrmann/agrimarket/model"
)

var (
	fullDatePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(\d{4})\s*년\s*(\d{1,2})\s*월\s*(\d{1,2})\s*일`),
		regexp.MustCompile(`\b(\d{4})-(\d{1,2})-(\d{1,2})\b`),
		regexp.MustCompile(`\b(\d{4})\.(\d{1,2})\.(\d{1,2})\b`),
		regexp.MustCompile(`\b(\d{4})/(\d{1,2})/(\d{1,2})\b`),
	}

	koreanMonthDay  = regexp.MustCompile(`(\d{1,2})\s*월\s*(\d{1,2})\s*일`)
	englishMonthDay = regexp.MustCompile(`\b(january|february|march|april|may|june|july|august|september|october|november|december|jan|feb|mar|apr|jun|jul|aug|sept|sep|oct|nov|dec)\.?\s+(\d{1,2})(?:st|nd|rd|th)?\b(?:,?\s*(\d{4})\b)?`)

	relativeDays = []struct {
		re     *regexp.Regexp
		offset int
	}{
		{regexp.MustCompile(`그저께|그제|day before yesterday`), -2},
		{regexp.MustCompile(`어제|yesterday`), -1},
		{regexp.MustCompile(`오늘|today`), 0},
		{regexp.MustCompile(`내일|tomorrow`), 1},
	}

	// a month-day followed by a unit is a quantity, as in "may 20 bushels"
	unitAfterDay = regexp.MustCompile(`^\s*(?:bu\b|bushels?\b|부셸|tons?\b|톤|mt\b|metric\b|acres?\b|에이커|hectares?\b|ha\b|헥타르|million\b|백만|cents?\b|센트|%)`)

	koreanDaysOffset  = regexp.MustCompile(`(\d{1,3})\s*일\s*(전|후|뒤)`)
	englishDaysAgo    = regexp.MustCompile(`\b(\d{1,3})\s*days?\s+(ago|later)\b`)
	englishInDays     = regexp.MustCompile(`\bin\s+(\d{1,3})\s*days?\b`)
	englishMonthIndex = map[string]time.Month{
		"jan": time.January, "feb": time.February, "mar": time.March, "apr": time.April,
		"may": time.May, "jun": time.June, "jul": time.July, "aug": time.August,
		"sep": time.September, "oct": time.October, "nov": time.November, "dec": time.December,
	}
)

// extractDates collects every date of the query in pattern priority order,
// then deduplicates and sorts them. Capping is left to the caller.
func extractDates(s *scanner, today time.Time) ([]time.Time, []model.Ambiguity) {
	var dates []time.Time
	var ambiguities []model.Ambiguity

	add := func(year, month, day int) {
		d, err := calendarDate(year, month, day)
		if err != nil {
			ambiguities = append(ambiguities, model.Ambiguity{Kind: model.AmbiguityInvalidDate, Detail: err.Error()})
			return
		}
		dates = append(dates, d)
	}

	for _, re := range fullDatePatterns {
		for _, m := range s.consume(re) {
			add(atoi(m[1]), atoi(m[2]), atoi(m[3]))
		}
	}

	for _, m := range s.consume(koreanMonthDay) {
		add(today.Year(), atoi(m[1]), atoi(m[2]))
	}
	notQuantity := func(rest string) bool { return !unitAfterDay.MatchString(rest) }
	for _, m := range s.consumeIf(englishMonthDay, notQuantity) {
		year := today.Year()
		if m[3] != "" {
			year = atoi(m[3])
		}
		add(year, int(englishMonthIndex[m[1][:3]]), atoi(m[2]))
	}

	for _, r := range relativeDays {
		for range s.consume(r.re) {
			dates = append(dates, today.AddDate(0, 0, r.offset))
		}
	}

	for _, m := range s.consume(koreanDaysOffset) {
		n := atoi(m[1])
		if m[2] == "전" {
			n = -n
		}
		dates = append(dates, today.AddDate(0, 0, n))
	}
	for _, m := range s.consume(englishDaysAgo) {
		n := atoi(m[1])
		if m[2] == "ago" {
			n = -n
		}
		dates = append(dates, today.AddDate(0, 0, n))
	}
	for _, m := range s.consume(englishInDays) {
		dates = append(dates, today.AddDate(0, 0, atoi(m[1])))
	}

	return dedupSorted(dates), ambiguities
}

// calendarDate rejects dates that time.Date would silently normalize
func calendarDate(year, month, day int) (time.Time, error) {
	d := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if d.Year() != year || int(d.Month()) != month || d.Day() != day {
		return time.Time{}, fmt.Errorf("%04d-%02d-%02d is not a calendar date", year, month, day)
	}
	return d, nil
}

func dedupSorted(dates []time.Time) []time.Time {
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	unique := dates[:0]
	for i, d := range dates {
		if i == 0 || !d.Equal(dates[i-1]) {
			unique = append(unique, d)
		}
	}
	return unique
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
