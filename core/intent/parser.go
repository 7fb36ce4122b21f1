package intent

import (
	"fmt"
	"time"

	"github.com/siherrmann/agrimarket/model"
)

// MaxDates is the number of explicit dates a query can carry
const MaxDates = 2

// RecencyKeywords mark a query for the most recent data
var RecencyKeywords = []string{"가장 최근", "최근", "최신", "most recent", "recent", "recently", "latest"}

// Parser extracts a model.ParsedIntent from free Korean or English text
type Parser struct {
	// Now anchors relative dates and years left out of the query
	Now func() time.Time
}

// NewParser creates a parser anchored at the wall clock
func NewParser() *Parser {
	return &Parser{Now: time.Now}
}

// Parse never fails. Missing signals are left empty and guesses are
// recorded in ParsedIntent.Ambiguities.
func (p *Parser) Parse(text string) model.ParsedIntent {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}

	parsed := model.ParsedIntent{
		Text:          text,
		DateRangeMode: model.DateRangeNone,
	}

	s := newScanner(text)

	dates, ambiguities := extractDates(s, model.Day(now()))
	parsed.Ambiguities = append(parsed.Ambiguities, ambiguities...)
	if len(dates) > MaxDates {
		parsed.Ambiguities = append(parsed.Ambiguities, model.Ambiguity{
			Kind:   model.AmbiguityExtraDates,
			Detail: fmt.Sprintf("found %d dates, kept the first %d", len(dates), MaxDates),
		})
		dates = dates[:MaxDates]
	}
	parsed.Dates = dates

	if len(parsed.Dates) == 0 && parsed.ContainsAny(RecencyKeywords) {
		parsed.DateRangeMode = model.DateRangeRecent
	}

	parsed.Mentions = model.MentionedCommodities(text)
	if len(parsed.Mentions) > 0 {
		first := parsed.Mentions[0]
		parsed.Commodity = &first
	}

	parsed.Basis = extractBasis(s)
	parsed.Price = extractPrice(s)

	q, extra := extractQuantity(s)
	if q != nil {
		parsed.Value = &q.value
		parsed.Unit = &q.unit
	}
	if extra > 0 {
		parsed.Ambiguities = append(parsed.Ambiguities, model.Ambiguity{
			Kind:   model.AmbiguityExtraQuantities,
			Detail: fmt.Sprintf("only the first quantity is used, ignored %d more", extra),
		})
	}

	return parsed
}
