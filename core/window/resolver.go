package window

import (
	"context"
	"fmt"
	"time"

	"github.com/siherrmann/agrimarket/helper"
	"github.com/siherrmann/agrimarket/model"
)

// Source is a table whose latest date anchors relative windows
type Source string

const (
	SourceSummaries Source = "summaries"
	SourceNews      Source = "news"
	SourcePrices    Source = "prices"
)

// LatestDateProbe returns the newest stored date of a source, nil when it is empty.
// A nil commodity means across all commodities.
type LatestDateProbe interface {
	SelectMaxDate(ctx context.Context, commodity *model.CommodityID) (*time.Time, error)
}

// SubIntent is the shape of window a query without explicit dates asks for
type SubIntent int

const (
	SubIntentDefault SubIntent = iota
	SubIntentPeriod
	SubIntentTrend
	SubIntentPoint
)

var (
	PeriodKeywords = []string{"일주일", "한주", "한 주", "주간", "지난주", "일간", "며칠", "몇일", "기간", "week", "weeks", "weekly", "7 days", "few days", "past days"}
	TrendKeywords  = []string{"변화", "변동", "추이", "추세", "흐름", "비교", "change", "changes", "changed", "trend", "trends", "compare", "compared", "comparison", "movement"}
	PointKeywords  = []string{"지금", "현재", "오늘", "얼마", "now", "today", "how much", "current", "currently"}
)

// Classify sorts a query into a sub-intent. Period keywords win, then trend
// keywords unless a single point was asked for, then single point keywords.
func Classify(intent model.ParsedIntent) SubIntent {
	point := intent.ContainsAny(PointKeywords)
	switch {
	case intent.ContainsAny(PeriodKeywords):
		return SubIntentPeriod
	case intent.ContainsAny(TrendKeywords) && !point:
		return SubIntentTrend
	case point:
		return SubIntentPoint
	}
	return SubIntentDefault
}

// Resolver turns a parsed query into the concrete dates to read
type Resolver struct {
	probes map[Source]LatestDateProbe
	days   int
}

// NewResolver creates a resolver building windows of days days, inclusive of the anchor
func NewResolver(days int, summaries, news, prices LatestDateProbe) *Resolver {
	return &Resolver{
		probes: map[Source]LatestDateProbe{
			SourceSummaries: summaries,
			SourceNews:      news,
			SourcePrices:    prices,
		},
		days: days,
	}
}

// Resolve returns the window to read from source. Explicit dates are used as
// they are. Otherwise the window is anchored at the newest stored date, which
// may lag the calendar. ok is false when source holds no data at all.
func (r *Resolver) Resolve(ctx context.Context, intent model.ParsedIntent, source Source, commodity *model.CommodityID) (model.DateWindow, bool, error) {
	if len(intent.Dates) == 1 {
		return model.SingleDay(intent.Dates[0]), true, nil
	}
	if len(intent.Dates) > 1 {
		return model.NewPoints(intent.Dates), true, nil
	}

	anchor, err := r.Latest(ctx, source, commodity)
	if err != nil {
		return model.DateWindow{}, false, err
	}
	if anchor == nil {
		return model.DateWindow{}, false, nil
	}

	if Classify(intent) == SubIntentPoint {
		return model.SingleDay(*anchor), true, nil
	}
	return r.Window(*anchor), true, nil
}

// Latest returns the newest date of source. Summaries are not scoped to a
// commodity, news and prices are since their cadence differs per commodity.
func (r *Resolver) Latest(ctx context.Context, source Source, commodity *model.CommodityID) (*time.Time, error) {
	probe, ok := r.probes[source]
	if !ok || probe == nil {
		return nil, helper.NewError("latest date", fmt.Errorf("no probe for source %q", source))
	}

	if source == SourceSummaries {
		commodity = nil
	}
	latest, err := probe.SelectMaxDate(ctx, commodity)
	if err != nil {
		return nil, helper.NewError("select max date of "+string(source), err)
	}
	return latest, nil
}

// Window returns the inclusive window of r.days days ending at anchor
func (r *Resolver) Window(anchor time.Time) model.DateWindow {
	return model.NewRange(anchor.AddDate(0, 0, -(r.days-1)), anchor)
}
