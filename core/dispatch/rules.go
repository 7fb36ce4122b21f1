package dispatch

import (
	"github.com/siherrmann/agrimarket/core/calculator"
	"github.com/siherrmann/agrimarket/model"
)

// Action is the terminal action of a query
type Action string

const (
	ActionCalculate       Action = "CALCULATE"
	ActionQueryStructured Action = "QUERY_STRUCTURED"
	ActionSearchSemantic  Action = "SEARCH_SEMANTIC"
)

// Kind is the answer kind an action produces
func (a Action) Kind() model.AnswerKind {
	switch a {
	case ActionCalculate:
		return model.KindCalculated
	case ActionQueryStructured:
		return model.KindStructured
	}
	return model.KindSemantic
}

// OpenEndedKeywords mark why/impact/background questions
var OpenEndedKeywords = []string{
	"왜", "이유", "원인", "영향", "배경", "관계", "상관", "과거", "사례", "전망",
	"why", "impact", "impacts", "effect", "effects", "cause", "causes", "caused", "reason", "reasons",
	"background", "relationship", "history", "outlook",
}

// Signals are the facts of a query the decision table looks at
type Signals struct {
	Intent         model.ParsedIntent
	Calculation    calculator.Calculation
	HasCalculation bool
	HasDate        bool // explicit date
	Recent         bool
	HasCommodity   bool
	OpenEnded      bool
}

// NewSignals derives the signals of a parsed query
func NewSignals(intent model.ParsedIntent, detector CalculationDetector) Signals {
	s := Signals{
		Intent:       intent,
		HasDate:      intent.HasDate(),
		Recent:       intent.DateRangeMode == model.DateRangeRecent,
		HasCommodity: intent.Commodity != nil,
		OpenEnded:    intent.ContainsAny(OpenEndedKeywords),
	}
	if detector != nil {
		s.Calculation, s.HasCalculation = detector.Detect(intent)
	}
	return s
}

// Rule is one row of the decision table
type Rule struct {
	Name   string
	Match  func(Signals) bool
	Action Action
}

// DefaultRules is the ordered decision table. The first matching rule wins
// and the last rule always matches.
var DefaultRules = []Rule{
	{
		Name:   "calculation",
		Match:  func(s Signals) bool { return s.HasCalculation },
		Action: ActionCalculate,
	},
	{
		Name:   "date and commodity",
		Match:  func(s Signals) bool { return s.HasDate && s.HasCommodity },
		Action: ActionQueryStructured,
	},
	{
		Name:   "open-ended",
		Match:  func(s Signals) bool { return s.OpenEnded },
		Action: ActionSearchSemantic,
	},
	{
		Name:   "date or commodity",
		Match:  func(s Signals) bool { return s.HasDate || s.Recent || s.HasCommodity },
		Action: ActionQueryStructured,
	},
	{
		Name:   "default",
		Match:  func(Signals) bool { return true },
		Action: ActionSearchSemantic,
	},
}

// Decide returns the first rule of rules matching s
func Decide(rules []Rule, s Signals) Rule {
	for _, r := range rules {
		if r.Match(s) {
			return r
		}
	}
	return DefaultRules[len(DefaultRules)-1]
}

// Fallback returns the action tried when action yields nothing. Calculations
// have none: their errors are the answer.
func Fallback(action Action) (Action, bool) {
	switch action {
	case ActionQueryStructured:
		return ActionSearchSemantic, true
	case ActionSearchSemantic:
		return ActionQueryStructured, true
	}
	return "", false
}
