package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/siherrmann/agrimarket/core/calculator"
	"github.com/siherrmann/agrimarket/core/retrieval"
	"github.com/siherrmann/agrimarket/model"
)

// IntentParser turns raw text into a parsed intent
type IntentParser interface {
	Parse(text string) model.ParsedIntent
}

// CalculationDetector tells whether a query asks for a calculation
type CalculationDetector interface {
	Detect(intent model.ParsedIntent) (calculator.Calculation, bool)
}

// Calculator runs the calculation a query asks for
type Calculator interface {
	CalculationDetector
	Calculate(ctx context.Context, intent model.ParsedIntent) (*calculator.Result, error)
}

// StructuredSource reads the structured market store
type StructuredSource interface {
	Retrieve(ctx context.Context, intent model.ParsedIntent) *retrieval.StructuredResult
}

// SemanticSource searches the document index
type SemanticSource interface {
	Retrieve(ctx context.Context, query string, k int) ([]*model.SearchResult, error)
}

// Generator turns a retrieved context into a conversational reply.
// It is optional, without one the payload is returned as is.
type Generator interface {
	Generate(ctx context.Context, context string) (string, error)
}

// Dispatcher picks the action answering a query and runs it
type Dispatcher struct {
	parser     IntentParser
	calculator Calculator
	structured StructuredSource
	semantic   SemanticSource
	generator  Generator
	rules      []Rule
	logger     *slog.Logger
}

// NewDispatcher creates a dispatcher using DefaultRules. A nil semantic
// source answers every search with StatusUnavailable.
func NewDispatcher(parser IntentParser, calc Calculator, structured StructuredSource, semantic SemanticSource, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		parser:     parser,
		calculator: calc,
		structured: structured,
		semantic:   semantic,
		rules:      DefaultRules,
		logger:     logger,
	}
}

// WithGenerator sets the generator answers are passed through
func (d *Dispatcher) WithGenerator(g Generator) *Dispatcher {
	d.generator = g
	return d
}

// WithRules replaces the decision table
func (d *Dispatcher) WithRules(rules []Rule) *Dispatcher {
	d.rules = rules
	return d
}

// Route parses text and returns the rule deciding its action
func (d *Dispatcher) Route(text string) (model.ParsedIntent, Rule) {
	intent := d.parser.Parse(text)
	return intent, Decide(d.rules, NewSignals(intent, d.calculator))
}

// Answer answers a free text query. It never fails: errors are reported
// through the status of the answer.
func (d *Dispatcher) Answer(ctx context.Context, text string) model.Answer {
	start := time.Now()
	intent, rule := d.Route(text)

	d.logger.Debug("Dispatching query", slog.String("rule", rule.Name), slog.String("action", string(rule.Action)))
	rulesMatchedTotal.WithLabelValues(rule.Name, string(rule.Action)).Inc()

	answer := d.run(ctx, rule.Action, intent)
	if !answer.OK() {
		if next, ok := Fallback(rule.Action); ok {
			d.logger.Info("Falling back",
				slog.String("from", string(rule.Action)),
				slog.String("to", string(next)),
				slog.String("status", string(answer.Status)),
			)
			fallbacksTotal.WithLabelValues(string(rule.Action), string(next)).Inc()

			second := d.run(ctx, next, intent)
			if second.OK() {
				second.FallbackFrom = answer.Kind
				answer = second
			} else {
				answer.Notes = append(answer.Notes, fmt.Sprintf("fallback to %s found nothing either", next.Kind()))
			}
		}
	}

	for _, a := range intent.Ambiguities {
		answer.Notes = append(answer.Notes, a.Detail)
	}

	if answer.OK() && d.generator != nil {
		reply, err := d.generator.Generate(ctx, answer.Payload)
		if err != nil {
			d.logger.Warn("Error generating reply", slog.String("error", err.Error()))
		} else {
			answer.Payload = reply
		}
	}

	answersTotal.WithLabelValues(string(answer.Kind), string(answer.Status)).Inc()
	answerDuration.WithLabelValues(string(answer.Kind)).Observe(time.Since(start).Seconds())

	return answer
}

func (d *Dispatcher) run(ctx context.Context, action Action, intent model.ParsedIntent) model.Answer {
	switch action {
	case ActionCalculate:
		return d.calculate(ctx, intent)
	case ActionQueryStructured:
		return d.queryStructured(ctx, intent)
	default:
		return d.searchSemantic(ctx, intent)
	}
}

func (d *Dispatcher) calculate(ctx context.Context, intent model.ParsedIntent) model.Answer {
	answer := model.Answer{Kind: model.KindCalculated}

	result, err := d.calculator.Calculate(ctx, intent)
	if err != nil {
		answer.Status = calculationStatus(err)
		answer.Payload = err.Error()
		return answer
	}

	answer.Status = model.StatusOK
	answer.Payload = result.Render()
	answer.SourceSpan = result.Span
	answer.Notes = append(answer.Notes, result.Notes...)
	return answer
}

func calculationStatus(err error) model.AnswerStatus {
	switch {
	case errors.Is(err, model.ErrUnsupportedConversion):
		return model.StatusUnsupported
	case errors.Is(err, model.ErrInsufficientData):
		return model.StatusInsufficientData
	case errors.Is(err, model.ErrNoCalculation):
		return model.StatusNoData
	}
	return model.StatusUnavailable
}

func (d *Dispatcher) queryStructured(ctx context.Context, intent model.ParsedIntent) model.Answer {
	answer := model.Answer{Kind: model.KindStructured}

	result := d.structured.Retrieve(ctx, intent)
	switch {
	case !result.Empty():
		answer.Status = model.StatusOK
	case result.Unavailable():
		answer.Status = model.StatusUnavailable
		answer.Payload = model.ErrStoreUnavailable.Error()
		return answer
	default:
		answer.Status = model.StatusNoData
		answer.Payload = "no market data found for the query"
		return answer
	}

	answer.Payload = result.Render()
	answer.SourceSpan = result.Span()
	for _, s := range []*retrieval.Section{&result.Summaries.Section, &result.News.Section, &result.Prices.Section} {
		if s.Requested != nil && s.Found != nil && s.Requested.String() != s.Found.String() {
			answer.Notes = append(answer.Notes, fmt.Sprintf("%s: requested %s, found %s", s.Name, s.Requested, s.Found))
		}
	}
	return answer
}

func (d *Dispatcher) searchSemantic(ctx context.Context, intent model.ParsedIntent) model.Answer {
	answer := model.Answer{Kind: model.KindSemantic}
	if d.semantic == nil {
		answer.Status = model.StatusUnavailable
		answer.Payload = "document search is not configured"
		return answer
	}

	results, err := d.semantic.Retrieve(ctx, intent.Text, 0)
	if err != nil {
		d.logger.Warn("Error searching documents", slog.String("error", err.Error()))
		answer.Status = model.StatusUnavailable
		answer.Payload = "document search temporarily unavailable"
		return answer
	}
	if len(results) == 0 {
		answer.Status = model.StatusNoData
		answer.Payload = "no documents found for the query"
		return answer
	}

	answer.Status = model.StatusOK
	answer.Payload = retrieval.RenderDocuments(results)
	answer.SourceSpan = retrieval.DocumentSpan(results)
	return answer
}
