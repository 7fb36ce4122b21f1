package intent

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/siherrmann/agrimarket/model"
)

const number = `(\d{1,3}(?:,\d{3})+(?:\.\d+)?|\d+(?:\.\d+)?)`

// Unit alternatives are ordered so that bushels per acre wins over bushels
var unitPatterns = []struct {
	unit    model.UnitTag
	pattern string
}{
	{model.UnitBushelPerAcre, `bu(?:shels?)?\s*(?:/|per)\s*ac(?:res?)?\b|부셸\s*/\s*에이커|에이커당\s*부셸`},
	{model.UnitBushel, `bushels?\b|bu\b|부셸`},
	{model.UnitTon, `metric\s+tons?\b|tonnes?\b|tons?\b|mt\b|톤`},
	{model.UnitAcre, `acres?\b|에이커`},
	{model.UnitHectare, `hectares?\b|ha\b|헥타르`},
}

var (
	quantityPattern = buildQuantityPattern()
	unitMatchers    = buildUnitMatchers()

	basisPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?:basis|베이시스)\s*(?:가|는|of|is|:|=)?\s*([+-]?\d+(?:\.\d+)?)\s*(?:cents?|센트|¢)?`),
		regexp.MustCompile(`([+-]?\d+(?:\.\d+)?)\s*(?:cents?|센트|¢)?\s*(?:basis|베이시스)`),
	}
	pricePattern = regexp.MustCompile(number + `\s*(?:cents?|센트|¢|c/bu)`)
)

type quantity struct {
	value decimal.Decimal
	unit  model.UnitTag
}

func buildQuantityPattern() *regexp.Regexp {
	alternatives := make([]string, len(unitPatterns))
	for i, u := range unitPatterns {
		alternatives[i] = u.pattern
	}
	return regexp.MustCompile(number + `(?:\s*(million|백만))?\s*(` + strings.Join(alternatives, "|") + `)`)
}

func buildUnitMatchers() []*regexp.Regexp {
	matchers := make([]*regexp.Regexp, len(unitPatterns))
	for i, u := range unitPatterns {
		matchers[i] = regexp.MustCompile(`^(?:` + u.pattern + `)$`)
	}
	return matchers
}

// extractQuantity returns the first number-with-unit of the query and how
// many further ones were ignored.
func extractQuantity(s *scanner) (*quantity, int) {
	matches := s.consume(quantityPattern)
	if len(matches) == 0 {
		return nil, 0
	}

	m := matches[0]
	value, err := parseNumber(m[1])
	if err != nil {
		return nil, len(matches) - 1
	}
	if m[2] != "" {
		value = value.Mul(decimal.NewFromInt(1_000_000))
	}

	for i, matcher := range unitMatchers {
		if matcher.MatchString(m[3]) {
			return &quantity{value: value, unit: unitPatterns[i].unit}, len(matches) - 1
		}
	}
	return nil, len(matches) - 1
}

// extractBasis returns the signed basis in cents following or preceding a basis keyword
func extractBasis(s *scanner) *decimal.Decimal {
	for _, re := range basisPatterns {
		matches := s.consume(re)
		if len(matches) == 0 {
			continue
		}
		v, err := decimal.NewFromString(strings.TrimPrefix(matches[0][1], "+"))
		if err != nil {
			return nil
		}
		return &v
	}
	return nil
}

// extractPrice returns a price quoted in cents
func extractPrice(s *scanner) *decimal.Decimal {
	matches := s.consume(pricePattern)
	if len(matches) == 0 {
		return nil
	}
	v, err := parseNumber(matches[0][1])
	if err != nil {
		return nil
	}
	return &v
}

func parseNumber(s string) (decimal.Decimal, error) {
	return decimal.NewFromString(strings.ReplaceAll(s, ",", ""))
}
