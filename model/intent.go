package model

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DateRangeMode marks whether a query asked for the most recent data
type DateRangeMode string

const (
	DateRangeNone   DateRangeMode = "NONE"
	DateRangeRecent DateRangeMode = "RECENT"
)

// UnitTag is the physical unit attached to a parsed quantity
type UnitTag string

const (
	UnitBushel        UnitTag = "bushel"
	UnitTon           UnitTag = "ton"
	UnitAcre          UnitTag = "acre"
	UnitHectare       UnitTag = "hectare"
	UnitBushelPerAcre UnitTag = "bu_per_acre"
)

// AmbiguityKind names a best-effort decision the parser had to take
type AmbiguityKind string

const (
	AmbiguityExtraDates      AmbiguityKind = "extra_dates"
	AmbiguityExtraQuantities AmbiguityKind = "extra_quantities"
	AmbiguityInvalidDate     AmbiguityKind = "invalid_date"
)

// Ambiguity is a non-fatal parse signal
type Ambiguity struct {
	Kind   AmbiguityKind `json:"kind"`
	Detail string        `json:"detail"`
}

// ParsedIntent holds the structured facts extracted from a query.
// Absent signals are nil or empty, never errors.
type ParsedIntent struct {
	Text          string           `json:"text"`
	Dates         []time.Time      `json:"dates,omitempty"` // sorted, deduplicated, at most two
	DateRangeMode DateRangeMode    `json:"date_range_mode"`
	Commodity     *CommodityID     `json:"commodity,omitempty"`
	Mentions      []CommodityID    `json:"mentions,omitempty"`
	Value         *decimal.Decimal `json:"value,omitempty"`
	Unit          *UnitTag         `json:"unit,omitempty"`
	Price         *decimal.Decimal `json:"price,omitempty"` // cents per bushel
	Basis         *decimal.Decimal `json:"basis,omitempty"` // cents per bushel, signed
	Ambiguities   []Ambiguity      `json:"ambiguities,omitempty"`
}

// HasDate reports whether an explicit date was found
func (p *ParsedIntent) HasDate() bool {
	return len(p.Dates) > 0
}

// HasQuantity reports whether a number with a unit was found
func (p *ParsedIntent) HasQuantity() bool {
	return p.Value != nil && p.Unit != nil
}

// Mentioned reports whether c was named anywhere in the query
func (p *ParsedIntent) Mentioned(c CommodityID) bool {
	for _, m := range p.Mentions {
		if m == c {
			return true
		}
	}
	return false
}

// ContainsAny reports whether the lowered query contains any of the keywords
func (p *ParsedIntent) ContainsAny(keywords []string) bool {
	lowered := strings.ToLower(p.Text)
	for _, k := range keywords {
		if ContainsKeyword(lowered, strings.ToLower(k)) {
			return true
		}
	}
	return false
}

// ContainsKeyword reports whether text contains keyword. An ASCII letter or
// digit at either end of keyword only matches on a word boundary, so "now"
// is not found in "know". Korean keywords match anywhere since particles
// attach to the word.
func ContainsKeyword(text, keyword string) bool {
	if keyword == "" {
		return false
	}
	for from := 0; from < len(text); {
		i := strings.Index(text[from:], keyword)
		if i < 0 {
			return false
		}
		start, end := from+i, from+i+len(keyword)
		leftOK := !isWordByte(keyword[0]) || start == 0 || !isWordByte(text[start-1])
		rightOK := !isWordByte(keyword[len(keyword)-1]) || end == len(text) || !isWordByte(text[end])
		if leftOK && rightOK {
			return true
		}
		from = start + 1
	}
	return false
}

func isWordByte(b byte) bool {
	return b >= 'a' && b <= 'z' || b >= 'A' && b <= 'Z' || b >= '0' && b <= '9'
}

// Err returns ErrParseAmbiguous with details when the parser had to guess
func (p *ParsedIntent) Err() error {
	if len(p.Ambiguities) == 0 {
		return nil
	}
	details := make([]string, len(p.Ambiguities))
	for i, a := range p.Ambiguities {
		details[i] = a.Detail
	}
	return fmt.Errorf("%w: %s", ErrParseAmbiguous, strings.Join(details, "; "))
}
