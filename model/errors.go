package model

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrParseAmbiguous signals a best-effort parse. It is never fatal.
	ErrParseAmbiguous = errors.New("query is ambiguous")
	// ErrStoreUnavailable signals that the structured store could not be read
	ErrStoreUnavailable = errors.New("data temporarily unavailable")
	// ErrNoCalculation signals that no calculation matches the query
	ErrNoCalculation = errors.New("no calculation recognized in query")
	// ErrUnsupportedConversion is matched by UnsupportedConversionError
	ErrUnsupportedConversion = errors.New("unsupported conversion")
	// ErrInsufficientData is matched by InsufficientDataError
	ErrInsufficientData = errors.New("insufficient data")
)

// UnsupportedConversionError is returned when a commodity lacks the requested factor
type UnsupportedConversionError struct {
	Conversion string
	Commodity  *CommodityID
}

func (e *UnsupportedConversionError) Error() string {
	if e.Commodity == nil {
		return fmt.Sprintf("%s requires a commodity (corn, wheat or soybean)", e.Conversion)
	}
	return fmt.Sprintf("%s is not supported for %s: it is quoted by weight, not by bushel", e.Conversion, *e.Commodity)
}

func (e *UnsupportedConversionError) Is(target error) bool {
	return target == ErrUnsupportedConversion
}

// InsufficientDataError is returned when a leg of a multi-price calculation is missing
type InsufficientDataError struct {
	Calculation string
	Date        time.Time
	Missing     []CommodityID
}

func (e *InsufficientDataError) Error() string {
	names := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		names[i] = string(m)
	}
	if e.Date.IsZero() {
		return fmt.Sprintf("cannot compute %s: missing price for %s", e.Calculation, strings.Join(names, ", "))
	}
	return fmt.Sprintf("cannot compute %s for %s: missing price for %s",
		e.Calculation, e.Date.Format(DateLayout), strings.Join(names, ", "))
}

func (e *InsufficientDataError) Is(target error) bool {
	return target == ErrInsufficientData
}
