package model

// AnswerKind is the terminal action that produced an answer
type AnswerKind string

const (
	KindStructured AnswerKind = "STRUCTURED"
	KindCalculated AnswerKind = "CALCULATED"
	KindSemantic   AnswerKind = "SEMANTIC"
)

// AnswerStatus tells the caller whether the payload carries data
type AnswerStatus string

const (
	StatusOK               AnswerStatus = "ok"
	StatusNoData           AnswerStatus = "no_data"
	StatusUnsupported      AnswerStatus = "unsupported"
	StatusInsufficientData AnswerStatus = "insufficient_data"
	StatusUnavailable      AnswerStatus = "unavailable"
)

// Answer is the result handed to the conversational layer
type Answer struct {
	Kind         AnswerKind   `json:"kind"`
	Status       AnswerStatus `json:"status"`
	Payload      string       `json:"payload"`
	SourceSpan   *DateWindow  `json:"source_span,omitempty"` // date range actually used
	FallbackFrom AnswerKind   `json:"fallback_from,omitempty"`
	Notes        []string     `json:"notes,omitempty"`
}

// OK reports whether the answer carries data
func (a *Answer) OK() bool {
	return a.Status == StatusOK
}
