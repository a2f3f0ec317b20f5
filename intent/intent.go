// Package intent classifies what a consultation is asking for.
package intent

import (
	"fmt"
	"strings"

	lderrors "github.com/sweetpotato0/ai-lawdesk/errors"
)

// Intent is the closed set of request kinds the engine routes on.
type Intent string

const (
	PredictCrimeType          Intent = "predict_crime_type"
	PredictPunishment         Intent = "predict_punishment"
	PredictCrimeAndPunishment Intent = "predict_crime_and_punishment"
	LegalProcess              Intent = "legal_process"
	NoLegal                   Intent = "no_legal"
	Injection                 Intent = "injection"
)

// All lists every intent in routing order.
var All = []Intent{
	PredictCrimeType,
	PredictPunishment,
	PredictCrimeAndPunishment,
	LegalProcess,
	NoLegal,
	Injection,
}

// Parse maps a classifier tag to an Intent. Unknown tags wrap
// errors.ErrInvalidIntent.
func Parse(tag string) (Intent, error) {
	candidate := Intent(strings.TrimSpace(tag))
	for _, in := range All {
		if in == candidate {
			return in, nil
		}
	}
	return "", fmt.Errorf("%w: %q", lderrors.ErrInvalidIntent, tag)
}

// IsLegal reports whether the intent asks a legal question the engine answers.
func (i Intent) IsLegal() bool {
	switch i {
	case PredictCrimeType, PredictPunishment, PredictCrimeAndPunishment, LegalProcess:
		return true
	default:
		return false
	}
}

// AsksCrime reports whether the answer names likely offences.
func (i Intent) AsksCrime() bool {
	return i == PredictCrimeType || i == PredictCrimeAndPunishment
}

// AsksSentence reports whether the answer predicts a sentence.
func (i Intent) AsksSentence() bool {
	return i == PredictPunishment || i == PredictCrimeAndPunishment
}

// String implements fmt.Stringer.
func (i Intent) String() string {
	return string(i)
}
