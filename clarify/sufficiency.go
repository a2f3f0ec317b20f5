package clarify

import (
	"encoding/json"
	"strings"
)

// Focus is the stage of fact gathering the analyzer is working on.
type Focus string

const (
	FocusBig        Focus = "big"
	FocusDetail     Focus = "detail"
	FocusSentencing Focus = "sentencing"
)

// Policy decides how far the model's has_enough verdict is trusted.
type Policy string

const (
	// PolicyConservative keeps asking while any required item is missing or
	// the model proposes questions without confirming sufficiency.
	PolicyConservative Policy = "conservative"
	// PolicyTrustModel stops as soon as the model reports has_enough.
	PolicyTrustModel Policy = "trust_model"
)

// Sufficiency is the analyzer's verdict for one turn.
type Sufficiency struct {
	AskMore         bool
	HasEnough       *bool
	MissingRequired []string
	MissingOptional []string
	Confidence      float64
	Focus           Focus
	BigCategory     string
	QuestionItems   []string
	Rationale       string
}

// EssentialMissing reports whether another round is warranted.
func (s *Sufficiency) EssentialMissing(policy Policy) bool {
	if s == nil {
		return false
	}
	enough := s.HasEnough != nil && *s.HasEnough
	if policy == PolicyTrustModel && enough {
		return false
	}
	if len(s.MissingRequired) > 0 {
		return true
	}
	return !enough && len(s.QuestionItems) > 0
}

// Questions returns the proposed questions, synthesizing one per missing
// required item when the model proposed none.
func (s *Sufficiency) Questions() []string {
	if len(s.QuestionItems) > 0 || len(s.MissingRequired) == 0 {
		return s.QuestionItems
	}
	out := make([]string, 0, len(s.MissingRequired))
	for _, item := range s.MissingRequired {
		out = append(out, item+"について詳しく教えてください。")
	}
	return out
}

// analysis is the JSON contract of the gap analysis call.
type analysis struct {
	AskMore     bool `json:"ask_more"`
	Sufficiency struct {
		HasEnough       *bool      `json:"has_enough"`
		MissingRequired stringList `json:"missing_required"`
		MissingOptional stringList `json:"missing_optional"`
		Confidence      float64    `json:"confidence"`
	} `json:"sufficiency"`
	Focus         string     `json:"focus"`
	BigCategory   string     `json:"big_category"`
	QuestionItems stringList `json:"question_items"`
	Reason        string     `json:"reason"`
}

func (a *analysis) toSufficiency() *Sufficiency {
	return &Sufficiency{
		AskMore:         a.AskMore,
		HasEnough:       a.Sufficiency.HasEnough,
		MissingRequired: a.Sufficiency.MissingRequired,
		MissingOptional: a.Sufficiency.MissingOptional,
		Confidence:      a.Sufficiency.Confidence,
		Focus:           Focus(strings.TrimSpace(a.Focus)),
		BigCategory:     strings.TrimSpace(a.BigCategory),
		QuestionItems:   a.QuestionItems,
		Rationale:       a.Reason,
	}
}

// stringList decodes a JSON array keeping only non-blank strings, trimmed.
// Models occasionally mix in numbers or nulls.
type stringList []string

func (l *stringList) UnmarshalJSON(data []byte) error {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	*l = out
	return nil
}
