package clarify

import (
	"errors"
	"strings"

	"github.com/sweetpotato0/ai-lawdesk/intent"
)

// ErrComposeRejected is returned when no valid question set can be built.
var ErrComposeRejected = errors.New("clarify: question set below minimum")

var synthTemplates = []string{
	"%sについて詳しく教えてください。",
	"%sに関連する事実経過を教えてください。",
	"%sについて現在わかっていることを教えてください。",
}

// Limits bounds the size of a question set.
type Limits struct {
	Min int
	Max int
}

// DefaultLimits asks between three and five questions per round.
var DefaultLimits = Limits{Min: 3, Max: 5}

// Compose builds a question set within DefaultLimits.
func Compose(items, missingRequired []string, in intent.Intent, excluded []string) ([]string, error) {
	return DefaultLimits.Compose(items, missingRequired, in, excluded)
}

// Compose normalizes items, drops duplicates and anything in excluded, then
// pads a short set first from missingRequired and then from the intent's
// default questions. List numbering is ignored when comparing questions.
func (l Limits) Compose(items, missingRequired []string, in intent.Intent, excluded []string) ([]string, error) {
	set := newQuestionSet(excluded)
	for _, item := range items {
		set.add(item)
	}

	if set.len() < l.Min {
		// Breadth first: every item gets its first template before any
		// item gets its second.
		for _, tmpl := range synthTemplates {
			for _, raw := range missingRequired {
				key := strings.TrimSpace(raw)
				if key == "" {
					continue
				}
				set.add(strings.Replace(tmpl, "%s", key, 1))
				if set.len() >= l.Min {
					break
				}
			}
			if set.len() >= l.Min {
				break
			}
		}
	}

	if set.len() < l.Min {
		for _, q := range DefaultQuestions(in) {
			set.add(q)
			if set.len() >= l.Min {
				break
			}
		}
	}

	out := set.items
	if len(out) > l.Max {
		out = out[:l.Max]
	}
	if len(out) < l.Min {
		return nil, ErrComposeRejected
	}
	return out, nil
}

type questionSet struct {
	seen  map[string]struct{}
	items []string
}

func newQuestionSet(excluded []string) *questionSet {
	s := &questionSet{seen: make(map[string]struct{}, len(excluded))}
	for _, e := range excluded {
		if key := StripNumber(e); key != "" {
			s.seen[key] = struct{}{}
		}
	}
	return s
}

func (s *questionSet) add(q string) {
	q = StripNumber(q)
	if q == "" {
		return
	}
	if _, ok := s.seen[q]; ok {
		return
	}
	s.seen[q] = struct{}{}
	s.items = append(s.items, q)
}

func (s *questionSet) len() int {
	return len(s.items)
}
