package clarify

import (
	"strings"
	"unicode/utf8"

	"github.com/sweetpotato0/ai-lawdesk/intent"
	"github.com/sweetpotato0/ai-lawdesk/message"
)

// Heuristic decides without the model whether enough has been said.
type Heuristic interface {
	Sufficient(hist []*message.Message, in intent.Intent, rounds int) bool
}

// HeuristicName selects a Heuristic.
type HeuristicName string

const (
	HeuristicStrict  HeuristicName = "strict"
	HeuristicGeneric HeuristicName = "generic"
)

// NewHeuristic returns the named heuristic; unknown names get strict.
func NewHeuristic(name HeuristicName) Heuristic {
	if name == HeuristicGeneric {
		return Generic{}
	}
	return Strict{}
}

// longConsultation is the amount of user text, in characters, treated as
// enough detail on its own.
const longConsultation = 500

var (
	actionKeywords     = []string{"殴", "蹴", "刺", "切", "撃", "運転", "事故", "盗", "騙", "暴行", "窃盗", "詐欺", "hit", "punch", "stab", "stole", "steal", "fraud", "drove", "driving", "accident", "assault"}
	harmKeywords       = []string{"怪我", "骨折", "死亡", "円", "万円", "被害", "軽傷", "重傷", "injur", "fracture", "died", "yen", "damage"}
	contextKeywords    = []string{"昨日", "今日", "先日", "時", "場所", "相手", "警察", "逮捕", "yesterday", "today", "police", "arrest"}
	recordKeywords     = []string{"前科", "前歴", "初犯", "criminal record", "prior record", "first offense", "first-time"}
	settlementKeywords = []string{"示談", "和解", "被害弁償", "settle", "compensat"}
	sentenceHarm       = []string{"怪我", "骨折", "円", "万円", "被害", "軽傷", "重傷", "injur", "fracture", "yen", "damage"}
)

// Generic stops after three rounds or once the user has written at length.
type Generic struct{}

// Sufficient implements Heuristic.
func (Generic) Sufficient(hist []*message.Message, in intent.Intent, rounds int) bool {
	return rounds >= 3 || userLength(hist) > longConsultation
}

// Strict additionally stops from the second round once the per-intent
// keyword checklist is met: an act plus harm or context for offences, prior
// record plus settlement plus harm for sentences.
type Strict struct{}

// Sufficient implements Heuristic.
func (Strict) Sufficient(hist []*message.Message, in intent.Intent, rounds int) bool {
	if rounds >= 2 {
		texts := lowerUserTexts(hist)
		if in.AsksCrime() {
			action := anyContains(texts, actionKeywords)
			if action && (anyContains(texts, harmKeywords) || anyContains(texts, contextKeywords)) {
				return true
			}
		}
		if in.AsksSentence() {
			if anyContains(texts, recordKeywords) && anyContains(texts, settlementKeywords) && anyContains(texts, sentenceHarm) {
				return true
			}
		}
	}
	return Generic{}.Sufficient(hist, in, rounds)
}

func userLength(hist []*message.Message) int {
	n := 0
	for _, text := range message.UserTexts(hist) {
		n += utf8.RuneCountInString(text)
	}
	return n
}

func lowerUserTexts(hist []*message.Message) []string {
	texts := message.UserTexts(hist)
	for i := range texts {
		texts[i] = strings.ToLower(texts[i])
	}
	return texts
}

func anyContains(texts, keywords []string) bool {
	for _, text := range texts {
		for _, kw := range keywords {
			if strings.Contains(text, kw) {
				return true
			}
		}
	}
	return false
}
