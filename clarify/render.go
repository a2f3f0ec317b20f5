package clarify

import (
	"strconv"
	"strings"

	"github.com/sweetpotato0/ai-lawdesk/intent"
)

// Intro sentences preceding the numbered questions.
const (
	IntroCombined   = "罪名と量刑を総合的に判断するため、以下の情報を教えてください。"
	IntroDetail     = "より具体的な状況を把握するため、以下を教えてください。"
	IntroSentencing = "量刑の検討に必要な情報を確認させてください。"
	IntroGeneral    = "状況を把握するため、次の点を教えてください。"
	IntroFallback   = "状況を把握するため、以下について教えてください。"

	KnownFactsTitle  = "【現在判明している情報】"
	FactsPlaceholder = "相談内容を確認中"
)

// chooseIntro picks the intro by intent first, then by analysis focus.
func chooseIntro(in intent.Intent, focus Focus, bigCategory string) string {
	switch {
	case in == intent.PredictCrimeAndPunishment:
		return IntroCombined
	case focus == FocusDetail && bigCategory != "":
		return IntroDetail
	case focus == FocusSentencing:
		return IntroSentencing
	default:
		return IntroGeneral
	}
}

// renderBlock formats a clarification round:
//
//	【確認ステップ 第n回】
//	【現在判明している情報】
//	・fact
//
//	想定される大分類: X
//	intro
//	1. question
func renderBlock(round int, facts []string, bigCategory, intro string, questions []string) string {
	lines := []string{Header(round), KnownFactsTitle}
	for _, f := range facts {
		lines = append(lines, "・"+f)
	}
	lines = append(lines, "")
	if bigCategory != "" {
		lines = append(lines, "想定される大分類: "+bigCategory)
	}
	lines = append(lines, intro)
	lines = append(lines, numberLines(questions)...)
	return strings.Join(lines, "\n")
}

// renderFallback formats the fixed default-question block.
func renderFallback(round int, questions []string) string {
	lines := []string{Header(round), IntroFallback}
	lines = append(lines, numberLines(questions)...)
	return strings.Join(lines, "\n")
}

func numberLines(questions []string) []string {
	out := make([]string, 0, len(questions))
	for i, q := range questions {
		out = append(out, strconv.Itoa(i+1)+". "+q)
	}
	return out
}
