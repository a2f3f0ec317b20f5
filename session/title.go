package session

import (
	"strings"
	"unicode/utf8"
)

const maxTitleRunes = 30

// titleKeywords maps a consultation keyword to a short title. Earlier
// entries win.
var titleKeywords = []struct {
	keyword, title string
}{
	{"逮捕", "逮捕に関する相談"},
	{"示談", "示談についての相談"},
	{"弁護士", "弁護士についての質問"},
	{"警察", "警察関連の相談"},
	{"裁判", "裁判についての相談"},
	{"刑事", "刑事事件の相談"},
	{"窃盗", "窃盗事件について"},
	{"暴行", "暴行事件について"},
	{"詐欺", "詐欺事件について"},
	{"交通事故", "交通事故の相談"},
	{"飲酒運転", "飲酒運転について"},
	{"薬物", "薬物関連の相談"},
	{"保釈", "保釈についての質問"},
	{"起訴", "起訴についての相談"},
	{"前科", "前科についての質問"},
	{"被害者", "被害者関連の相談"},
	{"慰謝料", "慰謝料についての相談"},
	{"執行猶予", "執行猶予について"},
	{"罰金", "罰金についての質問"},
	{"懲役", "懲役についての質問"},
}

// Title derives a conversation title from the first user message. Short
// messages are kept verbatim; longer ones map to a keyword title, then to
// their first sentence, then to a truncated prefix.
func Title(text string) string {
	text = strings.TrimSpace(strings.Join(strings.Fields(text), " "))
	if text == "" {
		return ""
	}
	if fits(text) {
		return text
	}
	for _, k := range titleKeywords {
		if strings.Contains(text, k.keyword) {
			return k.title
		}
	}
	if first, _, ok := strings.Cut(text, "。"); ok && first != "" && fits(first) {
		return first
	}
	if first, _, ok := strings.Cut(text, "？"); ok && fits(first+"？") {
		return first + "？"
	}
	runes := []rune(text)
	return string(runes[:maxTitleRunes-3]) + "..."
}

func fits(s string) bool {
	return utf8.RuneCountInString(s) <= maxTitleRunes
}
