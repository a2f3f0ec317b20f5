package clarify

import "github.com/sweetpotato0/ai-lawdesk/intent"

var (
	crimeTypeDefaults = []string{
		"どのような行為（または被害）が生じたのか教えてください",
		"いつ・どこで起きた出来事でしょうか？",
		"被害者や関係者は誰ですか？",
		"事件の経緯や動機について教えてください",
		"現在の状況（逮捕・在宅など）はどうなっていますか？",
	}
	punishmentDefaults = []string{
		"どのような罪名・犯行内容で量刑を予測したいですか？具体的に教えてください",
		"被害の具体的な内容と程度（怪我の有無・程度、被害金額、精神的被害など）を詳しく教えてください",
		"前科・前歴はありますか？ある場合は、同種前科か否か、内容と回数を教えてください",
		"被害者との示談は成立していますか？示談金額や被害者の処罰感情（厳罰を望むか、寛大な処分を望むか）も教えてください",
		"犯行に計画性はありましたか？また、動機や経緯に情状酌量の余地はありますか？",
		"犯行後の反省の程度、被害者への謝罪、自首の有無、再犯防止の取り組みについて教えてください",
	}
	combinedDefaults = []string{
		"どのような行為（または被害）が生じたのか具体的に教えてください",
		"被害の程度（怪我の有無・程度、被害金額など）を詳しく教えてください",
		"前科・前歴はありますか？ある場合は同種前科か、内容と回数を教えてください",
		"被害者との示談状況と被害者の処罰感情について教えてください",
		"犯行の計画性・動機、反省の程度について教えてください",
	}
	processDefaults = []string{
		"現在の手続き段階（逮捕・勾留・起訴など）を教えてください",
		"警察や検察から受けた連絡内容はありますか？",
		"弁護士の有無や今後不安な点は何ですか？",
		"事件の概要を簡潔に教えてください",
		"今後の見通しについて知りたいことは何ですか？",
	}
)

// DefaultQuestions returns the fixed questions asked for in when no model
// output is usable. The slice is a copy.
func DefaultQuestions(in intent.Intent) []string {
	var src []string
	switch in {
	case intent.PredictCrimeType:
		src = crimeTypeDefaults
	case intent.PredictPunishment:
		src = punishmentDefaults
	case intent.PredictCrimeAndPunishment:
		src = combinedDefaults
	default:
		src = processDefaults
	}
	return append([]string(nil), src...)
}

// reserveQuestions lists the defaults of every other intent, used to top up
// a fallback block after declined items are removed.
func reserveQuestions(in intent.Intent) []string {
	var out []string
	for _, other := range []intent.Intent{intent.PredictCrimeAndPunishment, intent.PredictCrimeType, intent.PredictPunishment, intent.LegalProcess} {
		if other == in || (!in.IsLegal() && other == intent.LegalProcess) {
			continue
		}
		out = append(out, DefaultQuestions(other)...)
	}
	return out
}
