package clarify

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/sweetpotato0/ai-lawdesk/message"
)

// Reserved markers. They are part of the wire contract with clients and
// with stored histories, so their text never changes.
const (
	ClarifyLabel   = "確認ステップ"
	ClarifyPrefix  = "【" + ClarifyLabel
	OptionalLabel  = "任意追加確認"
	OptionalMarker = "【" + OptionalLabel + "】"
)

// Header renders the ordinal header of clarification round n.
func Header(n int) string {
	return fmt.Sprintf("【%s 第%d回】", ClarifyLabel, n)
}

// IsClarification reports whether msg is an assistant clarification block.
func IsClarification(msg *message.Message) bool {
	return msg != nil && msg.Role == message.RoleAssistant && strings.Contains(msg.Content, ClarifyPrefix)
}

// IsOptionalFollowUp reports whether msg carries an optional follow-up block.
func IsOptionalFollowUp(msg *message.Message) bool {
	return msg != nil && msg.Role == message.RoleAssistant && strings.Contains(msg.Content, OptionalMarker)
}

// CountRounds returns the number of clarification rounds already issued.
func CountRounds(hist []*message.Message) int {
	n := 0
	for _, msg := range hist {
		if IsClarification(msg) {
			n++
		}
	}
	return n
}

var numbered = regexp.MustCompile(`^\s*(\d+)[.．、)]\s*`)

// QuestionLines returns the numbered question lines of a block, trimmed.
func QuestionLines(block string) []string {
	var out []string
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if numbered.MatchString(line) {
			out = append(out, line)
		}
	}
	return out
}

// StripNumber removes a leading list number such as "2. " from a question.
func StripNumber(q string) string {
	return strings.TrimSpace(numbered.ReplaceAllString(q, ""))
}
