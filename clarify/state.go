package clarify

import "github.com/sweetpotato0/ai-lawdesk/message"

// State is the conversation state derived once per turn from the history.
type State struct {
	RoundsCompleted     int
	FollowUpEmitted     bool
	AwaitingUser        bool
	LastIsClarification bool
}

// DeriveState scans hist once.
func DeriveState(hist []*message.Message) State {
	var s State
	for _, msg := range hist {
		if IsClarification(msg) {
			s.RoundsCompleted++
		}
		if IsOptionalFollowUp(msg) {
			s.FollowUpEmitted = true
		}
	}
	if last := message.Last(hist); last != nil {
		s.AwaitingUser = last.Role == message.RoleUser
		s.LastIsClarification = IsClarification(last)
	}
	return s
}
