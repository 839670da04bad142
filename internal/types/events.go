package types

// CallEventType names the voice widget lifecycle callbacks.
type CallEventType string

const (
	CallStarted CallEventType = "call_started"
	CallEnded   CallEventType = "call_ended"
)

type CallEvent struct {
	Type           CallEventType `json:"type"`
	ConversationID string        `json:"conversationId"`
}

// SessionChange is broadcast to dashboard listeners after a session write.
type SessionChange struct {
	InterviewID string        `json:"interview_id"`
	SessionID   string        `json:"session_id"`
	Status      SessionStatus `json:"session_status"`
	UrgencyFlag bool          `json:"urgency_flag"`
}
