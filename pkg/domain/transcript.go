package domain

// Speaker identifies who produced a chat message.
type Speaker string

const (
	SpeakerBot  Speaker = "bot"
	SpeakerUser Speaker = "user"
)

// ChatMessage is one line of a previewed conversation.
type ChatMessage struct {
	Speaker   Speaker `json:"type"`
	Text      string  `json:"text"`
	Timestamp int64   `json:"timestamp"` // Unix milliseconds
}

// Transcript is the exported record of a preview session.
type Transcript struct {
	StartTime    int64         `json:"startTime"`
	EndTime      int64         `json:"endTime"`
	Conversation []ChatMessage `json:"conversation"`
}
