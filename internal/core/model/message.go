package model

// ScoredMessage is one analyzed conversation turn. Immutable once appended
// to a chat: ids are 1-based and assigned in arrival order.
type ScoredMessage struct {
	ID         int             `json:"id"`
	Speaker    string          `json:"speaker"`
	Text       string          `json:"text"`
	TS         string          `json:"ts"`
	Probs      Distribution    `json:"probs"`
	Dominant   string          `json:"dominant"`
	Entropy    float64         `json:"entropy"`
	Confidence ConfidenceLevel `json:"confidence"`
}

// ChatMetadata is the mutable header of a chat record.
type ChatMetadata struct {
	ChatID          string `json:"chatId"`
	ID              string `json:"id"` // alias for ChatID, kept for older clients
	UserID          string `json:"userId"`
	Title           string `json:"title"`
	CreatedAt       string `json:"createdAt"`
	LastUpdatedAt   string `json:"lastUpdatedAt"`
	Snippet         string `json:"snippet"`
	DominantEmotion string `json:"dominant_emotion"`
	MessageCount    int    `json:"messageCount"`
}

// ChatRecord is the persisted unit: metadata, ordered messages, and a
// per-emotion intensity timeline (one entry per message).
type ChatRecord struct {
	Metadata        ChatMetadata         `json:"metadata"`
	Messages        []ScoredMessage      `json:"messages"`
	EmotionTimeline map[string][]float64 `json:"emotionTimeline"`
}

// ChatHistoryItem is the lightweight listing projection of a chat.
type ChatHistoryItem struct {
	ChatID          string `json:"chatId"`
	ID              string `json:"id"`
	Title           string `json:"title"`
	CreatedAt       string `json:"createdAt"`
	LastUpdatedAt   string `json:"lastUpdatedAt"`
	Snippet         string `json:"snippet"`
	DominantEmotion string `json:"dominant_emotion"`
	MessageCount    int    `json:"messageCount"`
}

// EmotionSummary is the derived conversation-level view. Everything except
// GeneratedAt is a pure function of the stored messages.
type EmotionSummary struct {
	ChatID          string       `json:"chatId"`
	ID              string       `json:"id"`
	DominantEmotion string       `json:"dominant_emotion"`
	Scores          Distribution `json:"scores"`
	Confidence      float64      `json:"confidence"`
	SummaryText     string       `json:"summary_text,omitempty"`
	GeneratedAt     string       `json:"generatedAt"`
}

// HistoryItem builds the listing projection from a record's metadata.
func (r *ChatRecord) HistoryItem() ChatHistoryItem {
	m := r.Metadata
	return ChatHistoryItem{
		ChatID:          m.ChatID,
		ID:              m.ChatID,
		Title:           m.Title,
		CreatedAt:       m.CreatedAt,
		LastUpdatedAt:   m.LastUpdatedAt,
		Snippet:         m.Snippet,
		DominantEmotion: m.DominantEmotion,
		MessageCount:    m.MessageCount,
	}
}
