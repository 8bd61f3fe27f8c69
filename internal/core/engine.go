// Package core wires the scoring pipeline, the timeline engine, and the
// aggregator to persisted conversations. All conversation mutation goes
// through Engine, which serializes appends per chat id.
package core

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/empathyengine/resonance/internal/core/aggregate"
	"github.com/empathyengine/resonance/internal/core/classify"
	"github.com/empathyengine/resonance/internal/core/model"
	"github.com/empathyengine/resonance/internal/core/score"
	"github.com/empathyengine/resonance/internal/core/timeline"
	"github.com/empathyengine/resonance/internal/logger"
	"github.com/empathyengine/resonance/internal/store"
)

type Engine struct {
	Store  store.Store
	Scorer *score.Scorer
	Log    *logger.Logger

	SmoothingWindow int
	PeakThreshold   float64

	// Overridable for deterministic tests.
	IDGenerator func() string
	Clock       func() string

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	sessionMu sync.RWMutex
	sessions  map[string]*sessionEntry
}

// sessionEntry holds the scored output of one Analyze call so the summary
// endpoint can revisit it. Sessions live in memory only.
type sessionEntry struct {
	messages    []model.ScoredMessage
	lastUpdated string
}

func NewEngine(st store.Store, scorer *score.Scorer, log *logger.Logger) *Engine {
	return &Engine{
		Store:           st,
		Scorer:          scorer,
		Log:             log,
		SmoothingWindow: timeline.DefaultSmoothingWindow,
		PeakThreshold:   timeline.DefaultPeakThreshold,
		IDGenerator:     newChatID,
		Clock:           utcNow,
		locks:           make(map[string]*sync.Mutex),
		sessions:        make(map[string]*sessionEntry),
	}
}

func newChatID() string {
	return uuid.New().String()[:8]
}

func utcNow() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// chatLock returns the mutex serializing appends for one chat id.
// Cross-chat operations stay fully parallel.
func (e *Engine) chatLock(chatID string) *sync.Mutex {
	e.mu.Lock()
	defer e.mu.Unlock()
	l, ok := e.locks[chatID]
	if !ok {
		l = &sync.Mutex{}
		e.locks[chatID] = l
	}
	return l
}

// CreateChat starts a new conversation for the user. A non-empty seed
// message is scored and appended immediately.
func (e *Engine) CreateChat(ctx context.Context, userID, initialMessage string) (*model.ChatRecord, error) {
	now := e.Clock()

	tl := make(map[string][]float64, len(model.Emotions))
	for _, emotion := range model.Emotions {
		tl[emotion] = []float64{}
	}

	chatID := e.IDGenerator()
	rec := &model.ChatRecord{
		Metadata: model.ChatMetadata{
			ChatID:          chatID,
			ID:              chatID,
			UserID:          userID,
			Title:           titleFrom(initialMessage),
			CreatedAt:       now,
			LastUpdatedAt:   now,
			Snippet:         snippetFrom(initialMessage),
			DominantEmotion: model.EmotionNeutral,
			MessageCount:    0,
		},
		Messages:        []model.ScoredMessage{},
		EmotionTimeline: tl,
	}

	if err := e.Store.Create(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	e.Log.Info("chat created", "chat_id", chatID, "user_id", userID)

	if initialMessage != "" {
		if _, err := e.AddMessage(ctx, chatID, "user", initialMessage); err != nil {
			return nil, err
		}
		return e.Store.Get(ctx, chatID)
	}

	return rec, nil
}

// GetChat loads the full record, or store.ErrNotFound.
func (e *Engine) GetChat(ctx context.Context, chatID string) (*model.ChatRecord, error) {
	return e.Store.Get(ctx, chatID)
}

// AddMessage scores and appends one message under the chat's append lock:
// sequential id, timeline extension, metadata refresh, and the
// majority-vote dominant recompute all happen atomically per chat.
func (e *Engine) AddMessage(ctx context.Context, chatID, speaker, text string) (*model.ScoredMessage, error) {
	lock := e.chatLock(chatID)
	lock.Lock()
	defer lock.Unlock()

	rec, err := e.Store.Get(ctx, chatID)
	if err != nil {
		return nil, err
	}

	history := make([]classify.Turn, 0, len(rec.Messages))
	for _, m := range rec.Messages {
		history = append(history, classify.Turn{Role: m.Speaker, Content: m.Text})
	}

	probs := e.Scorer.Score(ctx, text, history)
	entropy := score.Entropy(probs)
	now := e.Clock()

	// Bucket before rounding: a value just under a boundary must not be
	// pushed across it by the stored 3-decimal representation.
	msg := model.ScoredMessage{
		ID:         len(rec.Messages) + 1,
		Speaker:    speaker,
		Text:       text,
		TS:         now,
		Probs:      probs,
		Dominant:   probs.Dominant(),
		Entropy:    round3(entropy),
		Confidence: score.ConfidenceBucket(entropy),
	}

	rec.Messages = append(rec.Messages, msg)
	rec.Metadata.LastUpdatedAt = now
	rec.Metadata.MessageCount = len(rec.Messages)

	for emotion, p := range probs {
		rec.EmotionTimeline[emotion] = append(rec.EmotionTimeline[emotion], p)
	}

	rec.Metadata.DominantEmotion = aggregate.DominantByVote(rec.Messages)

	if speaker == "user" && msg.ID == 1 {
		rec.Metadata.Snippet = snippetFrom(text)
		rec.Metadata.Title = titleFrom(text)
	}

	if err := e.Store.Save(ctx, rec); err != nil {
		return nil, fmt.Errorf("failed to save chat: %w", err)
	}

	e.Log.Debug("message appended",
		"chat_id", chatID, "message_id", msg.ID,
		"dominant", msg.Dominant, "confidence", string(msg.Confidence))
	return &msg, nil
}

// UpdateTitle renames the chat.
func (e *Engine) UpdateTitle(ctx context.Context, chatID, title string) error {
	lock := e.chatLock(chatID)
	lock.Lock()
	defer lock.Unlock()

	rec, err := e.Store.Get(ctx, chatID)
	if err != nil {
		return err
	}

	rec.Metadata.Title = title
	rec.Metadata.LastUpdatedAt = e.Clock()
	return e.Store.Save(ctx, rec)
}

// DeleteChat removes the chat when userID owns it. Ownership mismatch
// reports the same not-found condition as a missing chat.
func (e *Engine) DeleteChat(ctx context.Context, chatID, userID string) error {
	return e.Store.Delete(ctx, chatID, userID)
}

// ListChats returns one page of the user's chats ordered by last update,
// newest first, with a "cursor_<offset>" continuation token.
func (e *Engine) ListChats(ctx context.Context, userID string, limit int, cursor string) ([]model.ChatHistoryItem, string, int, error) {
	ids, err := e.Store.ListIDs(ctx, userID)
	if err != nil {
		return nil, "", 0, err
	}
	total := len(ids)

	items := make([]model.ChatHistoryItem, 0, total)
	for _, id := range ids {
		rec, err := e.Store.Get(ctx, id)
		if err != nil {
			// Index entry without a record: skip rather than fail the page.
			e.Log.Warn("dangling chat index entry", "chat_id", id, "user_id", userID)
			continue
		}
		items = append(items, rec.HistoryItem())
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].LastUpdatedAt > items[j].LastUpdatedAt
	})

	start := parseCursor(cursor)
	if start > len(items) {
		start = len(items)
	}
	end := start + limit
	if end > len(items) {
		end = len(items)
	}

	nextCursor := ""
	if end < len(items) {
		nextCursor = fmt.Sprintf("cursor_%d", end)
	}

	return items[start:end], nextCursor, total, nil
}

// SummarizeEmotion computes the aggregated emotion view for the chat.
func (e *Engine) SummarizeEmotion(ctx context.Context, chatID string, includeText bool) (model.EmotionSummary, error) {
	rec, err := e.Store.Get(ctx, chatID)
	if err != nil {
		return model.EmotionSummary{}, err
	}
	return aggregate.Summarize(chatID, rec.Messages, includeText, e.Clock()), nil
}

// IncomingMessage is one raw turn submitted for sessionless batch analysis.
type IncomingMessage struct {
	ID      int    `json:"id"`
	Speaker string `json:"speaker"`
	Text    string `json:"text"`
	TS      string `json:"ts"`
}

type TimelineView struct {
	Raw      []float64 `json:"raw"`
	Smoothed []float64 `json:"smoothed"`
	Peaks    []int     `json:"peaks"`
}

type AnalysisResult struct {
	Messages          []model.ScoredMessage `json:"messages"`
	Timeline          TimelineView          `json:"timeline"`
	SessionConfidence model.ConfidenceLevel `json:"session_confidence"`
}

// Analyze scores a batch of messages without touching chat storage, smooths
// the dominant-intensity timeline, and flags peaks. window <= 0 falls back
// to the configured smoothing window. A non-empty sessionID keeps the scored
// messages around for the summary endpoint.
func (e *Engine) Analyze(ctx context.Context, sessionID string, messages []IncomingMessage, window int) AnalysisResult {
	if window <= 0 {
		window = e.SmoothingWindow
	}

	scored := make([]model.ScoredMessage, 0, len(messages))
	raw := make([]float64, 0, len(messages))
	totalEntropy := 0.0

	var history []classify.Turn
	for _, msg := range messages {
		probs := e.Scorer.Score(ctx, msg.Text, history)
		entropy := score.Entropy(probs)
		dominant := probs.Dominant()

		scored = append(scored, model.ScoredMessage{
			ID:         msg.ID,
			Speaker:    msg.Speaker,
			Text:       msg.Text,
			TS:         msg.TS,
			Probs:      probs,
			Dominant:   dominant,
			Entropy:    round3(entropy),
			Confidence: score.ConfidenceBucket(entropy),
		})
		raw = append(raw, probs[dominant])
		totalEntropy += round3(entropy)
		history = append(history, classify.Turn{Role: msg.Speaker, Content: msg.Text})
	}

	// Smoothing and peak comparison run on the exact values; rounding is
	// response formatting only. Near-equal neighbors must not collapse
	// into a plateau and lose their peak.
	smoothed := timeline.Smooth(raw, window)
	peaks := timeline.DetectPeaks(smoothed, e.PeakThreshold)

	rawRounded := make([]float64, len(raw))
	for i, v := range raw {
		rawRounded[i] = round3(v)
	}
	smoothedRounded := make([]float64, len(smoothed))
	for i, v := range smoothed {
		smoothedRounded[i] = round3(v)
	}

	sessionConfidence := model.ConfidenceLow
	if len(scored) > 0 {
		sessionConfidence = score.ConfidenceBucket(totalEntropy / float64(len(scored)))
	}

	if sessionID != "" {
		e.sessionMu.Lock()
		e.sessions[sessionID] = &sessionEntry{messages: scored, lastUpdated: e.Clock()}
		e.sessionMu.Unlock()
	}

	return AnalysisResult{
		Messages: scored,
		Timeline: TimelineView{
			Raw:      rawRounded,
			Smoothed: smoothedRounded,
			Peaks:    peaks,
		},
		SessionConfidence: sessionConfidence,
	}
}

// SessionMessages returns the scored messages stored by a prior Analyze
// call for the session, or false when the session is unknown.
func (e *Engine) SessionMessages(sessionID string) ([]model.ScoredMessage, bool) {
	e.sessionMu.RLock()
	defer e.sessionMu.RUnlock()

	entry, ok := e.sessions[sessionID]
	if !ok {
		return nil, false
	}
	out := make([]model.ScoredMessage, len(entry.messages))
	copy(out, entry.messages)
	return out, true
}

// DeleteSession drops a stored analysis session. Reports whether the
// session existed.
func (e *Engine) DeleteSession(sessionID string) bool {
	e.sessionMu.Lock()
	defer e.sessionMu.Unlock()

	if _, ok := e.sessions[sessionID]; !ok {
		return false
	}
	delete(e.sessions, sessionID)
	return true
}

// titleFrom takes the first five words of the text, "..." appended when
// there are more.
func titleFrom(text string) string {
	if text == "" {
		return "New Chat"
	}
	words := strings.Fields(text)
	if len(words) <= 5 {
		return strings.Join(words, " ")
	}
	return strings.Join(words[:5], " ") + "..."
}

func snippetFrom(text string) string {
	if text == "" {
		return "New chat"
	}
	runes := []rune(text)
	if len(runes) <= 50 {
		return text
	}
	return string(runes[:50]) + "..."
}

func parseCursor(cursor string) int {
	if cursor == "" {
		return 0
	}
	parts := strings.SplitN(cursor, "_", 2)
	if len(parts) != 2 {
		return 0
	}
	n, err := strconv.Atoi(parts[1])
	if err != nil || n < 0 {
		return 0
	}
	return n
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
