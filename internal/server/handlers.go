package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/empathyengine/resonance/internal/core"
	"github.com/empathyengine/resonance/internal/core/score"
	"github.com/empathyengine/resonance/internal/store"
)

type AnalyzeRequest struct {
	SessionID       string                 `json:"session_id"`
	Messages        []core.IncomingMessage `json:"messages" binding:"required"`
	SmoothingWindow int                    `json:"smoothing_window"`
}

type CreateChatRequest struct {
	UserID         string `json:"userId" binding:"required"`
	InitialMessage string `json:"initialMessage"`
}

type AddMessageRequest struct {
	Speaker string `json:"speaker" binding:"required"`
	Text    string `json:"text" binding:"required"`
}

type UpdateTitleRequest struct {
	Title string `json:"title" binding:"required"`
}

type SummarizeEmotionRequest struct {
	IncludeSummaryText *bool `json:"include_summary_text"`
}

type SummaryRequest struct {
	SessionID string `json:"session_id" binding:"required"`
}

type ChatReplyRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message" binding:"required"`
}

func (s *Server) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "The Empathy Engine",
	})
}

func (s *Server) Analyze(c *gin.Context) {
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	result := s.Engine.Analyze(c.Request.Context(), req.SessionID, req.Messages, req.SmoothingWindow)
	c.JSON(http.StatusOK, result)
}

func (s *Server) Summary(c *gin.Context) {
	var req SummaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	messages, ok := s.Engine.SessionMessages(req.SessionID)
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found. Call /analyze first."})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"summary": s.Responder.Summarize(c.Request.Context(), messages),
	})
}

func (s *Server) DeleteSession(c *gin.Context) {
	sessionID := c.Param("sessionId")

	if !s.Engine.DeleteSession(sessionID) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Session not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "deleted",
		"session_id": sessionID,
	})
}

func (s *Server) ChatReply(c *gin.Context) {
	var req ChatReplyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	probs := s.Engine.Scorer.Score(c.Request.Context(), req.Message, nil)
	entropy := score.Entropy(probs)
	dominant := probs.Dominant()
	confidence := score.ConfidenceBucket(entropy)

	replyText, safety := s.Responder.Reply(c.Request.Context(), req.Message, dominant, nil)

	c.JSON(http.StatusOK, gin.H{
		"reply":       replyText,
		"emotion":     dominant,
		"confidence":  confidence,
		"safety_flag": safety,
	})
}

func (s *Server) CreateChat(c *gin.Context) {
	var req CreateChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	rec, err := s.Engine.CreateChat(c.Request.Context(), req.UserID, req.InitialMessage)
	if err != nil {
		s.Log.Error("failed to create chat", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create chat"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"chatId":    rec.Metadata.ChatID,
		"id":        rec.Metadata.ChatID,
		"userId":    rec.Metadata.UserID,
		"createdAt": rec.Metadata.CreatedAt,
		"message":   "Chat created successfully",
	})
}

func (s *Server) ListChats(c *gin.Context) {
	userID := c.Param("userId")

	limit := 20
	if v := c.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be between 1 and 100"})
			return
		}
		limit = n
	}

	chats, nextCursor, total, err := s.Engine.ListChats(c.Request.Context(), userID, limit, c.Query("cursor"))
	if err != nil {
		s.Log.Error("failed to list chats", "error", err.Error())
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list chats"})
		return
	}

	resp := gin.H{
		"userId": userID,
		"chats":  chats,
		"total":  total,
	}
	if nextCursor != "" {
		resp["nextCursor"] = nextCursor
	} else {
		resp["nextCursor"] = nil
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) GetChat(c *gin.Context) {
	chatID := c.Param("chatId")

	rec, err := s.Engine.GetChat(c.Request.Context(), chatID)
	if err != nil {
		s.respondError(c, err, "Failed to get chat")
		return
	}

	c.JSON(http.StatusOK, rec)
}

func (s *Server) AddMessage(c *gin.Context) {
	chatID := c.Param("chatId")

	var req AddMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	msg, err := s.Engine.AddMessage(c.Request.Context(), chatID, req.Speaker, req.Text)
	if err != nil {
		s.respondError(c, err, "Failed to add message")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status":     "success",
		"chatId":     chatID,
		"messageId":  msg.ID,
		"emotion":    msg.Dominant,
		"confidence": msg.Confidence,
	})
}

func (s *Server) SummarizeEmotion(c *gin.Context) {
	chatID := c.Param("chatId")

	includeText := true
	var req SummarizeEmotionRequest
	if err := c.ShouldBindJSON(&req); err == nil && req.IncludeSummaryText != nil {
		includeText = *req.IncludeSummaryText
	}

	summary, err := s.Engine.SummarizeEmotion(c.Request.Context(), chatID, includeText)
	if err != nil {
		s.respondError(c, err, "Failed to summarize chat")
		return
	}

	c.JSON(http.StatusOK, summary)
}

func (s *Server) UpdateTitle(c *gin.Context) {
	chatID := c.Param("chatId")

	var req UpdateTitleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := s.Engine.UpdateTitle(c.Request.Context(), chatID, req.Title); err != nil {
		s.respondError(c, err, "Failed to update title")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "success",
		"chatId": chatID,
		"title":  req.Title,
	})
}

func (s *Server) DeleteChat(c *gin.Context) {
	chatID := c.Param("chatId")
	userID := c.Query("userId")
	if userID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "userId is required"})
		return
	}

	if err := s.Engine.DeleteChat(c.Request.Context(), chatID, userID); err != nil {
		s.respondError(c, err, "Failed to delete chat")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "deleted",
		"chatId": chatID,
	})
}

func (s *Server) respondError(c *gin.Context, err error, fallback string) {
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "Chat not found"})
		return
	}
	s.Log.Error(fallback, "error", err.Error())
	c.JSON(http.StatusInternalServerError, gin.H{"error": fallback})
}
