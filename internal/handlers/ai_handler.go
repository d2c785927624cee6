package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"depanku-backend/internal/models"
	"depanku-backend/internal/service"
)

type AIHandler struct {
	aiService *service.AIService
}

func NewAIHandler(aiService *service.AIService) *AIHandler {
	return &AIHandler{aiService: aiService}
}

// Chat is a passthrough to the configured provider; the server owns the
// system prompt and the API key never reaches the client.
func (h *AIHandler) Chat(c *gin.Context) {
	var req models.ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	reply, err := h.aiService.Chat(c.Request.Context(), req.Messages)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": models.ChatMessage{
		Role:    "assistant",
		Content: reply,
	}})
}

func (h *AIHandler) StartDiscovery(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"step": h.aiService.StartDiscovery(currentUserID(c))})
}

func (h *AIHandler) ContinueDiscovery(c *gin.Context) {
	var req models.DiscoveryContinueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	step, err := h.aiService.ContinueDiscovery(req.SessionID, req.Answer)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"step": step})
}

func (h *AIHandler) DiscoveryOpportunities(c *gin.Context) {
	var req models.DiscoveryOpportunitiesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	recommendations, err := h.aiService.RecommendOpportunities(c.Request.Context(), req.SessionID, req.Interests)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"recommendations": recommendations})
}

func (h *AIHandler) AnalyzeOpportunity(c *gin.Context) {
	var req models.DiscoveryAnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	analysis, err := h.aiService.AnalyzeOpportunity(c.Request.Context(), req.SessionID, req.OpportunityID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"analysis": analysis})
}
