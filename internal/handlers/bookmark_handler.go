package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"depanku-backend/internal/models"
	"depanku-backend/internal/service"
)

type BookmarkHandler struct {
	bookmarkService *service.BookmarkService
}

func NewBookmarkHandler(bookmarkService *service.BookmarkService) *BookmarkHandler {
	return &BookmarkHandler{bookmarkService: bookmarkService}
}

func (h *BookmarkHandler) List(c *gin.Context) {
	bookmarks, err := h.bookmarkService.ListForUser(currentUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, withGeneration(c, gin.H{"bookmarks": bookmarks}))
}

func (h *BookmarkHandler) Create(c *gin.Context) {
	var req models.CreateBookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	bookmark, err := h.bookmarkService.Add(currentUserID(c), req.OpportunityID)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"bookmark": bookmark})
}

func (h *BookmarkHandler) Delete(c *gin.Context) {
	id, ok := paramID(c, "opportunity_id")
	if !ok {
		return
	}

	if err := h.bookmarkService.Remove(currentUserID(c), id); err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "bookmark removed"})
}
