package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"depanku-backend/internal/service"
)

type SearchHandler struct {
	searchService *service.SearchService
}

func NewSearchHandler(searchService *service.SearchService) *SearchHandler {
	return &SearchHandler{searchService: searchService}
}

func (h *SearchHandler) Search(c *gin.Context) {
	limit := queryInt(c, "limit", 20)

	var (
		results interface{}
		err     error
	)
	switch {
	case c.Query("tag") != "":
		results, err = h.searchService.SearchByTag(c.Query("tag"), limit)
	case c.Query("organizer") != "":
		results, err = h.searchService.SearchByOrganizer(c.Query("organizer"), limit)
	default:
		results, err = h.searchService.Search(c.Query("q"), limit)
	}
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, withGeneration(c, gin.H{"opportunities": results}))
}
