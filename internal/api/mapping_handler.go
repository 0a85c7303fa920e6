package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/simonhust/trailer/internal/database"
	"github.com/simonhust/trailer/internal/domain"
)

// MappingHandler serves the published lookup endpoints.
type MappingHandler struct {
	repo *database.MappingRepository
}

// NewMappingHandler creates a mapping handler.
func NewMappingHandler(repo *database.MappingRepository) *MappingHandler {
	return &MappingHandler{repo: repo}
}

// Lookup handles GET /api/v1/mappings/:source_id.
func (h *MappingHandler) Lookup(c *gin.Context) {
	mapping, err := h.repo.Lookup(c.Request.Context(), c.Param("source_id"))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "mapping not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to look up mapping"})
		return
	}

	c.JSON(http.StatusOK, mapping)
}

// Recent handles GET /api/v1/mappings/recent?limit=N.
func (h *MappingHandler) Recent(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))

	mappings, err := h.repo.Recent(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list mappings"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"count":    len(mappings),
		"mappings": mappings,
	})
}
