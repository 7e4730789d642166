package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/murmurapp/backend/internal/feed"
)

// GetFeed returns one page of the viewer's feed.
// GET /api/v1/feed?mode=trending|following&cursor=...
//
// A request without a cursor is a fresh aggregation (explicit refresh);
// passing the returned next_cursor continues the same ordering.
func (h *Handlers) GetFeed(c *gin.Context) {
	viewerID := c.GetString("user_id")

	mode := feed.Mode(c.DefaultQuery("mode", string(feed.ModeTrending)))
	if !mode.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_mode"})
		return
	}
	cursor := c.Query("cursor")

	page, err := h.aggregator.GetPage(c.Request.Context(), viewerID, mode, cursor)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":           page.Items,
		"next_cursor":     page.NextCursor,
		"has_more":        page.HasMore,
		"empty_following": page.EmptyFollowing,
		"meta": gin.H{
			"mode":  mode,
			"count": len(page.Items),
		},
	})
}
