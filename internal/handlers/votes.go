package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/murmurapp/backend/internal/votes"
)

// VotePost applies a vote toggle to a post.
// POST /api/v1/posts/:id/vote
//
// Re-casting the same direction removes the vote; casting the opposite
// direction switches it. A self-vote returns 200 with transition
// "self_vote" and no state change.
func (h *Handlers) VotePost(c *gin.Context) {
	voterID := c.GetString("user_id")
	postID := c.Param("id")

	var req struct {
		Direction string `json:"direction" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := h.ledger.Apply(c.Request.Context(), postID, voterID, votes.Direction(req.Direction))
	if err != nil {
		if errors.Is(err, votes.ErrInvalidDirection) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_direction"})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"post_id":          postID,
		"new_score":        result.NewScore,
		"reputation_delta": result.ReputationDelta,
		"transition":       result.Transition,
	})
}
