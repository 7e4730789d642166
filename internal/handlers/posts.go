package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/murmurapp/backend/internal/database"
	"github.com/murmurapp/backend/internal/models"
)

// CreatePost creates a new post
// POST /api/v1/posts
func (h *Handlers) CreatePost(c *gin.Context) {
	userID := c.GetString("user_id")

	var req struct {
		Body  string   `json:"body"`
		Media []string `json:"media"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Body == "" && len(req.Media) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "empty_post"})
		return
	}

	post := models.Post{
		UserID: userID,
		Body:   req.Body,
		Media:  models.StringArray(req.Media),
	}
	if err := database.DB.Create(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_create_post"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{"post": post})
}

// EditPost updates a post's body, only within the edit window after creation.
// PUT /api/v1/posts/:id
func (h *Handlers) EditPost(c *gin.Context) {
	userID := c.GetString("user_id")
	postID := c.Param("id")

	var req struct {
		Body string `json:"body" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "post_not_found"})
		return
	}
	if post.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not_post_owner"})
		return
	}

	now := time.Now().UTC()
	if !post.Editable(now) {
		c.JSON(http.StatusForbidden, gin.H{"error": "edit_window_closed"})
		return
	}

	updates := map[string]interface{}{
		"body":      req.Body,
		"edited_at": now,
	}
	if err := database.DB.Model(&post).Updates(updates).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_edit_post"})
		return
	}

	post.Body = req.Body
	post.EditedAt = &now
	c.JSON(http.StatusOK, gin.H{"post": post})
}

// DeletePost soft-deletes a post; it stays in storage but leaves every
// read path.
// DELETE /api/v1/posts/:id
func (h *Handlers) DeletePost(c *gin.Context) {
	userID := c.GetString("user_id")
	postID := c.Param("id")

	var post models.Post
	if err := database.DB.First(&post, "id = ?", postID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "post_not_found"})
		return
	}
	if post.UserID != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "not_post_owner"})
		return
	}

	if err := database.DB.Delete(&post).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_delete_post"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "post_deleted"})
}
