package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/murmurapp/backend/internal/database"
	"github.com/murmurapp/backend/internal/models"
	"gorm.io/gorm"
)

// GetUserProfile returns a user's public profile with reputation and
// level progress.
// GET /api/v1/users/:id
func (h *Handlers) GetUserProfile(c *gin.Context) {
	userID := c.Param("id")

	var user models.User
	if err := database.DB.First(&user, "id = ?", userID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user_not_found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":     user,
		"progress": h.curve.LevelOf(user.Points),
	})
}

// FollowUser creates a follow edge from the caller to :id.
// POST /api/v1/users/:id/follow
func (h *Handlers) FollowUser(c *gin.Context) {
	followerID := c.GetString("user_id")
	followeeID := c.Param("id")

	if followerID == followeeID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot_follow_self"})
		return
	}

	var followee models.User
	if err := database.DB.First(&followee, "id = ?", followeeID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user_not_found"})
		return
	}

	follow := models.Follow{FollowerID: followerID, FolloweeID: followeeID}
	if err := database.DB.Create(&follow).Error; err != nil {
		// Unique pair index makes a repeat follow a no-op conflict
		c.JSON(http.StatusOK, gin.H{"status": "already_following"})
		return
	}

	database.DB.Model(&models.User{}).Where("id = ?", followerID).
		UpdateColumn("following_count", gorm.Expr("following_count + 1"))
	database.DB.Model(&models.User{}).Where("id = ?", followeeID).
		UpdateColumn("follower_count", gorm.Expr("follower_count + 1"))

	c.JSON(http.StatusOK, gin.H{"status": "following"})
}

// UnfollowUser removes the follow edge from the caller to :id.
// DELETE /api/v1/users/:id/follow
func (h *Handlers) UnfollowUser(c *gin.Context) {
	followerID := c.GetString("user_id")
	followeeID := c.Param("id")

	res := database.DB.
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&models.Follow{})
	if res.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed_to_unfollow"})
		return
	}
	if res.RowsAffected > 0 {
		database.DB.Model(&models.User{}).Where("id = ?", followerID).
			UpdateColumn("following_count", gorm.Expr("GREATEST(following_count - 1, 0)"))
		database.DB.Model(&models.User{}).Where("id = ?", followeeID).
			UpdateColumn("follower_count", gorm.Expr("GREATEST(follower_count - 1, 0)"))
	}

	c.JSON(http.StatusOK, gin.H{"status": "not_following"})
}
