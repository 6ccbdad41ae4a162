package realtime

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes exposes the notification list, activity feed and provider
// status over HTTP.
func RegisterRoutes(router gin.IRouter, p *Provider) {
	router.GET("/v1/notifications", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"notifications": p.Notifications(),
			"unread":        p.UnreadCount(),
		})
	})
	router.POST("/v1/notifications/:notificationID/read", func(c *gin.Context) {
		id := c.Param("notificationID")
		if !p.MarkRead(id) {
			c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"code": "NOT_FOUND", "message": "notification not found"}})
			return
		}
		c.JSON(http.StatusOK, gin.H{"read": id})
	})
	router.GET("/v1/activity", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"activity": p.Activity()})
	})
	router.GET("/v1/realtime/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"connected": p.Connected(), "scope": p.UserID()})
	})
}
