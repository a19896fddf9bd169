package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ignation/worldcourse-backend/config"
	"github.com/ignation/worldcourse-backend/services"
)

// GetFeed returns the aggregated "things to look at" of the caller.
func GetFeed(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	feed, err := services.LoadFeed(c.Request.Context(), getDB(c), actor.ID, config.Get().FeedReminders)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"data": feed, "total": len(feed)})
}

func GetNotifications(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	p := pageFromQuery(c)
	list, total, err := services.ListNotifications(c.Request.Context(), getDB(c), actor.ID, p)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paginated(list, total, p))
}

func GetUnreadCount(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	count, err := services.UnreadCount(c.Request.Context(), getDB(c), actor.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": count})
}

func MarkNotificationAsRead(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := services.MarkNotificationRead(c.Request.Context(), getDB(c), actor.ID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification marked as read"})
}

func MarkAllAsRead(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	if err := services.MarkAllNotificationsRead(c.Request.Context(), getDB(c), actor.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "all notifications marked as read"})
}

func DeleteNotification(c *gin.Context) {
	actor, ok := mustActor(c)
	if !ok {
		return
	}
	id, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := services.DeleteNotification(c.Request.Context(), getDB(c), actor.ID, id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "notification deleted"})
}
