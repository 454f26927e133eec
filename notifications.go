package main

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/lostfound_backend/models"
)

func listNotificationsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		unreadOnly := strings.EqualFold(c.Query("unread"), "true")
		notifications, err := models.GetNotifications(c.Request.Context(), unreadOnly)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"notifications": notifications})
	}
}

func unreadCountHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		count, err := models.GetUnreadNotificationCount(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"count": count})
	}
}

func markNotificationReadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		if err := models.MarkNotificationAsRead(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func markAllNotificationsReadHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := models.MarkAllNotificationsAsRead(c.Request.Context()); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
