package main

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/lostfound_backend/models"
	"github.com/mmdatafocus/lostfound_backend/workflow"
)

// parseReportDate accepts the date forms clients actually send.
func parseReportDate(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func createLostItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		dateLost, ok := parseReportDate(c.PostForm("date_lost"))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date_lost is required (YYYY-MM-DD)"})
			return
		}

		input := models.NewLostItem{
			ItemName:     c.PostForm("item_name"),
			Category:     c.PostForm("category"),
			Description:  c.PostForm("description"),
			Location:     c.PostForm("location"),
			DateLost:     dateLost,
			TimeLost:     c.PostForm("time_lost"),
			SecretDetail: c.PostForm("secret_detail"),
		}

		imageUrl, features, err := processReportImage(c, "lost-items")
		if err != nil {
			if isUploadError(err) {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			respondError(c, err)
			return
		}
		input.ImageUrl = imageUrl
		input.ImageFeatures = features

		item, err := workflow.SubmitLostReport(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"item":    item,
			"message": "Lost item reported. We will notify you when a potential match is found.",
		})
	}
}

func listLostItemsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := models.ItemFilter{
			Category: c.Query("category"),
			Status:   models.ItemStatus(c.Query("status")),
			Search:   c.Query("search"),
		}
		items, err := models.GetLostItems(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func getLostItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		item, err := models.GetLostItemById(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"item": item})
	}
}

func deleteLostItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		if err := models.DeleteLostItem(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
