package main

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/lostfound_backend/models"
	"github.com/mmdatafocus/lostfound_backend/workflow"
)

func createFoundItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		dateFound, ok := parseReportDate(c.PostForm("date_found"))
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "date_found is required (YYYY-MM-DD)"})
			return
		}

		input := models.NewFoundItem{
			ItemName:       c.PostForm("item_name"),
			Category:       c.PostForm("category"),
			Description:    c.PostForm("description"),
			Location:       c.PostForm("location"),
			DateFound:      dateFound,
			TimeFound:      c.PostForm("time_found"),
			SecretQuestion: c.PostForm("secret_question"),
			SecretAnswer:   c.PostForm("secret_answer"),
			WhereToFind:    c.PostForm("where_to_find"),
		}

		imageUrl, features, err := processReportImage(c, "found-items")
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

		result, err := workflow.SubmitFoundReport(c.Request.Context(), &input)
		if err != nil {
			respondError(c, err)
			return
		}

		if result.Duplicate {
			c.JSON(http.StatusOK, gin.H{
				"item":        result.Item,
				"duplicate":   true,
				"merged_into": result.MergedInto,
				"message":     "This item appears to already be reported. Your report was merged with the existing one.",
			})
			return
		}
		c.JSON(http.StatusCreated, gin.H{
			"item":    result.Item,
			"message": "Found item reported. Thank you for helping reunite it with its owner.",
		})
	}
}

func listFoundItemsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := models.ItemFilter{
			Category: c.Query("category"),
			Status:   models.ItemStatus(c.Query("status")),
			Search:   c.Query("search"),
		}
		items, err := models.GetFoundItems(c.Request.Context(), filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"items": items})
	}
}

func getFoundItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		item, err := models.GetFoundItemById(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"item": item})
	}
}

func deleteFoundItemHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := strconv.Atoi(c.Param("id"))
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
			return
		}
		if err := models.DeleteFoundItem(c.Request.Context(), id); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
