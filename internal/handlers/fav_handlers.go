package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventhub/internal/helpers"
	"github.com/joshua-takyi/eventhub/internal/models"
	"github.com/joshua-takyi/eventhub/internal/services"
)

func SaveEvent(ss *services.SavedEventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := ss.Save(c.Request.Context(), helpers.CurrentPrincipal(c), c.Param("eventId")); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{"saved": true}, "event saved"))
	}
}

func RemoveSavedEvent(ss *services.SavedEventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := ss.Remove(c.Request.Context(), helpers.CurrentPrincipal(c), c.Param("eventId")); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{"saved": false}, "event removed from saved"))
	}
}

func IsEventSaved(ss *services.SavedEventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		saved, err := ss.IsSaved(c.Request.Context(), helpers.CurrentPrincipal(c), c.Param("eventId"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(gin.H{"saved": saved}, ""))
	}
}

func ListSavedEvents(ss *services.SavedEventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		items, err := ss.List(c.Request.Context(), helpers.CurrentPrincipal(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(items, len(items)))
	}
}
