package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventhub/internal/helpers"
	"github.com/joshua-takyi/eventhub/internal/models"
	"github.com/joshua-takyi/eventhub/internal/services"
)

func CreateEvent(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var fields models.EventFields
		if err := c.ShouldBindJSON(&fields); err != nil {
			badRequest(c, err)
			return
		}

		event, err := es.CreateEvent(c.Request.Context(), helpers.CurrentPrincipal(c), fields)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(event, "event created"))
	}
}

func UpdateEvent(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch models.EventPatch
		if err := c.ShouldBindJSON(&patch); err != nil {
			badRequest(c, err)
			return
		}

		event, err := es.UpdateEvent(c.Request.Context(), helpers.CurrentPrincipal(c), c.Param("id"), patch)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(event, "event updated"))
	}
}

func DeleteEvent(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := es.DeleteEvent(c.Request.Context(), helpers.CurrentPrincipal(c), c.Param("id")); err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(nil, "event deleted"))
	}
}

func GetEvent(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		event, err := es.GetEvent(c.Request.Context(), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(event, ""))
	}
}

func ListActiveEvents(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := es.ListActiveEvents(c.Request.Context(), c.Query("q"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(events, len(events)))
	}
}

func StreamActiveEvents(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		streamSnapshots(c, es.WatchActiveEvents(c.Request.Context(), c.Query("q")))
	}
}

// ListHotelEvents serves both /hotel/events (own) and
// /admin/hotels/:id/events (any hotel).
func ListHotelEvents(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		events, err := es.ListEventsByHotel(c.Request.Context(), helpers.CurrentPrincipal(c), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(events, len(events)))
	}
}

func StreamHotelEvents(es *services.EventService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, err := es.WatchEventsByHotel(c.Request.Context(), helpers.CurrentPrincipal(c), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		streamSnapshots(c, sub)
	}
}
