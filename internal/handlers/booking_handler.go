package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventhub/internal/helpers"
	"github.com/joshua-takyi/eventhub/internal/models"
	"github.com/joshua-takyi/eventhub/internal/services"
)

func CreateBooking(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.BookingRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}

		booking, err := bs.CreateBooking(c.Request.Context(), helpers.CurrentPrincipal(c), c.Param("id"), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(booking, "booking request sent"))
	}
}

func GetBooking(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		booking, err := bs.GetBooking(c.Request.Context(), helpers.CurrentPrincipal(c), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(booking, ""))
	}
}

func ListMyBookings(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookings, err := bs.ListBookingsForConsumer(c.Request.Context(), helpers.CurrentPrincipal(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(bookings, len(bookings)))
	}
}

func StreamMyBookings(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, err := bs.WatchBookingsForConsumer(c.Request.Context(), helpers.CurrentPrincipal(c))
		if err != nil {
			writeError(c, err)
			return
		}
		streamSnapshots(c, sub)
	}
}

func ListHotelBookings(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		bookings, err := bs.ListBookingsForHotel(c.Request.Context(), helpers.CurrentPrincipal(c), c.Query("status"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(bookings, len(bookings)))
	}
}

func StreamHotelBookings(bs *services.BookingService) gin.HandlerFunc {
	return func(c *gin.Context) {
		sub, err := bs.WatchBookingsForHotel(c.Request.Context(), helpers.CurrentPrincipal(c), c.Query("status"))
		if err != nil {
			writeError(c, err)
			return
		}
		streamSnapshots(c, sub)
	}
}

// TransitionBooking moves a pending booking to `to`; confirm and reject are
// separate routes bound to this handler.
func TransitionBooking(bs *services.BookingService, to models.BookingStatus) gin.HandlerFunc {
	return func(c *gin.Context) {
		booking, err := bs.TransitionStatus(c.Request.Context(), helpers.CurrentPrincipal(c), c.Param("id"), to)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(booking, "booking "+string(to)))
	}
}
