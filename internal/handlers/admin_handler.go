package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventhub/internal/helpers"
	"github.com/joshua-takyi/eventhub/internal/models"
	"github.com/joshua-takyi/eventhub/internal/services"
)

func ProvisionHotel(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.AccountRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, err)
			return
		}

		profile, err := u.ProvisionHotelAccount(c.Request.Context(), helpers.CurrentPrincipal(c), req)
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(profile, "hotel account created"))
	}
}

func ListHotels(u *services.UserService) gin.HandlerFunc {
	return func(c *gin.Context) {
		hotels, err := u.ListHotels(c.Request.Context(), helpers.CurrentPrincipal(c))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.ListResponse(hotels, len(hotels)))
	}
}

// HotelStats serves /hotel/stats for the caller's hotel and
// /admin/hotels/:id/stats for any hotel.
func HotelStats(ss *services.StatsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats, err := ss.HotelStats(c.Request.Context(), helpers.CurrentPrincipal(c), c.Param("id"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusOK, models.SuccessResponse(stats, ""))
	}
}
