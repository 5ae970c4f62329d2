package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/joshua-takyi/eventhub/internal/helpers"
	"github.com/joshua-takyi/eventhub/internal/models"
	"github.com/joshua-takyi/eventhub/internal/services"
)

const maxUploadBytes = 10 << 20

// UploadMedia accepts a multipart "file" field and an optional "kind"
// (avatar or event) and returns the stored URL.
func UploadMedia(ms *services.MediaService) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadBytes)
		header, err := c.FormFile("file")
		if err != nil {
			writeError(c, models.NewValidationError("file", "is required"))
			return
		}
		file, err := header.Open()
		if err != nil {
			writeError(c, err)
			return
		}
		defer file.Close()

		url, err := ms.Upload(c.Request.Context(), helpers.CurrentPrincipal(c), file, c.PostForm("kind"))
		if err != nil {
			writeError(c, err)
			return
		}
		c.JSON(http.StatusCreated, models.SuccessResponse(gin.H{"url": url}, "uploaded"))
	}
}
