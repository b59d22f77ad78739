package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"postlint/pkg/services"
)

func ListMedia(c *gin.Context) {
	files, err := services.ListMediaFiles()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list media: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, files)
}
