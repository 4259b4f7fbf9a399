package controllers

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/kendall-kelly/delivery-tracker-api/config"
	"github.com/kendall-kelly/delivery-tracker-api/services"
	"github.com/kendall-kelly/delivery-tracker-api/utils"
	log "github.com/sirupsen/logrus"
)

// UploadProof handles POST /api/orders/:id/proof - attaches a proof-of-delivery PNG
func UploadProof(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	orderID, ok := orderIDParam(c)
	if !ok {
		return
	}

	db := config.GetDB()
	if _, err := services.NewQueryService(db).GetOrder(c.Request.Context(), actor, orderID); err != nil {
		respondError(c, err)
		return
	}

	fileHeader, err := c.FormFile("image")
	if err != nil {
		respondValidation(c, "An image file is required", err)
		return
	}

	storage := services.GetProofStorage()
	if storage == nil {
		respondError(c, errors.New("proof storage is not initialized"))
		return
	}

	key, err := storage.Save(c.Request.Context(), fileHeader)
	if err != nil {
		var uploadErr *utils.FileUploadError
		if errors.As(err, &uploadErr) {
			c.JSON(http.StatusBadRequest, gin.H{
				"success": false,
				"error": gin.H{
					"code":    uploadErr.Code,
					"message": uploadErr.Message,
				},
			})
			return
		}
		respondError(c, err)
		return
	}

	order, previous, err := services.NewOrderService(db).AttachProof(c.Request.Context(), orderID, key, actor)
	if err != nil {
		if deleteErr := storage.Delete(c.Request.Context(), key); deleteErr != nil {
			log.WithError(deleteErr).WithField("key", key).Warn("Failed to remove orphaned proof image")
		}
		respondError(c, err)
		return
	}
	if previous != "" && previous != key {
		if err := storage.Delete(c.Request.Context(), previous); err != nil {
			log.WithError(err).WithField("key", previous).Warn("Failed to remove replaced proof image")
		}
	}

	respondData(c, http.StatusOK, withProofURL(c.Request.Context(), order))
}

// GetUploadedImage handles GET /api/uploads/:filename - serves locally stored PNG
// images of orders the caller can see
func GetUploadedImage(c *gin.Context) {
	actor, ok := currentActor(c)
	if !ok {
		return
	}
	filename := c.Param("filename")

	if filename == "" {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": "Filename is required",
			},
		})
		return
	}

	// Prevent directory traversal
	if strings.Contains(filename, "..") || strings.Contains(filename, "/") || strings.Contains(filename, "\\") {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_FILENAME",
				"message": "Invalid filename",
			},
		})
		return
	}

	if strings.ToLower(filepath.Ext(filename)) != utils.ProofImageExt {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_FILE_TYPE",
				"message": "Only PNG files are supported",
			},
		})
		return
	}

	if _, err := services.NewQueryService(config.GetDB()).GetOrderByProofKey(c.Request.Context(), actor, filename); err != nil {
		respondError(c, err)
		return
	}

	filePath := filepath.Join(utils.UploadDir, filename)
	if _, err := os.Stat(filePath); os.IsNotExist(err) {
		c.JSON(http.StatusNotFound, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "FILE_NOT_FOUND",
				"message": "Image not found",
			},
		})
		return
	}

	c.Header("Content-Type", "image/png")
	c.Header("Cache-Control", "private, max-age=3600")
	c.File(filePath)
}
