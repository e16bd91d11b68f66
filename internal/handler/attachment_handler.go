package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	appErrors "github.com/noah-isme/lob-api/pkg/errors"
	"github.com/noah-isme/lob-api/pkg/response"
)

const profileImageCacheControl = "public, max-age=604800"

type attachmentService interface {
	MaxUploadBytes() int64
	UploadProfileImage(ctx context.Context, userID, fileName string, size int64, r io.Reader) (string, error)
	RemoveProfileImage(ctx context.Context, userID string) error
	GetProfileImage(ctx context.Context, userID string) (io.ReadCloser, error)
}

// AttachmentHandler manages profile images.
type AttachmentHandler struct {
	service attachmentService
}

// NewAttachmentHandler creates a new handler.
func NewAttachmentHandler(svc attachmentService) *AttachmentHandler {
	return &AttachmentHandler{service: svc}
}

// UploadProfileImage godoc
// @Summary Upload a profile image
// @Description The image is fitted into 256x256 and stored as PNG
// @Tags Attachment
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "Image"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Problem
// @Failure 413 {object} response.Problem
// @Router /api/Attachment/UploadProfileImage [post]
func (h *AttachmentHandler) UploadProfileImage(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.service.MaxUploadBytes()+1<<20)
	header, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			response.Error(c, appErrors.Clone(appErrors.ErrPayloadTooLarge, ""))
			return
		}
		response.Error(c, appErrors.Clone(appErrors.ErrBadRequest, "file is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrBadRequest.Code, appErrors.ErrBadRequest.Status, "failed to read upload"))
		return
	}
	defer file.Close()

	name, err := h.service.UploadProfileImage(c.Request.Context(), claims.UserID, header.Filename, header.Size, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, gin.H{"profileImageName": name})
}

// RemoveProfileImage godoc
// @Summary Remove the profile image
// @Tags Attachment
// @Security BearerAuth
// @Success 204
// @Failure 404 {object} response.Problem
// @Router /api/Attachment/RemoveProfileImage [delete]
func (h *AttachmentHandler) RemoveProfileImage(c *gin.Context) {
	claims, ok := requireClaims(c)
	if !ok {
		return
	}
	if err := h.service.RemoveProfileImage(c.Request.Context(), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// GetProfileImage godoc
// @Summary Download a profile image
// @Tags Attachment
// @Produce png
// @Param userId path string true "User ID"
// @Success 200 {file} file
// @Failure 404 {object} response.Problem
// @Router /api/Attachment/GetProfileImage/{userId} [get]
func (h *AttachmentHandler) GetProfileImage(c *gin.Context) {
	userID, ok := uuidParam(c, "userId", appErrors.Clone(appErrors.ErrUserImageNotFound, ""))
	if !ok {
		return
	}
	rc, err := h.service.GetProfileImage(c.Request.Context(), userID)
	if err != nil {
		response.Error(c, err)
		return
	}
	if rc == nil {
		c.Status(http.StatusOK)
		return
	}
	defer rc.Close()
	c.Header("Cache-Control", profileImageCacheControl)
	c.DataFromReader(http.StatusOK, -1, "image/png", rc, nil)
}
