package service

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"io"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/lob-api/internal/models"
	appErrors "github.com/noah-isme/lob-api/pkg/errors"
	"github.com/noah-isme/lob-api/pkg/imaging"
	"github.com/noah-isme/lob-api/pkg/storage"
)

// ProfileImageSize is the longest side of a stored profile image.
const ProfileImageSize = 256

type attachmentUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, user *models.User) error
}

// AttachmentConfig tunes profile image handling.
type AttachmentConfig struct {
	ProfileImagesDir string
	MaxUploadBytes   int64
}

// AttachmentService stores resized profile images in blob storage.
type AttachmentService struct {
	users  attachmentUserRepository
	blobs  storage.BlobStorage
	config AttachmentConfig
	logger *zap.Logger
}

// NewAttachmentService constructs an AttachmentService.
func NewAttachmentService(users attachmentUserRepository, blobs storage.BlobStorage, cfg AttachmentConfig, logger *zap.Logger) *AttachmentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ProfileImagesDir == "" {
		cfg.ProfileImagesDir = "user-profile-images"
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 11 * 1024 * 1024
	}
	return &AttachmentService{users: users, blobs: blobs, config: cfg, logger: logger}
}

// MaxUploadBytes returns the accepted upload size.
func (s *AttachmentService) MaxUploadBytes() int64 {
	return s.config.MaxUploadBytes
}

// ProfileImageName derives the blob name of an uploaded file.
func ProfileImageName(userID, fileName string) string {
	base := filepath.Base(strings.ReplaceAll(fileName, "\\", "/"))
	base = strings.TrimSuffix(base, filepath.Ext(base))
	if base == "" || base == "." || base == "/" {
		base = "image"
	}
	return userID + "_" + base + "_256.png"
}

// UploadProfileImage resizes the upload, stores it and replaces the previous image.
func (s *AttachmentService) UploadProfileImage(ctx context.Context, userID, fileName string, size int64, r io.Reader) (string, error) {
	if r == nil {
		return "", appErrors.Clone(appErrors.ErrBadRequest, "file is required")
	}
	if size > s.config.MaxUploadBytes {
		return "", appErrors.Clone(appErrors.ErrPayloadTooLarge, "")
	}
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return "", err
	}

	resized, err := imaging.Fit(io.LimitReader(r, s.config.MaxUploadBytes+1), ProfileImageSize)
	if err != nil {
		if errors.Is(err, imaging.ErrUnsupportedImage) {
			return "", appErrors.Clone(appErrors.ErrBadRequest, "unsupported image format")
		}
		return "", appErrors.Wrap(err, appErrors.ErrBadRequest.Code, appErrors.ErrBadRequest.Status, "invalid image")
	}

	if user.ProfileImageName != nil {
		s.deleteBlob(ctx, *user.ProfileImageName)
	}

	name := ProfileImageName(user.ID, fileName)
	blobPath := ProfileImagePath(s.config.ProfileImagesDir, name)
	if err := s.blobs.Write(ctx, blobPath, bytes.NewReader(resized), "image/png"); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store profile image")
	}

	user.ProfileImageName = &name
	if err := s.users.Update(ctx, user); err != nil {
		s.deleteBlob(ctx, name)
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	return name, nil
}

// RemoveProfileImage deletes the stored image of the user.
func (s *AttachmentService) RemoveProfileImage(ctx context.Context, userID string) error {
	user, err := s.loadUser(ctx, userID)
	if err != nil {
		return err
	}
	if user.ProfileImageName == nil {
		return appErrors.Clone(appErrors.ErrUserImageNotFound, "")
	}
	name := *user.ProfileImageName
	exists, err := s.blobs.Exists(ctx, ProfileImagePath(s.config.ProfileImagesDir, name))
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check profile image")
	}
	if !exists {
		return appErrors.Clone(appErrors.ErrUserImageNotFound, "")
	}

	user.ProfileImageName = nil
	if err := s.users.Update(ctx, user); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update user")
	}
	s.deleteBlob(ctx, name)
	return nil
}

// GetProfileImage opens the stored image of userID. A nil reader means the row references a blob
// that no longer exists.
func (s *AttachmentService) GetProfileImage(ctx context.Context, userID string) (io.ReadCloser, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUserImageNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	if user.ProfileImageName == nil {
		return nil, appErrors.Clone(appErrors.ErrUserImageNotFound, "")
	}
	rc, err := s.blobs.OpenRead(ctx, ProfileImagePath(s.config.ProfileImagesDir, *user.ProfileImageName))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open profile image")
	}
	return rc, nil
}

func (s *AttachmentService) loadUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUserNotFound, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}
	return user, nil
}

func (s *AttachmentService) deleteBlob(ctx context.Context, name string) {
	if err := s.blobs.Delete(ctx, ProfileImagePath(s.config.ProfileImagesDir, name)); err != nil && !errors.Is(err, storage.ErrNotFound) {
		s.logger.Warn("failed to delete profile image", zap.String("name", name), zap.Error(err))
	}
}
