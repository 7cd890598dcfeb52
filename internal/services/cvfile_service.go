package services

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/mockmate/mockmate/internal/models"
	pgrepo "github.com/mockmate/mockmate/internal/repositories/postgres"
	"github.com/mockmate/mockmate/internal/storage"
	"github.com/mockmate/mockmate/internal/utils"
)

type CVFileService interface {
	Upload(ctx context.Context, userID, fileName string, fileSize int, mimeType, objectName string, r io.Reader) (*models.CVFile, error)
	Latest(ctx context.Context, userID string) (*models.CVFile, error)
}

type cvFileService struct {
	repo     pgrepo.CVFileRepo
	uploader storage.Uploader
}

func NewCVFileService(repo pgrepo.CVFileRepo, uploader storage.Uploader) CVFileService {
	return &cvFileService{repo: repo, uploader: uploader}
}

func (s *cvFileService) Upload(ctx context.Context, userID, fileName string, fileSize int, mimeType, objectName string, r io.Reader) (*models.CVFile, error) {
	const op = "CVFileService.Upload"

	if userID == "" || objectName == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id and object_name are required", nil)
	}
	if s.uploader == nil {
		return nil, utils.E(utils.CodeInternal, op, "uploader is not configured", nil)
	}

	storedPath, err := s.uploader.Upload(ctx, objectName, mimeType, r)
	if err != nil {
		return nil, utils.E(utils.CodeUnavailable, op, "failed to upload file", err)
	}

	row := &models.CVFile{
		ID:       uuid.NewString(),
		UserID:   userID,
		FileName: fileName,
		FilePath: storedPath,
		FileSize: fileSize,
		MimeType: mimeType,
		UploadAt: time.Now().UTC(),
	}

	if err := s.repo.Insert(ctx, row); err != nil {
		return nil, utils.E(utils.CodeInternal, op, "failed to persist cv file metadata", err)
	}
	return row, nil
}

func (s *cvFileService) Latest(ctx context.Context, userID string) (*models.CVFile, error) {
	const op = "CVFileService.Latest"

	if userID == "" {
		return nil, utils.E(utils.CodeInvalidArgument, op, "user_id is required", nil)
	}
	row, err := s.repo.LatestByUser(ctx, userID)
	if err != nil {
		return nil, utils.E(utils.CodeNotFound, op, "no cv on file", err)
	}
	return row, nil
}
