package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"alcyxob/team-points/internal/apperr"
	"alcyxob/team-points/internal/domain"
	"alcyxob/team-points/internal/repository"
	"alcyxob/team-points/internal/storage"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const exerciseImagePrefix = "exercises/"

// Image is an uploaded file handed to CreateExercise.
type Image struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// NewExercise describes an exercise to create. Image and ImageKey are optional;
// ImageKey refers to an object uploaded through ImageUploadURL.
type NewExercise struct {
	Title       string
	Description string
	Points      int
	Image       *Image
	ImageKey    string
}

// UploadTarget is a presigned URL and the object key it writes to.
type UploadTarget struct {
	URL       string `json:"uploadUrl"`
	ObjectKey string `json:"objectKey"`
}

type ExerciseService interface {
	CreateExercise(ctx context.Context, in NewExercise) (*domain.AwardableItem, error)
	ImageUploadURL(ctx context.Context, contentType, filename string) (*UploadTarget, error)
	// ListExercises returns every exercise, newest first, with presigned image URLs.
	ListExercises(ctx context.Context) ([]domain.AwardableItem, error)
	DeleteExercise(ctx context.Context, id string) error
}

// exerciseService implements the ExerciseService interface.
type exerciseService struct {
	items   repository.ItemRepository
	storage storage.FileStorage // nil when object storage is not configured
	logger  *zap.Logger
}

// NewExerciseService creates a new instance of exerciseService.
func NewExerciseService(items repository.ItemRepository, fileStorage storage.FileStorage, logger *zap.Logger) ExerciseService {
	return &exerciseService{
		items:   items,
		storage: fileStorage,
		logger:  logger,
	}
}

func imageKey(filename string) string {
	return exerciseImagePrefix + uuid.NewString() + strings.ToLower(filepath.Ext(filename))
}

func (s *exerciseService) CreateExercise(ctx context.Context, in NewExercise) (*domain.AwardableItem, error) {
	if in.Points <= 0 {
		return nil, apperr.InvalidAmount.WithMessage("exercise points must be positive")
	}
	if in.ImageKey != "" && !strings.HasPrefix(in.ImageKey, exerciseImagePrefix) {
		return nil, apperr.Invalid("unknown image key")
	}
	if (in.Image != nil || in.ImageKey != "") && s.storage == nil {
		return nil, apperr.StorageUnavailable.WithMessage("image storage is not configured")
	}

	item := &domain.AwardableItem{
		Kind:        domain.KindExercise,
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Points:      in.Points,
		ImageKey:    in.ImageKey,
	}
	if item.AwardReason() == "" {
		return nil, apperr.Invalid("exercise needs a title or description")
	}

	if in.Image != nil {
		item.ImageKey = imageKey(in.Image.Filename)
		if err := s.storage.PutObject(ctx, item.ImageKey, in.Image.Body, in.Image.Size, in.Image.ContentType); err != nil {
			return nil, apperr.Storage(err)
		}
	}

	if _, err := s.items.Create(ctx, item); err != nil {
		if item.ImageKey != "" && in.Image != nil {
			s.removeImage(ctx, item.ImageKey)
		}
		return nil, apperr.Storage(err)
	}
	s.presign(ctx, item)

	s.logger.Info("exercise created", zap.String("id", item.ID), zap.Int("points", item.Points))
	return item, nil
}

func (s *exerciseService) ImageUploadURL(ctx context.Context, contentType, filename string) (*UploadTarget, error) {
	if s.storage == nil {
		return nil, apperr.StorageUnavailable.WithMessage("image storage is not configured")
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, apperr.Invalid(fmt.Sprintf("content type %q is not an image", contentType))
	}

	key := imageKey(filename)
	url, err := s.storage.GeneratePresignedUploadURL(ctx, key, contentType, storage.DefaultPresignedURLExpiry)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	return &UploadTarget{URL: url, ObjectKey: key}, nil
}

func (s *exerciseService) ListExercises(ctx context.Context) ([]domain.AwardableItem, error) {
	exercises, err := s.items.ListByKind(ctx, domain.KindExercise)
	if err != nil {
		return nil, apperr.Storage(err)
	}
	for i := range exercises {
		s.presign(ctx, &exercises[i])
	}
	return exercises, nil
}

func (s *exerciseService) DeleteExercise(ctx context.Context, id string) error {
	ref := domain.ItemRef{Kind: domain.KindExercise, ID: id}
	item, err := s.items.Get(ctx, ref)
	if err != nil {
		return itemErr(err)
	}
	if err := s.items.Delete(ctx, ref); err != nil {
		return itemErr(err)
	}
	if item.ImageKey != "" {
		s.removeImage(ctx, item.ImageKey)
	}
	s.logger.Info("exercise deleted", zap.String("id", id))
	return nil
}

// presign fills ImageURL. A failure leaves it empty; the exercise is still usable.
func (s *exerciseService) presign(ctx context.Context, item *domain.AwardableItem) {
	if item.ImageKey == "" || s.storage == nil {
		return
	}
	url, err := s.storage.GeneratePresignedDownloadURL(ctx, item.ImageKey, storage.DefaultPresignedURLExpiry)
	if err != nil {
		s.logger.Warn("presign image failed", zap.String("key", item.ImageKey), zap.Error(err))
		return
	}
	item.ImageURL = url
}

func (s *exerciseService) removeImage(ctx context.Context, key string) {
	if s.storage == nil {
		return
	}
	if err := s.storage.DeleteObject(ctx, key); err != nil {
		s.logger.Warn("orphaned exercise image", zap.String("key", key), zap.Error(err))
	}
}
