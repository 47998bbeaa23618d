package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"teahouse/internal/event"
	"teahouse/internal/model"
	"teahouse/internal/storage"
	"teahouse/internal/util"
)

// MediaService moves staged uploads to the media host and cleans up remote
// objects that no user document references anymore.
type MediaService struct {
	host   storage.MediaHost
	bus    event.Bus
	maxDim int
	logger *slog.Logger
}

// NewMediaService wires a host. With a nil bus, discarded media is deleted
// inline instead of being handed to the janitor.
func NewMediaService(host storage.MediaHost, bus event.Bus, maxDim int, logger *slog.Logger) *MediaService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MediaService{host: host, bus: bus, maxDim: maxDim, logger: logger}
}

// Upload pushes a staged file to the host. The staged file is removed whether
// or not the upload succeeds.
func (s *MediaService) Upload(ctx context.Context, localPath string, contentType string) (model.MediaRef, error) {
	defer removeStaged(s.logger, localPath)

	if resized, err := util.DownscaleImage(localPath, contentType, s.maxDim); errors.Is(err, util.ErrImageTooLarge) {
		return model.MediaRef{}, fmt.Errorf("upload media: %w", err)
	} else if err != nil {
		s.logger.Warn("image downscale skipped", "path", localPath, "error", err)
	} else if resized {
		s.logger.Debug("image downscaled", "path", localPath, "max_dimension", s.maxDim)
	}

	ref, err := s.host.Upload(ctx, localPath, contentType)
	if err != nil {
		return model.MediaRef{}, fmt.Errorf("upload media: %w", err)
	}
	return ref, nil
}

// Discard schedules removal of a remote object. Failures are logged only.
func (s *MediaService) Discard(ctx context.Context, ref model.MediaRef, reason string) {
	if ref.PublicID == "" {
		return
	}

	if s.bus != nil {
		s.bus.Publish(event.New(event.TypeMediaOrphaned, "", event.MediaOrphanedPayload{
			PublicID: ref.PublicID,
			Reason:   reason,
		}))
		return
	}

	s.deleteNow(context.WithoutCancel(ctx), ref.PublicID, reason)
}

func (s *MediaService) deleteNow(ctx context.Context, publicID string, reason string) {
	err := s.host.Delete(ctx, publicID)
	switch {
	case err == nil:
		s.logger.Info("media deleted", "public_id", publicID, "reason", reason)
	case errors.Is(err, model.ErrMediaNotFound):
		s.logger.Debug("media already gone", "public_id", publicID)
	default:
		s.logger.Warn("media delete failed", "public_id", publicID, "reason", reason, "error", err)
	}
}

func removeStaged(logger *slog.Logger, paths ...string) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.Warn("staged file not removed", "path", p, "error", err)
		}
	}
}
