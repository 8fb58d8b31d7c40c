// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/olegiv/folio-go/internal/cloudinary"
	"github.com/olegiv/folio-go/internal/imaging"
	"github.com/olegiv/folio-go/internal/util"
)

// MaxUploadSize is the largest accepted image file.
const MaxUploadSize = 20 * 1024 * 1024 // 20MB

// Media errors.
var (
	ErrFileTooLarge     = errors.New("file size exceeds maximum allowed")
	ErrMediaUnavailable = errors.New("image uploads are not configured")
)

// ImageStore is the remote image host.
type ImageStore interface {
	Upload(ctx context.Context, publicID, filename string, data []byte) (*cloudinary.Upload, error)
	Destroy(ctx context.Context, publicID string) error
}

// MediaUpload describes a stored image.
type MediaUpload struct {
	PublicID string `json:"publicId"`
	URL      string `json:"url"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	MimeType string `json:"mimeType"`
	Size     int64  `json:"size"`
}

// MediaService normalizes uploaded images and stores them remotely.
type MediaService struct {
	store     ImageStore
	processor *imaging.Processor
	logger    *slog.Logger
}

// NewMediaService creates a media service. store may be nil, in which case
// uploads fail with ErrMediaUnavailable.
func NewMediaService(store ImageStore, processor *imaging.Processor, logger *slog.Logger) *MediaService {
	if processor == nil {
		processor = imaging.NewProcessor(imaging.DefaultMaxDimension, imaging.DefaultQuality)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MediaService{store: store, processor: processor, logger: logger}
}

// Enabled reports whether uploads can be stored.
func (s *MediaService) Enabled() bool {
	return s.store != nil
}

// Upload decodes, orients, downscales and re-encodes the image read from r,
// then stores it under a public ID derived from filename.
func (s *MediaService) Upload(ctx context.Context, filename string, r io.Reader) (*MediaUpload, error) {
	if s.store == nil {
		return nil, ErrMediaUnavailable
	}

	data, err := io.ReadAll(io.LimitReader(r, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("reading upload: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, fmt.Errorf("%w (%d bytes)", ErrFileTooLarge, MaxUploadSize)
	}

	result, err := s.processor.Process(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("processing image: %w", err)
	}

	publicID := PublicID(filename)
	up, err := s.store.Upload(ctx, publicID, publicID+result.Ext(), result.Data)
	if err != nil {
		return nil, fmt.Errorf("uploading image: %w", err)
	}

	s.logger.Info("image uploaded",
		"public_id", up.PublicID,
		"width", result.Width,
		"height", result.Height,
		"bytes", len(result.Data),
	)

	return &MediaUpload{
		PublicID: up.PublicID,
		URL:      up.SecureURL,
		Width:    result.Width,
		Height:   result.Height,
		MimeType: result.MimeType,
		Size:     int64(len(result.Data)),
	}, nil
}

// UploadBytes is Upload for an image already in memory.
func (s *MediaService) UploadBytes(ctx context.Context, filename string, data []byte) (*MediaUpload, error) {
	return s.Upload(ctx, filename, bytes.NewReader(data))
}

// Delete removes a stored image.
func (s *MediaService) Delete(ctx context.Context, publicID string) error {
	if s.store == nil {
		return ErrMediaUnavailable
	}
	if strings.TrimSpace(publicID) == "" {
		return errors.New("empty public id")
	}
	if err := s.store.Destroy(ctx, publicID); err != nil {
		return fmt.Errorf("deleting image %s: %w", publicID, err)
	}
	return nil
}

// PublicID builds a unique, URL-safe image name from an uploaded filename.
func PublicID(filename string) string {
	return util.BaseName(filename, "image") + "-" + uuid.NewString()[:8]
}
