package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"path/filepath"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/lira-intern-api/internal/dto"
	"github.com/noah-isme/lira-intern-api/internal/observability"
)

// Upload purposes decide the storage folder and metric label.
const (
	UploadPurposeAvatar  = "avatars"
	UploadPurposeMessage = "channel-media"
)

var (
	ErrUploadMissing            = errors.New("file is required")
	ErrUploadTooLarge           = errors.New("file exceeds maximum allowed size")
	ErrUploadTypeNotAllowed     = errors.New("file type not allowed")
	ErrUploadStorageUnavailable = errors.New("file storage not configured")
)

// acceptedImages are the formats browsers render inline in chat and profiles.
var acceptedImages = []string{"image/png", "image/jpeg", "image/gif", "image/webp", "image/svg+xml"}

// FileStorage abstracts upload destinations.
type FileStorage interface {
	Upload(ctx context.Context, folder, name string, reader io.Reader) (string, error)
}

// UploadService validates images and hands them to object storage.
type UploadService interface {
	Upload(ctx context.Context, file *multipart.FileHeader, purpose string) (dto.UploadResponse, error)
}

type uploadService struct {
	storage FileStorage
	limit   int64
	logger  zerolog.Logger
	tracer  trace.Tracer
	now     func() time.Time
}

// NewUploadService constructs an upload service. A nil storage rejects every upload.
func NewUploadService(storage FileStorage, maxSizeMB int, logger zerolog.Logger) UploadService {
	if maxSizeMB <= 0 {
		maxSizeMB = 5
	}
	return &uploadService{
		storage: storage,
		limit:   int64(maxSizeMB) << 20,
		logger:  logger.With().Str("component", "upload_service").Logger(),
		tracer:  otel.Tracer("github.com/noah-isme/lira-intern-api/internal/service/upload"),
		now:     time.Now,
	}
}

func (s *uploadService) Upload(ctx context.Context, file *multipart.FileHeader, purpose string) (dto.UploadResponse, error) {
	ctx, span := s.tracer.Start(ctx, "upload.store", trace.WithAttributes(attribute.String("upload.purpose", purpose)))
	defer span.End()

	started := s.now()
	defer func() { observability.UploadLatency().Observe(time.Since(started).Seconds()) }()

	reject := func(reason string, err error) (dto.UploadResponse, error) {
		if reason != "" {
			observability.UploadRejected().WithLabelValues(reason).Inc()
		}
		span.SetStatus(codes.Error, err.Error())
		return dto.UploadResponse{}, err
	}

	switch {
	case file == nil:
		return reject("", ErrUploadMissing)
	case s.storage == nil:
		return reject("storage", ErrUploadStorageUnavailable)
	case file.Size > s.limit:
		return reject("size", ErrUploadTooLarge)
	}

	content, err := s.read(file)
	if errors.Is(err, ErrUploadTooLarge) {
		return reject("size", err)
	}
	if err != nil {
		span.RecordError(err)
		return reject("", err)
	}

	kind := mimetype.Detect(content)
	span.SetAttributes(attribute.String("upload.mime", kind.String()), attribute.Int("upload.bytes", len(content)))
	if !mimetype.EqualsAny(kind.String(), acceptedImages...) {
		return reject("type", ErrUploadTypeNotAllowed)
	}

	name := s.objectName(file.Filename, kind.Extension())
	url, err := s.storage.Upload(ctx, purpose, name, bytes.NewReader(content))
	if err != nil {
		span.RecordError(err)
		return reject("storage", fmt.Errorf("store upload: %w", err))
	}

	observability.UploadRequests().WithLabelValues(purpose).Inc()
	s.logger.Debug().Str("purpose", purpose).Str("file_name", name).Int("size", len(content)).Msg("upload stored")

	sum := sha256.Sum256(content)
	return dto.UploadResponse{
		URL:       url,
		MimeType:  kind.String(),
		SizeBytes: int64(len(content)),
		Checksum:  hex.EncodeToString(sum[:]),
		FileName:  name,
	}, nil
}

// read loads the part into memory. The declared size is client supplied, so
// the limit is enforced again on the bytes actually received.
func (s *uploadService) read(file *multipart.FileHeader) ([]byte, error) {
	handle, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("open upload: %w", err)
	}
	defer handle.Close()

	content, err := io.ReadAll(io.LimitReader(handle, s.limit+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if int64(len(content)) > s.limit {
		return nil, ErrUploadTooLarge
	}
	return content, nil
}

// objectName slugs the client file name and appends the sniffed extension.
func (s *uploadService) objectName(original, ext string) string {
	stem := strings.ToLower(strings.TrimSuffix(filepath.Base(original), filepath.Ext(original)))

	var slug strings.Builder
	dash := false
	for _, r := range stem {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '_' {
			slug.WriteRune(r)
			dash = false
			continue
		}
		if !dash && slug.Len() > 0 {
			slug.WriteByte('-')
			dash = true
		}
	}

	name := strings.TrimRight(slug.String(), "-")
	if name == "" {
		name = fmt.Sprintf("upload-%d", s.now().Unix())
	}
	if ext == "" {
		ext = strings.ToLower(filepath.Ext(original))
	}
	return name + ext
}
