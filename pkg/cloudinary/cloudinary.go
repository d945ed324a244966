// Package cloudinary stores portal images (avatars and channel media).
package cloudinary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

const defaultUploadTimeout = 30 * time.Second

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
	Timeout   time.Duration
}

// Store uploads images below a base folder.
type Store struct {
	client  *cloudinary.Cloudinary
	folder  string
	timeout time.Duration
	now     func() time.Time
	logger  zerolog.Logger
}

// New returns an error when any credential is missing so callers can run
// with uploads disabled.
func New(cfg Config, logger zerolog.Logger) (*Store, error) {
	var missing []string
	for _, field := range [][2]string{{"cloud name", cfg.CloudName}, {"api key", cfg.APIKey}, {"api secret", cfg.APISecret}} {
		if strings.TrimSpace(field[1]) == "" {
			missing = append(missing, field[0])
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("cloudinary credentials missing: %s", strings.Join(missing, ", "))
	}

	client, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultUploadTimeout
	}

	return &Store{
		client:  client,
		folder:  strings.Trim(cfg.Folder, "/"),
		timeout: timeout,
		now:     time.Now,
		logger:  logger.With().Str("component", "cloudinary").Logger(),
	}, nil
}

// Upload stores one image under <base>/<purpose> and returns its https URL.
// Existing assets are never overwritten.
func (s *Store) Upload(ctx context.Context, purpose, name string, reader io.Reader) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	folder := joinFolder(s.folder, purpose)
	result, err := s.client.Upload.Upload(ctx, reader, uploader.UploadParams{
		Folder:       folder,
		PublicID:     publicID(name, s.now()),
		ResourceType: "image",
		Overwrite:    boolPtr(false),
	})
	if err != nil {
		return "", fmt.Errorf("cloudinary upload: %w", err)
	}
	if result.Error.Message != "" {
		return "", errors.New("cloudinary upload: " + result.Error.Message)
	}

	s.logger.Info().Str("public_id", result.PublicID).Str("folder", folder).Int("bytes", result.Bytes).Msg("image uploaded")
	return result.SecureURL, nil
}

func boolPtr(v bool) *bool { return &v }

func joinFolder(base, sub string) string {
	sub = strings.Trim(sub, "/")
	if base == "" || sub == "" {
		return base + sub
	}
	return path.Join(base, sub)
}

// publicID keeps letters and digits of the file stem and suffixes the upload
// time so repeated names never collide.
func publicID(name string, at time.Time) string {
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	fields := strings.FieldsFunc(stem, func(r rune) bool {
		return !((r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	})
	if len(fields) == 0 {
		fields = []string{"upload"}
	}
	return fmt.Sprintf("%s-%d", strings.Join(fields, "-"), at.Unix())
}
