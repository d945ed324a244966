package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strings"
	"sync"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/noah-isme/lira-intern-api/internal/database"
	"github.com/noah-isme/lira-intern-api/internal/models"
)

func setupServiceDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:svc_%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, database.Migrate(db))
	return db
}

func seedProfile(t *testing.T, db *gorm.DB, name, role string) models.Profile {
	t.Helper()
	profile := models.Profile{FullName: name, Role: role}
	require.NoError(t, db.Create(&profile).Error)
	return profile
}

func actorFor(profile models.Profile) Actor {
	return Actor{ID: profile.ID, Role: profile.Role}
}

type sentNotification struct {
	UserID  string
	Kind    string
	Title   string
	Message string
}

type notifierStub struct {
	mu   sync.Mutex
	sent []sentNotification
}

func (n *notifierStub) NotifyUsers(_ context.Context, userIDs []string, kind, title, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, id := range userIDs {
		n.sent = append(n.sent, sentNotification{UserID: id, Kind: kind, Title: title, Message: message})
	}
}

func (n *notifierStub) byKind(kind string) []sentNotification {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []sentNotification
	for _, item := range n.sent {
		if item.Kind == kind {
			out = append(out, item)
		}
	}
	return out
}

type recorderStub struct {
	mu      sync.Mutex
	entries []ReviewEntry
	err     error
}

func (r *recorderStub) Record(_ context.Context, entry ReviewEntry) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, entry)
	return r.err
}

func (r *recorderStub) actions() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.entries))
	for _, entry := range r.entries {
		out = append(out, entry.Action)
	}
	return out
}

func newTestValidator() *validator.Validate {
	return validator.New()
}

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x02\x00\x00\x00")

func multipartFile(t *testing.T, field, name string, content []byte) *multipart.FileHeader {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile(field, name)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	form, err := multipart.NewReader(body, writer.Boundary()).ReadForm(10 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	require.NotEmpty(t, form.File[field])
	return form.File[field][0]
}

type storageStub struct {
	mu      sync.Mutex
	folders []string
	names   []string
	err     error
}

func (s *storageStub) Upload(_ context.Context, folder, name string, reader io.Reader) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return "", s.err
	}
	if _, err := io.ReadAll(reader); err != nil {
		return "", err
	}
	s.folders = append(s.folders, folder)
	s.names = append(s.names, name)
	return "https://cdn.example.com/" + folder + "/" + name, nil
}
