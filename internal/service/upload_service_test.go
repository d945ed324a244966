package service

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestUploadServiceStoresImages(t *testing.T) {
	storage := &storageStub{}
	svc := NewUploadService(storage, 5, zerolog.Nop())

	resp, err := svc.Upload(context.Background(), multipartFile(t, "file", "Site Photo!.PNG", pngHeader), UploadPurposeMessage)
	require.NoError(t, err)
	require.Equal(t, "image/png", resp.MimeType)
	require.Equal(t, "site-photo.png", resp.FileName)
	require.Len(t, resp.Checksum, 64)
	require.EqualValues(t, len(pngHeader), resp.SizeBytes)
	require.Equal(t, []string{UploadPurposeMessage}, storage.folders)
	require.Equal(t, "https://cdn.example.com/channel-media/site-photo.png", resp.URL)
}

func TestUploadServiceRejectsNonImages(t *testing.T) {
	svc := NewUploadService(&storageStub{}, 5, zerolog.Nop())

	_, err := svc.Upload(context.Background(), multipartFile(t, "file", "notes.png", []byte("just some text")), UploadPurposeAvatar)
	require.ErrorIs(t, err, ErrUploadTypeNotAllowed)
}

func TestUploadServiceRejectsOversizedFiles(t *testing.T) {
	svc := NewUploadService(&storageStub{}, 1, zerolog.Nop())
	payload := append(append([]byte{}, pngHeader...), bytes.Repeat([]byte{0}, 1<<20)...)

	_, err := svc.Upload(context.Background(), multipartFile(t, "file", "big.png", payload), UploadPurposeAvatar)
	require.ErrorIs(t, err, ErrUploadTooLarge)
}

func TestUploadServiceRequiresFileAndStorage(t *testing.T) {
	svc := NewUploadService(&storageStub{}, 5, zerolog.Nop())
	_, err := svc.Upload(context.Background(), nil, UploadPurposeAvatar)
	require.ErrorIs(t, err, ErrUploadMissing)

	unconfigured := NewUploadService(nil, 5, zerolog.Nop())
	_, err = unconfigured.Upload(context.Background(), multipartFile(t, "file", "a.png", pngHeader), UploadPurposeAvatar)
	require.ErrorIs(t, err, ErrUploadStorageUnavailable)

	failing := NewUploadService(&storageStub{err: errors.New("cloud down")}, 5, zerolog.Nop())
	_, err = failing.Upload(context.Background(), multipartFile(t, "file", "a.png", pngHeader), UploadPurposeAvatar)
	require.ErrorContains(t, err, "cloud down")
}

func TestUploadObjectNameSlugsClientNames(t *testing.T) {
	svc := NewUploadService(&storageStub{}, 5, zerolog.Nop()).(*uploadService)
	svc.now = func() time.Time { return time.Unix(1700000000, 0) }

	require.Equal(t, "team-photo-2024.jpg", svc.objectName("Team  Photo (2024).JPG", ".jpg"))
	require.Equal(t, "my_avatar.png", svc.objectName("../../my_avatar.gif", ".png"))
	require.Equal(t, "upload-1700000000.webp", svc.objectName("???.webp", ".webp"))
}
