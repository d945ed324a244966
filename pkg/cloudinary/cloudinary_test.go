package cloudinary

import (
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestNewReportsMissingCredentials(t *testing.T) {
	_, err := New(Config{CloudName: "demo", APIKey: " "}, zerolog.Nop())
	require.ErrorContains(t, err, "api key")
	require.ErrorContains(t, err, "api secret")
}

func TestNewDefaultsTimeoutAndTrimsFolder(t *testing.T) {
	store, err := New(Config{CloudName: "demo", APIKey: "key", APISecret: "secret", Folder: "/lira/"}, zerolog.Nop())
	require.NoError(t, err)
	require.Equal(t, "lira", store.folder)
	require.Equal(t, defaultUploadTimeout, store.timeout)
}

func TestJoinFolder(t *testing.T) {
	require.Equal(t, "lira/avatars", joinFolder("lira", "/avatars/"))
	require.Equal(t, "avatars", joinFolder("", "avatars"))
	require.Equal(t, "lira", joinFolder("lira", ""))
}

func TestPublicIDStripsUnsafeCharacters(t *testing.T) {
	at := time.Unix(1700000000, 0)
	require.Equal(t, "site-visit-1-1700000000", publicID("site visit#1.png", at))
	require.Equal(t, "upload-1700000000", publicID("###.jpg", at))
}
