package services

import (
	"io"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/onegreenvn/tutorial-bundler-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileService(t *testing.T) *FileService {
	t.Helper()
	return NewFileService(newMemoryFileStore(), "https://bundler.example.com", config.StorageConfig{Dir: t.TempDir(), JWTSecret: "secret"})
}

func tokenFrom(t *testing.T, downloadURL string) string {
	t.Helper()
	u, err := url.Parse(downloadURL)
	require.NoError(t, err)
	return u.Query().Get("token")
}

func TestStoreAndOpenArchive(t *testing.T) {
	svc := newTestFileService(t)

	file, err := svc.StoreArchive("run-1", "tutorial-scaffolds-2025-01-21.zip", []byte("PK"))
	require.NoError(t, err)
	assert.Equal(t, "application/zip", file.MimeType)
	assert.EqualValues(t, 2, file.FileSize)
	assert.Equal(t, ".zip", filepath.Ext(file.FileName))
	assert.Equal(t, "run-1", filepath.Base(filepath.Dir(file.FilePath)))

	record, f, err := svc.Open(file.ID)
	require.NoError(t, err)
	defer f.Close()
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "PK", string(data))
	assert.Equal(t, "tutorial-scaffolds-2025-01-21.zip", record.OriginalName)

	_, _, err = svc.Open("missing")
	assert.Error(t, err)
}

func TestSignedDownloadURL(t *testing.T) {
	svc := newTestFileService(t)

	downloadURL, err := svc.GenerateSignedDownloadURL("run-1", "file-1")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(downloadURL, "https://bundler.example.com/api/v1/bundles/run-1/download?token="))

	token := tokenFrom(t, downloadURL)
	fileID, err := svc.ValidateDownloadToken("run-1", token)
	require.NoError(t, err)
	assert.Equal(t, "file-1", fileID)

	_, err = svc.ValidateDownloadToken("run-2", token)
	assert.Error(t, err)

	_, err = svc.ValidateDownloadToken("run-1", token+"x")
	assert.Error(t, err)
}

func TestSignedDownloadURLExpires(t *testing.T) {
	svc := newTestFileService(t)
	issued := time.Date(2025, 1, 21, 10, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return issued }

	downloadURL, err := svc.GenerateSignedDownloadURL("run-1", "file-1")
	require.NoError(t, err)
	token := tokenFrom(t, downloadURL)

	svc.now = func() time.Time { return issued.Add(59 * time.Minute) }
	_, err = svc.ValidateDownloadToken("run-1", token)
	assert.NoError(t, err)

	svc.now = func() time.Time { return issued.Add(61 * time.Minute) }
	_, err = svc.ValidateDownloadToken("run-1", token)
	assert.Error(t, err)
}
