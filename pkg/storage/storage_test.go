package storage

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLocalStorage(t *testing.T) *LocalStorage {
	t.Helper()
	s, err := NewLocalStorage(LocalConfig{Path: t.TempDir()})
	require.NoError(t, err)
	return s
}

func TestLocalStorageSaveAndGet(t *testing.T) {
	s := newLocalStorage(t)

	info, err := s.Save(strings.NewReader("docx bytes"), "engagement.docx")
	require.NoError(t, err)
	assert.NotEmpty(t, info.ID)
	assert.Equal(t, "engagement.docx", info.Name)
	assert.Equal(t, int64(10), info.Size)
	assert.Contains(t, info.MimeType, "wordprocessingml")

	rc, err := s.Get(info.ID)
	require.NoError(t, err)
	defer rc.Close()

	content, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "docx bytes", string(content))
}

func TestLocalStorageExistsAndDelete(t *testing.T) {
	s := newLocalStorage(t)

	info, err := s.Save(strings.NewReader("content"), "out.pdf")
	require.NoError(t, err)

	exists, err := s.Exists(info.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, s.Delete(info.ID))

	exists, err = s.Exists(info.ID)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = s.Get(info.ID)
	assert.Error(t, err)
}

func TestLocalStorageList(t *testing.T) {
	s := newLocalStorage(t)

	_, err := s.Save(strings.NewReader("a"), "a.docx")
	require.NoError(t, err)
	_, err = s.Save(strings.NewReader("b"), "b.docx")
	require.NoError(t, err)

	files, err := s.List()
	require.NoError(t, err)
	assert.Len(t, files, 2)
}
