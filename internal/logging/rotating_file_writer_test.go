package logging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRotatingFileWriterWrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")

	w, err := NewRotatingFileWriter(path, 1024)
	require.NoError(t, err)
	defer w.Close()

	_, err = w.Write([]byte("hello\n"))
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "hello\n", string(data))
}

func TestRotatingFileWriterRotates(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")

	w, err := NewRotatingFileWriter(path, 32)
	require.NoError(t, err)
	defer w.Close()

	line := strings.Repeat("x", 20) + "\n"
	_, err = w.Write([]byte(line))
	require.NoError(t, err)
	_, err = w.Write([]byte(line))
	require.NoError(t, err)

	backup, err := os.ReadFile(path + ".old")
	require.NoError(t, err)
	assert.Equal(t, line, string(backup))

	current, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, line, string(current))
}

func TestRotatingFileWriterRejectsBadArgs(t *testing.T) {
	_, err := NewRotatingFileWriter("", 1024)
	assert.Error(t, err)

	_, err = NewRotatingFileWriter(filepath.Join(t.TempDir(), "x.log"), 0)
	assert.Error(t, err)
}

func TestRotatingFileWriterClosed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.log")

	w, err := NewRotatingFileWriter(path, 1024)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	_, err = w.Write([]byte("late\n"))
	assert.ErrorIs(t, err, os.ErrClosed)
	assert.NoError(t, w.Close())
}
