package youtube

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeFakeYTDLP installs a shell script standing in for yt-dlp. It records
// its arguments next to itself.
func writeFakeYTDLP(t *testing.T, body string) (binary, argsFile string) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("fake yt-dlp needs a POSIX shell")
	}

	dir := t.TempDir()
	binary = filepath.Join(dir, "yt-dlp")
	argsFile = filepath.Join(dir, "args")

	script := "#!/bin/sh\nprintf '%s\\n' \"$@\" > " + argsFile + "\n" + body + "\n"
	require.NoError(t, os.WriteFile(binary, []byte(script), 0o755))
	return binary, argsFile
}

func TestYTDLPExtractInfo(t *testing.T) {
	binary, argsFile := writeFakeYTDLP(t, `echo '{"id": "dQw4w9WgXcQ", "title": "Test Video", "duration": 212}'`)

	result, err := NewYTDLP(binary).ExtractInfo(context.Background(), sampleVideoURL, DefaultOptions())
	require.NoError(t, err)

	assert.Equal(t, sampleVideoID, result["id"])
	assert.Equal(t, "Test Video", result["title"])
	assert.Equal(t, float64(212), result["duration"])

	args, err := os.ReadFile(argsFile)
	require.NoError(t, err)
	assert.Equal(t,
		[]string{"-f", "best", "--no-warnings", "--quiet", "--dump-single-json", "--no-playlist", "--", sampleVideoURL},
		strings.Fields(string(args)),
	)
}

func TestYTDLPExtractInfoFailure(t *testing.T) {
	binary, _ := writeFakeYTDLP(t, `echo 'WARNING: something odd' >&2
echo "ERROR: [youtube] dQw4w9WgXcQ: Sign in to confirm you're not a bot" >&2
exit 1`)

	_, err := NewYTDLP(binary).ExtractInfo(context.Background(), sampleVideoURL, DefaultOptions())
	require.Error(t, err)

	var extractorErr *ExtractorError
	require.True(t, errors.As(err, &extractorErr))
	assert.Equal(t, "[youtube] dQw4w9WgXcQ: Sign in to confirm you're not a bot", extractorErr.Message)
	assert.ErrorIs(t, classifyError(err), ErrAuthExpired)
}

func TestYTDLPExtractInfoBadOutput(t *testing.T) {
	binary, _ := writeFakeYTDLP(t, `echo 'not json'`)

	_, err := NewYTDLP(binary).ExtractInfo(context.Background(), sampleVideoURL, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse yt-dlp output")

	var extractorErr *ExtractorError
	assert.False(t, errors.As(err, &extractorErr))
}

func TestYTDLPExtractInfoMissingBinary(t *testing.T) {
	_, err := NewYTDLP(filepath.Join(t.TempDir(), "missing")).ExtractInfo(context.Background(), sampleVideoURL, nil)
	require.Error(t, err)
	assert.ErrorIs(t, classifyError(err), ErrVideoUnavailable)
}

func TestYTDLPExtractInfoContextCancel(t *testing.T) {
	binary, _ := writeFakeYTDLP(t, `exec sleep 5`)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := NewYTDLP(binary).ExtractInfo(ctx, sampleVideoURL, nil)
	require.Error(t, err)
	assert.Less(t, time.Since(start), 4*time.Second)
}

func TestErrorMessage(t *testing.T) {
	assert.Equal(t, "first; second", errorMessage("WARNING: noise\nERROR: first\nERROR: second\n"))
	assert.Equal(t, "plain failure", errorMessage("  plain failure \n"))
	assert.Equal(t, "", errorMessage(""))
}

func TestNewYTDLPDefaultBinary(t *testing.T) {
	assert.Equal(t, "yt-dlp", NewYTDLP("").binaryPath)
}
