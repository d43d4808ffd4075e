package youtube

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// Backend extracts the raw metadata payload for a video URL
type Backend interface {
	ExtractInfo(ctx context.Context, url string, opts Options) (map[string]any, error)
}

// ExtractorError is returned by a backend when extraction itself failed
type ExtractorError struct {
	Message string
	Err     error
}

func (e *ExtractorError) Error() string {
	if e.Err != nil && e.Message == "" {
		return e.Err.Error()
	}
	return e.Message
}

func (e *ExtractorError) Unwrap() error {
	return e.Err
}

// waitDelay bounds how long a cancelled extraction may keep its output pipes open
const waitDelay = 2 * time.Second

// YTDLP runs the yt-dlp binary and decodes its JSON dump
type YTDLP struct {
	binaryPath string
}

var _ Backend = (*YTDLP)(nil)

// NewYTDLP creates a backend around the yt-dlp binary at binaryPath
func NewYTDLP(binaryPath string) *YTDLP {
	if binaryPath == "" {
		binaryPath = "yt-dlp"
	}
	return &YTDLP{binaryPath: binaryPath}
}

// ExtractInfo dumps the metadata of a single video without downloading it
func (y *YTDLP) ExtractInfo(ctx context.Context, url string, opts Options) (map[string]any, error) {
	args := opts.Args()
	args = append(args, "--dump-single-json", "--no-playlist", "--", url)

	cmd := exec.CommandContext(ctx, y.binaryPath, args...)
	cmd.WaitDelay = waitDelay

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, &ExtractorError{
			Message: errorMessage(stderr.String()),
			Err:     fmt.Errorf("yt-dlp failed: %w", err),
		}
	}

	var result map[string]any
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &result); err != nil {
		return nil, fmt.Errorf("failed to parse yt-dlp output: %w", err)
	}

	return result, nil
}

// errorMessage picks the ERROR lines out of yt-dlp's stderr.
func errorMessage(stderr string) string {
	var lines []string
	for _, line := range strings.Split(stderr, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "ERROR:") {
			lines = append(lines, strings.TrimSpace(strings.TrimPrefix(line, "ERROR:")))
		}
	}
	if len(lines) == 0 {
		return strings.TrimSpace(stderr)
	}
	return strings.Join(lines, "; ")
}
