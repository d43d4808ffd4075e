package youtube

import (
	"errors"
	"fmt"
	"strings"

	"github.com/therealutkarshpriyadarshi/ytmeta/pkg/models"
)

var (
	// ErrVideoUnavailable means the video cannot be used: it is missing,
	// private, restricted, or extraction failed for any other reason.
	ErrVideoUnavailable = errors.New("youtube video unavailable")

	// ErrAuthExpired means the upstream session was rejected with a bot
	// challenge. Retrying after re-authenticating may succeed.
	ErrAuthExpired = errors.New("youtube oauth token expired")
)

const (
	botChallengeSignature = "Sign in to confirm you're not a bot"
	unavailableSignature  = "Video unavailable"
	privateSignature      = "Private video"
	ageSignature          = "Sign in to confirm your age"
)

var geoSignatures = []string{
	"available in your country",
	"not available from your location",
}

// classifyError maps a backend failure onto ErrAuthExpired or
// ErrVideoUnavailable.
func classifyError(err error) error {
	msg := err.Error()
	var extractorErr *ExtractorError
	if errors.As(err, &extractorErr) {
		msg = extractorErr.Error()
	}

	switch {
	case strings.Contains(msg, botChallengeSignature):
		return fmt.Errorf("%w: YouTube OAuth token has expired", ErrAuthExpired)
	case strings.Contains(msg, privateSignature):
		return fmt.Errorf("%w: The YouTube video is private", ErrVideoUnavailable)
	case strings.Contains(msg, unavailableSignature):
		return fmt.Errorf("%w: The YouTube video is not available", ErrVideoUnavailable)
	case containsAny(msg, geoSignatures):
		return fmt.Errorf("%w: Video is geo-restricted: %s", ErrVideoUnavailable, msg)
	case strings.Contains(msg, ageSignature):
		return fmt.Errorf("%w: Video is age-restricted: %s", ErrVideoUnavailable, msg)
	case extractorErr == nil:
		return fmt.Errorf("%w: Unexpected error: %s", ErrVideoUnavailable, msg)
	default:
		return fmt.Errorf("%w: %s", ErrVideoUnavailable, msg)
	}
}

// ErrorKind names the class of err for API responses and metrics labels
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrAuthExpired):
		return models.ErrorKindAuthExpired
	case errors.Is(err, ErrVideoUnavailable):
		return models.ErrorKindUnavailable
	default:
		return "unknown"
	}
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
