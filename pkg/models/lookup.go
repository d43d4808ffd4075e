package models

import "time"

// LookupRequest asks a worker to resolve metadata for a video URL. When
// CallbackURL is set the result is also posted there.
type LookupRequest struct {
	ID          string         `json:"id"`
	URL         string         `json:"url"`
	Kind        string         `json:"kind"`
	ReturnAll   bool           `json:"return_all,omitempty"`
	Options     map[string]any `json:"options,omitempty"`
	CallbackURL string         `json:"callback_url,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
}

// LookupResult is published once a LookupRequest has been processed
type LookupResult struct {
	RequestID   string         `json:"request_id"`
	URL         string         `json:"url"`
	Status      string         `json:"status"`
	VideoID     string         `json:"video_id,omitempty"`
	Details     *VideoDetails  `json:"details,omitempty"`
	Captions    MergedCaptions `json:"captions,omitempty"`
	ErrorKind   string         `json:"error_kind,omitempty"`
	ErrorMsg    string         `json:"error_msg,omitempty"`
	CompletedAt time.Time      `json:"completed_at"`
}

// LookupKind constants
const (
	LookupKindInfo     = "info"
	LookupKindCaptions = "captions"
	LookupKindVideoID  = "video_id"
)

// LookupStatus constants
const (
	LookupStatusCompleted = "completed"
	LookupStatusFailed    = "failed"
)

// Lookup error kinds
const (
	ErrorKindInvalidURL  = "invalid_url"
	ErrorKindUnavailable = "video_unavailable"
	ErrorKindAuthExpired = "auth_expired"
	ErrorKindBadRequest  = "bad_request"
)

// Fail marks the result as failed with the given error kind
func (r *LookupResult) Fail(kind, msg string) {
	r.Status = LookupStatusFailed
	r.ErrorKind = kind
	r.ErrorMsg = msg
}
