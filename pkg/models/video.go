package models

import (
	"time"
)

// VideoDetails is the metadata record for a single YouTube video as reported
// by the extraction backend.
type VideoDetails struct {
	ID                   string           `json:"id" validate:"required"`
	Title                string           `json:"title" validate:"required"`
	Formats              []Format         `json:"formats" validate:"dive"`
	Thumbnails           []Thumbnail      `json:"thumbnails" validate:"dive"`
	Thumbnail            string           `json:"thumbnail" validate:"url"`
	Description          string           `json:"description"`
	ChannelID            string           `json:"channel_id"`
	ChannelURL           string           `json:"channel_url" validate:"url"`
	Duration             int              `json:"duration"`
	ViewCount            int64            `json:"view_count"`
	AverageRating        *float64         `json:"average_rating,omitempty"`
	AgeLimit             int              `json:"age_limit"`
	WebpageURL           string           `json:"webpage_url" validate:"url"`
	Categories           []string         `json:"categories"`
	Tags                 []string         `json:"tags"`
	PlayableInEmbed      bool             `json:"playable_in_embed"`
	LiveStatus           string           `json:"live_status"`
	ReleaseTimestamp     *int64           `json:"release_timestamp,omitempty"`
	AutomaticCaptions    CaptionCatalog   `json:"automatic_captions"`
	Subtitles            CaptionCatalog   `json:"subtitles"`
	CommentCount         *int64           `json:"comment_count,omitempty"`
	Chapters             []map[string]any `json:"chapters,omitempty"`
	Heatmap              []map[string]any `json:"heatmap,omitempty"`
	LikeCount            int64            `json:"like_count"`
	Channel              string           `json:"channel"`
	ChannelFollowerCount int64            `json:"channel_follower_count"`
	Uploader             string           `json:"uploader"`
	UploaderID           string           `json:"uploader_id"`
	UploaderURL          string           `json:"uploader_url" validate:"url"`
	UploadDate           string           `json:"upload_date"`
	Timestamp            int64            `json:"timestamp"`
	Availability         string           `json:"availability"`
	OriginalURL          string           `json:"original_url" validate:"url"`
	WebpageURLBasename   string           `json:"webpage_url_basename"`
	WebpageURLDomain     string           `json:"webpage_url_domain"`
	Extractor            string           `json:"extractor"`
	ExtractorKey         string           `json:"extractor_key"`
	Playlist             *string          `json:"playlist,omitempty"`
	PlaylistIndex        *int             `json:"playlist_index,omitempty"`
	DisplayID            string           `json:"display_id"`
	Fulltitle            string           `json:"fulltitle"`
	DurationString       string           `json:"duration_string"`
	ReleaseYear          *int             `json:"release_year,omitempty"`
	IsLive               bool             `json:"is_live"`
	WasLive              bool             `json:"was_live"`
	RequestedSubtitles   map[string]any   `json:"requested_subtitles,omitempty"`
	Epoch                int64            `json:"epoch"`
	RequestedFormats     []Format         `json:"requested_formats,omitempty" validate:"omitempty,dive"`
	Format               string           `json:"format"`
	FormatID             string           `json:"format_id"`
	Ext                  string           `json:"ext"`
	Protocol             string           `json:"protocol"`
	Language             string           `json:"language"`
	FormatNote           string           `json:"format_note"`
	FilesizeApprox       int64            `json:"filesize_approx"`
	TBR                  float64          `json:"tbr"`
	Width                int              `json:"width"`
	Height               int              `json:"height"`
	Resolution           string           `json:"resolution"`
	FPS                  float64          `json:"fps"`
	DynamicRange         string           `json:"dynamic_range"`
	VCodec               string           `json:"vcodec"`
	VBR                  float64          `json:"vbr"`
	StretchedRatio       *float64         `json:"stretched_ratio,omitempty"`
	AspectRatio          float64          `json:"aspect_ratio"`
	ACodec               string           `json:"acodec"`
	ABR                  float64          `json:"abr"`
	ASR                  int              `json:"asr"`
	AudioChannels        int              `json:"audio_channels"`

	// Fields added when the raw payload is projected.
	YouTubeID     string     `json:"youtube_id"`
	VideoURL      string     `json:"video_url"`
	Index         *int       `json:"index,omitempty"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	AgeRestricted bool       `json:"age_restricted"`

	// Extra holds every other non-underscore key of the raw payload.
	Extra Metadata `json:"extra,omitempty"`
}

// Format is one downloadable rendition of a video.
type Format struct {
	FormatID       string            `json:"format_id" validate:"required"`
	FormatNote     string            `json:"format_note,omitempty"`
	Ext            string            `json:"ext" validate:"required"`
	Protocol       string            `json:"protocol" validate:"required"`
	URL            string            `json:"url" validate:"required,url"`
	ACodec         string            `json:"acodec,omitempty"`
	VCodec         string            `json:"vcodec,omitempty"`
	Container      string            `json:"container,omitempty"`
	Language       *string           `json:"language,omitempty"`
	Width          *int              `json:"width,omitempty"`
	Height         *int              `json:"height,omitempty"`
	FPS            *float64          `json:"fps,omitempty"`
	Rows           *int              `json:"rows,omitempty"`
	Columns        *int              `json:"columns,omitempty"`
	Fragments      []Fragment        `json:"fragments,omitempty" validate:"omitempty,dive"`
	AudioExt       string            `json:"audio_ext,omitempty"`
	VideoExt       string            `json:"video_ext,omitempty"`
	VBR            *float64          `json:"vbr,omitempty"`
	ABR            *float64          `json:"abr,omitempty"`
	TBR            *float64          `json:"tbr,omitempty"`
	ASR            *int              `json:"asr,omitempty"`
	Resolution     string            `json:"resolution,omitempty"`
	AspectRatio    *float64          `json:"aspect_ratio,omitempty"`
	Filesize       *int64            `json:"filesize,omitempty"`
	FilesizeApprox *int64            `json:"filesize_approx,omitempty"`
	DynamicRange   *string           `json:"dynamic_range,omitempty"`
	HasDRM         bool              `json:"has_drm,omitempty"`
	Quality        *float64          `json:"quality,omitempty"`
	HTTPHeaders    map[string]string `json:"http_headers,omitempty"`
	Format         string            `json:"format,omitempty"`
}

// Fragment is a piece of a segmented format such as a storyboard.
type Fragment struct {
	URL      string  `json:"url" validate:"required,url"`
	Duration float64 `json:"duration"`
}

// Thumbnail is a preview image of a video.
type Thumbnail struct {
	URL        string `json:"url" validate:"required,url"`
	Preference int    `json:"preference"`
	ID         string `json:"id"`
	Width      *int   `json:"width,omitempty"`
	Height     *int   `json:"height,omitempty"`
}

// Metadata holds backend fields that are carried along without being interpreted
type Metadata map[string]interface{}

// Clone returns a shallow copy of the metadata
func (m Metadata) Clone() Metadata {
	if m == nil {
		return nil
	}
	out := make(Metadata, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

// String returns the value stored under key when it is a non-empty string
func (m Metadata) String(key string) (string, bool) {
	s, ok := m[key].(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

// Placeholder values used when the backend omits a field.
const (
	PlaceholderTitle       = "No Video Title"
	PlaceholderID          = "No Video ID"
	PlaceholderChannel     = "No Channel"
	PlaceholderDescription = "No Video Description"
	PlaceholderVideoURL    = "No Video URL"
)
