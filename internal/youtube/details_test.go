package youtube

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/therealutkarshpriyadarshi/ytmeta/pkg/models"
)

func loadVideoInfo(t testing.TB) map[string]any {
	t.Helper()
	data, err := os.ReadFile("testdata/video_info.json")
	require.NoError(t, err)
	return decodeJSON(t, string(data))
}

func TestProjectVideoInfoDefaults(t *testing.T) {
	info := projectVideoInfo(map[string]any{"id": "test_id", "title": "Test Title"})

	assert.Equal(t, "test_id", info["id"])
	assert.Equal(t, "Test Title", info["title"])
	assert.Equal(t, "test_id", info["youtube_id"])
	assert.Equal(t, models.PlaceholderChannel, info["channel"])
	assert.Equal(t, models.PlaceholderDescription, info["description"])
	assert.Equal(t, models.PlaceholderVideoURL, info["video_url"])
	assert.Equal(t, 0, info["duration"])
	assert.Equal(t, 0, info["view_count"])
	assert.Equal(t, false, info["is_live"])
	assert.Equal(t, false, info["age_restricted"])
	assert.Equal(t, []any{}, info["tags"])
	assert.Nil(t, info["published_at"])
	assert.Nil(t, info["index"])
	assert.Equal(t, models.CaptionCatalog{}, info[keyAutomaticCaptions])
	assert.Equal(t, models.CaptionCatalog{}, info[keySubtitles])
}

func TestProjectVideoInfoPlaceholders(t *testing.T) {
	info := projectVideoInfo(map[string]any{})

	assert.Equal(t, models.PlaceholderTitle, info["title"])
	assert.Equal(t, models.PlaceholderID, info["youtube_id"])
	assert.NotContains(t, info, "id")
}

func TestProjectVideoInfoPassthrough(t *testing.T) {
	info := projectVideoInfo(loadVideoInfo(t))

	published, ok := info["published_at"].(time.Time)
	require.True(t, ok)
	assert.True(t, published.Equal(time.Date(2021, 1, 1, 0, 0, 0, 0, time.UTC)))
	assert.Equal(t, time.UTC, published.Location())
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", info["video_url"])
	assert.Equal(t, "video", info["media_type"])
	assert.NotContains(t, info, "_type")
	assert.NotContains(t, info, "_version")
	assert.NotContains(t, info, "_format_sort_fields")
}

func TestStrictDetails(t *testing.T) {
	details, err := strictDetails(projectVideoInfo(loadVideoInfo(t)))
	require.NoError(t, err)

	assert.Equal(t, sampleVideoID, details.ID)
	assert.Equal(t, "Test Video", details.Title)
	assert.Equal(t, "Test Description", details.Description)
	assert.Equal(t, "UC123456789", details.ChannelID)
	assert.Equal(t, "https://www.youtube.com/channel/UC123456789", details.ChannelURL)
	assert.Equal(t, 180, details.Duration)
	assert.Equal(t, int64(1000), details.ViewCount)
	require.NotNil(t, details.AverageRating)
	assert.Equal(t, 4.5, *details.AverageRating)
	assert.Equal(t, []string{"Entertainment"}, details.Categories)
	assert.Equal(t, []string{"test", "video"}, details.Tags)
	assert.Equal(t, "20210101", details.UploadDate)
	assert.Equal(t, sampleVideoID, details.YouTubeID)
	require.NotNil(t, details.PublishedAt)
	assert.True(t, details.PublishedAt.Equal(time.Unix(1609459200, 0)))

	require.Len(t, details.Formats, 1)
	format := details.Formats[0]
	assert.Equal(t, "test", format.FormatID)
	require.NotNil(t, format.Width)
	assert.Equal(t, 1920, *format.Width)
	require.Len(t, format.Fragments, 1)
	assert.Equal(t, "navigate", format.HTTPHeaders["Sec-Fetch-Mode"])

	require.Len(t, details.Thumbnails, 1)
	assert.Equal(t, "default", details.Thumbnails[0].ID)

	require.Len(t, details.AutomaticCaptions["en"], 1)
	auto := details.AutomaticCaptions["en"][0]
	ext, ok := auto.Ext.Known()
	require.True(t, ok)
	assert.Equal(t, models.CaptionVTT, ext)
	assert.Equal(t, "http://example.com/captions.vtt", auto.URL)
	assert.Equal(t, "English", auto.Name)

	require.Len(t, details.Subtitles["en"], 1)
	assert.Equal(t, "http://example.com/subtitles.vtt", details.Subtitles["en"][0].URL)

	assert.Equal(t, models.Metadata{"media_type": "video"}, details.Extra)
}

func TestStrictDetailsRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(raw map[string]any)
	}{
		{"missing required field", func(raw map[string]any) { delete(raw, "channel_id") }},
		{"null required field", func(raw map[string]any) { raw["uploader"] = nil }},
		{"missing thumbnail", func(raw map[string]any) { delete(raw, "thumbnail") }},
		{"wrong type", func(raw map[string]any) { raw["view_count"] = "lots" }},
		{"fractional integer", func(raw map[string]any) { raw["duration"] = 180.5 }},
		{"malformed url", func(raw map[string]any) { raw["channel_url"] = "not a url" }},
		{"format without url", func(raw map[string]any) {
			format := raw["formats"].([]any)[0].(map[string]any)
			delete(format, "url")
		}},
		{"unknown caption format", func(raw map[string]any) {
			raw["automatic_captions"] = map[string]any{
				"en": []any{map[string]any{"ext": "srt", "url": "https://example.com/en.srt"}},
			}
		}},
		{"caption without url", func(raw map[string]any) {
			raw["subtitles"] = map[string]any{
				"en": []any{map[string]any{"ext": "vtt"}},
			}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := loadVideoInfo(t)
			tt.mutate(raw)

			_, err := strictDetails(projectVideoInfo(raw))
			assert.Error(t, err)
		})
	}
}

func TestFallbackDetailsSparsePayload(t *testing.T) {
	// Most of the schema is missing and some of what is there has drifted.
	raw := map[string]any{
		"id":           sampleVideoID,
		"title":        "Test Video",
		"description":  "Test Description",
		"duration":     float64(212),
		"thumbnail":    "not a url",
		"view_count":   "lots",
		"tags":         []any{"music"},
		"custom_field": float64(1),
		"_private":     "hidden",
	}
	info := projectVideoInfo(raw)

	_, err := strictDetails(info)
	require.Error(t, err)

	details := fallbackDetails(info)
	require.NoError(t, lenientValidate(details))

	assert.Equal(t, sampleVideoID, details.ID)
	assert.Equal(t, "Test Video", details.Title)
	assert.Equal(t, "Test Description", details.Description)
	assert.Equal(t, 212, details.Duration)
	assert.Equal(t, []string{"music"}, details.Tags)
	assert.Equal(t, models.PlaceholderChannel, details.Channel)
	assert.Equal(t, sampleVideoID, details.YouTubeID)
	assert.Empty(t, details.Thumbnail)
	assert.Zero(t, details.ViewCount)

	assert.NotNil(t, details.Formats)
	assert.Empty(t, details.Formats)
	assert.NotNil(t, details.Thumbnails)
	assert.Empty(t, details.Thumbnails)
	assert.NotNil(t, details.AutomaticCaptions)
	assert.Empty(t, details.AutomaticCaptions)
	assert.NotNil(t, details.Subtitles)

	assert.Equal(t, float64(1), details.Extra["custom_field"])
	assert.NotContains(t, details.Extra, "_private")
}

func TestFallbackDetailsKeepsValidFields(t *testing.T) {
	raw := loadVideoInfo(t)
	raw["automatic_captions"] = map[string]any{
		"en": []any{map[string]any{"ext": "srt", "url": "https://example.com/en.srt"}},
	}
	raw["channel_url"] = "not a url"
	info := projectVideoInfo(raw)

	_, err := strictDetails(info)
	require.Error(t, err)

	details := fallbackDetails(info)
	require.NoError(t, lenientValidate(details))

	assert.Empty(t, details.AutomaticCaptions)
	assert.Empty(t, details.ChannelURL)
	require.Len(t, details.Subtitles["en"], 1)
	require.Len(t, details.Formats, 1)
	require.Len(t, details.Thumbnails, 1)
	assert.Equal(t, "UC123456789", details.ChannelID)
	assert.Equal(t, "https://www.youtube.com/channel/UC123456789", details.UploaderURL)
	assert.Equal(t, 44100, details.ASR)
}

func TestFallbackDetailsPlaceholders(t *testing.T) {
	tests := []struct {
		name      string
		raw       map[string]any
		wantID    string
		wantTitle string
	}{
		{"nothing", map[string]any{}, models.PlaceholderID, models.PlaceholderTitle},
		{"empty strings", map[string]any{"id": "", "title": ""}, models.PlaceholderID, models.PlaceholderTitle},
		{"non-string id", map[string]any{"id": float64(42), "title": "T"}, models.PlaceholderID, "T"},
		{"id only", map[string]any{"id": "abc"}, "abc", models.PlaceholderTitle},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			details := fallbackDetails(projectVideoInfo(tt.raw))
			require.NoError(t, lenientValidate(details))
			assert.Equal(t, tt.wantID, details.ID)
			assert.Equal(t, tt.wantTitle, details.Title)
		})
	}
}

func TestDetailFieldsIndex(t *testing.T) {
	keys := make(map[string]bool, len(detailFields))
	for _, f := range detailFields {
		keys[f.key] = f.required
	}

	assert.True(t, keys["id"])
	assert.True(t, keys["thumbnail"])
	assert.False(t, keys["average_rating"])
	assert.False(t, keys["playlist_index"])
	assert.NotContains(t, keys, "extra")
	assert.NotContains(t, keys, keyAutomaticCaptions)
	assert.NotContains(t, keys, keySubtitles)
}
