package youtube

import (
	"fmt"
	"math"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/mitchellh/mapstructure"

	"github.com/therealutkarshpriyadarshi/ytmeta/pkg/models"
)

var validate = validator.New()

// detailField describes one JSON key of models.VideoDetails.
type detailField struct {
	key      string
	index    int
	field    reflect.StructField
	required bool
}

// detailFields lists the decodable keys of models.VideoDetails. Keys whose
// JSON tag is not omitempty are required by strict validation. The caption
// catalogs and Extra are handled separately.
var detailFields = indexDetailFields()

func indexDetailFields() []detailField {
	typ := reflect.TypeOf(models.VideoDetails{})
	fields := make([]detailField, 0, typ.NumField())
	for i := 0; i < typ.NumField(); i++ {
		f := typ.Field(i)
		name, opts, _ := strings.Cut(f.Tag.Get("json"), ",")
		switch name {
		case "", "-", "extra", keyAutomaticCaptions, keySubtitles:
			continue
		}
		fields = append(fields, detailField{
			key:      name,
			index:    i,
			field:    f,
			required: !strings.Contains(opts, "omitempty"),
		})
	}
	return fields
}

var recognizedKeys = func() map[string]struct{} {
	keys := map[string]struct{}{
		keyAutomaticCaptions: {},
		keySubtitles:         {},
	}
	for _, f := range detailFields {
		keys[f.key] = struct{}{}
	}
	return keys
}()

// projectVideoInfo shapes a raw backend payload into the record candidate:
// defaults for the commonly displayed fields, normalised caption catalogs,
// published_at derived from timestamp, and every other non-underscore key.
func projectVideoInfo(result map[string]any) map[string]any {
	info := map[string]any{
		"title":                  valueOr(result, "title", models.PlaceholderTitle),
		"duration":               valueOr(result, "duration", 0),
		"youtube_id":             valueOr(result, "id", models.PlaceholderID),
		"channel":                valueOr(result, "channel", models.PlaceholderChannel),
		"description":            valueOr(result, "description", models.PlaceholderDescription),
		"video_url":              valueOr(result, "original_url", models.PlaceholderVideoURL),
		"index":                  result["playlist_index"],
		"view_count":             valueOr(result, "view_count", 0),
		"like_count":             valueOr(result, "like_count", 0),
		"channel_follower_count": valueOr(result, "channel_follower_count", 0),
		"published_at":           publishedAt(result["timestamp"]),
		keyAutomaticCaptions:     NormalizeCaptions(asMap(result[keyAutomaticCaptions])),
		keySubtitles:             NormalizeCaptions(asMap(result[keySubtitles])),
		"thumbnail":              result["thumbnail"],
		"tags":                   valueOr(result, "tags", []any{}),
		"categories":             valueOr(result, "categories", []any{}),
		"is_live":                valueOr(result, "is_live", false),
		"was_live":               valueOr(result, "was_live", false),
		"age_restricted":         valueOr(result, "age_restricted", false),
	}

	for k, v := range result {
		if _, ok := info[k]; ok || strings.HasPrefix(k, "_") {
			continue
		}
		info[k] = v
	}
	return info
}

func valueOr(m map[string]any, key string, def any) any {
	if v, ok := m[key]; ok {
		return v
	}
	return def
}

func asMap(v any) map[string]any {
	m, _ := v.(map[string]any)
	return m
}

func publishedAt(ts any) any {
	var sec float64
	switch t := ts.(type) {
	case float64:
		sec = t
	case int:
		sec = float64(t)
	case int64:
		sec = float64(t)
	default:
		return nil
	}
	if sec == 0 {
		return nil
	}
	return time.Unix(int64(sec), 0).UTC()
}

// strictDetails decodes and validates the complete record. Any missing
// required key, type mismatch, malformed URL or unusable caption track fails.
func strictDetails(info map[string]any) (*models.VideoDetails, error) {
	recognized := make(map[string]any, len(detailFields))
	for _, f := range detailFields {
		v, ok := info[f.key]
		if f.required && (!ok || v == nil) {
			return nil, fmt.Errorf("missing required field %q", f.key)
		}
		if ok {
			recognized[f.key] = v
		}
	}

	details := &models.VideoDetails{}
	if err := decode(recognized, details); err != nil {
		return nil, err
	}

	auto, _ := info[keyAutomaticCaptions].(models.CaptionCatalog)
	subs, _ := info[keySubtitles].(models.CaptionCatalog)
	if err := checkCatalog(auto); err != nil {
		return nil, fmt.Errorf("%s: %w", keyAutomaticCaptions, err)
	}
	if err := checkCatalog(subs); err != nil {
		return nil, fmt.Errorf("%s: %w", keySubtitles, err)
	}
	details.AutomaticCaptions = auto
	details.Subtitles = subs
	details.Extra = extraFields(info)

	if err := validate.Struct(details); err != nil {
		return nil, err
	}
	return details, nil
}

// fallbackDetails builds a record from the minimal skeleton and copies every
// recognised field that decodes and validates on its own.
func fallbackDetails(info map[string]any) *models.VideoDetails {
	details := &models.VideoDetails{
		ID:                firstString(info, models.PlaceholderID, "id", "youtube_id"),
		Title:             firstString(info, models.PlaceholderTitle, "title"),
		Formats:           []models.Format{},
		Thumbnails:        []models.Thumbnail{},
		AutomaticCaptions: models.CaptionCatalog{},
		Subtitles:         models.CaptionCatalog{},
	}

	target := reflect.ValueOf(details).Elem()
	for _, f := range detailFields {
		if f.key == "id" || f.key == "title" {
			continue
		}
		raw, ok := info[f.key]
		if !ok || raw == nil {
			continue
		}
		probe := reflect.New(f.field.Type)
		if err := decode(raw, probe.Interface()); err != nil {
			continue
		}
		if err := validateField(f.field, probe.Elem()); err != nil {
			continue
		}
		target.Field(f.index).Set(probe.Elem())
	}

	if auto, ok := info[keyAutomaticCaptions].(models.CaptionCatalog); ok && checkCatalog(auto) == nil {
		details.AutomaticCaptions = auto
	}
	if subs, ok := info[keySubtitles].(models.CaptionCatalog); ok && checkCatalog(subs) == nil {
		details.Subtitles = subs
	}
	details.Extra = extraFields(info)

	return details
}

// lenientValidate only checks the skeleton fields of a fallback record.
func lenientValidate(details *models.VideoDetails) error {
	return validate.StructPartial(details, "ID", "Title")
}

func decode(input, output any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		DecodeHook: integralFloatHook,
		Result:     output,
		TagName:    "json",
	})
	if err != nil {
		return err
	}
	return decoder.Decode(input)
}

// integralFloatHook rejects JSON numbers with a fraction bound for integer
// fields instead of truncating them.
func integralFloatHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.Float64 && from.Kind() != reflect.Float32 {
		return data, nil
	}
	switch to.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		f := reflect.ValueOf(data).Float()
		if f != math.Trunc(f) {
			return nil, fmt.Errorf("expected integer, got %v", f)
		}
	}
	return data, nil
}

func validateField(f reflect.StructField, v reflect.Value) error {
	tag := f.Tag.Get("validate")
	if tag == "" {
		return nil
	}
	if v.Kind() == reflect.Slice && v.Type().Elem().Kind() == reflect.Struct {
		for i := 0; i < v.Len(); i++ {
			if err := validate.Struct(v.Index(i).Interface()); err != nil {
				return err
			}
		}
		return nil
	}
	return validate.Var(v.Interface(), tag)
}

func checkCatalog(catalog models.CaptionCatalog) error {
	for lang, tracks := range catalog {
		for i, track := range tracks {
			if _, ok := track.Ext.Known(); !ok {
				return fmt.Errorf("%s[%d]: unsupported caption format %q", lang, i, track.Ext.String())
			}
			if err := validate.Var(track.URL, "required,url"); err != nil {
				return fmt.Errorf("%s[%d]: invalid caption url: %w", lang, i, err)
			}
		}
	}
	return nil
}

func extraFields(info map[string]any) models.Metadata {
	var extra models.Metadata
	for k, v := range info {
		if _, ok := recognizedKeys[k]; ok {
			continue
		}
		if extra == nil {
			extra = make(models.Metadata)
		}
		extra[k] = v
	}
	return extra
}

func firstString(m map[string]any, def string, keys ...string) string {
	meta := models.Metadata(m)
	for _, k := range keys {
		if s, ok := meta.String(k); ok {
			return s
		}
	}
	return def
}
