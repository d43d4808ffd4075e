package youtube

import (
	"github.com/therealutkarshpriyadarshi/ytmeta/pkg/models"
)

const (
	keyAutomaticCaptions = "automatic_captions"
	keySubtitles         = "subtitles"
)

// DefaultPreferredLanguages are the caption keys kept when only the preferred
// captions are requested.
var DefaultPreferredLanguages = []string{"en-orig", "en", "auto-en", "auto-en-orig"}

// NormalizeCaptions converts a raw per-language caption catalog into a
// CaptionCatalog. Unknown format tags are kept as raw strings, a missing name
// defaults to "Caption for <lang>", and fields other than ext, url and name
// are preserved in Caption.Extra. Languages without tracks are left out.
func NormalizeCaptions(raw map[string]any) models.CaptionCatalog {
	catalog := make(models.CaptionCatalog, len(raw))
	for lang, entries := range raw {
		list, ok := entries.([]any)
		if !ok || len(list) == 0 {
			continue
		}

		tracks := make([]models.Caption, 0, len(list))
		for _, entry := range list {
			fields, ok := entry.(map[string]any)
			if !ok {
				continue
			}
			tracks = append(tracks, normalizeCaption(lang, fields))
		}

		if len(tracks) > 0 {
			catalog[lang] = tracks
		}
	}
	return catalog
}

func normalizeCaption(lang string, fields map[string]any) models.Caption {
	meta := models.Metadata(fields)

	caption := models.Caption{
		Name: "Caption for " + lang,
	}
	if ext, ok := meta.String("ext"); ok {
		caption.Ext = models.ParseCaptionFormat(ext)
	}
	if u, ok := meta.String("url"); ok {
		caption.URL = u
	}
	// An explicit empty name is kept; only a missing one gets the default.
	if name, ok := fields["name"].(string); ok {
		caption.Name = name
	}

	for k, v := range fields {
		switch k {
		case "ext", "url", "name":
			continue
		}
		if caption.Extra == nil {
			caption.Extra = make(models.Metadata)
		}
		caption.Extra[k] = v
	}
	return caption
}

// ExtractCaptions merges the automatic and manual caption catalogs of a raw
// backend payload. Automatic languages are keyed "auto-<lang>", manual ones
// keep the bare language code. Only tracks with a known format are kept.
func ExtractCaptions(result map[string]any) models.MergedCaptions {
	merged := make(models.MergedCaptions)

	if automatic, ok := result[keyAutomaticCaptions].(map[string]any); ok {
		for lang, tracks := range NormalizeCaptions(automatic) {
			addKnown(merged, models.AutoCaptionPrefix+lang, tracks)
		}
	}

	if manual, ok := result[keySubtitles].(map[string]any); ok {
		for lang, tracks := range NormalizeCaptions(manual) {
			addKnown(merged, lang, tracks)
		}
	}

	return merged
}

func addKnown(merged models.MergedCaptions, key string, tracks []models.Caption) {
	for _, track := range tracks {
		if _, ok := track.Ext.Known(); !ok {
			continue
		}
		merged[key] = append(merged[key], track)
	}
}

// FilterPreferred keeps only the keys of captions listed in languages
func FilterPreferred(captions models.MergedCaptions, languages []string) models.MergedCaptions {
	preferred := make(models.MergedCaptions)
	for _, lang := range languages {
		if tracks, ok := captions[lang]; ok {
			preferred[lang] = tracks
		}
	}
	return preferred
}
