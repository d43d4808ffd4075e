package youtube

import (
	"fmt"
	"sort"
	"strings"
)

// Options are extraction options passed through to the backend. Keys follow
// the yt-dlp option names.
type Options map[string]any

// Recognised option keys
const (
	OptFormat            = "format"
	OptQuiet             = "quiet"
	OptNoWarnings        = "no_warnings"
	OptExtractFlat       = "extract_flat"
	OptIgnoreErrors      = "ignoreerrors"
	OptWriteSubtitles    = "writesubtitles"
	OptWriteAutoSubs     = "writeautomaticsub"
	OptSubtitleLanguages = "subtitleslangs"
	OptSkipDownload      = "skip_download"
	OptCookieFile        = "cookiefile"
)

// DefaultOptions returns the options every Client starts from
func DefaultOptions() Options {
	return Options{
		OptFormat:       "best",
		OptQuiet:        true,
		OptNoWarnings:   true,
		OptExtractFlat:  false,
		OptIgnoreErrors: false,
	}
}

// Merge returns a copy of o with every key of override applied on top
func (o Options) Merge(override Options) Options {
	out := make(Options, len(o)+len(override))
	for k, v := range o {
		out[k] = v
	}
	for k, v := range override {
		out[k] = v
	}
	return out
}

// requestOptionKeys are the options a lookup request may set. Everything
// else, in particular OptCookieFile, stays under server configuration.
var requestOptionKeys = map[string]struct{}{
	OptFormat:            {},
	OptSubtitleLanguages: {},
	OptWriteSubtitles:    {},
	OptWriteAutoSubs:     {},
	OptSkipDownload:      {},
}

// RequestOptions returns the subset of opts a caller may set per request
// together with the sorted keys that were dropped.
func RequestOptions(opts map[string]any) (Options, []string) {
	allowed := make(Options, len(opts))
	var rejected []string
	for k, v := range opts {
		if _, ok := requestOptionKeys[k]; ok {
			allowed[k] = v
			continue
		}
		rejected = append(rejected, k)
	}
	sort.Strings(rejected)
	return allowed, rejected
}

// captionOptions turns on subtitle discovery without fetching media.
func captionOptions() Options {
	return Options{
		OptSkipDownload:   true,
		OptWriteSubtitles: true,
		OptWriteAutoSubs:  true,
	}
}

// Args converts the options into yt-dlp command line flags. Boolean options
// that are false and keys yt-dlp has no flag for are left out.
func (o Options) Args() []string {
	keys := make([]string, 0, len(o))
	for k := range o {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var args []string
	for _, k := range keys {
		v := o[k]
		switch k {
		case OptFormat:
			if s := toString(v); s != "" {
				args = append(args, "-f", s)
			}
		case OptCookieFile:
			if s := toString(v); s != "" {
				args = append(args, "--cookies", s)
			}
		case OptSubtitleLanguages:
			if langs := toStringSlice(v); len(langs) > 0 {
				args = append(args, "--sub-langs", strings.Join(langs, ","))
			}
		default:
			if flag, ok := boolFlags[k]; ok && toBool(v) {
				args = append(args, flag)
			}
		}
	}
	return args
}

var boolFlags = map[string]string{
	OptQuiet:          "--quiet",
	OptNoWarnings:     "--no-warnings",
	OptExtractFlat:    "--flat-playlist",
	OptIgnoreErrors:   "--ignore-errors",
	OptWriteSubtitles: "--write-subs",
	OptWriteAutoSubs:  "--write-auto-subs",
	OptSkipDownload:   "--skip-download",
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	default:
		return fmt.Sprint(t)
	}
}

func toBool(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true" || t == "1" || t == "yes"
	default:
		return false
	}
}

func toStringSlice(v any) []string {
	switch t := v.(type) {
	case []string:
		return t
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := toString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if t == "" {
			return nil
		}
		return strings.Split(t, ",")
	default:
		return nil
	}
}
