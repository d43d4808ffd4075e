package models

import (
	"encoding/json"
	"sort"
)

// CaptionExtension is a caption format the backend is known to produce
type CaptionExtension string

// CaptionExtension constants
const (
	CaptionJSON3 CaptionExtension = "json3"
	CaptionSRV1  CaptionExtension = "srv1"
	CaptionSRV2  CaptionExtension = "srv2"
	CaptionSRV3  CaptionExtension = "srv3"
	CaptionTTML  CaptionExtension = "ttml"
	CaptionVTT   CaptionExtension = "vtt"
	CaptionM3U8  CaptionExtension = "m3u8_native"
)

var knownCaptionExtensions = map[CaptionExtension]struct{}{
	CaptionJSON3: {},
	CaptionSRV1:  {},
	CaptionSRV2:  {},
	CaptionSRV3:  {},
	CaptionTTML:  {},
	CaptionVTT:   {},
	CaptionM3U8:  {},
}

// Valid reports whether e is one of the known caption extensions
func (e CaptionExtension) Valid() bool {
	_, ok := knownCaptionExtensions[e]
	return ok
}

// CaptionFormat is the format tag of a caption track. It holds either a known
// CaptionExtension or, for tags the backend added later, the raw string. The
// zero value means the backend reported no tag at all.
type CaptionFormat struct {
	known CaptionExtension
	raw   string
}

// ParseCaptionFormat classifies a backend format tag
func ParseCaptionFormat(tag string) CaptionFormat {
	if tag == "" {
		return CaptionFormat{}
	}
	if ext := CaptionExtension(tag); ext.Valid() {
		return CaptionFormat{known: ext}
	}
	return CaptionFormat{raw: tag}
}

// KnownFormat wraps a known extension
func KnownFormat(ext CaptionExtension) CaptionFormat {
	return CaptionFormat{known: ext}
}

// Known returns the extension when the tag is recognised
func (f CaptionFormat) Known() (CaptionExtension, bool) {
	return f.known, f.known != ""
}

// IsZero reports whether no tag was reported
func (f CaptionFormat) IsZero() bool {
	return f.known == "" && f.raw == ""
}

// String returns the tag as reported by the backend
func (f CaptionFormat) String() string {
	if f.known != "" {
		return string(f.known)
	}
	return f.raw
}

// MarshalJSON encodes the tag as a plain string, or null when absent
func (f CaptionFormat) MarshalJSON() ([]byte, error) {
	if f.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(f.String())
}

// UnmarshalJSON decodes a plain string tag
func (f *CaptionFormat) UnmarshalJSON(data []byte) error {
	var tag *string
	if err := json.Unmarshal(data, &tag); err != nil {
		return err
	}
	if tag == nil {
		*f = CaptionFormat{}
		return nil
	}
	*f = ParseCaptionFormat(*tag)
	return nil
}

// Caption is the metadata of one caption track for one language
type Caption struct {
	Ext   CaptionFormat `json:"ext"`
	URL   string        `json:"url"`
	Name  string        `json:"name"`
	Extra Metadata      `json:"extra,omitempty"`
}

// CaptionCatalog maps a language code to its caption tracks in backend order.
// A language is only present when it has at least one track.
type CaptionCatalog map[string][]Caption

// Languages returns the catalog's language codes in sorted order
func (c CaptionCatalog) Languages() []string {
	return sortedKeys(c)
}

// MergedCaptions maps a display key to caption tracks. Automatic captions use
// the AutoCaptionPrefix so they never collide with manual ones.
type MergedCaptions map[string][]Caption

// AutoCaptionPrefix marks machine generated caption keys in MergedCaptions
const AutoCaptionPrefix = "auto-"

// Keys returns the display keys in sorted order
func (m MergedCaptions) Keys() []string {
	return sortedKeys(m)
}

func sortedKeys[M ~map[string][]Caption](m M) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
