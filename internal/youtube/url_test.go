package youtube

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const sampleVideoID = "dQw4w9WgXcQ"

func TestIsValidURL(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want bool
	}{
		{"watch", "https://www.youtube.com/watch?v=" + sampleVideoID, true},
		{"short link", "https://youtu.be/" + sampleVideoID, true},
		{"short link with share param", "https://youtu.be/" + sampleVideoID + "?si=abc", true},
		{"embed", "https://www.youtube.com/embed/" + sampleVideoID, true},
		{"no cookie embed", "http://www.youtube-nocookie.com/embed/" + sampleVideoID + "?rel=0", true},
		{"shorts", "https://www.youtube.com/shorts/" + sampleVideoID, true},
		{"live", "https://www.youtube.com/live/" + sampleVideoID, true},
		{"v path", "https://www.youtube.com/v/" + sampleVideoID + "?version=3", true},
		{"e path", "https://www.youtube.com/e/" + sampleVideoID, true},
		{"mobile", "https://m.youtube.com/watch?v=" + sampleVideoID, true},
		{"upper case host", "https://WWW.YOUTUBE.COM/watch?v=" + sampleVideoID, true},
		{"double slash", "https://www.youtube.com//watch?v=123", true},
		{"direct watch path", "https://www.youtube.com/watch/123", true},
		{"multiple v params", "https://www.youtube.com/watch?v=123&v=456", true},
		{"time fragment", "https://www.youtube.com/watch?v=123#t=10s", true},
		{"playlist params", "https://www.youtube.com/watch?v=123&list=PL123&index=1", true},
		{"hyphen", "https://www.youtube.com/watch?v=abc-123", true},
		{"underscore", "https://www.youtube.com/watch?v=abc_123", true},
		{"period", "https://www.youtube.com/watch?v=abc.123", true},
		{"escaped byte", "https://www.youtube.com/watch?v=abc%123", true},
		{"ampersand split", "https://www.youtube.com/watch?v=abc&123", true},

		{"empty", "", false},
		{"not a url", "not_a_url", false},
		{"number", "123", false},
		{"missing id", "https://www.youtube.com/watch?v=", false},
		{"missing id with params", "https://www.youtube.com/watch?v=&feature=share", false},
		{"watch without v", "https://www.youtube.com/watch?app=desktop", false},
		{"root path", "https://www.youtube.com/", false},
		{"no path", "https://youtube.com", false},
		{"short link without id", "https://youtu.be/", false},
		{"unknown path", "https://youtube.com/invalidpath", false},
		{"embed without id", "https://www.youtube.com/embed/", false},
		{"thumbnail host", "http://ytimg.com/vi/abc123/0.jpg", false},
		{"thumbnail subdomain", "https://i.ytimg.com/vi/" + sampleVideoID + "/hqdefault.jpg", false},
		{"other domain", "http://notyoutube.com/watch?v=123", false},
		{"lookalike domain", "https://youtube.com.evil.example/watch?v=123", false},
		{"malformed", "http://[::1", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsValidURL(tt.url))
		})
	}
}

func TestBaseDomain(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"www.youtube.com", "youtube.com"},
		{"m.youtube.com", "youtube.com"},
		{"www.m.youtube.com", "youtube.com"},
		{"YouTu.Be", "youtu.be"},
		{"music.youtube.com", "music.youtube.com"},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			assert.Equal(t, tt.want, baseDomain(tt.host))
		})
	}
}

func TestPathSegments(t *testing.T) {
	assert.Equal(t, []string{"watch", "123"}, pathSegments("//watch/123/"))
	assert.Empty(t, pathSegments("/"))
	assert.Empty(t, pathSegments(""))
}
