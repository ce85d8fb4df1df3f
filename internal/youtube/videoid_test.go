package youtube

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractVideoID(t *testing.T) {
	const id = "dQw4w9WgXcQ"

	valid := []string{
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtube.com/watch?v=dQw4w9WgXcQ",
		"http://m.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQ&t=120",
		"https://www.youtube.com/watch?feature=share&v=dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ",
		"https://youtu.be/dQw4w9WgXcQ?si=Xy12ab&t=42",
		"youtu.be/dQw4w9WgXcQ",
		"https://www.youtube.com/embed/dQw4w9WgXcQ",
		"https://www.youtube.com/shorts/dQw4w9WgXcQ",
		"youtube.com/shorts/dQw4w9WgXcQ?feature=share",
		"https://youtube.com/v/dQw4w9WgXcQ",
		"www.youtube.com/watch?v=dQw4w9WgXcQ",
		"  https://www.youtube.com/watch?v=dQw4w9WgXcQ  ",
	}
	for _, in := range valid {
		got, ok := ExtractVideoID(in)
		assert.True(t, ok, "expected match for %q", in)
		assert.Equal(t, id, got, "input %q", in)
	}
}

func TestExtractVideoIDRejects(t *testing.T) {
	invalid := []string{
		"",
		"   ",
		"not a url",
		"https://google.com",
		"https://vimeo.com/123456789",
		"https://www.youtube.com/watch?v=abc",
		"https://youtu.be/abc",
		"https://www.youtube.com/watch",
		"https://www.youtube.com/channel/UCuAXFkgsw1L7xaCfnd5JJOw",
		"https://notyoutube.com/watch?v=dQw4w9WgXcQ",
		"https://youtube.com.evil.example/watch?v=dQw4w9WgXcQ",
		"https://example.com/v/dQw4w9WgXcQ",
		"https://www.youtube.com/watch?v=dQw4w9WgXcQextra",
	}
	for _, in := range invalid {
		got, ok := ExtractVideoID(in)
		assert.False(t, ok, "expected no match for %q, got %q", in, got)
		assert.Empty(t, got)
	}
}

func TestExtractVideoIDFallsBackForUnparsableInput(t *testing.T) {
	for _, in := range []string{
		"https://www.youtube.com /watch?v=dQw4w9WgXcQ",
		"https://www.youtube.com /embed/dQw4w9WgXcQ",
		"Watch: https://www.youtube.com/watch?v=dQw4w9WgXcQ",
		"https://youtu.be /dQw4w9WgXcQ",
		"Watch: https://youtu.be/dQw4w9WgXcQ",
		"Watch: youtu.be/dQw4w9WgXcQ?t=42",
	} {
		got, ok := ExtractVideoID(in)
		assert.True(t, ok, in)
		assert.Equal(t, "dQw4w9WgXcQ", got, in)
	}

	for _, in := range []string{
		"https://www.vimeo.com /watch?v=dQw4w9WgXcQ",
		"Watch: https://youtu.be/abc",
		"Watch: https://notyoutu.be/dQw4w9WgXcQ",
	} {
		_, ok := ExtractVideoID(in)
		assert.False(t, ok, in)
	}
}

func TestIsValidURL(t *testing.T) {
	assert.True(t, IsValidURL("https://www.youtube.com/watch?v=dQw4w9WgXcQ"))
	assert.True(t, IsValidURL("https://youtu.be/dQw4w9WgXcQ"))
	assert.True(t, IsValidURL("https://youtube.com/shorts/dQw4w9WgXcQ"))
	assert.False(t, IsValidURL("https://google.com"))
	assert.False(t, IsValidURL(""))
	assert.False(t, IsValidURL("not a url"))
}

func TestNormalizeURL(t *testing.T) {
	got, ok := NormalizeURL("https://youtu.be/dQw4w9WgXcQ")
	assert.True(t, ok)
	assert.Equal(t, "https://www.youtube.com/watch?v=dQw4w9WgXcQ", got)

	_, ok = NormalizeURL("https://google.com")
	assert.False(t, ok)
}
