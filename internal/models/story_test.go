package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseStyle(t *testing.T) {
	for _, s := range AllStyles {
		got, err := ParseStyle(string(s))
		require.NoError(t, err)
		assert.Equal(t, s, got)
	}

	got, err := ParseStyle("  Fairy Tale ")
	require.NoError(t, err)
	assert.Equal(t, StyleFairyTale, got)

	_, err = ParseStyle("Horror")
	assert.Error(t, err)

	_, err = ParseStyle("comedy")
	assert.Error(t, err, "labels are case-sensitive")
}

func TestAllStyles_FixedSet(t *testing.T) {
	assert.Equal(t, []Style{"Comedy", "Thriller", "Fairy Tale", "Sci-Fi", "Mystery", "Adventure", "Morale"}, AllStyles)
}

func TestStyle_Heading(t *testing.T) {
	assert.Equal(t, "Your Sci-Fi Story:", StyleSciFi.Heading())
}

func TestExtractTitle(t *testing.T) {
	tests := []struct {
		name  string
		story string
		want  string
	}{
		{"plain first line", "The Lost Kite\n\nOnce upon a time...", "The Lost Kite"},
		{"markdown heading", "\n\n## **The Monsoon Market**\nRavi walked...", "The Monsoon Market"},
		{"title label", "Title: Chai at Dawn\nMeera woke...", "Chai at Dawn"},
		{"bold title label", "**Title: The Red Scooter**\n...", "The Red Scooter"},
		{"empty", "   \n  ", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractTitle(tt.story))
		})
	}
}

func TestUpload_HasAllowedExtension(t *testing.T) {
	assert.True(t, Upload{Filename: "a.PNG"}.HasAllowedExtension())
	assert.True(t, Upload{Filename: "b.jpeg"}.HasAllowedExtension())
	assert.True(t, Upload{Filename: "c.webp"}.HasAllowedExtension())
	assert.False(t, Upload{Filename: "d.gif"}.HasAllowedExtension())
	assert.False(t, Upload{Filename: "noext"}.HasAllowedExtension())
}

func TestAudio_ReaderStartsAtZero(t *testing.T) {
	audio := &Audio{Data: []byte("ID3-audio"), MIMEType: "audio/mpeg"}

	r := audio.Reader()
	first := make([]byte, 3)
	_, err := r.Read(first)
	require.NoError(t, err)

	// a second reader is independent of the first one's cursor
	r2 := audio.Reader()
	assert.Equal(t, int64(len(audio.Data)), r2.Size())
	assert.Equal(t, len(audio.Data), r2.Len())
	assert.Equal(t, 9, audio.Size())
	assert.Equal(t, "data:audio/mpeg;base64,SUQzLWF1ZGlv", audio.DataURL())
}
