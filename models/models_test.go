package models

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeDisplayName(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"trimmed", "  alice  ", "alice"},
		{"empty falls back", "   ", DefaultDisplayName},
		{"truncated", strings.Repeat("ş", 40), strings.Repeat("ş", MaxDisplayNameLength)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeDisplayName(tt.in))
		})
	}
}

func TestCreatePlaylistRequest_Validate(t *testing.T) {
	tests := []struct {
		name    string
		req     CreatePlaylistRequest
		wantErr bool
	}{
		{"valid", CreatePlaylistRequest{Name: " Late night ", TrackIDs: []int64{1, 2, 2}}, false},
		{"empty name", CreatePlaylistRequest{Name: "  "}, true},
		{"bad id", CreatePlaylistRequest{Name: "x", TrackIDs: []int64{0}}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.req.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTrackFileHelpers(t *testing.T) {
	assert.True(t, IsAudioFile("/media/a.M4A"))
	assert.False(t, IsAudioFile("/media/cover.jpg"))
	assert.Equal(t, "miles davis-so what", TitleFromFilename("/media/miles_davis-so_what.m4a"))
}
