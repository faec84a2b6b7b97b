package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ahadchat/server/model"
)

func TestParseCommand(t *testing.T) {
	tests := []struct {
		line    string
		want    command
		wantErr bool
	}{
		{line: "/stats", want: command{name: "stats"}},
		{line: "  /CLEAR ", want: command{name: "clear"}},
		{line: "/keep 100", want: command{name: "keep", keep: 100}},
		{line: "/export", want: command{name: "export"}},
		{line: "/export /tmp/out.json", want: command{name: "export", path: "/tmp/out.json"}},
		{line: "/help", want: command{name: "help"}},
		{line: "/keep", wantErr: true},
		{line: "/keep lots", wantErr: true},
		{line: "/stats now", wantErr: true},
		{line: "/export a b", wantErr: true},
		{line: "/", wantErr: true},
		{line: "/dance", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.line, func(t *testing.T) {
			got, err := parseCommand(tt.line)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestAuthorLabel(t *testing.T) {
	assert.Equal(t, "You", authorLabel(model.Entry{Username: "ahad", DisplayName: "Ahad", Own: true, Admin: true}))
	assert.Equal(t, "Khizar"+adminBadge, authorLabel(model.Entry{Username: "khizar", DisplayName: "Khizar", Admin: true}))
	assert.Equal(t, "ghost", authorLabel(model.Entry{Username: "ghost"}))
}

func TestRenderStatus(t *testing.T) {
	v := model.View{Total: 60, Shown: 50, StoreUnavailable: true, RefreshedAt: "2025-03-14 09:00:00"}
	s := renderStatus(v, "live: 3 frames")
	assert.Contains(t, s, "60 messages (showing last 50)")
	assert.Contains(t, s, "store unavailable")
	assert.Contains(t, s, "updated 2025-03-14 09:00:00")
	assert.Contains(t, s, "live: 3 frames")
}

func TestRenderMessages_Empty(t *testing.T) {
	assert.Contains(t, renderMessages(nil, 40), "No messages yet")
}

func TestFormatStats(t *testing.T) {
	st := model.Stats{
		Total:        3,
		PerUser:      map[string]int{"khizar": 1, "ahad": 2},
		SizeKB:       0.25,
		FirstMessage: "2025-03-14 09:00:00",
		LastMessage:  "2025-03-14 09:02:00",
		Level:        model.LevelWarning,
	}
	s := formatStats(st)
	assert.Equal(t, "3 messages (ahad 2, khizar 1), 0.25 KB, 2025-03-14 09:00:00 to 2025-03-14 09:02:00 - storage getting large", s)
}
