package ui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"ahadchat/server/model"
)

const adminBadge = " 👑"

// authorLabel is "You" for own messages, otherwise the display name with a
// badge for admins.
func authorLabel(e model.Entry) string {
	if e.Own {
		return "You"
	}
	name := e.DisplayName
	if name == "" {
		name = e.Username
	}
	if e.Admin {
		name += adminBadge
	}
	return name
}

func renderMessages(entries []model.Entry, width int) string {
	if len(entries) == 0 {
		return timeStyle.Render("No messages yet. Start the conversation!")
	}

	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n")
		}
		nameStyle := otherNameStyle
		if e.Own {
			nameStyle = ownNameStyle
		}
		line := timeStyle.Render(e.Timestamp) + " " + nameStyle.Render(authorLabel(e)) + " " + textStyle.Render(e.Text)
		if width > 0 {
			line = lipgloss.NewStyle().Width(width).Render(line)
		}
		b.WriteString(line)
	}
	return b.String()
}

func renderStatus(v model.View, live string) string {
	parts := []string{fmt.Sprintf("%d messages", v.Total)}
	if v.Shown < v.Total {
		parts[0] += fmt.Sprintf(" (showing last %d)", v.Shown)
	}
	if v.StoreUnavailable {
		parts = append(parts, "store unavailable")
	}
	if v.RefreshedAt != "" {
		parts = append(parts, "updated "+v.RefreshedAt)
	}
	if live != "" {
		parts = append(parts, live)
	}
	return strings.Join(parts, " · ")
}

func formatStats(st model.Stats) string {
	ids := make([]string, 0, len(st.PerUser))
	for id := range st.PerUser {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	per := make([]string, 0, len(ids))
	for _, id := range ids {
		per = append(per, fmt.Sprintf("%s %d", id, st.PerUser[id]))
	}

	s := fmt.Sprintf("%d messages (%s), %.2f KB", st.Total, strings.Join(per, ", "), st.SizeKB)
	if st.FirstMessage != "" {
		s += fmt.Sprintf(", %s to %s", st.FirstMessage, st.LastMessage)
	}
	switch st.Level {
	case model.LevelCritical:
		s += " - storage critical, clean up old messages"
	case model.LevelWarning:
		s += " - storage getting large"
	}
	return s
}
