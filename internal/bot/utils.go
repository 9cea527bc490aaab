package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"timeclock/internal/attendance"
)

type options map[string]string

func optionsOf(opts []*discordgo.ApplicationCommandInteractionDataOption) options {
	out := make(options, len(opts))
	for _, opt := range opts {
		if opt.Type == discordgo.ApplicationCommandOptionString {
			out[opt.Name] = strings.TrimSpace(opt.StringValue())
		}
	}
	return out
}

// userID returns the caller's Discord id in both guild and DM contexts.
func userID(i *discordgo.InteractionCreate) string {
	if i.Member != nil && i.Member.User != nil {
		return i.Member.User.ID
	}
	if i.User != nil {
		return i.User.ID
	}
	return ""
}

// userMessage is the text shown to the caller for err. Storage failures
// are logged and reported generically.
func userMessage(ctx context.Context, err error) string {
	var ae *attendance.Error
	switch {
	case errors.Is(err, errNotLinked):
		return "your Discord account is not linked to an employee, ask an admin to link it"
	case errors.Is(err, errUnknownCommand):
		return "unknown command"
	case errors.As(err, &ae) && ae.Kind != attendance.KindStorage:
		return ae.Message
	}
	zerolog.Ctx(ctx).Error().Err(err).Msg("command failed")
	return "an internal error occurred"
}

func (b *Bot) editResponse(s *discordgo.Session, i *discordgo.InteractionCreate, r reply) {
	if _, err := s.InteractionResponseEdit(i.Interaction, &discordgo.WebhookEdit{
		Content: &r.Text,
		Files:   r.Files,
	}); err != nil {
		b.log.Error().Err(err).Msg("error editing interaction response")
	}
}

func truncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

// formatTable creates a Discord-friendly table with fixed-width columns
func formatTable(headers []string, rows [][]string) string {
	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = len(header)
	}
	for _, row := range rows {
		for i, cell := range row {
			if len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	var result strings.Builder
	result.WriteString("```\n")
	writeRow := func(cells []string) {
		for i, cell := range cells {
			if i == len(cells)-1 {
				result.WriteString(cell)
				continue
			}
			result.WriteString(fmt.Sprintf("%-*s", widths[i]+2, cell))
		}
		result.WriteString("\n")
	}

	writeRow(headers)
	for i, width := range widths {
		n := width + 2
		if i == len(widths)-1 {
			n = width
		}
		result.WriteString(strings.Repeat("-", n))
	}
	result.WriteString("\n")
	for _, row := range rows {
		writeRow(row)
	}
	result.WriteString("```")
	return result.String()
}
