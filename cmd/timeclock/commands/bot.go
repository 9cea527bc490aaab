package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"timeclock/internal/bot"
)

func botCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bot",
		Short: "Run only the Discord bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			if !a.cfg.Discord.Enabled() {
				return fmt.Errorf("discord.token is not set")
			}
			discordBot, err := bot.New(a.cfg.Discord.Token, a.cfg.Discord.ClientID,
				a.engine, a.query, a.roster, a.clock, a.log)
			if err != nil {
				return err
			}
			if err := discordBot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		},
	}
}
