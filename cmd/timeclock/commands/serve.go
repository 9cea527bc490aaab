package commands

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"timeclock/internal/bot"
	"timeclock/internal/httpapi"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var withBot bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API, and the Discord bot when configured",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()
			displayAppname(cmd.OutOrStdout(), "timeclock")

			api := httpapi.New(a.engine, a.query, a.roster, a.tokens, a.feed, a.log)
			srv := &http.Server{
				Addr:         a.cfg.Server.Addr,
				Handler:      api,
				ReadTimeout:  a.cfg.Server.ReadTimeout,
				WriteTimeout: a.cfg.Server.WriteTimeout,
			}

			var discordBot *bot.Bot
			if withBot && a.cfg.Discord.Enabled() {
				discordBot, err = bot.New(a.cfg.Discord.Token, a.cfg.Discord.ClientID,
					a.engine, a.query, a.roster, a.clock, a.log)
				if err != nil {
					return err
				}
			}

			g, ctx := errgroup.WithContext(ctx)
			g.Go(func() error {
				a.log.Info().Str("addr", srv.Addr).Msg("HTTP server listening")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				a.log.Info().Msg("shutting down HTTP server")
				api.Close()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
				defer cancel()
				return srv.Shutdown(shutdownCtx)
			})

			if discordBot != nil {
				g.Go(func() error {
					err := discordBot.Start(ctx)
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				})
			}

			err = g.Wait()
			a.log.Info().Msg("shutdown complete")
			return err
		},
	}

	cmd.Flags().BoolVar(&withBot, "with-bot", true, "also run the Discord bot when discord.token is set")
	return cmd
}
