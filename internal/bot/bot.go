package bot

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/rs/zerolog"

	"timeclock/internal/attendance"
	"timeclock/internal/clock"
	"timeclock/internal/roster"
)

// Engine is the session state machine.
type Engine interface {
	CheckIn(ctx context.Context, employeeID int64) (int64, error)
	CheckOut(ctx context.Context, employeeID int64) (attendance.Session, error)
}

// Query is the role-scoped history service.
type Query interface {
	ListSessions(ctx context.Context, req attendance.Requester, f attendance.Filter) ([]attendance.View, error)
	ListOpen(ctx context.Context, req attendance.Requester) ([]attendance.View, error)
}

// Roster resolves Discord accounts to employees.
type Roster interface {
	ByDiscordID(ctx context.Context, discordID string) (*roster.Employee, error)
	List(ctx context.Context) ([]*roster.Employee, error)
}

type Bot struct {
	clientID string
	session  *discordgo.Session
	engine   Engine
	query    Query
	roster   Roster
	clock    clock.Clock
	log      zerolog.Logger

	shutdownCh chan struct{}
	isShutdown bool
	mu         sync.Mutex
	wg         sync.WaitGroup
}

func New(token, clientID string, engine Engine, query Query, rosterSvc Roster, clk clock.Clock, logger zerolog.Logger) (*Bot, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating Discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	return &Bot{
		clientID:   clientID,
		session:    session,
		engine:     engine,
		query:      query,
		roster:     rosterSvc,
		clock:      clk,
		log:        logger.With().Str("component", "bot").Logger(),
		shutdownCh: make(chan struct{}),
	}, nil
}

// registerGuildCommands replaces the guild's slash commands, retrying a few
// times since Discord rate limits bursts on startup.
func (b *Bot) registerGuildCommands(ctx context.Context, guildID string) error {
	const maxRetries = 3
	var lastErr error

	for i := 0; i < maxRetries; i++ {
		err := b.registerGuildCommandsOnce(guildID)
		if err == nil {
			return nil
		}
		lastErr = err
		b.log.Warn().Err(err).Str("guild_id", guildID).Int("attempt", i+1).Msg("command registration failed")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(time.Second * time.Duration(i+1)):
		}
	}
	return fmt.Errorf("failed to register commands after %d attempts: %w", maxRetries, lastErr)
}

func (b *Bot) registerGuildCommandsOnce(guildID string) error {
	registered, err := b.session.ApplicationCommandBulkOverwrite(b.clientID, guildID, commands)
	if err != nil {
		return fmt.Errorf("error overwriting commands: %w", err)
	}
	for _, c := range registered {
		b.log.Debug().Str("guild_id", guildID).Str("command", c.Name).Msg("command registered")
	}
	return nil
}

// Start connects to the gateway and serves interactions until ctx is done.
func (b *Bot) Start(ctx context.Context) error {
	b.log.Info().Msg("starting Discord bot")

	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		b.log.Info().Int("guilds", len(r.Guilds)).Msg("bot is ready")
	})
	b.session.AddHandler(func(s *discordgo.Session, i *discordgo.InteractionCreate) {
		switch i.Type {
		case discordgo.InteractionApplicationCommand:
			b.handleCommand(s, i)
		case discordgo.InteractionApplicationCommandAutocomplete:
			b.handleAutocomplete(s, i)
		}
	})
	b.session.AddHandler(func(s *discordgo.Session, g *discordgo.GuildCreate) {
		if err := b.registerGuildCommands(ctx, g.ID); err != nil {
			b.log.Error().Err(err).Str("guild_id", g.ID).Str("guild", g.Name).Msg("error registering commands")
		}
	})

	for {
		err := b.session.Open()
		if err == nil {
			break
		}
		b.log.Error().Err(err).Msg("error opening Discord session, retrying in 5 seconds")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(5 * time.Second):
		}
	}
	b.log.Info().Str("session_id", b.session.State.SessionID).Msg("session opened")

	<-ctx.Done()
	return b.Shutdown()
}

// Shutdown waits for in-flight interactions and closes the gateway session.
// Registered commands are left in place so they survive restarts.
func (b *Bot) Shutdown() error {
	b.mu.Lock()
	if b.isShutdown {
		b.mu.Unlock()
		return nil
	}
	b.isShutdown = true
	close(b.shutdownCh)
	b.mu.Unlock()

	b.log.Info().Msg("waiting for active handlers to complete")
	b.wg.Wait()

	if err := b.session.Close(); err != nil {
		return fmt.Errorf("error closing Discord session: %w", err)
	}
	b.log.Info().Msg("Discord bot stopped")
	return nil
}

func (b *Bot) handleCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	b.mu.Lock()
	if b.isShutdown {
		b.mu.Unlock()
		return
	}
	b.wg.Add(1)
	b.mu.Unlock()
	defer b.wg.Done()

	discordID := userID(i)
	name := i.ApplicationCommandData().Name
	logger := b.log.With().Str("guild_id", i.GuildID).Str("discord_id", discordID).Str("command", name).Logger()

	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			logger.Error().Interface("panic", r).Str("stack", string(buf[:n])).Msg("panic in command handler")
			b.editResponse(s, i, reply{Text: "Error: an internal error occurred"})
		}
	}()

	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
	if err != nil {
		logger.Error().Err(err).Msg("error acknowledging interaction")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ctx = logger.WithContext(ctx)

	out, err := b.dispatch(ctx, name, discordID, optionsOf(i.ApplicationCommandData().Options))
	if err != nil {
		out = reply{Text: "Error: " + userMessage(ctx, err)}
	}
	logger.Info().Bool("ok", err == nil).Msg("command handled")
	b.editResponse(s, i, out)
}

func (b *Bot) dispatch(ctx context.Context, name, discordID string, opts options) (reply, error) {
	switch name {
	case "checkin":
		return b.checkIn(ctx, discordID)
	case "checkout":
		return b.checkOut(ctx, discordID)
	case "history":
		return b.history(ctx, discordID, opts)
	case "status":
		return b.status(ctx, discordID)
	}
	return reply{}, fmt.Errorf("%w: /%s", errUnknownCommand, name)
}

func (b *Bot) handleAutocomplete(s *discordgo.Session, i *discordgo.InteractionCreate) {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	var input string
	for _, opt := range i.ApplicationCommandData().Options {
		if opt.Name == "employee" && opt.Focused {
			input = opt.StringValue()
		}
	}

	choices, err := b.employeeChoices(ctx, userID(i), input)
	if err != nil {
		b.log.Error().Err(err).Msg("error building employee choices")
	}

	err = s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionApplicationCommandAutocompleteResult,
		Data: &discordgo.InteractionResponseData{
			Choices: choices,
		},
	})
	if err != nil {
		b.log.Error().Err(err).Msg("error responding to autocomplete")
	}
}
