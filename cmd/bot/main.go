package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"github.com/vnxcius/aternos-bot/internal/config"
	"github.com/vnxcius/aternos-bot/internal/database/controllers"
	"github.com/vnxcius/aternos-bot/internal/database/pg"
	"github.com/vnxcius/aternos-bot/internal/discord"
	"github.com/vnxcius/aternos-bot/internal/discord/commands"
	"github.com/vnxcius/aternos-bot/internal/discord/events"
	"github.com/vnxcius/aternos-bot/internal/http/handlers"
	"github.com/vnxcius/aternos-bot/internal/http/router"
	"github.com/vnxcius/aternos-bot/internal/logging"
	"github.com/vnxcius/aternos-bot/internal/monitor"
	"github.com/vnxcius/aternos-bot/internal/panel"
	"github.com/vnxcius/aternos-bot/internal/research"
	"github.com/vnxcius/aternos-bot/internal/token"
	"github.com/vnxcius/aternos-bot/internal/util"
	"github.com/vnxcius/aternos-bot/internal/ws"
)

const shutdownTimeout = 10 * time.Second

var envFile string

var rootCmd = &cobra.Command{
	Use:          "aternos-bot",
	Short:        "Discord bot that watches Aternos servers and reports status changes",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(envFile)
	},
}

var hashPasswordCmd = &cobra.Command{
	Use:   "hash-password <password>",
	Short: "Print a bcrypt hash for API_PASSWORD_HASH",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		hash, err := util.HashPassword(args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), hash)
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVar(&envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	rootCmd.AddCommand(hashPasswordCmd)
}

func run(envFile string) error {
	cfg, err := config.Load(envFile)
	if err != nil {
		return fmt.Errorf("bot configuration error: %w", err)
	}

	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	logger, logFile, err := logging.SetupLogger(cfg.LogDir, cfg.LogLevel, loc)
	if err != nil {
		return fmt.Errorf("set up logger: %w", err)
	}
	defer logFile.Close()

	logger.Info("Loaded environment", "environment", cfg.Environment, "log_file", logFile.Path())
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changelog, err := logging.NewStatusChangelog(filepath.Join(cfg.LogDir, "status-changelog"), loc)
	if err != nil {
		return fmt.Errorf("open status changelog: %w", err)
	}
	defer changelog.Close()

	svc := panel.NewService(logger, cfg.AternosUsername, cfg.AternosPassword)

	registry := commands.NewRegistry(logger, cfg.DeveloperUserIDs)
	researchCfg := research.Config{
		URL:            cfg.ResearchURL,
		Headless:       cfg.ResearchHeadless,
		ScreenshotPath: cfg.ResearchScreenshot,
		Username:       cfg.AternosUsername,
		Password:       cfg.AternosPassword,
	}
	err = registry.Register(
		commands.Ping(),
		commands.ServerStatus(svc),
		commands.Research(commands.ResearcherFunc(func(ctx context.Context) (research.Report, error) {
			return research.NewSession(logger, researchCfg).Run(ctx)
		})),
	)
	if err != nil {
		logger.Warn("Some commands were not registered", "error", err)
	}

	bot, err := discord.New(logger, cfg.BotToken, registry, discord.Options{
		GuildID:        cfg.GuildID,
		RemoveCommands: cfg.RemoveCommandsOnExit,
	})
	if err != nil {
		return err
	}

	hub := ws.NewHub(ctx, logger, svc.CachedServers, cfg.AllowedOrigins)
	recorders := []monitor.Recorder{changelog, hub}

	var history handlers.History
	if cfg.PostgresDSN != "" {
		db, err := pg.NewConnection(logger, pg.Options{
			DSN:             cfg.PostgresDSN,
			MaxIdleConns:    cfg.DBMaxIdleConns,
			MaxOpenConns:    cfg.DBMaxOpenConns,
			ConnMaxLifetime: cfg.DBConnMaxLifetime,
			LogMode:         cfg.DBLogMode,
		})
		if err != nil {
			return err
		}
		defer pg.Close(db)

		store := controllers.NewTransitions(db)
		if err := store.Migrate(); err != nil {
			return fmt.Errorf("migrate history store: %w", err)
		}
		recorders = append(recorders, store)
		history = store
	}

	notifier := discord.NewChannelNotifier(logger, bot.Session(), cfg.NotificationChannelID)
	mon := monitor.New(logger, svc, notifier, monitor.Options{
		IntervalMinutes:     cfg.CheckIntervalMinutes,
		DailyReportSchedule: cfg.DailyReportSchedule,
		InitialDelay:        cfg.InitialCheckDelay,
		Location:            loc,
		Recorders:           recorders,
	})
	bot.AddEvents(events.Ready(logger, mon))

	if err := bot.Open(); err != nil {
		return fmt.Errorf("failed to start bot: %w", err)
	}

	var tokens *token.JWTMaker
	if cfg.JWTSecret != "" {
		tokens = token.NewJWTMaker(cfg.JWTSecret)
	}
	h := handlers.New(handlers.Deps{
		Log:          logger,
		Panel:        svc,
		Monitor:      mon,
		Changelog:    changelog,
		History:      history,
		Hub:          hub,
		Tokens:       tokens,
		PasswordHash: cfg.APIPasswordHash,
		StaleAfter:   cfg.PanelStaleAfter,
	})
	engine, err := router.New(ctx, logger, h, router.Options{
		AllowedOrigins: cfg.AllowedOrigins,
		Tokens:         tokens,
		BotToken:       cfg.BotToken,
	})
	if err != nil {
		_ = bot.Close()
		return err
	}

	srv := router.NewServer(cfg.Port, engine)
	go func() {
		logger.Info("Starting server on port " + cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("HTTP server stopped", "error", err)
		}
	}()

	logger.Info("Bot is now running. Press CTRL-C to exit.")
	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sc
	logger.Info("Shutting down...", "signal", sig.String())

	shutdown(logger, mon, srv, hub, bot)
	return nil
}

func shutdown(logger *slog.Logger, mon *monitor.Monitor, srv *http.Server, hub *ws.Hub, bot *discord.Bot) {
	mon.Stop()

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("HTTP server shutdown failed", "error", err)
	}

	hub.Close()

	if err := bot.Close(); err != nil {
		logger.Error("Failed to close bot", "error", err)
	}
	logger.Info("Shutdown complete")
}

func main() {
	cobra.CheckErr(rootCmd.Execute())
}
