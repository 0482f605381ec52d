package main

import (
	"context"
	"errors"
	"log"
	"os"
	"time"

	"go-careerwatch/internal/browser"
	"go-careerwatch/internal/config"
	"go-careerwatch/internal/notify"
	"go-careerwatch/internal/runlog"
	"go-careerwatch/internal/scraper"
	"go-careerwatch/internal/scraper/amazon"
	"go-careerwatch/internal/scraper/microsoft"
	"go-careerwatch/internal/state"
	"go-careerwatch/internal/telegram"
	"go-careerwatch/internal/watcher"

	"github.com/spf13/cobra"
)

// Version is set via ldflags at build time.
var Version = "dev"

const (
	exitOK = iota
	exitFetch
	exitConfig
	exitStorage
)

// exitError carries the status for failures that have no typed error of their own.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func main() {
	if err := newRootCmd().Execute(); err != nil {
		log.Printf("❌ %v", err)
		os.Exit(exitCode(err))
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "careerwatch",
		Short:         "Email new job postings from company careers pages",
		Long:          "careerwatch scrapes the Microsoft and Amazon careers sites once, compares the postings with the ones already seen, and emails the new ones.",
		Version:       Version,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath)
		},
	}

	defaultPath := os.Getenv("CAREERWATCH_CONFIG")
	if defaultPath == "" {
		defaultPath = config.DefaultConfigPath
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", defaultPath, "path to the YAML config (env CAREERWATCH_CONFIG)")

	return cmd
}

func run(parent context.Context, configPath string) error {
	//load config
	cfg, err := config.Load(configPath)
	if err != nil {
		return &exitError{code: exitConfig, err: err}
	}
	log.Printf("🔧 Config loaded. Role: %q, state: %s", cfg.Role, cfg.State.Backend)

	//whole run is bounded, safety net only
	ctx, cancel := context.WithTimeout(parent, cfg.RunTimeout.Duration)
	defer cancel()

	log.Println("🚀 Starting careerwatch...")

	store, err := state.Open(ctx, cfg.State)
	if err != nil {
		return err
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Printf("⚠️ Failed to close state store: %v", err)
		}
	}()

	//init playwright manager, browser starts on first page
	pwManager, err := browser.NewPlaywright(cfg.IsHeadless())
	if err != nil {
		return &scraper.FetchError{Source: "playwright", Err: err}
	}
	defer func() {
		if err := pwManager.Close(); err != nil {
			log.Printf("⚠️ Failed to close Playwright: %v", err)
		}
	}()

	w := watcher.New(buildFetcher(cfg, pwManager), store, buildNotifier(cfg), cfg.Email.Recipient)

	res, err := w.Run(ctx)
	if err != nil {
		return err
	}

	if cfg.RunLogDir != "" {
		if _, err := runlog.Append(cfg.RunLogDir, res.RunID.String(), time.Now(), res.New); err != nil {
			log.Printf("⚠️ Failed to write run log: %v", err)
		}
	}

	status := "sent"
	switch {
	case res.NotifyErr != nil:
		status = "failed"
	case !res.Notified:
		status = "skipped"
	}
	log.Printf("🏁 Execution finished. fetched=%d new=%d notification=%s seen=%d", res.Fetched, len(res.New), status, res.Seen)
	return nil
}

func buildFetcher(cfg *config.Config, opener browser.Opener) *scraper.Multi {
	var entries []scraper.Entry
	if config.Enabled(cfg.Sources.Microsoft.Enabled) {
		entries = append(entries, scraper.Entry{
			Source: microsoft.NewMicrosoftScraper(opener, cfg.FetchTimeout.Duration, browser.NewScreenshotDebugger(cfg.ScreenshotDir)),
			Target: scraper.Target{URL: cfg.Sources.Microsoft.URL, Role: cfg.Role},
		})
	}
	if config.Enabled(cfg.Sources.Amazon.Enabled) {
		entries = append(entries, scraper.Entry{
			Source: amazon.NewAmazonScraper(opener, cfg.Sources.Amazon, cfg.FetchTimeout.Duration),
			Target: scraper.Target{Role: cfg.Role},
		})
	}
	return scraper.NewMulti(entries...)
}

func buildNotifier(cfg *config.Config) notify.Notifier {
	email := notify.NewEmail(cfg.Email.SMTPHost, cfg.Email.SMTPPort, cfg.Email.Sender, cfg.Email.Password)
	if !cfg.TelegramEnabled() {
		return email
	}

	bot, err := telegram.NewBot(cfg.Telegram.Token, cfg.Telegram.ChatID)
	if err != nil {
		log.Printf("⚠️ Telegram disabled: %v", err)
		return email
	}
	log.Println("🤖 Telegram Bot initialized.")
	return notify.Fanout{email, bot}
}

func exitCode(err error) int {
	var exitErr *exitError
	var cfgErr *config.Error
	var stErr *state.Error
	var fErr *scraper.FetchError
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &exitErr):
		return exitErr.code
	case errors.As(err, &cfgErr):
		return exitConfig
	case errors.As(err, &stErr):
		return exitStorage
	case errors.As(err, &fErr):
		return exitFetch
	default:
		return exitFetch
	}
}
