package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/kong"
	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/vmedis/go-mobile-shell/appstate"
	"github.com/vmedis/go-mobile-shell/auth"
	"github.com/vmedis/go-mobile-shell/bridge"
	"github.com/vmedis/go-mobile-shell/internal/config"
	"github.com/vmedis/go-mobile-shell/securestore"
	"github.com/vmedis/go-mobile-shell/sessions"
	"github.com/vmedis/go-mobile-shell/storage"
)

var (
	version = "dev"
	cli     struct {
		Debug   bool `help:"Enable debug logging."`
		Version kong.VersionFlag

		Login         LoginCmd         `cmd:"" help:"Authenticate against a tenant domain."`
		Sessions      SessionsCmd      `cmd:"" help:"List stored account sessions."`
		Switch        SwitchCmd        `cmd:"" help:"Switch the active account session."`
		Logout        LogoutCmd        `cmd:"" help:"Log out of the current account, or all accounts."`
		URL           URLCmd           `cmd:"" name:"url" help:"Build the web surface entry URL for a destination."`
		Menu          MenuCmd          `cmd:"" help:"Show the filtered menu and tabs for the active account."`
		ResetPassword ResetPasswordCmd `cmd:"" name:"reset-password" help:"Request a password reset link."`
		Register      RegisterCmd      `cmd:"" help:"Register a new account."`
	}
)

// App bundles the service graph. Everything is constructed here, at the
// application root, and handed to commands - no package-level singletons.
type App struct {
	Config     config.Config
	Log        zerolog.Logger
	Store      *sessions.Store
	Controller *appstate.Controller
	Auth       *auth.Service
	Bridge     *bridge.Issuer
}

func main() {
	ctx := context.Background()
	_ = godotenv.Load()

	cmd := kong.Parse(&cli,
		kong.Vars{"version": version},
		kong.BindTo(ctx, (*context.Context)(nil)))

	app, err := newApp()
	cmd.FatalIfErrorf(err)

	cmd.FatalIfErrorf(cmd.Run(app))
}

func newApp() (*App, error) {
	cfg := config.New()

	level := zerolog.InfoLevel
	if cli.Debug {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	figure.NewFigure(cfg.GetAppName(), "cybermedium", true).Print()
	fmt.Println()

	kv, err := storage.NewFileKV(filepath.Join(cfg.GetDataFolder(), "shell.json"))
	if err != nil {
		return nil, err
	}
	secure, err := securestore.New(kv, cfg.GetSecureKey(), log)
	if err != nil {
		return nil, err
	}

	store := sessions.NewStore(kv, log)
	controller := appstate.NewController(store, kv, secure, log)

	return &App{
		Config:     cfg,
		Log:        log,
		Store:      store,
		Controller: controller,
		Auth:       auth.NewService(cfg, log),
		Bridge:     bridge.NewIssuer(cfg, log),
	}, nil
}
