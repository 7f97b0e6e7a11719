package app

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"github.com/wombatcreek/poolauth/pkg/poolauth"
	"github.com/wombatcreek/poolauth/pkg/slogx"
)

const version = "0.2.0"

type App struct {
	cfg    Config
	logger *slog.Logger
	client *poolauth.Client
}

func New(cfg Config) (*App, error) {
	logger := slogx.New(slogx.Config{
		Service: "poolauth",
		Version: version,
		Env:     cfg.Env,
		Level:   cfg.LogLevel,
		Format:  cfg.LogFormat,
	})

	client, err := poolauth.New(poolauth.Config{
		UserPoolID:   cfg.UserPoolID,
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Username:     cfg.Username,
		Region:       cfg.Region,
		Endpoint:     cfg.Endpoint,
		IssuerURL:    cfg.Issuer,
		Logger:       logger,
	})
	if err != nil {
		return nil, err
	}

	return &App{cfg: cfg, logger: logger, client: client}, nil
}

// Run dispatches one command and exits. Tokens go to stdout so they can be
// piped; everything else logs to stderr.
func (a *App) Run(ctx context.Context, args []string) error {
	command := "login"
	if len(args) > 0 {
		command = args[0]
	}

	switch command {
	case "login":
		return a.login(ctx, false)
	case "admin-login":
		return a.login(ctx, true)
	case "whoami":
		return a.whoami(ctx)
	default:
		return fmt.Errorf("unknown command %q (want login, admin-login or whoami)", command)
	}
}

func (a *App) login(ctx context.Context, admin bool) error {
	if a.cfg.Password == "" {
		return fmt.Errorf("POOLAUTH_PASSWORD is required")
	}

	var err error
	if admin {
		err = a.client.AdminAuthenticate(ctx, a.cfg.Password)
	} else {
		err = a.client.Authenticate(ctx, a.cfg.Password)
	}
	if err != nil {
		return err
	}

	return a.printJSON(a.client.Tokens())
}

func (a *App) whoami(ctx context.Context) error {
	if err := a.client.Authenticate(ctx, a.cfg.Password); err != nil {
		return err
	}
	profile, err := a.client.GetProfile(ctx)
	if err != nil {
		return err
	}
	return a.printJSON(profile)
}

func (a *App) printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
