package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/user"
	"strings"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/zalando/go-keyring"
	"golang.org/x/term"

	"github.com/vistral/vistral/internal/api"
	"github.com/vistral/vistral/internal/chat"
	"github.com/vistral/vistral/internal/config"
	"github.com/vistral/vistral/internal/health"
	"github.com/vistral/vistral/internal/history"
	"github.com/vistral/vistral/internal/tui"
	"github.com/vistral/vistral/pkg/log"
)

const keyringService = "vistral"

func main() {
	apiURL := flag.String("api", "", "backend base URL (overrides VISTRAL_API_URL)")
	flag.Usage = func() {
		fmt.Fprintln(os.Stderr, "Usage: vistral [flags] [login|logout]")
		flag.PrintDefaults()
	}
	flag.Parse()

	var opts []config.Option
	if *apiURL != "" {
		opts = append(opts, config.WithBaseURL(*apiURL))
	}
	cfg, err := config.New(opts...)
	if err != nil {
		fmt.Fprintln(os.Stderr, "configuration error:", err)
		os.Exit(1)
	}

	switch flag.Arg(0) {
	case "login":
		if err := login(cfg); err != nil {
			fmt.Fprintln(os.Stderr, "login failed:", err)
			os.Exit(1)
		}
		return
	case "logout":
		if err := logout(); err != nil {
			fmt.Fprintln(os.Stderr, "logout failed:", err)
			os.Exit(1)
		}
		fmt.Println("Signed out.")
		return
	case "":
	default:
		flag.Usage()
		os.Exit(1)
	}

	if err := run(cfg); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfg *config.Config) error {
	if err := os.MkdirAll(cfg.System.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}
	if err := log.Init(cfg.System.LogPath(), log.ParseLevel(cfg.System.LogLevel)); err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer log.Close()

	session := api.NewSession(resolveToken(cfg))
	client, err := api.NewClient(cfg.API.BaseURL, session)
	if err != nil {
		return err
	}

	// a broken cache degrades to online-only, it never blocks startup
	cache, err := history.OpenCache(cfg.System.DBPath())
	if err != nil {
		log.Warn("video cache unavailable", "path", cfg.System.DBPath(), "error", err)
		cache = nil
	} else {
		defer cache.Close()
	}

	historySvc, err := history.NewService(client, cache, cfg.History.Limit)
	if err != nil {
		return err
	}

	monitor, err := health.NewMonitor(client, cfg.Health.Interval)
	if err != nil {
		return err
	}
	if err := monitor.Start(context.Background()); err != nil {
		return err
	}
	defer monitor.Stop()

	model, err := tui.New(cfg, client, chat.NewController(client), historySvc, monitor)
	if err != nil {
		return err
	}

	log.Info("starting", "api_url", cfg.API.BaseURL, "authenticated", session.Authenticated())
	if _, err := tea.NewProgram(model, tea.WithAltScreen()).Run(); err != nil {
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}

// resolveToken prefers the environment over the keyring so CI and one-off
// sessions can override a stored login.
func resolveToken(cfg *config.Config) string {
	if cfg.API.Token != "" {
		return cfg.API.Token
	}
	token, err := keyring.Get(keyringService, systemUser())
	if err != nil {
		if err != keyring.ErrNotFound {
			log.Warn("keyring read failed", "error", err)
		}
		return ""
	}
	return token
}

func login(cfg *config.Config) error {
	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Email: ")
	email, err := reader.ReadString('\n')
	if err != nil {
		return err
	}
	email = strings.TrimSpace(email)

	fmt.Print("Password: ")
	password, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		return err
	}

	session := api.NewSession("")
	client, err := api.NewClient(cfg.API.BaseURL, session)
	if err != nil {
		return err
	}

	resp, err := client.SignIn(context.Background(), api.SignInRequest{
		Email:    email,
		Password: strings.TrimSpace(string(password)),
	})
	if err != nil {
		return err
	}

	if err := keyring.Set(keyringService, systemUser(), resp.AccessToken); err != nil {
		return fmt.Errorf("store token: %w", err)
	}
	fmt.Println("Signed in as", email)
	return nil
}

func logout() error {
	err := keyring.Delete(keyringService, systemUser())
	if err != nil && err != keyring.ErrNotFound {
		return err
	}
	return nil
}

func systemUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}
