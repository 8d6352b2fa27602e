package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/quillworks/scribebot/internal/agent"
	"github.com/quillworks/scribebot/internal/chat"
	"github.com/quillworks/scribebot/internal/cli"
	"github.com/quillworks/scribebot/internal/config"
	"github.com/quillworks/scribebot/internal/logging"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(0)
	}

	switch os.Args[1] {
	case "gateway":
		cmdGateway(os.Args[2:])
	case "status":
		cmdStatus()
	case "version", "--version", "-v":
		fmt.Println(cli.TitleStyle.Render(
			fmt.Sprintf("  %s scribebot v%s", cli.Logo, cli.Version),
		))
	case "help", "--help", "-h":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	dim := cli.DimStyle.Render
	fmt.Println()
	fmt.Println(cli.TitleStyle.Render(fmt.Sprintf("  %s scribebot", cli.Logo)) + dim(" — AI Writing Assistant Gateway"))
	fmt.Println()
	fmt.Println("  " + cli.BoldStyle.Render("Usage"))
	fmt.Println()
	fmt.Printf("    scribebot %-18s %s\n", "gateway <cid>...", dim("Serve writing agents on channels"))
	fmt.Printf("    scribebot %-18s %s\n", "status", dim("Show configuration"))
	fmt.Printf("    scribebot %-18s %s\n", "version", dim("Show version"))
	fmt.Println()
}

// --- gateway command ---

func cmdGateway(cids []string) {
	if len(cids) == 0 {
		fmt.Fprintln(os.Stderr, "Usage: scribebot gateway <cid>...")
		os.Exit(1)
	}

	cfg := mustLoadConfig()
	if cfg.Chat.APIKey == "" {
		fmt.Println()
		fmt.Println(cli.ErrStyle.Render("  Error: No chat API key configured"))
		fmt.Println(cli.DimStyle.Render("  Set chat.apiKey in " + config.ConfigPath() + " or SCRIBEBOT_CHAT_API_KEY"))
		fmt.Println()
		os.Exit(1)
	}

	setupLogs()

	fmt.Println()
	fmt.Println(cli.TitleStyle.Render(fmt.Sprintf("  %s scribebot Gateway", cli.Logo)))
	fmt.Println()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	manager := agent.NewManager(agent.ManagerConfig{
		NewMessenger: func(ctx context.Context) chat.Messenger {
			client := chat.NewClient(chat.Config{
				APIBase: cfg.Chat.APIBase,
				WSURL:   cfg.Chat.WSURL,
				APIKey:  cfg.Chat.APIKey,
			})
			go func() {
				err := client.Listen(ctx)
				if err != nil && !errors.Is(err, context.Canceled) && ctx.Err() == nil {
					slog.Error("Chat stream error", "err", err)
				}
			}()
			return client
		},
		APIKey:        cfg.Provider.APIKey,
		APIBase:       cfg.Provider.APIBase,
		Model:         cfg.Agent.Model,
		Temperature:   cfg.Agent.Temperature,
		MaxTokens:     cfg.Agent.MaxTokens,
		IdleTimeout:   time.Duration(cfg.Supervisor.IdleTimeoutS) * time.Second,
		SweepInterval: time.Duration(cfg.Supervisor.SweepIntervalS) * time.Second,
	})

	for _, cid := range cids {
		if _, err := manager.EnsureAgent(ctx, cid); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
			manager.StopAll(context.Background())
			os.Exit(1)
		}
		fmt.Println("  " + cli.OkStyle.Render("✓") + " " + cid)
	}
	fmt.Println()

	go manager.Run(ctx)

	fmt.Println(cli.DimStyle.Render("  Press Ctrl+C to stop"))
	<-ctx.Done()
	fmt.Println("\n  Shutting down...")
	manager.StopAll(context.Background())
}

// --- status command ---

func cmdStatus() {
	cfg, _ := config.Load()
	cli.RunStatus(cfg)
}

// --- helpers ---

func setupLogs() {
	color := isatty.IsTerminal(os.Stderr.Fd())
	slog.SetDefault(slog.New(logging.NewHandler(os.Stderr, &logging.Options{
		Level: slog.LevelInfo,
		Color: color,
	})))
}

func mustLoadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
	return cfg
}
