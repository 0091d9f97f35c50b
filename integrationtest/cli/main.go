// Package main provides an interactive CLI for exercising the demo weather
// catalog against a real model, with full event logging to a file.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/chzyer/readline"

	"github.com/loom-ai/loom"
	"github.com/loom-ai/loom/executor"
	"github.com/loom-ai/loom/integrationtest/loggers"
	"github.com/loom-ai/loom/integrationtest/testutil"
	"github.com/loom-ai/loom/integrationtest/weather"
	"github.com/loom-ai/loom/template"
)

// ANSI color codes
const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorDim    = "\033[2m"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%sError: %v%s\n", colorRed, err, colorReset)
		os.Exit(1)
	}
}

func run() error {
	logDir := ".logs"
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return fmt.Errorf("failed to create log directory: %w", err)
	}
	logFile, err := os.Create(filepath.Join(logDir, "cli_weather.log"))
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer logFile.Close()

	if os.Getenv(testutil.EnvAPIKey) == "" {
		fmt.Fprintf(os.Stderr,
			"%sWARNING: %s environment variable is not set!%s\n",
			colorYellow, testutil.EnvAPIKey, colorReset)
	}

	client, err := testutil.NewClient()
	if err != nil {
		return err
	}

	catalog := weather.NewCatalog()
	exec := executor.New(catalog, client, executor.DefaultPolicy()).
		RegisterHook(loggers.NewLoggerHookWithWriter(logFile))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	rl, err := readline.New(colorCyan + "you> " + colorReset)
	if err != nil {
		return fmt.Errorf("failed to create readline: %w", err)
	}
	defer rl.Close()

	history, err := newConversation(ctx, catalog)
	if err != nil {
		return err
	}

	fmt.Printf("%sWeather assistant. Commands: /reset, /manual, /quit.%s\n",
		colorDim, colorReset)

	for {
		line, err := rl.Readline()
		if err != nil {
			// Ctrl-C / Ctrl-D
			return nil
		}
		line = strings.TrimSpace(line)

		switch {
		case line == "":
			continue
		case line == "/quit" || line == "q":
			return nil
		case line == "/reset":
			history, err = newConversation(ctx, catalog)
			if err != nil {
				return err
			}
			fmt.Printf("%sConversation reset.%s\n", colorDim, colorReset)
			continue
		case line == "/manual":
			fmt.Print(catalog.ManualPrompt(nil))
			continue
		}

		history.AddUser(line)
		result, err := exec.RunTurn(ctx, history)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			fmt.Printf("%sturn failed: %v%s\n", colorRed, err, colorReset)
			continue
		}

		fmt.Printf("%sassistant>%s %s\n", colorGreen, colorReset, result.Final.Text())
		if result.CapReached {
			fmt.Printf("%s(iteration cap reached after %d rounds)%s\n",
				colorYellow, result.Rounds, colorReset)
		}
	}
}

// newConversation renders the system prompt for the default city and starts a
// fresh history.
func newConversation(ctx context.Context, catalog *loom.Catalog) (*loom.ChatHistory, error) {
	args := loom.NewArguments(map[string]any{"city": "Tokyo"})
	prompt, err := template.Render(ctx, weather.SystemPromptTemplate, args, catalog, nil)
	if err != nil {
		return nil, fmt.Errorf("render system prompt: %w", err)
	}
	return loom.NewChatHistory().AddSystem(prompt), nil
}
