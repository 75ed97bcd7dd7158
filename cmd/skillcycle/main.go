package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/alexanderramin/skillcycle/internal/chat"
	"github.com/alexanderramin/skillcycle/internal/cli"
	"github.com/alexanderramin/skillcycle/internal/db"
	"github.com/alexanderramin/skillcycle/internal/repository"
	"github.com/alexanderramin/skillcycle/internal/service"
	"github.com/mattn/go-isatty"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flags := cli.ParseGlobalFlags(os.Args[1:])

	dbPath, err := resolvePath(flags.DBPath, "SKILLCYCLE_DB", "skillcycle.db")
	if err != nil {
		return err
	}
	configPath, err := resolvePath(flags.ConfigPath, "SKILLCYCLE_CONFIG", "config.toml")
	if err != nil {
		return err
	}

	cfg, err := chat.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	database, err := db.OpenDB(dbPath)
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer database.Close()

	// Call logging goes to stderr so streamed answers on stdout stay clean.
	var (
		observer        chat.Observer = chat.NoopObserver{}
		useCaseObserver service.UseCaseObserver
	)
	if cfg.LogCalls || flags.Verbose {
		logObserver := chat.NewLogObserver(os.Stderr)
		defer logObserver.Sync()
		observer = logObserver
		useCaseObserver = service.NewLogUseCaseObserver(os.Stderr)
	}

	client := chat.NewClient(cfg, chat.WithObserver(observer))

	app := &cli.App{
		Chat: service.NewChatService(
			client,
			repository.NewSQLiteConversationRepo(database),
			repository.NewSQLiteAnswerRepo(database),
			db.NewSQLiteUnitOfWork(database),
			useCaseObserver,
		),
		Config: cfg,
		Flags:  flags,
	}

	// The live stream view needs a terminal on stdout.
	app.IsInteractive = func() bool {
		return isatty.IsTerminal(os.Stdout.Fd()) || isatty.IsCygwinTerminal(os.Stdout.Fd())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	return cli.NewRootCmd(app).ExecuteContext(ctx)
}

// resolvePath picks the flag value, then the environment variable, then a
// file under ~/.skillcycle.
func resolvePath(flagValue, envKey, name string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if v := os.Getenv(envKey); v != "" {
		return v, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".skillcycle", name), nil
}
