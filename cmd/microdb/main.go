package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/pflag"

	"github.com/tuannm99/microdb/internal"
	"github.com/tuannm99/microdb/internal/engine"
)

func defaultHistoryPath() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".microdb_history"
	}
	return filepath.Join(home, ".microdb_history")
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "microdb: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := pflag.NewFlagSet("microdb", pflag.ContinueOnError)
	var (
		configPath = fs.String("config", "", "YAML config file")
		histPath   = fs.String("history", defaultHistoryPath(), "history file path")
		oneShot    = fs.StringP("command", "c", "", "run one command and exit")
	)
	fs.String("dir", "", "storage directory (storage.dir)")
	fs.Int("cache", 0, "buffer pool frames (buffer.capacity)")
	fs.String("log-level", "", "debug, info, warn or error (log.level)")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	v := internal.NewViper()
	for key, flag := range map[string]string{
		"storage.dir":     "dir",
		"buffer.capacity": "cache",
		"log.level":       "log-level",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return err
		}
	}
	cfg, err := internal.Load(v, *configPath)
	if err != nil {
		return err
	}

	lvl, _ := cfg.LogLevel()
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl})))

	db, err := engine.Open(engine.Options{
		Dir:              cfg.Storage.Dir,
		CacheCapacity:    cfg.Buffer.Capacity,
		CatalogCacheSize: cfg.Catalog.CacheSize,
	})
	if err != nil {
		return err
	}
	defer func() {
		if err := db.Close(); err != nil {
			slog.Error("close database", "err", err)
		}
	}()

	sh := NewShell(db, os.Stdout)

	// one-shot mode
	if strings.TrimSpace(*oneShot) != "" {
		if err := sh.Exec(*oneShot); err != nil && !errors.Is(err, errExit) {
			return err
		}
		return nil
	}

	return repl(sh, cfg.AppName, *histPath)
}

func repl(sh *Shell, appName, histPath string) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          appName + "> ",
		HistoryFile:     histPath,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
	})
	if err != nil {
		return fmt.Errorf("readline: %w", err)
	}
	defer func() { _ = rl.Close() }()

	fmt.Printf("%s: storage at %s\n", appName, sh.db.Dir())
	fmt.Println("type help for help")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		}
		if err != nil {
			// EOF
			fmt.Println()
			return nil
		}

		err = sh.Exec(line)
		if errors.Is(err, errExit) {
			return nil
		}
		if err != nil {
			if err := sh.Report(err); err != nil {
				return err
			}
		}
	}
}
