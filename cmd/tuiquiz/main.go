// Package main provides the CLI entrypoint for tuiquiz.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-runewidth"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/tuiquiz/internal/config"
	"github.com/verte-zerg/tuiquiz/internal/leaderboard"
	"github.com/verte-zerg/tuiquiz/internal/quiz"
	"github.com/verte-zerg/tuiquiz/internal/store"
	"github.com/verte-zerg/tuiquiz/internal/trivia"
	"github.com/verte-zerg/tuiquiz/internal/tui"
)

const (
	defaultAmount    = 10
	defaultBackend   = backendSQLite
	defaultTimeout   = "15s"
	defaultRedisAddr = "localhost:6379"
	redisKeyPrefix   = "tuiquiz"
	logEnv           = "TUIQUIZ_LOG"

	terminalWidthBackup = 80
)

const (
	backendSQLite = "sqlite"
	backendRedis  = "redis"
)

var (
	playName       string
	playCategory   int
	playDifficulty string
	playAmount     int
	playQuick      bool
	playEndpoint   string
	playTimeout    string

	storeBackend string

	scoresClear bool
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "tuiquiz",
		Short:         "TUI trivia quiz",
		SilenceUsage:  true,
		SilenceErrors: false,
		Args:          cobra.NoArgs,
		RunE:          runPlayCmd,
	}

	rootCmd.Flags().StringVar(&playName, "name", "", "player name (default: Player)")
	rootCmd.Flags().IntVar(&playCategory, "category", 0, "category id, 0 for any (see: tuiquiz categories)")
	rootCmd.Flags().StringVar(&playDifficulty, "difficulty", "", "easy, medium, hard or any")
	rootCmd.Flags().IntVar(&playAmount, "amount", defaultAmount, "number of questions (1-50)")
	rootCmd.Flags().BoolVar(&playQuick, "quick", false, "skip the setup form")
	rootCmd.PersistentFlags().StringVar(&playEndpoint, "endpoint", trivia.DefaultEndpoint, "question provider base URL")
	rootCmd.PersistentFlags().StringVar(&playTimeout, "timeout", defaultTimeout, "provider request timeout")
	rootCmd.PersistentFlags().StringVar(&storeBackend, "store", defaultBackend, "leaderboard storage: sqlite or redis")

	rootCmd.AddCommand(newConfigCmd())
	rootCmd.AddCommand(newScoresCmd())
	rootCmd.AddCommand(newCategoriesCmd())

	return rootCmd
}

func runPlayCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	applyStringConfig(cmd, "name", &playName, fileCfg.Quiz.Player)
	applyIntConfig(cmd, "category", &playCategory, fileCfg.Quiz.Category)
	applyStringConfig(cmd, "difficulty", &playDifficulty, fileCfg.Quiz.Difficulty)
	applyIntConfig(cmd, "amount", &playAmount, fileCfg.Quiz.Amount)

	cfg, err := quiz.NewConfig(playName, playCategory, playDifficulty, playAmount)
	if err != nil {
		return err
	}
	client, err := newTriviaClient()
	if err != nil {
		return err
	}

	kv, err := openStore(cmd.Context(), fileCfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := kv.Close(); cerr != nil {
			logErrf("failed to close store: %v\n", cerr)
		}
	}()

	closeLog, err := setupLogging()
	if err != nil {
		return err
	}
	defer closeLog()

	model := tui.NewModel(client, leaderboard.NewBoard(kv), cfg, playQuick)
	program := tea.NewProgram(model, tea.WithAltScreen())
	if _, err := program.Run(); err != nil {
		return fmt.Errorf("failed to run TUI: %w", err)
	}
	return nil
}

// loadFileConfig reads the config file and applies settings shared by all commands.
func loadFileConfig(cmd *cobra.Command) (config.FileConfig, error) {
	fileCfg, err := config.LoadConfig(config.ConfigPath())
	if err != nil {
		return config.FileConfig{}, fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "store", &storeBackend, fileCfg.Store.Backend)
	applyStringConfig(cmd, "endpoint", &playEndpoint, fileCfg.Quiz.Endpoint)
	applyStringConfig(cmd, "timeout", &playTimeout, fileCfg.Quiz.Timeout)
	return fileCfg, nil
}

func newTriviaClient() (*trivia.Client, error) {
	timeout, err := time.ParseDuration(playTimeout)
	if err != nil || timeout <= 0 {
		return nil, fmt.Errorf("--timeout must be a positive duration, got %q", playTimeout)
	}
	if strings.TrimSpace(playEndpoint) == "" {
		return nil, fmt.Errorf("--endpoint must not be empty")
	}
	return trivia.New(playEndpoint, trivia.WithTimeout(timeout)), nil
}

type kvStore interface {
	leaderboard.KV
	io.Closer
}

func openStore(ctx context.Context, cfg config.StoreConfig) (kvStore, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	switch strings.ToLower(strings.TrimSpace(storeBackend)) {
	case backendSQLite, "":
		path := config.DefaultDBPath()
		if cfg.Path != nil && *cfg.Path != "" {
			path = *cfg.Path
		}
		st, err := store.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open db: %w", err)
		}
		return st, nil
	case backendRedis:
		opts := store.RedisOptions{Addr: defaultRedisAddr, Prefix: redisKeyPrefix}
		if cfg.RedisAddr != nil {
			opts.Addr = *cfg.RedisAddr
		}
		if cfg.RedisPassword != nil {
			opts.Password = *cfg.RedisPassword
		}
		if cfg.RedisDB != nil {
			opts.DB = *cfg.RedisDB
		}
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		st, err := store.OpenRedis(ctx, opts)
		if err != nil {
			return nil, fmt.Errorf("failed to open redis: %w", err)
		}
		return st, nil
	default:
		return nil, fmt.Errorf("--store must be %s or %s, got %q", backendSQLite, backendRedis, storeBackend)
	}
}

// setupLogging routes the log package to $TUIQUIZ_LOG, or discards it so the
// alternate screen stays clean.
func setupLogging() (func(), error) {
	path := strings.TrimSpace(os.Getenv(logEnv))
	if path == "" {
		log.SetOutput(io.Discard)
		return func() {}, nil
	}
	f, err := tea.LogToFile(path, "tuiquiz")
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return func() {
		if cerr := f.Close(); cerr != nil {
			_ = cerr
		}
	}, nil
}

func newScoresCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scores",
		Short: "Show the leaderboard",
		Args:  cobra.NoArgs,
		RunE:  runScoresCmd,
	}
	cmd.Flags().BoolVar(&scoresClear, "clear", false, "delete all high scores")
	return cmd
}

func runScoresCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := loadFileConfig(cmd)
	if err != nil {
		return err
	}
	kv, err := openStore(cmd.Context(), fileCfg.Store)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := kv.Close(); cerr != nil {
			logErrf("failed to close store: %v\n", cerr)
		}
	}()

	ctx := context.Background()
	board := leaderboard.NewBoard(kv)
	if scoresClear {
		if err := board.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear leaderboard: %w", err)
		}
		logErrln("Leaderboard cleared.")
		return nil
	}

	entries, err := board.Load(ctx)
	if err != nil {
		if !errors.Is(err, leaderboard.ErrCorrupt) {
			return fmt.Errorf("failed to load leaderboard: %w", err)
		}
		logErrf("ignoring stored leaderboard: %v\n", err)
		entries = nil
	}
	leaderboard.Sort(entries)
	out := cmd.OutOrStdout()
	if err := leaderboard.Render(out, entries, shouldUseColor(out)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func newCategoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List question categories",
		Args:  cobra.NoArgs,
		RunE:  runCategoriesCmd,
	}
}

func runCategoriesCmd(cmd *cobra.Command, _ []string) error {
	if _, err := loadFileConfig(cmd); err != nil {
		return err
	}
	client, err := newTriviaClient()
	if err != nil {
		return err
	}
	categories, err := client.Categories(context.Background())
	if err != nil {
		return fmt.Errorf("failed to list categories: %w", err)
	}
	sort.Slice(categories, func(i, j int) bool {
		return categories[i].ID < categories[j].ID
	})
	width := maxInt(terminalWidth()-5, 10)
	for _, c := range categories {
		name := runewidth.Truncate(c.Name, width, "…")
		if _, err := fmt.Fprintf(cmd.OutOrStdout(), "%3d  %s\n", c.ID, name); err != nil {
			return fmt.Errorf("failed to write output: %w", err)
		}
	}
	return nil
}

func terminalWidth() int {
	width, _, err := term.GetSize(int(os.Stdout.Fd()))
	if err != nil || width <= 0 {
		return terminalWidthBackup
	}
	return width
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func shouldUseColor(w io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(file.Fd()))
}

func newConfigCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Create/open config file",
		Args:  cobra.NoArgs,
		RunE:  runConfigCmd,
	}
}

func runConfigCmd(_ *cobra.Command, _ []string) error {
	path := config.ConfigPath()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to stat config: %w", err)
		}
		if err := os.WriteFile(path, []byte(defaultConfigTemplate()), 0o644); err != nil {
			return fmt.Errorf("failed to write config: %w", err)
		}
	}

	editor := strings.TrimSpace(os.Getenv("EDITOR"))
	if editor == "" {
		editor = "vi"
	}
	parts := strings.Fields(editor)
	if len(parts) == 0 {
		return fmt.Errorf("editor command is empty")
	}
	cmd := exec.Command(parts[0], append(parts[1:], path)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to open editor: %w", err)
	}
	return nil
}

func applyStringConfig(cmd *cobra.Command, name string, target, value *string) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func applyIntConfig(cmd *cobra.Command, name string, target, value *int) {
	if value == nil {
		return
	}
	if cmd.Flags().Changed(name) {
		return
	}
	*target = *value
}

func defaultConfigTemplate() string {
	return fmt.Sprintf(`# tuiquiz configuration
# Uncomment a value to enable it. CLI flags override config values.

[quiz]
# player = "Player"             # Name shown on the leaderboard
# category = 0                  # Category id, 0 for any (see: tuiquiz categories)
# difficulty = ""               # easy, medium, hard or empty for any
# amount = %d                   # Number of questions (1-50)
# endpoint = %q  # Question provider base URL
# timeout = %q                # Provider request timeout

[store]
# backend = %q              # sqlite or redis
# path = ""                     # SQLite file (default %s)
# redis-addr = %q    # Redis address
# redis-password = ""
# redis-db = 0
`,
		defaultAmount,
		trivia.DefaultEndpoint,
		defaultTimeout,
		defaultBackend,
		config.DefaultDBPath(),
		defaultRedisAddr,
	)
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}

func logErrln(args ...any) {
	if _, err := fmt.Fprintln(os.Stderr, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
