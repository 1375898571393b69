package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/vovakirdan/tui-2048/internal/config"
	"github.com/vovakirdan/tui-2048/internal/engine"
	"github.com/vovakirdan/tui-2048/internal/platform/tui"
	"github.com/vovakirdan/tui-2048/internal/storage"
)

var (
	flagDifficulty string
	flagPlayer     string
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play 2048",
	Long: `Start a game of 2048 in this terminal.

Controls:
  Arrows/WASD/HJKL - Slide the board
  N/R              - New game
  Tab/T            - High scores
  ?                - More help
  Q/Ctrl+C         - Quit

Difficulty options (chance that a new tile is a 4):
  easy   - 5%
  normal - 10%
  hard   - 25%

Examples:
  t2048 play
  t2048 play --difficulty hard
  t2048 play --seed 42 --player alice`,
	Args: cobra.NoArgs,
	Run:  runPlay,
}

func init() {
	playCmd.Flags().StringVar(&flagDifficulty, "difficulty", "", "Difficulty preset: easy, normal, hard")
	playCmd.Flags().StringVar(&flagPlayer, "player", "", "Player name recorded with results (default: $USER)")
}

func runPlay(_ *cobra.Command, _ []string) {
	if err := play(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func play() error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return errors.New("play needs an interactive terminal")
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := config.ApplyDifficultyPreset(&cfg, config.DifficultyPreset(flagDifficulty)); err != nil {
		return err
	}

	// Logging to stderr would draw over the game; only log to a file.
	logger, closeLog, err := newLogger(cfg, "t2048", io.Discard)
	if err != nil {
		return err
	}
	defer closeLog()

	player := flagPlayer
	if player == "" {
		player = defaultPlayer()
	}

	var results tui.ResultStore
	store, err := storage.Open(cfg.Storage.DBPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not open results database: %v\n", err)
		logger.Warn("results disabled", "error", err)
	} else {
		defer store.Close()
		results = store
	}

	eng := engine.New(engineOptions(cfg)...)
	logger.Info("starting game",
		"player", player,
		"seed", eng.Seed(),
		"win_tile", eng.WinTile(),
		"policy", eng.Policy(),
	)

	return tui.Run(eng, results, logger, player)
}
