package main

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vidyasagar/yamireader/internal/app"
	"github.com/vidyasagar/yamireader/internal/cache"
	"github.com/vidyasagar/yamireader/internal/forum"
	"github.com/vidyasagar/yamireader/internal/reader"
	"github.com/vidyasagar/yamireader/internal/theme"
)

var readCmd = &cobra.Command{
	Use:   "read <thread-url>",
	Short: "Open a thread in the reader",
	Long:  "Open a forum thread in the paginated reader. Progress is saved for threads in your favorites.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRead(cmd, args[0])
	},
}

func init() {
	readCmd.Flags().Bool("favorite", false, "add the thread to favorites before reading")
	readCmd.Flags().Bool("no-store", false, "keep fetched pages in memory only")
}

func runRead(cmd *cobra.Command, arg string) error {
	if !theme.Set(themeName) {
		return fmt.Errorf("unknown theme %q, available: %v", themeName, theme.List())
	}
	threadID, err := threadPath(arg)
	if err != nil {
		return err
	}

	e, err := openEnv(false)
	if err != nil {
		return err
	}
	defer e.Close()

	if fav, _ := cmd.Flags().GetBool("favorite"); fav {
		if _, err := e.favorites.Add(threadID, threadID); err != nil {
			return err
		}
	}

	var pages cache.Store = e.pages
	if noStore, _ := cmd.Flags().GetBool("no-store"); noStore {
		pages = cache.NewMemory()
	}

	session := reader.New(reader.Deps{
		Fetcher:   forum.NewFetcher(baseURL, e.log),
		Parser:    forum.NewParser(baseURL, e.log),
		Cache:     pages,
		Settings:  e.settings,
		Favorites: e.favorites,
		Logger:    e.log,
	})
	defer session.Close()

	m := app.New(session, threadID, e.log)
	defer m.Close()

	e.log.Info("reading", zap.String("thread", threadID))
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running reader: %w", err)
	}
	return nil
}
