package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vidyasagar/yamireader/internal/forum"
	"github.com/vidyasagar/yamireader/internal/storage"
)

var favoritesCmd = &cobra.Command{
	Use:     "favorites",
	Aliases: []string{"fav"},
	Short:   "Manage the favorites list",
}

var favListCmd = &cobra.Command{
	Use:   "list",
	Short: "List favorites with their reading progress",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")
		e, err := openEnv(true)
		if err != nil {
			return err
		}
		defer e.Close()

		favs, err := e.favorites.List(all)
		if err != nil {
			return err
		}
		if len(favs) == 0 {
			fmt.Println("No favorites. Use 'yamireader favorites import' or 'yamireader read --favorite <url>'.")
			return nil
		}

		columns := []table.Column{
			{Title: "#", Width: 4},
			{Title: "Title", Width: 40},
			{Title: "Thread", Width: 36},
			{Title: "Page", Width: 6},
			{Title: "Chapter", Width: 20},
		}
		rows := make([]table.Row, 0, len(favs))
		for i, f := range favs {
			num := strconv.Itoa(i)
			if f.Hidden {
				num = "-"
			}
			page := ""
			if f.Progress.LastNetworkPage > 0 {
				page = strconv.Itoa(f.Progress.LastNetworkPage)
			}
			rows = append(rows, table.Row{
				num,
				truncate(f.Title, 38),
				truncate(f.ThreadID, 34),
				page,
				truncate(f.Progress.LastChapter, 18),
			})
		}

		fmt.Printf("\nFavorites (%d)\n\n", len(favs))
		fmt.Println(renderTable(columns, rows))
		return nil
	},
}

var favAddCmd = &cobra.Command{
	Use:   "add <thread-url> [title]",
	Short: "Add a thread to favorites",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		threadID, err := threadPath(args[0])
		if err != nil {
			return err
		}
		title := threadID
		if len(args) > 1 {
			title = args[1]
		}

		e, err := openEnv(true)
		if err != nil {
			return err
		}
		defer e.Close()

		added, err := e.favorites.Add(threadID, title)
		if err != nil {
			return err
		}
		if !added {
			fmt.Printf("%s is already a favorite\n", threadID)
			return nil
		}
		fmt.Printf("Added %s\n", title)
		return nil
	},
}

var favImportCmd = &cobra.Command{
	Use:   "import",
	Short: "Merge the forum's favorites page into the local list",
	Long:  "Fetch the forum's favorites page, or read a saved copy with --file, and add every thread not stored yet.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		file, _ := cmd.Flags().GetString("file")
		e, err := openEnv(true)
		if err != nil {
			return err
		}
		defer e.Close()

		var links []forum.FavoriteLink
		if file != "" {
			data, err := os.ReadFile(file)
			if err != nil {
				return fmt.Errorf("reading %s: %w", file, err)
			}
			links = forum.ParseFavorites(baseURL, string(data))
		} else {
			links, err = forum.NewFetcher(baseURL, e.log).FetchFavorites(cmd.Context())
			if err != nil {
				return err
			}
		}

		list := make([]storage.Favorite, 0, len(links))
		for _, l := range links {
			list = append(list, storage.Favorite{ThreadID: l.ThreadPath, Title: l.Title})
		}
		added, err := e.favorites.Merge(list)
		if err != nil {
			return err
		}
		e.log.Info("favorites imported", zap.Int("found", len(links)), zap.Int("added", added))
		fmt.Printf("Found %d favorites, added %d\n", len(links), added)
		return nil
	},
}

var favMoveCmd = &cobra.Command{
	Use:   "move <from> <to>",
	Short: "Reorder a visible favorite",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		from, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("from: %w", err)
		}
		to, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("to: %w", err)
		}

		e, err := openEnv(true)
		if err != nil {
			return err
		}
		defer e.Close()
		return e.favorites.Move(from, to)
	},
}

func visibilityCmd(use, short string, hidden bool) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <thread-id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(true)
			if err != nil {
				return err
			}
			defer e.Close()
			return e.favorites.SetHidden(args, hidden)
		},
	}
}

var favRemoveCmd = &cobra.Command{
	Use:   "remove <thread-id>",
	Short: "Remove a favorite and its progress",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(true)
		if err != nil {
			return err
		}
		defer e.Close()

		removed, err := e.favorites.Remove(args[0])
		if err != nil {
			return err
		}
		if !removed {
			return fmt.Errorf("%s is not a favorite", args[0])
		}
		return nil
	},
}

func init() {
	favListCmd.Flags().BoolP("all", "a", false, "include hidden favorites")
	favImportCmd.Flags().StringP("file", "f", "", "saved favorites page to read instead of fetching")

	favoritesCmd.AddCommand(favListCmd)
	favoritesCmd.AddCommand(favAddCmd)
	favoritesCmd.AddCommand(favImportCmd)
	favoritesCmd.AddCommand(favMoveCmd)
	favoritesCmd.AddCommand(visibilityCmd("hide", "Hide favorites from the list", true))
	favoritesCmd.AddCommand(visibilityCmd("unhide", "Show hidden favorites again", false))
	favoritesCmd.AddCommand(favRemoveCmd)
}
