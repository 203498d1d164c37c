package main

import (
	"fmt"
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect or clear the page cache",
}

var cacheShowCmd = &cobra.Command{
	Use:   "show",
	Short: "List cached thread pages",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := openEnv(true)
		if err != nil {
			return err
		}
		defer e.Close()

		pages, err := e.pages.List()
		if err != nil {
			return err
		}
		if len(pages) == 0 {
			fmt.Println("Cache is empty.")
			return nil
		}

		columns := []table.Column{
			{Title: "Thread", Width: 44},
			{Title: "Page", Width: 6},
			{Title: "Of", Width: 6},
			{Title: "Author", Width: 10},
			{Title: "Size", Width: 10},
		}
		rows := make([]table.Row, 0, len(pages))
		var total uint64
		for _, p := range pages {
			total += uint64(p.Size)
			rows = append(rows, table.Row{
				truncate(p.ThreadID, 42),
				strconv.Itoa(p.Page),
				strconv.Itoa(p.MaxPage),
				p.AuthorID,
				humanize.Bytes(uint64(p.Size)),
			})
		}

		fmt.Printf("\nCached pages (%d, %s)\n\n", len(pages), humanize.Bytes(total))
		fmt.Println(renderTable(columns, rows))
		return nil
	},
}

var cacheClearCmd = &cobra.Command{
	Use:   "clear [thread-url]",
	Short: "Remove cached pages of one thread, or of all threads",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		threadID := ""
		if len(args) == 1 {
			var err error
			if threadID, err = threadPath(args[0]); err != nil {
				return err
			}
		}

		e, err := openEnv(true)
		if err != nil {
			return err
		}
		defer e.Close()

		n, err := e.pages.Clear(threadID)
		if err != nil {
			return err
		}
		fmt.Printf("Removed %d cached pages\n", n)
		return nil
	},
}

func init() {
	cacheCmd.AddCommand(cacheShowCmd)
	cacheCmd.AddCommand(cacheClearCmd)
}
