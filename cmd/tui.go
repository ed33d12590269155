// ABOUTME: Launches the interactive terminal interface
// ABOUTME: Also the default action when bookshelf runs without a subcommand

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/markalston/bookshelf/internal/debuglog"
	"github.com/markalston/bookshelf/internal/tui"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the interactive catalog browser",
	Long: `Opens the full-screen browser: search the catalog with author and genre
autocomplete, page through results, and manage your reading list.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runTUI(ctx)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(ctx context.Context) int {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Fprintln(os.Stderr, "Error: the interactive browser needs a terminal. Try 'bookshelf books' instead.")
		return 1
	}

	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	defer a.Close()

	debuglog.Log("starting tui api=%s", a.client.BaseURL())
	err = tui.Run(ctx, tui.Deps{
		Client:   a.client,
		Sessions: a.sessions,
		Config:   a.cfg,
		Logger:   debuglog.L(),
	})
	if err != nil {
		debuglog.Error("tui exited", err)
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 2
	}
	return 0
}
