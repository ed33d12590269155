// ABOUTME: devserver command: runs the bundled catalog service locally
// ABOUTME: Useful for trying the client without a real backend

package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/markalston/bookshelf/internal/devserver"
)

var (
	devAddr       string
	devLoginLimit int
)

var devserverCmd = &cobra.Command{
	Use:   "devserver",
	Short: "Run a local catalog service with sample books",
	Long: `Run an in-memory catalog service seeded with sample books.

Accounts and reading lists live only as long as the process.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runDevServer(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	devserverCmd.Flags().StringVar(&devAddr, "addr", "", "Listen address (overrides devserver.addr)")
	devserverCmd.Flags().IntVar(&devLoginLimit, "login-limit", 10, "Login attempts per client per minute (0 disables)")
	rootCmd.AddCommand(devserverCmd)
}

// runDevServer serves until ctx is canceled and returns exit code
func runDevServer(ctx context.Context, w io.Writer) int {
	c, err := currentConfig()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	addr := c.DevServer.Addr
	if devAddr != "" {
		addr = devAddr
	}

	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer logger.Sync()

	srv, err := devserver.New(devserver.Options{
		Addr:       addr,
		JWTSecret:  c.DevServer.JWTSecret,
		TokenTTL:   c.DevServer.TokenTTL,
		LoginLimit: devLoginLimit,
		Logger:     logger,
	})
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	fmt.Fprintf(w, "Serving sample catalog on %s (Ctrl+C to stop)\n", addr)
	if err := srv.ListenAndServe(ctx); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	return 0
}
