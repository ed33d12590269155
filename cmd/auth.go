// ABOUTME: Session commands: login, register, logout and whoami
// ABOUTME: Passwords are read without echo when stdin is a terminal

package cmd

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/markalston/bookshelf/internal/session"
)

var (
	authEmail       string
	authPassword    string
	authDisplayName string
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in and remember the session",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runLogin(ctx, os.Stdout, os.Stdin)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var registerCmd = &cobra.Command{
	Use:   "register",
	Short: "Create an account and sign in",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runRegister(ctx, os.Stdout, os.Stdin)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget the stored session",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runLogout(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the signed-in user",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runWhoami(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	for _, c := range []*cobra.Command{loginCmd, registerCmd} {
		c.Flags().StringVar(&authEmail, "email", "", "Account email")
		c.Flags().StringVar(&authPassword, "password", "", "Password (prompted when omitted)")
	}
	registerCmd.Flags().StringVar(&authDisplayName, "name", "", "Display name (default: the part of the email before @)")
	rootCmd.AddCommand(loginCmd, registerCmd, logoutCmd, whoamiCmd)
}

// runLogin signs in and returns exit code
func runLogin(ctx context.Context, w io.Writer, in io.Reader) int {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer a.Close()

	email, password, err := credentials(w, in)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	sess, err := a.sessions.Login(ctx, a.client, email, password)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 1
	}
	printSession(w, sess, "Logged in")
	return 0
}

// runRegister creates an account, signs in and returns exit code
func runRegister(ctx context.Context, w io.Writer, in io.Reader) int {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer a.Close()

	email, password, err := credentials(w, in)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	sess, err := a.sessions.Register(ctx, a.client, email, password, authDisplayName)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 1
	}
	printSession(w, sess, "Registered")
	return 0
}

// runLogout clears the session and returns exit code
func runLogout(ctx context.Context, w io.Writer) int {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer a.Close()

	if err := a.sessions.Logout(ctx); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	if IsJSONOutput() {
		fmt.Fprintln(w, `{"logged_in":false}`)
	} else {
		fmt.Fprintln(w, "Logged out.")
	}
	return 0
}

// runWhoami prints the session and returns exit code
func runWhoami(ctx context.Context, w io.Writer) int {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer a.Close()

	sess, ok := a.requireSession(w)
	if !ok {
		return 1
	}
	printSession(w, sess, "Logged in")
	return 0
}

// credentials resolves email and password from flags, prompting for
// whatever is missing.
func credentials(w io.Writer, in io.Reader) (string, string, error) {
	email, password := strings.TrimSpace(authEmail), authPassword
	reader := bufio.NewReader(in)
	if email == "" {
		fmt.Fprint(w, "Email: ")
		line, err := reader.ReadString('\n')
		if err != nil && line == "" {
			return "", "", fmt.Errorf("reading email: %w", err)
		}
		email = strings.TrimSpace(line)
	}
	if password == "" {
		fmt.Fprint(w, "Password: ")
		if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
			raw, err := term.ReadPassword(int(f.Fd()))
			fmt.Fprintln(w)
			if err != nil {
				return "", "", fmt.Errorf("reading password: %w", err)
			}
			password = string(raw)
		} else {
			line, err := reader.ReadString('\n')
			if err != nil && line == "" {
				return "", "", fmt.Errorf("reading password: %w", err)
			}
			password = strings.TrimRight(line, "\r\n")
		}
	}
	return email, password, nil
}

type sessionView struct {
	UserID      int        `json:"userid"`
	Email       string     `json:"email"`
	DisplayName string     `json:"displayname"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

func printSession(w io.Writer, sess *session.Session, verb string) {
	view := sessionView{UserID: sess.UserID, Email: sess.Email, DisplayName: sess.DisplayName}
	if exp, ok := session.TokenExpiry(sess.Token); ok {
		view.ExpiresAt = &exp
	}
	if IsJSONOutput() {
		fmt.Fprintln(w, formatSessionJSON(view))
		return
	}
	fmt.Fprintln(w, formatSessionHuman(view, verb, time.Now()))
}

// formatSessionHuman formats the session for human readability
func formatSessionHuman(v sessionView, verb string, now time.Time) string {
	name := v.DisplayName
	if name == "" {
		name = v.Email
	}
	out := fmt.Sprintf("%s as %s <%s> (user %d)", verb, name, v.Email, v.UserID)
	if v.ExpiresAt != nil {
		if v.ExpiresAt.Before(now) {
			out += fmt.Sprintf("\nToken expired %s; the service may reject requests until you log in again.", v.ExpiresAt.Format(time.RFC1123))
		} else {
			out += fmt.Sprintf("\nToken expires %s", v.ExpiresAt.Format(time.RFC1123))
		}
	}
	return out
}

// formatSessionJSON formats the session as JSON
func formatSessionJSON(v sessionView) string {
	data, _ := json.MarshalIndent(v, "", "  ")
	return string(data)
}
