// ABOUTME: Reading-list commands: list, add, update, remove and stats
// ABOUTME: Every change is confirmed by the service before it is reported

package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/markalston/bookshelf/internal/client"
	"github.com/markalston/bookshelf/internal/debuglog"
	"github.com/markalston/bookshelf/internal/readinglist"
)

var (
	listStatus string

	addStatus string

	updateStatus   string
	updateProgress string
	updateRating   string
	updateNote     string

	removeYes bool
)

// confirmRemoval asks before a destructive remove. Replaced in tests.
var confirmRemoval = func(title string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, nil
	}
	var ok bool
	err := huh.NewConfirm().
		Title(fmt.Sprintf("Remove %q from your reading list?", title)).
		Affirmative("Remove").
		Negative("Keep").
		Value(&ok).
		Run()
	return ok, err
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "Show your reading list",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runList(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var addCmd = &cobra.Command{
	Use:   "add <book-id>",
	Short: "Add a book to your reading list",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runAdd(ctx, os.Stdout, args[0])
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var updateCmd = &cobra.Command{
	Use:   "update <book-id>",
	Short: "Change status, progress, rating or note of a listed book",
	Long: `Change fields of a reading-list entry. Only the flags you pass are sent.

Pass an empty value to clear a field, for example --note "" or --rating "".`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runUpdate(ctx, os.Stdout, args[0], changedFlags(cmd))
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var removeCmd = &cobra.Command{
	Use:   "remove <book-id>",
	Short: "Remove a book from your reading list",
	Long: `Remove a book from your reading list.

Exit codes:
  0 - Removed
  1 - Not confirmed, not logged in, or not on the list
  2 - Error`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runRemove(ctx, os.Stdout, args[0])
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Summarize your reading list",
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runStats(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	listCmd.Flags().StringVar(&listStatus, "status", "", "Only show one status (want, reading, completed, dropped)")
	addCmd.Flags().StringVar(&addStatus, "status", string(readinglist.DefaultStatus), "Initial status")
	updateCmd.Flags().StringVar(&updateStatus, "status", "", "New status")
	updateCmd.Flags().StringVar(&updateProgress, "progress", "", "Pages read")
	updateCmd.Flags().StringVar(&updateRating, "rating", "", "Your rating, 1 to 5")
	updateCmd.Flags().StringVar(&updateNote, "note", "", "Free-form note")
	removeCmd.Flags().BoolVarP(&removeYes, "yes", "y", false, "Remove without asking")
	rootCmd.AddCommand(listCmd, addCmd, updateCmd, removeCmd, statsCmd)
}

func changedFlags(cmd *cobra.Command) map[string]bool {
	changed := map[string]bool{}
	for _, name := range []string{"status", "progress", "rating", "note"} {
		changed[name] = cmd.Flags().Changed(name)
	}
	return changed
}

func parseBookID(w io.Writer, raw string) (int, bool) {
	id, err := strconv.Atoi(raw)
	if err != nil || id < 1 {
		fmt.Fprintf(w, "Error: invalid book id %q\n", raw)
		return 0, false
	}
	return id, true
}

// runList prints the reading list and returns exit code
func runList(ctx context.Context, w io.Writer) int {
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

	lists := readinglist.New(a.client, a.cfg.ReadingListLimit, debuglog.L())
	if listStatus == "" {
		err = lists.Load(ctx, sess.UserID)
	} else {
		st, perr := readinglist.ParseStatus(listStatus)
		if perr != nil {
			fmt.Fprintf(w, "Error: %v\n", perr)
			return 2
		}
		err = lists.LoadStatus(ctx, sess.UserID, st)
	}
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	entries := lists.Entries()
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(entries, "", "  ")
		fmt.Fprintln(w, string(data))
		return 0
	}
	fmt.Fprintln(w, formatListHuman(entries))
	return 0
}

// formatListHuman formats entries as an aligned table
func formatListHuman(entries []readinglist.Entry) string {
	if len(entries) == 0 {
		return "Your reading list is empty."
	}
	var b strings.Builder
	tw := tabwriter.NewWriter(&b, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tSTATUS\tPROGRESS\tRATING")
	for _, e := range entries {
		progress := "-"
		if e.ProgressPages != nil {
			progress = strconv.Itoa(*e.ProgressPages)
			if e.Book.PageCount != nil {
				progress += "/" + strconv.Itoa(*e.Book.PageCount)
			}
		}
		rating := "-"
		if e.UserRating != nil {
			rating = strconv.Itoa(*e.UserRating) + "/5"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", e.BookID, e.Book.Title, e.Status.Label(), progress, rating)
	}
	tw.Flush()
	return strings.TrimRight(b.String(), "\n")
}

// runAdd adds a book and returns exit code
func runAdd(ctx context.Context, w io.Writer, rawID string) int {
	bookID, ok := parseBookID(w, rawID)
	if !ok {
		return 2
	}
	status, err := readinglist.ParseStatus(addStatus)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
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

	lists := readinglist.New(a.client, a.cfg.ReadingListLimit, debuglog.L())
	entry, err := lists.Add(ctx, sess.UserID, bookID, status)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		if isUserLevel(err) {
			return 1
		}
		return 2
	}
	printEntry(w, entry, "Added")
	return 0
}

// runUpdate applies the changed flags and returns exit code
func runUpdate(ctx context.Context, w io.Writer, rawID string, changed map[string]bool) int {
	bookID, ok := parseBookID(w, rawID)
	if !ok {
		return 2
	}
	patch, err := buildPatch(changed)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	if patch.Empty() {
		fmt.Fprintln(w, "Error: nothing to update; pass --status, --progress, --rating or --note")
		return 2
	}

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

	lists := readinglist.New(a.client, a.cfg.ReadingListLimit, debuglog.L())
	entry, err := lists.Update(ctx, sess.UserID, bookID, patch)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		if isUserLevel(err) {
			return 1
		}
		return 2
	}
	printEntry(w, entry, "Updated")
	return 0
}

// buildPatch turns the flags that were passed into a partial update. An
// empty value clears the field.
func buildPatch(changed map[string]bool) (readinglist.Patch, error) {
	var p readinglist.Patch
	if changed["status"] {
		st, err := readinglist.ParseStatus(updateStatus)
		if err != nil {
			return p, err
		}
		p.Status = &st
	}
	if changed["progress"] {
		v, err := readinglist.ParseProgress(updateProgress)
		if err != nil {
			return p, fmt.Errorf("progress: %w", err)
		}
		p.ProgressPages = client.FromPtr(v)
	}
	if changed["rating"] {
		v, err := readinglist.ParseRating(updateRating)
		if err != nil {
			return p, err
		}
		p.UserRating = client.FromPtr(v)
	}
	if changed["note"] {
		p.Note = client.FromPtr(readinglist.NoteValue(updateNote))
	}
	return p, nil
}

// runRemove removes a book after confirmation and returns exit code
func runRemove(ctx context.Context, w io.Writer, rawID string) int {
	bookID, ok := parseBookID(w, rawID)
	if !ok {
		return 2
	}
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

	lists := readinglist.New(a.client, a.cfg.ReadingListLimit, debuglog.L())
	entry, err := lists.Lookup(ctx, sess.UserID, bookID)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	if entry == nil {
		fmt.Fprintf(w, "Book %d is not on your reading list.\n", bookID)
		return 1
	}

	confirmed := removeYes
	if !confirmed {
		confirmed, err = confirmRemoval(entry.Book.Title)
		if err != nil {
			fmt.Fprintf(w, "Error: %v\n", err)
			return 2
		}
	}

	if err := lists.Remove(ctx, sess.UserID, bookID, confirmed); err != nil {
		if errors.Is(err, readinglist.ErrNotConfirmed) {
			fmt.Fprintln(w, "Not removed. Pass --yes to remove without a prompt.")
			return 1
		}
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	if IsJSONOutput() {
		fmt.Fprintf(w, "{\"removed\":%d}\n", bookID)
	} else {
		fmt.Fprintf(w, "Removed %q from your reading list.\n", entry.Book.Title)
	}
	return 0
}

type statsView struct {
	Service *client.ReadingStats `json:"service"`
	Local   readinglist.Summary  `json:"local"`
}

// runStats prints reading statistics and returns exit code
func runStats(ctx context.Context, w io.Writer) int {
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

	lists := readinglist.New(a.client, a.cfg.ReadingListLimit, debuglog.L())
	stats, err := lists.Stats(ctx, sess.UserID)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	if err := lists.Load(ctx, sess.UserID); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	view := statsView{Service: stats, Local: lists.Summary()}
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(view, "", "  ")
		fmt.Fprintln(w, string(data))
		return 0
	}
	fmt.Fprintln(w, formatStatsHuman(view))
	return 0
}

// formatStatsHuman formats reading statistics for human readability
func formatStatsHuman(v statsView) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Books:          %d\n", v.Service.TotalBooks)
	if v.Service.AverageRating != nil {
		fmt.Fprintf(&b, "Average rating: %.1f\n", *v.Service.AverageRating)
	} else {
		b.WriteString("Average rating: -\n")
	}
	for _, st := range readinglist.Statuses {
		fmt.Fprintf(&b, "%-18s %d\n", st.Label()+":", v.Service.StatusCounts[string(st)])
	}
	return strings.TrimRight(b.String(), "\n")
}

func printEntry(w io.Writer, e *readinglist.Entry, verb string) {
	if IsJSONOutput() {
		data, _ := json.MarshalIndent(e, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}
	fmt.Fprintf(w, "%s %q: %s\n", verb, e.Book.Title, e.Status.Label())
}

// isUserLevel reports errors caused by the request rather than the system.
func isUserLevel(err error) bool {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode >= 400 && apiErr.StatusCode < 500
	}
	return errors.Is(err, readinglist.ErrAlreadyListed) ||
		errors.Is(err, readinglist.ErrInvalidStatus) ||
		errors.Is(err, readinglist.ErrInvalidRating) ||
		errors.Is(err, readinglist.ErrEmptyPatch)
}
