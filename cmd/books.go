// ABOUTME: Catalog commands: paginated book search, book detail and facet suggestions
// ABOUTME: Searches run through the same query engine the interactive browser uses

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

	"github.com/spf13/cobra"

	"github.com/markalston/bookshelf/internal/autocomplete"
	"github.com/markalston/bookshelf/internal/catalog"
	"github.com/markalston/bookshelf/internal/client"
	"github.com/markalston/bookshelf/internal/debuglog"
	"github.com/markalston/bookshelf/internal/pagination"
	"github.com/markalston/bookshelf/internal/readinglist"
)

var (
	booksTitle     string
	booksAuthors   []string
	booksGenres    []string
	booksMinRating float64
	booksMaxRating float64
	booksPage      int
)

var booksCmd = &cobra.Command{
	Use:   "books",
	Short: "Search the catalog",
	Long: `Search the catalog by title, authors, genres and average rating.

Several --author or --genre flags match any of them; different kinds of
filter must all match.`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runBooks(ctx, os.Stdout)
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var bookCmd = &cobra.Command{
	Use:   "book <id>",
	Short: "Show one book and its reading-list status",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runBook(ctx, os.Stdout, args[0])
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var authorsCmd = &cobra.Command{
	Use:   "authors <text>",
	Short: "Suggest author names containing text",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runSuggest(ctx, os.Stdout, autocomplete.Authors, args[0])
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

var genresCmd = &cobra.Command{
	Use:   "genres <text>",
	Short: "Suggest genre names containing text",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer cancel()

		exitCode := runSuggest(ctx, os.Stdout, autocomplete.Genres, args[0])
		if exitCode != 0 {
			os.Exit(exitCode)
		}
	},
}

func init() {
	booksCmd.Flags().StringVar(&booksTitle, "title", "", "Title substring")
	booksCmd.Flags().StringSliceVar(&booksAuthors, "author", nil, "Author name (repeatable)")
	booksCmd.Flags().StringSliceVar(&booksGenres, "genre", nil, "Genre name (repeatable)")
	booksCmd.Flags().Float64Var(&booksMinRating, "min-rating", 0, "Minimum average rating (0-5)")
	booksCmd.Flags().Float64Var(&booksMaxRating, "max-rating", catalog.MaxRating, "Maximum average rating (0-5)")
	booksCmd.Flags().IntVar(&booksPage, "page", 1, "Page number")
	rootCmd.AddCommand(booksCmd, bookCmd, authorsCmd, genresCmd)
}

type booksResult struct {
	Filter catalog.FilterState `json:"filter"`
	Page   catalog.PageState   `json:"page"`
	Books  []client.Book       `json:"books"`
}

// runBooks executes the search and returns exit code
func runBooks(ctx context.Context, w io.Writer) int {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer a.Close()

	engine := catalog.New(a.client, a.cfg.PageSize, debuglog.L())
	q, err := engine.SetFilter(catalog.FilterState{
		Title:     booksTitle,
		Authors:   booksAuthors,
		Genres:    booksGenres,
		MinRating: booksMinRating,
		MaxRating: booksMaxRating,
	})
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	if err := engine.Run(ctx, q); err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	// Totals are only known after the first page, so later pages are
	// clamped against them.
	if booksPage > 1 {
		if q := engine.SetPage(booksPage); q != nil {
			if err := engine.Run(ctx, q); err != nil {
				fmt.Fprintf(w, "Error: %v\n", err)
				return 2
			}
		}
	}

	res := booksResult{Filter: engine.Filter(), Page: engine.Page(), Books: engine.Books()}
	if IsJSONOutput() {
		fmt.Fprintln(w, formatBooksJSON(res))
	} else {
		fmt.Fprintln(w, formatBooksHuman(res, engine.Controls()))
	}
	return 0
}

// formatBooksHuman formats a result page for human readability
func formatBooksHuman(res booksResult, controls pagination.Controls) string {
	if len(res.Books) == 0 {
		return "No books found."
	}
	var b strings.Builder
	for _, book := range res.Books {
		rating := "  -"
		if book.AverageRating != nil {
			rating = fmt.Sprintf("%.1f", *book.AverageRating)
		}
		fmt.Fprintf(&b, "%5d  %s  %s", book.BookID, rating, book.Title)
		if authors := book.AuthorNames(); len(authors) > 0 {
			fmt.Fprintf(&b, " by %s", strings.Join(authors, ", "))
		}
		b.WriteString("\n")
	}
	fmt.Fprintf(&b, "\n%d books, page %d of %d\n", res.Page.TotalItems, res.Page.CurrentPage, res.Page.TotalPages)
	b.WriteString(formatPageButtons(controls))
	return strings.TrimRight(b.String(), "\n")
}

// formatPageButtons renders the page window with the current page bracketed.
func formatPageButtons(c pagination.Controls) string {
	if len(c.Pages) <= 1 {
		return ""
	}
	parts := make([]string, 0, len(c.Pages)+2)
	if c.HasPrev {
		parts = append(parts, "<")
	}
	for _, p := range c.Pages {
		if p == c.Current {
			parts = append(parts, "["+strconv.Itoa(p)+"]")
		} else {
			parts = append(parts, strconv.Itoa(p))
		}
	}
	if c.HasNext {
		parts = append(parts, ">")
	}
	return strings.Join(parts, " ")
}

// formatBooksJSON formats a result page as JSON
func formatBooksJSON(res booksResult) string {
	data, _ := json.MarshalIndent(res, "", "  ")
	return string(data)
}

type bookDetail struct {
	Book  client.Book        `json:"book"`
	Entry *readinglist.Entry `json:"entry,omitempty"`
}

// runBook shows a book and returns exit code
func runBook(ctx context.Context, w io.Writer, rawID string) int {
	id, err := strconv.Atoi(rawID)
	if err != nil || id < 1 {
		fmt.Fprintf(w, "Error: invalid book id %q\n", rawID)
		return 2
	}
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer a.Close()

	book, err := a.client.GetBook(ctx, id)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		if errors.Is(err, client.ErrNotFound) {
			return 1
		}
		return 2
	}

	detail := bookDetail{Book: *book}
	if sess := a.sessions.Current(); sess != nil {
		lists := readinglist.New(a.client, a.cfg.ReadingListLimit, debuglog.L())
		entry, err := lists.Lookup(ctx, sess.UserID, id)
		if err != nil {
			debuglog.Error("lookup reading-list entry", err)
		}
		detail.Entry = entry
	}

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(detail, "", "  ")
		fmt.Fprintln(w, string(data))
	} else {
		fmt.Fprintln(w, formatBookHuman(detail))
	}
	return 0
}

// formatBookHuman formats a book and its entry for human readability
func formatBookHuman(d bookDetail) string {
	b := d.Book
	var out strings.Builder
	fmt.Fprintf(&out, "%s\n", b.Title)
	if authors := b.AuthorNames(); len(authors) > 0 {
		fmt.Fprintf(&out, "by %s\n", strings.Join(authors, ", "))
	}
	out.WriteString("\n")
	if b.AverageRating != nil {
		fmt.Fprintf(&out, "Rating:   %.2f", *b.AverageRating)
		if b.TotalRatings != nil {
			fmt.Fprintf(&out, " (%d ratings)", *b.TotalRatings)
		}
		out.WriteString("\n")
	}
	if b.PageCount != nil {
		fmt.Fprintf(&out, "Pages:    %d\n", *b.PageCount)
	}
	if b.Format != nil {
		fmt.Fprintf(&out, "Format:   %s\n", *b.Format)
	}
	if b.ISBN != "" {
		fmt.Fprintf(&out, "ISBN:     %s\n", b.ISBN)
	}
	if genres := b.GenreNames(); len(genres) > 0 {
		fmt.Fprintf(&out, "Genres:   %s\n", strings.Join(genres, ", "))
	}
	fmt.Fprintf(&out, "Link:     %s\n", b.Link())
	if b.Description != nil && *b.Description != "" {
		fmt.Fprintf(&out, "\n%s\n", *b.Description)
	}

	if d.Entry == nil {
		out.WriteString("\nNot on your reading list.")
		return out.String()
	}
	e := d.Entry
	fmt.Fprintf(&out, "\nReading list: %s", e.Status.Label())
	if e.ProgressPages != nil {
		fmt.Fprintf(&out, ", page %d", *e.ProgressPages)
		if b.PageCount != nil {
			fmt.Fprintf(&out, " of %d (%.0f%%)", *b.PageCount, e.ProgressRatio()*100)
		}
	}
	if e.UserRating != nil {
		fmt.Fprintf(&out, ", rated %d/5", *e.UserRating)
	}
	if e.Note != nil {
		fmt.Fprintf(&out, "\nNote: %s", *e.Note)
	}
	return out.String()
}

// runSuggest lists facet suggestions and returns exit code
func runSuggest(ctx context.Context, w io.Writer, kind autocomplete.Kind, text string) int {
	a, err := openApp(ctx)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}
	defer a.Close()

	suggest := autocomplete.Source(kind, a.client)
	names, err := suggest(ctx, strings.TrimSpace(text), a.cfg.SuggestionLimit)
	if err != nil {
		fmt.Fprintf(w, "Error: %v\n", err)
		return 2
	}

	if IsJSONOutput() {
		data, _ := json.MarshalIndent(names, "", "  ")
		fmt.Fprintln(w, string(data))
		return 0
	}
	if len(names) == 0 {
		fmt.Fprintf(w, "No %s match %q.\n", kind, text)
		return 1
	}
	for _, s := range names {
		fmt.Fprintln(w, s.Name)
	}
	return 0
}
