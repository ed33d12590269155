// ABOUTME: Root bubbletea model for the TUI application
// ABOUTME: Manages screen state and routes keyboard input to child components

package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/markalston/bookshelf/internal/autocomplete"
	"github.com/markalston/bookshelf/internal/cache"
	"github.com/markalston/bookshelf/internal/catalog"
	"github.com/markalston/bookshelf/internal/client"
	"github.com/markalston/bookshelf/internal/config"
	"github.com/markalston/bookshelf/internal/readinglist"
	"github.com/markalston/bookshelf/internal/session"
	"github.com/markalston/bookshelf/internal/tui/browser"
	"github.com/markalston/bookshelf/internal/tui/confirm"
	"github.com/markalston/bookshelf/internal/tui/detail"
	"github.com/markalston/bookshelf/internal/tui/editor"
	"github.com/markalston/bookshelf/internal/tui/icons"
	"github.com/markalston/bookshelf/internal/tui/login"
	"github.com/markalston/bookshelf/internal/tui/menu"
	"github.com/markalston/bookshelf/internal/tui/shelf"
	"github.com/markalston/bookshelf/internal/tui/styles"
)

// Screen represents the current TUI screen
type Screen int

const (
	ScreenMenu Screen = iota
	ScreenLogin
	ScreenBrowser
	ScreenDetail
	ScreenShelf
	ScreenEditor
	ScreenConfirm
)

// Layout constants
const (
	minTerminalWidth = 80
	frameHeight      = 2 // header and footer lines
)

// bookCacheTTL bounds how long a book detail snapshot is reused.
const bookCacheTTL = 10 * time.Minute

// Deps are the collaborators the TUI runs against
type Deps struct {
	Client   *client.Client
	Sessions *session.Store
	Config   *config.Config
	Logger   *zap.Logger
}

// authDoneMsg is sent when a login or registration completes
type authDoneMsg struct {
	mode login.Mode
	sess *session.Session
	err  error
}

// App is the root model for the TUI
type App struct {
	ctx    context.Context
	client *client.Client
	sess   *session.Store
	cfg    *config.Config
	logger *zap.Logger
	lists  *readinglist.Synchronizer
	books  *cache.Cache[int, *client.Book]

	screen Screen
	// detailFrom is where Back on the detail screen returns to.
	detailFrom Screen
	width      int
	height     int
	notice     string
	spinner    spinner.Model

	// Child models
	menu    *menu.Menu
	login   *login.Form
	browser *browser.Browser
	detail  *detail.Detail
	shelf   *shelf.Shelf
	editor  *editor.Editor
	confirm *confirm.Dialog
}

// New creates a new TUI application
func New(ctx context.Context, deps Deps) *App {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	cfg := deps.Config
	if cfg == nil {
		cfg = &config.Config{}
	}
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(styles.Primary)

	a := &App{
		ctx:     ctx,
		client:  deps.Client,
		sess:    deps.Sessions,
		cfg:     cfg,
		logger:  logger.Named("tui"),
		lists:   readinglist.New(deps.Client, cfg.ReadingListLimit, logger),
		books:   cache.New[int, *client.Book](bookCacheTTL, logger),
		screen:  ScreenMenu,
		spinner: sp,
	}
	a.menu = a.newMenu()
	return a
}

func (a *App) newMenu() *menu.Menu {
	if cur := a.sess.Current(); cur != nil {
		return menu.New(true, cur.Name())
	}
	return menu.New(false, "")
}

// Close releases background resources
func (a *App) Close() {
	a.books.Close()
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.menu.Init(), a.spinner.Tick)
}

// userID is the signed-in user's id, or zero.
func (a *App) userID() int {
	if cur := a.sess.Current(); cur != nil {
		return cur.UserID
	}
	return 0
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		content := tea.WindowSizeMsg{Width: msg.Width - 2, Height: msg.Height - frameHeight}
		if a.browser != nil {
			a.browser.SetSize(content.Width, content.Height)
		}
		if a.detail != nil {
			a.detail.SetWidth(content.Width)
		}
		if a.shelf != nil {
			a.shelf.SetHeight(content.Height)
		}
		return a, a.forwardToForm(content)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		return a.routeKey(msg)

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case menu.ChosenMsg:
		return a.handleMenuChoice(msg.Choice)

	case menu.CancelledMsg:
		return a, tea.Quit

	case login.SubmittedMsg:
		return a, a.authenticate(msg)

	case login.CancelledMsg:
		return a.showMenu("")

	case authDoneMsg:
		if msg.err != nil {
			a.logger.Debug("sign-in failed", zap.Error(msg.err))
			if a.login != nil {
				return a, a.login.Fail(msg.err)
			}
			return a, nil
		}
		a.client.SetToken(msg.sess.Token)
		a.lists.Reset()
		a.login = nil
		verb := "Signed in"
		if msg.mode == login.ModeRegister {
			verb = "Account created; signed in"
		}
		return a.showMenu(fmt.Sprintf("%s as %s.", verb, msg.sess.Name()))

	case browser.OpenBookMsg:
		return a.openDetail(msg.BookID, ScreenBrowser)

	case browser.BackMsg:
		return a.showMenu("")

	case shelf.OpenBookMsg:
		return a.openDetail(msg.BookID, ScreenShelf)

	case shelf.BackMsg:
		return a.showMenu("")

	case detail.BackMsg:
		a.detail = nil
		if a.detailFrom == ScreenShelf && a.shelf != nil {
			a.screen = ScreenShelf
			return a, a.shelf.Reload()
		}
		a.screen = ScreenBrowser
		return a, nil

	case detail.EditMsg:
		a.editor = editor.New(msg.Entry)
		a.screen = ScreenEditor
		return a, a.editor.Init()

	case editor.SavedMsg:
		a.editor = nil
		a.screen = ScreenDetail
		if msg.Patch.Empty() || a.detail == nil {
			a.notice = "Nothing changed."
			return a, nil
		}
		return a, a.detail.Save(msg.Patch)

	case editor.CancelledMsg:
		a.editor = nil
		a.screen = ScreenDetail
		return a, nil

	case detail.RemoveMsg:
		a.confirm = confirm.New(
			fmt.Sprintf("Remove %q from your reading list?", msg.Title),
			"Your progress, rating and note for this book will be lost.",
			"Remove")
		a.screen = ScreenConfirm
		return a, a.confirm.Init()

	case confirm.ResultMsg:
		a.confirm = nil
		a.screen = ScreenDetail
		if a.detail == nil {
			return a, nil
		}
		return a, a.detail.Remove(msg.Confirmed)
	}

	// Results and internal messages of child models.
	return a, a.forward(msg)
}

// forward hands msg to every live screen; each ignores what is not its own.
func (a *App) forward(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	if a.browser != nil {
		_, cmd := a.browser.Update(msg)
		cmds = append(cmds, cmd)
	}
	if a.detail != nil {
		_, cmd := a.detail.Update(msg)
		cmds = append(cmds, cmd)
	}
	if a.shelf != nil {
		_, cmd := a.shelf.Update(msg)
		cmds = append(cmds, cmd)
	}
	cmds = append(cmds, a.forwardToForm(msg))
	return tea.Batch(cmds...)
}

// forwardToForm passes msg to the active huh-based screen, which needs its
// internal messages.
func (a *App) forwardToForm(msg tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	switch {
	case a.screen == ScreenMenu && a.menu != nil:
		_, cmd = a.menu.Update(msg)
	case a.screen == ScreenLogin && a.login != nil:
		_, cmd = a.login.Update(msg)
	case a.screen == ScreenEditor && a.editor != nil:
		_, cmd = a.editor.Update(msg)
	case a.screen == ScreenConfirm && a.confirm != nil:
		_, cmd = a.confirm.Update(msg)
	}
	return cmd
}

func (a *App) routeKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	a.notice = ""
	var cmd tea.Cmd
	switch a.screen {
	case ScreenBrowser:
		_, cmd = a.browser.Update(msg)
	case ScreenDetail:
		_, cmd = a.detail.Update(msg)
	case ScreenShelf:
		_, cmd = a.shelf.Update(msg)
	default:
		cmd = a.forwardToForm(msg)
	}
	return a, cmd
}

func (a *App) showMenu(notice string) (tea.Model, tea.Cmd) {
	a.notice = notice
	a.menu = a.newMenu()
	a.screen = ScreenMenu
	return a, a.menu.Init()
}

func (a *App) handleMenuChoice(choice menu.Choice) (tea.Model, tea.Cmd) {
	switch choice {
	case menu.ChoiceBrowse:
		a.screen = ScreenBrowser
		if a.browser == nil {
			a.browser = a.newBrowser()
			return a, a.browser.Init()
		}
		return a, nil

	case menu.ChoiceReadingList:
		if a.userID() == 0 {
			return a.showLogin(login.ModeLogin)
		}
		// A fresh screen refetches on every visit.
		a.shelf = shelf.New(a.ctx, a.lists, a.userID())
		a.shelf.SetHeight(a.height - frameHeight)
		a.screen = ScreenShelf
		return a, a.shelf.Init()

	case menu.ChoiceLogin:
		return a.showLogin(login.ModeLogin)

	case menu.ChoiceRegister:
		return a.showLogin(login.ModeRegister)

	case menu.ChoiceLogout:
		if err := a.sess.Logout(a.ctx); err != nil {
			a.logger.Warn("logout failed", zap.Error(err))
			return a.showMenu("Could not clear the stored session: " + err.Error())
		}
		a.client.SetToken("")
		a.lists.Reset()
		a.shelf = nil
		return a.showMenu("Signed out.")

	case menu.ChoiceQuit:
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) showLogin(mode login.Mode) (tea.Model, tea.Cmd) {
	a.login = login.New(mode)
	a.screen = ScreenLogin
	return a, a.login.Init()
}

func (a *App) newBrowser() *browser.Browser {
	engine := catalog.New(a.client, a.cfg.PageSize, a.logger)
	opts := autocomplete.Options{
		Debounce: a.cfg.Debounce,
		Limit:    a.cfg.SuggestionLimit,
		Logger:   a.logger,
	}
	b := browser.New(a.ctx, engine,
		autocomplete.New(autocomplete.Authors, autocomplete.Source(autocomplete.Authors, a.client), opts),
		autocomplete.New(autocomplete.Genres, autocomplete.Source(autocomplete.Genres, a.client), opts))
	b.SetSize(a.width-2, a.height-frameHeight)
	return b
}

func (a *App) openDetail(bookID int, from Screen) (tea.Model, tea.Cmd) {
	a.detail = detail.New(a.ctx, a.loadBook, a.lists, a.userID(), bookID)
	a.detail.SetWidth(a.width - 2)
	a.detailFrom = from
	a.screen = ScreenDetail
	return a, a.detail.Init()
}

// loadBook serves book snapshots from the cache, fetching on a miss.
func (a *App) loadBook(ctx context.Context, id int) (*client.Book, error) {
	return a.books.GetOrLoad(ctx, id, func(ctx context.Context) (*client.Book, error) {
		return a.client.GetBook(ctx, id)
	})
}

func (a *App) authenticate(sub login.SubmittedMsg) tea.Cmd {
	ctx, sessions, api := a.ctx, a.sess, a.client
	return func() tea.Msg {
		var (
			sess *session.Session
			err  error
		)
		if sub.Mode == login.ModeRegister {
			sess, err = sessions.Register(ctx, api, sub.Email, sub.Password, sub.DisplayName)
		} else {
			sess, err = sessions.Login(ctx, api, sub.Email, sub.Password)
		}
		return authDoneMsg{mode: sub.Mode, sess: sess, err: err}
	}
}

// View implements tea.Model
func (a *App) View() string {
	var content string

	switch a.screen {
	case ScreenLogin:
		content = a.login.View()
	case ScreenBrowser:
		content = a.browser.View()
	case ScreenDetail:
		content = a.detail.View()
	case ScreenShelf:
		content = a.shelf.View()
	case ScreenEditor:
		content = a.editor.View()
	case ScreenConfirm:
		content = a.detail.View() + "\n\n" + a.confirm.View()
	default:
		content = a.menu.View()
		if a.notice != "" {
			content = styles.StatusOK.Render(a.notice) + "\n\n" + content
		}
	}

	return a.wrapWithFrame(content)
}

// busy reports whether the visible screen waits on the network
func (a *App) busy() bool {
	switch a.screen {
	case ScreenBrowser:
		return a.browser.Loading()
	case ScreenDetail:
		return a.detail.Busy()
	case ScreenShelf:
		return a.shelf.Loading()
	case ScreenLogin:
		return a.login.Pending()
	}
	return false
}

// screenTitle names the visible screen in the header
func (a *App) screenTitle() string {
	switch a.screen {
	case ScreenBrowser:
		return icons.Search.String() + " Catalog"
	case ScreenDetail, ScreenEditor, ScreenConfirm:
		return icons.Book.String() + " Book"
	case ScreenShelf:
		return icons.Shelf.String() + " Reading list"
	case ScreenLogin:
		return icons.User.String() + " Account"
	}
	return ""
}

// renderHeader creates the header bar with app branding and context
func (a *App) renderHeader() string {
	width := a.width
	if width < minTerminalWidth {
		width = minTerminalWidth
	}

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	titleStyle := lipgloss.NewStyle().Foreground(styles.Primary).Bold(true)
	contextStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	leftText := fmt.Sprintf(" %s %s ", icons.App.String(), titleStyle.Render("Bookshelf"))
	if t := a.screenTitle(); t != "" {
		leftText += lipgloss.NewStyle().Foreground(styles.Text).Render(t) + " "
	}

	rightText := contextStyle.Render("signed out") + " "
	if cur := a.sess.Current(); cur != nil {
		rightText = contextStyle.Render(icons.User.String()+" "+cur.Name()) + " "
	}

	fillWidth := width - 4 - lipgloss.Width(leftText) - lipgloss.Width(rightText)
	if fillWidth < 0 {
		fillWidth = 0
	}

	return borderStyle.Render("╭─" + leftText + strings.Repeat("─", fillWidth) + rightText + "─╮")
}

// renderFooter creates the footer with keyboard shortcuts and status
func (a *App) renderFooter() string {
	width := a.width
	if width < minTerminalWidth {
		width = minTerminalWidth
	}

	borderStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	keyStyle := lipgloss.NewStyle().Foreground(styles.Primary)
	labelStyle := lipgloss.NewStyle().Foreground(styles.Muted)
	statusStyle := lipgloss.NewStyle().Foreground(styles.Secondary)

	shortcuts := a.shortcuts()
	var styled []string
	for _, s := range shortcuts {
		parts := strings.SplitN(s, " ", 2)
		if len(parts) == 2 {
			styled = append(styled, keyStyle.Render(parts[0])+" "+labelStyle.Render(parts[1]))
		} else {
			styled = append(styled, s)
		}
	}
	leftText := " " + strings.Join(styled, "  ") + " "

	rightText := ""
	if a.busy() {
		rightText = " " + a.spinner.View() + statusStyle.Render("Loading") + " "
	}

	fillWidth := width - 4 - lipgloss.Width(leftText) - lipgloss.Width(rightText)
	if fillWidth < 0 {
		fillWidth = 0
	}

	return borderStyle.Render("╰─" + leftText + strings.Repeat("─", fillWidth) + rightText + "─╯")
}

func (a *App) shortcuts() []string {
	switch a.screen {
	case ScreenMenu:
		return []string{"↑↓ Navigate", "Enter Select", "q Quit"}
	case ScreenLogin:
		return []string{"Tab Next", "Enter Submit", "Esc Cancel"}
	case ScreenBrowser:
		return a.browser.Shortcuts()
	case ScreenDetail:
		return a.detail.Shortcuts()
	case ScreenShelf:
		return a.shelf.Shortcuts()
	case ScreenEditor:
		return []string{"Tab Next", "Enter Save", "Esc Cancel"}
	case ScreenConfirm:
		return []string{"←→ Choose", "Enter Confirm", "Esc Cancel"}
	}
	return nil
}

// wrapWithFrame wraps content with header and footer
func (a *App) wrapWithFrame(content string) string {
	var sb strings.Builder

	sb.WriteString(a.renderHeader())
	sb.WriteString("\n")
	sb.WriteString(content)
	sb.WriteString("\n")
	sb.WriteString(a.renderFooter())

	return sb.String()
}

// Run starts the TUI and blocks until it exits
func Run(ctx context.Context, deps Deps) error {
	app := New(ctx, deps)
	defer app.Close()

	p := tea.NewProgram(
		app,
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	_, err := p.Run()
	return err
}
