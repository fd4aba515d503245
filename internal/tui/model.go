// Package tui is the terminal dashboard: the derived view with filter
// pills, sort, favorites, dark mode and an AI search panel.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"go.uber.org/zap"

	"github.com/HendryAvila/relnotes/internal/aisearch"
	"github.com/HendryAvila/relnotes/internal/catalog"
	"github.com/HendryAvila/relnotes/internal/prefs"
	"github.com/HendryAvila/relnotes/internal/view"
)

// PreferenceStore is the subset of prefs.Store the dashboard mutates.
type PreferenceStore interface {
	Snapshot() prefs.Preferences
	ToggleFavorite(productID string) (prefs.Preferences, error)
	ToggleTypeFilter(t catalog.ChangeType) (prefs.Preferences, error)
	ClearTypeFilters() (prefs.Preferences, error)
	SetSortOption(o prefs.SortOption) (prefs.Preferences, error)
	SetShowFavoritesOnly(v bool) (prefs.Preferences, error)
	SetDarkMode(v bool) (prefs.Preferences, error)
}

// searchState tracks the AI panel.
type searchState int

const (
	searchIdle searchState = iota
	searchPending
	searchResolved
	searchFailed
)

const (
	defaultWidth      = 80
	changesPerProduct = 3
	defaultAskTimeout = 60 * time.Second
)

// answerMsg carries an AI result back to Update, tagged with the
// sequence token of the request that produced it.
type answerMsg struct {
	seq    uint64
	answer aisearch.Answer
	err    error
}

// Config holds the dashboard's dependencies.
type Config struct {
	Catalog    catalog.Store
	Prefs      PreferenceStore
	AI         *aisearch.Service
	Log        *zap.Logger
	AskTimeout time.Duration
}

// Model is the bubbletea model for the dashboard.
type Model struct {
	catalog  catalog.Store
	prefs    PreferenceStore
	ai       *aisearch.Service
	log      *zap.Logger
	timeout  time.Duration
	products []catalog.Product

	current prefs.Preferences
	entries []view.Entry
	cursor  int

	styles   Styles
	renderer *glamour.TermRenderer
	width    int

	searching bool
	input     textinput.Model
	spinner   spinner.Model
	seq       *aisearch.Sequencer
	state     searchState
	query     string
	answer    aisearch.Answer

	status   string
	quitting bool
}

// New creates the dashboard model from the current catalog and
// preferences.
func New(cfg Config) Model {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.AI == nil {
		cfg.AI = aisearch.New(nil, cfg.Log)
	}
	if cfg.AskTimeout <= 0 {
		cfg.AskTimeout = defaultAskTimeout
	}

	ti := textinput.New()
	ti.Placeholder = "Ask about the release notes... (Enter to send, Esc to cancel)"
	ti.Prompt = "│ "
	ti.CharLimit = 2048
	ti.Width = defaultWidth - 4

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		catalog:  cfg.Catalog,
		prefs:    cfg.Prefs,
		ai:       cfg.AI,
		log:      cfg.Log,
		timeout:  cfg.AskTimeout,
		products: cfg.Catalog.Products(),
		width:    defaultWidth,
		input:    ti,
		spinner:  sp,
		seq:      &aisearch.Sequencer{},
	}
	m.apply(cfg.Prefs.Snapshot())
	return m
}

// Run starts the dashboard in the alternate screen and blocks until the
// user quits or ctx is cancelled.
func Run(ctx context.Context, m Model) error {
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	return err
}

// Init implements tea.Model.
func (m Model) Init() tea.Cmd {
	return nil
}

// apply stores a preferences snapshot and recomputes everything derived
// from it.
func (m *Model) apply(p prefs.Preferences) {
	darkChanged := m.renderer == nil || p.DarkMode != m.current.DarkMode
	m.current = p
	m.entries = view.Compute(m.products, p)
	if m.cursor >= len(m.entries) {
		m.cursor = max(len(m.entries)-1, 0)
	}
	if darkChanged {
		m.styles = stylesFor(p.DarkMode)
		m.spinner.Style = m.styles.Spinner
		m.renderer = newRenderer(p.DarkMode, m.width)
	}
}

func newRenderer(dark bool, width int) *glamour.TermRenderer {
	style := "light"
	if dark {
		style = "dark"
	}
	r, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle(style),
		glamour.WithWordWrap(max(width-4, 20)),
	)
	if err != nil {
		return nil
	}
	return r
}

// mutated records the result of a preference mutation. Write failures
// keep the new state for this session and surface a status line.
func (m *Model) mutated(p prefs.Preferences, err error) {
	m.apply(p)
	if err != nil {
		m.log.Warn("saving preferences failed", zap.Error(err))
		m.status = "Could not save preferences: " + err.Error()
		return
	}
	m.status = ""
}

// selected returns the product under the cursor.
func (m Model) selected() (catalog.Product, bool) {
	if len(m.entries) == 0 {
		return catalog.Product{}, false
	}
	return m.entries[m.cursor].Product, true
}

// askCmd runs the AI request off the update loop.
func (m Model) askCmd(seq uint64, query string) tea.Cmd {
	ai, timeout, products := m.ai, m.timeout, m.products
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()
		answer, err := ai.Ask(ctx, query, products)
		return answerMsg{seq: seq, answer: answer, err: err}
	}
}

// Update implements tea.Model.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.input.Width = max(msg.Width-4, 10)
		m.renderer = newRenderer(m.current.DarkMode, msg.Width)
		return m, nil

	case answerMsg:
		if !m.seq.IsLatest(msg.seq) {
			return m, nil
		}
		if msg.err != nil {
			m.state = searchFailed
			return m, nil
		}
		m.state = searchResolved
		m.answer = msg.answer
		return m, nil

	case spinner.TickMsg:
		if m.state != searchPending {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}
		if m.searching {
			return m.updateSearch(msg)
		}
		return m.updateBrowse(msg)
	}
	return m, nil
}

func (m Model) updateSearch(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		m.searching = false
		m.input.Blur()
		return m, nil
	case tea.KeyEnter:
		query := strings.TrimSpace(m.input.Value())
		if query == "" {
			return m, nil
		}
		m.searching = false
		m.input.Blur()
		m.input.SetValue("")
		m.query = query
		m.state = searchPending
		m.answer = aisearch.Answer{}
		tok := m.seq.Next()
		return m, tea.Batch(m.spinner.Tick, m.askCmd(tok, query))
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) updateBrowse(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	switch key {
	case "q":
		m.quitting = true
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.entries)-1 {
			m.cursor++
		}
	case "f":
		if p, ok := m.selected(); ok {
			m.mutated(m.prefs.ToggleFavorite(p.ID))
		}
	case "F":
		m.mutated(m.prefs.SetShowFavoritesOnly(!m.current.ShowFavoritesOnly))
	case "s":
		next := prefs.SortAlphabetical
		if m.current.SortOption == prefs.SortAlphabetical {
			next = prefs.SortRecent
		}
		m.mutated(m.prefs.SetSortOption(next))
	case "d":
		m.mutated(m.prefs.SetDarkMode(!m.current.DarkMode))
	case "0":
		m.mutated(m.prefs.ClearTypeFilters())
	case "/":
		m.searching = true
		return m, m.input.Focus()
	case "esc":
		if m.state != searchPending {
			m.state = searchIdle
			m.answer = aisearch.Answer{}
		}
	default:
		if len(key) == 1 && key[0] >= '1' && int(key[0]-'0') <= len(catalog.AllTypes) {
			m.mutated(m.prefs.ToggleTypeFilter(catalog.AllTypes[key[0]-'1']))
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m Model) View() string {
	if m.quitting {
		return ""
	}
	var sb strings.Builder
	s := m.styles

	stats := view.Summary(m.entries)
	sb.WriteString(s.Title.Render("Release Notes"))
	sb.WriteString(s.Muted.Render(fmt.Sprintf("  %d products · %d changes · sort: %s", stats.Products, stats.Changes, m.current.SortOption)))
	if m.current.ShowFavoritesOnly {
		sb.WriteString(s.Muted.Render(" · ★ favorites only"))
	}
	sb.WriteString("\n\n")

	active := m.current.FilterSet()
	for i, t := range catalog.AllTypes {
		sb.WriteString(s.pill(i+1, t, active[t]))
	}
	sb.WriteString("\n\n")

	if stats.Empty() {
		sb.WriteString(s.Product.Render("No Matching Products Found"))
		sb.WriteString("\n")
		sb.WriteString(s.Muted.Render("Try adjusting your filters or favorites. Press 0 to clear filters, F to show all products."))
		sb.WriteString("\n")
	} else {
		m.renderEntries(&sb)
	}

	sb.WriteString("\n")
	sb.WriteString(m.renderSearch())

	if m.status != "" {
		sb.WriteString("\n")
		sb.WriteString(s.Error.Render(m.status))
	}
	sb.WriteString("\n")
	sb.WriteString(s.Muted.Render("↑/↓ move · f favorite · F favorites only · 1-6 filter · 0 clear · s sort · d theme · / ask · q quit"))
	return sb.String()
}

func (m Model) renderEntries(sb *strings.Builder) {
	s := m.styles
	favs := m.current.FavoriteSet()
	for i, e := range m.entries {
		star := "☆"
		if favs[e.Product.ID] {
			star = "★"
		}
		line := fmt.Sprintf("%s %s %s", star, e.Product.Icon, e.Product.Name)
		if i == m.cursor {
			sb.WriteString(s.Selected.Render("› " + line))
		} else {
			sb.WriteString(s.Product.Render("  " + line))
		}
		sb.WriteString("\n")

		shown := e.Changes
		if len(shown) > changesPerProduct {
			shown = shown[:changesPerProduct]
		}
		for _, c := range shown {
			sb.WriteString(s.Change.Render(fmt.Sprintf("%s %s  %s", c.Type.Emoji(), c.Day(), c.Description)))
			sb.WriteString("\n")
		}
		if hidden := len(e.Changes) - len(shown); hidden > 0 {
			sb.WriteString(s.Muted.PaddingLeft(4).Render(fmt.Sprintf("…and %d more", hidden)))
			sb.WriteString("\n")
		}
	}
}

func (m Model) renderSearch() string {
	s := m.styles
	if m.searching {
		return s.Panel.Render(m.input.View())
	}
	switch m.state {
	case searchPending:
		return s.Panel.Render(fmt.Sprintf("%s Asking about %q...", m.spinner.View(), m.query))
	case searchFailed:
		return s.Panel.Render(s.Error.Render(aisearch.FailureMessage))
	case searchResolved:
		body := m.answer.Text
		if m.renderer != nil {
			if out, err := m.renderer.Render(body); err == nil {
				body = strings.TrimSpace(out)
			}
		}
		header := s.Title.Render("AI answer")
		if m.answer.Fallback {
			header += s.Muted.Render("  (mock: no API key configured)")
		}
		return s.Panel.Render(header + "\n" + body)
	}
	return s.Muted.Render("Press / to ask a question about these release notes.")
}
