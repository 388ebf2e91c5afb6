// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI walks one sync run through a multi-view workflow:
//  1. [PreviewView] : review the parsed tracklist before searching
//  2. [MatchView] : watch matching progress in real time
//  3. [ReviewView] : inspect matched and unmatched tracks
//  4. [ConfirmView] : confirm the playlist write
//  5. [SyncView] : watch the playlist write
//  6. [ResultView] : final report with match counts
//
// The [Model] follows the standard Init/Update/View pattern. Progress updates
// flow through a channel from the PlaylistEngine and matcher, providing
// non-blocking status reporting.
//
// Keyboard navigation uses vim-style bindings (j/k, enter, esc, y/n, q) with
// contextual help displayed via charmbracelet/bubbles/help.
package ui

import (
	"context"
	"fmt"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/tlsync/internal/match"
	"github.com/desertthunder/tlsync/internal/tasks"
	"github.com/desertthunder/tlsync/internal/tracklist"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	PreviewView ViewState = iota
	MatchView
	ReviewView
	ConfirmView
	SyncView
	ResultView
)

type matchCompleteMsg struct {
	results []match.MatchResult
	err     error
}

type syncCompleteMsg struct {
	report *tasks.SyncReport
	err    error
}

type progressUpdateMsg tasks.ProgressUpdate

// Model represents the TUI application state for one sync run.
type Model struct {
	ctx     context.Context
	view    ViewState
	engine  *tasks.PlaylistEngine
	matcher *match.Matcher
	opts    tasks.RunOptions

	parsed  tracklist.ParsedTracklist
	results []match.MatchResult
	report  *tasks.SyncReport
	err     error

	width  int
	height int

	previewList  list.Model
	reviewList   list.Model
	progressChan chan tasks.ProgressUpdate
	progress     tasks.ProgressUpdate

	help help.Model
	keys keyMap
}

// NewModel creates a TUI model for the given raw tracklist text.
func NewModel(ctx context.Context, engine *tasks.PlaylistEngine, matcher *match.Matcher, raw string, opts tasks.RunOptions) *Model {
	parsed := engine.Parse(raw, opts.NameOverride)

	items := make([]list.Item, len(parsed.Tracks))
	for i, candidate := range parsed.Tracks {
		items[i] = candidateItem{candidate: candidate}
	}
	previewList := list.New(items, list.NewDefaultDelegate(), 0, 0)
	previewList.Title = fmt.Sprintf("Tracklist: %s (%d tracks)", parsed.Title, len(parsed.Tracks))

	return &Model{
		ctx:         ctx,
		view:        PreviewView,
		engine:      engine,
		matcher:     matcher,
		opts:        opts,
		parsed:      parsed,
		previewList: previewList,
		help:        help.New(),
		keys:        newKeyMap(),
	}
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.previewList.SetSize(msg.Width-4, msg.Height-8)
		if m.reviewList.Width() == 0 {
			m.reviewList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case PreviewView:
			return m.handlePreviewKeys(msg)
		case ReviewView:
			return m.handleReviewKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case progressUpdateMsg:
		m.progress = tasks.ProgressUpdate(msg)
		return m, m.waitForProgress()

	case matchCompleteMsg:
		m.drainProgress()
		if msg.err != nil {
			m.err = msg.err
			m.view = ResultView
			return m, nil
		}
		m.results = msg.results

		items := make([]list.Item, len(msg.results))
		for i, result := range msg.results {
			items[i] = resultItem{result: result}
		}
		m.reviewList = list.New(items, list.NewDefaultDelegate(), 0, 0)
		m.reviewList.Title = fmt.Sprintf("Matches (%d/%d)", matchedCount(msg.results), len(msg.results))
		m.reviewList.SetSize(m.width-4, m.height-8)
		m.view = ReviewView
		return m, nil

	case syncCompleteMsg:
		m.drainProgress()
		m.report = msg.report
		m.err = msg.err
		m.view = ResultView
		return m, nil
	}

	return m.updateLists(msg)
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case PreviewView:
		return m.renderPreview()
	case MatchView:
		return m.renderProgress("Matching Tracks")
	case ReviewView:
		return m.renderReview()
	case ConfirmView:
		return m.renderConfirm()
	case SyncView:
		return m.renderProgress("Syncing Playlist")
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePreviewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "enter":
		if len(m.parsed.Tracks) == 0 {
			return m, tea.Quit
		}
		m.view = MatchView
		return m, m.startMatching()
	}

	var cmd tea.Cmd
	m.previewList, cmd = m.previewList.Update(msg)
	return m, cmd
}

func (m *Model) handleReviewKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		m.view = PreviewView
		return m, nil
	case "enter":
		m.view = ConfirmView
		return m, nil
	}

	var cmd tea.Cmd
	m.reviewList, cmd = m.reviewList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c", "n":
		m.view = ReviewView
		return m, nil
	case "y":
		m.view = SyncView
		return m, m.startSync()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "r":
		m.view = PreviewView
		m.results = nil
		m.report = nil
		m.err = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PreviewView:
		m.previewList, cmd = m.previewList.Update(msg)
	case ReviewView:
		m.reviewList, cmd = m.reviewList.Update(msg)
	}
	return m, cmd
}

func (m *Model) startMatching() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 64)
	progressChan := m.progressChan

	m.matcher.SetProgress(func(done, total int, result match.MatchResult) {
		select {
		case progressChan <- tasks.ProgressUpdate{
			Phase:   tasks.MatchTracks,
			Step:    done,
			Total:   total,
			Message: result.Candidate.String(),
		}:
		default:
		}
	})

	matchCmd := func() tea.Msg {
		results, err := m.matcher.MatchAll(m.ctx, m.parsed.Tracks)
		return matchCompleteMsg{results: results, err: err}
	}
	return tea.Batch(matchCmd, m.waitForProgress())
}

func (m *Model) startSync() tea.Cmd {
	m.progressChan = make(chan tasks.ProgressUpdate, 64)
	progressChan := m.progressChan

	syncCmd := func() tea.Msg {
		report, err := m.engine.Sync(m.ctx, progressChan, m.parsed, m.results, m.opts)
		return syncCompleteMsg{report: report, err: err}
	}
	return tea.Batch(syncCmd, m.waitForProgress())
}

func (m *Model) waitForProgress() tea.Cmd {
	progressChan := m.progressChan
	return func() tea.Msg {
		if progressChan == nil {
			return nil
		}
		update, ok := <-progressChan
		if !ok {
			return nil
		}
		return progressUpdateMsg(update)
	}
}

func (m *Model) drainProgress() {
	if m.progressChan != nil {
		close(m.progressChan)
		m.progressChan = nil
	}
}

func (m *Model) renderPreview() string {
	helpKeys := []key.Binding{m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.previewList.View(), helpView)
}

func (m *Model) renderProgress(title string) string {
	header := styles.title.Render(title)
	step := ""
	if m.progress.Total > 0 {
		step = fmt.Sprintf("(%d/%d) ", m.progress.Step, m.progress.Total)
	}
	return fmt.Sprintf("%s\n\n%s%s", header, step, m.progress.Message)
}

func (m *Model) renderReview() string {
	syncKey := key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "sync"))
	helpKeys := []key.Binding{syncKey, m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.reviewList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	action := "Sync"
	if m.opts.DryRun {
		action = "Dry-run"
	}
	matched := matchedCount(m.results)
	title := styles.title.Render(fmt.Sprintf("%s %d track(s) to '%s'?", action, matched, m.playlistTitle()))
	info := fmt.Sprintf("\nMatched: %d/%d\n", matched, len(m.results))

	helpKeys := []key.Binding{m.keys.yes, m.keys.no, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s\n%s", title, info, helpView)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Sync failed: %v\n\nPress r to retry, q to quit", m.err))
	}
	if m.report == nil {
		return styles.err.Render("No result available\n\nPress r to retry, q to quit")
	}

	title := styles.ok.Render("✓ Sync Complete!")
	info := fmt.Sprintf(
		"\nPlaylist: %s\nMatched: %d/%d (%.1f%%)",
		m.report.PlaylistName,
		m.report.MatchedCount,
		m.report.TotalCount,
		m.report.MatchPercentage(),
	)

	var failed string
	if unmatched := m.report.Unmatched(); len(unmatched) > 0 {
		failed = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("Unmatched %d track(s):", len(unmatched))))
		for _, result := range unmatched {
			failed += fmt.Sprintf("\n  • %s", result.Candidate.String())
		}
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, failed, helpView)
}

func (m *Model) playlistTitle() string {
	if m.parsed.Title != "" {
		return m.parsed.Title
	}
	return "Untitled Tracklist"
}

func matchedCount(results []match.MatchResult) int {
	count := 0
	for _, result := range results {
		if result.Status == match.StatusMatched {
			count++
		}
	}
	return count
}
