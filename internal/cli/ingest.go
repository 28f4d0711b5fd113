package cli

import (
	"context"
	"fmt"

	"charm.land/bubbles/v2/progress"
	tea "charm.land/bubbletea/v2"
	"github.com/spf13/cobra"

	"github.com/lecternhq/lectern/internal/service"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [folder]",
	Short: "Index course documents into the vector store",
	Long: `Index all course documents from a folder.

Each document carries a course header (title, link, instructor) followed
by lesson sections. Courses whose title is already indexed are skipped,
so re-running over the same folder only picks up new documents.

With no argument the configured docs folder is used.

Examples:
  lectern ingest
  lectern ingest ./docs`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func runIngest(cmd *cobra.Command, args []string) error {
	folder := cfg.DocsPath
	if len(args) == 1 {
		folder = args[0]
	}

	ingestor, err := getIngestor()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	p := tea.NewProgram(newIngestModel(folder, cancel))

	go func() {
		result, err := ingestor.IngestFolder(ctx, folder, func(done, total int, file string) {
			p.Send(ingestProgressMsg{done: done, total: total, file: file})
		})
		p.Send(ingestDoneMsg{result: result, err: err})
	}()

	finalModel, err := p.Run()
	if err != nil {
		return fmt.Errorf("progress UI error: %w", err)
	}
	if m, ok := finalModel.(ingestModel); ok && m.err != nil {
		exitWithError("ingestion failed: %v", m.err)
	}
	return nil
}

// ingestProgressMsg reports one processed file.
type ingestProgressMsg struct {
	done  int
	total int
	file  string
}

// ingestDoneMsg carries the final result.
type ingestDoneMsg struct {
	result *service.IngestResult
	err    error
}

// ingestModel is the bubbletea model for ingestion progress.
type ingestModel struct {
	folder   string
	cancel   context.CancelFunc
	progress progress.Model
	theme    Theme

	done     int
	total    int
	file     string
	result   *service.IngestResult
	err      error
	finished bool
}

func newIngestModel(folder string, cancel context.CancelFunc) ingestModel {
	prog := progress.New(
		progress.WithDefaultBlend(),
		progress.WithWidth(40),
	)
	return ingestModel{
		folder:   folder,
		cancel:   cancel,
		progress: prog,
		theme:    defaultTheme,
	}
}

func (m ingestModel) Init() tea.Cmd {
	return m.progress.Init()
}

func (m ingestModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyPressMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			m.cancel()
			return m, nil
		}

	case ingestProgressMsg:
		m.done = msg.done
		m.total = msg.total
		m.file = msg.file
		return m, nil

	case ingestDoneMsg:
		m.finished = true
		m.result = msg.result
		m.err = msg.err
		return m, tea.Quit

	case progress.FrameMsg:
		var cmd tea.Cmd
		m.progress, cmd = m.progress.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m ingestModel) View() tea.View {
	return tea.NewView(m.renderContent())
}

func (m ingestModel) renderContent() string {
	if m.finished {
		return m.finalView()
	}
	if m.total == 0 {
		return fmt.Sprintf("Scanning %s...\n", m.folder)
	}

	var pct float64
	if m.total > 0 {
		pct = float64(m.done) / float64(m.total)
	}

	status := m.theme.statusStyle().Render("[indexing]")
	counts := fmt.Sprintf("%d/%d files", m.done, m.total)
	hint := m.theme.hintStyle().Render(m.file)

	return fmt.Sprintf("%s %s %s\n%s\n", status, m.progress.ViewAs(pct), counts, hint)
}

func (m ingestModel) finalView() string {
	if m.err != nil {
		return m.theme.errorStyle().Render(fmt.Sprintf("\n✗ Ingestion failed: %s\n", m.err))
	}
	if m.result == nil {
		return m.theme.completedStyle().Render("✓ Completed\n")
	}

	r := m.result
	output := m.theme.completedStyle().Render("✓ Completed") + "\n\n"
	output += fmt.Sprintf("  Courses added:   %d\n", r.CoursesAdded)
	output += fmt.Sprintf("  Courses skipped: %d\n", r.CoursesSkipped)
	output += fmt.Sprintf("  Chunks indexed:  %d\n", r.ChunksAdded)
	if len(r.Errors) > 0 {
		output += m.theme.errorStyle().Render(fmt.Sprintf("\nWarnings (%d):\n", len(r.Errors)))
		for _, e := range r.Errors {
			output += fmt.Sprintf("  • %s\n", e)
		}
	}
	return output
}
