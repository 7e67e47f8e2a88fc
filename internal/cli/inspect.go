package cli

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/ductrouter/pkg/errors"
	"github.com/matzehuels/ductrouter/pkg/render"
	"github.com/matzehuels/ductrouter/pkg/routing"
	"github.com/matzehuels/ductrouter/pkg/store"
)

// inspectCommand creates the inspect command, an interactive route browser.
func (c *CLI) inspectCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect [result.json|run-id]",
		Short: "Browse the routes of a result interactively",
		Long: `Browse the routes of a result interactively.

The argument is a result file written by 'route' or the ID of a stored run.
Select a terminal to see its path segments and per-step costs, or toggle
the plan view.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.loadResult(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			m, err := NewInspectModel(res)
			if err != nil {
				return err
			}
			_, err = tea.NewProgram(m, tea.WithContext(cmd.Context())).Run()
			return err
		},
	}
}

// loadResult reads a result file, or a stored run when arg is not a file.
func (c *CLI) loadResult(ctx context.Context, arg string) (*routing.Result, error) {
	if _, err := os.Stat(arg); err == nil {
		return readResultFile(arg)
	}
	if err := store.ValidateID(arg); err != nil {
		return nil, fmt.Errorf("%s is neither a result file nor a run ID", arg)
	}
	st, err := c.newStore(ctx)
	if err != nil {
		return nil, fmt.Errorf("open run store: %w", err)
	}
	defer st.Close(context.WithoutCancel(ctx))
	run, err := st.Get(ctx, arg)
	if err != nil {
		return nil, err
	}
	return run.Decode()
}

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// InspectModel - Interactive route browser
// =============================================================================

// InspectModel is the bubbletea model for browsing a routing result.
type InspectModel struct {
	Result  *routing.Result
	Cursor  int
	Detail  bool // showing the selected route
	ShowMap bool
	Height  int
	Offset  int

	plan string
}

// NewInspectModel creates a browser over res. The plan is drawn once up front.
func NewInspectModel(res *routing.Result) (InspectModel, error) {
	plan, err := render.ASCII(res, render.Options{})
	if err != nil {
		return InspectModel{}, err
	}
	if i := strings.Index(plan, "\n\n"); i >= 0 {
		plan = plan[:i]
	}
	return InspectModel{Result: res, Height: 15, plan: plan}, nil
}

func (m InspectModel) Init() tea.Cmd {
	return nil
}

func (m InspectModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	n := len(m.Result.Routes)
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case "esc":
			if m.Detail {
				m.Detail = false
				return m, nil
			}
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < n-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if n > 0 {
				m.Detail = !m.Detail
			}
		case "m":
			m.ShowMap = !m.ShowMap
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m InspectModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Routes"))
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  %d x %d cells at step %g",
		m.Result.Cols, m.Result.Rows, m.Result.Step)))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ details  m plan  q quit"))
	b.WriteString("\n\n")

	if m.ShowMap {
		b.WriteString(colorizePlan(m.plan))
		b.WriteString("\n\n")
	}
	if m.Detail && m.Cursor < len(m.Result.Routes) {
		b.WriteString(m.detailView(m.Result.Routes[m.Cursor]))
		return b.String()
	}
	b.WriteString(m.tableView())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", min(m.Cursor+1, len(m.Result.Routes)), len(m.Result.Routes))))
	return b.String()
}

func (m InspectModel) tableView() string {
	routes := m.Result.Routes
	end := min(m.Offset+m.Height, len(routes))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		tr := routes[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		marker := string(render.Marker(i))
		if !tr.OK() {
			rows = append(rows, []string{cursor, string(render.GlyphFailed), tr.Terminal.ID, string(errors.GetCode(tr.Err)), "", "", ""})
			continue
		}
		rows = append(rows, []string{cursor, marker, tr.Terminal.ID, "routed",
			fmt.Sprint(tr.Path.Len()), fmt.Sprint(tr.Path.Turns()), fmt.Sprint(tr.Path.Cost())})
	}

	headerStyle := lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "", "Terminal", "Status", "Steps", "Turns", "Cost").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return headerStyle
			}
			idx := m.Offset + row
			if idx >= len(routes) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if !routes[idx].OK() {
				base = StyleError
			}
			if idx == m.Cursor {
				return base.Bold(true)
			}
			return base
		})
	return t.Render()
}

func (m InspectModel) detailView(tr routing.TerminalRoute) string {
	var b strings.Builder
	kv := func(k, v string) {
		b.WriteString(lipgloss.NewStyle().Foreground(colorGray).Width(12).Render(k))
		b.WriteString(" ")
		b.WriteString(StyleValue.Render(v))
		b.WriteString("\n")
	}

	kv("terminal", tr.Terminal.ID)
	kv("position", fmt.Sprint(tr.Terminal.Position))
	kv("branch", fmt.Sprintf("%v heading %s", tr.Start, tr.Heading))
	if !tr.OK() {
		kv("error", StyleError.Render(errors.UserMessage(tr.Err)))
		return b.String()
	}
	p := tr.Path
	kv("steps", fmt.Sprint(p.Len()))
	kv("turns", fmt.Sprint(p.Turns()))
	kv("cost", fmt.Sprint(p.Cost()))
	kv("expanded", fmt.Sprint(p.Stats.Expanded))
	kv("elapsed", tr.Elapsed.String())

	b.WriteString("\n")
	b.WriteString(listSelectedStyle.Render("Segments"))
	b.WriteString("\n")
	for _, s := range p.Segments() {
		fmt.Fprintf(&b, "  %v %s %v  %s\n", s.From, iconArrow, s.To,
			listDimStyle.Render(fmt.Sprintf("%s, %g", s.Orientation, s.Length())))
	}
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("esc back"))
	return b.String()
}
