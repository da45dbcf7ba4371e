package cli

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/justgrid/pkg/layout"
	"github.com/matzehuels/justgrid/pkg/loader"
	"github.com/matzehuels/justgrid/pkg/render"
)

// A terminal cell stands for cellW x cellH pixels of gallery.
const (
	cellW = 8.0
	cellH = 16.0

	minBoxLines = 3
	maxBoxLines = 12
)

var (
	boxStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorDim)
	boxTitle    = lipgloss.NewStyle().Foreground(colorWhite)
	footerStyle = lipgloss.NewStyle().Foreground(colorGray)
)

func (c *CLI) browseCommand() *cobra.Command {
	var (
		sortOrder string
		maxItems  int
		asURLs    bool
	)

	cmd := &cobra.Command{
		Use:   "browse <collection>...",
		Short: "Scroll a gallery in the terminal",
		Long: `Scroll a gallery in the terminal. Photos are drawn as boxes sized by the
justified layout, and more pages are loaded as the last row comes into view.

Keys: j/k or arrows scroll, space/b page, g/G jump, r reload, q quit.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runBrowse(cmd.Context(), args, sortOrder, maxItems, asURLs)
		},
	}
	cmd.Flags().StringVar(&sortOrder, "sort", "", "sort order: default, most-viewed")
	cmd.Flags().IntVar(&maxItems, "max-items", 0, "stop after this many photos (0: config)")
	cmd.Flags().BoolVar(&asURLs, "urls", false, "treat the arguments as image URLs")
	return cmd
}

func (c *CLI) runBrowse(ctx context.Context, args []string, sortOrder string, maxItems int, asURLs bool) error {
	cfg, err := c.Config()
	if err != nil {
		return err
	}
	pc := c.openCache(ctx, cfg)
	defer pc.Close()

	collections := args
	var provider loader.PageProvider
	if asURLs {
		up := cfg.URLProvider(pc, c.Logger)
		if err := up.Add(appName, args); err != nil {
			return err
		}
		provider, collections = up, []string{appName}
	} else {
		client, err := cfg.AlbumClient(pc, c.refresh, c.Logger)
		if err != nil {
			return err
		}
		provider = client
	}

	// The TUI owns the terminal; keep log lines out of it.
	c.SetLogLevel(LogWarn)

	var p *tea.Program
	opts := galleryOptions(cfg, collections, sortOrder, maxItems)
	opts.ID = "browse"
	opts.Provider = provider
	opts.Logger = c.Logger
	opts.OnStatus = func(st loader.Status) {
		if p != nil {
			p.Send(statusMsg(st))
		}
	}
	ctrl, err := loader.New(opts)
	if err != nil {
		return err
	}
	defer ctrl.Destroy()

	p = tea.NewProgram(newBrowseModel(ctx, ctrl, cfg.Layout, cfg.Loader.Cooldown), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	return err
}

type (
	statusMsg loader.Status
	loadedMsg struct{}
	// deferredMsg means the trigger fired during the post-merge cooldown.
	deferredMsg struct{}
)

type browseModel struct {
	ctx      context.Context
	ctrl     *loader.Controller
	cfg      layout.Config
	cooldown time.Duration

	width, height int
	offset        int
	lines         []string
	rowLine       []int // first line of each row
	rowKeys       [][]string
}

func newBrowseModel(ctx context.Context, ctrl *loader.Controller, cfg layout.Config, cooldown time.Duration) browseModel {
	return browseModel{ctx: ctx, ctrl: ctrl, cfg: cfg, cooldown: cooldown, width: 80, height: 24}
}

func (m browseModel) Init() tea.Cmd {
	return m.load()
}

func (m browseModel) load() tea.Cmd {
	return func() tea.Msg {
		m.ctrl.LoadNextPages(m.ctx)
		return loadedMsg{}
	}
}

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "down", "j":
			m.scroll(1)
		case "up", "k":
			m.scroll(-1)
		case " ", "pgdown", "f":
			m.scroll(m.viewHeight())
		case "b", "pgup":
			m.scroll(-m.viewHeight())
		case "g", "home":
			m.offset = 0
		case "G", "end":
			m.scroll(len(m.lines))
		case "r":
			if err := m.ctrl.Reset(); err == nil {
				m.offset = 0
				m.rebuild()
				return m, m.load()
			}
		}
		return m, m.observe()

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.rebuild()
		return m, m.observe()

	case loadedMsg, statusMsg:
		m.rebuild()
		return m, m.observe()

	case deferredMsg:
		return m, tea.Tick(max(m.cooldown, 50*time.Millisecond), func(time.Time) tea.Msg { return loadedMsg{} })
	}
	return m, nil
}

func (m *browseModel) scroll(n int) {
	limit := max(len(m.lines)-m.viewHeight(), 0)
	m.offset = min(max(m.offset+n, 0), limit)
}

func (m browseModel) viewHeight() int {
	return max(m.height-2, 1)
}

// observe reports the trigger row's distance below the viewport to the
// controller, which loads the next pages when it is close enough.
func (m browseModel) observe() tea.Cmd {
	target := m.ctrl.TriggerTarget()
	if target == "" {
		return nil
	}
	for i := len(m.rowKeys) - 1; i >= 0; i-- {
		for _, k := range m.rowKeys[i] {
			if k != target {
				continue
			}
			distance := float64(m.rowLine[i]-(m.offset+m.viewHeight())) * cellH
			return func() tea.Msg {
				before := m.ctrl.Status().Items
				if !m.ctrl.Observe(target, distance) {
					return nil
				}
				if m.ctrl.Status().Items > before {
					return loadedMsg{}
				}
				return deferredMsg{}
			}
		}
	}
	return nil
}

// rebuild lays the gallery out for the terminal width and redraws every
// row as a line of boxes.
func (m *browseModel) rebuild() {
	containerPx := float64(m.width) * cellW
	rows := layout.Compute(m.ctrl.Items(), containerPx, m.cfg, layout.Viewport{
		Width:  containerPx,
		Height: float64(m.viewHeight()) * cellH,
	})

	m.lines = nil
	m.rowLine = make([]int, len(rows))
	m.rowKeys = make([][]string, len(rows))
	for i, r := range rows {
		m.rowLine[i] = len(m.lines)
		h := min(max(int(math.Round(r.Height/cellH)), minBoxLines), maxBoxLines)
		boxes := make([]string, len(r.Cells))
		keys := make([]string, len(r.Cells))
		for j, cell := range r.Cells {
			w := max(int(math.Round(cell.Width/cellW)), 4)
			title := cell.Item.Title
			if title == "" {
				title = cell.Item.Key()
			}
			boxes[j] = boxStyle.Width(w - 2).Height(h - 2).Render(boxTitle.Render(truncate(title, w-2)))
			keys[j] = cell.Item.Key()
		}
		m.rowKeys[i] = keys
		m.lines = append(m.lines, strings.Split(lipgloss.JoinHorizontal(lipgloss.Top, boxes...), "\n")...)
	}
	m.scroll(0)
}

func (m browseModel) View() string {
	var b strings.Builder
	st := m.ctrl.Status()
	b.WriteString(StyleTitle.Render(appName))
	b.WriteString(StyleDim.Render(fmt.Sprintf("  %d photos · %s", st.Items, st.State)))
	b.WriteString("\n")

	end := min(m.offset+m.viewHeight(), len(m.lines))
	shown := 0
	for i := m.offset; i < end; i++ {
		b.WriteString(m.lines[i])
		b.WriteString("\n")
		shown++
	}
	for ; shown < m.viewHeight(); shown++ {
		b.WriteString("\n")
	}

	footer := "j/k scroll  space/b page  r reload  q quit"
	if banner, ok := render.BannerFor(st.Indicator); ok {
		footer = banner.Text + "  " + footer
	}
	b.WriteString(footerStyle.Render(footer))
	return b.String()
}

func truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n == 1 {
		return "…"
	}
	return string(r[:n-1]) + "…"
}
