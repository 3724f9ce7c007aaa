package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"kiln/internal/buildpipeline"
)

const labelWidth = 10

// runView renders one `kiln run`: a row per script, the script being
// compiled right now and a done/failed/pending summary.
type runView struct {
	title   string
	events  <-chan buildpipeline.Event
	spin    spinner.Model
	bar     progress.Model
	scripts []scriptRow
	byName  map[string]int
	phase   string
	current string
	width   int
	closed  bool
}

type scriptRow struct {
	name    string
	label   string
	stage   buildpipeline.Stage
	elapsed time.Duration
	failure string
}

func (r scriptRow) finished() bool { return r.label == "done" || r.label == "error" }

type eventMsg buildpipeline.Event
type closedMsg struct{}

// NewProgressModel returns a Bubble Tea model for a run over scripts.
// The model quits when events is closed.
func NewProgressModel(title string, scripts []string, events <-chan buildpipeline.Event) tea.Model {
	spin := spinner.New()
	spin.Spinner = spinner.Dot
	spin.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))

	bar := progress.New(progress.WithDefaultGradient())
	bar.Width = 76

	v := &runView{
		title:   title,
		events:  events,
		spin:    spin,
		bar:     bar,
		scripts: make([]scriptRow, len(scripts)),
		byName:  make(map[string]int, len(scripts)),
		width:   80,
	}
	for i, name := range scripts {
		v.scripts[i] = scriptRow{name: name, label: "queued", stage: buildpipeline.StageLoad}
		v.byName[name] = i
	}
	return v
}

func (v *runView) Init() tea.Cmd {
	return tea.Batch(v.spin.Tick, v.next())
}

func (v *runView) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case eventMsg:
		return v, tea.Batch(v.apply(buildpipeline.Event(msg)), v.next())
	case closedMsg:
		v.closed = true
		v.current = ""
		return v, tea.Quit
	case spinner.TickMsg:
		if v.closed {
			return v, nil
		}
		var cmd tea.Cmd
		v.spin, cmd = v.spin.Update(msg)
		return v, cmd
	case tea.WindowSizeMsg:
		if msg.Width > 0 {
			v.width = msg.Width
			v.bar.Width = msg.Width - 4
		}
	case progress.FrameMsg:
		bar, cmd := v.bar.Update(msg)
		v.bar = bar.(progress.Model)
		return v, cmd
	}
	return v, nil
}

func (v *runView) View() string {
	if len(v.scripts) == 0 {
		return ""
	}
	header := v.title
	if v.phase != "" {
		header += " (" + v.phase + ")"
	}
	if v.closed {
		header = "done: " + header
	} else {
		header = v.spin.View() + " " + header
	}

	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7")).Render(header))
	b.WriteString("\n\n")

	nameWidth := max(v.width-labelWidth-14, 20)
	for _, row := range v.scripts {
		label := labelStyle(row.label).Render(fmt.Sprintf("%*s", labelWidth, row.label))
		fmt.Fprintf(&b, "  %s %s", label, clip(row.name, nameWidth))
		if row.finished() && row.elapsed > 0 {
			fmt.Fprintf(&b, " %s", row.elapsed.Round(time.Millisecond))
		}
		b.WriteByte('\n')
		if row.failure != "" {
			fmt.Fprintf(&b, "  %*s %s\n", labelWidth, "", labelStyle("error").Render(clip(row.failure, nameWidth)))
		}
	}

	b.WriteByte('\n')
	if v.current != "" {
		fmt.Fprintf(&b, "compiling %s\n", clip(v.current, nameWidth))
	}
	b.WriteString(v.summary())
	b.WriteByte('\n')
	if v.closed {
		b.WriteString(v.bar.ViewAs(1.0))
	} else {
		b.WriteString(v.bar.View())
	}
	b.WriteByte('\n')
	return b.String()
}

// summary: "<done> done, <failed> failed, <pending> pending".
func (v *runView) summary() string {
	var done, failed int
	for _, row := range v.scripts {
		switch row.label {
		case "done":
			done++
		case "error":
			failed++
		}
	}
	return fmt.Sprintf("%d done, %d failed, %d pending", done, failed, len(v.scripts)-done-failed)
}

func (v *runView) next() tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-v.events
		if !ok {
			return closedMsg{}
		}
		return eventMsg(ev)
	}
}

func (v *runView) apply(ev buildpipeline.Event) tea.Cmd {
	label := labelFor(ev.Stage, ev.Status)
	if ev.File == "" {
		if label != "" {
			v.phase = label
		}
		return nil
	}
	i, ok := v.byName[ev.File]
	if !ok || label == "" {
		return nil
	}
	row := &v.scripts[i]
	row.label, row.stage = label, ev.Stage
	row.elapsed += ev.Elapsed
	if ev.Err != nil {
		row.failure = ev.Err.Error()
	}
	switch {
	case label == "compiling":
		v.current = ev.File
	case row.finished() && v.current == ev.File:
		v.current = ""
	}
	return v.bar.SetPercent(v.fraction())
}

// fraction: finished scripts count whole, the rest by stage.
func (v *runView) fraction() float64 {
	if len(v.scripts) == 0 {
		return 0
	}
	var total float64
	for _, row := range v.scripts {
		if row.finished() {
			total++
			continue
		}
		total += stageWeight[row.label]
	}
	return total / float64(len(v.scripts))
}

var stageWeight = map[string]float64{
	"loading":   0.1,
	"loaded":    0.3,
	"compiling": 0.6,
}

func labelFor(stage buildpipeline.Stage, status buildpipeline.Status) string {
	switch status {
	case buildpipeline.StatusQueued:
		if stage == buildpipeline.StageCompile {
			return "loaded"
		}
		return "queued"
	case buildpipeline.StatusWorking:
		switch stage {
		case buildpipeline.StageLoad:
			return "loading"
		case buildpipeline.StageCompile:
			return "compiling"
		}
	case buildpipeline.StatusDone:
		return "done"
	case buildpipeline.StatusError:
		return "error"
	}
	return ""
}

func labelStyle(label string) lipgloss.Style {
	color := "7"
	switch label {
	case "done":
		color = "2"
	case "error":
		color = "1"
	case "loading", "loaded", "compiling":
		color = "6"
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color))
}

// clip shortens value to width display columns.
func clip(value string, width int) string {
	if width <= 0 || runewidth.StringWidth(value) <= width {
		return value
	}
	if width <= 3 {
		return runewidth.Truncate(value, width, "")
	}
	return runewidth.Truncate(value, width-3, "...")
}
