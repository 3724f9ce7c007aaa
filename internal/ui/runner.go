package ui

import (
	"io"

	tea "github.com/charmbracelet/bubbletea"

	"kiln/internal/buildpipeline"
)

// RunWithProgress runs work on its own goroutine and renders the events it
// reports until work returns. The work error wins over a nil UI error.
func RunWithProgress(title string, files []string, out io.Writer, work func(buildpipeline.ProgressSink) error) error {
	events := make(chan buildpipeline.Event, 256)
	errCh := make(chan error, 1)

	go func() {
		errCh <- work(buildpipeline.ChannelSink{Ch: events})
		close(events)
	}()

	program := tea.NewProgram(NewProgressModel(title, files, events), tea.WithOutput(out), tea.WithInput(nil))
	_, uiErr := program.Run()
	// UI мог выйти раньше: не даём работе заблокироваться на канале
	go func() {
		for range events { //nolint:revive
		}
	}()
	workErr := <-errCh
	if uiErr != nil {
		return uiErr
	}
	return workErr
}
