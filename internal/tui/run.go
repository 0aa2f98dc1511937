package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/browser-forge/internal/progress"
)

// NewReporter returns a progress reporter that forwards every event to send,
// usually tea.Program.Send.
func NewReporter(send func(tea.Msg), opts ...progress.Option) *progress.Emitter {
	return progress.NewEmitter(func(event progress.Event) {
		send(EventMsg(event))
	}, opts...)
}

// Run shows the progress view while work executes in the background. work
// receives a context that is cancelled when the user quits and a reporter,
// stamped with runID, to pass to the runner. Run returns work's error.
func Run(ctx context.Context, title, runID string, work func(context.Context, progress.Reporter) error, opts ...tea.ProgramOption) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	program := tea.NewProgram(NewModel(title, cancel), opts...)
	reporter := NewReporter(program.Send, progress.WithRunID(runID))
	workErr := make(chan error, 1)
	go func() {
		err := work(ctx, reporter)
		workErr <- err
		program.Send(DoneMsg{Err: err})
	}()
	if _, err := program.Run(); err != nil {
		cancel()
		<-workErr
		return err
	}
	cancel()
	return <-workErr
}
