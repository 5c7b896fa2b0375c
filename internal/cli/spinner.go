package cli

import (
	"context"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// spinnerFrames is the braille animation cycle.
var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinnerTickMsg advances the animation by one frame.
type spinnerTickMsg struct{}

// spinnerStopMsg ends the program and clears the spinner line.
type spinnerStopMsg struct{}

// spinnerModel is the bubbletea model behind Spinner.
type spinnerModel struct {
	message string
	frame   int
	done    bool
}

func (m spinnerModel) Init() tea.Cmd {
	return spinnerTick()
}

func spinnerTick() tea.Cmd {
	return tea.Tick(80*time.Millisecond, func(time.Time) tea.Msg {
		return spinnerTickMsg{}
	})
}

func (m spinnerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg.(type) {
	case spinnerTickMsg:
		m.frame++
		return m, spinnerTick()
	case spinnerStopMsg:
		m.done = true
		return m, tea.Quit
	}
	return m, nil
}

func (m spinnerModel) View() string {
	if m.done {
		return ""
	}
	frame := spinnerFrames[m.frame%len(spinnerFrames)]
	return styleIconSpinner.Render(frame) + " " + styleDim.Render(m.message)
}

// Spinner provides a simple progress indicator with context cancellation support.
type Spinner struct {
	parent  context.Context
	cancel  context.CancelFunc
	program *tea.Program
	stopped chan struct{}
}

// newSpinner creates a new spinner with the given message.
func newSpinner(message string) *Spinner {
	return newSpinnerWithContext(context.Background(), message)
}

// newSpinnerWithContext creates a spinner that will stop when the context is cancelled.
func newSpinnerWithContext(ctx context.Context, message string) *Spinner {
	spinnerCtx, cancel := context.WithCancel(ctx)
	program := tea.NewProgram(spinnerModel{message: message},
		tea.WithContext(spinnerCtx),
		tea.WithOutput(os.Stderr),
		tea.WithInput(nil),
		tea.WithoutSignalHandler(),
	)
	return &Spinner{
		parent:  ctx,
		cancel:  cancel,
		program: program,
		stopped: make(chan struct{}),
	}
}

// Start begins the spinner animation in a background goroutine.
func (s *Spinner) Start() {
	go func() {
		defer close(s.stopped)
		_, _ = s.program.Run()
	}()
}

// Stop stops the spinner and clears the line.
func (s *Spinner) Stop() {
	s.program.Send(spinnerStopMsg{})
	s.cancel()
	<-s.stopped
}

// StopWithSuccess stops the spinner and shows a success message.
func (s *Spinner) StopWithSuccess(message string) {
	s.Stop()
	printSuccess("%s", message)
}

// StopWithError stops the spinner and shows an error message.
func (s *Spinner) StopWithError(message string) {
	s.Stop()
	printError("%s", message)
}

// Cancelled returns true if the spinner was stopped because its parent
// context was cancelled.
func (s *Spinner) Cancelled() bool {
	return s.parent.Err() != nil
}
