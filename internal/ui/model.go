// Package ui provides the Bubbletea terminal user interface for loudhailer
package ui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// FileStatus represents the processing state of a single file
type FileStatus int

const (
	StatusQueued FileStatus = iota
	StatusMeasuring
	StatusNormalising
	StatusComplete
	StatusSkipped
	StatusError
)

// FileProgress tracks progress for a single media file
type FileProgress struct {
	InputPath  string
	OutputPath string
	Status     FileStatus

	StartTime   time.Time
	ElapsedTime time.Duration

	// Error tracking
	Error error
}

// Model is the Bubbletea model for the processing UI
type Model struct {
	// File queue
	Files          []FileProgress
	TotalFiles     int
	CompletedFiles int
	SkippedFiles   int
	FailedFiles    int

	// Warnings raised during processing, shown below the queue
	Warnings []string

	// Global state
	StartTime time.Time
	Done      bool

	// Channel for receiving progress updates from the runner
	ProgressChan chan tea.Msg

	// Terminal dimensions
	Width  int
	Height int
}

// NewModel creates a new UI model with the given input files
func NewModel(inputFiles []string) Model {
	files := make([]FileProgress, len(inputFiles))
	for i, path := range inputFiles {
		files[i] = FileProgress{
			InputPath: path,
			Status:    StatusQueued,
		}
	}

	return Model{
		Files:        files,
		TotalFiles:   len(inputFiles),
		StartTime:    time.Now(),
		ProgressChan: make(chan tea.Msg, 100), // Buffered channel
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return waitForProgress(m.ProgressChan)
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.Width = msg.Width
		m.Height = msg.Height

	case FileStartMsg:
		if msg.FileIndex >= 0 && msg.FileIndex < len(m.Files) {
			m.Files[msg.FileIndex].Status = StatusMeasuring
			m.Files[msg.FileIndex].StartTime = time.Now()
		}
		return m, waitForProgress(m.ProgressChan)

	case FileStageMsg:
		if msg.FileIndex >= 0 && msg.FileIndex < len(m.Files) {
			if msg.Stage == "Normalising" {
				m.Files[msg.FileIndex].Status = StatusNormalising
			}
		}
		return m, waitForProgress(m.ProgressChan)

	case WarningMsg:
		m.Warnings = append(m.Warnings, msg.Text)
		return m, waitForProgress(m.ProgressChan)

	case FileCompleteMsg:
		if msg.FileIndex >= 0 && msg.FileIndex < len(m.Files) {
			file := &m.Files[msg.FileIndex]
			file.OutputPath = msg.OutputPath
			file.Error = msg.Error
			file.ElapsedTime = time.Since(file.StartTime)

			switch {
			case msg.Error != nil:
				file.Status = StatusError
				m.FailedFiles++
			case msg.Skipped:
				file.Status = StatusSkipped
				m.SkippedFiles++
			default:
				file.Status = StatusComplete
				m.CompletedFiles++
			}
		}
		return m, waitForProgress(m.ProgressChan)

	case AllCompleteMsg:
		m.Done = true
		return m, tea.Quit
	}

	return m, nil
}

// View renders the UI
func (m Model) View() string {
	if m.Width == 0 {
		return "Initializing...\n"
	}

	if m.Done {
		return renderCompletionSummary(m)
	}

	return renderProcessingView(m)
}

// waitForProgress creates a command that waits for progress messages
func waitForProgress(progressChan chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		return <-progressChan
	}
}
