package ui

// FileStartMsg indicates a file has begun its measurement pass
type FileStartMsg struct {
	FileIndex int
	FileName  string
}

// FileStageMsg indicates a file has moved to a new stage
type FileStageMsg struct {
	FileIndex int
	Stage     string // "Measuring" or "Normalising"
}

// FileCompleteMsg indicates a file has finished processing
type FileCompleteMsg struct {
	FileIndex  int
	OutputPath string
	Skipped    bool
	Error      error
}

// WarningMsg carries a diagnostic warning (clipping, codec fallback) to
// display alongside the queue
type WarningMsg struct {
	Text string
}

// AllCompleteMsg indicates all files have been processed
type AllCompleteMsg struct{}
