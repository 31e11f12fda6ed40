package runner

// Stage names the phase a file is in. Stages are surfaced verbatim by the
// progress UI.
type Stage string

const (
	StageMeasuring   Stage = "Measuring"
	StageNormalising Stage = "Normalising"
	StageDone        Stage = "Done"
	StageSkipped     Stage = "Skipped"
)

// Event is one progress notification. FileIndex matches the position of
// the file in the batch passed to Process.
type Event struct {
	FileIndex int
	File      string
	Stage     Stage

	// Set on StageDone only.
	Output string
	Err    error
}

// Notify receives progress events. Implementations must be safe for
// concurrent use; files are processed in parallel.
type Notify func(Event)

func (r *Runner) notify(e Event) {
	if r.Notify != nil {
		r.Notify(e)
	}
}
