package decode

// Stage identifies one step of the decode pipeline. Stages are emitted in a
// fixed order; "complete" and a failed emit are terminal.
type Stage string

const (
	StageNormalize  Stage = "normalize"
	StageProperty   Stage = "property"
	StageAugment    Stage = "augment"
	StageReport     Stage = "report"
	StageShareImage Stage = "share-image"
	StagePublish    Stage = "publish"
	StageComplete   Stage = "complete"
)

// Event is one progress notification from a decode run.
type Event struct {
	RunID    string  `json:"runId"`
	Stage    Stage   `json:"stage"`
	Progress float64 `json:"progress"`
	Warning  string  `json:"warning,omitempty"`
}

// Sink receives progress events. A nil Sink is valid and drops everything.
type Sink func(Event)

func (s Sink) emit(e Event) {
	if s != nil {
		s(e)
	}
}

var stageProgress = map[Stage]float64{
	StageNormalize:  0.10,
	StageProperty:   0.35,
	StageAugment:    0.60,
	StageReport:     0.85,
	StageShareImage: 0.90,
	StagePublish:    0.95,
	StageComplete:   1.00,
}
