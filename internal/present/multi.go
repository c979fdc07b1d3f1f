package present

import "codeberg.org/snonux/screentrans/internal/pipeline"

// Multi forwards every update to each presenter in order
type Multi []pipeline.Presenter

// OnJobUpdate implements pipeline.Presenter
func (m Multi) OnJobUpdate(jobID string, state pipeline.State, payload *pipeline.Payload) {
	for _, p := range m {
		if p != nil {
			p.OnJobUpdate(jobID, state, payload)
		}
	}
}
