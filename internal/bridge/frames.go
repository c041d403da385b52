package bridge

import "encoding/json"

// Outbound frame types understood by the embed host. Messenger signals pass
// their kind through as the type verbatim.
const (
	frameMount   = "mount"
	frameCommand = "command"
	frameDispose = "dispose"
)

// Inbound frame types reported by the embed host.
const (
	frameReady    = "ready"
	frameState    = "state"
	framePosition = "position"
)

type outFrame struct {
	Type    string         `json:"type"`
	Surface string         `json:"surface,omitempty"`
	Cmd     string         `json:"cmd,omitempty"`
	Values  []float64      `json:"values,omitempty"`
	Args    map[string]any `json:"args,omitempty"`
}

func (f outFrame) marshal() ([]byte, error) {
	return json.Marshal(f)
}

type inFrame struct {
	Type     string  `json:"type"`
	Surface  string  `json:"surface"`
	State    string  `json:"state,omitempty"`
	Position float64 `json:"position,omitempty"`
	Duration float64 `json:"duration,omitempty"`
}
