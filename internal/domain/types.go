package domain

import (
	"encoding/json"
	"strings"
	"time"
)

// AudioBlob is one uploaded recording, as received from the client.
type AudioBlob struct {
	Filename string
	Data     []byte
}

type Coordinate struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type TranscriptionResult struct {
	Text string `json:"text"`
}

type GeocodeResult struct {
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
	Label string  `json:"label"`
}

// StepView is a route step with its start coordinate resolved from the
// route geometry.
type StepView struct {
	Instruction *string `json:"instruction"`
	Distance    float64 `json:"distance"`
	Duration    float64 `json:"duration"`
	Lat         float64 `json:"lat"`
	Lon         float64 `json:"lon"`
}

type GeocodeRequest struct {
	Text *string `json:"text"`
}

type DirectionsRequest struct {
	End        *EndpointInput `json:"end"`
	TerminalID string         `json:"terminal_id,omitempty"`
}

// EndpointInput keeps lat/lon as pointers so a missing axis can be told
// apart from a zero coordinate.
type EndpointInput struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
}

type DirectionsResponse struct {
	Steps []StepView `json:"steps"`
}

type OriginResponse struct {
	Lat      float64 `json:"lat"`
	Lon      float64 `json:"lon"`
	Label    string  `json:"label"`
	Locality string  `json:"locality"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

type EventType string

const (
	EventTranscribed EventType = "transcribed"
	EventGeocoded    EventType = "geocoded"
	EventRouted      EventType = "routed"
)

// NavigationEvent is emitted after each successful pipeline stage.
type NavigationEvent struct {
	ID      string          `json:"id"`
	Type    EventType       `json:"type"`
	Time    time.Time       `json:"time"`
	Payload json.RawMessage `json:"payload"`
}

// RoutePush is the payload delivered to a terminal's route topic.
type RoutePush struct {
	TerminalID  string     `json:"terminal_id"`
	Origin      Coordinate `json:"origin"`
	Destination Coordinate `json:"destination"`
	Steps       []StepView `json:"steps"`
}

// ValidTerminalID reports whether id fits in a single MQTT topic level.
func ValidTerminalID(id string) bool {
	return strings.TrimSpace(id) != "" && !strings.ContainsAny(id, "/+#\x00")
}
