package briefing

import (
	"time"

	"github.com/eclewis/wxbrief/internal/metar"
)

// Role identifies which leg of the flight an airport serves
type Role string

const (
	RoleDeparture Role = "departure"
	RoleArrival   Role = "arrival"
	RoleAlternate Role = "alternate"
)

// FetchKind identifies the type of upstream data being fetched
type FetchKind string

const (
	FetchKindWeather FetchKind = "weather"
	FetchKindDATIS   FetchKind = "datis"
	FetchKindStatus  FetchKind = "status"
)

// Request is one briefing submission. Alternate is optional; when it
// is empty no alternate-keyed retrieval is issued.
type Request struct {
	Departure string `json:"departure"`
	Arrival   string `json:"arrival"`
	Alternate string `json:"alternate,omitempty"`
}

// SourceText carries the fetched text for one airport and data kind,
// or the error string it was folded into. Exactly one of Text and
// Error is set.
type SourceText struct {
	Airport string `json:"airport"`
	Text    string `json:"text,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Result is a complete briefing. It is constructed fresh per request
// and immutable once returned; upstream failures appear as per-field
// error strings, never as a failed build.
type Result struct {
	Weather      []metar.Line        `json:"weather"`
	WeatherError string              `json:"weather_error,omitempty"`
	DATIS        map[Role]SourceText `json:"datis"`
	Status       map[Role]SourceText `json:"status"`
	RetrievedAt  time.Time           `json:"retrieved_at"`
}

// datisResponse is one entry of the DATIS relay's JSON array
type datisResponse struct {
	Airport string `json:"airport"`
	Type    string `json:"type"`
	Code    string `json:"code"`
	DATIS   string `json:"datis"`
}

// statusResponse models the FAA airport status JSON
type statusResponse struct {
	ICAO       string        `json:"ICAO"`
	IATA       string        `json:"IATA"`
	Name       string        `json:"Name"`
	City       string        `json:"City"`
	State      string        `json:"State"`
	Delay      bool          `json:"Delay"`
	DelayCount int           `json:"DelayCount"`
	Status     []statusDelay `json:"Status"`
	Weather    *statusWx     `json:"Weather"`
}

type statusDelay struct {
	Type     string `json:"Type"`
	Reason   string `json:"Reason"`
	MinDelay string `json:"MinDelay"`
	MaxDelay string `json:"MaxDelay"`
	Trend    string `json:"Trend"`
}

// statusWx mirrors the FAA schema, which wraps scalar readings in
// single-element arrays of mixed types.
type statusWx struct {
	Temp       []string         `json:"Temp"`
	Visibility []any            `json:"Visibility"`
	Wind       []string         `json:"Wind"`
	Meta       []map[string]any `json:"Meta"`
}
