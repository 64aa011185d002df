// Package metar classifies raw METAR/TAF text lines into flight
// categories for color coding. Each line is classified independently;
// no state is carried between lines.
package metar

import (
	"regexp"
	"strconv"
	"strings"
)

// Category is the flight category derived from ceiling and visibility
type Category string

const (
	VFR     Category = "VFR"
	MVFR    Category = "MVFR"
	IFR     Category = "IFR"
	LIFR    Category = "LIFR"
	Unknown Category = "UNKNOWN"
)

// Color is the display color assigned to a flight category
type Color string

const (
	ColorGreen   Color = "green"
	ColorBlue    Color = "blue"
	ColorRed     Color = "red"
	ColorMagenta Color = "magenta"
	ColorBlack   Color = "black"
)

// vfrTokens short-circuit classification: any of these means VFR
// without looking at ceiling or visibility.
var vfrTokens = []string{"SKC", "CLR", "SCT", "FEW", "P6SM"}

// visibilityGreaterThan6 is the sentinel for "P6SM" (more than 6 SM);
// 6.1 keeps the >5 VFR comparison true.
const visibilityGreaterThan6 = 6.1

var (
	visibilityRe = regexp.MustCompile(`(\d{1,2})SM`)
	ceilingRe    = regexp.MustCompile(`(OVC|BKN|VV)(\d{3})`)
	airportRe    = regexp.MustCompile(`^[A-Z]{3,4}\s`)
)

// Classify assigns a flight category to one raw METAR or TAF line
func Classify(line string) Category {
	for _, token := range vfrTokens {
		if strings.Contains(line, token) {
			return VFR
		}
	}

	visibility, visKnown := parseVisibility(line)
	ceiling, ceilKnown := parseCeiling(line)

	if !visKnown || !ceilKnown {
		return Unknown
	}

	switch {
	case ceiling < 500 || visibility < 1:
		return LIFR
	case (ceiling >= 500 && ceiling < 1000) || (visibility >= 1 && visibility < 3):
		return IFR
	case (ceiling >= 1000 && ceiling <= 3000) || (visibility >= 3 && visibility <= 5):
		return MVFR
	case ceiling > 3000 && visibility > 5:
		return VFR
	default:
		return Unknown
	}
}

// parseVisibility extracts prevailing visibility in statute miles
func parseVisibility(line string) (float64, bool) {
	if strings.Contains(line, "P6SM") {
		return visibilityGreaterThan6, true
	}
	matches := visibilityRe.FindStringSubmatch(line)
	if len(matches) != 2 {
		return 0, false
	}
	miles, err := strconv.Atoi(matches[1])
	if err != nil {
		return 0, false
	}
	return float64(miles), true
}

// parseCeiling extracts the lowest broken/overcast/vertical-visibility
// layer in feet. TAF lines can carry several layer groups; the ceiling
// is the minimum across all of them.
func parseCeiling(line string) (int, bool) {
	matches := ceilingRe.FindAllStringSubmatch(line, -1)
	if len(matches) == 0 {
		return 0, false
	}
	ceiling := 0
	for i, m := range matches {
		hundreds, err := strconv.Atoi(m[2])
		if err != nil {
			continue
		}
		feet := hundreds * 100
		if i == 0 || feet < ceiling {
			ceiling = feet
		}
	}
	return ceiling, true
}

// ColorFor returns the display color for a flight category
func ColorFor(category Category) Color {
	switch category {
	case VFR:
		return ColorGreen
	case MVFR:
		return ColorBlue
	case IFR:
		return ColorRed
	case LIFR:
		return ColorMagenta
	default:
		return ColorBlack
	}
}

// Line is one raw METAR or TAF line with its owning airport and
// assigned category.
type Line struct {
	Text       string   `json:"text"`
	Airport    string   `json:"airport,omitempty"`
	Category   Category `json:"category"`
	Color      Color    `json:"color"`
	NewAirport bool     `json:"new_airport,omitempty"` // first line of a new airport block
}

// SplitLines breaks raw METAR/TAF response text into classified lines.
// Airport ownership comes from the leading 3-4 letter token; the first
// line of each airport block is marked so renderers can insert a
// separator. Blank lines are dropped.
func SplitLines(raw string) []Line {
	var out []Line
	currentAirport := ""

	for _, text := range strings.Split(raw, "\n") {
		if strings.TrimSpace(text) == "" {
			continue
		}

		airport := currentAirport
		newAirport := false
		if token := airportRe.FindString(text); token != "" {
			airport = strings.TrimSpace(token)
			if airport != currentAirport {
				newAirport = true
				currentAirport = airport
			}
		}

		category := Classify(text)
		out = append(out, Line{
			Text:       text,
			Airport:    airport,
			Category:   category,
			Color:      ColorFor(category),
			NewAirport: newAirport,
		})
	}

	return out
}
