// Package airports converts between the ICAO and IATA airport code
// forms expected by the different upstream APIs. All conversions are
// pure functions over static tables and are safe for concurrent use.
package airports

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidCode is returned for empty or malformed airport codes.
// It fails fast, before any network call is attempted.
var ErrInvalidCode = errors.New("invalid airport code")

// Region identifies the ICAO prefix region of an airport code.
// The region determines which static conversion table applies.
type Region string

const (
	RegionContinentalUS Region = "CONTINENTAL_US"
	RegionHawaii        Region = "HAWAII"
	RegionPuertoRico    Region = "PUERTO_RICO"
	RegionOther         Region = "OTHER"
)

// hawaiiICAOToIATA maps Hawaiian ICAO codes to their IATA codes.
// The FAA status API only accepts the IATA form for these airports.
var hawaiiICAOToIATA = map[string]string{
	"PHNL": "HNL", // Daniel K. Inouye International
	"PHTO": "ITO", // Hilo International
	"PHOG": "OGG", // Kahului
	"PHKO": "KOA", // Ellison Onizuka Kona International
	"PHMK": "MKK", // Molokai
	"PHNY": "LNY", // Lanai
	"PHLI": "LIH", // Lihue
	"PHMU": "MUE", // Waimea-Kohala
	"PHJR": "JRF", // Kalaeloa
	"PHHN": "HNM", // Hana
	"PHPA": "PAK", // Port Allen
	"PHUP": "UPP", // Upolu
	"PHLU": "LUP", // Kalaupapa
	"PHJH": "JHM", // Kapalua
	"PHDH": "HDH", // Dillingham Airfield
	"PHIK": "HIK", // Hickam AFB
	"PHNP": "NPS", // NALF Ford Island
	"PHNG": "NGF", // MCAS Kaneohe Bay
	"PHBK": "BKH", // Pacific Missile Range Facility
	"PHSF": "BSF", // Bradshaw Army Airfield
	"PHHF": "HFS", // French Frigate Shoals
	"PHHI": "HHI", // Wheeler Army Airfield
}

// puertoRicoICAOToIATA maps Puerto Rico ICAO codes to their IATA codes.
var puertoRicoICAOToIATA = map[string]string{
	"TJSJ": "SJU", // Luis Munoz Marin International
	"TJBQ": "BQN", // Rafael Hernandez International
	"TJPS": "PSE", // Mercedita International
	"TJMZ": "MAZ", // Eugenio Maria de Hostos
	"TJIG": "VQS", // Antonio Rivera Rodriguez (Vieques)
	"TJCP": "CPX", // Benjamin Rivera Noriega (Culebra)
}

// Reverse tables, built once at init.
var (
	hawaiiIATAToICAO     = invert(hawaiiICAOToIATA)
	puertoRicoIATAToICAO = invert(puertoRicoICAOToIATA)
)

func invert(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for icao, iata := range m {
		out[iata] = icao
	}
	return out
}

// normalize trims and upper-cases user input, rejecting anything that
// is not a 3 or 4 letter code.
func normalize(input string) (string, error) {
	code := strings.ToUpper(strings.TrimSpace(input))
	if code == "" {
		return "", fmt.Errorf("%w: empty input", ErrInvalidCode)
	}
	if len(code) != 3 && len(code) != 4 {
		return "", fmt.Errorf("%w: %q must be 3 or 4 letters", ErrInvalidCode, code)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", fmt.Errorf("%w: %q contains non-letter characters", ErrInvalidCode, code)
		}
	}
	return code, nil
}

// RegionOf reports the region of an ICAO code based on its prefix.
func RegionOf(icao string) Region {
	switch {
	case strings.HasPrefix(icao, "PH"):
		return RegionHawaii
	case strings.HasPrefix(icao, "TJ"):
		return RegionPuertoRico
	case strings.HasPrefix(icao, "K"):
		return RegionContinentalUS
	default:
		return RegionOther
	}
}

// ToICAO converts user input to the 4-letter ICAO form used by the
// weather and DATIS APIs. 4-letter input and PH/TJ-prefixed input is
// treated as already ICAO. 3-letter input gets a K prefix unless it is
// a known Hawaii or Puerto Rico IATA code.
func ToICAO(input string) (string, error) {
	code, err := normalize(input)
	if err != nil {
		return "", err
	}

	if len(code) == 4 || strings.HasPrefix(code, "PH") || strings.HasPrefix(code, "TJ") {
		return code, nil
	}

	if icao, ok := hawaiiIATAToICAO[code]; ok {
		return icao, nil
	}
	if icao, ok := puertoRicoIATAToICAO[code]; ok {
		return icao, nil
	}

	return "K" + code, nil
}

// ToIATA converts user input to the 3-letter IATA form expected by the
// FAA status API. For K-prefixed codes the K is stripped; Hawaii and
// Puerto Rico codes go through the static tables, falling back to
// stripping the region prefix when a code is absent. Any other
// 4-letter code loses its first letter — a best-effort heuristic that
// is wrong for most non-US airports (EGLL becomes GLL, not LHR).
func ToIATA(input string) (string, error) {
	code, err := normalize(input)
	if err != nil {
		return "", err
	}

	if len(code) == 3 {
		return code, nil
	}

	if iata, ok := hawaiiICAOToIATA[code]; ok {
		return iata, nil
	}
	if iata, ok := puertoRicoICAOToIATA[code]; ok {
		return iata, nil
	}
	if strings.HasPrefix(code, "PH") || strings.HasPrefix(code, "TJ") {
		// Unlisted special-region code: drop the two-letter prefix
		return code[2:], nil
	}

	return code[1:], nil
}
