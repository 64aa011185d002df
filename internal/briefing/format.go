package briefing

import (
	"fmt"
	"strings"
)

// FormatStatus renders the FAA status record into the plain-text block
// shown on every display surface.
func FormatStatus(status *statusResponse) string {
	var out []string

	divider := strings.Repeat("=", 50)
	out = append(out,
		divider,
		fmt.Sprintf("Airport: %s - %s", orNA(status.ICAO), orNA(status.Name)),
		fmt.Sprintf("Location: %s, %s", orNA(status.City), orNA(status.State)),
		divider,
		"",
		"STATUS INFORMATION",
	)

	if status.Delay {
		out = append(out,
			fmt.Sprintf("Number of Delays: %d", status.DelayCount),
			"",
			"Current Delays:")
		for _, delay := range status.Status {
			out = append(out,
				"",
				fmt.Sprintf("> %s DELAY", strings.ToUpper(orUnknown(delay.Type))),
				fmt.Sprintf("  - Reason: %s", orNA(delay.Reason)),
				fmt.Sprintf("  - Minimum Delay: %s", orNA(delay.MinDelay)),
				fmt.Sprintf("  - Maximum Delay: %s", orNA(delay.MaxDelay)))
			if delay.Trend != "" {
				out = append(out, fmt.Sprintf("  - Trend: %s", delay.Trend))
			}
		}
	} else {
		out = append(out, "No delays reported")
	}

	if wx := status.Weather; wx != nil {
		out = append(out,
			"",
			"WEATHER CONDITIONS:",
			fmt.Sprintf("  - Temperature: %s", firstString(wx.Temp)),
			fmt.Sprintf("  - Visibility: %s miles", firstAny(wx.Visibility)),
			fmt.Sprintf("  - Wind: %s", firstString(wx.Wind)))

		if len(wx.Meta) > 0 {
			if updated, ok := wx.Meta[0]["Updated"].(string); ok && updated != "" {
				out = append(out,
					strings.Repeat("-", 30),
					fmt.Sprintf("Last Updated: %s", updated),
					strings.Repeat("-", 30))
			}
		}
	}

	return strings.Join(out, "\n")
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func orUnknown(s string) string {
	if s == "" {
		return "UNKNOWN"
	}
	return s
}

func firstString(values []string) string {
	if len(values) == 0 {
		return "N/A"
	}
	return values[0]
}

func firstAny(values []any) string {
	if len(values) == 0 {
		return "N/A"
	}
	return fmt.Sprintf("%v", values[0])
}
