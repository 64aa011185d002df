// Package render turns briefing results into display-ready text. The
// HTML form mirrors what the web front end embeds directly; terminal
// front ends style the same data with their own color layer.
package render

import (
	"fmt"
	"html"
	"strings"

	"github.com/eclewis/wxbrief/internal/briefing"
)

const timeLayout = "2006-01-02 15:04:05 UTC"

// WeatherHTML renders classified weather lines as an HTML fragment:
// one colored span per line, a horizontal rule between airports, and a
// retrieved-at footer.
func WeatherHTML(result *briefing.Result) string {
	var b strings.Builder

	if result.WeatherError != "" {
		fmt.Fprintf(&b, "<span style='color:red'>%s</span><br>", html.EscapeString(result.WeatherError))
	}

	for i, line := range result.Weather {
		if line.NewAirport {
			if i > 0 {
				b.WriteString("<br><hr>")
			}
			fmt.Fprintf(&b, "<b>%s</b><br>", html.EscapeString(line.Airport))
		}
		fmt.Fprintf(&b, "<span style='color:%s'>%s</span><br>", line.Color, html.EscapeString(line.Text))
	}

	fmt.Fprintf(&b, "<br><i>Data retrieved at %s</i>", result.RetrievedAt.Format(timeLayout))
	return b.String()
}

// SourceBlocksHTML renders the DATIS or status text blocks, one
// labeled section per role in departure/arrival/alternate order.
func SourceBlocksHTML(title string, blocks map[briefing.Role]briefing.SourceText) string {
	var b strings.Builder

	for _, role := range []briefing.Role{briefing.RoleDeparture, briefing.RoleArrival, briefing.RoleAlternate} {
		block, ok := blocks[role]
		if !ok {
			continue
		}
		label := strings.ToUpper(string(role)[:1]) + string(role)[1:]
		fmt.Fprintf(&b, "<b>%s %s (%s):</b><br>", label, title, html.EscapeString(block.Airport))
		if block.Error != "" {
			fmt.Fprintf(&b, "<span style='color:red'>%s</span><br><br>", html.EscapeString(block.Error))
			continue
		}
		fmt.Fprintf(&b, "<pre>%s</pre><br>", html.EscapeString(block.Text))
	}

	return b.String()
}

// BriefingHTML renders a complete briefing as a single HTML fragment
func BriefingHTML(result *briefing.Result) string {
	var b strings.Builder

	b.WriteString("<h3>METAR / TAF</h3>")
	b.WriteString(WeatherHTML(result))
	b.WriteString("<h3>DATIS</h3>")
	b.WriteString(SourceBlocksHTML("DATIS", result.DATIS))
	b.WriteString("<h3>Airport Status</h3>")
	b.WriteString(SourceBlocksHTML("Airport Status", result.Status))

	return b.String()
}
