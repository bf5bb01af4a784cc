package api

import (
	"fmt"
	"html"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/epicweatherbox/weatherbox/theme"
)

// handleConfigPage serves the single-page configuration UI. The page is
// generated inline so the binary has no asset dependencies; the device
// may be the only web server a user ever points at it.
func (ws *WebServer) handleConfigPage(c *gin.Context) {
	snap := ws.engine.Snapshot()

	var b strings.Builder
	b.WriteString(`<!DOCTYPE html>
<html>
<head>
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>WeatherBox</title>
<style>
body { font-family: sans-serif; max-width: 640px; margin: 0 auto; padding: 16px; background: #10131a; color: #e8e8e8; }
h1 { font-size: 1.4em; }
h2 { font-size: 1.1em; margin-top: 1.4em; border-bottom: 1px solid #333; padding-bottom: 4px; }
table { width: 100%; border-collapse: collapse; }
td, th { text-align: left; padding: 4px 8px; border-bottom: 1px solid #222; }
.muted { color: #888; font-size: 0.9em; }
code { background: #1c2230; padding: 1px 5px; border-radius: 3px; }
</style>
</head>
<body>
<h1>WeatherBox</h1>
`)

	b.WriteString("<h2>Locations</h2>\n<table><tr><th>Name</th><th>Lat</th><th>Lon</th><th>Enabled</th></tr>\n")
	for _, loc := range snap.State.Locations {
		fmt.Fprintf(&b, "<tr><td>%s</td><td>%.4f</td><td>%.4f</td><td>%v</td></tr>\n",
			html.EscapeString(loc.Name), loc.Latitude, loc.Longitude, loc.Enabled)
	}
	b.WriteString("</table>\n")

	b.WriteString("<h2>Carousel</h2>\n<table><tr><th>#</th><th>Kind</th><th>Data</th></tr>\n")
	for i, item := range snap.State.Carousel {
		marker := ""
		if i == snap.Cursor.ItemIndex {
			marker = " &#9654;"
		}
		fmt.Fprintf(&b, "<tr><td>%d%s</td><td>%s</td><td>%d</td></tr>\n",
			i, marker, item.Kind, item.DataIndex)
	}
	b.WriteString("</table>\n")

	if len(snap.State.Countdowns) > 0 {
		b.WriteString("<h2>Countdowns</h2>\n<table><tr><th>Title</th><th>Kind</th><th>Date</th></tr>\n")
		for _, event := range snap.State.Countdowns {
			fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td><td>%02d-%02d</td></tr>\n",
				html.EscapeString(event.Title), event.Kind, event.Month, event.Day)
		}
		b.WriteString("</table>\n")
	}

	if len(snap.State.CustomScreens) > 0 {
		b.WriteString("<h2>Custom screens</h2>\n<table><tr><th>Header</th><th>Body</th></tr>\n")
		for _, screen := range snap.State.CustomScreens {
			fmt.Fprintf(&b, "<tr><td>%s</td><td>%s</td></tr>\n",
				html.EscapeString(screen.Header), html.EscapeString(screen.Body))
		}
		b.WriteString("</table>\n")
	}

	settings := snap.State.Settings
	unit := "&deg;F"
	if settings.UseCelsius {
		unit = "&deg;C"
	}
	paletteName := theme.Builtin(snap.Theme.ActivePalette).Name
	if snap.Theme.ActivePalette == theme.PaletteCustom {
		paletteName = snap.Theme.Custom.Name
	}
	fmt.Fprintf(&b, `<h2>Display</h2>
<table>
<tr><td>Units</td><td>%s</td></tr>
<tr><td>Brightness</td><td>%d (night %d, now %d)</td></tr>
<tr><td>Cycle</td><td>%ds</td></tr>
<tr><td>Forecast pages</td><td>%v</td></tr>
<tr><td>Theme</td><td>%s</td></tr>
<tr><td>Weather</td><td>%v</td></tr>
</table>
`, unit, settings.Brightness, settings.NightModeBrightness, snap.Brightness, settings.CycleSeconds,
		settings.ShowForecast, html.EscapeString(paletteName), snap.WeatherValid)

	b.WriteString(`<p class="muted">Configure via the JSON API: <code>GET /status</code>,
<code>PUT /settings</code>, <code>PUT /theme</code>, <code>POST /locations</code>,
<code>POST /countdowns</code>, <code>POST /screens</code>, <code>POST /carousel</code>,
<code>POST /refresh</code>.</p>
</body>
</html>
`)

	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(b.String()))
}
