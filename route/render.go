package route

import (
	"bytes"
	"html"
	"html/template"
	"strconv"

	"github.com/Desarso/tripagent/models"
)

type marker struct {
	Lat   float64 `json:"lat"`
	Lng   float64 `json:"lng"`
	Name  string  `json:"name"`
	Label string  `json:"label"`
	Color string  `json:"color"`
}

const (
	colorStart = "red"
	colorEnd   = "green"
	colorStop  = "blue"
)

// markerStyle picks the marker colour by position. A single point is styled
// as the start.
func markerStyle(i, n int) string {
	switch {
	case i == 0:
		return colorStart
	case i == n-1:
		return colorEnd
	default:
		return colorStop
	}
}

// markers builds the marker data for the page. Leaflet sets popup and
// tooltip content as HTML, so names are escaped here.
func markers(points []models.PlaceCoordinate) []marker {
	out := make([]marker, len(points))
	for i, p := range points {
		out[i] = marker{
			Lat:   p.Latitude,
			Lng:   p.Longitude,
			Name:  html.EscapeString(p.Name),
			Label: strconv.Itoa(i + 1),
			Color: markerStyle(i, len(points)),
		}
	}
	return out
}

var mapTemplate = template.Must(template.New("map").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>Route</title>
<link rel="stylesheet" href="https://unpkg.com/leaflet@1.9.4/dist/leaflet.css">
<script src="https://unpkg.com/leaflet@1.9.4/dist/leaflet.js"></script>
<style>
html, body, #map { height: 100%; margin: 0; }
.route-line { stroke-dasharray: 10 10; animation: route-dash 1s linear infinite; }
@keyframes route-dash { to { stroke-dashoffset: -20; } }
.stop-pin { border-radius: 50%; color: #fff; font: bold 12px sans-serif; text-align: center; line-height: 24px; width: 24px; height: 24px; border: 2px solid #fff; box-shadow: 0 0 3px #333; }
</style>
</head>
<body>
<div id="map"></div>
<script>
var stops = {{.Markers}};
var map = L.map('map').setView([stops[0].lat, stops[0].lng], {{.Zoom}});
L.tileLayer('https://{s}.tile.openstreetmap.org/{z}/{x}/{y}.png', {
  attribution: '&copy; OpenStreetMap contributors'
}).addTo(map);
stops.forEach(function (s) {
  var icon = L.divIcon({
    className: '',
    html: '<div class="stop-pin" style="background:' + s.color + '">' + s.label + '</div>',
    iconSize: [24, 24]
  });
  L.marker([s.lat, s.lng], {icon: icon})
    .bindPopup(s.name)
    .bindTooltip(s.label + '. ' + s.name)
    .addTo(map);
});
if (stops.length > 1) {
  L.polyline(stops.map(function (s) { return [s.lat, s.lng]; }), {
    color: 'blue', weight: 4, opacity: 0.6, className: 'route-line'
  }).addTo(map);
}
</script>
</body>
</html>
`))

// RenderMap produces a self-contained Leaflet page centred on the first point.
func RenderMap(points []models.PlaceCoordinate) (string, error) {
	var buf bytes.Buffer
	err := mapTemplate.Execute(&buf, struct {
		Markers []marker
		Zoom    int
	}{Markers: markers(points), Zoom: 13})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
