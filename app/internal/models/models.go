package models

// StatusPage is a public page listing groups of monitors
type StatusPage struct {
	ID               int64  `json:"id"`
	Slug             string `json:"slug"`
	Title            string `json:"title"`
	Description      string `json:"description"`
	Icon             string `json:"icon"`
	HeartbeatBarDays int    `json:"heartbeatBarDays"`
	Published        bool   `json:"published"`
}

// Monitor is a checked target. Checks happen elsewhere; this service only reads results.
type Monitor struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	Active    bool   `json:"active"`
	PushToken string `json:"-"`
}

// PublicMonitor is a monitor as listed inside a public group
type PublicMonitor struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// PublicGroup is one visible section of a status page
type PublicGroup struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Weight      int             `json:"weight"`
	MonitorList []PublicMonitor `json:"monitorList"`
}

// StatusPageData is the payload of the status page config endpoint
type StatusPageData struct {
	Config          StatusPage    `json:"config"`
	PublicGroupList []PublicGroup `json:"publicGroupList"`
}

// ManifestIcon is one icon entry of a web app manifest
type ManifestIcon struct {
	Src   string `json:"src"`
	Sizes string `json:"sizes"`
	Type  string `json:"type"`
}

// Manifest is the web app manifest served for a status page
type Manifest struct {
	Name     string         `json:"name"`
	StartURL string         `json:"start_url"`
	Display  string         `json:"display"`
	Icons    []ManifestIcon `json:"icons"`
}

// NewManifest builds the web app manifest of a status page
func NewManifest(p *StatusPage) Manifest {
	return Manifest{
		Name:     p.Title,
		StartURL: "/status/" + p.Slug,
		Display:  "standalone",
		Icons: []ManifestIcon{
			{Src: p.Icon, Sizes: "128x128", Type: "image/png"},
		},
	}
}

// HeartbeatPayload is the polling response of a status page timeline
type HeartbeatPayload struct {
	HeartbeatList map[int64]any      `json:"heartbeatList"`
	UptimeList    map[string]float64 `json:"uptimeList"`
}
