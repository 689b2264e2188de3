package model

// StatusVars are the scalar telemetry fields produced upstream from the latest heartbeat.
// They are substituted into the page as plain text.
type StatusVars struct {
	LastHeartbeat       string        `yaml:"last_heartbeat" json:"last_heartbeat"`
	LastScanStart       string        `yaml:"last_scan_start" json:"last_scan_start"`
	NextScanStart       string        `yaml:"next_scan_start" json:"next_scan_start"`
	TemperatureExternal string        `yaml:"temperature_external" json:"temperature_external"`
	TemperatureMount    string        `yaml:"temperature_mount" json:"temperature_mount"`
	Pressure            string        `yaml:"pressure" json:"pressure"`
	Humidity            string        `yaml:"humidity" json:"humidity"`
	SoC1                string        `yaml:"soc1" json:"soc1"`
	SoC2                string        `yaml:"soc2" json:"soc2"`
	Now                 string        `yaml:"now" json:"now"`
	LatestImages        []LatestImage `yaml:"latest_images" json:"latest_images"`
}

// LatestImage is one tab of the image gallery.
type LatestImage struct {
	ID       string `yaml:"id" json:"id"`
	Name     string `yaml:"name" json:"name"`
	URL      string `yaml:"url" json:"url"`
	Datetime string `yaml:"datetime" json:"datetime"`
	Active   string `yaml:"active" json:"active"` // "active" for the selected tab, empty otherwise
}
