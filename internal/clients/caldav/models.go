package caldav

// Calendar describes one calendar collection on the server.
type Calendar struct {
	ID          string // Calendar path/URL
	DisplayName string
	URL         string
}
