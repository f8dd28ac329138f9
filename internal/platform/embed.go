package platform

import "time"

// Embed colors, matching the platform's common palette.
const (
	ColorBlue  = 0x3498db
	ColorGreen = 0x2ecc71
	ColorRed   = 0xe74c3c
)

// Embed is a rich message card delivered over a direct message.
type Embed struct {
	Title       string
	Description string
	Color       int
	Timestamp   time.Time
	Fields      []EmbedField
	Footer      string
}

type EmbedField struct {
	Name   string
	Value  string
	Inline bool
}
