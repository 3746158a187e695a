package models

import (
	"encoding/base64"
	"strings"
	"time"
)

// TimestampLayout is the ISO-8601 layout used on the wire
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

const pngDataURIPrefix = "data:image/png;base64,"

// CapturePayload is the snapshot of one visited page.
// Build it with NewCapturePayload and treat it as read-only afterwards.
type CapturePayload struct {
	URL        string `json:"url"`
	Timestamp  string `json:"timestamp"`
	HTML       string `json:"html"`
	Screenshot string `json:"screenshot"`

	capturedAt time.Time
	png        []byte
}

// NewCapturePayload encodes the screenshot as a data URI and stamps the capture time in UTC
func NewCapturePayload(url string, capturedAt time.Time, html string, png []byte) *CapturePayload {
	return &CapturePayload{
		URL:        url,
		Timestamp:  capturedAt.UTC().Format(TimestampLayout),
		HTML:       html,
		Screenshot: pngDataURIPrefix + base64.StdEncoding.EncodeToString(png),
		capturedAt: capturedAt,
		png:        png,
	}
}

// CapturedAt returns the capture time
func (p *CapturePayload) CapturedAt() time.Time {
	return p.capturedAt
}

// PNG returns the raw screenshot bytes, decoding the data URI when the payload came off the wire
func (p *CapturePayload) PNG() ([]byte, error) {
	if p.png != nil {
		return p.png, nil
	}
	encoded := p.Screenshot
	if idx := strings.Index(encoded, ","); strings.HasPrefix(encoded, "data:") && idx >= 0 {
		encoded = encoded[idx+1:]
	}
	return base64.StdEncoding.DecodeString(encoded)
}
