// Package export writes call history as CSV to a local directory or an
// S3-compatible bucket.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"time"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/dukerupert/callagent/internal/model"
)

// Header is the column order of exported call rows.
var Header = []string{
	"id",
	"organization_id",
	"started_at",
	"direction",
	"status",
	"phone_number",
	"caller_name",
	"duration_seconds",
	"sentiment",
	"summary",
	"recording_url",
}

// WriteCSV writes a header row followed by one row per call.
func WriteCSV(w io.Writer, calls []model.Call) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, c := range calls {
		started := ""
		if !c.StartedAt.IsZero() {
			started = c.StartedAt.UTC().Format(time.RFC3339)
		}
		row := []string{
			c.ID,
			c.OrganizationID,
			started,
			c.Direction,
			c.Status,
			c.PhoneNumber,
			c.CallerName,
			strconv.Itoa(c.Duration),
			c.Sentiment,
			c.Summary,
			c.RecordingURL,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write call %s: %w", c.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// WithBOM prefixes w with a UTF-8 byte order mark so spreadsheet tools detect
// the encoding. Close the returned writer to flush it.
func WithBOM(w io.Writer) io.WriteCloser {
	return transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
}
