package export

import (
	"fmt"
	"strings"
	"time"
)

// DocumentMeta is the header block of a printable export.
type DocumentMeta struct {
	SessionName string
	FPS         int
	SortLabel   string
	MarkerCount int
	ExportedAt  time.Time
}

// BuildDocument renders rows into a standalone printable HTML page. Rows
// are escaped here; callers pass unescaped rows. Only the export timestamp
// in the header is time-formatted; the data fields themselves are the
// deterministic codec output.
func BuildDocument(rows []Row, meta DocumentMeta) string {
	var b strings.Builder

	b.WriteString("<!DOCTYPE html>\n<html>\n<head>\n")
	b.WriteString("<meta charset=\"utf-8\">\n")
	fmt.Fprintf(&b, "<title>%s</title>\n", markupEscaper.Replace(meta.SessionName))
	b.WriteString(`<style>
body { font-family: system-ui, sans-serif; margin: 2rem; color: #111; }
h1 { font-size: 1.3rem; margin-bottom: 0.25rem; }
p.meta { color: #555; margin-top: 0; font-size: 0.85rem; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 0.4rem 0.6rem; text-align: left; }
th { background: #f2f2f2; }
td.tc { font-family: ui-monospace, monospace; white-space: nowrap; }
</style>
`)
	b.WriteString("</head>\n<body>\n")

	fmt.Fprintf(&b, "<h1>%s</h1>\n", markupEscaper.Replace(meta.SessionName))
	fmt.Fprintf(&b, "<p class=\"meta\">%d fps · %d markers · sorted by %s · exported %s</p>\n",
		meta.FPS,
		meta.MarkerCount,
		markupEscaper.Replace(meta.SortLabel),
		meta.ExportedAt.Format("2006-01-02 15:04:05"),
	)

	b.WriteString("<table>\n<thead><tr><th>#</th><th>Timecode</th><th>Comment</th></tr></thead>\n<tbody>\n")
	for _, row := range rows {
		r := EscapeRow(row)
		fmt.Fprintf(&b, "<tr><td>%02d</td><td class=\"tc\">%s</td><td>%s</td></tr>\n",
			r.Index, r.Timecode, r.Comment)
	}
	b.WriteString("</tbody>\n</table>\n</body>\n</html>\n")

	return b.String()
}
