// Package export renders ordered marker collections into the plain-text,
// tabular, and summary-prompt representations handed to files, printers,
// and the summarization service.
package export

import (
	"fmt"
	"strings"

	"github.com/framemarkapp/framemark-server/internal/marker"
	"github.com/framemarkapp/framemark-server/internal/timecode"
	"github.com/framemarkapp/framemark-server/internal/util"
)

// Row is one tabular export entry. Index is the 1-based position within
// the exported ordering, not the marker id.
type Row struct {
	Index    int    `json:"index"`
	Timecode string `json:"timecode"`
	Comment  string `json:"comment"`
}

// BuildPlainText renders one "#NN [HH:MM:SS:FF] comment" line per marker
// in the order given, joined with \n. Comments are trimmed and each line
// loses trailing whitespace, so empty comments render as "#NN [tc]".
// Output is byte-identical for identical input; no state, no locale.
func BuildPlainText(markers []marker.Marker, fps int) string {
	lines := make([]string, 0, len(markers))
	for i, m := range markers {
		line := fmt.Sprintf("#%02d [%s] %s",
			i+1, timecode.Encode(m.FrameIndex, fps), strings.TrimSpace(m.Comment))
		lines = append(lines, strings.TrimRight(line, " \t"))
	}
	return strings.Join(lines, "\n")
}

// BuildTableRows produces the structured rows behind tabular and printable
// exports. No escaping is applied here; markup targets escape via EscapeRow.
func BuildTableRows(markers []marker.Marker, fps int) []Row {
	rows := make([]Row, 0, len(markers))
	for i, m := range markers {
		rows = append(rows, Row{
			Index:    i + 1,
			Timecode: timecode.Encode(m.FrameIndex, fps),
			Comment:  strings.TrimSpace(m.Comment),
		})
	}
	return rows
}

var markupEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&#39;",
)

// EscapeRow returns a copy of r with markup-significant characters escaped
// in the timecode and comment fields. Plain-text export never escapes.
func EscapeRow(r Row) Row {
	r.Timecode = markupEscaper.Replace(r.Timecode)
	r.Comment = markupEscaper.Replace(r.Comment)
	return r
}

// BuildSummaryInput renders the "[HH:MM:SS:FF] comment" lines embedded in
// the summarization prompt, in the order given.
func BuildSummaryInput(markers []marker.Marker, fps int) string {
	lines := make([]string, 0, len(markers))
	for _, m := range markers {
		line := fmt.Sprintf("[%s] %s",
			timecode.Encode(m.FrameIndex, fps), strings.TrimSpace(m.Comment))
		lines = append(lines, strings.TrimRight(line, " \t"))
	}
	return strings.Join(lines, "\n")
}

// DefaultFileName builds the suggested export file name: markers_{fps}fps,
// with the sort label appended for tabular exports. Callers may override.
func DefaultFileName(fps int, sortLabel string) string {
	name := fmt.Sprintf("markers_%dfps", fps)
	if slug := util.Slug(sortLabel); slug != "" {
		name += "_" + slug
	}
	return name
}
