package export

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/framemarkapp/framemark-server/internal/marker"
)

func TestBuildPlainText_EndToEnd(t *testing.T) {
	// Capture at 120 ("intro") then at 0 ("start"); the timecode ordering
	// renumbers them 1-based in sorted order.
	l := marker.NewLedger()
	m1 := l.Capture(120)
	l.EditComment(m1.ID, "intro")
	m2 := l.Capture(0)
	l.EditComment(m2.ID, "start")

	got := BuildPlainText(l.List(marker.SortTimecode), 24)
	assert.Equal(t, "#01 [00:00:00:00] start\n#02 [00:00:05:00] intro", got)
}

func TestBuildPlainText(t *testing.T) {
	tests := []struct {
		name    string
		markers []marker.Marker
		fps     int
		want    string
	}{
		{
			name:    "empty collection renders empty string",
			markers: nil,
			fps:     24,
			want:    "",
		},
		{
			name:    "empty comment drops trailing space",
			markers: []marker.Marker{{ID: 1, FrameIndex: 24}},
			fps:     24,
			want:    "#01 [00:00:01:00]",
		},
		{
			name:    "comment whitespace is trimmed",
			markers: []marker.Marker{{ID: 1, FrameIndex: 0, Comment: "  padded  "}},
			fps:     24,
			want:    "#01 [00:00:00:00] padded",
		},
		{
			name: "index pads to two digits",
			markers: func() []marker.Marker {
				out := make([]marker.Marker, 10)
				for i := range out {
					out[i] = marker.Marker{ID: int64(i + 1), FrameIndex: int64(i), Comment: "c"}
				}
				return out
			}(),
			fps:  24,
			want: "", // checked below via prefix assertions
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := BuildPlainText(tt.markers, tt.fps)
			if tt.want != "" || len(tt.markers) == 0 {
				assert.Equal(t, tt.want, got)
				return
			}
			lines := strings.Split(got, "\n")
			require.Len(t, lines, 10)
			assert.True(t, strings.HasPrefix(lines[0], "#01 "))
			assert.True(t, strings.HasPrefix(lines[9], "#10 "))
		})
	}
}

func TestBuildPlainText_Deterministic(t *testing.T) {
	markers := []marker.Marker{
		{ID: 1, FrameIndex: 0, Comment: "a"},
		{ID: 2, FrameIndex: 77, Comment: "b"},
	}
	first := BuildPlainText(markers, 25)
	second := BuildPlainText(markers, 25)
	assert.Equal(t, first, second)
}

func TestBuildTableRows(t *testing.T) {
	markers := []marker.Marker{
		{ID: 7, FrameIndex: 120, Comment: "intro"},
		{ID: 9, FrameIndex: 0, Comment: ""},
	}

	rows := BuildTableRows(markers, 24)
	require.Len(t, rows, 2)

	// Index is the position in the exported ordering, not the marker id.
	assert.Equal(t, Row{Index: 1, Timecode: "00:00:05:00", Comment: "intro"}, rows[0])
	assert.Equal(t, Row{Index: 2, Timecode: "00:00:00:00", Comment: ""}, rows[1])
}

func TestEscapeRow(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"ampersand", "cut & paste", "cut &amp; paste"},
		{"angle brackets", "<b>bold</b>", "&lt;b&gt;bold&lt;/b&gt;"},
		{"quotes", `say "hi"`, "say &quot;hi&quot;"},
		{"apostrophe", "don't", "don&#39;t"},
		{"clean passes through", "plain comment", "plain comment"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := EscapeRow(Row{Index: 1, Timecode: "00:00:00:00", Comment: tt.in})
			assert.Equal(t, tt.want, r.Comment)
			assert.Equal(t, "00:00:00:00", r.Timecode)
		})
	}
}

func TestBuildSummaryInput(t *testing.T) {
	markers := []marker.Marker{
		{ID: 1, FrameIndex: 0, Comment: "start"},
		{ID: 2, FrameIndex: 120, Comment: "intro"},
	}

	got := BuildSummaryInput(markers, 24)
	assert.Equal(t, "[00:00:00:00] start\n[00:00:05:00] intro", got)
}

func TestDefaultFileName(t *testing.T) {
	tests := []struct {
		name      string
		fps       int
		sortLabel string
		want      string
	}{
		{"plain text has no label", 24, "", "markers_24fps"},
		{"tabular appends label", 30, "timecode", "markers_30fps_timecode"},
		{"label is slugified", 25, "By Timecode", "markers_25fps_by-timecode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, DefaultFileName(tt.fps, tt.sortLabel))
		})
	}
}

func TestBuildDocument(t *testing.T) {
	rows := []Row{
		{Index: 1, Timecode: "00:00:00:00", Comment: `<script>"x"</script>`},
		{Index: 2, Timecode: "00:00:05:00", Comment: "intro"},
	}
	meta := DocumentMeta{
		SessionName: "Dailies & Review",
		FPS:         24,
		SortLabel:   "timecode",
		MarkerCount: 2,
		ExportedAt:  time.Date(2026, 8, 24, 15, 30, 0, 0, time.UTC),
	}

	doc := BuildDocument(rows, meta)

	assert.Contains(t, doc, "<h1>Dailies &amp; Review</h1>")
	assert.Contains(t, doc, "24 fps")
	assert.Contains(t, doc, "2 markers")
	assert.Contains(t, doc, "sorted by timecode")
	assert.Contains(t, doc, "2026-08-24 15:30:00")
	assert.Contains(t, doc, "&lt;script&gt;&quot;x&quot;&lt;/script&gt;")
	assert.NotContains(t, doc, "<script>")
	assert.Contains(t, doc, "<td class=\"tc\">00:00:05:00</td>")
}
