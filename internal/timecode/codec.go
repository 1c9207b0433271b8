// Package timecode converts between frame counts and HH:MM:SS:FF strings
// and tracks the frame position of a running session.
package timecode

import (
	"fmt"
	"strconv"
	"strings"
)

// DefaultFPS is the frame rate assumed when a session doesn't specify one.
const DefaultFPS = 24

// Encode renders a frame index as an HH:MM:SS:FF timecode at the given
// frame rate. Every field is zero-padded to at least two digits; the hours
// field grows wider past 99. Negative frame indexes clamp to zero.
func Encode(frameIndex int64, fps int) string {
	if frameIndex < 0 {
		frameIndex = 0
	}
	if fps < 1 {
		fps = 1
	}
	f := int64(fps)
	ff := frameIndex % f
	totalSeconds := frameIndex / f
	ss := totalSeconds % 60
	totalMinutes := totalSeconds / 60
	mm := totalMinutes % 60
	hh := totalMinutes / 60
	return fmt.Sprintf("%02d:%02d:%02d:%02d", hh, mm, ss, ff)
}

// Decode parses an HH:MM:SS:FF timecode back into a frame index. Malformed
// input (wrong field count, non-numeric or negative fields) decodes to 0.
// Callers rely on that lenient fallback, so Decode never returns an error.
func Decode(tc string, fps int) int64 {
	if fps < 1 {
		fps = 1
	}
	parts := strings.Split(tc, ":")
	if len(parts) != 4 {
		return 0
	}
	var fields [4]int64
	for i, p := range parts {
		n, err := strconv.ParseInt(p, 10, 64)
		if err != nil || n < 0 {
			return 0
		}
		fields[i] = n
	}
	hh, mm, ss, ff := fields[0], fields[1], fields[2], fields[3]
	return (hh*3600+mm*60+ss)*int64(fps) + ff
}
