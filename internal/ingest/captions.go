package ingest

import (
	"regexp"
	"strings"
)

// capRE recognizes caption-like lines: "Table II", "Tab. 3", etc.
var capRE = regexp.MustCompile(`(?i)^(table|tab\.)\s+[ivxlcdm\d]+\b`)

// maxCaptionScan bounds how many non-blank lines are examined around a
// table when hunting for its caption.
const maxCaptionScan = 8

// findCaption scans the lines nearest the table grid for a caption-like
// line. For direction "above" the last lines are scanned first.
func findCaption(lines []string, direction string) string {
	if direction == "above" {
		reversed := make([]string, len(lines))
		for i, ln := range lines {
			reversed[len(lines)-1-i] = ln
		}
		lines = reversed
	}

	seen := 0
	for _, ln := range lines {
		txt := strings.TrimSpace(strings.Trim(strings.TrimSpace(ln), "| "))
		if txt == "" {
			continue
		}
		if capRE.MatchString(txt) {
			return txt
		}
		seen++
		if seen >= maxCaptionScan {
			break
		}
	}
	return ""
}

// resolveTableCaption prefers the converter's own caption when it already
// looks like one, then a scan above the table grid in the document text,
// then below, falling back to whatever the converter supplied.
func resolveTableCaption(converterCaption, tableMD, docMD string) string {
	caption := strings.TrimSpace(converterCaption)
	if capRE.MatchString(caption) {
		return caption
	}

	grid := strings.TrimSpace(tableMD)
	pos := strings.Index(docMD, grid)
	if pos < 0 {
		return caption
	}

	if found := findCaption(strings.Split(docMD[:pos], "\n"), "above"); found != "" {
		return found
	}
	if found := findCaption(strings.Split(docMD[pos+len(grid):], "\n"), "below"); found != "" {
		return found
	}
	return caption
}
