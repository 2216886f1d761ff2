// package formatter exports listening history to files (CSV, Markdown, plain text)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/dzrpc/internal/models"
)

// Format names an export encoding.
type Format string

const (
	CSV      Format = "csv"
	Markdown Format = "markdown"
	Text     Format = "text"
)

const timeLayout = "2006-01-02 15:04:05"

// ParseFormat accepts a format name or its usual file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return CSV, nil
	case "markdown", "md":
		return Markdown, nil
	case "text", "txt", "":
		return Text, nil
	default:
		return "", fmt.Errorf("unknown export format %q (want csv, markdown or text)", s)
	}
}

// Extension returns the file extension used when no output path is given.
func (f Format) Extension() string {
	switch f {
	case CSV:
		return ".csv"
	case Markdown:
		return ".md"
	default:
		return ".txt"
	}
}

// PlaysToCSV writes one row per play with columns: Observed, Reason, Playing, Track ID, Title, Artists, Album, Link
func PlaysToCSV(plays []*models.Play) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Observed", "Reason", "Playing", "Track ID", "Title", "Artists", "Album", "Link"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, p := range plays {
		record := []string{
			p.ObservedAt().UTC().Format(time.RFC3339),
			p.Reason().String(),
			strconv.FormatBool(p.Playing()),
			strconv.FormatInt(p.TrackID(), 10),
			p.Title(),
			p.Artists(),
			p.Album(),
			p.Link(),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// PlaysToMarkdown renders the history as a heading per day with one list item per play.
//
// Plays are expected newest first, the order [repositories.PlayRepository.List] returns.
func PlaysToMarkdown(plays []*models.Play, title string) ([]byte, error) {
	var buf bytes.Buffer

	if title == "" {
		title = "Listening history"
	}
	fmt.Fprintf(&buf, "# %s\n\n", title)
	fmt.Fprintf(&buf, "**Plays**: %d\n", len(plays))
	fmt.Fprintf(&buf, "**Tracks**: %d\n\n", countTracks(plays))

	day := ""
	for _, p := range plays {
		observed := p.ObservedAt().Local()
		if d := observed.Format("2006-01-02"); d != day {
			day = d
			fmt.Fprintf(&buf, "## %s\n\n", day)
		}

		name := fmt.Sprintf("%s - %s", p.Artists(), p.Title())
		if p.Link() != "" {
			name = fmt.Sprintf("[%s](%s)", name, p.Link())
		}
		albumPart := ""
		if p.Album() != "" {
			albumPart = fmt.Sprintf(" (%s)", p.Album())
		}
		fmt.Fprintf(&buf, "- %s %s%s, %s\n", observed.Format("15:04:05"), name, albumPart, p.Reason())
	}

	return buf.Bytes(), nil
}

// PlaysToText renders one line per play.
func PlaysToText(plays []*models.Play) ([]byte, error) {
	var buf bytes.Buffer

	fmt.Fprintf(&buf, "Plays: %d\n\n", len(plays))
	for i, p := range plays {
		fmt.Fprintf(&buf, "%d. %s %s - %s\n", i+1, p.ObservedAt().Local().Format(timeLayout), p.Artists(), p.Title())
	}

	return buf.Bytes(), nil
}

// Export encodes plays in format.
func Export(format Format, plays []*models.Play) ([]byte, error) {
	switch format {
	case CSV:
		return PlaysToCSV(plays)
	case Markdown:
		return PlaysToMarkdown(plays, "")
	default:
		return PlaysToText(plays)
	}
}

// WriteExport encodes plays and writes them to path, creating parent directories.
//
// Defaults to plays_{timestamp}{ext} in the working directory.
func WriteExport(format Format, plays []*models.Play, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("plays_%s%s", time.Now().Format("20060102_150405"), format.Extension())
	}

	data, err := Export(format, plays)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", format, err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return "", fmt.Errorf("failed to create directory: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", format, err)
	}

	return path, nil
}

func countTracks(plays []*models.Play) int {
	seen := map[int64]bool{}
	for _, p := range plays {
		if p.TrackID() != 0 {
			seen[p.TrackID()] = true
		}
	}
	return len(seen)
}
