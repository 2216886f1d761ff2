package formatter

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/dzrpc/internal/models"
	th "github.com/desertthunder/dzrpc/internal/testing"
)

func testPlays() []*models.Play {
	at := time.Date(2026, 5, 2, 21, 30, 0, 0, time.Local)
	return []*models.Play{
		models.RestorePlay("p3", 3, 3135554, "Aerodynamic", "Daft Punk", "Discovery", "https://www.deezer.com/track/3135554",
			models.TrackChanged, true, at, at, at),
		models.RestorePlay("p2", 2, 3135553, "One More Time", "Daft Punk, Romanthony", "Discovery", "",
			models.Paused, false, at.Add(-2*time.Minute), at, at),
		models.RestorePlay("p1", 1, 3135553, "One More Time", "Daft Punk, Romanthony", "Discovery", "",
			models.TrackChanged, true, at.Add(-26*time.Hour), at, at),
	}
}

func TestExporters(t *testing.T) {
	t.Run("PlaysToCSV", func(t *testing.T) {
		data, err := PlaysToCSV(testPlays())
		if err != nil {
			t.Fatalf("PlaysToCSV failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "Observed,Reason,Playing,Track ID,Title,Artists,Album,Link\n") {
			t.Errorf("CSV missing headers, got: %s", output)
		}
		if !strings.Contains(output, `music got paused,false,3135553,One More Time,"Daft Punk, Romanthony",Discovery,`) {
			t.Errorf("CSV missing quoted artists row, got: %s", output)
		}
		if lines := strings.Count(output, "\n"); lines != 4 {
			t.Errorf("expected 4 lines, got %d", lines)
		}
	})

	t.Run("PlaysToMarkdown", func(t *testing.T) {
		data, err := PlaysToMarkdown(testPlays(), "")
		if err != nil {
			t.Fatalf("PlaysToMarkdown failed: %v", err)
		}

		output := string(data)
		for _, want := range []string{
			"# Listening history\n",
			"**Plays**: 3\n",
			"**Tracks**: 2\n",
			"## 2026-05-02\n",
			"## 2026-05-01\n",
			"- 21:30:00 [Daft Punk - Aerodynamic](https://www.deezer.com/track/3135554) (Discovery), music got changed\n",
			"- 21:28:00 Daft Punk, Romanthony - One More Time (Discovery), music got paused\n",
		} {
			if !strings.Contains(output, want) {
				t.Errorf("Markdown missing %q, got:\n%s", want, output)
			}
		}
		if strings.Count(output, "## 2026-05-02") != 1 {
			t.Error("expected one heading per day")
		}
	})

	t.Run("PlaysToMarkdown with title", func(t *testing.T) {
		data, _ := PlaysToMarkdown(nil, "Friday")
		if !strings.HasPrefix(string(data), "# Friday\n") {
			t.Errorf("unexpected heading: %s", data)
		}
	})

	t.Run("PlaysToText", func(t *testing.T) {
		data, err := PlaysToText(testPlays())
		if err != nil {
			t.Fatalf("PlaysToText failed: %v", err)
		}

		output := string(data)
		if !strings.HasPrefix(output, "Plays: 3\n\n") {
			t.Errorf("unexpected header: %s", output)
		}
		if !strings.Contains(output, "1. 2026-05-02 21:30:00 Daft Punk - Aerodynamic\n") {
			t.Errorf("unexpected first line: %s", output)
		}
	})
}

func TestParseFormat(t *testing.T) {
	tt := []struct {
		in      string
		want    Format
		wantErr bool
	}{
		{in: "csv", want: CSV},
		{in: "MD", want: Markdown},
		{in: "markdown", want: Markdown},
		{in: "", want: Text},
		{in: "txt", want: Text},
		{in: "xlsx", wantErr: true},
	}

	for _, tc := range tt {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseFormat(tc.in)
			if (err != nil) != tc.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tc.in, err, tc.wantErr)
			}
			if got != tc.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestWriteExport(t *testing.T) {
	t.Run("writes to the given path", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "exports", "history.csv")

		got, err := WriteExport(CSV, testPlays(), path)
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if got != path {
			t.Errorf("expected %s, got %s", path, got)
		}

		th.AssertFileExists(t, path)
		if !strings.Contains(th.MustReadFile(t, path), "Aerodynamic") {
			t.Error("expected export to contain plays")
		}
	})

	t.Run("default filename", func(t *testing.T) {
		t.Chdir(t.TempDir())

		got, err := WriteExport(Markdown, testPlays(), "")
		if err != nil {
			t.Fatalf("WriteExport failed: %v", err)
		}
		if !strings.HasPrefix(got, "plays_") || !strings.HasSuffix(got, ".md") {
			t.Errorf("unexpected default filename %s", got)
		}
		th.AssertFileExists(t, got)
	})

	t.Run("unwritable path", func(t *testing.T) {
		dir := t.TempDir()
		blocker := filepath.Join(dir, "file")
		if _, err := WriteExport(Text, nil, blocker); err != nil {
			t.Fatalf("setup failed: %v", err)
		}

		if _, err := WriteExport(Text, testPlays(), filepath.Join(blocker, "nested.txt")); err == nil {
			t.Error("expected error writing beneath a file")
		}
	})
}
