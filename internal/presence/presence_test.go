package presence

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/dzrpc/internal/shared"
	"github.com/hugolgst/rich-go/client"
)

type fakeIPC struct {
	logins     int
	logouts    int
	loginErr   error
	setErr     error
	activities []client.Activity
}

func (f *fakeIPC) Login(string) error {
	f.logins++
	return f.loginErr
}

func (f *fakeIPC) Logout() { f.logouts++ }

func (f *fakeIPC) SetActivity(a client.Activity) error {
	if f.setErr != nil {
		return f.setErr
	}
	f.activities = append(f.activities, a)
	return nil
}

func TestRPC(t *testing.T) {
	logger := log.New(io.Discard)

	t.Run("logs in lazily once", func(t *testing.T) {
		f := &fakeIPC{}
		r := newRPC("123", f, logger)

		if f.logins != 0 {
			t.Fatal("expected no login before the first activity")
		}
		for range 3 {
			if err := r.SetActivity(Activity{Details: "One More Time"}); err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		}
		if f.logins != 1 {
			t.Errorf("expected 1 login, got %d", f.logins)
		}
		if len(f.activities) != 3 {
			t.Errorf("expected 3 activities, got %d", len(f.activities))
		}
	})

	t.Run("missing client id", func(t *testing.T) {
		f := &fakeIPC{}
		r := newRPC("", f, logger)

		err := r.SetActivity(Activity{})
		if !errors.Is(err, shared.ErrMissingCredentials) {
			t.Errorf("expected ErrMissingCredentials, got %v", err)
		}
		if f.logins != 0 {
			t.Error("expected no login attempt")
		}
	})

	t.Run("login failure", func(t *testing.T) {
		f := &fakeIPC{loginErr: errors.New("no socket")}
		r := newRPC("123", f, logger)

		if err := r.SetActivity(Activity{}); !errors.Is(err, shared.ErrNotConnected) {
			t.Errorf("expected ErrNotConnected, got %v", err)
		}
		f.loginErr = nil
		if err := r.SetActivity(Activity{}); err != nil {
			t.Errorf("expected retry to succeed, got %v", err)
		}
		if f.logins != 2 {
			t.Errorf("expected 2 logins, got %d", f.logins)
		}
	})

	t.Run("write failure reconnects", func(t *testing.T) {
		f := &fakeIPC{setErr: errors.New("broken pipe")}
		r := newRPC("123", f, logger)

		if err := r.SetActivity(Activity{}); err == nil {
			t.Fatal("expected error")
		}
		if f.logouts != 1 {
			t.Errorf("expected logout after failure, got %d", f.logouts)
		}

		f.setErr = nil
		if err := r.SetActivity(Activity{}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.logins != 2 {
			t.Errorf("expected a fresh login, got %d", f.logins)
		}
	})

	t.Run("Clear logs out only when connected", func(t *testing.T) {
		f := &fakeIPC{}
		r := newRPC("123", f, logger)

		if err := r.Clear(); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if f.logouts != 0 {
			t.Error("expected no logout without a session")
		}

		_ = r.SetActivity(Activity{})
		_ = r.Clear()
		r.Close()
		if f.logouts != 1 {
			t.Errorf("expected 1 logout, got %d", f.logouts)
		}
	})
}

func TestConvert(t *testing.T) {
	start := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	end := start.Add(3 * time.Minute)

	t.Run("full activity", func(t *testing.T) {
		got := Convert(Activity{
			Details:    "One More Time",
			State:      "Daft Punk",
			LargeImage: "spotify:abc",
			LargeText:  "Discovery",
			SmallImage: "play",
			SmallText:  "Playing",
			Start:      &start,
			End:        &end,
			Buttons: []Button{
				{Label: "Play on Deezer", URL: "https://www.deezer.com/track/3135553"},
				{Label: "Two", URL: "https://example.com/2"},
				{Label: "Three", URL: "https://example.com/3"},
			},
		})

		if got.Details != "One More Time" || got.State != "Daft Punk" {
			t.Errorf("unexpected text fields %+v", got)
		}
		if got.LargeImage != "spotify:abc" || got.SmallImage != "play" {
			t.Errorf("unexpected images %+v", got)
		}
		if got.Timestamps == nil || !got.Timestamps.Start.Equal(start) || !got.Timestamps.End.Equal(end) {
			t.Errorf("unexpected timestamps %+v", got.Timestamps)
		}
		if len(got.Buttons) != 2 {
			t.Fatalf("expected buttons capped at 2, got %d", len(got.Buttons))
		}
		if got.Buttons[0].Url != "https://www.deezer.com/track/3135553" {
			t.Errorf("unexpected button url %s", got.Buttons[0].Url)
		}
	})

	t.Run("no timestamps", func(t *testing.T) {
		got := Convert(Activity{Details: "Paused"})
		if got.Timestamps != nil {
			t.Errorf("expected nil timestamps, got %+v", got.Timestamps)
		}
		if got.Buttons != nil {
			t.Errorf("expected no buttons, got %v", got.Buttons)
		}
	})

	t.Run("end only", func(t *testing.T) {
		got := Convert(Activity{End: &end})
		if got.Timestamps == nil || got.Timestamps.Start != nil || got.Timestamps.End == nil {
			t.Errorf("expected end-only timestamps, got %+v", got.Timestamps)
		}
	})
}
