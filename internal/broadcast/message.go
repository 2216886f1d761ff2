package broadcast

import (
	"encoding/json"
	"fmt"

	"github.com/desertthunder/dzrpc/internal/models"
	"github.com/desertthunder/dzrpc/internal/shared"
)

// MessageType is the envelope type of every event.
const MessageType = "message"

// Event names.
const (
	EventTrackChanged = "PLAYER_TRACK_CHANGED"
	EventStateChanged = "PLAYER_STATE_CHANGED"
)

// Message is the broadcast envelope.
type Message struct {
	ID    string          `json:"id"`
	Type  string          `json:"type"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// NewMessage marshals data into a new envelope for event.
func NewMessage(event string, data any) (Message, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Message{}, fmt.Errorf("%w: %s payload: %w", shared.ErrInvalidInput, event, err)
	}
	return Message{ID: shared.GenerateID(), Type: MessageType, Event: event, Data: raw}, nil
}

// TrackAlbum pairs a track with its album. Both are omitted when unknown.
type TrackAlbum struct {
	Track *models.Track `json:"track,omitempty"`
	Album *models.Album `json:"album,omitempty"`
}

// TrackChanged is the data of [EventTrackChanged].
//
// Old is an empty object when the previous track was never resolved.
type TrackChanged struct {
	Old TrackAlbum `json:"old"`
	New TrackAlbum `json:"new"`
}

// PlayerEvent carries either the playing flag or the remaining seconds.
type PlayerEvent struct {
	Playing *bool  `json:"playing,omitempty"`
	Time    *int64 `json:"time,omitempty"`
}

// StateChanged is the data of [EventStateChanged].
type StateChanged struct {
	TrackAlbum
	Event PlayerEvent `json:"event"`
}

// DecodeTrackChanged decodes the data of a track change message.
func (m Message) DecodeTrackChanged() (TrackChanged, error) {
	var data TrackChanged
	if m.Event != EventTrackChanged {
		return data, fmt.Errorf("%w: event %s is not %s", shared.ErrInvalidInput, m.Event, EventTrackChanged)
	}
	if err := json.Unmarshal(m.Data, &data); err != nil {
		return data, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	return data, nil
}

// DecodeStateChanged decodes the data of a player state message.
func (m Message) DecodeStateChanged() (StateChanged, error) {
	var data StateChanged
	if m.Event != EventStateChanged {
		return data, fmt.Errorf("%w: event %s is not %s", shared.ErrInvalidInput, m.Event, EventStateChanged)
	}
	if err := json.Unmarshal(m.Data, &data); err != nil {
		return data, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	return data, nil
}
