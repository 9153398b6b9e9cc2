// Package player follows an MPRIS media player over the D-Bus session bus
// and exposes its playback position in milliseconds.
package player

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/godbus/dbus/v5"

	"karolbroda.com/lyrhaze/internal/logging"
	"karolbroda.com/lyrhaze/internal/track"
)

const (
	mprisPath        = "/org/mpris/MediaPlayer2"
	mprisRootIface   = "org.mpris.MediaPlayer2"
	mprisPlayerIface = "org.mpris.MediaPlayer2.Player"
	mprisPrefix      = "org.mpris.MediaPlayer2."

	// a jump larger than this between polls is reported as a seek
	seekThresholdMs = 3_000
)

type Event int

const (
	EventTrackChanged Event = iota
	EventPositionChanged
	EventSeeked
	EventPlaybackStateChanged
)

func (e Event) String() string {
	switch e {
	case EventTrackChanged:
		return "track-changed"
	case EventPositionChanged:
		return "position-changed"
	case EventSeeked:
		return "seeked"
	case EventPlaybackStateChanged:
		return "playback-state-changed"
	}
	return fmt.Sprintf("event(%d)", int(e))
}

type EventData struct {
	Type       Event
	Track      *track.Info
	PositionMs int64
	Playing    bool
}

type State struct {
	Track      *track.Info
	PositionMs int64
	Playing    bool

	lastUpdate time.Time
	lastMs     int64
}

// DetectSeek compares a new position against where steady playback from
// the previous sample would be.
func (s *State) DetectSeek(positionMs int64, now time.Time) bool {
	if s.lastUpdate.IsZero() {
		return false
	}

	expected := s.lastMs
	if s.Playing {
		expected += now.Sub(s.lastUpdate).Milliseconds()
	}

	diff := positionMs - expected
	if diff < 0 {
		diff = -diff
	}
	return diff > seekThresholdMs
}

func (s *State) UpdatePosition(positionMs int64, now time.Time) {
	s.PositionMs = positionMs
	s.lastMs = positionMs
	s.lastUpdate = now
}

type Service struct {
	bus        *dbus.Conn
	service    string
	signalChan chan *dbus.Signal
	stopChan   chan struct{}
	stopOnce   sync.Once
	eventChan  chan EventData
	state      *State
	mu         sync.RWMutex
	logger     *slog.Logger
}

func NewService(bus *dbus.Conn, mprisService string) (*Service, error) {
	if bus == nil {
		return nil, errors.New("nil dbus connection")
	}
	if mprisService == "" {
		return nil, errors.New("empty mpris service name")
	}

	return &Service{
		bus:       bus,
		service:   mprisService,
		eventChan: make(chan EventData, 16),
		state:     &State{},
		logger:    logging.Logger().With("service", mprisService),
	}, nil
}

func (s *Service) Name() string {
	return s.service
}

func (s *Service) Start() error {
	s.signalChan = make(chan *dbus.Signal, 10)
	s.stopChan = make(chan struct{})

	s.bus.Signal(s.signalChan)

	matches := []string{
		fmt.Sprintf(
			"type='signal',sender='%s',interface='org.freedesktop.DBus.Properties',member='PropertiesChanged',path='%s'",
			s.service, mprisPath,
		),
		fmt.Sprintf(
			"type='signal',sender='%s',interface='%s',member='Seeked',path='%s'",
			s.service, mprisPlayerIface, mprisPath,
		),
	}
	for _, match := range matches {
		if err := s.bus.BusObject().Call("org.freedesktop.DBus.AddMatch", 0, match).Err; err != nil {
			return fmt.Errorf("failed to add match %q: %w", match, err)
		}
	}

	go s.signalLoop()

	return nil
}

func (s *Service) Stop() {
	s.stopOnce.Do(func() {
		if s.stopChan != nil {
			close(s.stopChan)
		}
	})
}

func (s *Service) Events() <-chan EventData {
	return s.eventChan
}

func (s *Service) CurrentTrack() (*track.Info, error) {
	prop, err := s.bus.Object(s.service, mprisPath).GetProperty(mprisPlayerIface + ".Metadata")
	if err != nil {
		return nil, fmt.Errorf("failed to get metadata property: %w", err)
	}

	metadata, ok := prop.Value().(map[string]dbus.Variant)
	if !ok {
		return nil, fmt.Errorf("unexpected metadata type %T", prop.Value())
	}

	info := ParseMetadata(metadata)
	if !info.IsValid() {
		return nil, fmt.Errorf("missing title or artist in metadata (title=%q, artist=%q)", info.Title, info.Artist)
	}

	return info, nil
}

// PositionMs reads the live MPRIS position, which is reported in
// microseconds.
func (s *Service) PositionMs() (int64, error) {
	prop, err := s.bus.Object(s.service, mprisPath).GetProperty(mprisPlayerIface + ".Position")
	if err != nil {
		return 0, fmt.Errorf("failed to get position property: %w", err)
	}

	micros, ok := prop.Value().(int64)
	if !ok {
		return 0, fmt.Errorf("unexpected position type %T", prop.Value())
	}
	return microsToMs(micros), nil
}

func (s *Service) PlaybackStatus() (string, error) {
	prop, err := s.bus.Object(s.service, mprisPath).GetProperty(mprisPlayerIface + ".PlaybackStatus")
	if err != nil {
		return "", fmt.Errorf("failed to get playback status: %w", err)
	}
	status, ok := prop.Value().(string)
	if !ok {
		return "", fmt.Errorf("unexpected playback status type %T", prop.Value())
	}
	return status, nil
}

// Identity is the human readable player name, or "" when unavailable.
func (s *Service) Identity() string {
	return Identity(s.bus, s.service)
}

// Poll refreshes track and position. It emits a track change or a seek
// when either is detected.
func (s *Service) Poll() error {
	trk, err := s.CurrentTrack()
	if err != nil {
		return err
	}

	pos, err := s.PositionMs()
	if err != nil {
		return err
	}

	status, statusErr := s.PlaybackStatus()
	now := time.Now()

	s.mu.Lock()
	if statusErr == nil {
		s.state.Playing = status == "Playing"
	}
	changed := !trk.IsSameTrack(s.state.Track)
	seeked := !changed && s.state.DetectSeek(pos, now)
	s.state.UpdatePosition(pos, now)
	if changed {
		s.state.Track = trk
	}
	s.mu.Unlock()

	switch {
	case changed:
		s.logger.Debug("track changed", "track", trk.String())
		s.emitEvent(EventData{Type: EventTrackChanged, Track: trk, PositionMs: pos})
	case seeked:
		s.emitEvent(EventData{Type: EventSeeked, PositionMs: pos})
	}

	return nil
}

// State returns a copy of the last polled state.
func (s *Service) State() State {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := State{
		PositionMs: s.state.PositionMs,
		Playing:    s.state.Playing,
	}
	if s.state.Track != nil {
		trk := *s.state.Track
		out.Track = &trk
	}
	return out
}

func (s *Service) signalLoop() {
	for {
		select {
		case sig, ok := <-s.signalChan:
			if !ok {
				return
			}
			s.handleSignal(sig)
		case <-s.stopChan:
			return
		}
	}
}

func (s *Service) handleSignal(sig *dbus.Signal) {
	if sig == nil {
		return
	}

	switch sig.Name {
	case "org.freedesktop.DBus.Properties.PropertiesChanged":
		s.handlePropertiesChanged(sig)
	case mprisPlayerIface + ".Seeked":
		s.handleSeeked(sig)
	}
}

func (s *Service) handlePropertiesChanged(sig *dbus.Signal) {
	if len(sig.Body) < 2 {
		return
	}

	iface, ok := sig.Body[0].(string)
	if !ok || iface != mprisPlayerIface {
		return
	}

	changed, ok := sig.Body[1].(map[string]dbus.Variant)
	if !ok {
		return
	}

	if variant, exists := changed["Metadata"]; exists {
		if metadata, ok := variant.Value().(map[string]dbus.Variant); ok {
			info := ParseMetadata(metadata)
			if info.IsValid() {
				s.mu.Lock()
				same := info.IsSameTrack(s.state.Track)
				s.state.Track = info
				s.state.UpdatePosition(0, time.Now())
				s.mu.Unlock()

				if !same {
					s.emitEvent(EventData{Type: EventTrackChanged, Track: info})
				}
			}
		}
	}

	if variant, exists := changed["PlaybackStatus"]; exists {
		if status, ok := variant.Value().(string); ok {
			playing := status == "Playing"
			s.mu.Lock()
			s.state.Playing = playing
			s.state.lastUpdate = time.Now()
			s.mu.Unlock()

			s.emitEvent(EventData{Type: EventPlaybackStateChanged, Playing: playing})
		}
	}
}

func (s *Service) handleSeeked(sig *dbus.Signal) {
	if len(sig.Body) < 1 {
		return
	}

	micros, ok := sig.Body[0].(int64)
	if !ok {
		return
	}
	pos := microsToMs(micros)

	s.mu.Lock()
	s.state.UpdatePosition(pos, time.Now())
	s.mu.Unlock()

	s.emitEvent(EventData{Type: EventSeeked, PositionMs: pos})
}

func (s *Service) emitEvent(event EventData) {
	select {
	case s.eventChan <- event:
	default:
		s.logger.Debug("dropped player event", "event", event.Type.String())
	}
}

// ListServices returns the MPRIS players currently on the bus, sorted.
func ListServices(bus *dbus.Conn) ([]string, error) {
	var names []string
	if err := bus.BusObject().Call("org.freedesktop.DBus.ListNames", 0).Store(&names); err != nil {
		return nil, fmt.Errorf("failed to list dbus names: %w", err)
	}
	return FilterServices(names), nil
}

func FilterServices(names []string) []string {
	var services []string
	for _, name := range names {
		if strings.HasPrefix(name, mprisPrefix) {
			services = append(services, name)
		}
	}
	sort.Strings(services)
	return services
}

func Identity(bus *dbus.Conn, service string) string {
	variant, err := bus.Object(service, mprisPath).GetProperty(mprisRootIface + ".Identity")
	if err != nil {
		return ""
	}
	identity, _ := variant.Value().(string)
	return identity
}

// ParseMetadata maps an MPRIS metadata dictionary onto a track.
func ParseMetadata(metadata map[string]dbus.Variant) *track.Info {
	return &track.Info{
		Title:      extractString(metadata, "xesam:title"),
		Artist:     extractArtist(metadata, "xesam:artist"),
		Album:      extractString(metadata, "xesam:album"),
		ArtworkURL: extractString(metadata, "mpris:artUrl"),
		TrackID:    extractTrackID(metadata, "mpris:trackid"),
		DurationMs: extractLengthMs(metadata, "mpris:length"),
	}
}

func microsToMs(micros int64) int64 {
	if micros < 0 {
		return 0
	}
	return micros / 1_000
}

func extractString(metadata map[string]dbus.Variant, key string) string {
	variant, exists := metadata[key]
	if !exists {
		return ""
	}
	text, _ := variant.Value().(string)
	return text
}

// MPRIS defines trackid as an object path, but some players send a string
func extractTrackID(metadata map[string]dbus.Variant, key string) string {
	variant, exists := metadata[key]
	if !exists {
		return ""
	}
	switch typed := variant.Value().(type) {
	case dbus.ObjectPath:
		return string(typed)
	case string:
		return typed
	}
	return ""
}

func extractArtist(metadata map[string]dbus.Variant, key string) string {
	variant, exists := metadata[key]
	if !exists {
		return ""
	}

	switch typed := variant.Value().(type) {
	case []string:
		if len(typed) > 0 {
			return typed[0]
		}
	case string:
		return typed
	}
	return ""
}

func extractLengthMs(metadata map[string]dbus.Variant, key string) int64 {
	variant, exists := metadata[key]
	if !exists {
		return 0
	}

	switch typed := variant.Value().(type) {
	case int64:
		return microsToMs(typed)
	case uint64:
		return int64(typed / 1_000)
	case int32:
		return microsToMs(int64(typed))
	}
	return 0
}
