// Package hostio defines the external collaborator interfaces spec.md
// §1 places out of the core's scope — EventSink, ControlChannel, and
// PrefStore — plus one thin default implementation of each so the
// daemon is runnable standalone. The core never assumes a concrete
// format for any of the three; these defaults are swappable adapters,
// not part of the core's contract.
package hostio

import (
	"encoding/json"
	"errors"
	"log"
	"os"
	"sync"

	"github.com/tabletmagic/daemon/eventsynth"
)

// EventSink is the opaque platform HID event sink the core posts
// synthesized pointer/tablet events to.
type EventSink interface {
	Post(ev eventsynth.Event) error
}

// LoggingSink is the default EventSink: it writes one line per event
// through the standard log package, using the same bracketed tag
// convention ("[EVT ] ") the original daemon's bracketed log tags use
// throughout SerialDaemon.cpp.
type LoggingSink struct {
	logger *log.Logger
}

// NewLoggingSink returns an EventSink that logs to the standard logger.
func NewLoggingSink() *LoggingSink {
	return &LoggingSink{logger: log.New(os.Stderr, "[EVT ] ", log.LstdFlags)}
}

func (s *LoggingSink) Post(ev eventsynth.Event) error {
	s.logger.Printf("kind=%d pointer=%d button=%d clicks=%d pos=(%d,%d)",
		ev.Kind, ev.Pointer, ev.Button, ev.ClickCount, ev.X, ev.Y)
	return nil
}

// ControlChannel carries length-prefixed UTF-8 command/reply text
// between the core's ControlPlane and an external controller (a GUI
// panel in the original daemon, out of scope here per spec.md §1).
type ControlChannel interface {
	// ReadCommand returns the next command, blocking until one is
	// available or the channel is closed.
	ReadCommand() (string, error)
	// WriteReply sends one reply line back to the controller.
	WriteReply(string) error
}

// ErrChannelClosed is returned by ReadCommand once the channel has been
// closed and drained.
var ErrChannelClosed = errors.New("hostio: control channel closed")

// ChanChannel is an in-process ControlChannel backed by Go channels,
// useful for tests and for a CLI's "-c" command mode.
type ChanChannel struct {
	in     chan string
	out    chan string
	closed chan struct{}
	once   sync.Once
}

// NewChanChannel returns a ready ChanChannel.
func NewChanChannel() *ChanChannel {
	return &ChanChannel{
		in:     make(chan string, 16),
		out:    make(chan string, 16),
		closed: make(chan struct{}),
	}
}

func (c *ChanChannel) ReadCommand() (string, error) {
	select {
	case cmd := <-c.in:
		return cmd, nil
	case <-c.closed:
		return "", ErrChannelClosed
	}
}

func (c *ChanChannel) WriteReply(reply string) error {
	select {
	case c.out <- reply:
		return nil
	case <-c.closed:
		return ErrChannelClosed
	}
}

// Send enqueues a command as if an external controller sent it (test
// and CLI helper, not part of the ControlChannel contract itself).
func (c *ChanChannel) Send(cmd string) { c.in <- cmd }

// Recv drains the next reply (test and CLI helper).
func (c *ChanChannel) Recv() string { return <-c.out }

// Close shuts the channel down; further ReadCommand/WriteReply calls
// return ErrChannelClosed.
func (c *ChanChannel) Close() { c.once.Do(func() { close(c.closed) }) }

// Preset is one named, persisted tablet configuration.
type Preset struct {
	Name        string `json:"name"`
	SetupString string `json:"setup_string"`
	Port        string `json:"port"`
}

// PrefState is everything spec.md §6 says is persisted: named presets,
// the last-used serial port, the active preset index, and whether the
// tablet is enabled.
type PrefState struct {
	Presets       []Preset `json:"presets"`
	LastPort      string   `json:"last_port"`
	ActivePreset  int      `json:"active_preset"`
	TabletEnabled bool     `json:"tablet_enabled"`
}

// PrefStore reads and writes small key/value records describing
// persisted preset state. The core never requires a specific on-disk
// format (spec.md §6); this interface is the seam.
type PrefStore interface {
	Load() (PrefState, error)
	Save(PrefState) error
}

// FileStore is a flat JSON-file PrefStore — the thinnest possible
// adapter, since no pack repo carries a config-file or KV-store
// library (see DESIGN.md).
type FileStore struct {
	Path string
}

// NewFileStore returns a FileStore rooted at path.
func NewFileStore(path string) *FileStore {
	return &FileStore{Path: path}
}

func (f *FileStore) Load() (PrefState, error) {
	data, err := os.ReadFile(f.Path)
	if errors.Is(err, os.ErrNotExist) {
		return PrefState{}, nil
	}
	if err != nil {
		return PrefState{}, err
	}
	var state PrefState
	if err := json.Unmarshal(data, &state); err != nil {
		return PrefState{}, err
	}
	return state, nil
}

func (f *FileStore) Save(state PrefState) error {
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(f.Path, data, 0o644)
}
