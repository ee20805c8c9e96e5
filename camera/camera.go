// Package camera models the kiosk's video capability. A Device hands out
// Streams; a Stream must be stopped by whoever opened it.
package camera

import (
	"context"
	"errors"
	"sync"
	"time"
)

var (
	// ErrStreamStopped is returned by Capture after Stop.
	ErrStreamStopped = errors.New("camera stream stopped")
	// ErrNoFace is returned when a frame holds no usable face.
	ErrNoFace = errors.New("no face in frame")
)

// Frame is a single capture reduced to the face signature used for lookup.
type Frame struct {
	Signature  string
	CapturedAt time.Time
}

// Stream is a live video feed.
type Stream interface {
	Capture(ctx context.Context) (Frame, error)
	// Stop ends every track of the stream. It is safe to call more than once.
	Stop()
}

// Device opens live streams.
type Device interface {
	Open(ctx context.Context) (Stream, error)
}

// Simulated is a Device that produces a fixed signature. OpenErr, when set,
// makes Open fail the way a denied or missing camera would.
type Simulated struct {
	Signature string
	Tracks    int
	OpenErr   error

	mu     sync.Mutex
	active int
	opened int
}

// NewSimulated returns a single-track device producing signature.
func NewSimulated(signature string) *Simulated {
	return &Simulated{Signature: signature, Tracks: 1}
}

func (d *Simulated) Open(ctx context.Context) (Stream, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.OpenErr != nil {
		return nil, d.OpenErr
	}

	tracks := d.Tracks
	if tracks <= 0 {
		tracks = 1
	}
	s := &simulatedStream{device: d, live: make([]bool, tracks)}
	for i := range s.live {
		s.live[i] = true
	}
	d.active += tracks
	d.opened++
	return s, nil
}

// ActiveTracks returns the number of tracks not yet stopped.
func (d *Simulated) ActiveTracks() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.active
}

// Opened returns how many streams have been opened so far.
func (d *Simulated) Opened() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.opened
}

type simulatedStream struct {
	device *Simulated
	live   []bool
}

func (s *simulatedStream) Capture(ctx context.Context) (Frame, error) {
	if err := ctx.Err(); err != nil {
		return Frame{}, err
	}
	s.device.mu.Lock()
	defer s.device.mu.Unlock()
	if !s.liveLocked() {
		return Frame{}, ErrStreamStopped
	}
	if s.device.Signature == "" {
		return Frame{}, ErrNoFace
	}
	return Frame{Signature: s.device.Signature, CapturedAt: time.Now()}, nil
}

func (s *simulatedStream) Stop() {
	s.device.mu.Lock()
	defer s.device.mu.Unlock()
	for i, live := range s.live {
		if live {
			s.live[i] = false
			s.device.active--
		}
	}
}

func (s *simulatedStream) liveLocked() bool {
	for _, live := range s.live {
		if live {
			return true
		}
	}
	return false
}
