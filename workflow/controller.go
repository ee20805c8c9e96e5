package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/ariebrainware/patient-checkin/camera"
	"github.com/ariebrainware/patient-checkin/model"
	"github.com/ariebrainware/patient-checkin/source"
	"github.com/google/uuid"
)

// DefaultDetectDelay is the simulated recognition time before the lookup.
const DefaultDetectDelay = 2 * time.Second

// Config tunes a Controller.
type Config struct {
	// DetectDelay runs before the source is queried.
	DetectDelay time.Duration
	// LookupTimeout bounds the source query. Zero means no bound.
	LookupTimeout time.Duration
}

// Change describes one applied event.
type Change struct {
	CycleID   string
	From      State
	To        State
	Event     EventKind
	PatientID string
	Error     string
	// Duration is set on detection outcomes and measures the time since the
	// detect request.
	Duration time.Duration
	At       time.Time
}

// Listener observes applied changes. Listeners run after the controller
// is unlocked, one change at a time in the order the changes were applied.
// They may read the controller but must not change its state.
type Listener func(Change)

// Snapshot is a copy of the controller's state, safe to hand out.
type Snapshot struct {
	Status
	Editing bool           `json:"editing"`
	Draft   *model.Patient `json:"draft,omitempty"`
	CycleID string         `json:"cycle_id,omitempty"`
}

// Controller drives the single kiosk workflow.
type Controller struct {
	source source.PatientSource
	camera camera.Device
	cfg    Config

	mu        sync.Mutex
	notifyMu  sync.Mutex
	pending   []Change
	status    Status
	editor    Editor
	cycleID   string
	stream    camera.Stream
	listeners []Listener

	// generation identifies the current detection; results from older
	// generations are discarded.
	generation    uint64
	cancel        context.CancelFunc
	done          chan struct{}
	detectStarted time.Time
}

// NewController returns a controller in the Idle state.
func NewController(src source.PatientSource, dev camera.Device, cfg Config) *Controller {
	return &Controller{source: src, camera: dev, cfg: cfg}
}

// Subscribe registers l for every subsequent change.
func (c *Controller) Subscribe(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// Snapshot returns the current state.
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Start opens the camera and moves Idle to Scanning. When the camera cannot
// be opened the workflow returns to Idle with the failure as its error and
// the returned error wraps ErrCameraUnavailable.
func (c *Controller) Start(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	defer c.unlockAndNotify()

	if err := c.applyLocked(Event{Kind: EventStart}); err != nil {
		return c.snapshotLocked(), err
	}

	c.releaseStreamLocked()
	stream, err := c.camera.Open(ctx)
	if err != nil {
		slog.Warn("Camera could not be opened", "cycle_id", c.cycleID, "error", err)
		_ = c.applyLocked(Event{Kind: EventCameraFailed, Err: cameraMessage(err)})
		return c.snapshotLocked(), wrapCamera(err)
	}
	c.stream = stream
	return c.snapshotLocked(), nil
}

// Detect captures a frame and starts the asynchronous lookup. It returns
// once the workflow is Detecting; use Wait to block until the outcome has
// been applied.
func (c *Controller) Detect(ctx context.Context) (Snapshot, error) {
	c.mu.Lock()
	defer c.unlockAndNotify()

	if err := c.applyLocked(Event{Kind: EventDetect}); err != nil {
		return c.snapshotLocked(), err
	}
	c.detectStarted = time.Now()

	frame, err := c.captureLocked(ctx)
	if err != nil {
		_ = c.applyLocked(Event{Kind: EventDetectFailed, Err: DisplayMessage(err)})
		return c.snapshotLocked(), nil
	}

	c.generation++
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	c.cancel = cancel
	c.done = done

	go c.runDetection(runCtx, cancel, c.generation, source.Query{Signature: frame.Signature}, done)
	return c.snapshotLocked(), nil
}

func (c *Controller) captureLocked(ctx context.Context) (camera.Frame, error) {
	if c.stream == nil {
		return camera.Frame{}, camera.ErrStreamStopped
	}
	return c.stream.Capture(ctx)
}

func (c *Controller) runDetection(ctx context.Context, cancel context.CancelFunc, gen uint64, q source.Query, done chan struct{}) {
	defer close(done)
	defer cancel()

	if c.cfg.DetectDelay > 0 {
		timer := time.NewTimer(c.cfg.DetectDelay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}
	}

	fetchCtx := ctx
	if c.cfg.LookupTimeout > 0 {
		var cancelFetch context.CancelFunc
		fetchCtx, cancelFetch = context.WithTimeout(ctx, c.cfg.LookupTimeout)
		defer cancelFetch()
	}

	var res source.Result
	select {
	case res = <-source.Fetch(fetchCtx, c.source, q):
	case <-fetchCtx.Done():
		res = source.Result{Err: fetchCtx.Err()}
	}

	c.mu.Lock()
	defer c.unlockAndNotify()
	if gen != c.generation || c.status.State != Detecting {
		slog.Debug("Discarding stale detection result", "generation", gen, "state", c.status.State.String())
		return
	}
	c.cancel = nil

	if res.Err != nil {
		slog.Info("Patient detection failed", "cycle_id", c.cycleID, "error", res.Err)
		_ = c.applyLocked(Event{Kind: EventDetectFailed, Err: DisplayMessage(res.Err)})
		return
	}
	if err := c.applyLocked(Event{Kind: EventDetectSucceeded, Patient: &res.Patient}); err != nil {
		slog.Error("Applying detection result failed", "cycle_id", c.cycleID, "error", err)
		return
	}
	c.releaseStreamLocked()
}

// Wait blocks until the in-flight detection, if any, has been applied or
// discarded.
func (c *Controller) Wait(ctx context.Context) error {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	if done == nil {
		return nil
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Reset returns to Idle from any state. An in-flight detection is canceled
// and its result discarded; the camera is released and any edit session
// ends.
func (c *Controller) Reset() Snapshot {
	c.mu.Lock()
	defer c.unlockAndNotify()

	c.stopDetectionLocked()
	c.releaseStreamLocked()
	c.editor.Cancel()
	_ = c.applyLocked(Event{Kind: EventReset})
	return c.snapshotLocked()
}

// Close releases the camera and cancels any detection without publishing a
// change.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopDetectionLocked()
	c.releaseStreamLocked()
}

// BeginEdit opens an edit session on the displayed patient. It is a no-op
// when a session is already open.
func (c *Controller) BeginEdit() (Snapshot, error) {
	c.mu.Lock()
	defer c.unlockAndNotify()

	if c.editor.Active() {
		return c.snapshotLocked(), nil
	}
	if err := c.applyLocked(Event{Kind: EventEditBegan}); err != nil {
		return c.snapshotLocked(), err
	}
	c.editor.Begin(*c.status.Patient)
	return c.snapshotLocked(), nil
}

// UpdateField sets one scalar field on the draft.
func (c *Controller) UpdateField(f Field, value string) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.editor.SetField(f, value)
	return c.snapshotLocked(), err
}

// UpdateAllergies replaces the draft's allergies from comma separated text.
func (c *Controller) UpdateAllergies(text string) (Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	err := c.editor.SetAllergies(text)
	return c.snapshotLocked(), err
}

// CommitEdit replaces the displayed patient with the draft.
func (c *Controller) CommitEdit() (Snapshot, error) {
	c.mu.Lock()
	defer c.unlockAndNotify()

	draft, ok := c.editor.Draft()
	if !ok {
		return c.snapshotLocked(), ErrNotEditing
	}
	if err := c.applyLocked(Event{Kind: EventPatientUpdated, Patient: &draft}); err != nil {
		return c.snapshotLocked(), err
	}
	_, _ = c.editor.Commit()
	return c.snapshotLocked(), nil
}

// CancelEdit discards the draft; the displayed patient is unchanged.
func (c *Controller) CancelEdit() (Snapshot, error) {
	c.mu.Lock()
	defer c.unlockAndNotify()

	if !c.editor.Active() {
		return c.snapshotLocked(), ErrNotEditing
	}
	if err := c.applyLocked(Event{Kind: EventEditCanceled}); err != nil {
		return c.snapshotLocked(), err
	}
	c.editor.Cancel()
	return c.snapshotLocked(), nil
}

// Patient returns a copy of the displayed, committed patient.
func (c *Controller) Patient() (model.Patient, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status.Patient == nil {
		return model.Patient{}, ErrNoPatient
	}
	return c.status.Patient.Clone(), nil
}

// CycleID returns the identifier of the current check-in cycle.
func (c *Controller) CycleID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cycleID
}

func (c *Controller) applyLocked(ev Event) error {
	next, err := Transition(c.status, ev)
	if err != nil {
		return err
	}
	if ev.Kind == EventStart {
		c.cycleID = uuid.NewString()
	}

	change := Change{
		CycleID: c.cycleID,
		From:    c.status.State,
		To:      next.State,
		Event:   ev.Kind,
		Error:   next.Error,
		At:      time.Now(),
	}
	if next.Patient != nil {
		change.PatientID = next.Patient.ID
	}
	if ev.Kind == EventDetectSucceeded || ev.Kind == EventDetectFailed {
		change.Duration = change.At.Sub(c.detectStarted)
	}

	c.status = next
	slog.Debug("Check-in transition",
		"cycle_id", change.CycleID,
		"event", ev.Kind.String(),
		"from", change.From.String(),
		"to", change.To.String(),
	)
	c.pending = append(c.pending, change)
	return nil
}

// unlockAndNotify releases c.mu and delivers the changes applied while it
// was held. notifyMu is taken before c.mu is released so deliveries keep
// the order of the changes.
func (c *Controller) unlockAndNotify() {
	if len(c.pending) == 0 {
		c.mu.Unlock()
		return
	}
	changes := c.pending
	c.pending = nil
	listeners := c.listeners

	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	c.mu.Unlock()
	for _, ch := range changes {
		for _, l := range listeners {
			l(ch)
		}
	}
}

func (c *Controller) stopDetectionLocked() {
	c.generation++
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

func (c *Controller) releaseStreamLocked() {
	if c.stream != nil {
		c.stream.Stop()
		c.stream = nil
	}
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		Status:  c.status.Clone(),
		Editing: c.editor.Active(),
		CycleID: c.cycleID,
	}
	if d, ok := c.editor.Draft(); ok {
		snap.Draft = &d
	}
	return snap
}

func wrapCamera(err error) error {
	return fmt.Errorf("%w: %w", ErrCameraUnavailable, err)
}
