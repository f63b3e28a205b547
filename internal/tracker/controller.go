package tracker

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultQueueCap bounds the client-side retry queue; the oldest pending
// report is dropped once the cap is hit.
const DefaultQueueCap = 50

// Fix is one raw GPS acquisition
type Fix struct {
	Latitude  float64
	Longitude float64
	Accuracy  *float64
	Speed     *float64 // m/s
	At        time.Time
}

// Report is one classified location update bound for the ingest service
type Report struct {
	State   State
	Fix     Fix
	OrderID *uuid.UUID
}

// Sender delivers reports to the server. Failures are queued by the
// controller and flushed opportunistically on the next successful send.
type Sender interface {
	Send(report Report) error
}

type stopper interface {
	Stop() bool
}

// timerFunc schedules fn after d; injectable so transitions are testable
// without real timers.
type timerFunc func(d time.Duration, fn func()) stopper

func realTimer(d time.Duration, fn func()) stopper {
	return time.AfterFunc(d, fn)
}

// Controller owns the per-device tracking state: current classification,
// last known fix, and the live timer handle. One controller per device;
// there is no concurrency within a device beyond the timer goroutine.
type Controller struct {
	mu       sync.Mutex
	sender   Sender
	newTimer timerFunc

	state   State
	lastFix *Fix
	onShift bool
	orderID *uuid.UUID

	timer    stopper
	queue    []Report
	queueCap int
	lastErr  error // sticky acquisition error, cleared on next good fix
}

func NewController(sender Sender) *Controller {
	return &Controller{
		sender:   sender,
		newTimer: realTimer,
		state:    StateOff,
		queueCap: DefaultQueueCap,
	}
}

// SetShift updates the shift flag and re-evaluates the state machine
func (c *Controller) SetShift(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onShift = on
	c.reevaluate()
}

// SetActiveOrder updates the active job and re-evaluates; nil clears it
func (c *Controller) SetActiveOrder(orderID *uuid.UUID) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.orderID = orderID
	c.reevaluate()
}

// OnFix records a new raw acquisition. A good fix clears any sticky
// acquisition error and may flip the traveling/at_location classification.
func (c *Controller) OnFix(fix Fix) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastFix = &fix
	c.lastErr = nil
	c.reevaluate()
}

// OnAcquisitionError records a GPS failure (denied permission, timeout).
// The error is sticky for the operator UI until the next successful fix;
// acquisition keeps retrying regardless.
func (c *Controller) OnAcquisitionError(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = err
}

// Err returns the sticky acquisition error, if any
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// State returns the current classification
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// PendingReports returns the number of queued undelivered reports
func (c *Controller) PendingReports() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.queue)
}

// Stop suspends tracking and releases the timer
func (c *Controller) Stop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTimer()
	c.state = StateOff
}

// reevaluate recomputes the state and, on a flip, restarts the timer at the
// new cadence immediately. That bounds worst-case staleness after a
// transition to one old-interval tick. Caller holds c.mu.
func (c *Controller) reevaluate() {
	sample := Sample{OnShift: c.onShift, HasActiveJob: c.orderID != nil}
	if c.lastFix != nil {
		sample.Speed = c.lastFix.Speed
	}

	next := Evaluate(sample)
	if next == c.state {
		return
	}
	c.state = next
	c.reschedule(ReportInterval(next))
}

// reschedule replaces the live timer. Caller holds c.mu.
func (c *Controller) reschedule(interval time.Duration) {
	c.stopTimer()
	if interval <= 0 {
		return
	}
	c.timer = c.newTimer(interval, c.tick)
}

func (c *Controller) stopTimer() {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

// tick fires on the report cadence: re-evaluate, then report the last known
// fix. With no fix acquired yet it waits for the next tick rather than
// reporting null coordinates.
func (c *Controller) tick() {
	c.mu.Lock()

	c.reevaluate()
	if c.state == StateOff {
		c.mu.Unlock()
		return
	}

	interval := ReportInterval(c.state)
	c.reschedule(interval)

	if c.lastFix == nil {
		c.mu.Unlock()
		return
	}

	report := Report{State: c.state, Fix: *c.lastFix, OrderID: c.orderID}
	c.mu.Unlock()

	c.deliver(report)
}

// deliver sends one report, flushing the retry queue first on success paths
// and queueing on failure. Delivery is at-least-once; the server tolerates
// duplicates.
func (c *Controller) deliver(report Report) {
	if err := c.sender.Send(report); err != nil {
		c.enqueue(report)
		return
	}
	c.flushQueue()
}

func (c *Controller) enqueue(report Report) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.queue) >= c.queueCap {
		c.queue = c.queue[1:] // drop oldest
	}
	c.queue = append(c.queue, report)
}

func (c *Controller) flushQueue() {
	for {
		c.mu.Lock()
		if len(c.queue) == 0 {
			c.mu.Unlock()
			return
		}
		next := c.queue[0]
		c.queue = c.queue[1:]
		c.mu.Unlock()

		if err := c.sender.Send(next); err != nil {
			// Put it back and stop; the rest stays queued for next time.
			c.mu.Lock()
			c.queue = append([]Report{next}, c.queue...)
			c.mu.Unlock()
			return
		}
	}
}
