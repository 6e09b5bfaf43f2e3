package task

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/cutlistopt/engine/pkg/beam"
)

// WorkerHandle tracks one running CutListWorker instance for the task's
// worker-handle list, keyed by a google/uuid identifier rather than the
// taskId's timestamp+counter format, which stays reserved for Task.ID
// itself.
type WorkerHandle struct {
	ID       string
	Material string
	Group    string
	Cancel   context.CancelFunc
	Done     int32 // atomic bool
	Errored  int32 // atomic bool
}

// NewWorkerHandle allocates a handle with a fresh uuid.
func NewWorkerHandle(material, group string, cancel context.CancelFunc) *WorkerHandle {
	return &WorkerHandle{ID: uuid.NewString(), Material: material, Group: group, Cancel: cancel}
}

// MarkDone flags the handle as finished so WatchDog and getStats can count
// running vs finished threads without racing on worker internals.
func (h *WorkerHandle) MarkDone() { atomic.StoreInt32(&h.Done, 1) }

// IsDone reports whether MarkDone has been called.
func (h *WorkerHandle) IsDone() bool { return atomic.LoadInt32(&h.Done) != 0 }

// MarkErrored flags the handle as having finished in the ERROR state.
func (h *WorkerHandle) MarkErrored() { atomic.StoreInt32(&h.Errored, 1) }

// IsErrored reports whether MarkErrored has been called.
func (h *WorkerHandle) IsErrored() bool { return atomic.LoadInt32(&h.Errored) != 0 }

// Task is one submitted calculation request's lifecycle state.
type Task struct {
	ID         string
	ClientInfo ClientInfo
	Request    *CalculationRequest
	Factor     int64

	StartTime   time.Time
	EndTime     time.Time
	lastQueried atomic.Value // time.Time

	mu             sync.RWMutex
	status         Status
	beams          map[string]*beam.SharedBeam
	percentageDone map[string]float64
	initPercentage map[string]float64
	groupRankings  map[string]map[string]int
	log            []string
	workers        []*WorkerHandle

	minTrimInfluenced int32 // atomic bool
}

// New creates a Task in the IDLE state.
func New(id string, req *CalculationRequest, factor int64, clientInfo ClientInfo) *Task {
	t := &Task{
		ID:             id,
		ClientInfo:     clientInfo,
		Request:        req,
		Factor:         factor,
		StartTime:      time.Now(),
		status:         StatusIdle,
		beams:          make(map[string]*beam.SharedBeam),
		percentageDone: make(map[string]float64),
		initPercentage: make(map[string]float64),
		groupRankings:  make(map[string]map[string]int),
	}
	t.lastQueried.Store(time.Now())
	return t
}

// Status returns the task's current status.
func (t *Task) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// SetStatus transitions the task, stamping EndTime on terminal
// transitions.
func (t *Task) SetStatus(s Status) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = s
	if s.IsTerminal() && t.EndTime.IsZero() {
		t.EndTime = time.Now()
	}
}

// BeamFor returns (creating if necessary) the shared beam for material.
func (t *Task) BeamFor(material string) *beam.SharedBeam {
	t.mu.Lock()
	defer t.mu.Unlock()
	b, ok := t.beams[material]
	if !ok {
		b = beam.New()
		t.beams[material] = b
	}
	return b
}

// Materials returns every material with a registered beam.
func (t *Task) Materials() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]string, 0, len(t.beams))
	for m := range t.beams {
		out = append(out, m)
	}
	return out
}

// SetPercentageDone records material's overall completion.
func (t *Task) SetPercentageDone(material string, pct float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.percentageDone[material] = pct
}

// SetInitPercentage records material's max per-thread progress, the early
// signal clients can show before the overall counter ticks.
func (t *Task) SetInitPercentage(material string, pct float64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if pct > t.initPercentage[material] {
		t.initPercentage[material] = pct
	}
}

// PercentageDone returns the average percentage-done across every material
// that has recorded one via SetPercentageDone (0 if none).
func (t *Task) PercentageDone() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if len(t.percentageDone) == 0 {
		return 0
	}
	var sum float64
	for _, p := range t.percentageDone {
		sum += p
	}
	return sum / float64(len(t.percentageDone))
}

// InitPercentage returns the max per-thread progress across all materials.
func (t *Task) InitPercentage() float64 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var best float64
	for _, p := range t.initPercentage {
		if p > best {
			best = p
		}
	}
	return best
}

// CheckIfFinished advances the task to FINISHED iff it is RUNNING and every
// registered material's percentage-done has reached 100.
func (t *Task) CheckIfFinished() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.status != StatusRunning {
		return false
	}
	if len(t.percentageDone) == 0 {
		return false
	}
	for _, p := range t.percentageDone {
		if p < 100 {
			return false
		}
	}
	t.status = StatusFinished
	t.EndTime = time.Now()
	return true
}

// IncrementGroupRanking bumps threadGroupRankings[material][group] by one.
func (t *Task) IncrementGroupRanking(material, group string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	m, ok := t.groupRankings[material]
	if !ok {
		m = make(map[string]int)
		t.groupRankings[material] = m
	}
	m[group]++
}

// GroupRankings returns a copy of material's group->count ranking map.
func (t *Task) GroupRankings(material string) map[string]int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make(map[string]int)
	for k, v := range t.groupRankings[material] {
		out[k] = v
	}
	return out
}

// RegisterWorker appends h to the task's worker-handle list.
func (t *Task) RegisterWorker(h *WorkerHandle) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.workers = append(t.workers, h)
}

// Workers returns a snapshot of the task's worker handles.
func (t *Task) Workers() []*WorkerHandle {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]*WorkerHandle(nil), t.workers...)
}

// RunningWorkerCount counts handles not yet marked done.
func (t *Task) RunningWorkerCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var n int
	for _, h := range t.workers {
		if !h.IsDone() {
			n++
		}
	}
	return n
}

// ErroredWorkerCount counts handles that finished in the ERROR state.
func (t *Task) ErroredWorkerCount() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	var n int
	for _, h := range t.workers {
		if h.IsErrored() {
			n++
		}
	}
	return n
}

// DropFinishedWorkers removes every worker handle already marked done,
// the per-task half of the watchdog's dropped-worker-handle sweep.
func (t *Task) DropFinishedWorkers() {
	t.mu.Lock()
	defer t.mu.Unlock()
	kept := t.workers[:0]
	for _, h := range t.workers {
		if !h.IsDone() {
			kept = append(kept, h)
		}
	}
	t.workers = kept
}

// Log appends msg to the task's append-only log.
func (t *Task) Log(msg string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.log = append(t.log, msg)
}

// LogEntries returns a copy of the task's log.
func (t *Task) LogEntries() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return append([]string(nil), t.log...)
}

// SetMinTrimDimensionInfluenced latches the min-trim-influenced flag; it
// never resets.
func (t *Task) SetMinTrimDimensionInfluenced() {
	atomic.StoreInt32(&t.minTrimInfluenced, 1)
}

// MinTrimDimensionInfluenced reports the latch's current value.
func (t *Task) MinTrimDimensionInfluenced() bool {
	return atomic.LoadInt32(&t.minTrimInfluenced) != 0
}

// Terminate transitions the task to a terminal status and cancels every
// registered worker handle, used by WatchDog's cleanup sweeps.
func (t *Task) Terminate(status Status) {
	t.SetStatus(status)
	t.mu.RLock()
	handles := append([]*WorkerHandle(nil), t.workers...)
	t.mu.RUnlock()
	for _, h := range handles {
		if h.Cancel != nil {
			h.Cancel()
		}
	}
}

// Touch updates lastQueried to now, used by getTaskStatus, which is a
// read that updates only lastQueried.
func (t *Task) Touch() {
	t.lastQueried.Store(time.Now())
}

// LastQueried returns the last time Touch was called.
func (t *Task) LastQueried() time.Time {
	v, _ := t.lastQueried.Load().(time.Time)
	return v
}

// HasAllFitSolution reports whether any material's beam already contains a
// fully-placed solution.
func (t *Task) HasAllFitSolution() bool {
	t.mu.RLock()
	beams := make([]*beam.SharedBeam, 0, len(t.beams))
	for _, b := range t.beams {
		beams = append(beams, b)
	}
	t.mu.RUnlock()
	for _, b := range beams {
		if b.HasAllFit() {
			return true
		}
	}
	return false
}

// IsRunning is the cooperative-cancellation check every worker and driver
// loop polls.
func (t *Task) IsRunning() bool {
	return t.Status() == StatusRunning
}
