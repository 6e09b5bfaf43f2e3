package task

import "sync"

// Registry is the process-wide active-task list plus archived
// terminal-state counters, all structural mutations guarded by one
// monitor.
//
// Unlike a true process global, Registry is constructed explicitly so
// tests can build fresh instances.
type Registry struct {
	mu       sync.Mutex
	tasks    []*Task
	archived map[Status]int
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{archived: make(map[Status]int)}
}

// Add registers t as active.
func (r *Registry) Add(t *Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.tasks = append(r.tasks, t)
}

// Remove drops t from the active list and increments its terminal-status
// archive counter. A no-op if t is not registered.
func (r *Registry) Remove(t *Task) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, existing := range r.tasks {
		if existing == t {
			r.tasks = append(r.tasks[:i], r.tasks[i+1:]...)
			r.archived[t.Status()]++
			return
		}
	}
}

// Tasks returns a snapshot of every active task.
func (r *Registry) Tasks() []*Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*Task(nil), r.tasks...)
}

// CountRunningForClient counts active RUNNING tasks belonging to clientID.
func (r *Registry) CountRunningForClient(clientID string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int
	for _, t := range r.tasks {
		if t.ClientInfo.ID == clientID && t.Status() == StatusRunning {
			n++
		}
	}
	return n
}

// ByID returns the active task with the given id, or nil.
func (r *Registry) ByID(id string) *Task {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, t := range r.tasks {
		if t.ID == id {
			return t
		}
	}
	return nil
}

// ArchivedCounts returns a copy of the terminal-status archive counters.
func (r *Registry) ArchivedCounts() map[Status]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[Status]int, len(r.archived))
	for k, v := range r.archived {
		out[k] = v
	}
	return out
}
