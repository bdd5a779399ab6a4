package tasks

// Handle binds a registry to one task id so pipeline stages can report
// progress through an explicit parameter instead of ambient state. A nil
// Handle is a no-op, which keeps callers free of nil checks.
type Handle struct {
	registry *Registry
	id       string
}

func NewHandle(r *Registry, id string) *Handle {
	return &Handle{registry: r, id: id}
}

func (h *Handle) ID() string {
	if h == nil {
		return ""
	}
	return h.id
}

func (h *Handle) SetStatus(s Status) {
	if h == nil {
		return
	}
	h.registry.Apply(h.id, Update{Status: &s})
}

func (h *Handle) SetProgress(p float64, message string) {
	if h == nil {
		return
	}
	h.registry.Apply(h.id, Update{Progress: &p, Message: message})
}

func (h *Handle) Log(level, message string) {
	if h == nil {
		return
	}
	h.registry.AddLog(h.id, level, message)
}

// Complete marks the task completed with its result payload attached.
func (h *Handle) Complete(result interface{}) {
	if h == nil {
		return
	}
	s := StatusCompleted
	p := 100.0
	h.registry.Apply(h.id, Update{Status: &s, Progress: &p, Result: result})
}

// Fail forces the failed status regardless of the state the pipeline was in.
// The status is set explicitly so the task turns terminal even when the
// error renders as an empty string.
func (h *Handle) Fail(err error) {
	if h == nil || err == nil {
		return
	}
	s := StatusFailed
	h.registry.Apply(h.id, Update{Status: &s, Error: err.Error()})
}
