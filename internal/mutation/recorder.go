package mutation

import "sync"

// Recorder is a Sink that keeps every stream it receives.
// It is used as a headless renderer in tests and by the mutation log.
type Recorder struct {
	mu      sync.Mutex
	streams []*Mutations
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Apply records m.
func (r *Recorder) Apply(m *Mutations) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streams = append(r.streams, m)
	return nil
}

// Streams returns the recorded streams in arrival order.
func (r *Recorder) Streams() []*Mutations {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Mutations, len(r.streams))
	copy(out, r.streams)
	return out
}

// Last returns the most recent stream, or nil.
func (r *Recorder) Last() *Mutations {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.streams) == 0 {
		return nil
	}
	return r.streams[len(r.streams)-1]
}

// Reset drops all recorded streams.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.streams = nil
}
