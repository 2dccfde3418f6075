package recorder

// NoopRecorder is a no-op implementation used when the journal is disabled.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordTick(_ *TickRecord) error   { return nil }
func (n *NoopRecorder) RecordFetch(_ *FetchRecord) error { return nil }
func (n *NoopRecorder) Stats() (*Stats, error) {
	return &Stats{TickFailures: map[string]int{}, FetchFailures: map[string]int{}}, nil
}
func (n *NoopRecorder) Close() error { return nil }
