package gpio

// FakeWriter is a test double that records every value written.
type FakeWriter struct {
	// Values contains each state passed to Set, in order.
	Values []bool

	// SetError, if set, will be returned by Set.
	SetError error

	// Closed tracks if Close was called.
	Closed bool
}

// NewFakeWriter creates an empty FakeWriter.
func NewFakeWriter() *FakeWriter {
	return &FakeWriter{}
}

// Set records the value.
func (f *FakeWriter) Set(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Values = append(f.Values, on)
	return nil
}

// On reports the last value written; false if nothing was written.
func (f *FakeWriter) On() bool {
	if len(f.Values) == 0 {
		return false
	}
	return f.Values[len(f.Values)-1]
}

// Close marks the writer as closed and the line as released.
func (f *FakeWriter) Close() error {
	f.Closed = true
	f.Values = append(f.Values, false)
	return nil
}
