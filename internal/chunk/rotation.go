package chunk

import "mxguide/internal/record"

// BufferState is a snapshot of the chunk being filled, taken before each
// record is appended. It is a value type: policies cannot mutate the writer.
type BufferState struct {
	// Number is the sequence number the buffered chunk will be written as.
	Number int

	// Records is the number of records buffered so far.
	Records int

	// Bytes is the total compacted size of the buffered records.
	Bytes uint64
}

// RotationPolicy decides when the current chunk is flushed.
//
// ShouldRotate is called before each append with the current buffer state
// and the record about to be added. If it returns true, the buffer is
// written as a chunk and a new one is started before the record is appended.
// The writer never asks about an empty buffer, so every chunk holds at least
// one record. Policies are pure functions: no IO, no state.
type RotationPolicy interface {
	ShouldRotate(state BufferState, next record.Record) bool
}

// RotationPolicyFunc is an adapter to allow ordinary functions to be used as RotationPolicy.
type RotationPolicyFunc func(state BufferState, next record.Record) bool

func (f RotationPolicyFunc) ShouldRotate(state BufferState, next record.Record) bool {
	return f(state, next)
}

// CompositePolicy combines multiple policies with OR semantics.
type CompositePolicy struct {
	policies []RotationPolicy
}

// NewCompositePolicy creates a policy that rotates if any sub-policy does.
func NewCompositePolicy(policies ...RotationPolicy) *CompositePolicy {
	return &CompositePolicy{policies: policies}
}

func (c *CompositePolicy) ShouldRotate(state BufferState, next record.Record) bool {
	for _, p := range c.policies {
		if p.ShouldRotate(state, next) {
			return true
		}
	}
	return false
}

// RecordCountPolicy rotates once the buffer holds maxRecords records, which
// makes chunk boundaries fall every maxRecords records.
type RecordCountPolicy struct {
	maxRecords int
}

// NewRecordCountPolicy creates a policy that caps chunks at maxRecords.
func NewRecordCountPolicy(maxRecords int) *RecordCountPolicy {
	return &RecordCountPolicy{maxRecords: maxRecords}
}

// MaxRecords returns the configured cap.
func (p *RecordCountPolicy) MaxRecords() int {
	return p.maxRecords
}

func (p *RecordCountPolicy) ShouldRotate(state BufferState, _ record.Record) bool {
	if p.maxRecords <= 0 {
		return false
	}
	return state.Records+1 > p.maxRecords
}

// SizePolicy rotates when appending next would push the buffer's record bytes
// past maxBytes. A single record larger than maxBytes still gets a chunk of
// its own.
type SizePolicy struct {
	maxBytes uint64
}

// NewSizePolicy creates a policy that caps chunks at maxBytes of record data.
func NewSizePolicy(maxBytes uint64) *SizePolicy {
	return &SizePolicy{maxBytes: maxBytes}
}

func (p *SizePolicy) ShouldRotate(state BufferState, next record.Record) bool {
	if p.maxBytes == 0 {
		return false
	}
	return state.Bytes+uint64(next.Size()) > p.maxBytes
}

// NeverRotatePolicy never rotates. Every record lands in one chunk.
type NeverRotatePolicy struct{}

func (NeverRotatePolicy) ShouldRotate(BufferState, record.Record) bool {
	return false
}
