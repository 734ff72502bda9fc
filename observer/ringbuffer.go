// Package observer provides the read-only interface the UI (or any
// other external consumer) uses to look at a running simulation: a
// fixed-capacity single-producer ring buffer of scalar samples per
// channel, a fixed CSV export format, and a PNG time-series renderer.
// Nothing here writes to SimState; it is a read-only view fed by the
// scheduler's per-tick sample hook.
package observer

// RingBuffer is a fixed-capacity ring buffer of float64 samples. It is
// single-producer, single-consumer with the producer quiescent during
// reads, since the host loop is the sole executor, so no locking is
// needed.
type RingBuffer struct {
	data     []float64
	writeIdx int
	writes   int
}

// NewRingBuffer allocates a ring buffer of the given capacity.
func NewRingBuffer(capacity int) *RingBuffer {
	return &RingBuffer{data: make([]float64, capacity)}
}

// Advance appends a sample, overwriting the oldest entry once the
// buffer is full, and post-increments the write index, wrapping at
// capacity.
func (r *RingBuffer) Advance(v float64) {
	if len(r.data) == 0 {
		return
	}
	r.data[r.writeIdx] = v
	r.writeIdx = (r.writeIdx + 1) % len(r.data)
	r.writes++
}

// Count returns min(writes, capacity): the number of valid entries.
func (r *RingBuffer) Count() int {
	if r.writes < len(r.data) {
		return r.writes
	}
	return len(r.data)
}

// Capacity returns the buffer's fixed capacity.
func (r *RingBuffer) Capacity() int { return len(r.data) }

// Begin returns the index of the oldest valid entry.
func (r *RingBuffer) Begin() int {
	if r.writes < len(r.data) {
		return 0
	}
	return r.writeIdx
}

// Back returns the index of the newest valid entry. Only valid when
// Count() > 0.
func (r *RingBuffer) Back() int {
	n := len(r.data)
	return (r.writeIdx - 1 + n) % n
}

// At returns the i-th oldest valid sample, 0 <= i < Count().
func (r *RingBuffer) At(i int) float64 {
	n := len(r.data)
	idx := (r.Begin() + i) % n
	return r.data[idx]
}

// Channels bundles the eight rolling time-series channels the CSV
// export and chart renderer need: timestamp, torque, and the three
// bEMF/current pairs.
type Channels struct {
	Time     *RingBuffer
	Torque   *RingBuffer
	BEmfA    *RingBuffer
	BEmfB    *RingBuffer
	BEmfC    *RingBuffer
	CurrentA *RingBuffer
	CurrentB *RingBuffer
	CurrentC *RingBuffer
}

// NewChannels allocates all eight ring buffers at the given capacity.
func NewChannels(capacity int) *Channels {
	return &Channels{
		Time:     NewRingBuffer(capacity),
		Torque:   NewRingBuffer(capacity),
		BEmfA:    NewRingBuffer(capacity),
		BEmfB:    NewRingBuffer(capacity),
		BEmfC:    NewRingBuffer(capacity),
		CurrentA: NewRingBuffer(capacity),
		CurrentB: NewRingBuffer(capacity),
		CurrentC: NewRingBuffer(capacity),
	}
}

// Sample appends one row of values across all eight channels in
// lock-step; the scheduler's per-tick Sample hook calls this once per
// successful tick.
func (c *Channels) Sample(time, torque float64, bEmf, current [3]float64) {
	c.Time.Advance(time)
	c.Torque.Advance(torque)
	c.BEmfA.Advance(bEmf[0])
	c.BEmfB.Advance(bEmf[1])
	c.BEmfC.Advance(bEmf[2])
	c.CurrentA.Advance(current[0])
	c.CurrentB.Advance(current[1])
	c.CurrentC.Advance(current[2])
}

// Count returns the number of valid rows (all channels are kept in
// lock-step, so any one of them reports the true count).
func (c *Channels) Count() int { return c.Time.Count() }
