// Package voice provides the control-side voice slot allocator.
package voice

// StealingMode defines how voices are stolen when all are in use
type StealingMode int

const (
	// StealNone doesn't steal - new notes are refused when full
	StealNone StealingMode = iota
	// StealOldest steals the oldest playing voice
	StealOldest
	// StealQuietest steals the voice with the lowest velocity
	StealQuietest
	// StealHighest steals the highest pitched voice
	StealHighest
	// StealLowest steals the lowest pitched voice
	StealLowest
)

// String returns the mode name.
func (m StealingMode) String() string {
	switch m {
	case StealNone:
		return "none"
	case StealOldest:
		return "oldest"
	case StealQuietest:
		return "quietest"
	case StealHighest:
		return "highest"
	case StealLowest:
		return "lowest"
	default:
		return "unknown"
	}
}

// State is a slot's ownership state as seen by the control context.
type State uint8

const (
	// Free slots sit in the free list.
	Free State = iota
	// Active slots are held by a sounding note.
	Active
	// Releasing slots have been let go but the render side has not yet
	// reported them silent.
	Releasing
)

// String returns the state name.
func (s State) String() string {
	switch s {
	case Free:
		return "free"
	case Active:
		return "active"
	case Releasing:
		return "releasing"
	default:
		return "unknown"
	}
}

// MaxNotes is the size of the note number space.
const MaxNotes = 128

const none = -1

// Handle identifies one ownership period of a slot. The generation changes
// every time the slot is handed out, so messages about an earlier owner can
// be told apart from messages about the current one.
type Handle struct {
	Index      int
	Generation uint32
}

// Pool hands out a fixed number of voice slots.
//
// Free slots are kept in FIFO order so the least recently used slot is
// reused first. Active slots of the same note are chained in an intrusive
// doubly linked list so overlapping retriggers of one note all release
// together. Pool is not safe for concurrent use; the owner serializes calls.
// No method allocates.
type Pool struct {
	state    []State
	note     []uint8
	velocity []float64
	gen      []uint32
	age      []uint64
	held     []bool
	clock    uint64

	// FIFO ring of free slot indices
	free     []int
	freeHead int
	freeLen  int

	// per-note lists of Active slots
	noteHead [MaxNotes]int
	next     []int
	prev     []int

	stealingMode StealingMode
	sustain      bool
	owned        int
}

// NewPool creates a pool of capacity slots, all free.
func NewPool(capacity int) *Pool {
	if capacity < 1 {
		capacity = 1
	}

	p := &Pool{
		state:    make([]State, capacity),
		note:     make([]uint8, capacity),
		velocity: make([]float64, capacity),
		gen:      make([]uint32, capacity),
		age:      make([]uint64, capacity),
		held:     make([]bool, capacity),
		free:     make([]int, capacity),
		next:     make([]int, capacity),
		prev:     make([]int, capacity),
	}
	p.Reset()
	return p
}

// Reset frees every slot. Generations keep counting so handles issued
// before the reset stay stale.
func (p *Pool) Reset() {
	for i := range p.noteHead {
		p.noteHead[i] = none
	}
	p.freeHead = 0
	p.freeLen = 0
	for i := range p.state {
		p.state[i] = Free
		p.held[i] = false
		p.next[i] = none
		p.prev[i] = none
		p.pushFree(i)
	}
	p.owned = 0
	p.sustain = false
}

// SetStealingMode sets the voice stealing mode
func (p *Pool) SetStealingMode(mode StealingMode) {
	p.stealingMode = mode
}

// StealingMode returns the current stealing mode.
func (p *Pool) StealingMode() StealingMode {
	return p.stealingMode
}

// Capacity returns the fixed slot count.
func (p *Pool) Capacity() int {
	return len(p.state)
}

// ActiveCount returns the number of slots not in the free list.
func (p *Pool) ActiveCount() int {
	return p.owned
}

// Available returns the number of free slots.
func (p *Pool) Available() int {
	return p.freeLen
}

// State returns the state of slot index.
func (p *Pool) State(index int) State {
	if index < 0 || index >= len(p.state) {
		return Free
	}
	return p.state[index]
}

// Note returns the note assigned to slot index.
func (p *Pool) Note(index int) uint8 {
	if index < 0 || index >= len(p.note) {
		return 0
	}
	return p.note[index]
}

// Allocate takes the least recently used free slot for note. It returns
// false when no slot is free; stealing is a separate, explicit step.
func (p *Pool) Allocate(note uint8, velocity float64) (Handle, bool) {
	if p.freeLen == 0 {
		return Handle{Index: none}, false
	}

	idx := p.popFree()
	p.owned++
	return p.assign(idx, note, velocity), true
}

// Steal reassigns an owned slot to note according to the stealing mode.
// The caller must make the render side fade the old note out before the
// new one sounds.
func (p *Pool) Steal(note uint8, velocity float64) (Handle, bool) {
	idx := p.victim()
	if idx == none {
		return Handle{Index: none}, false
	}

	if p.state[idx] == Active {
		p.unlink(idx)
	}
	return p.assign(idx, note, velocity), true
}

// Release moves every Active slot of note to Releasing and appends their
// handles to dst. While the sustain pedal is down the slots are marked
// held instead and nothing is appended.
func (p *Pool) Release(note uint8, dst []Handle) []Handle {
	if int(note) >= MaxNotes {
		return dst
	}

	if p.sustain {
		for i := p.noteHead[note]; i != none; i = p.next[i] {
			p.held[i] = true
		}
		return dst
	}

	for p.noteHead[note] != none {
		idx := p.noteHead[note]
		p.unlink(idx)
		p.state[idx] = Releasing
		p.held[idx] = false
		dst = append(dst, Handle{Index: idx, Generation: p.gen[idx]})
	}
	return dst
}

// SetSustain sets the sustain pedal state. Lifting the pedal releases every
// held slot; their handles are appended to dst.
func (p *Pool) SetSustain(on bool, dst []Handle) []Handle {
	p.sustain = on
	if on {
		return dst
	}

	for idx, held := range p.held {
		if !held {
			continue
		}
		p.held[idx] = false
		if p.state[idx] != Active {
			continue
		}
		p.unlink(idx)
		p.state[idx] = Releasing
		dst = append(dst, Handle{Index: idx, Generation: p.gen[idx]})
	}
	return dst
}

// Sustain reports whether the sustain pedal is down.
func (p *Pool) Sustain() bool {
	return p.sustain
}

// StopAll moves every owned slot to Releasing and appends their handles to
// dst. Slots return to the free list through Reclaim.
func (p *Pool) StopAll(dst []Handle) []Handle {
	for idx, st := range p.state {
		if st == Free {
			continue
		}
		if st == Active {
			p.unlink(idx)
		}
		p.state[idx] = Releasing
		p.held[idx] = false
		dst = append(dst, Handle{Index: idx, Generation: p.gen[idx]})
	}
	return dst
}

// Reclaim returns the slot named by h to the free list. Handles from an
// earlier ownership period are ignored and false is returned.
func (p *Pool) Reclaim(h Handle) bool {
	if h.Index < 0 || h.Index >= len(p.state) {
		return false
	}
	if p.state[h.Index] == Free || p.gen[h.Index] != h.Generation {
		return false
	}

	if p.state[h.Index] == Active {
		p.unlink(h.Index)
	}
	p.state[h.Index] = Free
	p.held[h.Index] = false
	p.owned--
	p.pushFree(h.Index)
	return true
}

// assign hands slot idx to note under a fresh generation.
func (p *Pool) assign(idx int, note uint8, velocity float64) Handle {
	p.gen[idx]++
	p.state[idx] = Active
	p.note[idx] = note & (MaxNotes - 1)
	p.velocity[idx] = velocity
	p.held[idx] = false
	p.clock++
	p.age[idx] = p.clock
	p.link(idx)
	return Handle{Index: idx, Generation: p.gen[idx]}
}

// victim picks the slot to steal, or none.
func (p *Pool) victim() int {
	if p.stealingMode == StealNone || p.owned == 0 {
		return none
	}

	best := none
	for i, st := range p.state {
		if st != Active {
			continue
		}
		if best == none || p.better(i, best) {
			best = i
		}
	}
	if best != none {
		return best
	}

	// Only releasing slots left: take the oldest
	for i, st := range p.state {
		if st != Releasing {
			continue
		}
		if best == none || p.age[i] < p.age[best] {
			best = i
		}
	}
	return best
}

// better reports whether slot a is a better steal candidate than slot b.
func (p *Pool) better(a, b int) bool {
	switch p.stealingMode {
	case StealQuietest:
		if p.velocity[a] != p.velocity[b] {
			return p.velocity[a] < p.velocity[b]
		}
	case StealHighest:
		if p.note[a] != p.note[b] {
			return p.note[a] > p.note[b]
		}
	case StealLowest:
		if p.note[a] != p.note[b] {
			return p.note[a] < p.note[b]
		}
	}
	// Ties and StealOldest go to the oldest
	return p.age[a] < p.age[b]
}

func (p *Pool) pushFree(idx int) {
	p.free[(p.freeHead+p.freeLen)%len(p.free)] = idx
	p.freeLen++
}

func (p *Pool) popFree() int {
	idx := p.free[p.freeHead]
	p.freeHead = (p.freeHead + 1) % len(p.free)
	p.freeLen--
	return idx
}

// link pushes idx onto the front of its note's list.
func (p *Pool) link(idx int) {
	n := p.note[idx]
	head := p.noteHead[n]
	p.prev[idx] = none
	p.next[idx] = head
	if head != none {
		p.prev[head] = idx
	}
	p.noteHead[n] = idx
}

// unlink removes idx from its note's list.
func (p *Pool) unlink(idx int) {
	n := p.note[idx]
	if p.prev[idx] != none {
		p.next[p.prev[idx]] = p.next[idx]
	} else if p.noteHead[n] == idx {
		p.noteHead[n] = p.next[idx]
	}
	if p.next[idx] != none {
		p.prev[p.next[idx]] = p.prev[idx]
	}
	p.next[idx] = none
	p.prev[idx] = none
}
