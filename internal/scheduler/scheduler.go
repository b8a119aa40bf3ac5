/*
   PSX event scheduler: a priority queue of (event, absolute cycle,
   optional repeat interval) entries, advancing a monotonic system-clock
   counter and dispatching the earliest due event (spec.md §4.6).

   Entries are kept in a doubly linked list sorted by absolute due
   cycle rather than a heap: the live entry count is bounded in
   practice to a handful (VBlank, HBlank, up to three timers, maybe a
   CDROM or SIO callback), so a linked-list scan is simpler than a
   heap for no real cost. Insertion scans from the head and splices
   before the first node whose cycle strictly exceeds the new one, so
   ties keep insertion order.

   Copyright (c) 2026
*/

package scheduler

// Kind identifies the category of a scheduled event.
type Kind int

const (
	VBlankStart Kind = iota
	VBlankEnd
	HBlankStart
	HBlankEnd
	TimerIRQ
	CdromResultIRQ
	SerialSend
	Custom
)

// Tag identifies an event for dedup/cancel purposes. A + B disambiguate
// instances of the same Kind (timer index, cdrom result code, serial
// port number, a custom string tag hashed into A/B by the caller).
type Tag struct {
	Kind Kind
	A    int
	B    int
}

type entry struct {
	tag    Tag
	cycle  uint64 // absolute cycle this event is due
	repeat uint64 // 0 = one-shot
	prev   *entry
	next   *entry
}

// Scheduler is a sorted list of pending events ordered by absolute due
// cycle, bounded in practice to a handful of live entries (VBlank,
// HBlank, up to three timers, maybe a CDROM or SIO callback).
type Scheduler struct {
	sysclk uint64
	head   *entry
	tail   *entry
}

// New returns an empty scheduler with sysclk at 0.
func New() *Scheduler {
	return &Scheduler{}
}

// SysClock returns the current monotonic cycle counter.
func (s *Scheduler) SysClock() uint64 {
	return s.sysclk
}

// Progress advances the system clock by n cycles. It does not itself
// dispatch events; callers drain due events with NextEvent.
func (s *Scheduler) Progress(n uint64) {
	s.sysclk += n
}

// Schedule removes any existing entry with the same tag, then inserts a
// new one due at sysclk+delta, rearming at the given repeat interval
// (0 disables repeat).
func (s *Scheduler) Schedule(tag Tag, delta uint64, repeat uint64) {
	s.Cancel(tag)
	s.insert(&entry{tag: tag, cycle: s.sysclk + delta, repeat: repeat})
}

func (s *Scheduler) insert(ev *entry) {
	if s.head == nil {
		s.head = ev
		s.tail = ev
		return
	}
	cur := s.head
	for cur != nil {
		if ev.cycle < cur.cycle {
			ev.prev = cur.prev
			ev.next = cur
			cur.prev = ev
			if ev.prev != nil {
				ev.prev.next = ev
			} else {
				s.head = ev
			}
			return
		}
		cur = cur.next
	}
	// Reached the end: append.
	ev.prev = s.tail
	s.tail.next = ev
	s.tail = ev
}

// Cancel removes the entry with the given tag, if any.
func (s *Scheduler) Cancel(tag Tag) {
	for cur := s.head; cur != nil; cur = cur.next {
		if cur.tag != tag {
			continue
		}
		if cur.prev != nil {
			cur.prev.next = cur.next
		} else {
			s.head = cur.next
		}
		if cur.next != nil {
			cur.next.prev = cur.prev
		} else {
			s.tail = cur.prev
		}
		return
	}
}

// AnyEvent reports whether any event is scheduled.
func (s *Scheduler) AnyEvent() bool {
	return s.head != nil
}

// CyclesTillNext returns how many cycles remain before the earliest
// scheduled event fires, or 0 if one is already due or none are
// scheduled.
func (s *Scheduler) CyclesTillNext() uint64 {
	if s.head == nil {
		return 0
	}
	if s.head.cycle <= s.sysclk {
		return 0
	}
	return s.head.cycle - s.sysclk
}

// NextEvent pops and returns the earliest event if it is due
// (sysclk >= its cycle). A repeating event is immediately reinstated at
// sysclk+repeat. Returns ok=false if nothing is due yet.
func (s *Scheduler) NextEvent() (tag Tag, ok bool) {
	if s.head == nil || s.sysclk < s.head.cycle {
		return Tag{}, false
	}
	due := s.head
	s.head = due.next
	if s.head != nil {
		s.head.prev = nil
	} else {
		s.tail = nil
	}
	due.next = nil
	due.prev = nil
	if due.repeat != 0 {
		s.insert(&entry{tag: due.tag, cycle: s.sysclk + due.repeat, repeat: due.repeat})
	}
	return due.tag, true
}
