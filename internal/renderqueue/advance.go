package renderqueue

// IndexOf returns the position of ref in the snapshot, or -1.
func (s *Snapshot) IndexOf(ref ShotRef) int {
	for i, candidate := range s.Shots {
		if candidate == ref {
			return i
		}
	}
	return -1
}

// Advance describes the move from one cursor position to the next.
type Advance struct {
	Next ShotRef
	// Wrapped is set when the cursor restarts at the first shot.
	Wrapped bool
	// Missing is set when the previous cursor is no longer in the queue.
	Missing bool
}

// Next computes the shot after current. A current shot that is last, or that
// has been edited out of the queue, wraps to index 0. ok is false when the
// queue is empty.
func (s *Snapshot) Next(current ShotRef) (Advance, bool) {
	if len(s.Shots) == 0 {
		return Advance{}, false
	}
	idx := s.IndexOf(current)
	switch {
	case idx < 0:
		return Advance{Next: s.Shots[0], Wrapped: true, Missing: true}, true
	case idx == len(s.Shots)-1:
		return Advance{Next: s.Shots[0], Wrapped: true}, true
	default:
		return Advance{Next: s.Shots[idx+1]}, true
	}
}

// First returns the head of the queue.
func (s *Snapshot) First() (ShotRef, bool) {
	if len(s.Shots) == 0 {
		return ShotRef{}, false
	}
	return s.Shots[0], true
}
