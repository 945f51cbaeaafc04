package placement

import "errors"

var (
	ErrNothingToUndo = errors.New("no placement to undo")
	ErrNothingToRedo = errors.New("no placement to redo")
	ErrRedoExpired   = errors.New("redo is not available after the page was re-rendered, place the signature again")
	ErrNoPlacement   = errors.New("no placement to commit")
)

// Placement is one candidate position of a signature image. It lives only on
// the client until commit.
type Placement struct {
	PageIndex int
	Rect      Rect
	ImageRef  string
}

// Stack keeps the placements made before saving so they can be undone and
// redone. Only the last placement is committed; earlier ones are discarded,
// never merged.
//
// Redo is bound to the render it was undone in: once the page is re-rendered
// (Rerendered) the redo history is dropped and Redo reports ErrRedoExpired.
type Stack struct {
	limit  int
	done   []Placement
	undone []Placement
	stale  bool
}

// NewStack keeps at most limit placements; limit <= 0 means unbounded.
func NewStack(limit int) *Stack {
	return &Stack{limit: limit}
}

// Push records a new placement and clears the redo history.
func (s *Stack) Push(p Placement) {
	s.done = append(s.done, p)
	if s.limit > 0 && len(s.done) > s.limit {
		s.done = s.done[len(s.done)-s.limit:]
	}
	s.undone = nil
	s.stale = false
}

func (s *Stack) Undo() (Placement, error) {
	if len(s.done) == 0 {
		return Placement{}, ErrNothingToUndo
	}

	last := s.done[len(s.done)-1]
	s.done = s.done[:len(s.done)-1]
	s.undone = append(s.undone, last)

	return last, nil
}

func (s *Stack) Redo() (Placement, error) {
	if len(s.undone) == 0 {
		return Placement{}, ErrNothingToRedo
	}
	if s.stale {
		s.undone = nil
		return Placement{}, ErrRedoExpired
	}

	item := s.undone[len(s.undone)-1]
	s.undone = s.undone[:len(s.undone)-1]
	s.done = append(s.done, item)

	return item, nil
}

// Rerendered marks the page as drawn again; pending redo entries can no
// longer be shown where they were.
func (s *Stack) Rerendered() {
	s.stale = true
}

func (s *Stack) CanUndo() bool {
	return len(s.done) > 0
}

func (s *Stack) CanRedo() bool {
	return !s.stale && len(s.undone) > 0
}

func (s *Stack) Len() int {
	return len(s.done)
}

// Commit returns the placement to send and empties the stack.
func (s *Stack) Commit() (Placement, error) {
	if len(s.done) == 0 {
		return Placement{}, ErrNoPlacement
	}

	last := s.done[len(s.done)-1]
	s.Clear()

	return last, nil
}

func (s *Stack) Clear() {
	s.done = nil
	s.undone = nil
	s.stale = false
}
