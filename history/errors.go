package history

import (
	"errors"
	"fmt"
)

// ErrNullMoment occurs when Activate gets nil.
var ErrNullMoment = errors.New("moment activation attempted with null or undefined")

// ErrEmptyHistory occurs when Activate gets an index but there's no
// history.
var ErrEmptyHistory = errors.New("moment activation attempted with index on empty history")

// ErrPRNGAfterPush occurs when InitPRNG is called after the first
// moment has been pushed.
var ErrPRNGAfterPush = errors.New("the PRNG must be initialized before any passage is played, within StoryInit for example")

// IndexOutOfRange occurs when Activate gets an index outside the
// history.
type IndexOutOfRange struct {
	Index int
	Size  int
}

func (e *IndexOutOfRange) Error() string {
	return fmt.Sprintf("moment activation attempted with out-of-bounds index; need [0, %d], got %d",
		e.Size-1, e.Index)
}

// BadMomentType occurs when Activate gets something that's neither a
// moment nor an index.
type BadMomentType struct {
	Value interface{}
}

func (e *BadMomentType) Error() string {
	return fmt.Sprintf("moment activation attempted with a %T; must be a moment or valid history index", e.Value)
}

// BadState occurs when Unmarshal gets a state it can't restore.
// Nothing has been changed when it's returned.
type BadState struct {
	Problem string
}

func (e *BadState) Error() string {
	return "state object " + e.Problem
}
