package history

import (
	"context"
	"fmt"
)

// State is the serializable form of a History.
//
// Delta is used for session checkpoints and History for saves.
// Exactly one of them is set.
type State struct {
	Delta   []interface{} `json:"delta,omitempty"`
	History []*Moment     `json:"history,omitempty"`
	Index   *int          `json:"index"`
	Expired int           `json:"expired,omitempty"`
	Last    string        `json:"last,omitempty"`
	Unique  string        `json:"unique,omitempty"`
	Seed    *string       `json:"seed,omitempty"`
}

// Marshal returns the State.  With noDelta, the moments are copied
// whole rather than delta encoded.
func (h *History) Marshal(noDelta bool) *State {
	index := h.activeIndex
	s := &State{
		Index:   &index,
		Expired: h.expired,
		Last:    h.expiredLast,
		Unique:  h.expiredUnique,
	}
	if noDelta {
		s.History = make([]*Moment, len(h.moments))
		for i, m := range h.moments {
			s.History[i] = m.Clone()
		}
	} else {
		s.Delta = DeltaEncode(h.moments)
	}
	if h.prng != nil {
		seed := h.prng.Seed
		s.Seed = &seed
	}
	return s
}

// MarshalForSave is Marshal(true).
func (h *History) MarshalForSave() *State {
	return h.Marshal(true)
}

// Unmarshal restores the History from s, activates the restored
// moment, and shows it.
//
// Everything is checked before anything changes, so a BadState
// leaves the History as it was.
func (h *History) Unmarshal(ctx context.Context, s *State, noDelta bool) error {
	if s == nil {
		return &BadState{"is null or undefined"}
	}

	var moments []*Moment
	if noDelta {
		if len(s.History) == 0 {
			return &BadState{"has no history or history is empty"}
		}
		moments = make([]*Moment, len(s.History))
		for i, m := range s.History {
			if m == nil {
				return &BadState{fmt.Sprintf("has a null moment at %d", i)}
			}
			moments[i] = m.Clone()
		}
	} else {
		if len(s.Delta) == 0 {
			return &BadState{"has no history or history is empty"}
		}
		var err error
		if moments, err = DeltaDecode(s.Delta); err != nil {
			return &BadState{"has an undecodable delta: " + err.Error()}
		}
	}

	if s.Index == nil {
		return &BadState{"has no index"}
	}
	if *s.Index < 0 || len(moments) <= *s.Index {
		return &BadState{fmt.Sprintf("has index %d outside [0, %d]", *s.Index, len(moments)-1)}
	}
	if h.prng != nil && s.Seed == nil {
		return &BadState{"has no seed, but PRNG is enabled"}
	}
	if h.prng == nil && s.Seed != nil {
		return &BadState{"has seed, but PRNG is disabled"}
	}

	h.moments = moments
	h.activeIndex = *s.Index
	h.expired = s.Expired
	h.expiredLast = s.Last
	h.expiredUnique = s.Unique
	if s.Seed != nil {
		// Activate replays the draws.
		h.prng = &PRNG{Seed: *s.Seed}
	}

	if _, err := h.Activate(ctx, h.activeIndex); err != nil {
		return err
	}
	if h.Show != nil {
		return h.Show(ctx)
	}
	return nil
}

// UnmarshalForSave is Unmarshal(ctx, s, true).
func (h *History) UnmarshalForSave(ctx context.Context, s *State) error {
	return h.Unmarshal(ctx, s, true)
}

// Restore unmarshals the checkpoint in the Session, if any.  It
// returns false if there's no checkpoint.
func (h *History) Restore(ctx context.Context) (bool, error) {
	if h.Session == nil {
		return false, nil
	}
	var s State
	have, err := h.Session.Get(ctx, SessionKey, &s)
	if err != nil || !have {
		return false, err
	}
	if s.Index == nil && s.Delta == nil {
		// A stored null.
		return false, nil
	}
	if err := h.Unmarshal(ctx, &s, false); err != nil {
		return false, err
	}
	return true, nil
}
