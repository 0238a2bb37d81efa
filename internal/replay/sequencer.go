package replay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

var (
	// ErrTargetNotEmpty means a placeholder received a number at or beyond
	// the one being reserved, so the project already had issues.
	ErrTargetNotEmpty = errors.New("target project already has issues")
	// ErrSequenceRegression means the target handed out a number that does
	// not advance the sequence.
	ErrSequenceRegression = errors.New("target issue sequence did not advance")
	// ErrIdentifierMismatch means an issue was not created with the number
	// it was padded for.
	ErrIdentifierMismatch = errors.New("created issue has unexpected number")
)

const placeholderTitle = "TMP"

// Sequencer drives the target's issue numbering so that each migrated issue
// receives its source id. Last is the highest number known to be taken.
type Sequencer struct {
	seq          Sequence
	last         int64
	placeholders int
}

func NewSequencer(seq Sequence) *Sequencer {
	return &Sequencer{seq: seq}
}

func (s *Sequencer) Last() int64 { return s.last }

// Placeholders returns how many placeholder issues were created so far.
func (s *Sequencer) Placeholders() int { return s.placeholders }

// Advance burns numbers with throwaway issues until the next issue created
// will receive next.
func (s *Sequencer) Advance(ctx context.Context, next int64) error {
	for s.last+1 < next {
		ref, err := s.seq.CreatePlaceholder(ctx, placeholderTitle)
		if err != nil {
			return fmt.Errorf("creating placeholder for #%d: %w", next, err)
		}
		if err := s.seq.DeleteIssue(ctx, ref); err != nil {
			return fmt.Errorf("deleting placeholder #%d: %w", ref.IID, err)
		}
		s.placeholders++

		if ref.IID >= next {
			return fmt.Errorf("%w: placeholder got #%d while padding to #%d", ErrTargetNotEmpty, ref.IID, next)
		}
		if ref.IID <= s.last {
			return fmt.Errorf("%w: placeholder got #%d after #%d", ErrSequenceRegression, ref.IID, s.last)
		}
		slog.DebugContext(ctx, "burned issue number", "iid", ref.IID, "target", next)
		s.last = ref.IID
	}
	return nil
}

// Commit checks that the issue created after Advance(next) got number next.
func (s *Sequencer) Commit(next int64, got Ref) error {
	if got.IID != next {
		return fmt.Errorf("%w: want #%d, got #%d", ErrIdentifierMismatch, next, got.IID)
	}
	s.last = next
	return nil
}
