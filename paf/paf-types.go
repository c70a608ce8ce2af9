package paf

import (
	"errors"

	"github.com/exascience/elcall/utils"
)

// Error values distinguishing the failure conditions callers are
// expected to test for with errors.Is. Functions in this module wrap
// them with fmt.Errorf and %w to add detail.
var (
	// ErrMalformedCigar indicates a cs string that does not parse.
	ErrMalformedCigar = errors.New("malformed cs string")

	// ErrMalformedRecord indicates a PAF line that does not parse.
	ErrMalformedRecord = errors.New("malformed PAF record")

	// ErrSpliceFlankMismatch indicates an intron operation whose
	// flanking bases disagree with the target sequence.
	ErrSpliceFlankMismatch = errors.New("splice flank mismatch")

	// ErrOverlappingEdits indicates a deletion that overlaps an
	// insertion in an edit list.
	ErrOverlappingEdits = errors.New("overlapping insertions and deletions")

	// ErrInconsistentMutation indicates a mutation assertion that
	// contradicts the alignment it refers to.
	ErrInconsistentMutation = errors.New("inconsistent mutation assertion")

	// ErrUnsupportedOperation indicates input that is recognized but
	// deliberately not handled, such as an intron operation where only
	// translated cs strings are valid.
	ErrUnsupportedOperation = errors.New("unsupported operation")
)

// Strand values for Alignment.
const (
	Forward int8 = 1
	Reverse int8 = -1
)

// An Alignment of a query against a target, as reported on one PAF
// line. Coordinate ranges are half-open and 0-based. TargetLen and
// QueryLen are the full sequence lengths prior to any clipping.
//
// Alignments are treated as immutable values throughout this module;
// rewriting passes return fresh records.
type Alignment struct {
	// Target is the interned name of the target the query was aligned
	// to.
	Target utils.Symbol

	TargetStart, TargetEnd, TargetLen int32

	QueryStart, QueryEnd, QueryLen int32

	// Strand is Forward or Reverse. The algebra in this module is
	// implemented for Forward only.
	Strand int8

	// Cigar is the long-format cs string for the aligned region.
	Cigar string

	// Score is the value of the AS tag.
	Score int32

	// Additional lists lower-scoring alignments for the same query,
	// if any.
	Additional []*Alignment
}
