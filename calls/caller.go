// elCall: a tool for calling mutations from minimap2 long-read alignments.
// Copyright (c) 2020 imec vzw.

// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version, and Additional Terms
// (see below).

// This program is distributed in the hope that it will be useful, but
// WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
// Affero General Public License for more details.

// You should have received a copy of the GNU Affero General Public
// License and Additional Terms along with this program. If not, see
// <https://github.com/ExaScience/elcall/blob/master/LICENSE.txt>.

package calls

import (
	"fmt"
	"log"
	"math"

	"github.com/exascience/elcall/paf"
)

func ntUpper(c byte) byte {
	if 'a' <= c && c <= 'z' {
		return c - 'a' + 'A'
	}
	return c
}

/*
A Caller extracts the mutations of a single alignment relative to its
target.

TargetIndex is the number assigned to the first site of the target;
mutation sites are reported in this numbering. TargetClip excludes
mutations within that many sites of either end of the target.
QuerySoftClip tolerates that many unaligned query bases at either end
of the query before counting them as a terminal insertion.

Unaligned target stretches at either end of the alignment are reported
as deletions, and unaligned query stretches beyond QuerySoftClip as
insertions, so that every call accounts for the complete molecule.
*/
type Caller struct {
	TargetIndex   int32
	TargetClip    int32
	QuerySoftClip int32
}

// NewCaller returns a Caller with the default 1-based site numbering
// and no clipping.
func NewCaller() *Caller {
	return &Caller{TargetIndex: 1}
}

/*
Call extracts the mutations of an alignment.

quals holds the Phred quality of every query base; it may be nil, in
which case all accuracies are unknown. Reverse-strand alignments and
alignments with intron operations are not supported.
*/
func (c *Caller) Call(aln *paf.Alignment, quals []float64) (*Mutations, error) {
	if c.TargetClip < 0 || c.QuerySoftClip < 0 {
		log.Panic("negative clip in mutation caller")
	}
	if aln.Strand != paf.Forward {
		return nil, fmt.Errorf("%w: reverse strand alignment against %v", paf.ErrUnsupportedOperation, *aln.Target)
	}
	if quals != nil && int32(len(quals)) != aln.QueryLen {
		return nil, fmt.Errorf("%v quality scores for a query of length %v", len(quals), aln.QueryLen)
	}
	ops, err := paf.ScanCigar(aln.Cigar)
	if err != nil {
		return nil, err
	}

	// map every aligned target position to its query position
	queryIndex := make([]int32, aln.TargetEnd-aln.TargetStart)
	iQuery := aln.QueryStart
	pos := int32(0)
	for _, op := range ops {
		switch op.Operation {
		case '=', '*':
			if pos+op.Length > int32(len(queryIndex)) {
				log.Panic("cs string of alignment against ", *aln.Target, " inconsistent with its coordinates")
			}
			for k := int32(0); k < op.Length; k++ {
				queryIndex[pos+k] = iQuery + k
			}
			pos += op.Length
			iQuery += op.Length
		case '-':
			if pos+op.Length > int32(len(queryIndex)) {
				log.Panic("cs string of alignment against ", *aln.Target, " inconsistent with its coordinates")
			}
			for k := int32(0); k < op.Length; k++ {
				queryIndex[pos+k] = -1
			}
			pos += op.Length
		case '+':
			iQuery += op.Length
		case '~':
			return nil, fmt.Errorf("%w: intron operation in %v; translate introns first", paf.ErrUnsupportedOperation, aln.Cigar)
		}
	}
	if pos != int32(len(queryIndex)) || iQuery != aln.QueryEnd {
		log.Panic("cs string of alignment against ", *aln.Target, " inconsistent with its coordinates")
	}

	// getQual returns the quality of the query base aligned to a target
	// site in TargetIndex numbering, NaN if there is none.
	getQual := func(site int32) float64 {
		i := site - c.TargetIndex - aln.TargetStart
		if quals == nil || i < 0 || i >= int32(len(queryIndex)) {
			return math.NaN()
		}
		if j := queryIndex[i]; j >= 0 {
			return quals[j]
		}
		return math.NaN()
	}

	var substitutions []Substitution
	var insertions []Insertion
	var deletions []Deletion

	if aln.TargetStart > 0 {
		deletions = append(deletions, Deletion{
			Start: c.TargetIndex,
			End:   c.TargetIndex + aln.TargetStart - 1,
			Qual:  getQual(c.TargetIndex + aln.TargetStart),
		})
	}
	if aln.QueryStart > c.QuerySoftClip {
		var insQuals []float64
		if quals != nil {
			insQuals = make([]float64, aln.QueryStart)
			copy(insQuals, quals[:aln.QueryStart])
		}
		insertions = append(insertions, Insertion{
			Site:   c.TargetIndex,
			Length: aln.QueryStart,
			Quals:  insQuals,
		})
	}

	iTarget := c.TargetIndex + aln.TargetStart
	for _, op := range ops {
		switch op.Operation {
		case '=':
			iTarget += op.Length
		case '*':
			substitutions = append(substitutions, Substitution{
				Site:     iTarget,
				Wildtype: ntUpper(op.Sequence[0]),
				Mutant:   ntUpper(op.Sequence[1]),
				Qual:     getQual(iTarget),
			})
			iTarget++
		case '-':
			deletions = append(deletions, Deletion{
				Start: iTarget,
				End:   iTarget + op.Length - 1,
				Qual:  getQual(iTarget + op.Length),
			})
			iTarget += op.Length
		case '+':
			var insQuals []float64
			if quals != nil {
				// inserted bases precede the aligned base that follows
				// them, so their qualities are collected backwards from
				// that base
				i := iTarget - c.TargetIndex - aln.TargetStart
				if i < int32(len(queryIndex)) {
					if j := queryIndex[i]; j >= 0 {
						insQuals = make([]float64, op.Length)
						for k := int32(0); k < op.Length; k++ {
							insQuals[k] = quals[j-1-k]
						}
					}
				}
			}
			insertions = append(insertions, Insertion{
				Site:   iTarget,
				Length: op.Length,
				Quals:  insQuals,
			})
		}
	}
	if iTarget-c.TargetIndex != aln.TargetEnd {
		log.Panic("cs string of alignment against ", *aln.Target, " inconsistent with its target coordinates")
	}

	if aln.TargetEnd < aln.TargetLen {
		deletions = append(deletions, Deletion{
			Start: c.TargetIndex + aln.TargetEnd,
			End:   c.TargetIndex + aln.TargetLen - 1,
			Qual:  math.NaN(),
		})
	}
	if aln.QueryEnd < aln.QueryLen-c.QuerySoftClip {
		var insQuals []float64
		if quals != nil {
			insQuals = make([]float64, aln.QueryLen-aln.QueryEnd)
			copy(insQuals, quals[aln.QueryEnd:])
		}
		insertions = append(insertions, Insertion{
			Site:   c.TargetIndex + aln.TargetEnd,
			Length: aln.QueryLen - aln.QueryEnd,
			Quals:  insQuals,
		})
	}

	if c.TargetClip > 0 {
		iFirst := c.TargetIndex + c.TargetClip
		iLast := c.TargetIndex + aln.TargetLen - c.TargetClip
		var clippedSubs []Substitution
		for _, s := range substitutions {
			if s.Site >= iFirst && s.Site < iLast {
				clippedSubs = append(clippedSubs, s)
			}
		}
		substitutions = clippedSubs
		var clippedIns []Insertion
		for _, ins := range insertions {
			if ins.Site >= iFirst && ins.Site < iLast {
				clippedIns = append(clippedIns, ins)
			}
		}
		insertions = clippedIns
		var clippedDels []Deletion
		for _, d := range deletions {
			if d.End >= iFirst && d.Start < iLast {
				clippedDels = append(clippedDels, d)
			}
		}
		deletions = clippedDels
	}

	return NewMutations(substitutions, insertions, deletions), nil
}
