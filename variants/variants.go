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

// Package variants classifies alignments between two known point
// variants of each target, and rewrites alignments to be relative to
// the variant they match.
package variants

import (
	"fmt"
	"sort"

	"github.com/willf/bitset"

	"github.com/exascience/elcall/calls"
	"github.com/exascience/elcall/paf"
	"github.com/exascience/elcall/utils"
)

// Verdicts that are not variant names.
const (
	// Unknown is returned when none of the distinguishing sites is
	// covered by the alignment.
	Unknown = "unknown"

	// Mixed is returned when the covered distinguishing sites do not
	// all agree on one variant.
	Mixed = "mixed"

	// LowAccuracy is returned when a covered distinguishing site was
	// read with insufficient accuracy to trust.
	LowAccuracy = "low accuracy"

	// PartialPrefix marks a variant verdict that rests on only some of
	// the distinguishing sites.
	PartialPrefix = "partial "
)

/*
TargetVariants classifies alignments between two point variants of
each target.

The two variants differ from each other only by substitutions; the
sites where they differ are the distinguishing sites. An alignment is
classified by reading the query base at every distinguishing site it
covers.
*/
type TargetVariants struct {
	names   [2]string
	minAcc  float64
	targets map[utils.Symbol]string
	seqs    [2]map[utils.Symbol]string
	sites   map[utils.Symbol]*bitset.BitSet
}

/*
New returns a TargetVariants for the given variant sequences.

variantSeqs maps exactly two variant names to the per-target variant
sequences; both variants must cover the same targets as targets, with
sequences of the same lengths. minAcc is the minimal accuracy a base
call at a distinguishing site must have; out of [0, 1] is rejected.
*/
func New(variantSeqs map[string]map[utils.Symbol]string, targets map[utils.Symbol]string, minAcc float64) (*TargetVariants, error) {
	if len(variantSeqs) != 2 {
		return nil, fmt.Errorf("%v variants given where exactly 2 are expected", len(variantSeqs))
	}
	if minAcc < 0 || minAcc > 1 {
		return nil, fmt.Errorf("minimal accuracy %v out of range", minAcc)
	}
	names := make([]string, 0, 2)
	for name := range variantSeqs {
		names = append(names, name)
	}
	sort.Strings(names)
	tv := &TargetVariants{
		names:   [2]string{names[0], names[1]},
		minAcc:  minAcc,
		targets: targets,
		sites:   make(map[utils.Symbol]*bitset.BitSet, len(targets)),
	}
	for v := 0; v < 2; v++ {
		seqs := variantSeqs[tv.names[v]]
		if len(seqs) != len(targets) {
			return nil, fmt.Errorf("variant %v covers %v targets where %v are expected", tv.names[v], len(seqs), len(targets))
		}
		for target, seq := range seqs {
			wt, ok := targets[target]
			if !ok {
				return nil, fmt.Errorf("variant %v covers unknown target %v", tv.names[v], *target)
			}
			if len(seq) != len(wt) {
				return nil, fmt.Errorf("variant %v of target %v has length %v where %v is expected", tv.names[v], *target, len(seq), len(wt))
			}
		}
		tv.seqs[v] = seqs
	}
	for target := range targets {
		seq0 := tv.seqs[0][target]
		seq1 := tv.seqs[1][target]
		sites := bitset.New(uint(len(seq0)))
		for i := 0; i < len(seq0); i++ {
			if seq0[i] != seq1[i] {
				sites.Set(uint(i))
			}
		}
		tv.sites[target] = sites
	}
	return tv, nil
}

// Names returns the two variant names in sorted order.
func (tv *TargetVariants) Names() [2]string {
	return tv.names
}

/*
Call classifies an alignment as one of the two variants of its target.

The verdict is a variant name, possibly with the PartialPrefix when
not all distinguishing sites were covered, or one of Unknown, Mixed,
and LowAccuracy. quals holds the Phred quality of every query base and
may be nil.

The returned alignment is rewritten to be relative to the matched
variant: substitutions that merely spell out the variant are removed
from its cs string. When no rewrite applies, the input alignment is
returned unchanged.
*/
func (tv *TargetVariants) Call(aln *paf.Alignment, quals []float64) (string, *paf.Alignment, error) {
	if aln.Strand != paf.Forward {
		return "", nil, fmt.Errorf("%w: reverse strand alignment against %v", paf.ErrUnsupportedOperation, *aln.Target)
	}
	sites, ok := tv.sites[aln.Target]
	if !ok {
		return "", nil, fmt.Errorf("alignment against unknown target %v", *aln.Target)
	}
	if quals != nil && int32(len(quals)) != aln.QueryLen {
		return "", nil, fmt.Errorf("%v quality scores for a query of length %v", len(quals), aln.QueryLen)
	}
	var mappedSites []int32
	var querySites []int32
	totalSites := 0
	for i, found := sites.NextSet(0); found; i, found = sites.NextSet(i + 1) {
		totalSites++
		j, aligned, err := paf.TargetToQuery(aln, int32(i))
		if err != nil {
			return "", nil, err
		}
		if !aligned {
			continue
		}
		mappedSites = append(mappedSites, int32(i))
		querySites = append(querySites, j)
	}
	if len(mappedSites) == 0 {
		return Unknown, aln, nil
	}
	if quals != nil {
		for _, j := range querySites {
			if calls.QualToAccuracy(quals[j]) < tv.minAcc {
				return LowAccuracy, aln, nil
			}
		}
	}
	queryFrag, targetFrag, err := paf.CigarToQueryAndTarget(aln.Cigar)
	if err != nil {
		return "", nil, err
	}
	variant := -1
	for v := 0; v < 2; v++ {
		seq := tv.seqs[v][aln.Target]
		matches := true
		for k, site := range mappedSites {
			if queryFrag[querySites[k]-aln.QueryStart] != seq[site] {
				matches = false
				break
			}
		}
		if matches {
			variant = v
			break
		}
	}
	if variant < 0 {
		return Mixed, aln, nil
	}
	verdict := tv.names[variant]
	if len(mappedSites) < totalSites {
		verdict = PartialPrefix + verdict
	}
	seq := tv.seqs[variant][aln.Target]
	mutsToRemove := make(map[int32]byte)
	for _, site := range mappedSites {
		if targetFrag[site-aln.TargetStart] != seq[site] {
			mutsToRemove[site-aln.TargetStart] = seq[site]
		}
	}
	if len(mutsToRemove) == 0 {
		return verdict, aln, nil
	}
	cigar, err := paf.RemoveMutations(aln.Cigar, mutsToRemove)
	if err != nil {
		return "", nil, err
	}
	rewritten := *aln
	rewritten.Cigar = cigar
	return verdict, &rewritten, nil
}
