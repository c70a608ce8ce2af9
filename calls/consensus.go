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
	"math"
	"sort"
	"strings"

	"github.com/exascience/pargo/parallel"
	"gonum.org/v1/gonum/floats"

	"github.com/exascience/elcall/paf"
)

// A Kind selects one of the three mutation categories.
type Kind int

const (
	Substitutions Kind = iota
	Insertions
	Deletions
)

// Consensus verdicts that are not mutation labels. A consensus with no
// mutations is the empty string.
const (
	Unknown     = "unknown"
	MixedSuffix = "_mixed"
)

/*
A Consensus aggregates repeated observations of the same molecule into
a single mutation call.

NMut is the number of concurring observations required before a
mutation is considered at all; fewer total observations than NMut
yield the Unknown verdict. MinError is the error probability below
which the concurring observations must push a mutation, with NanAcc
substituted for unknown accuracies. A mutation seen in more than
MinMutFrac of the observations is called; one seen in more than
MaxMutFracForWT but not more than MinMutFrac is reported with the
MixedSuffix; anything rarer is attributed to sequencing error.

GroupIndelFrac and IndelLenIgnoreAcc configure how nearly identical
indels are grouped and when short indels skip the accuracy test; they
are reserved for indel consensus.
*/
type Consensus struct {
	NMut              int
	MinError          float64
	MinMutFrac        float64
	MaxMutFracForWT   float64
	GroupIndelFrac    float64
	NanAcc            float64
	IndelLenIgnoreAcc int32
}

// NewConsensus returns a Consensus with the default thresholds.
func NewConsensus() *Consensus {
	return &Consensus{
		NMut:              2,
		MinError:          1.0e-4,
		MinMutFrac:        0.67,
		MaxMutFracForWT:   0.25,
		GroupIndelFrac:    0.8,
		NanAcc:            0.99,
		IndelLenIgnoreAcc: 3,
	}
}

/*
Call reduces the observations of one molecule to a consensus verdict
for the given mutation category.

The verdict is the empty string when no mutation is supported, the
Unknown constant when there are too few observations to decide, or the
space-separated labels of the supported mutations, rarest first, each
suffixed with MixedSuffix when it was seen too often to be sequencing
error but not often enough to be called outright.
*/
func (c *Consensus) Call(observations []*Mutations, kind Kind) (string, error) {
	if len(observations) == 0 {
		return "", fmt.Errorf("no observations to form a consensus over")
	}
	if c.MinMutFrac <= c.MaxMutFracForWT {
		return "", fmt.Errorf("MinMutFrac %v must exceed MaxMutFracForWT %v", c.MinMutFrac, c.MaxMutFracForWT)
	}
	counts := make(map[string]int)
	accuracies := make(map[string][]float64)
	for _, m := range observations {
		switch kind {
		case Substitutions:
			for _, s := range m.substitutions {
				label := s.Label()
				counts[label]++
				accuracies[label] = append(accuracies[label], s.Accuracy())
			}
		case Insertions:
			for _, ins := range m.insertions {
				counts[ins.Label()]++
			}
		case Deletions:
			for _, d := range m.deletions {
				counts[d.Label()]++
			}
		default:
			return "", fmt.Errorf("invalid mutation kind %v", kind)
		}
	}
	if len(counts) == 0 {
		return "", nil
	}
	if kind != Substitutions {
		return "", fmt.Errorf("%w: indel consensus not implemented", paf.ErrUnsupportedOperation)
	}
	n := len(observations)
	if n < c.NMut {
		return Unknown, nil
	}
	type candidate struct {
		label string
		count int
	}
	var candidates []candidate
	for label, count := range counts {
		if count < c.NMut {
			continue
		}
		errorTerms := make([]float64, len(accuracies[label]))
		for i, acc := range accuracies[label] {
			if math.IsNaN(acc) {
				acc = c.NanAcc
			}
			errorTerms[i] = 1 - acc
		}
		if floats.Prod(errorTerms) >= c.MinError {
			continue
		}
		candidates = append(candidates, candidate{label, count})
	}
	if len(candidates) == 0 {
		return "", nil
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].count != candidates[j].count {
			return candidates[i].count < candidates[j].count
		}
		return candidates[i].label < candidates[j].label
	})
	var labels []string
	for _, cand := range candidates {
		frac := float64(cand.count) / float64(n)
		switch {
		case frac > c.MinMutFrac:
			labels = append(labels, cand.label)
		case frac > c.MaxMutFracForWT:
			labels = append(labels, cand.label+MixedSuffix)
		}
	}
	return strings.Join(labels, " "), nil
}

// CallBatch forms consensus verdicts for many molecules in parallel,
// one verdict per group of observations.
func (c *Consensus) CallBatch(groups [][]*Mutations, kind Kind) ([]string, error) {
	verdicts := make([]string, len(groups))
	errs := make([]error, len(groups))
	parallel.Range(0, len(groups), 0, func(low, high int) {
		for i := low; i < high; i++ {
			verdicts[i], errs[i] = c.Call(groups[i], kind)
		}
	})
	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return verdicts, nil
}
