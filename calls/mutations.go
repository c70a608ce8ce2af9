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

// Package calls extracts mutations from pairwise alignments and
// aggregates repeated observations of the same molecule into consensus
// mutation calls.
package calls

import (
	"math"
	"sort"
	"strconv"
)

// A Substitution of a single base, at a site in target numbering.
type Substitution struct {
	Site             int32
	Wildtype, Mutant byte
	Qual             float64
}

// Label returns the substitution in the conventional form, for example
// G13A.
func (s Substitution) Label() string {
	return string(s.Wildtype) + strconv.FormatInt(int64(s.Site), 10) + string(s.Mutant)
}

// Accuracy returns the probability that the substituted base was
// called correctly. NaN when the quality is unknown.
func (s Substitution) Accuracy() float64 {
	return QualToAccuracy(s.Qual)
}

// An Insertion of Length bases immediately before a site in target
// numbering. Quals holds the qualities of the inserted bases; nil when
// they are unknown.
type Insertion struct {
	Site   int32
	Length int32
	Quals  []float64
}

// Label returns the insertion in the conventional form, for example
// ins5len2.
func (ins Insertion) Label() string {
	return "ins" + strconv.FormatInt(int64(ins.Site), 10) +
		"len" + strconv.FormatInt(int64(ins.Length), 10)
}

// Accuracy returns the probability that all inserted bases were called
// correctly. NaN when the qualities are unknown.
func (ins Insertion) Accuracy() float64 {
	return QualsToAccuracy(ins.Quals)
}

// Len returns the number of inserted bases.
func (ins Insertion) Len() int32 {
	return ins.Length
}

// A Deletion of the sites Start through End inclusive, in target
// numbering. Qual is the quality of the base call following the
// deleted stretch.
type Deletion struct {
	Start, End int32
	Qual       float64
}

// Label returns the deletion in the conventional form, for example
// del8to10.
func (d Deletion) Label() string {
	return "del" + strconv.FormatInt(int64(d.Start), 10) +
		"to" + strconv.FormatInt(int64(d.End), 10)
}

// Accuracy returns the probability that the deletion is real, taken
// from the base call that follows it. NaN when the quality is unknown.
func (d Deletion) Accuracy() float64 {
	return QualToAccuracy(d.Qual)
}

// Len returns the number of deleted sites.
func (d Deletion) Len() int32 {
	return d.End - d.Start + 1
}

/*
An AccuracyFilter selects mutations by their accuracy.

Min is the inclusive lower bound. Mutations with unknown accuracy are
given the substitute accuracy Unknown before comparing. The zero
AccuracyFilter keeps every mutation.
*/
type AccuracyFilter struct {
	Min     float64
	Unknown float64
}

func (f AccuracyFilter) keep(acc float64) bool {
	if math.IsNaN(acc) {
		acc = f.Unknown
	}
	return acc >= f.Min
}

/*
Mutations is an immutable container for the mutations called from one
alignment. Each category is kept sorted by position.
*/
type Mutations struct {
	substitutions []Substitution
	insertions    []Insertion
	deletions     []Deletion
}

// NewMutations returns a Mutations container for the given calls. The
// slices are copied and sorted by position.
func NewMutations(substitutions []Substitution, insertions []Insertion, deletions []Deletion) *Mutations {
	m := &Mutations{
		substitutions: make([]Substitution, len(substitutions)),
		insertions:    make([]Insertion, len(insertions)),
		deletions:     make([]Deletion, len(deletions)),
	}
	copy(m.substitutions, substitutions)
	copy(m.insertions, insertions)
	copy(m.deletions, deletions)
	sort.SliceStable(m.substitutions, func(i, j int) bool {
		return m.substitutions[i].Site < m.substitutions[j].Site
	})
	sort.SliceStable(m.insertions, func(i, j int) bool {
		return m.insertions[i].Site < m.insertions[j].Site
	})
	sort.SliceStable(m.deletions, func(i, j int) bool {
		return m.deletions[i].Start < m.deletions[j].Start
	})
	return m
}

// Substitutions returns the substitutions that pass the filter.
func (m *Mutations) Substitutions(filter AccuracyFilter) []Substitution {
	var result []Substitution
	for _, s := range m.substitutions {
		if filter.keep(s.Accuracy()) {
			result = append(result, s)
		}
	}
	return result
}

// Insertions returns the insertions that pass the filter.
func (m *Mutations) Insertions(filter AccuracyFilter) []Insertion {
	var result []Insertion
	for _, ins := range m.insertions {
		if filter.keep(ins.Accuracy()) {
			result = append(result, ins)
		}
	}
	return result
}

// Deletions returns the deletions that pass the filter.
func (m *Mutations) Deletions(filter AccuracyFilter) []Deletion {
	var result []Deletion
	for _, d := range m.deletions {
		if filter.keep(d.Accuracy()) {
			result = append(result, d)
		}
	}
	return result
}

// SubstitutionLabels returns the labels of the substitutions that pass
// the filter, in site order.
func (m *Mutations) SubstitutionLabels(filter AccuracyFilter) []string {
	var result []string
	for _, s := range m.substitutions {
		if filter.keep(s.Accuracy()) {
			result = append(result, s.Label())
		}
	}
	return result
}

// InsertionLabels returns the labels of the insertions that pass the
// filter, in site order.
func (m *Mutations) InsertionLabels(filter AccuracyFilter) []string {
	var result []string
	for _, ins := range m.insertions {
		if filter.keep(ins.Accuracy()) {
			result = append(result, ins.Label())
		}
	}
	return result
}

// DeletionLabels returns the labels of the deletions that pass the
// filter, in site order.
func (m *Mutations) DeletionLabels(filter AccuracyFilter) []string {
	var result []string
	for _, d := range m.deletions {
		if filter.keep(d.Accuracy()) {
			result = append(result, d.Label())
		}
	}
	return result
}
