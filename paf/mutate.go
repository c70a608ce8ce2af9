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

package paf

import (
	"fmt"
	"log"
	"sort"
	"strings"
)

const nts = "ACGT"

func isNT(c byte) bool {
	return strings.IndexByte(nts, c) >= 0
}

// A PointEdit changes the base at a 0-based site. An edit to the
// wildtype base is a no-op.
type PointEdit struct {
	Site int32
	Mut  byte
}

// An InsertionEdit inserts Seq before the 0-based site. Site may equal
// the sequence length for an insertion at the end.
type InsertionEdit struct {
	Site int32
	Seq  string
}

// A DeletionEdit deletes Len sites starting at the 0-based site. An
// inserted stretch counts as a single site when indexing deletions.
type DeletionEdit struct {
	Site int32
	Len  int32
}

/*
MutateSeq applies edits to a wildtype sequence and returns the mutant
sequence together with the cs string that aligns the mutant back to
the wildtype. Primarily useful for simulations.

Edits are applied in the order point edits, insertions, deletions, so
a deletion can delete a substituted site, in which case the wildtype
base is recorded as deleted. Deletions that reach into an inserted
stretch are rejected.
*/
func MutateSeq(wtseq string, points []PointEdit, insertions []InsertionEdit, deletions []DeletionEdit) (mutantseq, cigar string, err error) {
	if len(wtseq) == 0 {
		return "", "", fmt.Errorf("empty wildtype sequence")
	}
	for i := 0; i < len(wtseq); i++ {
		if !isNT(wtseq[i]) {
			return "", "", fmt.Errorf("wildtype sequence not all upper case nucleotides: %c at %v", wtseq[i], i)
		}
	}
	n := int32(len(wtseq))
	seq := make([]string, n)
	ops := make([]string, n)
	for i := int32(0); i < n; i++ {
		seq[i] = wtseq[i : i+1]
		ops[i] = wtseq[i : i+1]
	}
	for _, p := range points {
		if p.Site < 0 || p.Site >= n {
			return "", "", fmt.Errorf("point edit site %v out of range", p.Site)
		}
		mut := toUpper(p.Mut)
		if !isNT(mut) {
			return "", "", fmt.Errorf("point edit base %c is not a nucleotide", p.Mut)
		}
		if mut != wtseq[p.Site] {
			seq[p.Site] = string(mut)
			ops[p.Site] = "*" + string(toLower(wtseq[p.Site])) + string(toLower(mut))
		}
	}
	// traverse indels back to front so earlier indices stay valid
	sortedInsertions := make([]InsertionEdit, len(insertions))
	copy(sortedInsertions, insertions)
	sort.Slice(sortedInsertions, func(i, j int) bool {
		return sortedInsertions[i].Site > sortedInsertions[j].Site
	})
	for _, ins := range sortedInsertions {
		if ins.Site < 0 || ins.Site > int32(len(seq)) {
			return "", "", fmt.Errorf("insertion site %v out of range", ins.Site)
		}
		if len(ins.Seq) == 0 {
			return "", "", fmt.Errorf("empty insertion at site %v", ins.Site)
		}
		seqToken := string(appendUpper(nil, ins.Seq))
		opToken := "+" + string(appendLower(nil, ins.Seq))
		seq = append(seq, "")
		copy(seq[ins.Site+1:], seq[ins.Site:])
		seq[ins.Site] = seqToken
		ops = append(ops, "")
		copy(ops[ins.Site+1:], ops[ins.Site:])
		ops[ins.Site] = opToken
	}
	sortedDeletions := make([]DeletionEdit, len(deletions))
	copy(sortedDeletions, deletions)
	sort.Slice(sortedDeletions, func(i, j int) bool {
		return sortedDeletions[i].Site > sortedDeletions[j].Site
	})
	for _, del := range sortedDeletions {
		if del.Site < 0 || del.Len <= 0 || del.Site+del.Len > int32(len(seq)) {
			return "", "", fmt.Errorf("deletion of %v sites at %v out of range", del.Len, del.Site)
		}
		var delseq []byte
		for j := del.Site; j < del.Site+del.Len; j++ {
			switch {
			case len(ops[j]) == 1 && isNT(ops[j][0]):
				delseq = append(delseq, ops[j][0])
			case ops[j][0] == '*':
				delseq = append(delseq, toUpper(ops[j][1]))
			default:
				return "", "", fmt.Errorf("%w: deletion of %v sites at %v", ErrOverlappingEdits, del.Len, del.Site)
			}
		}
		seq = append(seq[:del.Site], seq[del.Site+del.Len:]...)
		ops = append(ops[:del.Site], ops[del.Site+del.Len:]...)
		ops = append(ops, "")
		copy(ops[del.Site+1:], ops[del.Site:])
		ops[del.Site] = "-" + string(appendLower(nil, string(delseq)))
	}
	for i, op := range ops {
		if len(op) == 1 && isNT(op[0]) && (i == 0 || !isNT(ops[i-1][len(ops[i-1])-1])) {
			ops[i] = "=" + op
		}
	}
	mutantseq = strings.Join(seq, "")
	cigar = strings.Join(ops, "")
	if query, _, err := CigarToQueryAndTarget(cigar); err != nil || query != mutantseq {
		log.Panic("generated cs string ", cigar, " does not decode to the mutant sequence")
	}
	return mutantseq, cigar, nil
}
