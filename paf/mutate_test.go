package paf

import (
	"errors"
	"testing"
)

func TestMutateSeqNoEdits(t *testing.T) {
	wtseq := "ATGGAATGA"
	mutantseq, cigar, err := MutateSeq(wtseq, nil, nil, nil)
	if err != nil {
		t.Fatal("MutateSeq failed: ", err)
	}
	if mutantseq != wtseq {
		t.Error("MutateSeq identity sequence failed")
	}
	if cigar != "="+wtseq {
		t.Error("MutateSeq identity cs string failed")
	}
}

func TestMutateSeq(t *testing.T) {
	mutantseq, cigar, err := MutateSeq("ATGGAATGA",
		[]PointEdit{{0, 'C'}, {1, 'T'}, {3, 'A'}},
		[]InsertionEdit{{8, "TAC"}},
		[]DeletionEdit{{5, 2}})
	if err != nil {
		t.Fatal("MutateSeq failed: ", err)
	}
	if mutantseq != "CTGAAGTACA" {
		t.Error("MutateSeq sequence failed")
	}
	if cigar != "*ac=TG*ga=A-at=G+tac=A" {
		t.Error("MutateSeq cs string failed")
	}
}

func TestMutateSeqRoundTrip(t *testing.T) {
	wtseq := "ATGGAATGACCGTA"
	mutantseq, cigar, err := MutateSeq(wtseq,
		[]PointEdit{{2, 'A'}, {10, 'T'}},
		[]InsertionEdit{{0, "GG"}, {14, "A"}},
		[]DeletionEdit{{6, 3}})
	if err != nil {
		t.Fatal("MutateSeq failed: ", err)
	}
	query, target, err := CigarToQueryAndTarget(cigar)
	if err != nil {
		t.Fatal("CigarToQueryAndTarget failed: ", err)
	}
	if query != mutantseq {
		t.Error("MutateSeq query round trip failed")
	}
	if target != wtseq {
		t.Error("MutateSeq target round trip failed")
	}
}

func TestMutateSeqErrors(t *testing.T) {
	if _, _, err := MutateSeq("ATNGA", nil, nil, nil); err == nil {
		t.Error("MutateSeq sequence validation failed")
	}
	if _, _, err := MutateSeq("", nil, nil, nil); err == nil {
		t.Error("MutateSeq empty sequence validation failed")
	}
	if _, _, err := MutateSeq("ATGGA", []PointEdit{{7, 'A'}}, nil, nil); err == nil {
		t.Error("MutateSeq point edit validation failed")
	}
	// deletion reaching into an inserted stretch
	_, _, err := MutateSeq("ATGGA", nil,
		[]InsertionEdit{{2, "CC"}},
		[]DeletionEdit{{1, 2}})
	if !errors.Is(err, ErrOverlappingEdits) {
		t.Error("MutateSeq overlap detection failed")
	}
}
