package calls

import (
	"errors"
	"math"
	"reflect"
	"testing"

	"github.com/exascience/elcall/paf"
	"github.com/exascience/elcall/utils"
)

// target: --ATGCATGAAT--CGAAA
// query:  cgATGaAcG--TatCt---
func exampleAlignment() *paf.Alignment {
	return &paf.Alignment{
		Target:      utils.Intern("target"),
		TargetStart: 0, TargetEnd: 12, TargetLen: 15,
		QueryStart: 2, QueryEnd: 14, QueryLen: 14,
		Strand: paf.Forward,
		Cigar:  "=ATG*ca=A*tc=G-aa=T+at=C*gt",
		Score:  16,
	}
}

func exampleQuals() []float64 {
	return []float64{50, 50, 1, 2, 3, 4, 5, 6, 7, 10, 50, 50, 11, 12}
}

func TestCallerDefaults(t *testing.T) {
	muts, err := NewCaller().Call(exampleAlignment(), exampleQuals())
	if err != nil {
		t.Fatal("Caller failed: ", err)
	}
	if !reflect.DeepEqual(muts.SubstitutionLabels(AccuracyFilter{}), []string{"C4A", "T6C", "G12T"}) {
		t.Error("Caller substitutions failed")
	}
	if !reflect.DeepEqual(muts.DeletionLabels(AccuracyFilter{}), []string{"del8to9", "del13to15"}) {
		t.Error("Caller deletions failed")
	}
	if !reflect.DeepEqual(muts.InsertionLabels(AccuracyFilter{}), []string{"ins1len2", "ins11len2"}) {
		t.Error("Caller insertions failed")
	}
}

func TestCallerQuals(t *testing.T) {
	muts, err := NewCaller().Call(exampleAlignment(), exampleQuals())
	if err != nil {
		t.Fatal("Caller failed: ", err)
	}
	subs := muts.Substitutions(AccuracyFilter{})
	for i, qual := range []float64{4, 6, 12} {
		if subs[i].Qual != qual {
			t.Error("Caller substitution quality ", i, " failed")
		}
	}
	for _, ins := range muts.Insertions(AccuracyFilter{}) {
		if !reflect.DeepEqual(ins.Quals, []float64{50, 50}) {
			t.Error("Caller insertion qualities failed")
		}
	}
	dels := muts.Deletions(AccuracyFilter{})
	if dels[0].Qual != 10 {
		t.Error("Caller deletion quality failed")
	}
	if !math.IsNaN(dels[1].Qual) {
		t.Error("Caller trailing deletion quality failed")
	}
}

func TestCallerTargetIndex(t *testing.T) {
	caller := &Caller{TargetIndex: 0}
	muts, err := caller.Call(exampleAlignment(), exampleQuals())
	if err != nil {
		t.Fatal("Caller failed: ", err)
	}
	if !reflect.DeepEqual(muts.SubstitutionLabels(AccuracyFilter{}), []string{"C3A", "T5C", "G11T"}) {
		t.Error("Caller 0-based substitutions failed")
	}
	if !reflect.DeepEqual(muts.DeletionLabels(AccuracyFilter{}), []string{"del7to8", "del12to14"}) {
		t.Error("Caller 0-based deletions failed")
	}
	if !reflect.DeepEqual(muts.InsertionLabels(AccuracyFilter{}), []string{"ins0len2", "ins10len2"}) {
		t.Error("Caller 0-based insertions failed")
	}
}

func TestCallerTargetClip(t *testing.T) {
	caller := &Caller{TargetIndex: 1, TargetClip: 2}
	muts, err := caller.Call(exampleAlignment(), exampleQuals())
	if err != nil {
		t.Fatal("Caller failed: ", err)
	}
	if !reflect.DeepEqual(muts.SubstitutionLabels(AccuracyFilter{}), []string{"C4A", "T6C", "G12T"}) {
		t.Error("Caller clipped substitutions failed")
	}
	if !reflect.DeepEqual(muts.DeletionLabels(AccuracyFilter{}), []string{"del8to9", "del13to15"}) {
		t.Error("Caller clipped deletions failed")
	}
	if !reflect.DeepEqual(muts.InsertionLabels(AccuracyFilter{}), []string{"ins11len2"}) {
		t.Error("Caller clipped insertions failed")
	}
	caller = &Caller{TargetIndex: 1, TargetClip: 4}
	muts, err = caller.Call(exampleAlignment(), exampleQuals())
	if err != nil {
		t.Fatal("Caller failed: ", err)
	}
	if !reflect.DeepEqual(muts.SubstitutionLabels(AccuracyFilter{}), []string{"T6C"}) {
		t.Error("Caller clipped substitutions failed")
	}
	if !reflect.DeepEqual(muts.DeletionLabels(AccuracyFilter{}), []string{"del8to9"}) {
		t.Error("Caller clipped deletions failed")
	}
	if !reflect.DeepEqual(muts.InsertionLabels(AccuracyFilter{}), []string{"ins11len2"}) {
		t.Error("Caller clipped insertions failed")
	}
}

func TestCallerQuerySoftClip(t *testing.T) {
	caller := &Caller{TargetIndex: 1, QuerySoftClip: 3}
	muts, err := caller.Call(exampleAlignment(), exampleQuals())
	if err != nil {
		t.Fatal("Caller failed: ", err)
	}
	if !reflect.DeepEqual(muts.SubstitutionLabels(AccuracyFilter{}), []string{"C4A", "T6C", "G12T"}) {
		t.Error("Caller soft clipped substitutions failed")
	}
	if !reflect.DeepEqual(muts.DeletionLabels(AccuracyFilter{}), []string{"del8to9", "del13to15"}) {
		t.Error("Caller soft clipped deletions failed")
	}
	if !reflect.DeepEqual(muts.InsertionLabels(AccuracyFilter{}), []string{"ins11len2"}) {
		t.Error("Caller soft clipped insertions failed")
	}
}

// target: ATGATG
// query:  --GATG
func TestCallerLeadingTargetDeletion(t *testing.T) {
	aln := &paf.Alignment{
		Target:      utils.Intern("target"),
		TargetStart: 2, TargetEnd: 6, TargetLen: 6,
		QueryStart: 0, QueryEnd: 4, QueryLen: 4,
		Strand: paf.Forward,
		Cigar:  "=GATG",
	}
	muts, err := NewCaller().Call(aln, []float64{7, 8, 9, 10})
	if err != nil {
		t.Fatal("Caller failed: ", err)
	}
	dels := muts.Deletions(AccuracyFilter{})
	if len(dels) != 1 || dels[0].Label() != "del1to2" {
		t.Error("Caller leading deletion failed")
	}
	if dels[0].Qual != 7 {
		t.Error("Caller leading deletion quality failed")
	}
}

func TestCallerInconsistentCigar(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Caller coordinate consistency check failed")
		}
	}()
	aln := &paf.Alignment{
		Target:      utils.Intern("target"),
		TargetStart: 0, TargetEnd: 2, TargetLen: 3,
		QueryStart: 0, QueryEnd: 4, QueryLen: 4,
		Strand: paf.Forward,
		Cigar:  "=ATGA",
	}
	_, _ = NewCaller().Call(aln, nil)
}

func TestCallerInsertionQualOrder(t *testing.T) {
	aln := &paf.Alignment{
		Target:      utils.Intern("target"),
		TargetStart: 0, TargetEnd: 3, TargetLen: 3,
		QueryStart: 0, QueryEnd: 5, QueryLen: 5,
		Strand: paf.Forward,
		Cigar:  "=AT+cg=T",
	}
	muts, err := NewCaller().Call(aln, []float64{10, 20, 30, 40, 50})
	if err != nil {
		t.Fatal("Caller failed: ", err)
	}
	ins := muts.Insertions(AccuracyFilter{})
	if len(ins) != 1 || !reflect.DeepEqual(ins[0].Quals, []float64{40, 30}) {
		t.Error("Caller insertion quality order failed")
	}
}

func TestCallerNoQuals(t *testing.T) {
	muts, err := NewCaller().Call(exampleAlignment(), nil)
	if err != nil {
		t.Fatal("Caller failed: ", err)
	}
	for _, s := range muts.Substitutions(AccuracyFilter{}) {
		if !math.IsNaN(s.Qual) {
			t.Error("Caller unknown substitution quality failed")
		}
	}
	for _, ins := range muts.Insertions(AccuracyFilter{}) {
		if ins.Quals != nil {
			t.Error("Caller unknown insertion qualities failed")
		}
	}
}

func TestCallerErrors(t *testing.T) {
	aln := exampleAlignment()
	if _, err := NewCaller().Call(aln, []float64{1, 2, 3}); err == nil {
		t.Error("Caller quality length check failed")
	}
	reverse := *aln
	reverse.Strand = paf.Reverse
	if _, err := NewCaller().Call(&reverse, nil); !errors.Is(err, paf.ErrUnsupportedOperation) {
		t.Error("Caller reverse strand rejection failed")
	}
	intron := *aln
	intron.Cigar = "=TG~gg5ac=AT"
	if _, err := NewCaller().Call(&intron, nil); !errors.Is(err, paf.ErrUnsupportedOperation) {
		t.Error("Caller intron rejection failed")
	}
}

func TestCallerInvertsMutateSeq(t *testing.T) {
	wtseq := "ATGGAATGA"
	mutantseq, cigar, err := paf.MutateSeq(wtseq,
		[]paf.PointEdit{{Site: 0, Mut: 'C'}, {Site: 3, Mut: 'A'}},
		[]paf.InsertionEdit{{Site: 8, Seq: "TAC"}},
		[]paf.DeletionEdit{{Site: 5, Len: 2}})
	if err != nil {
		t.Fatal("MutateSeq failed: ", err)
	}
	aln := &paf.Alignment{
		Target:      utils.Intern("target"),
		TargetStart: 0, TargetEnd: int32(len(wtseq)), TargetLen: int32(len(wtseq)),
		QueryStart: 0, QueryEnd: int32(len(mutantseq)), QueryLen: int32(len(mutantseq)),
		Strand: paf.Forward,
		Cigar:  cigar,
	}
	caller := &Caller{TargetIndex: 0}
	muts, err := caller.Call(aln, nil)
	if err != nil {
		t.Fatal("Caller failed: ", err)
	}
	if !reflect.DeepEqual(muts.SubstitutionLabels(AccuracyFilter{}), []string{"A0C", "G3A"}) {
		t.Error("Caller recovery of point edits failed")
	}
	if !reflect.DeepEqual(muts.DeletionLabels(AccuracyFilter{}), []string{"del5to6"}) {
		t.Error("Caller recovery of deletions failed")
	}
	if !reflect.DeepEqual(muts.InsertionLabels(AccuracyFilter{}), []string{"ins8len3"}) {
		t.Error("Caller recovery of insertions failed")
	}
}
