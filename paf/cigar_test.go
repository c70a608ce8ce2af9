package paf

import (
	"errors"
	"testing"

	"github.com/exascience/elcall/utils"
)

func TestScanCigar(t *testing.T) {
	ops, err := ScanCigar("=ATG*ac-gca+tt~gg5ac")
	if err != nil {
		t.Fatal("ScanCigar failed: ", err)
	}
	expected := []CigarOperation{
		{Sequence: "ATG", Length: 3, Operation: '='},
		{Sequence: "ac", Length: 1, Operation: '*'},
		{Sequence: "gca", Length: 3, Operation: '-'},
		{Sequence: "tt", Length: 2, Operation: '+'},
		{Sequence: "ggac", Length: 5, Operation: '~'},
	}
	if len(ops) != len(expected) {
		t.Fatal("ScanCigar returned a wrong number of operations")
	}
	for i, op := range ops {
		if op != expected[i] {
			t.Error("ScanCigar operation ", i, " failed")
		}
	}
}

func TestScanCigarMalformed(t *testing.T) {
	for _, cigar := range []string{
		"=",
		"*a",
		"x",
		"=ATa",
		"~g5ac",
		"~gg5a",
		"~ggac",
		"=AT-",
	} {
		if _, err := ScanCigar(cigar); !errors.Is(err, ErrMalformedCigar) {
			t.Error("ScanCigar error detection failed for ", cigar)
		}
	}
}

func TestScanCigarShortIntron(t *testing.T) {
	// an intron run only has to contain its two flanks, which may
	// overlap
	ops, err := ScanCigar("~gg2ac")
	if err != nil {
		t.Fatal("ScanCigar failed: ", err)
	}
	if len(ops) != 1 || ops[0] != (CigarOperation{Sequence: "ggac", Length: 2, Operation: '~'}) {
		t.Error("ScanCigar short intron failed")
	}
	for _, cigar := range []string{"~gg1ac", "~gg0ac"} {
		if _, err := ScanCigar(cigar); !errors.Is(err, ErrMalformedCigar) {
			t.Error("ScanCigar intron length bound failed for ", cigar)
		}
	}
}

func TestCigarScannerRestart(t *testing.T) {
	var sc CigarScanner
	sc.Reset("=AT*ac")
	if sc.Len() != 6 {
		t.Error("CigarScanner Len failed")
	}
	if op, ok := sc.Next(); !ok || op.Operation != '=' {
		t.Error("CigarScanner Next failed")
	}
	sc.Reset("+gg")
	if op, ok := sc.Next(); !ok || op.Operation != '+' || op.Sequence != "gg" {
		t.Error("CigarScanner Reset failed")
	}
	if _, ok := sc.Next(); ok || sc.Err() != nil {
		t.Error("CigarScanner end of input failed")
	}
}

func TestCigarToQueryAndTarget(t *testing.T) {
	query, target, err := CigarToQueryAndTarget("=AT*ac=G+at=AG-ac=T")
	if err != nil {
		t.Fatal("CigarToQueryAndTarget failed: ", err)
	}
	if query != "ATCGATAGT" {
		t.Error("CigarToQueryAndTarget query failed")
	}
	if target != "ATAGAGACT" {
		t.Error("CigarToQueryAndTarget target failed")
	}
	if _, _, err := CigarToQueryAndTarget("=TG~gg5ac=AT"); !errors.Is(err, ErrUnsupportedOperation) {
		t.Error("CigarToQueryAndTarget intron rejection failed")
	}
}

func TestNumExactMatches(t *testing.T) {
	n, err := NumExactMatches("=ATG-aca=A*gc+ac=TAC")
	if err != nil {
		t.Fatal("NumExactMatches failed: ", err)
	}
	if n != 7 {
		t.Error("NumExactMatches count failed")
	}
}

func TestNumAligned(t *testing.T) {
	n, err := NumAligned("=ACT-gata=AGTCA*ta*ga=TA+tta=GCA*ca=GT")
	if err != nil {
		t.Fatal("NumAligned failed: ", err)
	}
	if n != 18 {
		t.Error("NumAligned count failed")
	}
}

func TestTargetToQuery(t *testing.T) {
	aln := &Alignment{
		Target:      utils.Intern("target"),
		TargetStart: 1, TargetEnd: 9, TargetLen: 9,
		QueryStart: 3, QueryEnd: 10, QueryLen: 10,
		Strand: Forward,
		Cigar:  "=T*ga=CA-ga=T+c=T",
	}
	cases := []struct {
		i       int32
		j       int32
		aligned bool
	}{
		{0, 0, false},
		{1, 3, true},
		{4, 6, true},
		{6, 0, false},
		{7, 7, true},
		{8, 9, true},
		{9, 0, false},
	}
	for _, c := range cases {
		j, aligned, err := TargetToQuery(aln, c.i)
		if err != nil {
			t.Fatal("TargetToQuery failed: ", err)
		}
		if aligned != c.aligned || (aligned && j != c.j) {
			t.Error("TargetToQuery mapping of target position ", c.i, " failed")
		}
	}
}
