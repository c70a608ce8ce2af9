package paf

import (
	"fmt"
	"log"

	"github.com/exascience/elcall/internal"
)

/*
IntronsToGaps rewrites the intron operations of a cs string into
deletion operations.

minimap2 reports introns differently from deletions in the target.
When long deletions are aligned as ad-hoc introns, this rewrite
recovers the deletion form that the rest of this module understands.

target must be the exact portion of the target sequence aligned in the
cs string, upper case. The two bases entering and leaving each intron
are checked against it; the deleted bases written into the result are
taken from the target itself, not from the flank hint.
*/
func IntronsToGaps(cigar, target string) (string, error) {
	ops, err := ScanCigar(cigar)
	if err != nil {
		return "", err
	}
	buf := internal.ReserveByteBuffer()
	defer internal.ReleaseByteBuffer(buf)
	var i int32 // index in the aligned target fragment
	for _, op := range ops {
		if op.Operation != '~' {
			*buf = appendOperation(*buf, op)
			i += op.TargetLength()
			continue
		}
		end := i + op.Length
		if end > int32(len(target)) {
			return "", fmt.Errorf("%w: intron of length %v runs past the target fragment in %v", ErrSpliceFlankMismatch, op.Length, cigar)
		}
		if !equalFold(op.Sequence[:2], target[i:i+2]) || !equalFold(op.Sequence[2:], target[end-2:end]) {
			return "", fmt.Errorf("%w: intron flanks %v do not match target %v...%v", ErrSpliceFlankMismatch, op.Sequence, target[i:i+2], target[end-2:end])
		}
		*buf = append(*buf, '-')
		*buf = appendLower(*buf, target[i:end])
		i = end
	}
	return string(*buf), nil
}

// matchingShift returns the length of the maximal suffix of an
// identity run that can be rotated through the indel that follows it.
// lead is upper case, indel lower case.
func matchingShift(lead, indel string) int {
	n := 0
	for n < len(lead) {
		k := n + 1
		leadSuffix := lead[len(lead)-k:]
		indelSuffix := indel
		if k < len(indel) {
			indelSuffix = indel[len(indel)-k:]
		}
		if !equalFold(leadSuffix, indelSuffix) {
			break
		}
		n = k
	}
	return n
}

/*
ShiftIndels rewrites a cs string so that every indel sits in its
leftmost valid position.

When a run of bases could equally be attributed to either side of an
indel, aligners place the indel arbitrarily. Shifting resolves the tie
so that identical events always produce identical cs strings. The
rewrite never changes the query and target fragments the cs string
decodes to.
*/
func ShiftIndels(cigar string) (string, error) {
	ops, err := ScanCigar(cigar)
	if err != nil {
		return "", err
	}
	for k := 0; k+2 < len(ops); {
		lead, indel, trail := ops[k], ops[k+1], ops[k+2]
		if lead.Operation != '=' || (indel.Operation != '-' && indel.Operation != '+') || trail.Operation != '=' {
			k++
			continue
		}
		n := matchingShift(lead.Sequence, indel.Sequence)
		if n == 0 {
			// the trailing run may lead the next indel
			k += 2
			continue
		}
		shifted := lead.Sequence[len(lead.Sequence)-n:]
		newIndel := string(appendLower(nil, shifted)) + indel.Sequence[:len(indel.Sequence)-n]
		newTrail := shifted + trail.Sequence
		ops[k+1] = CigarOperation{Sequence: newIndel, Length: int32(len(newIndel)), Operation: indel.Operation}
		ops[k+2] = CigarOperation{Sequence: newTrail, Length: int32(len(newTrail)), Operation: '='}
		if n == len(lead.Sequence) {
			ops = append(ops[:k], ops[k+1:]...)
		} else {
			rest := lead.Sequence[:len(lead.Sequence)-n]
			ops[k] = CigarOperation{Sequence: rest, Length: int32(len(rest)), Operation: '='}
		}
		// further shifts may apply at the same position
	}
	buf := internal.ReserveByteBuffer()
	defer internal.ReleaseByteBuffer(buf)
	for _, op := range ops {
		*buf = appendOperation(*buf, op)
	}
	return string(*buf), nil
}

/*
RemoveMutations rewrites a cs string so that the given target positions
are represented as matches against a hypothesized alternate reference.

mutsToRemove is keyed by target position in 0-based numbering starting
at the first target position of the cs string; the values are the bases
asserted to be the reference identity at those positions. Every
asserted base must equal the query base of a substitution operation at
that position in the current cs string.
*/
func RemoveMutations(cigar string, mutsToRemove map[int32]byte) (string, error) {
	pending := make(map[int32]byte, len(mutsToRemove))
	for i, nt := range mutsToRemove {
		pending[i] = toUpper(nt)
	}
	var sc CigarScanner
	sc.Reset(cigar)
	buf := internal.ReserveByteBuffer()
	defer internal.ReleaseByteBuffer(buf)
	var iTarget int32
	prevMatch := false
	for {
		op, ok := sc.Next()
		if !ok {
			break
		}
		switch op.Operation {
		case '=':
			if prevMatch {
				*buf = append(*buf, op.Sequence...)
			} else {
				*buf = appendOperation(*buf, op)
			}
			prevMatch = true
			iTarget += op.Length
		case '*':
			if nt, found := pending[iTarget]; found {
				if toUpper(op.Sequence[1]) != nt {
					return "", fmt.Errorf("%w: query base %c at position %v, asserted reference base %c", ErrInconsistentMutation, op.Sequence[1], iTarget, nt)
				}
				if !prevMatch {
					*buf = append(*buf, '=')
				}
				*buf = append(*buf, nt)
				prevMatch = true
				delete(pending, iTarget)
			} else {
				*buf = appendOperation(*buf, op)
				prevMatch = false
			}
			iTarget++
		case '-':
			*buf = appendOperation(*buf, op)
			prevMatch = false
			iTarget += op.Length
		case '+':
			*buf = appendOperation(*buf, op)
			prevMatch = false
		case '~':
			return "", fmt.Errorf("%w: intron operation in %v", ErrUnsupportedOperation, cigar)
		}
	}
	if err := sc.Err(); err != nil {
		return "", err
	}
	if len(pending) > 0 {
		return "", fmt.Errorf("%w: no substitution found at %v of the requested positions", ErrInconsistentMutation, len(pending))
	}
	return string(*buf), nil
}

// TrimCigarStart removes a single target/query position from the start
// of a cs string.
func TrimCigarStart(cigar string) (string, error) {
	switch {
	case len(cigar) >= 3 && cigar[0] == '=' && isUpper(cigar[1]) && isUpper(cigar[2]):
		return "=" + cigar[2:], nil
	case len(cigar) >= 3 && cigar[0] == '=' && isUpper(cigar[1]) && !isUpper(cigar[2]):
		return cigar[2:], nil
	case len(cigar) >= 3 && cigar[0] == '*' && isLower(cigar[1]) && isLower(cigar[2]):
		return cigar[3:], nil
	case len(cigar) >= 3 && (cigar[0] == '-' || cigar[0] == '+') && isLower(cigar[1]) && isLower(cigar[2]):
		return cigar[:1] + cigar[2:], nil
	case len(cigar) >= 3 && (cigar[0] == '-' || cigar[0] == '+') && isLower(cigar[1]) && !isLower(cigar[2]):
		return cigar[2:], nil
	default:
		return "", fmt.Errorf("%w: cannot trim start of %v", ErrMalformedCigar, cigar)
	}
}

// TrimCigarEnd removes a single target/query position from the end of
// a cs string.
func TrimCigarEnd(cigar string) (string, error) {
	n := len(cigar)
	switch {
	case n >= 2 && isUpper(cigar[n-1]) && isUpper(cigar[n-2]):
		return cigar[:n-1], nil
	case n >= 2 && cigar[n-2] == '=' && isUpper(cigar[n-1]):
		return cigar[:n-2], nil
	case n >= 3 && cigar[n-3] == '*' && isLower(cigar[n-2]) && isLower(cigar[n-1]):
		return cigar[:n-3], nil
	case n >= 2 && (cigar[n-2] == '-' || cigar[n-2] == '+') && isLower(cigar[n-1]):
		return cigar[:n-2], nil
	case n >= 2 && isLower(cigar[n-1]) && isLower(cigar[n-2]):
		return cigar[:n-1], nil
	default:
		return "", fmt.Errorf("%w: cannot trim end of %v", ErrMalformedCigar, cigar)
	}
}

/*
TargetToQuery maps a target position to the query position aligned to
it. The position is 0-based in target space.

Positions outside the aligned target range, and positions spanned by a
deletion, have no aligned query position; this is reported with a false
second return value, not an error. Clipped and deleted regions are
expected lookups, not failures.
*/
func TargetToQuery(aln *Alignment, i int32) (int32, bool, error) {
	if i < aln.TargetStart || i >= aln.TargetEnd {
		return 0, false, nil
	}
	iQuery := aln.QueryStart
	iTarget := aln.TargetStart
	var sc CigarScanner
	sc.Reset(aln.Cigar)
	for {
		op, ok := sc.Next()
		if !ok {
			break
		}
		switch op.Operation {
		case '=', '*':
			if i < iTarget+op.Length {
				return i - (iTarget - iQuery), true, nil
			}
			iTarget += op.Length
			iQuery += op.Length
		case '-':
			if i < iTarget+op.Length {
				return 0, false, nil
			}
			iTarget += op.Length
		case '+':
			iQuery += op.Length
		case '~':
			return 0, false, fmt.Errorf("%w: intron operation in %v", ErrUnsupportedOperation, aln.Cigar)
		}
	}
	if err := sc.Err(); err != nil {
		return 0, false, err
	}
	log.Panic("cs string exhausted before target position ", i, " in alignment against ", *aln.Target)
	return 0, false, nil
}
