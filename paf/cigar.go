package paf

import (
	"fmt"
	"strconv"

	"github.com/exascience/elcall/internal"
)

// A CigarOperation is one atomic operation of a long-format cs string.
//
// Operation is the operation marker: '=' for a run of matched bases,
// '*' for a substitution, '-' for a deletion, '+' for an insertion,
// and '~' for an intron.
//
// Sequence holds the payload: the matched run for '=' (upper case),
// the wildtype and mutant base for '*' (lower case), the deleted or
// inserted bases for '-' and '+' (lower case), and the four flanking
// bases for '~' (the two bases entering and the two bases leaving the
// intron).
//
// Length is the number of target positions the operation consumes,
// except for '+', where it is the number of query positions.
type CigarOperation struct {
	Sequence  string
	Length    int32
	Operation byte
}

// TargetLength returns the number of target positions the operation
// consumes.
func (op CigarOperation) TargetLength() int32 {
	if op.Operation == '+' {
		return 0
	}
	return op.Length
}

// QueryLength returns the number of query positions the operation
// consumes.
func (op CigarOperation) QueryLength() int32 {
	switch op.Operation {
	case '=', '*', '+':
		return op.Length
	default:
		return 0
	}
}

func isUpper(c byte) bool { return ('A' <= c) && (c <= 'Z') }
func isLower(c byte) bool { return ('a' <= c) && (c <= 'z') }
func isDigit(c byte) bool { return ('0' <= c) && (c <= '9') }

func toUpper(c byte) byte {
	if isLower(c) {
		return c - 'a' + 'A'
	}
	return c
}

func toLower(c byte) byte {
	if isUpper(c) {
		return c - 'A' + 'a'
	}
	return c
}

func appendUpper(buf []byte, s string) []byte {
	for i := 0; i < len(s); i++ {
		buf = append(buf, toUpper(s[i]))
	}
	return buf
}

func appendLower(buf []byte, s string) []byte {
	for i := 0; i < len(s); i++ {
		buf = append(buf, toLower(s[i]))
	}
	return buf
}

// equalFold compares two ASCII strings ignoring case.
func equalFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		if toUpper(a[i]) != toUpper(b[i]) {
			return false
		}
	}
	return true
}

/*
A CigarScanner scans/parses long-format cs strings operation by
operation, left to right.

The zero CigarScanner is valid and empty. Reset makes a scanner
restartable on the same or another string.
*/
type CigarScanner struct {
	index int
	data  string
	err   error
}

// Err returns the error that occurred during scanning, if any.
func (sc *CigarScanner) Err() error {
	return sc.err
}

// Reset resets the scanner, and initializes it with the given cs
// string.
func (sc *CigarScanner) Reset(s string) {
	sc.index = 0
	sc.data = s
	sc.err = nil
}

// Len returns the number of characters that still need to be scanned.
// Returns 0 if Err would return a non-nil value.
func (sc *CigarScanner) Len() int {
	if sc.err != nil {
		return 0
	}
	return len(sc.data) - sc.index
}

func (sc *CigarScanner) scanRun(pred func(byte) bool) string {
	start := sc.index
	for sc.index < len(sc.data) && pred(sc.data[sc.index]) {
		sc.index++
	}
	return sc.data[start:sc.index]
}

func (sc *CigarScanner) setMalformed(at int) {
	if sc.err == nil {
		sc.err = fmt.Errorf("%w at index %v in %v", ErrMalformedCigar, at, sc.data)
	}
}

// Next returns the next operation of the cs string. It returns false
// when the string is fully consumed or when no operation pattern
// matches at the current position; the latter case is reported by Err.
func (sc *CigarScanner) Next() (op CigarOperation, ok bool) {
	if sc.err != nil || sc.index >= len(sc.data) {
		return op, false
	}
	start := sc.index
	marker := sc.data[sc.index]
	sc.index++
	switch marker {
	case '=':
		run := sc.scanRun(isUpper)
		if len(run) == 0 {
			sc.setMalformed(start)
			return op, false
		}
		return CigarOperation{Sequence: run, Length: int32(len(run)), Operation: '='}, true
	case '*':
		if sc.index+2 > len(sc.data) || !isLower(sc.data[sc.index]) || !isLower(sc.data[sc.index+1]) {
			sc.setMalformed(start)
			return op, false
		}
		pair := sc.data[sc.index : sc.index+2]
		sc.index += 2
		return CigarOperation{Sequence: pair, Length: 1, Operation: '*'}, true
	case '-', '+':
		run := sc.scanRun(isLower)
		if len(run) == 0 {
			sc.setMalformed(start)
			return op, false
		}
		return CigarOperation{Sequence: run, Length: int32(len(run)), Operation: marker}, true
	case '~':
		lead := sc.scanRun(isLower)
		digits := sc.scanRun(isDigit)
		trail := sc.scanRun(isLower)
		if len(lead) != 2 || len(digits) == 0 || len(trail) != 2 {
			sc.setMalformed(start)
			return op, false
		}
		length, err := strconv.ParseInt(digits, 10, 32)
		// the run must at least contain its flanks, which may overlap
		if err != nil || length < 2 {
			sc.setMalformed(start)
			return op, false
		}
		return CigarOperation{Sequence: lead + trail, Length: int32(length), Operation: '~'}, true
	default:
		sc.index = start
		sc.setMalformed(start)
		return op, false
	}
}

// ScanCigar parses a complete cs string into its operations.
func ScanCigar(cigar string) ([]CigarOperation, error) {
	var sc CigarScanner
	sc.Reset(cigar)
	var ops []CigarOperation
	for {
		op, ok := sc.Next()
		if !ok {
			break
		}
		ops = append(ops, op)
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return ops, nil
}

// appendOperation appends the textual form of a cs operation.
func appendOperation(buf []byte, op CigarOperation) []byte {
	buf = append(buf, op.Operation)
	if op.Operation == '~' {
		buf = append(buf, op.Sequence[:2]...)
		buf = strconv.AppendInt(buf, int64(op.Length), 10)
		buf = append(buf, op.Sequence[2:]...)
		return buf
	}
	return append(buf, op.Sequence...)
}

/*
CigarToQueryAndTarget decodes a cs string into the query and target
fragments it implies, both upper case.

cs strings with intron operations cannot be decoded; they must first be
run through IntronsToGaps.
*/
func CigarToQueryAndTarget(cigar string) (query, target string, err error) {
	var sc CigarScanner
	sc.Reset(cigar)
	qbuf := internal.ReserveByteBuffer()
	defer internal.ReleaseByteBuffer(qbuf)
	tbuf := internal.ReserveByteBuffer()
	defer internal.ReleaseByteBuffer(tbuf)
	for {
		op, ok := sc.Next()
		if !ok {
			break
		}
		switch op.Operation {
		case '=':
			*qbuf = append(*qbuf, op.Sequence...)
			*tbuf = append(*tbuf, op.Sequence...)
		case '*':
			*qbuf = append(*qbuf, toUpper(op.Sequence[1]))
			*tbuf = append(*tbuf, toUpper(op.Sequence[0]))
		case '-':
			*tbuf = appendUpper(*tbuf, op.Sequence)
		case '+':
			*qbuf = appendUpper(*qbuf, op.Sequence)
		case '~':
			return "", "", fmt.Errorf("%w: intron operation in %v", ErrUnsupportedOperation, cigar)
		}
	}
	if err := sc.Err(); err != nil {
		return "", "", err
	}
	return string(*qbuf), string(*tbuf), nil
}

// NumExactMatches returns the number of exactly matched bases in a cs
// string.
func NumExactMatches(cigar string) (int32, error) {
	var sc CigarScanner
	sc.Reset(cigar)
	var n int32
	for {
		op, ok := sc.Next()
		if !ok {
			break
		}
		if op.Operation == '=' {
			n += op.Length
		}
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	return n, nil
}

// NumAligned returns the number of aligned bases in a cs string, where
// a base is considered aligned if it is a match or a substitution, but
// not if it is part of an indel or intron.
func NumAligned(cigar string) (int32, error) {
	var sc CigarScanner
	sc.Reset(cigar)
	var n int32
	for {
		op, ok := sc.Next()
		if !ok {
			break
		}
		switch op.Operation {
		case '=', '*':
			n += op.Length
		}
	}
	if err := sc.Err(); err != nil {
		return 0, err
	}
	return n, nil
}
