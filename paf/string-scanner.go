package paf

import (
	"fmt"
	"strconv"
)

/*
A StringScanner can be used to scan/parse tab-delimited PAF lines.

The zero StringScanner is valid and empty. Reset makes a scanner
restartable on a new line.
*/
type StringScanner struct {
	index int
	data  string
	err   error
}

// Err returns the error that occurred during scanning, if any.
func (sc *StringScanner) Err() error {
	return sc.err
}

// Reset resets the scanner, and initializes it with the given string.
func (sc *StringScanner) Reset(s string) {
	sc.index = 0
	sc.data = s
	sc.err = nil
}

// Len returns the number of characters that still need to be scanned.
// Returns 0 if Err would return a non-nil value.
func (sc *StringScanner) Len() int {
	if sc.err != nil {
		return 0
	}
	return len(sc.data) - sc.index
}

func (sc *StringScanner) readUntilTab() string {
	data := sc.data[sc.index:]
	for i := 0; i < len(data); i++ {
		if data[i] == '\t' {
			sc.index += i + 1
			return data[:i]
		}
	}
	sc.index = len(sc.data)
	return data
}

// ParseField returns the next tab-delimited field.
func (sc *StringScanner) ParseField() string {
	if sc.err != nil {
		return ""
	}
	return sc.readUntilTab()
}

// ParseInt parses the next tab-delimited field as a decimal integer.
func (sc *StringScanner) ParseInt() int32 {
	if sc.err != nil {
		return 0
	}
	field := sc.readUntilTab()
	value, err := strconv.ParseInt(field, 10, 32)
	if err != nil {
		sc.err = fmt.Errorf("%w: %v in %v", ErrMalformedRecord, err, sc.data)
		return 0
	}
	return int32(value)
}
