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

// Package fasta reads target and variant sequences from FASTA input.
// Opening the input is left to the caller; sequences enter as an
// io.Reader over FASTA text.
package fasta

import (
	"bufio"
	"fmt"
	"io"

	"github.com/exascience/elcall/utils"
)

func nameFromHeader(b []byte) string {
	i := 1
	for ; i < len(b); i++ {
		if c := b[i]; c >= '!' && c <= '~' {
			break
		}
	}
	j := i + 1
	for ; j < len(b); j++ {
		if c := b[j]; c < '!' || c > '~' {
			break
		}
	}
	return string(b[i:j])
}

/*
ReadFasta reads FASTA input into a map of sequences keyed by interned
sequence name.

Sequence names are the first whitespace-delimited word of each header
line. Sequences are converted to upper case, the form the alignment
algebra expects. Duplicate names are rejected.
*/
func ReadFasta(reader io.Reader) (map[utils.Symbol]string, error) {
	scanner := bufio.NewScanner(reader)
	sequences := make(map[utils.Symbol]string)
	var name utils.Symbol
	var seq []byte
	for scanner.Scan() {
		b := scanner.Bytes()
		if len(b) == 0 {
			continue
		}
		if b[0] == '>' {
			if name != nil {
				sequences[name] = string(seq)
			}
			name = utils.Intern(nameFromHeader(b))
			if _, ok := sequences[name]; ok {
				return nil, fmt.Errorf("duplicate sequence name %v in FASTA input", *name)
			}
			seq = seq[:0]
			continue
		}
		if name == nil {
			return nil, fmt.Errorf("missing first FASTA header")
		}
		for _, c := range b {
			if 'a' <= c && c <= 'z' {
				c = c - 'a' + 'A'
			}
			seq = append(seq, c)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if name == nil {
		return nil, fmt.Errorf("empty FASTA input")
	}
	sequences[name] = string(seq)
	return sequences, nil
}
