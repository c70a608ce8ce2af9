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
	"bufio"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/exascience/pargo/pipeline"

	"github.com/exascience/elcall/utils"
)

/*
CheckAlignment verifies that an alignment is internally consistent with
the full target and query sequences it claims to align.

It returns true when the coordinates are valid and the cs string
decodes to exactly the claimed fragments of target and query, and false
otherwise. Reverse-strand alignments are not supported.
*/
func CheckAlignment(aln *Alignment, target, query string) (bool, error) {
	if aln.Strand != Forward {
		return false, fmt.Errorf("%w: reverse strand alignment against %v", ErrUnsupportedOperation, *aln.Target)
	}
	queryFrag, targetFrag, err := CigarToQueryAndTarget(aln.Cigar)
	if err != nil {
		return false, err
	}
	if aln.TargetLen != int32(len(target)) || aln.QueryLen != int32(len(query)) {
		return false, nil
	}
	if aln.TargetStart < 0 || aln.TargetStart >= aln.TargetEnd || aln.TargetEnd > aln.TargetLen {
		return false, nil
	}
	if aln.QueryStart < 0 || aln.QueryStart >= aln.QueryEnd || aln.QueryEnd > aln.QueryLen {
		return false, nil
	}
	if aln.TargetEnd-aln.TargetStart != int32(len(targetFrag)) {
		return false, nil
	}
	if aln.QueryEnd-aln.QueryStart != int32(len(queryFrag)) {
		return false, nil
	}
	return targetFrag == target[aln.TargetStart:aln.TargetEnd] &&
		queryFrag == query[aln.QueryStart:aln.QueryEnd], nil
}

/*
A Parser parses PAF lines produced by minimap2 with the -c --cs=long
options.

Targets maps interned target names to their full sequences; it is only
consulted when IntronsToGaps is set, which makes the parser rewrite
intron operations into deletions on the fly.
*/
type Parser struct {
	Targets       map[utils.Symbol]string
	IntronsToGaps bool
}

/*
ParseAlignment parses one PAF line into the query name and an
Alignment.

The line must carry a cs:Z: tag with a long-format cs string and an
AS:i: score tag; records without them are rejected rather than passed
on with partial information.
*/
func (p *Parser) ParseAlignment(line string) (string, *Alignment, error) {
	var sc StringScanner
	sc.Reset(line)
	query := sc.ParseField()
	aln := &Alignment{}
	aln.QueryLen = sc.ParseInt()
	aln.QueryStart = sc.ParseInt()
	aln.QueryEnd = sc.ParseInt()
	strand := sc.ParseField()
	targetName := sc.ParseField()
	aln.TargetLen = sc.ParseInt()
	aln.TargetStart = sc.ParseInt()
	aln.TargetEnd = sc.ParseInt()
	sc.ParseField() // residue matches
	sc.ParseField() // alignment block length
	sc.ParseField() // mapping quality
	if err := sc.Err(); err != nil {
		return "", nil, err
	}
	switch strand {
	case "+":
		aln.Strand = Forward
	case "-":
		aln.Strand = Reverse
	default:
		return "", nil, fmt.Errorf("%w: invalid strand %v in %v", ErrMalformedRecord, strand, line)
	}
	cigar, score := "", ""
	for sc.Len() > 0 {
		tag := sc.ParseField()
		switch {
		case strings.HasPrefix(tag, "cs:Z:"):
			cigar = tag[len("cs:Z:"):]
		case strings.HasPrefix(tag, "AS:i:"):
			score = tag[len("AS:i:"):]
		}
	}
	if cigar == "" {
		return "", nil, fmt.Errorf("%w: missing cs:Z: tag in %v", ErrMalformedRecord, line)
	}
	if score == "" {
		return "", nil, fmt.Errorf("%w: missing AS:i: tag in %v", ErrMalformedRecord, line)
	}
	scoreValue, err := strconv.ParseInt(score, 10, 32)
	if err != nil {
		return "", nil, fmt.Errorf("%w: invalid AS:i: tag in %v", ErrMalformedRecord, line)
	}
	aln.Score = int32(scoreValue)
	if _, err := ScanCigar(cigar); err != nil {
		return "", nil, err
	}
	aln.Target = utils.Intern(targetName)
	if p.IntronsToGaps {
		target, ok := p.Targets[aln.Target]
		if !ok {
			return "", nil, fmt.Errorf("%w: unknown target %v in %v", ErrMalformedRecord, targetName, line)
		}
		if aln.TargetStart < 0 || aln.TargetEnd > int32(len(target)) || aln.TargetStart > aln.TargetEnd {
			return "", nil, fmt.Errorf("%w: target coordinates out of range in %v", ErrMalformedRecord, line)
		}
		translated, err := IntronsToGaps(cigar, target[aln.TargetStart:aln.TargetEnd])
		if err != nil {
			return "", nil, err
		}
		cigar = translated
	}
	aln.Cigar = cigar
	return query, aln, nil
}

type parsedAlignment struct {
	query string
	aln   *Alignment
}

/*
ReadAlignments parses all PAF lines from a reader and groups the
resulting alignments by query name, preserving input order within each
group. Lines are parsed in parallel; empty lines are skipped.
*/
func (p *Parser) ReadAlignments(reader io.Reader) (map[string][]*Alignment, error) {
	result := make(map[string][]*Alignment)
	var pl pipeline.Pipeline
	pl.Source(pipeline.NewScanner(bufio.NewReader(reader)))
	pl.Add(
		pipeline.LimitedPar(0, pipeline.Receive(func(_ int, data interface{}) interface{} {
			lines := data.([]string)
			parsed := make([]parsedAlignment, 0, len(lines))
			for _, line := range lines {
				if line == "" {
					continue
				}
				query, aln, err := p.ParseAlignment(line)
				if err != nil {
					pl.SetErr(err)
					return parsed
				}
				parsed = append(parsed, parsedAlignment{query, aln})
			}
			return parsed
		})),
		pipeline.Ord(pipeline.Receive(func(_ int, data interface{}) interface{} {
			for _, entry := range data.([]parsedAlignment) {
				result[entry.query] = append(result[entry.query], entry.aln)
			}
			return data
		})),
	)
	pl.Run()
	if err := pl.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

/*
CollectBest reduces grouped alignments to the best alignment per query,
selected by score. The lower-scoring alignments of each query are kept
in the Additional field of the winner. Ties are broken in favor of the
alignment that appeared first.
*/
func CollectBest(alignments map[string][]*Alignment) map[string]*Alignment {
	best := make(map[string]*Alignment, len(alignments))
	for query, alns := range alignments {
		sorted := make([]*Alignment, len(alns))
		copy(sorted, alns)
		sort.SliceStable(sorted, func(i, j int) bool {
			return sorted[i].Score > sorted[j].Score
		})
		top := *sorted[0]
		top.Additional = sorted[1:]
		best[query] = &top
	}
	return best
}
