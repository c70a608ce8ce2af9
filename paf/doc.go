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

// Package paf is a library for parsing and representing pairwise
// alignments produced by minimap2 with the -c --cs=long options, and
// for the algebra on the long-format cs strings these alignments
// carry.
//
// A cs string spells out an alignment operation by operation: matched
// runs, substitutions, insertions, deletions, and introns. The package
// provides a restartable tokenizer for this grammar, decoding of a cs
// string into the query and target fragments it implies, coordinate
// mapping between target and query space, and a set of rewriting
// passes: translating intron operations into deletions, shifting
// ambiguously placed indels to their leftmost valid position, removing
// substitutions relative to an alternate reference, and trimming
// terminal positions.
//
// The package does not run the aligner and does not open files;
// alignments enter as text lines or as an io.Reader over PAF output,
// produced elsewhere.
package paf
