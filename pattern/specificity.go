// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pattern

import "strings"

// Rank is the weight of a single segment. Higher ranks are more specific.
type Rank uint8

const (
	RankCatchAll            Rank = 1
	RankOptional            Rank = 2
	RankConstrainedOptional Rank = 3
	RankParam               Rank = 4
	RankConstrainedParam    Rank = 5
	RankLiteral             Rank = 6
)

// Specificity is the per-segment rank sequence of a pattern.
type Specificity []Rank

func computeSpecificity(segs []Segment) Specificity {
	s := make(Specificity, len(segs))
	for i, seg := range segs {
		s[i] = rankOf(seg)
	}

	return s
}

func rankOf(seg Segment) Rank {
	switch {
	case seg.Kind == KindLiteral:
		return RankLiteral
	case seg.Kind == KindCatchAll:
		return RankCatchAll
	case seg.Optional || seg.HasDefault:
		if seg.Constrained() {
			return RankConstrainedOptional
		}
		return RankOptional
	case seg.Constrained():
		return RankConstrainedParam
	default:
		return RankParam
	}
}

// Specificity returns the pattern's rank sequence.
func (p *Pattern) Specificity() Specificity { return p.specificity }

// Compare returns 1 if s is more specific than o, -1 if less, 0 if equal.
//
// Ranks are compared segment by segment and the first difference decides.
// When one sequence is a prefix of the other, the shorter one wins: both can
// only match the same path when the longer pattern's extra segments were
// omitted, and an exact-length pattern is the better fit.
func (s Specificity) Compare(o Specificity) int {
	n := min(len(s), len(o))
	for i := 0; i < n; i++ {
		switch {
		case s[i] > o[i]:
			return 1
		case s[i] < o[i]:
			return -1
		}
	}

	switch {
	case len(s) < len(o):
		return 1
	case len(s) > len(o):
		return -1
	default:
		return 0
	}
}

// String renders the sequence as dot-separated digits, e.g. "6.5".
func (s Specificity) String() string {
	if len(s) == 0 {
		return "0"
	}

	var b strings.Builder
	for i, r := range s {
		if i > 0 {
			b.WriteByte('.')
		}
		b.WriteByte('0' + byte(r))
	}

	return b.String()
}
