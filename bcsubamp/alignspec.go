package bcsubamp

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/grailbio/base/errors"
)

// AlignSpec is one candidate alignment window. All positions are 1-based.
// R1 base R1Start (counted after the barcode) aligns to reference base
// RefStart, and R2 base R2Start aligns to reference base RefEnd.
type AlignSpec struct {
	RefStart, RefEnd int
	R1Start, R2Start int
	// MaxN is the largest number of N bases a subamplicon of this window may
	// contain.
	MaxN int
}

// Len returns the length of the reference window.
func (s AlignSpec) Len() int { return s.RefEnd - s.RefStart + 1 }

// String returns s in REFSEQSTART,REFSEQEND,R1START,R2START form.
func (s AlignSpec) String() string {
	return fmt.Sprintf("%d,%d,%d,%d", s.RefStart, s.RefEnd, s.R1Start, s.R2Start)
}

// ParseAlignSpec parses "REFSEQSTART,REFSEQEND,R1START,R2START" for a
// reference of length refLen. MaxN is set to
// floor((1-minFracCall) * window length).
func ParseAlignSpec(s string, refLen int, minFracCall float64) (AlignSpec, error) {
	fields := strings.Split(s, ",")
	if len(fields) != 4 {
		return AlignSpec{}, errors.E(errors.Invalid, fmt.Sprintf("alignspec %q: want REFSEQSTART,REFSEQEND,R1START,R2START", s))
	}
	var v [4]int
	for i, f := range fields {
		n, err := strconv.Atoi(strings.TrimSpace(f))
		if err != nil {
			return AlignSpec{}, errors.E(errors.Invalid, err, fmt.Sprintf("alignspec %q", s))
		}
		v[i] = n
	}
	spec := AlignSpec{RefStart: v[0], RefEnd: v[1], R1Start: v[2], R2Start: v[3]}
	switch {
	case spec.RefStart < 1 || spec.RefStart >= spec.RefEnd || spec.RefEnd > refLen:
		return AlignSpec{}, errors.E(errors.Invalid, fmt.Sprintf("alignspec %q: need 1 <= REFSEQSTART < REFSEQEND <= %d", s, refLen))
	case spec.R1Start < 1 || spec.R2Start < 1:
		return AlignSpec{}, errors.E(errors.Invalid, fmt.Sprintf("alignspec %q: R1START and R2START must be at least 1", s))
	}
	// The epsilon absorbs float error in 1-minFracCall.
	spec.MaxN = int(math.Floor((1-minFracCall)*float64(spec.Len()) + 1e-9))
	return spec, nil
}

// ParseAlignSpecs parses a list of alignspecs. Each entry may hold several
// whitespace-separated specs.
func ParseAlignSpecs(specs []string, refLen int, minFracCall float64) ([]AlignSpec, error) {
	var out []AlignSpec
	for _, entry := range specs {
		for _, s := range strings.Fields(entry) {
			spec, err := ParseAlignSpec(s, refLen, minFracCall)
			if err != nil {
				return nil, err
			}
			out = append(out, spec)
		}
	}
	if len(out) == 0 {
		return nil, errors.E(errors.Invalid, "no alignspecs")
	}
	return out, nil
}
