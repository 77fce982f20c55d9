package coverage

import (
	"math"

	"github.com/pbenner/rustynetics/bbierrors"
	"github.com/pbenner/rustynetics/track"
)

// CombineMode selects how a normalized treatment and control track are
// folded into the final output track.
type CombineMode int

const (
	// CombineLog2Ratio computes log2((treatment+pseudocount)/(control+pseudocount)).
	// The default.
	CombineLog2Ratio CombineMode = iota
	CombineDifference
	CombineRatio
	// CombineRaw emits the (RPGC-normalized) treatment track unchanged,
	// ignoring control entirely.
	CombineRaw
)

// NormalizeOptions configures RPGC rescaling and treatment/control
// combination.
type NormalizeOptions struct {
	// EffectiveGenomeSize is required for RPGC scaling; it is the
	// mappable fraction of the genome, not the raw chromosome total.
	EffectiveGenomeSize uint64
	// FragmentLength is the length used in the RPGC formula. When left at
	// 0, Pipeline uses the mean of the effective (estimated or hinted)
	// lengths of the inputs on each side, treatment and control.
	FragmentLength int
	Pseudocount    float64
	Combine        CombineMode
}

// DefaultNormalizeOptions returns pseudocount=1, log2-ratio combination.
func DefaultNormalizeOptions() NormalizeOptions {
	return NormalizeOptions{Pseudocount: 1, Combine: CombineLog2Ratio}
}

// RPGCScale computes scale = effectiveGenomeSize / (reads *
// fragmentLength), the reads-per-genomic-content rescaling factor. It
// returns 1 (no-op) if any input is degenerate.
func RPGCScale(reads uint64, fragmentLength int, effectiveGenomeSize uint64) float64 {
	if reads == 0 || fragmentLength <= 0 || effectiveGenomeSize == 0 {
		return 1
	}
	return float64(effectiveGenomeSize) / (float64(reads) * float64(fragmentLength))
}

// ScaleTrack multiplies every valid bin of t by factor in place; NaN
// bins stay NaN.
func ScaleTrack(t *track.Track, factor float64) {
	for c := range t.Data {
		for i, v := range t.Data[c] {
			if math.IsNaN(float64(v)) {
				continue
			}
			t.Data[c][i] = float32(float64(v) * factor)
		}
	}
}

func cloneTrack(name string, t *track.Track) *track.Track {
	out := track.New(name, t.Genome, t.Binsize)
	for c := range t.Data {
		copy(out.Data[c], t.Data[c])
	}
	return out
}

// Combine folds treatment and control into the output track named
// name, under opts.Combine. A NaN bin in either input is treated as
// zero signal for the purposes of combination, matching the coverage
// engine's "no reads observed" convention.
func Combine(name string, treatment, control *track.Track, opts NormalizeOptions) (*track.Track, error) {
	if opts.Combine == CombineRaw || control == nil {
		return cloneTrack(name, treatment), nil
	}
	pseudo := opts.Pseudocount
	out, err := track.BinOp(name, treatment, control, func(tv, cv float32) float32 {
		tf, cf := float64(tv), float64(cv)
		if math.IsNaN(tf) {
			tf = 0
		}
		if math.IsNaN(cf) {
			cf = 0
		}
		switch opts.Combine {
		case CombineDifference:
			return float32(tf - cf)
		case CombineRatio:
			if cf == 0 {
				return float32(math.NaN())
			}
			return float32(tf / cf)
		default:
			return float32(math.Log2((tf + pseudo) / (cf + pseudo)))
		}
	})
	if err != nil {
		return nil, bbierrors.New(bbierrors.KindOutOfRange, "combining treatment and control tracks", err)
	}
	return out, nil
}
