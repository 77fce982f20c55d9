package coverage

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/pbenner/rustynetics/bbierrors"
	"github.com/pbenner/rustynetics/genome"
)

// FraglenOptions configures fragment-length estimation by strand
// cross-correlation.
type FraglenOptions struct {
	// DMax is the largest lag considered, default 1000.
	DMax int
	// NMin is the minimum number of reads required before estimation is
	// attempted, default 1000.
	NMin int
	// PhantomWindow excludes lags within this many bases of the read
	// length, filtering out the "phantom peak" at d = readLength.
	PhantomWindow int
	// Chromosomes restricts estimation to these chromosome names; empty
	// means use every chromosome a read was observed on.
	Chromosomes []string
}

// DefaultFraglenOptions returns the configured defaults: D_max=1000,
// N_min=1000, a +/-10bp phantom-peak exclusion window.
func DefaultFraglenOptions() FraglenOptions {
	return FraglenOptions{DMax: 1000, NMin: 1000, PhantomWindow: 10}
}

// FraglenEstimate is the outcome of EstimateFragmentLength: the chosen
// fragment length plus the full diagnostic correlation curve, indexed
// by lag d (Correlations[d] is ρ(d)).
type FraglenEstimate struct {
	Length       int
	Correlations []float64
}

// EstimateFragmentLength streams single-end reads into per-strand,
// per-chromosome base-resolution coverage vectors, computes Pearson
// cross-correlation between the forward and reverse strand signals for
// every lag d in [0, opts.DMax], and returns
// argmax_{d >= 2*readLength} ρ(d), excluding a window around the
// phantom peak at d = readLength. Ties are broken toward the smallest
// d. Fails with KindFraglenEstimation if fewer than opts.NMin reads
// fall on the configured chromosomes, or if no lag qualifies.
func EstimateFragmentLength(reads []ReadRecord, g *genome.Genome, readLength int, opts FraglenOptions) (FraglenEstimate, error) {
	if opts.DMax <= 0 {
		opts.DMax = DefaultFraglenOptions().DMax
	}
	if opts.NMin <= 0 {
		opts.NMin = DefaultFraglenOptions().NMin
	}

	var allowed map[int]bool
	if len(opts.Chromosomes) > 0 {
		allowed = make(map[int]bool, len(opts.Chromosomes))
		for _, name := range opts.Chromosomes {
			if id, ok := g.IdOf(name); ok {
				allowed[id] = true
			}
		}
	}

	fwd := make(map[int][]float64)
	rev := make(map[int][]float64)
	used := 0
	for _, r := range reads {
		if allowed != nil && !allowed[r.ChromID] {
			continue
		}
		length := int(g.LengthOf(r.ChromID))
		if fwd[r.ChromID] == nil {
			fwd[r.ChromID] = make([]float64, length)
			rev[r.ChromID] = make([]float64, length)
		}
		if r.Reverse {
			// pile up at the read's 5' end, the rightmost coordinate it covers
			pos := int(r.Pos0) + int(r.CigarRefLen) - 1
			if pos >= 0 && pos < length {
				rev[r.ChromID][pos]++
			}
		} else {
			pos := int(r.Pos0)
			if pos >= 0 && pos < length {
				fwd[r.ChromID][pos]++
			}
		}
		used++
	}
	if used < opts.NMin {
		return FraglenEstimate{}, bbierrors.New(bbierrors.KindFraglenEstimation, "fewer reads than NMin on the configured chromosomes", nil)
	}

	corr := make([]float64, opts.DMax+1)
	for d := 0; d <= opts.DMax; d++ {
		var xs, ys []float64
		for chrom, f := range fwd {
			rv := rev[chrom]
			n := len(f)
			if d >= n {
				continue
			}
			xs = append(xs, f[:n-d]...)
			ys = append(ys, rv[d:]...)
		}
		if len(xs) < 2 {
			corr[d] = math.NaN()
			continue
		}
		corr[d] = stat.Correlation(xs, ys, nil)
	}

	best := -1
	bestRho := math.Inf(-1)
	for d := 2 * readLength; d <= opts.DMax; d++ {
		if d >= readLength-opts.PhantomWindow && d <= readLength+opts.PhantomWindow {
			continue
		}
		rho := corr[d]
		if math.IsNaN(rho) {
			continue
		}
		if rho > bestRho {
			bestRho = rho
			best = d
		}
	}
	if best < 0 {
		return FraglenEstimate{}, bbierrors.New(bbierrors.KindFraglenEstimation, "no lag past 2*readLength produced a usable correlation", nil)
	}
	return FraglenEstimate{Length: best, Correlations: corr}, nil
}
