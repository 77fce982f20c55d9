package coverage

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/pbenner/rustynetics/genome"
	"github.com/pbenner/rustynetics/track"
)

// InputFile pairs one BAM's pre-decoded reads with its fragment-length
// hint: FragmentLength > 0 means "extend to this length", 0 means
// "estimate from the reads" when PipelineOptions.EstimateFraglen is
// set, or "use the read's own mapped span" otherwise.
type InputFile struct {
	Name           string
	Reads          []ReadRecord
	FragmentLength int
	// ReadLength is required for fragment-length estimation's
	// argmax_{d >= 2*readLength} floor; ignored when FragmentLength > 0
	// or estimation is disabled.
	ReadLength int
}

// PipelineOptions configures a full treatment/control run.
type PipelineOptions struct {
	Binsize          int
	Overlap          OverlapMode
	SpanMode         FragmentSpanMode
	Fraglen          FraglenOptions
	EstimateFraglen  bool
	SkipBrokenInputs bool
	Normalize        NormalizeOptions
}

// DefaultPipelineOptions returns binsize=10, fractional overlap,
// TLEN-derived spans, and log2-ratio normalization.
func DefaultPipelineOptions() PipelineOptions {
	return PipelineOptions{
		Binsize:   10,
		Overlap:   OverlapFractional,
		SpanMode:  SpanFromTLEN,
		Fraglen:   DefaultFraglenOptions(),
		Normalize: DefaultNormalizeOptions(),
	}
}

type inputResult struct {
	track   *track.Track
	reads   uint64
	fragLen int
	err     error
}

// BuildInputTrack accumulates every file into one track, one goroutine
// per file via errgroup, merging the per-file tracks by summation once
// every task has finished (the one mutex-like exclusive-write point;
// no track is ever touched by more than one goroutine). A file that
// fails is fatal to the whole call unless opts.SkipBrokenInputs is set,
// in which case it is dropped and accumulation continues with the
// rest. The returned fragment lengths are the effective length each
// successful file actually used (its explicit InputFile.FragmentLength,
// or the estimate computed for it when opts.EstimateFraglen is set),
// so callers can derive an RPGC scale from what was really used rather
// than re-deriving it from the caller-supplied hints alone.
func BuildInputTrack(ctx context.Context, name string, g *genome.Genome, files []InputFile, opts PipelineOptions) (*track.Track, uint64, []int, error) {
	results := make([]inputResult, len(files))
	grp, _ := errgroup.WithContext(ctx)
	for i := range files {
		i := i
		f := files[i]
		grp.Go(func() error {
			fragLen := f.FragmentLength
			if fragLen == 0 && opts.EstimateFraglen {
				est, err := EstimateFragmentLength(f.Reads, g, f.ReadLength, opts.Fraglen)
				if err != nil {
					if opts.SkipBrokenInputs {
						results[i] = inputResult{err: err}
						return nil
					}
					return err
				}
				fragLen = est.Length
			}
			t := track.New(f.Name, g, opts.Binsize)
			accOpts := AccumulateOptions{
				Binsize:        opts.Binsize,
				FragmentLength: fragLen,
				Overlap:        opts.Overlap,
				SpanMode:       opts.SpanMode,
			}
			if err := Accumulate(t, f.Reads, accOpts); err != nil {
				if opts.SkipBrokenInputs {
					results[i] = inputResult{err: err}
					return nil
				}
				return err
			}
			results[i] = inputResult{track: t, reads: uint64(len(f.Reads)), fragLen: fragLen}
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, 0, nil, err
	}

	merged := track.New(name, g, opts.Binsize)
	var totalReads uint64
	var fragLens []int
	for _, r := range results {
		if r.track == nil {
			continue
		}
		m, err := track.AddTracks(name, merged, r.track)
		if err != nil {
			return nil, 0, nil, err
		}
		merged = m
		totalReads += r.reads
		if r.fragLen > 0 {
			fragLens = append(fragLens, r.fragLen)
		}
	}
	return merged, totalReads, fragLens, nil
}

// Pipeline runs the full treatment/control flow: accumulate treatment and (optional)
// control inputs, rescale each to RPGC, and combine under
// opts.Normalize.Combine.
func Pipeline(ctx context.Context, g *genome.Genome, treatment, control []InputFile, opts PipelineOptions) (*track.Track, error) {
	tTrack, tReads, tFragLens, err := BuildInputTrack(ctx, "treatment", g, treatment, opts)
	if err != nil {
		return nil, err
	}
	fragLen := opts.Normalize.FragmentLength
	if fragLen == 0 {
		fragLen = meanInts(tFragLens)
	}
	ScaleTrack(tTrack, RPGCScale(tReads, fragLen, opts.Normalize.EffectiveGenomeSize))

	if len(control) == 0 || opts.Normalize.Combine == CombineRaw {
		return cloneTrack("signal", tTrack), nil
	}

	cTrack, cReads, cFragLens, err := BuildInputTrack(ctx, "control", g, control, opts)
	if err != nil {
		return nil, err
	}
	cFragLen := opts.Normalize.FragmentLength
	if cFragLen == 0 {
		cFragLen = meanInts(cFragLens)
	}
	ScaleTrack(cTrack, RPGCScale(cReads, cFragLen, opts.Normalize.EffectiveGenomeSize))

	return Combine("signal", tTrack, cTrack, opts.Normalize)
}

// meanInts averages the effective fragment lengths BuildInputTrack
// reports, falling back to 0 when none of the inputs had a usable
// length, which makes RPGCScale return its no-op scale of 1.
func meanInts(lens []int) int {
	if len(lens) == 0 {
		return 0
	}
	var sum int
	for _, l := range lens {
		sum += l
	}
	return sum / len(lens)
}
