// Command bbitool exercises the library end to end: reading a BAM
// header, dumping decoded records, accumulating coverage into a
// BigWig file, dumping a BigWig header, and querying a BigWig region.
// BAM decoding below record level is delegated to
// github.com/biogo/hts/bam; this tool only ever sees already-parsed
// sam.Records.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/biogo/hts/bam"
	"github.com/biogo/hts/sam"

	"github.com/pbenner/rustynetics/bbierrors"
	"github.com/pbenner/rustynetics/bigwig"
	"github.com/pbenner/rustynetics/blog"
	"github.com/pbenner/rustynetics/coverage"
	"github.com/pbenner/rustynetics/genome"
)

const (
	exitOK              = 0
	exitIOError         = 1
	exitMalformedInput  = 2
	exitUnsupportedVers = 3
	exitInvariant       = 4
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage()
		return exitMalformedInput
	}
	logger := blog.StdLogger{L: log.New(os.Stderr, "", log.LstdFlags), Verbose: true}

	var err error
	switch args[0] {
	case "bamheader":
		err = cmdBAMHeader(args[1:])
	case "bamdump":
		err = cmdBAMDump(args[1:])
	case "coverage":
		err = cmdCoverage(args[1:], logger)
	case "bwheader":
		err = cmdBWHeader(args[1:])
	case "bwquery":
		err = cmdBWQuery(args[1:])
	default:
		usage()
		return exitMalformedInput
	}
	if err == nil {
		return exitOK
	}
	fmt.Fprintln(os.Stderr, "bbitool:", err)
	return exitCodeFor(err)
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s {bamheader|bamdump|coverage|bwheader|bwquery} [flags]\n", os.Args[0])
}

// exitCodeFor maps the taxonomy in bbierrors onto the four exit-code
// buckets this tool promises; anything untagged (a plain os/flag
// error) is treated as an I/O failure since it almost always
// originates from opening a path the caller gave us.
func exitCodeFor(err error) int {
	switch {
	case bbierrors.Is(err, bbierrors.KindIO):
		return exitIOError
	case bbierrors.Is(err, bbierrors.KindUnsupportedVersion):
		return exitUnsupportedVers
	case bbierrors.Is(err, bbierrors.KindTruncated),
		bbierrors.Is(err, bbierrors.KindBadMagic),
		bbierrors.Is(err, bbierrors.KindDecompress):
		return exitMalformedInput
	case bbierrors.Is(err, bbierrors.KindIndexCorruption),
		bbierrors.Is(err, bbierrors.KindOutOfRange),
		bbierrors.Is(err, bbierrors.KindUnknownChromosome),
		bbierrors.Is(err, bbierrors.KindFraglenEstimation),
		bbierrors.Is(err, bbierrors.KindWriteFinalization):
		return exitInvariant
	default:
		return exitIOError
	}
}

func openBAM(path string) (*bam.Reader, *os.File, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, bbierrors.New(bbierrors.KindIO, "opening "+path, err)
	}
	r, err := bam.NewReader(f, 1)
	if err != nil {
		f.Close()
		return nil, nil, bbierrors.New(bbierrors.KindTruncated, "parsing BAM header of "+path, err)
	}
	return r, f, nil
}

func cmdBAMHeader(args []string) error {
	fs := flag.NewFlagSet("bamheader", flag.ContinueOnError)
	path := fs.String("bam", "", "input BAM path")
	if err := fs.Parse(args); err != nil {
		return bbierrors.New(bbierrors.KindIO, "parsing flags", err)
	}
	r, f, err := openBAM(*path)
	if err != nil {
		return err
	}
	defer f.Close()
	for _, ref := range r.Header().Refs {
		fmt.Printf("%s\t%d\n", ref.Name(), ref.Len())
	}
	return nil
}

func cmdBAMDump(args []string) error {
	fs := flag.NewFlagSet("bamdump", flag.ContinueOnError)
	path := fs.String("bam", "", "input BAM path")
	limit := fs.Int("limit", 0, "stop after this many records (0 = no limit)")
	if err := fs.Parse(args); err != nil {
		return bbierrors.New(bbierrors.KindIO, "parsing flags", err)
	}
	r, f, err := openBAM(*path)
	if err != nil {
		return err
	}
	defer f.Close()

	n := 0
	for {
		rec, err := r.Read()
		if err != nil {
			break
		}
		fmt.Printf("%s\t%s\t%d\t%d\t%v\n", rec.Name, refName(rec.Ref), rec.Pos, rec.Flags, rec.Cigar)
		n++
		if *limit > 0 && n >= *limit {
			break
		}
	}
	return nil
}

func refName(ref *sam.Reference) string {
	if ref == nil {
		return "*"
	}
	return ref.Name()
}

func cmdCoverage(args []string, logger blog.Logger) error {
	fs := flag.NewFlagSet("coverage", flag.ContinueOnError)
	bamPath := fs.String("bam", "", "treatment BAM path")
	controlPath := fs.String("control", "", "optional control BAM path")
	out := fs.String("out", "", "output BigWig path")
	binsize := fs.Int("binsize", 10, "bin size in bases")
	effGenomeSize := fs.Uint64("effective-genome-size", 0, "effective genome size for RPGC normalization; 0 disables scaling")
	if err := fs.Parse(args); err != nil {
		return bbierrors.New(bbierrors.KindIO, "parsing flags", err)
	}
	if *bamPath == "" || *out == "" {
		return bbierrors.New(bbierrors.KindIO, "coverage requires -bam and -out", nil)
	}

	treatmentReads, g, err := readBAMRecords(*bamPath)
	if err != nil {
		return err
	}
	var controlReads []coverage.InputFile
	if *controlPath != "" {
		reads, _, err := readBAMRecords(*controlPath)
		if err != nil {
			return err
		}
		controlReads = reads
	}

	opts := coverage.DefaultPipelineOptions()
	opts.Binsize = *binsize
	opts.Normalize.EffectiveGenomeSize = *effGenomeSize
	if *controlPath == "" {
		opts.Normalize.Combine = coverage.CombineRaw
	}

	logger.Infof("accumulating coverage for %s", *bamPath)
	tr, err := coverage.Pipeline(context.Background(), g, treatmentReads, controlReads, opts)
	if err != nil {
		return err
	}

	f, err := os.Create(*out)
	if err != nil {
		return bbierrors.New(bbierrors.KindIO, "creating "+*out, err)
	}
	defer f.Close()
	if err := tr.ExportBigWig(f, bigwig.DefaultWriterOptions()); err != nil {
		return err
	}
	logger.Infof("wrote %s", *out)
	return nil
}

// readBAMRecords decodes one BAM file into the engine's ReadRecord
// shape and the genome.Genome resolved from its header, the one
// adapter boundary between delegated BAM parsing and the coverage
// engine.
func readBAMRecords(path string) ([]coverage.InputFile, *genome.Genome, error) {
	r, f, err := openBAM(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	refs := r.Header().Refs
	names := make([]string, len(refs))
	lengths := make([]uint32, len(refs))
	for i, ref := range refs {
		names[i] = ref.Name()
		lengths[i] = uint32(ref.Len())
	}
	g, err := genome.New(names, lengths)
	if err != nil {
		return nil, nil, bbierrors.New(bbierrors.KindIndexCorruption, "building genome from "+path, err)
	}

	var reads []coverage.ReadRecord
	readLength := 0
	for {
		rec, err := r.Read()
		if err != nil {
			break
		}
		rr, ok := coverage.FromSAM(rec, g)
		if !ok {
			continue
		}
		reads = append(reads, rr)
		if l := rec.Seq.Length; l > readLength {
			readLength = l
		}
	}
	return []coverage.InputFile{{Name: path, Reads: reads, ReadLength: readLength}}, g, nil
}

func cmdBWHeader(args []string) error {
	fs := flag.NewFlagSet("bwheader", flag.ContinueOnError)
	path := fs.String("bw", "", "input BigWig path")
	if err := fs.Parse(args); err != nil {
		return bbierrors.New(bbierrors.KindIO, "parsing flags", err)
	}
	rd, err := bigwig.Open(*path)
	if err != nil {
		return err
	}
	defer rd.Close()

	h := rd.Header()
	fmt.Printf("version=%d\tzoomLevels=%d\tchromCount=%d\n", h.Version, h.ZoomLevels, rd.Genome().Len())
	fmt.Printf("summary: basesCovered=%d min=%g max=%g sum=%g sumSquares=%g\n",
		h.BasesCovered, h.MinVal, h.MaxVal, h.SumData, h.SumSquares)
	for i, zh := range h.ZoomHeaders {
		fmt.Printf("zoom[%d]: reduction=%d\n", i, zh.ReductionLevel)
	}
	return nil
}

func cmdBWQuery(args []string) error {
	fs := flag.NewFlagSet("bwquery", flag.ContinueOnError)
	path := fs.String("bw", "", "input BigWig path")
	seqname := fs.String("seqname", "", "chromosome regex")
	from := fs.Uint64("from", 0, "region start (0-based)")
	to := fs.Uint64("to", 0, "region end, exclusive (0 = chromosome end)")
	binsize := fs.Uint64("binsize", 0, "query bin size in bases")
	closest := fs.Bool("closest-zoom", false, "use closest-reduction zoom selection instead of coarsest-qualifying")
	if err := fs.Parse(args); err != nil {
		return bbierrors.New(bbierrors.KindIO, "parsing flags", err)
	}
	if *seqname == "" || *binsize == 0 {
		return bbierrors.New(bbierrors.KindIO, "bwquery requires -seqname and -binsize", nil)
	}

	rd, err := bigwig.Open(*path)
	if err != nil {
		return err
	}
	defer rd.Close()

	opts := bigwig.DefaultQueryOptions()
	if *closest {
		opts.ZoomSelection = bigwig.ZoomClosest
	}
	results, err := rd.Query(*seqname, uint32(*from), uint32(*to), uint32(*binsize), opts)
	if err != nil {
		return err
	}
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintln(os.Stderr, "bbitool: block error:", res.Err)
			continue
		}
		fmt.Printf("%s\t%d\t%d\t%g\n", res.Summary.Chrom, res.Summary.Start, res.Summary.End, res.Summary.Mean())
	}
	return nil
}

