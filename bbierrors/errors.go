// Package bbierrors defines the error taxonomy shared by the bbi, bigwig
// and coverage packages. A Kind is matched with this package's Is
// function, which walks the Unwrap chain of the error it is given.
package bbierrors

import "github.com/pkg/errors"

// Kind classifies a failure so that callers can decide whether to retry,
// skip a block, or abort the whole operation.
type Kind int

const (
	// KindIO is an underlying stream failure (disk or HTTP). Retriable at
	// the caller's discretion.
	KindIO Kind = iota
	// KindTruncated is an EOF encountered inside a structured field. Fatal
	// for the current reader.
	KindTruncated
	// KindBadMagic means the file does not start with a recognized BBI
	// magic number.
	KindBadMagic
	// KindUnsupportedVersion means the file declares a BBI version outside
	// the range this package reads (older or newer).
	KindUnsupportedVersion
	// KindIndexCorruption covers R-tree bound violations, overlapping
	// leaves, or a child bounding box outside its parent's.
	KindIndexCorruption
	// KindDecompress is a zlib failure. Fatal for the affected block only;
	// callers may skip it and continue.
	KindDecompress
	// KindOutOfRange is a coordinate outside the chromosome's length.
	KindOutOfRange
	// KindUnknownChromosome is a name absent from the genome table.
	KindUnknownChromosome
	// KindFraglenEstimation is insufficient signal for cross-correlation.
	KindFraglenEstimation
	// KindWriteFinalization is a failure while patching the header at the
	// end of a write. The output file must be treated as invalid.
	KindWriteFinalization
)

func (k Kind) String() string {
	switch k {
	case KindIO:
		return "IoError"
	case KindTruncated:
		return "TruncatedData"
	case KindBadMagic:
		return "BadMagic"
	case KindUnsupportedVersion:
		return "UnsupportedVersion"
	case KindIndexCorruption:
		return "IndexCorruption"
	case KindDecompress:
		return "DecompressError"
	case KindOutOfRange:
		return "OutOfRange"
	case KindUnknownChromosome:
		return "UnknownChromosome"
	case KindFraglenEstimation:
		return "FraglenEstimationFailed"
	case KindWriteFinalization:
		return "WriteFinalizationError"
	default:
		return "Unknown"
	}
}

// Error is a taxonomy-tagged error. It wraps an underlying cause and
// carries enough context (file, chromosome, offset) for a caller or log
// line to identify what failed without re-parsing the message.
type Error struct {
	Kind    Kind
	Context string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause == nil {
		return e.Kind.String() + ": " + e.Context
	}
	return e.Kind.String() + ": " + e.Context + ": " + e.Cause.Error()
}

func (e *Error) Unwrap() error { return e.Cause }

// Is reports whether the first *Error found in err's Unwrap chain has
// kind k. Since Kind is not itself an error, errors.Is cannot be used
// with a Kind value; callers use Is(err, kind) instead.
func Is(err error, k Kind) bool {
	var e *Error
	for err != nil {
		if be, ok := err.(*Error); ok {
			e = be
			break
		}
		err = errors.Unwrap(err)
	}
	return e != nil && e.Kind == k
}

// New constructs an Error, optionally wrapping a cause with pkg/errors so
// a stack trace survives into logs.
func New(k Kind, context string, cause error) *Error {
	if cause != nil {
		cause = errors.WithStack(cause)
	}
	return &Error{Kind: k, Context: context, Cause: cause}
}
