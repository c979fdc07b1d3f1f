package capture

import "fmt"

// ErrorKind classifies capture failures
type ErrorKind int

const (
	// RegionInvalid means the region is too small or outside every display
	RegionInvalid ErrorKind = iota + 1
	// PermissionDenied means the platform refused to hand out pixels
	PermissionDenied
	// SourceUnavailable means the backing image could not be read
	SourceUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case RegionInvalid:
		return "RegionInvalid"
	case PermissionDenied:
		return "PermissionDenied"
	case SourceUnavailable:
		return "SourceUnavailable"
	default:
		return "Unknown"
	}
}

// Error is returned by every Source implementation
type Error struct {
	Kind   ErrorKind
	Region Region
	Err    error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("capture %s: %s: %v", e.Region, e.Kind, e.Err)
	}
	return fmt.Sprintf("capture %s: %s", e.Region, e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches any *Error of the same kind, so errors.Is(err, ErrRegionInvalid)
// works regardless of region or cause.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is
var (
	ErrRegionInvalid     = &Error{Kind: RegionInvalid}
	ErrPermissionDenied  = &Error{Kind: PermissionDenied}
	ErrSourceUnavailable = &Error{Kind: SourceUnavailable}
)
