package ocr

import "fmt"

// ErrorKind classifies recognition failures
type ErrorKind int

const (
	// EngineUnavailable is fatal to the job: the engine is missing or broken
	EngineUnavailable ErrorKind = iota + 1
	// NoTextFound covers empty output and output below the confidence threshold
	NoTextFound
	// EngineFault is a transient engine failure
	EngineFault
)

func (k ErrorKind) String() string {
	switch k {
	case EngineUnavailable:
		return "EngineUnavailable"
	case NoTextFound:
		return "NoTextFound"
	case EngineFault:
		return "EngineFault"
	default:
		return "Unknown"
	}
}

// Error is returned by Engine and by backends
type Error struct {
	Kind ErrorKind
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ocr: %s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("ocr: %s", e.Kind)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches by kind
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	return ok && t.Kind == e.Kind
}

// Sentinels for errors.Is
var (
	ErrEngineUnavailable = &Error{Kind: EngineUnavailable}
	ErrNoTextFound       = &Error{Kind: NoTextFound}
	ErrEngineFault       = &Error{Kind: EngineFault}
)
