package diag

// Severity orders diagnostics; only SevError fails a compile call.
type Severity uint8

const (
	// SevInfo carries side-channel output such as timings.
	SevInfo Severity = iota
	SevWarning
	SevError
)

func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}

// IsError reports whether s makes the enclosing call fail.
func (s Severity) IsError() bool { return s >= SevError }
