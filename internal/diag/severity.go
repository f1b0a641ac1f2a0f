package diag

// Severity defines the importance of a diagnostic, ordered from least to most severe.
type Severity uint8

const (
	SevNote Severity = iota
	SevRemark
	SevWarning
	SevError
	// SevFatal stops semantic checking of the translation unit.
	SevFatal
)

func (s Severity) String() string {
	switch s {
	case SevNote:
		return "note"
	case SevRemark:
		return "remark"
	case SevWarning:
		return "warning"
	case SevError:
		return "error"
	case SevFatal:
		return "fatal error"
	}
	return "unknown"
}
