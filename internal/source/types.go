package source

type (
	FileID uint32
	FileFlags uint8
)

const (
	FileVirtual FileFlags = 1 << iota
	FileHadBOM
	FileNormalizedCRLF
	FileDecodedLegacy
)

// File captures metadata and content for a single source file.
type File struct {
	ID      FileID
	Path    string // as given by the caller
	Content []byte
	LineIdx []uint32 // offsets of '\n'
	Hash    [32]byte
	Flags   FileFlags
}

// LineCol represents a human-readable position in a source file.
type LineCol struct {
	Line uint32 // 1-based
	Col  uint32 // 1-based, in bytes
}
