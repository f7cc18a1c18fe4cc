package domain

// Metadata describes a remote video as reported by the extraction engine,
// without downloading it.
type Metadata struct {
	ID         string
	Title      string
	Extension  string
	Duration   float64
	Uploader   string
	WebpageURL string
}

// AccessKind says how a cached artifact is reached.
type AccessKind int

const (
	// AccessLocal is a streamable file on local disk.
	AccessLocal AccessKind = iota
	// AccessRemote is a redirect to the relay's public URL.
	AccessRemote
)

// Access locates a cached artifact for serving.
type Access struct {
	Kind AccessKind
	Path string // local file path when Kind == AccessLocal
	URL  string // public URL when Kind == AccessRemote
	Size int64  // byte size when known, 0 otherwise
}

// Artifact is a downloaded media file plus its descriptive metadata.
// Immutable once committed to the store; a re-download of the same
// fingerprint either no-ops or overwrites wholesale.
type Artifact struct {
	Fingerprint Fingerprint
	Filename    string
	Title       string
	Extension   string
	Size        int64
	Access      Access
}

// Entry is one row of a store listing.
type Entry struct {
	Name       string `json:"name"`
	Size       int64  `json:"size"`
	AccessPath string `json:"path"`
}
