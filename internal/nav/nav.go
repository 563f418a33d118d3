// Package nav tracks the current remote directory path and derives the
// breadcrumb trail from it.
package nav

import (
	gopath "path"
	"strings"
	"sync"
)

// RootLabel is the label of the synthetic root breadcrumb segment.
const RootLabel = "Home"

// Demo sessions are scoped into a sandboxed subtree by default. Keying the
// policy on the demo username here keeps it a navigation decision; the
// session layer only exposes the principal.
const (
	demoUsername = "demo"
	demoRoot     = "/demo"
)

// Segment is one breadcrumb: a display label and the absolute path it
// navigates to.
type Segment struct {
	Label string
	Path  string
}

// State holds the current directory path. The path always starts with "/",
// and the breadcrumb segments are always exactly its ordered decomposition
// prefixed with the synthetic root.
//
// Two sources can move the path: explicit navigation (SetPath, from
// breadcrumb or entry clicks) and an externally supplied override. The
// override is authoritative for as long as it is present; explicit
// navigation is still recorded underneath it and becomes visible again
// once the override clears.
type State struct {
	mu           sync.Mutex
	currentPath  string
	override     string
	hasOverride  bool
	pendingPath  string // navigation recorded while an override was active
	hasPending   bool
	activatedFor string // identity the default-path policy last ran for
	activated    bool
}

// New returns a State positioned at the server root.
func New() *State {
	return &State{currentPath: "/"}
}

// SetPath navigates to path. The value is normalized to an absolute, clean
// path. While an external override is active the override remains the source
// of truth, but the navigation is recorded and restored when the override
// clears.
func (s *State) SetPath(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasOverride {
		s.pendingPath = Normalize(path)
		s.hasPending = true
		return
	}
	s.currentPath = Normalize(path)
}

// SetOverride supplies an external path that takes precedence over explicit
// navigation until ClearOverride is called.
func (s *State) SetOverride(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.override = Normalize(path)
	s.hasOverride = true
}

// ClearOverride removes the external override. Navigation recorded while the
// override was active wins; otherwise the override value becomes the current
// path, so the view continues from where the override left it.
func (s *State) ClearOverride() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasOverride {
		if s.hasPending {
			s.currentPath = s.pendingPath
		} else {
			s.currentPath = s.override
		}
	}
	s.override = ""
	s.hasOverride = false
	s.pendingPath = ""
	s.hasPending = false
}

// CurrentPath returns the effective path: the override when one is active,
// the explicitly navigated path otherwise.
func (s *State) CurrentPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hasOverride {
		return s.override
	}
	return s.currentPath
}

// Segments returns the breadcrumb trail for the effective path: the
// synthetic root followed by one segment per path component, each mapping
// to the cumulative absolute path.
func (s *State) Segments() []Segment {
	return SegmentsOf(s.CurrentPath())
}

// ActivateFor applies the default-path policy for the given identity: "/"
// for a normal principal, the demo sandbox for the demo principal. The
// policy runs once per identity change, so later navigation is not clobbered
// by re-activation, and never while an override is active.
func (s *State) ActivateFor(username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.activated && s.activatedFor == username {
		return
	}
	s.activated = true
	s.activatedFor = username
	if s.hasOverride {
		return
	}
	if username == demoUsername {
		s.currentPath = demoRoot
	} else {
		s.currentPath = "/"
	}
}

// Normalize coerces path into a clean absolute form: a leading "/", no
// trailing slash (except root), no empty or dot components.
func Normalize(path string) string {
	path = strings.TrimSpace(path)
	if path == "" {
		return "/"
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return gopath.Clean(path)
}

// SegmentsOf decomposes an absolute path into breadcrumb segments.
func SegmentsOf(path string) []Segment {
	path = Normalize(path)
	segments := []Segment{{Label: RootLabel, Path: "/"}}

	if path == "/" {
		return segments
	}

	cumulative := ""
	for _, part := range strings.Split(path, "/") {
		if part == "" {
			continue
		}
		cumulative += "/" + part
		segments = append(segments, Segment{Label: part, Path: cumulative})
	}
	return segments
}

// Join resolves a possibly relative child path against a base directory.
// Absolute paths are kept as-is; relative ones are appended to base.
func Join(base, child string) string {
	if strings.HasPrefix(child, "/") {
		return Normalize(child)
	}
	return Normalize(base + "/" + child)
}
