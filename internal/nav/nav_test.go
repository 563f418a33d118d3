package nav

import (
	"testing"
)

// TestNewStartsAtRoot verifies a fresh State is positioned at "/" with only
// the synthetic root breadcrumb.
func TestNewStartsAtRoot(t *testing.T) {
	s := New()

	if got := s.CurrentPath(); got != "/" {
		t.Errorf("CurrentPath() = %q, want %q", got, "/")
	}

	segments := s.Segments()
	if len(segments) != 1 {
		t.Fatalf("Segments() returned %d segments, want 1", len(segments))
	}
	if segments[0].Label != RootLabel || segments[0].Path != "/" {
		t.Errorf("root segment = %+v, want {%s /}", segments[0], RootLabel)
	}
}

// TestSegmentsDecomposition verifies breadcrumbs are exactly the ordered
// decomposition of the path, each mapping to its cumulative absolute path.
func TestSegmentsDecomposition(t *testing.T) {
	s := New()
	s.SetPath("/documents/reports/2026")

	want := []Segment{
		{Label: RootLabel, Path: "/"},
		{Label: "documents", Path: "/documents"},
		{Label: "reports", Path: "/documents/reports"},
		{Label: "2026", Path: "/documents/reports/2026"},
	}

	got := s.Segments()
	if len(got) != len(want) {
		t.Fatalf("Segments() returned %d segments, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("segment[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

// TestSetPathNormalizes verifies paths are coerced to clean absolute form.
func TestSetPathNormalizes(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "/"},
		{"/", "/"},
		{"docs", "/docs"},
		{"/docs/", "/docs"},
		{"/a//b", "/a/b"},
		{"/a/./b", "/a/b"},
		{"/a/b/../c", "/a/c"},
		{"  /spaced  ", "/spaced"},
	}

	for _, tt := range tests {
		s := New()
		s.SetPath(tt.in)
		if got := s.CurrentPath(); got != tt.want {
			t.Errorf("SetPath(%q): CurrentPath() = %q, want %q", tt.in, got, tt.want)
		}
	}
}

// TestOverrideTakesPrecedence verifies an active override is the effective
// path and explicit navigation does not displace it.
func TestOverrideTakesPrecedence(t *testing.T) {
	s := New()
	s.SetPath("/documents")
	s.SetOverride("/shared/incoming")

	if got := s.CurrentPath(); got != "/shared/incoming" {
		t.Errorf("CurrentPath() with override = %q, want %q", got, "/shared/incoming")
	}

	// Explicit navigation must not win while the override is active.
	s.SetPath("/elsewhere")
	if got := s.CurrentPath(); got != "/shared/incoming" {
		t.Errorf("CurrentPath() after SetPath under override = %q, want %q", got, "/shared/incoming")
	}

	segments := s.Segments()
	if len(segments) != 3 || segments[2].Path != "/shared/incoming" {
		t.Errorf("Segments() under override = %+v, want trail for /shared/incoming", segments)
	}
}

// TestClearOverrideAdoptsOverridePath verifies navigation continues from the
// override's path once it is cleared.
func TestClearOverrideAdoptsOverridePath(t *testing.T) {
	s := New()
	s.SetPath("/documents")
	s.SetOverride("/shared")
	s.ClearOverride()

	if got := s.CurrentPath(); got != "/shared" {
		t.Errorf("CurrentPath() after ClearOverride = %q, want %q", got, "/shared")
	}

	// Explicit navigation works again.
	s.SetPath("/shared/deep")
	if got := s.CurrentPath(); got != "/shared/deep" {
		t.Errorf("CurrentPath() = %q, want %q", got, "/shared/deep")
	}
}

// TestClearOverrideRestoresNavigation verifies a path navigated to while an
// override was active becomes the current path once the override clears.
func TestClearOverrideRestoresNavigation(t *testing.T) {
	s := New()
	s.SetOverride("/shared/incoming")
	s.SetPath("/documents/reports")

	if got := s.CurrentPath(); got != "/shared/incoming" {
		t.Fatalf("CurrentPath() under override = %q, want %q", got, "/shared/incoming")
	}

	s.ClearOverride()
	if got := s.CurrentPath(); got != "/documents/reports" {
		t.Errorf("CurrentPath() after ClearOverride = %q, want %q", got, "/documents/reports")
	}

	// The recorded path does not leak into the next override cycle.
	s.SetOverride("/pinned")
	s.ClearOverride()
	if got := s.CurrentPath(); got != "/pinned" {
		t.Errorf("CurrentPath() after second override cycle = %q, want %q", got, "/pinned")
	}
}

// TestClearOverrideWithoutOverride verifies clearing when no override is
// active leaves the current path alone.
func TestClearOverrideWithoutOverride(t *testing.T) {
	s := New()
	s.SetPath("/documents")
	s.ClearOverride()

	if got := s.CurrentPath(); got != "/documents" {
		t.Errorf("CurrentPath() = %q, want %q", got, "/documents")
	}
}

// TestActivateForRegularUser verifies the default-path policy places a
// normal principal at the root.
func TestActivateForRegularUser(t *testing.T) {
	s := New()
	s.SetPath("/somewhere")
	s.ActivateFor("alice")

	if got := s.CurrentPath(); got != "/" {
		t.Errorf("CurrentPath() after ActivateFor(alice) = %q, want %q", got, "/")
	}
}

// TestActivateForDemoUser verifies the demo principal lands in the demo
// sandbox.
func TestActivateForDemoUser(t *testing.T) {
	s := New()
	s.ActivateFor("demo")

	if got := s.CurrentPath(); got != "/demo" {
		t.Errorf("CurrentPath() after ActivateFor(demo) = %q, want %q", got, "/demo")
	}
}

// TestActivateForRunsOncePerIdentity verifies re-activation for the same
// identity does not clobber navigation done after the first activation.
func TestActivateForRunsOncePerIdentity(t *testing.T) {
	s := New()
	s.ActivateFor("alice")
	s.SetPath("/documents")

	s.ActivateFor("alice")
	if got := s.CurrentPath(); got != "/documents" {
		t.Errorf("CurrentPath() after re-activation = %q, want %q", got, "/documents")
	}

	// A different identity re-applies the policy.
	s.ActivateFor("demo")
	if got := s.CurrentPath(); got != "/demo" {
		t.Errorf("CurrentPath() after identity change = %q, want %q", got, "/demo")
	}
}

// TestActivateForSkippedUnderOverride verifies the default-path policy never
// displaces an active override.
func TestActivateForSkippedUnderOverride(t *testing.T) {
	s := New()
	s.SetOverride("/pinned")
	s.ActivateFor("demo")

	if got := s.CurrentPath(); got != "/pinned" {
		t.Errorf("CurrentPath() = %q, want %q", got, "/pinned")
	}
}

// TestJoin verifies relative children resolve against the base and absolute
// children replace it.
func TestJoin(t *testing.T) {
	tests := []struct {
		base  string
		child string
		want  string
	}{
		{"/", "docs", "/docs"},
		{"/docs", "reports", "/docs/reports"},
		{"/docs", "/other", "/other"},
		{"/docs", "", "/docs"},
		{"/docs", "..", "/"},
	}

	for _, tt := range tests {
		if got := Join(tt.base, tt.child); got != tt.want {
			t.Errorf("Join(%q, %q) = %q, want %q", tt.base, tt.child, got, tt.want)
		}
	}
}

// TestSegmentsOfRoot verifies the root path yields only the synthetic root
// segment.
func TestSegmentsOfRoot(t *testing.T) {
	segments := SegmentsOf("/")
	if len(segments) != 1 {
		t.Fatalf("SegmentsOf(/) returned %d segments, want 1", len(segments))
	}
	if segments[0] != (Segment{Label: RootLabel, Path: "/"}) {
		t.Errorf("SegmentsOf(/) = %+v", segments)
	}
}
