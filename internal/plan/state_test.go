package plan

import (
	"testing"

	"github.com/wsmigrate/wsmigrate/internal/manifest"
)

func TestAddPackageJsonUpdateKeepsStrictlyGreaterVersion(t *testing.T) {
	s := NewState(nil, nil)

	s.AddPackageJsonUpdate("nx", manifest.PackageJsonUpdateForPackage{Version: "1.0.0"})
	s.AddPackageJsonUpdate("nx", manifest.PackageJsonUpdateForPackage{Version: "0.9.0"})
	got, ok := s.Update("nx")
	if !ok || got.Version != "1.0.0" {
		t.Fatalf("Update(nx) = %+v, want version 1.0.0 (lower version must not overwrite)", got)
	}

	s.AddPackageJsonUpdate("nx", manifest.PackageJsonUpdateForPackage{Version: "2.0.0"})
	got, ok = s.Update("nx")
	if !ok || got.Version != "2.0.0" {
		t.Fatalf("Update(nx) = %+v, want version 2.0.0 (strictly greater must overwrite)", got)
	}
}

func TestSetOverrideIfAbsentDoesNotClobberExisting(t *testing.T) {
	s := NewState(map[string]string{"a": "1.0.0"}, nil)

	if s.SetOverrideIfAbsent("a", "2.0.0") {
		t.Fatalf("SetOverrideIfAbsent overwrote an existing override")
	}
	v, _ := s.Override("a")
	if v != "1.0.0" {
		t.Errorf("Override(a) = %q, want 1.0.0", v)
	}

	if !s.SetOverrideIfAbsent("b", "3.0.0") {
		t.Fatalf("SetOverrideIfAbsent did not set a previously absent override")
	}
	v, ok := s.Override("b")
	if !ok || v != "3.0.0" {
		t.Errorf("Override(b) = %q, %v, want 3.0.0, true", v, ok)
	}
}

func TestCollectedVersionReturnsSetValue(t *testing.T) {
	s := NewState(nil, nil)
	if _, ok := s.CollectedVersion("q"); ok {
		t.Fatalf("expected no collected version before any is set")
	}
	s.SetCollectedVersion("q", "1.0.0")
	v, ok := s.CollectedVersion("q")
	if !ok || v != "1.0.0" {
		t.Errorf("CollectedVersion(q) = %q, %v, want 1.0.0, true", v, ok)
	}
}

func TestToReturnsImmutablePin(t *testing.T) {
	s := NewState(nil, map[string]string{"nx": "18.0.0"})
	v, ok := s.To("nx")
	if !ok || v != "18.0.0" {
		t.Errorf("To(nx) = %q, %v, want 18.0.0, true", v, ok)
	}
	if _, ok := s.To("other"); ok {
		t.Errorf("To(other) unexpectedly found")
	}
}
