package plan

import (
	"reflect"
	"testing"

	"github.com/wsmigrate/wsmigrate/internal/manifest"
)

func TestNormalizeGroupUsesLegacyGroupBelowCutoff(t *testing.T) {
	s := NewState(nil, nil)
	order := NormalizeGroup(s, "@nrwl/workspace", "13.9.0", manifest.PackageGroup{})

	if len(order) != len(manifest.LegacyNrwlWorkspaceGroup.Members) {
		t.Fatalf("order len = %d, want %d (legacy group)", len(order), len(manifest.LegacyNrwlWorkspaceGroup.Members))
	}
	if order[0] != "@nrwl/angular" || order[len(order)-1] != "@nrwl/nx-cloud" {
		t.Errorf("order = %v, want legacy group shape", order)
	}
}

func TestNormalizeGroupAtOrAboveCutoffKeepsDeclaredGroup(t *testing.T) {
	s := NewState(nil, nil)
	group := manifest.PackageGroup{Members: []manifest.GroupMember{{Package: "@nx/js"}}}

	order := NormalizeGroup(s, "@nrwl/workspace", "14.0.0-beta.0", group)
	if !reflect.DeepEqual(order, []string{"@nx/js"}) {
		t.Errorf("order = %v, want [@nx/js]", order)
	}
}

func TestNormalizeGroupPropagatesOverrideForStarMembers(t *testing.T) {
	s := NewState(map[string]string{"nx": "15.0.0"}, nil)
	group := manifest.PackageGroup{
		IsMap: true,
		Members: []manifest.GroupMember{
			{Package: "@nx/js", Version: "*"},
			{Package: "@nx/react", Version: "16.0.0"},
		},
	}

	order := NormalizeGroup(s, "nx", "16.0.0", group)
	if !reflect.DeepEqual(order, []string{"@nx/js", "@nx/react"}) {
		t.Fatalf("order = %v", order)
	}

	if v, ok := s.Override("@nx/js"); !ok || v != "15.0.0" {
		t.Errorf("Override(@nx/js) = %q, %v, want 15.0.0, true (star propagation)", v, ok)
	}
	if _, ok := s.Override("@nx/react"); ok {
		t.Errorf("Override(@nx/react) unexpectedly set; explicit version should not propagate")
	}
}

func TestNormalizeGroupPropagatesOverrideForBareListMembers(t *testing.T) {
	s := NewState(map[string]string{"nx": "15.0.0"}, nil)
	group := manifest.PackageGroup{
		Members: []manifest.GroupMember{{Package: "@nx/js"}},
	}

	NormalizeGroup(s, "nx", "16.0.0", group)
	if v, ok := s.Override("@nx/js"); !ok || v != "15.0.0" {
		t.Errorf("Override(@nx/js) = %q, %v, want 15.0.0, true", v, ok)
	}
}

func TestNormalizeGroupDoesNotClobberExistingOverride(t *testing.T) {
	s := NewState(map[string]string{"nx": "15.0.0", "@nx/js": "14.5.0"}, nil)
	group := manifest.PackageGroup{Members: []manifest.GroupMember{{Package: "@nx/js", Version: "*"}}}

	NormalizeGroup(s, "nx", "16.0.0", group)
	if v, _ := s.Override("@nx/js"); v != "14.5.0" {
		t.Errorf("Override(@nx/js) = %q, want 14.5.0 (explicit override must win)", v)
	}
}

func TestNormalizeGroupEmptyReturnsNil(t *testing.T) {
	s := NewState(nil, nil)
	if order := NormalizeGroup(s, "nx", "16.0.0", manifest.PackageGroup{}); order != nil {
		t.Errorf("order = %v, want nil", order)
	}
}
