package manifest

import (
	"encoding/json"
	"testing"
)

func TestAddTargetUnmarshal(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    AddTarget
		wantErr bool
	}{
		{name: "false", raw: "false", want: AddTarget{None: true}},
		{name: "dependencies", raw: `"dependencies"`, want: AddTarget{Section: "dependencies"}},
		{name: "devDependencies", raw: `"devDependencies"`, want: AddTarget{Section: "devDependencies"}},
		{name: "unknown section", raw: `"peerDependencies"`, wantErr: true},
		{name: "wrong type", raw: "42", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got AddTarget
			err := json.Unmarshal([]byte(tt.raw), &got)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %s", tt.raw)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.want {
				t.Errorf("got %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestAddTargetMarshal(t *testing.T) {
	b, err := json.Marshal(AddTargetNone)
	if err != nil || string(b) != "false" {
		t.Errorf("Marshal(None) = %s, %v, want false, nil", b, err)
	}
	b, err = json.Marshal(AddTargetDependencies())
	if err != nil || string(b) != `"dependencies"` {
		t.Errorf("Marshal(dependencies) = %s, %v", b, err)
	}
}

func TestMigrationManifestRenamesSchematics(t *testing.T) {
	raw := `{
		"version": "2.0.0",
		"schematics": {
			"update-2": {"version": "2.0.0", "implementation": "./update-2"}
		}
	}`

	var m MigrationManifest
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}

	if m.Generators == nil || m.Generators.Len() != 1 {
		t.Fatalf("expected generators to be populated from schematics, got %+v", m.Generators)
	}
	g, ok := m.Generators.Get("update-2")
	if !ok {
		t.Fatalf("expected generator update-2 to be present")
	}
	if g.Implementation != "./update-2" {
		t.Errorf("Implementation = %q, want ./update-2", g.Implementation)
	}
}

func TestMigrationManifestPrefersGeneratorsOverSchematics(t *testing.T) {
	raw := `{
		"version": "2.0.0",
		"generators": {"a": {"version": "1.0.0"}},
		"schematics": {"b": {"version": "1.0.0"}}
	}`

	var m MigrationManifest
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if _, ok := m.Generators.Get("a"); !ok {
		t.Errorf("expected generators[a] to survive")
	}
	if _, ok := m.Generators.Get("b"); ok {
		t.Errorf("expected schematics[b] to be ignored when generators is present")
	}
}

func TestMigrationGeneratorImplementationPath(t *testing.T) {
	g := MigrationGenerator{Factory: "./legacy"}
	if g.ImplementationPath() != "./legacy" {
		t.Errorf("expected factory fallback, got %q", g.ImplementationPath())
	}
	g.Implementation = "./modern"
	if g.ImplementationPath() != "./modern" {
		t.Errorf("expected implementation to take precedence, got %q", g.ImplementationPath())
	}
}
