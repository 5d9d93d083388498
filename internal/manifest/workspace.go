package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/wsmigrate/wsmigrate/internal/fsops"
	"github.com/wsmigrate/wsmigrate/internal/orderedmap"
)

// Sections is the fixed, declared-order list of dependency sections the
// workspace manifest writer understands.
var Sections = []string{"dependencies", "devDependencies", "peerDependencies"}

// Workspace is the root <root>/package.json: the manifest the plan
// command rewrites in place and the Planner consults to decide whether a
// package already appears in "dependencies" or "devDependencies".
type Workspace struct {
	path            string
	topKeys         []string
	top             map[string]json.RawMessage
	sections        map[string]*orderedmap.Map[string]
	trailingNewline bool
}

// LoadWorkspace reads and parses the root manifest at path.
func LoadWorkspace(fs fsops.FS, path string) (*Workspace, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read workspace manifest %s: %w", path, err)
	}

	keys, raw, err := orderedmap.DecodeOrderedObject(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse workspace manifest %s: %w", path, err)
	}

	w := &Workspace{
		path:            path,
		topKeys:         keys,
		top:             raw,
		sections:        make(map[string]*orderedmap.Map[string]),
		trailingNewline: strings.HasSuffix(string(data), "\n"),
	}

	for _, section := range Sections {
		m := orderedmap.New[string]()
		if rawSection, ok := raw[section]; ok {
			if err := json.Unmarshal(rawSection, m); err != nil {
				return nil, fmt.Errorf("failed to parse %s in %s: %w", section, path, err)
			}
		}
		w.sections[section] = m
	}

	return w, nil
}

// Section returns the section a package is declared in ("dependencies",
// "devDependencies", or "peerDependencies") and whether it was found.
func (w *Workspace) Section(pkg string) (string, bool) {
	for _, section := range Sections {
		if _, ok := w.sections[section].Get(pkg); ok {
			return section, true
		}
	}
	return "", false
}

// Has reports whether pkg appears in any dependency section.
func (w *Workspace) Has(pkg string) bool {
	_, ok := w.Section(pkg)
	return ok
}

// HasDependency reports whether pkg appears in "dependencies" or
// "devDependencies" specifically, excluding "peerDependencies". This
// is the narrower check spec.md §4.5.2's "already appears" test
// requires: a package declared only as a peer dependency is not
// "already listed" for that purpose.
func (w *Workspace) HasDependency(pkg string) bool {
	_, ok := w.sections["dependencies"].Get(pkg)
	if ok {
		return true
	}
	_, ok = w.sections["devDependencies"].Get(pkg)
	return ok
}

// Version returns the manifest-declared version range for pkg, if present.
func (w *Workspace) Version(pkg string) (string, bool) {
	for _, section := range Sections {
		if v, ok := w.sections[section].Get(pkg); ok {
			return v, true
		}
	}
	return "", false
}

// SetVersion rewrites pkg's version in whichever section already lists
// it. If pkg is absent from every section, it is inserted into target
// (which must be "dependencies" or "devDependencies"); an empty target
// leaves the manifest untouched, matching the addToPackageJson == false
// contract.
func (w *Workspace) SetVersion(pkg, version, target string) {
	if existing, ok := w.Section(pkg); ok {
		w.sections[existing].Set(pkg, version)
		return
	}
	if target == "" {
		return
	}
	w.sections[target].Set(pkg, version)
}

// Marshal serializes the manifest back to bytes, rewriting only the
// dependency sections this package understands and leaving every other
// top-level key's raw JSON and declared order untouched. The trailing
// newline of the source file is preserved.
func (w *Workspace) Marshal() ([]byte, error) {
	out := orderedmap.New[json.RawMessage]()
	for _, key := range w.topKeys {
		if isSection(key) {
			section := w.sections[key]
			if section.Len() == 0 {
				if _, existed := w.top[key]; !existed {
					continue
				}
			}
			encoded, err := json.Marshal(section)
			if err != nil {
				return nil, err
			}
			out.Set(key, json.RawMessage(encoded))
			continue
		}
		out.Set(key, w.top[key])
	}

	// Sections newly introduced by SetVersion that did not exist in the
	// source document are appended in the fixed Sections order.
	for _, section := range Sections {
		if _, existed := out.Get(section); !existed && w.sections[section].Len() > 0 {
			encoded, err := json.Marshal(w.sections[section])
			if err != nil {
				return nil, err
			}
			out.Set(section, json.RawMessage(encoded))
		}
	}

	data, err := marshalIndented(out)
	if err != nil {
		return nil, err
	}
	if w.trailingNewline && !strings.HasSuffix(string(data), "\n") {
		data = append(data, '\n')
	}
	return data, nil
}

// DependencySnapshot returns the stringified (dependencies,
// devDependencies) pair, used by the Runner to detect whether a
// re-install is needed after replaying migrations.
func (w *Workspace) DependencySnapshot() (string, error) {
	deps, err := json.Marshal(w.sections["dependencies"])
	if err != nil {
		return "", err
	}
	devDeps, err := json.Marshal(w.sections["devDependencies"])
	if err != nil {
		return "", err
	}
	return string(deps) + "|" + string(devDeps), nil
}

// Save writes the manifest back to its source path via fs.
func (w *Workspace) Save(fs fsops.FS) error {
	data, err := w.Marshal()
	if err != nil {
		return fmt.Errorf("failed to serialize workspace manifest %s: %w", w.path, err)
	}
	if err := fs.AtomicWrite(w.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write workspace manifest %s: %w", w.path, err)
	}
	return nil
}

// Path returns the manifest's source path.
func (w *Workspace) Path() string {
	return w.path
}

func isSection(key string) bool {
	for _, s := range Sections {
		if s == key {
			return true
		}
	}
	return false
}

// marshalIndented renders m as two-space indented JSON, the
// conventional package.json style.
func marshalIndented(m *orderedmap.Map[json.RawMessage]) ([]byte, error) {
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
