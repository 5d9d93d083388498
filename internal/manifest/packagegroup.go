package manifest

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/wsmigrate/wsmigrate/internal/orderedmap"
)

// GroupMember is one package named by a PackageGroup. Version is empty
// for a bare string list entry (meaning "use the parent's target
// version", resolved downstream during packageGroup normalization) and
// otherwise holds the declared version, which may be the literal "*"
// propagation marker.
type GroupMember struct {
	Package string
	Version string
}

// PackageGroup is the sum type a publisher uses to declare a
// co-versioned bundle of packages: either an ordered list of bare
// names / {package,version} objects, or a map of package to version.
// Both forms preserve declaration order; IsMap records which form was
// parsed so it can be round-tripped on write.
type PackageGroup struct {
	IsMap   bool
	Members []GroupMember
}

// Empty reports whether the group has no members.
func (g PackageGroup) Empty() bool {
	return len(g.Members) == 0
}

type groupObjectEntry struct {
	Package string `json:"package"`
	Version string `json:"version"`
}

// UnmarshalJSON accepts a list (of strings and/or {package,version}
// objects) or a map, preserving source order either way.
func (g *PackageGroup) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || string(trimmed) == "null" {
		*g = PackageGroup{}
		return nil
	}

	switch trimmed[0] {
	case '[':
		var raw []json.RawMessage
		if err := json.Unmarshal(trimmed, &raw); err != nil {
			return fmt.Errorf("packageGroup: %w", err)
		}
		members := make([]GroupMember, 0, len(raw))
		for _, item := range raw {
			itemTrimmed := bytes.TrimSpace(item)
			if len(itemTrimmed) > 0 && itemTrimmed[0] == '"' {
				var name string
				if err := json.Unmarshal(itemTrimmed, &name); err != nil {
					return fmt.Errorf("packageGroup: %w", err)
				}
				members = append(members, GroupMember{Package: name})
				continue
			}
			var obj groupObjectEntry
			if err := json.Unmarshal(itemTrimmed, &obj); err != nil {
				return fmt.Errorf("packageGroup: %w", err)
			}
			members = append(members, GroupMember{Package: obj.Package, Version: obj.Version})
		}
		*g = PackageGroup{IsMap: false, Members: members}
		return nil
	case '{':
		keys, raw, err := orderedmap.DecodeOrderedObject(trimmed)
		if err != nil {
			return fmt.Errorf("packageGroup: %w", err)
		}
		members := make([]GroupMember, 0, len(keys))
		for _, k := range keys {
			var v string
			if err := json.Unmarshal(raw[k], &v); err != nil {
				return fmt.Errorf("packageGroup: member %q: %w", k, err)
			}
			members = append(members, GroupMember{Package: k, Version: v})
		}
		*g = PackageGroup{IsMap: true, Members: members}
		return nil
	default:
		return fmt.Errorf("packageGroup: unexpected JSON value %s", trimmed)
	}
}

// MarshalJSON writes back in whichever form was parsed (or the list
// form, for a group built programmatically).
func (g PackageGroup) MarshalJSON() ([]byte, error) {
	if g.IsMap {
		m := orderedmap.New[string]()
		for _, mem := range g.Members {
			m.Set(mem.Package, mem.Version)
		}
		return json.Marshal(m)
	}

	var buf bytes.Buffer
	buf.WriteByte('[')
	for i, mem := range g.Members {
		if i > 0 {
			buf.WriteByte(',')
		}
		if mem.Version == "" {
			b, err := json.Marshal(mem.Package)
			if err != nil {
				return nil, err
			}
			buf.Write(b)
			continue
		}
		b, err := json.Marshal(groupObjectEntry{Package: mem.Package, Version: mem.Version})
		if err != nil {
			return nil, err
		}
		buf.Write(b)
	}
	buf.WriteByte(']')
	return buf.Bytes(), nil
}

// LegacyNrwlWorkspaceGroup is the frozen hard-coded package group
// substituted for @nrwl/workspace targets below 14.0.0-beta.0. Nx kept
// this as a static compatibility patch for migrations authored before
// the group moved into the registry; there is no mechanism to append
// to it and none is specified.
var LegacyNrwlWorkspaceGroup = PackageGroup{
	IsMap: false,
	Members: []GroupMember{
		{Package: "@nrwl/angular", Version: "*"},
		{Package: "@nrwl/cypress", Version: "*"},
		{Package: "@nrwl/devkit", Version: "*"},
		{Package: "@nrwl/eslint-plugin-nx", Version: "*"},
		{Package: "@nrwl/express", Version: "*"},
		{Package: "@nrwl/jest", Version: "*"},
		{Package: "@nrwl/js", Version: "*"},
		{Package: "@nrwl/linter", Version: "*"},
		{Package: "@nrwl/nest", Version: "*"},
		{Package: "@nrwl/next", Version: "*"},
		{Package: "@nrwl/node", Version: "*"},
		{Package: "@nrwl/react", Version: "*"},
		{Package: "@nrwl/storybook", Version: "*"},
		{Package: "@nrwl/web", Version: "*"},
		{Package: "@nrwl/webpack", Version: "*"},
		{Package: "@nrwl/workspace", Version: "*"},
		{Package: "@nrwl/nx-cloud", Version: "latest"},
	},
}
