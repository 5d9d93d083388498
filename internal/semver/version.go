// Package semver normalizes arbitrary version strings into comparable
// triples on top of github.com/Masterminds/semver/v3, following the
// coercion rules a migration manifest author can rely on: malformed
// input degrades to 0.0.0 rather than panicking or erroring, and the
// distinguished tags "latest" and "next" pass through untouched.
package semver

import (
	"strings"

	mmsemver "github.com/Masterminds/semver/v3"
)

// Zero is the fallback version for anything normalize cannot parse.
const Zero = "0.0.0"

// tags are version strings that never compare numerically; callers must
// branch on tag-ness before comparing.
var tags = map[string]bool{
	"latest": true,
	"next":   true,
}

// IsTag reports whether v is one of the distinguished dist-tags.
func IsTag(v string) bool {
	return tags[v]
}

// Normalize canonicalizes v into a major.minor.patch[-prerelease] form.
//
// It splits on the first "-" into a semver portion and a prerelease
// portion, then splits the semver portion into up to three numeric
// components, defaulting missing ones to 0. Four candidates are built
// in decreasing precision (full, semver-only, x.y.0, x.0.0) and the
// first one that parses as a strictly-greater-than-zero semver wins;
// if none do, Normalize returns "0.0.0".
func Normalize(v string) string {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "v")
	if v == "" {
		return Zero
	}

	semverPart := v
	prerelease := ""
	if idx := strings.Index(v, "-"); idx >= 0 {
		semverPart = v[:idx]
		prerelease = v[idx+1:]
	}

	parts := strings.Split(semverPart, ".")
	major := partAt(parts, 0)
	minor := partAt(parts, 1)
	patch := partAt(parts, 2)

	full := major + "." + minor + "." + patch
	if prerelease != "" {
		full += "-" + prerelease
	}
	semverOnly := major + "." + minor + "." + patch
	xy0 := major + "." + minor + ".0"
	x00 := major + ".0.0"

	for _, candidate := range []string{full, semverOnly, xy0, x00} {
		if parsed, err := mmsemver.NewVersion(candidate); err == nil {
			if parsed.Major() > 0 || parsed.Minor() > 0 || parsed.Patch() > 0 {
				return parsed.String()
			}
		}
	}
	return Zero
}

// partAt returns the numeric component at idx, or "0" if absent or
// non-numeric.
func partAt(parts []string, idx int) string {
	if idx >= len(parts) {
		return "0"
	}
	p := strings.TrimSpace(parts[idx])
	for _, r := range p {
		if r < '0' || r > '9' {
			return "0"
		}
	}
	if p == "" {
		return "0"
	}
	return p
}

// NormalizeWithTagCheck passes "latest"/"next" through unchanged and
// otherwise delegates to Normalize.
func NormalizeWithTagCheck(v string) string {
	if IsTag(v) {
		return v
	}
	return Normalize(v)
}

// CleanSemver returns the canonical semver form of v, or a coerced
// best-effort triple when v carries range operators (^, ~, >=, etc.)
// that must be stripped before coercion.
func CleanSemver(v string) string {
	v = strings.TrimSpace(v)
	if parsed, err := mmsemver.NewVersion(v); err == nil {
		return parsed.String()
	}
	stripped := strings.TrimLeft(v, "^~=><! ")
	stripped = strings.TrimSpace(stripped)
	return Normalize(stripped)
}
