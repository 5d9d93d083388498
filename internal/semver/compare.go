package semver

import (
	"fmt"

	mmsemver "github.com/Masterminds/semver/v3"
)

// Gt reports whether a > b after normalizing both. Tags never compare
// numerically with anything; a tag on either side is treated as not
// greater-than.
func Gt(a, b string) bool {
	if IsTag(a) || IsTag(b) {
		return false
	}
	va, err1 := mmsemver.NewVersion(Normalize(a))
	vb, err2 := mmsemver.NewVersion(Normalize(b))
	if err1 != nil || err2 != nil {
		return false
	}
	return va.GreaterThan(vb)
}

// Lte reports whether a <= b after normalizing both.
func Lte(a, b string) bool {
	if IsTag(a) || IsTag(b) {
		return false
	}
	va, err1 := mmsemver.NewVersion(Normalize(a))
	vb, err2 := mmsemver.NewVersion(Normalize(b))
	if err1 != nil || err2 != nil {
		return false
	}
	return va.LessThan(vb) || va.Equal(vb)
}

// Gte reports whether a >= b after normalizing both.
func Gte(a, b string) bool {
	return !Gt(b, a) && !IsTag(a) && !IsTag(b)
}

// SatisfiesRange reports whether version satisfies the semver range
// expression rng, including pre-release versions.
//
// github.com/Masterminds/semver/v3 excludes pre-release versions from a
// constraint match unless the constraint itself mentions a pre-release
// component (a deliberate safety default in that library). Since this
// package's contract requires pre-release inclusion unconditionally, a
// version that fails the direct check is retried with its pre-release
// suffix stripped: if the release portion alone satisfies the range,
// the original pre-release version is considered satisfying too.
func SatisfiesRange(version, rng string) bool {
	if IsTag(version) {
		return false
	}
	constraint, err := mmsemver.NewConstraint(rng)
	if err != nil {
		return false
	}
	v, err := mmsemver.NewVersion(Normalize(version))
	if err != nil {
		return false
	}
	if constraint.Check(v) {
		return true
	}
	if v.Prerelease() == "" {
		return false
	}
	release, err := mmsemver.NewVersion(fmt.Sprintf("%d.%d.%d", v.Major(), v.Minor(), v.Patch()))
	if err != nil {
		return false
	}
	return constraint.Check(release)
}
