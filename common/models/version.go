package models

import "golang.org/x/mod/semver"

// VersionCanary is the literal version tag used by canary builds
const VersionCanary = "canary"

// IsValidVersion reports whether v is an acceptable release tag:
// the literal "canary" or a semantic version (without "v" prefix,
// matching upstream tag names like "1.2.3" or "1.2.3-pre4").
func IsValidVersion(v string) bool {
	if v == VersionCanary {
		return true
	}
	return semver.IsValid("v" + v)
}
