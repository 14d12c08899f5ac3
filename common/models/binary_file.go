package models

import "time"

// BinaryFile represents one uploaded binary artifact.
// Stored at key ("bin", version, system, name); that triple uniquely
// identifies a file and re-uploads overwrite in place (last-write-wins),
// which is what makes upload retries idempotent.
type BinaryFile struct {
	// User-facing release tag, semver-shaped or the literal "canary"
	Version string `json:"version"`

	// Target platform
	System System `json:"system"`

	// File name, unique within (version, system)
	Name string `json:"name"`

	// Hex SHA-256 of the exact bytes stored on disk
	Hash string `json:"hash"`

	// CRC-32 of the content, cheap corruption detection only
	Checksum string `json:"checksum,omitempty"`

	// On-disk location, derived from (channel, sar_version, system, name).
	// Internal detail, never serialized to API responses.
	Path string `json:"-"`

	// Byte length of the stored content
	Size int64 `json:"size,omitempty"`

	// Ingestion time
	Date time.Time `json:"date"`

	// Upstream VCS provenance
	Commit string `json:"commit"`
	Branch string `json:"branch"`

	Channel Channel `json:"channel"`

	// Fully-qualified build identifier (tag + commit descriptor),
	// distinct from the coarse channel-facing Version
	SarVersion string `json:"sar_version"`
}

// Key returns the storage key of this file
func (b *BinaryFile) Key() []string {
	return BinaryFileKey(b.Version, b.System, b.Name)
}

// BinaryFileKey builds the storage key for a (version, system, name) triple
func BinaryFileKey(version string, system System, name string) []string {
	return []string{"bin", version, string(system), name}
}
