package models

import "time"

// ReleaseVersion is the per-channel "latest" pointer. At most one exists
// per channel and it always reflects the most recently completed upload
// batch for that channel, never a partial one.
type ReleaseVersion struct {
	Channel    Channel   `json:"channel"`
	Version    string    `json:"version"`
	SarVersion string    `json:"sar_version"`
	Commit     string    `json:"commit"`
	Branch     string    `json:"branch"`
	Date       time.Time `json:"date"`
}

// Key returns the storage key of this pointer
func (r *ReleaseVersion) Key() []string {
	return ReleaseVersionKey(r.Channel)
}

// ReleaseVersionKey builds the storage key for a channel's latest pointer
func ReleaseVersionKey(channel Channel) []string {
	return []string{"latest", string(channel)}
}
