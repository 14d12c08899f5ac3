package models

import "strings"

// Channel represents a release track with its own "latest" pointer
type Channel string

const (
	ChannelRelease    Channel = "release"
	ChannelPrerelease Channel = "prerelease"
	ChannelCanary     Channel = "canary"
)

// ClassifyChannel maps a version string to its release channel.
// Total function: every version maps to exactly one channel, and the
// canary marker wins when both markers appear. Every code path that
// assigns a channel must go through this function.
func ClassifyChannel(version string) Channel {
	if strings.Contains(version, "canary") {
		return ChannelCanary
	}
	if strings.Contains(version, "-pre") {
		return ChannelPrerelease
	}
	return ChannelRelease
}

// ParseChannel validates a channel name from user input
func ParseChannel(s string) (Channel, bool) {
	switch Channel(s) {
	case ChannelRelease, ChannelPrerelease, ChannelCanary:
		return Channel(s), true
	}
	return "", false
}
