package models

import "strings"

// System represents a target platform
type System string

const (
	SystemWindows System = "windows"
	SystemLinux   System = "linux"
)

// ParseSystem validates a system name from user input
func ParseSystem(s string) (System, bool) {
	switch System(s) {
	case SystemWindows, SystemLinux:
		return System(s), true
	}
	return "", false
}

// SystemFromFileName derives the target platform from a binary's
// file extension. Shared objects are linux, everything else windows.
func SystemFromFileName(name string) System {
	if strings.HasSuffix(name, ".so") {
		return SystemLinux
	}
	return SystemWindows
}
