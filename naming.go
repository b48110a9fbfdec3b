package camsnap

import (
	"fmt"
	"regexp"
	"strings"
)

const maxSlugLength = 40

var nonSlug = regexp.MustCompile(`[^a-z0-9]+`)

// Slug converts a device name into a lowercase identifier made of [a-z0-9_].
// Names that reduce to nothing become "camera_<index>".
func Slug(name string, index int) string {
	s := nonSlug.ReplaceAllString(strings.ToLower(name), "_")
	s = strings.Trim(s, "_")
	if len(s) > maxSlugLength {
		s = s[:maxSlugLength]
	}
	if s == "" {
		return fmt.Sprintf("camera_%d", index)
	}
	return s
}

// fallbackName is reported for devices whose friendly name is unavailable.
func fallbackName(index int) string {
	return fmt.Sprintf("Camera %d", index)
}

// DeviceInfo describes an enumerated device.
type DeviceInfo struct {
	Index int
	ID    string
	Name  string
}

// assignIDs gives every device a unique slug. Repeated slugs get a _1, _2,
// ... suffix in enumeration order.
func assignIDs(names []string) []DeviceInfo {
	used := make(map[string]int)
	infos := make([]DeviceInfo, len(names))
	for i, name := range names {
		id := Slug(name, i)
		if n := used[id]; n > 0 {
			id = fmt.Sprintf("%s_%d", id, n)
		}
		used[Slug(name, i)]++
		infos[i] = DeviceInfo{Index: i, ID: id, Name: name}
	}
	return infos
}
