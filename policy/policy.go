// Package policy decides which metadata fields each privacy level removes.
// Minimal, standard, and strict are blacklists that grow by category;
// paranoid is a whitelist of essential camera settings.
package policy

import (
	"fmt"
	"strings"

	"github.com/WerlingM/privacy-exif-cleaner/tags"
)

// Level is the user-selected removal aggressiveness.
type Level int

const (
	Minimal Level = iota
	Standard
	Strict
	Paranoid
)

func (l Level) String() string {
	switch l {
	case Minimal:
		return "minimal"
	case Standard:
		return "standard"
	case Strict:
		return "strict"
	case Paranoid:
		return "paranoid"
	default:
		return fmt.Sprintf("level(%d)", int(l))
	}
}

// ParseLevel maps a CLI value to a Level.
func ParseLevel(value string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "minimal":
		return Minimal, nil
	case "standard":
		return Standard, nil
	case "strict":
		return Strict, nil
	case "paranoid":
		return Paranoid, nil
	default:
		return Standard, fmt.Errorf("invalid privacy level: %s", value)
	}
}

// categoriesRemoved lists the removed categories per blacklist level.
// Strict extends standard, standard extends minimal.
var categoriesRemoved = map[Level][]tags.Category{
	Minimal:  {tags.Location},
	Standard: {tags.Location, tags.DeviceIdentifier, tags.PersonalInfo},
	Strict: {
		tags.Location,
		tags.DeviceIdentifier,
		tags.PersonalInfo,
		tags.Temporal,
		tags.Software,
		tags.Metadata,
	},
}

// TagsToRemove returns the remove-set for a blacklist level. Paranoid is a
// whitelist and has no meaningful remove-set; it returns nil, and callers
// must use ShouldPreserve instead.
func TagsToRemove(level Level) map[tags.ID]struct{} {
	categories, ok := categoriesRemoved[level]
	if !ok {
		return nil
	}
	remove := make(map[tags.ID]struct{})
	for _, category := range categories {
		for _, id := range tags.ByCategory(category) {
			remove[id] = struct{}{}
		}
	}
	return remove
}

// ShouldPreserve reports whether a field survives removal at the given
// level. Paranoid preserves only the essential camera settings.
func ShouldPreserve(id tags.ID, level Level) bool {
	if level == Paranoid {
		return tags.IsEssential(id)
	}
	_, removed := TagsToRemove(level)[id]
	return !removed
}

// Explain returns the lines printed at startup describing what the level
// removes and preserves.
func Explain(level Level) []string {
	switch level {
	case Minimal:
		return []string{
			"Removes: GPS coordinates, location data",
			"Preserves: All camera settings, timestamps, device info",
		}
	case Standard:
		return []string{
			"Removes: GPS data, camera serial numbers, unique device IDs, personal information",
			"Preserves: Camera model, settings, timestamps, non-identifying technical data",
		}
	case Strict:
		return []string{
			"Removes: GPS, device IDs, personal info, timestamps, software info, descriptions",
			"Preserves: Camera settings (ISO, aperture, etc.), color profiles",
		}
	case Paranoid:
		return []string{
			"Removes: All metadata except essential technical camera settings",
			"Preserves: Only exposure, aperture, ISO, focal length and similar settings",
		}
	default:
		return nil
	}
}
