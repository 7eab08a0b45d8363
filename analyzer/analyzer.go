// Package analyzer classifies decoded metadata fields against a privacy
// level and summarizes what was found.
package analyzer

import (
	"fmt"

	"github.com/WerlingM/privacy-exif-cleaner/metadata"
	"github.com/WerlingM/privacy-exif-cleaner/policy"
	"github.com/WerlingM/privacy-exif-cleaner/tags"
)

// Finding is one privacy-sensitive field detected in an image.
type Finding struct {
	ID          tags.ID       `json:"id"`
	Description string        `json:"description"`
	Category    tags.Category `json:"-"`
}

// Analyze returns a finding for every field the level does not preserve,
// in the order the decoder reported them.
func Analyze(fields []metadata.Field, level policy.Level) []Finding {
	var findings []Finding
	for _, field := range fields {
		if policy.ShouldPreserve(field.ID, level) {
			continue
		}
		findings = append(findings, Finding{
			ID:          field.ID,
			Description: fmt.Sprintf("%s: %s", field.ID, field.Value),
			Category:    tags.CategoryOf(field.ID),
		})
	}
	return findings
}

// Summary aggregates findings by category for one image.
type Summary struct {
	HasLocationData      bool `json:"has_location_data"`
	HasDeviceIdentifiers bool `json:"has_device_identifiers"`
	HasPersonalInfo      bool `json:"has_personal_info"`
	HasTimestamps        bool `json:"has_timestamps"`
	HasSoftwareInfo      bool `json:"has_software_info"`
	HasMetadata          bool `json:"has_metadata"`
	TotalFindings        int  `json:"total_findings"`
}

func Summarize(findings []Finding) Summary {
	summary := Summary{TotalFindings: len(findings)}
	for _, finding := range findings {
		switch finding.Category {
		case tags.Location:
			summary.HasLocationData = true
		case tags.DeviceIdentifier:
			summary.HasDeviceIdentifiers = true
		case tags.PersonalInfo:
			summary.HasPersonalInfo = true
		case tags.Temporal:
			summary.HasTimestamps = true
		case tags.Software:
			summary.HasSoftwareInfo = true
		case tags.Metadata:
			summary.HasMetadata = true
		}
	}
	return summary
}

// HasPrivacyData reports whether any sensitive field was found.
func (s Summary) HasPrivacyData() bool {
	return s.TotalFindings > 0
}

// Describe returns human-readable lines for verbose output.
func (s Summary) Describe() []string {
	var lines []string
	if s.HasLocationData {
		lines = append(lines, "Contains GPS location data")
	}
	if s.HasDeviceIdentifiers {
		lines = append(lines, "Contains device serial numbers or unique identifiers")
	}
	if s.HasPersonalInfo {
		lines = append(lines, "Contains personal information (names, copyright, comments)")
	}
	if s.HasTimestamps {
		lines = append(lines, "Contains timestamp information")
	}
	if s.HasSoftwareInfo {
		lines = append(lines, "Contains software processing information")
	}
	if s.HasMetadata {
		lines = append(lines, "Contains additional metadata")
	}
	if len(lines) == 0 {
		lines = append(lines, "No privacy-sensitive data found")
	}
	return lines
}

// Categories lists the distinct category labels present in the findings,
// in a fixed order.
func Categories(findings []Finding) []string {
	seen := make(map[tags.Category]bool)
	for _, finding := range findings {
		seen[finding.Category] = true
	}
	order := []tags.Category{
		tags.Location,
		tags.DeviceIdentifier,
		tags.PersonalInfo,
		tags.Temporal,
		tags.Software,
		tags.Metadata,
		tags.Other,
	}
	var labels []string
	for _, category := range order {
		if seen[category] {
			labels = append(labels, category.String())
		}
	}
	return labels
}
