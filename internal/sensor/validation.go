package sensor

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/nerrad567/clear-gauge-core/internal/units"
)

// Validation constants.
const (
	maxNameLength = 100
	maxSlugLength = 50
	slugPattern   = `^[a-z0-9]+(?:-[a-z0-9]+)*$`

	// Source and field become MQTT topic segments and payload keys, so they
	// must not contain separators or wildcards.
	maxSourceLength = 50
	maxFieldLength  = 100
	namePattern     = `^[a-z0-9][a-z0-9_-]*$`
)

var (
	slugRegex = regexp.MustCompile(slugPattern)
	nameRegex = regexp.MustCompile(namePattern)
)

// Validate performs comprehensive validation on a sensor definition.
//
// Unlike single-failure validators, every failed check is collected and
// reported in one error joined with "; ", so a caller fixing a catalog
// entry sees all problems at once. The returned error unwraps to
// ErrInvalidSensor.
func Validate(s *Sensor) error {
	if s == nil {
		return ErrInvalidSensor
	}

	var problems []string

	if name := strings.TrimSpace(s.Name); name == "" {
		problems = append(problems, "name cannot be empty")
	} else if len(name) > maxNameLength {
		problems = append(problems, fmt.Sprintf("name exceeds %d characters", maxNameLength))
	}

	// Empty slug is allowed at this point; the registry generates one.
	if s.Slug != "" {
		if len(s.Slug) > maxSlugLength {
			problems = append(problems, fmt.Sprintf("slug exceeds %d characters", maxSlugLength))
		} else if !slugRegex.MatchString(s.Slug) {
			problems = append(problems, fmt.Sprintf("slug %q must be lowercase alphanumeric with hyphens", s.Slug))
		}
	}

	problems = append(problems, validateBinding(s.Source, s.Field)...)
	problems = append(problems, validateMeasurement(s)...)

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrInvalidSensor, strings.Join(problems, "; "))
}

// validateBinding checks the source/field pair that ties a sensor to a
// raw observation payload.
func validateBinding(source, field string) []string {
	var problems []string

	switch {
	case source == "":
		problems = append(problems, "source cannot be empty")
	case len(source) > maxSourceLength:
		problems = append(problems, fmt.Sprintf("source exceeds %d characters", maxSourceLength))
	case !nameRegex.MatchString(source):
		problems = append(problems, fmt.Sprintf("source %q must be lowercase alphanumeric with hyphens or underscores", source))
	}

	switch {
	case field == "":
		problems = append(problems, "field cannot be empty")
	case len(field) > maxFieldLength:
		problems = append(problems, fmt.Sprintf("field exceeds %d characters", maxFieldLength))
	case !nameRegex.MatchString(field):
		problems = append(problems, fmt.Sprintf("field %q must be lowercase alphanumeric with hyphens or underscores", field))
	}

	return problems
}

// validateMeasurement checks quantity membership for every unit the
// sensor references, plus the precision override.
func validateMeasurement(s *Sensor) []string {
	var problems []string

	if units.UnitsFor(s.Quantity) == nil {
		problems = append(problems, fmt.Sprintf("quantity %q is not recognised", s.Quantity))
		// Unit membership is meaningless without a valid quantity.
		return problems
	}

	if !units.Valid(s.Quantity, s.SourceUnit) {
		problems = append(problems, fmt.Sprintf("source unit %q is not a recognised %s unit", s.SourceUnit, s.Quantity))
	}

	if s.DisplayUnit != nil && !units.Valid(s.Quantity, *s.DisplayUnit) {
		problems = append(problems, fmt.Sprintf("display unit %q is not a recognised %s unit", *s.DisplayUnit, s.Quantity))
	}

	if s.Precision != nil && !s.Precision.IsValid() {
		problems = append(problems, fmt.Sprintf("precision %q is not recognised", *s.Precision))
	}

	return problems
}

// GenerateSlug creates a URL-safe slug from a name.
func GenerateSlug(name string) string {
	// Convert to lowercase
	slug := strings.ToLower(name)

	// Replace spaces and underscores with hyphens
	slug = strings.ReplaceAll(slug, " ", "-")
	slug = strings.ReplaceAll(slug, "_", "-")

	// Remove any characters that aren't alphanumeric or hyphens
	var result strings.Builder
	for _, r := range slug {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' {
			result.WriteRune(r)
		}
	}
	slug = result.String()

	// Remove leading/trailing hyphens and collapse multiple hyphens
	slug = strings.Trim(slug, "-")
	for strings.Contains(slug, "--") {
		slug = strings.ReplaceAll(slug, "--", "-")
	}

	// Truncate if too long
	if len(slug) > maxSlugLength {
		slug = slug[:maxSlugLength]
		// Don't end with a hyphen
		slug = strings.TrimRight(slug, "-")
	}

	return slug
}

// GenerateID creates a new UUID for a sensor.
func GenerateID() string {
	return uuid.New().String()
}
