// Package subjects serves the subject list for a year and branch.
package subjects

import (
	_ "embed"
	"fmt"
	"slices"

	"gopkg.in/yaml.v3"
)

//go:embed catalogue.yaml
var catalogueYAML []byte

// Catalogue maps year to branch to subjects.
type Catalogue map[string]map[string][]string

// Parse decodes a YAML catalogue.
func Parse(data []byte) (Catalogue, error) {
	var c Catalogue
	if err := yaml.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("parse subject catalogue: %w", err)
	}
	return c, nil
}

// Default returns the embedded catalogue.
func Default() Catalogue {
	c, err := Parse(catalogueYAML)
	if err != nil {
		panic(err)
	}
	return c
}

// Subjects returns the subjects for year and branch, or a single
// "No data for <year> <branch>" entry when none are listed.
func (c Catalogue) Subjects(year, branch string) []string {
	if s := c[year][branch]; len(s) > 0 {
		return slices.Clone(s)
	}
	return []string{fmt.Sprintf("No data for %s %s", year, branch)}
}

// Years returns the catalogue years in sorted order.
func (c Catalogue) Years() []string {
	years := make([]string, 0, len(c))
	for y := range c {
		years = append(years, y)
	}
	slices.Sort(years)
	return years
}
