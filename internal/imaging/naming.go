// Package imaging names and encodes generated chart images.
package imaging

import (
	"fmt"
	"strings"
	"time"
)

// catalog is the fixed set of analysis-type labels used for image names.
// Order matters: the index of an image within its batch selects a label
// by position modulo the catalog size.
var catalog = [10]string{
	"Data Overview",
	"Distribution Analysis",
	"Correlation Analysis",
	"Trend Analysis",
	"Comparison Chart",
	"Time Series",
	"Category Breakdown",
	"Outlier Detection",
	"Regression Analysis",
	"Summary Statistics",
}

// Catalog returns the analysis-type label catalog
func Catalog() []string {
	return catalog[:]
}

// Name derives a display name for the image at index within a batch.
// When the hint mentions a catalog label, that label wins; otherwise the
// index selects one. The timestamp plus the index make names unique
// within a batch, and the function is pure: same inputs, same name.
func Name(index int, hint string, t time.Time) string {
	label := catalog[index%len(catalog)]

	if hint != "" {
		lowered := strings.ToLower(hint)
		for _, candidate := range catalog {
			if strings.Contains(lowered, strings.ToLower(candidate)) {
				label = candidate
				break
			}
		}
	}

	return fmt.Sprintf("%s - %s_%d", label, t.Format("20060102_150405"), index)
}
