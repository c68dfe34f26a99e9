package renderqueue

import (
	"fmt"

	"renderq/internal/textutil"
)

// Quality is a render fidelity tier.
type Quality string

const (
	QualityLow    Quality = "LOW"
	QualityMedium Quality = "MEDIUM"
	QualityHigh   Quality = "HIGH"
	QualityFinal  Quality = "FINAL"
)

// Qualities lists every tier in per-quality array order.
var Qualities = []Quality{QualityLow, QualityMedium, QualityHigh, QualityFinal}

// ParseQuality accepts a tier name in any case.
func ParseQuality(value string) (Quality, error) {
	for _, q := range Qualities {
		if textutil.EqualFold(value, string(q)) {
			return q, nil
		}
	}
	return "", fmt.Errorf("unknown quality %q (want LOW, MEDIUM, HIGH or FINAL)", value)
}

// Index returns the position of q in per-quality setting arrays. Unknown
// values map to FINAL.
func (q Quality) Index() int {
	for i, candidate := range Qualities {
		if candidate == q {
			return i
		}
	}
	return len(Qualities) - 1
}

func (q Quality) String() string { return string(q) }
