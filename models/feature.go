package models

import (
	"fmt"
	"slices"
	"strings"
)

// Feature is an optional capability group. The numeric value is the boot order.
type Feature int

const (
	FeatureOTEL Feature = iota
	FeatureMetrics
	FeatureWeb3
	FeatureBot
)

var featureNames = map[Feature]string{
	FeatureOTEL:    "otel",
	FeatureMetrics: "metrics",
	FeatureWeb3:    "web3",
	FeatureBot:     "bot",
}

// AllFeatures lists every feature in boot order.
func AllFeatures() []Feature {
	return []Feature{FeatureOTEL, FeatureMetrics, FeatureWeb3, FeatureBot}
}

func (f Feature) String() string {
	if name, ok := featureNames[f]; ok {
		return name
	}
	return fmt.Sprintf("feature(%d)", int(f))
}

// ComposeFile is the compose file (relative to the project's docker directory)
// that brings up this feature's container group.
func (f Feature) ComposeFile() string {
	return fmt.Sprintf("docker-compose-%s.yml", f.String())
}

// ParseFeature accepts the feature names used on the command line and in config.
func ParseFeature(s string) (Feature, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "otel", "tracing":
		return FeatureOTEL, nil
	case "metrics":
		return FeatureMetrics, nil
	case "web3", "blockchain":
		return FeatureWeb3, nil
	case "bot":
		return FeatureBot, nil
	default:
		return 0, fmt.Errorf("unknown feature %q", s)
	}
}

// ParseFeatures parses every name and returns the deduplicated, sorted set.
func ParseFeatures(names []string) ([]Feature, error) {
	out := make([]Feature, 0, len(names))
	for _, n := range names {
		if strings.TrimSpace(n) == "" {
			continue
		}
		f, err := ParseFeature(n)
		if err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return SortFeatures(out), nil
}

// SortFeatures returns a sorted copy of features with duplicates removed.
func SortFeatures(features []Feature) []Feature {
	out := slices.Clone(features)
	slices.Sort(out)
	return slices.Compact(out)
}

// HasFeature reports whether f is in features.
func HasFeature(features []Feature, f Feature) bool {
	return slices.Contains(features, f)
}
