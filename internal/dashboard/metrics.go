package dashboard

import (
	"regexp"
	"sort"
	"strconv"
)

// Metric name patterns produced by the standard VM metrics handler.
var (
	egressPattern = regexp.MustCompile(`network-egress`)
	cachePattern  = regexp.MustCompile(`memory-cache`)
	cpuPattern    = regexp.MustCompile(`^avg-util-cpu(\d+)-60sec$`)
)

// CPUUtil is the utilization of a single CPU over the sampling window.
type CPUUtil struct {
	Index   int     `json:"index"`
	Percent float64 `json:"percent"`
}

// Summary is the derived view the dashboard renders: well-known metrics
// extracted from a free-form payload. Fields are nil when the payload does
// not carry them; unknown keys are simply not summarized.
type Summary struct {
	NetworkEgressPercent *float64  `json:"network_egress_percent,omitempty"`
	MemoryCachePercent   *float64  `json:"memory_cache_percent,omitempty"`
	CPUs                 []CPUUtil `json:"cpus,omitempty"`
}

// Summarize extracts the well-known metrics from a decoded output payload.
func Summarize(data map[string]any) Summary {
	s := Summary{
		NetworkEgressPercent: findMetric(data, egressPattern, "percent-network-egress"),
		MemoryCachePercent:   findMetric(data, cachePattern, "percent-memory-cache"),
	}

	for key, value := range data {
		m := cpuPattern.FindStringSubmatch(key)
		if m == nil {
			continue
		}
		idx, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if pct, ok := toFloat(value); ok {
			s.CPUs = append(s.CPUs, CPUUtil{Index: idx, Percent: pct})
		}
	}
	sort.Slice(s.CPUs, func(i, j int) bool { return s.CPUs[i].Index < s.CPUs[j].Index })

	return s
}

// findMetric returns the first numeric value whose key matches pattern,
// falling back to exact key lookups.
func findMetric(data map[string]any, pattern *regexp.Regexp, fallbackKeys ...string) *float64 {
	// Deterministic scan order; map iteration is randomized.
	keys := make([]string, 0, len(data))
	for k := range data {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		if !pattern.MatchString(k) {
			continue
		}
		if v, ok := toFloat(data[k]); ok {
			return &v
		}
	}
	for _, k := range fallbackKeys {
		if raw, ok := data[k]; ok {
			if v, ok := toFloat(raw); ok {
				return &v
			}
		}
	}
	return nil
}

// toFloat accepts the numeric shapes a JSON payload can carry, including
// numbers serialized as strings.
func toFloat(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case int:
		return float64(val), true
	case string:
		f, err := strconv.ParseFloat(val, 64)
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}
