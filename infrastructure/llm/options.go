package llm

// Option keys recognized in the DoRequest options map. Providers ignore keys
// they cannot express.
const (
	OptionModel       = "model"
	OptionSystem      = "system"
	OptionTemperature = "temperature"
	OptionMaxTokens   = "max_tokens"
)

// DefaultMaxTokens applies when the caller does not cap the response. The
// Anthropic API requires an explicit cap, so the zero value cannot pass
// through unchanged there.
const DefaultMaxTokens = 4096

// RequestOptions is the parsed, provider-neutral view of the options map.
type RequestOptions struct {
	Model       string
	System      string
	Temperature *float64
	MaxTokens   int
}

// ParseRequestOptions extracts the known option keys, falling back to the
// provider's configured model. Values of the wrong type are ignored.
func ParseRequestOptions(opts map[string]any, defaultModel string) RequestOptions {
	options := RequestOptions{Model: defaultModel}
	if opts == nil {
		return options
	}

	if model, ok := opts[OptionModel].(string); ok && model != "" {
		options.Model = model
	}
	if system, ok := opts[OptionSystem].(string); ok {
		options.System = system
	}
	if temp, ok := toFloat64(opts[OptionTemperature]); ok {
		options.Temperature = &temp
	}
	if maxTokens, ok := toInt(opts[OptionMaxTokens]); ok && maxTokens > 0 {
		options.MaxTokens = maxTokens
	}

	return options
}

// toFloat64 accepts the numeric types YAML and literal maps produce.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	}
	return 0, false
}

// clamp restricts a float64 value to a range.
func clamp(val, min, max float64) float64 {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
