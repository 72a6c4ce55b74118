// Package llm provides the transport layer between the evaluation pipeline
// and the supported LLM providers. A provider implements the small CoreLLM
// interface; cross-cutting concerns like rate limiting, metrics, and
// timeouts compose around it as middleware.
package llm

import (
	"context"
	"fmt"
	"sort"
	"time"
	"unicode/utf8"
)

// CoreLLM is the minimal provider contract: one request in, content and
// token counts out. Middleware wraps this interface.
type CoreLLM interface {
	// DoRequest sends a prompt and returns the generated text along with the
	// input and output token counts reported (or estimated) by the provider.
	DoRequest(ctx context.Context, prompt string, opts map[string]any) (string, int, int, error)

	// GetModel returns the model identifier in use.
	GetModel() string
}

// Middleware wraps a CoreLLM with additional behavior.
type Middleware func(CoreLLM) CoreLLM

// Chain composes middlewares around a base CoreLLM. The first middleware in
// the list becomes the outermost wrapper.
func Chain(base CoreLLM, middlewares ...Middleware) CoreLLM {
	wrapped := base
	for i := len(middlewares) - 1; i >= 0; i-- {
		wrapped = middlewares[i](wrapped)
	}
	return wrapped
}

// ClientConfig carries everything needed to construct a provider.
type ClientConfig struct {
	// Provider selects the registered provider factory.
	Provider string

	// APIKey authenticates against the provider.
	APIKey string

	// Model is the provider-specific model identifier. Empty selects the
	// provider's default.
	Model string

	// BaseURL overrides the provider endpoint, for proxies and compatible
	// gateways. Empty uses the provider default.
	BaseURL string

	// Timeout bounds a single request at the HTTP layer where the SDK
	// supports it. Zero leaves the SDK default.
	Timeout time.Duration
}

// ProviderFactory constructs a CoreLLM from configuration.
type ProviderFactory func(config ClientConfig) (CoreLLM, error)

// providerFactories holds the registered factories. Registration happens in
// each provider's init, so importing the package is enough to make every
// provider available.
var providerFactories = make(map[string]ProviderFactory)

// RegisterProviderFactory registers a provider under its configuration name.
// Later registrations for the same name win.
func RegisterProviderFactory(name string, factory ProviderFactory) {
	providerFactories[name] = factory
}

// NewCoreLLM constructs the configured provider.
func NewCoreLLM(config ClientConfig) (CoreLLM, error) {
	factory, ok := providerFactories[config.Provider]
	if !ok {
		return nil, fmt.Errorf("%w: %q (registered: %v)",
			ErrUnknownProvider, config.Provider, registeredProviders())
	}
	return factory(config)
}

// registeredProviders lists the registered provider names sorted ascending.
func registeredProviders() []string {
	names := make([]string, 0, len(providerFactories))
	for name := range providerFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Client adapts a CoreLLM (usually a middleware chain) to the pipeline's
// LLMClient port, dropping the token counts that only the metrics middleware
// cares about.
type Client struct {
	core CoreLLM
}

// NewClient wraps a CoreLLM for use by the pipeline.
func NewClient(core CoreLLM) *Client { return &Client{core: core} }

// Complete implements ports.LLMClient.
func (c *Client) Complete(ctx context.Context, prompt string, options map[string]any) (string, error) {
	content, _, _, err := c.core.DoRequest(ctx, prompt, options)
	return content, err
}

// GetModel implements ports.LLMClient.
func (c *Client) GetModel() string { return c.core.GetModel() }

// estimateTokens approximates a token count when the provider omits usage
// data. Four characters per token is the usual rough heuristic for English
// text.
func estimateTokens(text string) int {
	if text == "" {
		return 0
	}
	n := utf8.RuneCountInString(text)
	tokens := n / 4
	if tokens == 0 {
		tokens = 1
	}
	return tokens
}
