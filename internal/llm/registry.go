package llm

import "fmt"

// ProviderFactory builds one provider instance. Factories are registered
// under the name the AI_PROVIDER configuration selects.
type ProviderFactory func() (Provider, error)

var providers = make(map[string]ProviderFactory)

// RegisterProvider makes a provider selectable by name. Provider packages
// call this from init, so a blank import is enough to wire one in.
func RegisterProvider(name string, factory ProviderFactory) {
	providers[name] = factory
}

// NewProvider instantiates the named provider.
func NewProvider(name string) (Provider, error) {
	factory, ok := providers[name]
	if !ok {
		return nil, fmt.Errorf("unsupported provider: %s", name)
	}
	return factory()
}
