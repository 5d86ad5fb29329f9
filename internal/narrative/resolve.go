package narrative

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"
)

// Provider names accepted by Resolve.
const (
	ProviderNone      = "none"
	ProviderAuto      = "auto"
	ProviderService   = "http"
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
)

// Options selects and configures a Narrator.
type Options struct {
	Provider string
	Endpoint string
	Model    string
	Timeout  time.Duration
	Settings Settings
}

// Resolve builds the Narrator named by o.Provider. ProviderNone yields a nil
// Narrator, which Summarize treats as "use the heuristic". ProviderAuto
// picks a hosted model from the model prefix or the API keys present in the
// environment, and falls back to none.
func Resolve(o Options) (Narrator, error) {
	client := &http.Client{Timeout: o.Timeout}
	settings := o.Settings
	settings.Model = strings.TrimPrefix(strings.TrimPrefix(o.Model, "anthropic:"), "openai:")

	name := strings.ToLower(strings.TrimSpace(o.Provider))
	if name == ProviderAuto || name == "" {
		name = detect(o.Model)
	}

	switch name {
	case ProviderNone:
		return nil, nil
	case ProviderService:
		if o.Endpoint == "" {
			return nil, errors.New("narrative.Resolve: http provider needs an endpoint")
		}
		return Service{Endpoint: o.Endpoint, Client: client}, nil
	case ProviderAnthropic:
		p, err := NewAnthropic(client)
		if err != nil {
			return nil, err
		}
		return Model{Provider: p, Settings: settings}, nil
	case ProviderOpenAI:
		p, err := NewOpenAI(client)
		if err != nil {
			return nil, err
		}
		return Model{Provider: p, Settings: settings}, nil
	default:
		return nil, fmt.Errorf("narrative.Resolve: unknown provider %q", o.Provider)
	}
}

func detect(model string) string {
	lower := strings.ToLower(model)
	switch {
	case strings.HasPrefix(lower, "anthropic:"), strings.HasPrefix(lower, "claude"):
		return ProviderAnthropic
	case strings.HasPrefix(lower, "openai:"), strings.HasPrefix(lower, "gpt"):
		return ProviderOpenAI
	}
	if os.Getenv(anthropicKeyEnv) != "" {
		return ProviderAnthropic
	}
	if os.Getenv(openaiKeyEnv) != "" {
		return ProviderOpenAI
	}
	return ProviderNone
}
