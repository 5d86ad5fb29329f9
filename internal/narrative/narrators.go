package narrative

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/dshills/shipshape/internal/schema"
)

// Model narrates through a hosted language model. A response that fails
// validation gets one repair round trip.
type Model struct {
	Provider Provider
	Settings Settings
}

func (m Model) Narrate(ctx context.Context, req Request) (Response, error) {
	out, err := m.Provider.Generate(ctx, BuildPrompt(req), m.Settings)
	if err != nil {
		return Response{}, fmt.Errorf("narrative.Model: %s: %w", m.Provider.Name(), err)
	}
	resp, problems := decodeResponse(out)
	if len(problems) == 0 {
		return resp, nil
	}

	repaired, err := m.Provider.Generate(ctx, BuildRepair(out, problems), m.Settings)
	if err != nil {
		return Response{}, fmt.Errorf("narrative.Model: repair: %w", err)
	}
	resp, problems = decodeResponse(repaired)
	if len(problems) > 0 {
		return Response{}, fmt.Errorf("narrative.Model: invalid response after repair: %s", schema.Join(problems))
	}
	return resp, nil
}

// Service posts the request JSON to an external summarization endpoint and
// reads a Response back.
type Service struct {
	Endpoint string
	Client   *http.Client
}

func (s Service) Narrate(ctx context.Context, req Request) (Response, error) {
	if s.Endpoint == "" {
		return Response{}, errors.New("narrative.Service: no endpoint configured")
	}
	header := http.Header{}
	header.Set("Accept", "application/json")
	data, err := postJSON(ctx, s.Client, s.Endpoint, req, header)
	if err != nil {
		return Response{}, fmt.Errorf("narrative.Service: %w", err)
	}
	out, problems := decodeResponse(string(data))
	if len(problems) > 0 {
		return Response{}, fmt.Errorf("narrative.Service: %s", schema.Join(problems))
	}
	return out, nil
}
