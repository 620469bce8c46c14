package tocsync

import (
	"context"
	"errors"

	"github.com/hazyhaar/pagetoc/kit"
	"github.com/hazyhaar/pagetoc/tocsync/prefs"
)

// ErrEmptyID is returned when a navigation request names no heading.
var ErrEmptyID = errors.New("tocsync: heading id is required")

// NavigateRequest asks the engine to scroll to a heading.
type NavigateRequest struct {
	ID string `json:"id"`
}

// NavigateResponse reports whether the heading still resolved.
type NavigateResponse struct {
	ID    string `json:"id"`
	Found bool   `json:"found"`
}

// CornerResponse carries the corner after a cycle.
type CornerResponse struct {
	Corner prefs.Corner `json:"corner"`
}

// CollapseResponse carries the collapsed flag after a toggle.
type CollapseResponse struct {
	Collapsed bool `json:"collapsed"`
}

// endpoints are shared by the HTTP and MCP surfaces.
type endpoints struct {
	list, navigate, corner, collapse, markdown kit.Endpoint
}

func (e *Engine) endpoints() endpoints {
	wrap := func(name string, ep kit.Endpoint) kit.Endpoint {
		return kit.Chain(kit.Logging(e.logger, name))(ep)
	}
	return endpoints{
		list: wrap("list", func(_ context.Context, _ any) (any, error) {
			return e.State(), nil
		}),
		navigate: wrap("navigate", func(ctx context.Context, req any) (any, error) {
			r := req.(*NavigateRequest)
			if r.ID == "" {
				return nil, ErrEmptyID
			}
			found, err := e.Navigate(ctx, r.ID)
			if err != nil {
				return nil, err
			}
			return &NavigateResponse{ID: r.ID, Found: found}, nil
		}),
		corner: wrap("corner", func(ctx context.Context, _ any) (any, error) {
			c, err := e.CycleCorner(ctx)
			if err != nil {
				return nil, err
			}
			return &CornerResponse{Corner: c}, nil
		}),
		collapse: wrap("collapse", func(ctx context.Context, _ any) (any, error) {
			collapsed, err := e.ToggleCollapse(ctx)
			if err != nil {
				return nil, err
			}
			return &CollapseResponse{Collapsed: collapsed}, nil
		}),
		markdown: wrap("markdown", func(_ context.Context, _ any) (any, error) {
			return e.State().Markdown()
		}),
	}
}
