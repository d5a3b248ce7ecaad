package cache

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/FACorreiaa/go-templui-session/internal/pkg/apiclient"
)

// UnauthorizedBehavior selects what a query does with a 401 response.
type UnauthorizedBehavior int

const (
	// ReturnNull turns a 401 into an absence, for "am I logged in" probes.
	ReturnNull UnauthorizedBehavior = iota
	// Throw reports a 401 as a *apiclient.RequestError like any other failure.
	Throw
)

func (b UnauthorizedBehavior) String() string {
	switch b {
	case ReturnNull:
		return "returnNull"
	case Throw:
		return "throw"
	default:
		return "unknown"
	}
}

// Requester sends a request without judging its status.
type Requester interface {
	Do(ctx context.Context, method, path string, body any) (*http.Response, error)
}

// NewQueryFn returns a QueryFunc that GETs the key's path through api.
func NewQueryFn(api Requester, on401 UnauthorizedBehavior) QueryFunc {
	return func(ctx context.Context, key Key) (json.RawMessage, error) {
		resp, err := api.Do(ctx, http.MethodGet, key.Path(), nil)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		if on401 == ReturnNull && resp.StatusCode == http.StatusUnauthorized {
			return nil, nil
		}
		if err := apiclient.CheckResponse(resp); err != nil {
			return nil, err
		}
		return apiclient.ReadJSON(resp)
	}
}
