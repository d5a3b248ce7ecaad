package cache

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FACorreiaa/go-templui-session/internal/pkg/apiclient"
)

func newAPI(t *testing.T, status int, body string) *apiclient.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	api, err := apiclient.New(apiclient.Config{BaseURL: srv.URL})
	require.NoError(t, err)
	return api
}

func TestQueryFnUnauthorized(t *testing.T) {
	ctx := context.Background()

	t.Run("returnNull yields absence", func(t *testing.T) {
		fn := NewQueryFn(newAPI(t, http.StatusUnauthorized, `{"message":"Not authenticated"}`), ReturnNull)
		data, err := fn(ctx, sessionKey)
		require.NoError(t, err)
		assert.Nil(t, data)
	})

	t.Run("throw yields RequestError", func(t *testing.T) {
		fn := NewQueryFn(newAPI(t, http.StatusUnauthorized, `{"message":"Not authenticated"}`), Throw)
		_, err := fn(ctx, sessionKey)
		require.Error(t, err)

		var reqErr *apiclient.RequestError
		require.ErrorAs(t, err, &reqErr)
		assert.Equal(t, http.StatusUnauthorized, reqErr.Status)
		assert.Equal(t, `{"message":"Not authenticated"}`, reqErr.Message)
	})
}

func TestQueryFnOtherFailures(t *testing.T) {
	fn := NewQueryFn(newAPI(t, http.StatusInternalServerError, ""), ReturnNull)
	_, err := fn(context.Background(), sessionKey)
	require.Error(t, err)

	var reqErr *apiclient.RequestError
	require.ErrorAs(t, err, &reqErr)
	assert.Equal(t, "500 Internal Server Error", reqErr.Message)
}

func TestQueryFnSuccess(t *testing.T) {
	fn := NewQueryFn(newAPI(t, http.StatusOK, `{"user":{"role":"admin"},"member":null}`), Throw)
	data, err := fn(context.Background(), sessionKey)
	require.NoError(t, err)
	assert.JSONEq(t, `{"user":{"role":"admin"},"member":null}`, string(data))
}

func TestUnauthorizedBehaviorString(t *testing.T) {
	assert.Equal(t, "returnNull", ReturnNull.String())
	assert.Equal(t, "throw", Throw.String())
}
