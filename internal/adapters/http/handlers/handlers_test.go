package handlers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reybrally/cart-service/internal/adapters/cache"
	"github.com/reybrally/cart-service/internal/adapters/http/handlers"
	"github.com/reybrally/cart-service/internal/adapters/memlog"
	"github.com/reybrally/cart-service/internal/app/carts"
	"github.com/reybrally/cart-service/internal/app/commands"
	"github.com/reybrally/cart-service/internal/services"
)

type app struct {
	log    *memlog.Log
	reg    *carts.Registry
	router *carts.Router
	srv    *httptest.Server
}

func newApp(t *testing.T, handlerList func(*memlog.Log) []commands.Handler) *app {
	t.Helper()
	l := memlog.New()
	if handlerList == nil {
		handlerList = func(l *memlog.Log) []commands.Handler {
			return []commands.Handler{
				commands.NewProductAddHandler(l, commands.HandlerConfig{Producer: "test"}),
				commands.NewProductRemoveHandler(l, commands.HandlerConfig{Producer: "test"}),
			}
		}
	}
	reg := carts.NewRegistry(nil)
	svc := services.NewCartService(commands.NewBus(handlerList(l)...), reg)
	a := &app{
		log:    l,
		reg:    reg,
		router: carts.NewRouter(l, reg, carts.RouterConfig{Dedupe: cache.NewSeenLRU(100)}),
		srv:    httptest.NewServer(handlers.Routes(handlers.NewCartHandlers(svc, "testing"), time.Second)),
	}
	t.Cleanup(a.srv.Close)
	return a
}

func (a *app) run(t *testing.T) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		_ = a.router.Run(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	wctx, wcancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer wcancel()
	require.NoError(t, a.reg.WaitLive(wctx))
}

func do(t *testing.T, method, url, body string) (*http.Response, map[string]any) {
	t.Helper()
	req, err := http.NewRequest(method, url, strings.NewReader(body))
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

func itemNames(t *testing.T, body map[string]any) []string {
	t.Helper()
	raw, ok := body["items"].([]any)
	require.True(t, ok, "items missing: %v", body)
	out := make([]string, 0, len(raw))
	for _, it := range raw {
		out = append(out, it.(map[string]any)["name"].(string))
	}
	return out
}

func TestAddThenGetEventuallyShowsProduct(t *testing.T) {
	a := newApp(t, nil)
	a.run(t)

	resp, body := do(t, http.MethodPost, a.srv.URL+"/cart/7/product/1", `{"name":"widget"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]any{"message": "done", "cartId": "7"}, body)

	require.Eventually(t, func() bool {
		_, body := do(t, http.MethodGet, a.srv.URL+"/cart/7", "")
		return assert.ObjectsAreEqual([]string{"widget"}, itemNames(t, body))
	}, 2*time.Second, 10*time.Millisecond)

	_, body = do(t, http.MethodGet, a.srv.URL+"/cart/7", "")
	assert.Equal(t, "live", body["state"])
	assert.Equal(t, "7", body["cartId"])
}

func TestAddWithoutBodyUsesPlaceholder(t *testing.T) {
	a := newApp(t, nil)
	a.run(t)

	resp, _ := do(t, http.MethodPost, a.srv.URL+"/cart/3/product/9", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = do(t, http.MethodPost, a.srv.URL+"/cart/3/product/10/", `{"name":"second"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	require.Eventually(t, func() bool {
		_, body := do(t, http.MethodGet, a.srv.URL+"/cart/3", "")
		return assert.ObjectsAreEqual([]string{"testing", "second"}, itemNames(t, body))
	}, 2*time.Second, 10*time.Millisecond)
}

func TestGetUnknownCartIsEmptyNotError(t *testing.T) {
	a := newApp(t, nil)
	a.run(t)

	resp, body := do(t, http.MethodGet, a.srv.URL+"/cart/999", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, itemNames(t, body))
	assert.Equal(t, "absent", body["state"])
}

func TestReadyReflectsReplay(t *testing.T) {
	a := newApp(t, nil)

	resp, _ := do(t, http.MethodGet, a.srv.URL+"/ready", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	a.run(t)
	resp, _ = do(t, http.MethodGet, a.srv.URL+"/ready", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := do(t, http.MethodGet, a.srv.URL+"/health", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestPublishFailureIsRetryable(t *testing.T) {
	a := newApp(t, nil)
	require.NoError(t, a.log.Close())

	resp, body := do(t, http.MethodPost, a.srv.URL+"/cart/1/product/1", "")
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "1", resp.Header.Get("Retry-After"))
	assert.NotEmpty(t, body["error"])

	resp, body = do(t, http.MethodGet, a.srv.URL+"/cart/1", "")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "absent", body["state"])
	assert.Empty(t, itemNames(t, body))
}

func TestUnhandledCommandIsReported(t *testing.T) {
	a := newApp(t, func(l *memlog.Log) []commands.Handler {
		return []commands.Handler{commands.NewProductAddHandler(l, commands.HandlerConfig{})}
	})

	resp, body := do(t, http.MethodDelete, a.srv.URL+"/cart/1/product/1", "")
	assert.Equal(t, http.StatusNotImplemented, resp.StatusCode)
	assert.Contains(t, body["error"], "PRODUCT_REMOVE")
}

func TestMalformedBodyIsBadRequest(t *testing.T) {
	a := newApp(t, nil)

	resp, _ := do(t, http.MethodPost, a.srv.URL+"/cart/1/product/1", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 0, a.reg.Len())
}

func TestBlankCartIDIsBadRequest(t *testing.T) {
	a := newApp(t, nil)

	resp, body := do(t, http.MethodGet, a.srv.URL+"/cart/%20", "")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, services.ErrInvalidCartID.Error(), body["error"])
}
