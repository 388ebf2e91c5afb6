package server

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/oauth2"
)

func stubExchange(token *oauth2.Token, err error) ExchangeFunc {
	return func(ctx context.Context, code string) (*oauth2.Token, error) {
		return token, err
	}
}

func TestOAuthHandler(t *testing.T) {
	t.Run("Successful Callback", func(t *testing.T) {
		handler := NewOAuthHandler(stubExchange(&oauth2.Token{AccessToken: "tok"}, nil), "state123")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=state123&code=abc", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}

		result := <-handler.Result()
		if result.Error() != nil {
			t.Fatalf("expected no error, got %v", result.Error())
		}
		if result.Token.AccessToken != "tok" {
			t.Errorf("unexpected token %+v", result.Token)
		}
	})

	t.Run("Invalid State", func(t *testing.T) {
		handler := NewOAuthHandler(stubExchange(nil, nil), "expected")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=wrong&code=abc", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if result := <-handler.Result(); result.Error() == nil {
			t.Error("expected state error")
		}
	})

	t.Run("Provider Error", func(t *testing.T) {
		handler := NewOAuthHandler(stubExchange(nil, nil), "state123")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=state123&error=access_denied&error_description=denied", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected 400, got %d", rec.Code)
		}
		if result := <-handler.Result(); result.Error() == nil {
			t.Error("expected authorization error")
		}
	})

	t.Run("Exchange Failure", func(t *testing.T) {
		handler := NewOAuthHandler(stubExchange(nil, fmt.Errorf("boom")), "state123")

		req := httptest.NewRequest(http.MethodGet, "/callback?state=state123&code=abc", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusInternalServerError {
			t.Errorf("expected 500, got %d", rec.Code)
		}
		if result := <-handler.Result(); result.Error() == nil {
			t.Error("expected exchange error")
		}
	})

	t.Run("Second Callback Rejected", func(t *testing.T) {
		handler := NewOAuthHandler(stubExchange(&oauth2.Token{AccessToken: "tok"}, nil), "state123")

		first := httptest.NewRequest(http.MethodGet, "/callback?state=state123&code=abc", nil)
		handler.ServeHTTP(httptest.NewRecorder(), first)

		second := httptest.NewRequest(http.MethodGet, "/callback?state=state123&code=def", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, second)

		if rec.Code != http.StatusBadRequest {
			t.Errorf("expected replay rejected with 400, got %d", rec.Code)
		}
	})
}

func TestBasicRouter(t *testing.T) {
	t.Run("Method Filtering", func(t *testing.T) {
		router := NewBasicRouter()
		router.Handle(http.MethodGet, "/ping", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/ping", nil))
		if rec.Code != http.StatusMethodNotAllowed {
			t.Errorf("expected 405 for wrong method, got %d", rec.Code)
		}

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("expected 200, got %d", rec.Code)
		}
	})

	t.Run("Middleware Order", func(t *testing.T) {
		router := NewBasicRouter()

		var order []string
		mw := func(name string) Middleware {
			return func(next http.Handler) http.Handler {
				return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
					order = append(order, name)
					next.ServeHTTP(w, r)
				})
			}
		}
		router.Use(mw("outer"), mw("inner"))
		router.Handle(http.MethodGet, "/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
		if len(order) != 2 || order[0] != "outer" || order[1] != "inner" {
			t.Errorf("unexpected middleware order %v", order)
		}
	})

	t.Run("Handler Routes", func(t *testing.T) {
		router := NewBasicRouter()
		handler := NewOAuthHandler(stubExchange(&oauth2.Token{AccessToken: "tok"}, nil), "s")
		router.Handler(handler)

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s&code=c", nil))
		if rec.Code != http.StatusOK {
			t.Errorf("expected handler registered on /callback, got %d", rec.Code)
		}
	})
}
