package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

// mockHandler is a simple handler for testing
func mockHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("success"))
}

func TestAuth(t *testing.T) {
	tests := []struct {
		name   string
		token  string
		method string
		header string
		want   int
	}{
		{"valid token", "secret", http.MethodPost, "Bearer secret", http.StatusOK},
		{"wrong token", "secret", http.MethodPost, "Bearer wrong", http.StatusUnauthorized},
		{"token prefix only", "secret", http.MethodPost, "Bearer secretextra", http.StatusUnauthorized},
		{"missing header", "secret", http.MethodPost, "", http.StatusUnauthorized},
		{"not bearer", "secret", http.MethodPost, "Basic secret", http.StatusUnauthorized},
		{"GET rejected", "secret", http.MethodGet, "Bearer secret", http.StatusMethodNotAllowed},
		{"auth disabled", "", http.MethodPost, "", http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := Auth(tt.token)(http.HandlerFunc(mockHandler))

			req := httptest.NewRequest(tt.method, "/refresh", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			if w.Code != tt.want {
				t.Errorf("Expected status %d, got %d", tt.want, w.Code)
			}
			if tt.want == http.StatusOK && w.Body.String() != "success" {
				t.Errorf("Expected 'success', got '%s'", w.Body.String())
			}
		})
	}
}
