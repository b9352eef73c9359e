package executor

import (
	"net/http"
	"testing"
)

func TestNormalizeMethod(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{name: "empty defaults to GET", raw: "", want: http.MethodGet},
		{name: "lowercase post", raw: "post", want: http.MethodPost},
		{name: "mixed case", raw: "PaTcH", want: http.MethodPatch},
		{name: "padded", raw: "  delete ", want: http.MethodDelete},
		{name: "put", raw: "PUT", want: http.MethodPut},
		{name: "unsupported falls back", raw: "BREW", want: http.MethodGet},
		{name: "head not allowed", raw: "HEAD", want: http.MethodGet},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeMethod(tt.raw); got != tt.want {
				t.Errorf("normalizeMethod(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestMethodAllowsBody(t *testing.T) {
	allows := map[string]bool{
		http.MethodGet:    false,
		http.MethodPost:   true,
		http.MethodPut:    true,
		http.MethodPatch:  true,
		http.MethodDelete: false,
	}
	for method, want := range allows {
		if got := methodAllowsBody(method); got != want {
			t.Errorf("methodAllowsBody(%q) = %v, want %v", method, got, want)
		}
	}
}

func TestBuildHeaders(t *testing.T) {
	tests := []struct {
		name        string
		method      string
		contentType string
		extraJSON   string
		want        map[string]string
	}{
		{
			name:        "scalars stringified alongside content type",
			method:      http.MethodPost,
			contentType: "application/xml",
			extraJSON:   `{"Accept":"application/json","X-Count":3}`,
			want: map[string]string{
				"Content-Type": "application/xml",
				"Accept":       "application/json",
				"X-Count":      "3",
			},
		},
		{
			name:        "content type skipped for GET",
			method:      http.MethodGet,
			contentType: "application/json",
			extraJSON:   `{"Accept":"text/plain"}`,
			want:        map[string]string{"Accept": "text/plain"},
		},
		{
			name:        "extra headers win over content type setting",
			method:      http.MethodPut,
			contentType: "text/plain",
			extraJSON:   `{"Content-Type":"application/json"}`,
			want:        map[string]string{"Content-Type": "application/json"},
		},
		{
			name:        "malformed json ignored",
			method:      http.MethodPost,
			contentType: "application/json",
			extraJSON:   `{"Accept": nope}`,
			want:        map[string]string{"Content-Type": "application/json"},
		},
		{
			name:        "non-object json ignored",
			method:      http.MethodPost,
			contentType: "",
			extraJSON:   `[1, 2, 3]`,
			want:        map[string]string{},
		},
		{
			name:        "booleans and nested values",
			method:      http.MethodPost,
			contentType: "",
			extraJSON:   `{"X-Flag":true,"X-Meta":{"a":1},"X-List":[1,"b"]}`,
			want: map[string]string{
				"X-Flag": "true",
				"X-Meta": `{"a":1}`,
				"X-List": `[1,"b"]`,
			},
		},
		{
			name:        "fractional numbers keep their digits",
			method:      http.MethodPost,
			contentType: "",
			extraJSON:   `{"X-Rate":2.5}`,
			want:        map[string]string{"X-Rate": "2.5"},
		},
		{
			name:        "empty extra",
			method:      http.MethodPost,
			contentType: "application/json",
			extraJSON:   "",
			want:        map[string]string{"Content-Type": "application/json"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildHeaders(tt.method, tt.contentType, tt.extraJSON)
			if len(got) != len(tt.want) {
				t.Fatalf("buildHeaders() = %v, want %v", got, tt.want)
			}
			for name, want := range tt.want {
				if got[name] != want {
					t.Errorf("header %q = %q, want %q", name, got[name], want)
				}
			}
		})
	}
}

func TestLoggableContentType(t *testing.T) {
	tests := []struct {
		contentType string
		want        bool
	}{
		{contentType: "", want: true},
		{contentType: "text/plain", want: true},
		{contentType: "text/html; charset=utf-8", want: true},
		{contentType: "application/json", want: true},
		{contentType: "application/json; charset=utf-8", want: true},
		{contentType: "application/xml", want: true},
		{contentType: "application/problem+json", want: true},
		{contentType: "application/x-www-form-urlencoded", want: true},
		{contentType: "image/jpeg", want: false},
		{contentType: "application/octet-stream", want: false},
		{contentType: "video/mp4", want: false},
	}

	for _, tt := range tests {
		if got := loggableContentType(tt.contentType); got != tt.want {
			t.Errorf("loggableContentType(%q) = %v, want %v", tt.contentType, got, tt.want)
		}
	}
}
