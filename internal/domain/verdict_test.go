package domain

import (
	"net/http"
	"testing"
)

func intPtr(v int) *int { return &v }

func failed(class ErrorClass, status *int) Attempt {
	return Attempt{Strategy: "AllOrigins", URL: "http://example.com/a.m3u8", Status: status, ErrorClass: class}
}

func TestClassifyVerdict(t *testing.T) {
	tests := []struct {
		name     string
		attempts []Attempt
		want     Verdict
	}{
		{
			name: "all not found means dead link",
			attempts: []Attempt{
				failed(ErrClassNotFound, intPtr(404)),
				failed(ErrClassNotFound, intPtr(410)),
				failed(ErrClassNotFound, intPtr(404)),
			},
			want: VerdictDeadLink,
		},
		{
			name: "all forbidden means forbidden",
			attempts: []Attempt{
				failed(ErrClassForbidden, intPtr(403)),
				failed(ErrClassForbidden, intPtr(451)),
			},
			want: VerdictForbidden,
		},
		{
			name: "no response at all means network error",
			attempts: []Attempt{
				failed(ErrClassTimeout, nil),
				failed(ErrClassNetwork, nil),
			},
			want: VerdictNetworkError,
		},
		{
			name: "policy attempt counts as no response",
			attempts: []Attempt{
				failed(ErrClassPolicy, nil),
				failed(ErrClassTimeout, nil),
			},
			want: VerdictNetworkError,
		},
		{
			name: "mixed failure classes are unknown",
			attempts: []Attempt{
				failed(ErrClassNotFound, intPtr(404)),
				failed(ErrClassForbidden, intPtr(403)),
			},
			want: VerdictUnknownError,
		},
		{
			name: "server error with status is unknown",
			attempts: []Attempt{
				failed(ErrClassHTTP, intPtr(500)),
			},
			want: VerdictUnknownError,
		},
		{
			name:     "no attempts is unknown",
			attempts: nil,
			want:     VerdictUnknownError,
		},
		{
			name: "any success short-circuits",
			attempts: []Attempt{
				failed(ErrClassNotFound, intPtr(404)),
				{Strategy: StrategyDirect, Success: true, Status: intPtr(200)},
			},
			want: VerdictSuccess,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyVerdict(tt.attempts); got != tt.want {
				t.Errorf("ClassifyVerdict() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestClassifyStatus(t *testing.T) {
	tests := []struct {
		status int
		want   ErrorClass
	}{
		{200, ErrClassNone},
		{302, ErrClassNone},
		{404, ErrClassNotFound},
		{410, ErrClassNotFound},
		{401, ErrClassForbidden},
		{403, ErrClassForbidden},
		{451, ErrClassForbidden},
		{500, ErrClassHTTP},
		{429, ErrClassHTTP},
	}

	for _, tt := range tests {
		if got := ClassifyStatus(tt.status); got != tt.want {
			t.Errorf("ClassifyStatus(%d) = %v, want %v", tt.status, got, tt.want)
		}
	}
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"nil", nil, ErrClassNone},
		{"timeout transport", &TransportError{URL: "http://x", Timeout: true, Err: http.ErrHandlerTimeout}, ErrClassTimeout},
		{"plain transport", &TransportError{URL: "http://x", Err: http.ErrServerClosed}, ErrClassNetwork},
		{"policy", &PolicyError{URL: "http://x", Reason: "mixed content"}, ErrClassPolicy},
		{"http not found", &HTTPError{URL: "http://x", Status: 404}, ErrClassNotFound},
		{"http forbidden", &HTTPError{URL: "http://x", Status: 403}, ErrClassForbidden},
		{"http other", &HTTPError{URL: "http://x", Status: 502}, ErrClassHTTP},
		{"unknown", http.ErrBodyNotAllowed, ErrClassUnknown},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestRecommendCoversAllVerdicts(t *testing.T) {
	for _, v := range []Verdict{VerdictSuccess, VerdictDeadLink, VerdictForbidden, VerdictNetworkError, VerdictUnknownError} {
		if Recommend(v) == "" {
			t.Errorf("Recommend(%v) returned empty string", v)
		}
	}
}

func TestProxyBuildURL(t *testing.T) {
	tests := []struct {
		name   string
		proxy  Proxy
		target string
		want   string
	}{
		{
			name:   "placeholder template encodes target",
			proxy:  Proxy{Name: "AllOrigins", URLTemplate: "https://api.allorigins.win/raw?url={url}"},
			target: "http://example.com/a.m3u8?token=1&x=2",
			want:   "https://api.allorigins.win/raw?url=http%3A%2F%2Fexample.com%2Fa.m3u8%3Ftoken%3D1%26x%3D2",
		},
		{
			name:   "prefix template appends raw target",
			proxy:  Proxy{Name: "CorsProxy", URLTemplate: "https://corsproxy.io/?"},
			target: "http://example.com/a.m3u8",
			want:   "https://corsproxy.io/?http://example.com/a.m3u8",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.proxy.BuildURL(tt.target); got != tt.want {
				t.Errorf("BuildURL() = %q, want %q", got, tt.want)
			}
		})
	}
}
