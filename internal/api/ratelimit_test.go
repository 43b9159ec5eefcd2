package api

import (
	"net/http"
	"testing"

	"storefront-client/internal/model"
)

func TestParseRateLimit(t *testing.T) {
	tests := []struct {
		name    string
		headers map[string]string
		want    *model.RateLimitInfo
	}{
		{
			name:    "structured dictionary",
			headers: map[string]string{"RateLimit": "limit=100, remaining=2, reset=45"},
			want:    &model.RateLimitInfo{Limit: 100, Remaining: 2, ResetSecs: 45},
		},
		{
			name:    "partial dictionary",
			headers: map[string]string{"RateLimit": "reset=10"},
			want:    &model.RateLimitInfo{ResetSecs: 10},
		},
		{
			name:    "retry-after fallback",
			headers: map[string]string{"Retry-After": "60"},
			want:    &model.RateLimitInfo{ResetSecs: 60},
		},
		{
			name:    "malformed dictionary falls back to retry-after",
			headers: map[string]string{"RateLimit": ";;;", "Retry-After": "5"},
			want:    &model.RateLimitInfo{ResetSecs: 5},
		},
		{
			name:    "http-date retry-after is ignored",
			headers: map[string]string{"Retry-After": "Wed, 21 Oct 2026 07:28:00 GMT"},
			want:    nil,
		},
		{
			name:    "no headers",
			headers: nil,
			want:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			for k, v := range tt.headers {
				h.Set(k, v)
			}

			got := parseRateLimit(h)
			if (got == nil) != (tt.want == nil) {
				t.Fatalf("parseRateLimit = %+v, want %+v", got, tt.want)
			}
			if got != nil && *got != *tt.want {
				t.Errorf("parseRateLimit = %+v, want %+v", got, tt.want)
			}
		})
	}
}
