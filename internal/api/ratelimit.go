package api

import (
	"net/http"
	"strconv"

	"github.com/dunglas/httpsfv"

	"storefront-client/internal/model"
)

// parseRateLimit extracts throttle state from a 429 response. The backend's
// CDN sends the IETF draft RateLimit header as an RFC 8941 dictionary:
//
//	RateLimit: limit=100, remaining=0, reset=30
//
// Older edges send only Retry-After; that fills ResetSecs. Returns nil when
// neither header yields anything usable.
func parseRateLimit(h http.Header) *model.RateLimitInfo {
	if raw := h.Get("RateLimit"); raw != "" {
		if info := parseRateLimitDict(raw); info != nil {
			return info
		}
	}

	if retry := h.Get("Retry-After"); retry != "" {
		if secs, err := strconv.ParseInt(retry, 10, 64); err == nil {
			return &model.RateLimitInfo{ResetSecs: secs}
		}
	}
	return nil
}

func parseRateLimitDict(raw string) *model.RateLimitInfo {
	dict, err := httpsfv.UnmarshalDictionary([]string{raw})
	if err != nil {
		return nil
	}

	info := &model.RateLimitInfo{}
	found := false
	for key, dst := range map[string]*int64{
		"limit":     &info.Limit,
		"remaining": &info.Remaining,
		"reset":     &info.ResetSecs,
	} {
		member, ok := dict.Get(key)
		if !ok {
			continue
		}
		item, ok := member.(httpsfv.Item)
		if !ok {
			continue
		}
		if v, ok := item.Value.(int64); ok {
			*dst = v
			found = true
		}
	}
	if !found {
		return nil
	}
	return info
}
