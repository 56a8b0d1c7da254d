// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package audit

import "strings"

const maskToken = "****"

// secretMarkers are matched case-insensitively against meta keys.
var secretMarkers = []string{"password", "token", "secret", "cookie", "authorization", "apikey", "api_key", "hash"}

// MaskMeta returns a copy of meta where every value stored under a secret-like
// key is replaced by a fixed mask. Nested objects and arrays are walked.
// A nil or empty input yields an empty, non-nil map.
func MaskMeta(meta map[string]any) map[string]any {
	masked := make(map[string]any, len(meta))
	for key, value := range meta {
		trimmedKey := strings.TrimSpace(key)
		if trimmedKey == "" {
			continue
		}

		if isSecretKey(trimmedKey) {
			masked[trimmedKey] = maskToken
			continue
		}
		masked[trimmedKey] = maskValue(value)
	}
	return masked
}

func maskValue(value any) any {
	switch cast := value.(type) {
	case map[string]any:
		return MaskMeta(cast)
	case []any:
		out := make([]any, 0, len(cast))
		for _, item := range cast {
			out = append(out, maskValue(item))
		}
		return out
	default:
		return value
	}
}

func isSecretKey(key string) bool {
	lower := strings.ToLower(key)
	for _, marker := range secretMarkers {
		if strings.Contains(lower, marker) {
			return true
		}
	}
	return false
}
