// Copyright (c) 2026 Yomira. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package audit_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/crm/internal/system/audit"
)

/*
TestMaskMeta redacts secret-like keys at every depth and keeps the rest.
*/
func TestMaskMeta(t *testing.T) {
	input := map[string]any{
		"email":    "ada@crm.example",
		"Password": "hunter2",
		"body": map[string]any{
			"first_name":   "Ada",
			"new_password": "s3cret",
		},
		"items": []any{map[string]any{"api_key": "k-123"}},
		"  ":    "dropped",
	}

	masked := audit.MaskMeta(input)

	assert.Equal(t, "ada@crm.example", masked["email"])
	assert.Equal(t, "****", masked["Password"])
	assert.Equal(t, "Ada", masked["body"].(map[string]any)["first_name"])
	assert.Equal(t, "****", masked["body"].(map[string]any)["new_password"])
	assert.Equal(t, "****", masked["items"].([]any)[0].(map[string]any)["api_key"])
	assert.NotContains(t, masked, "  ")

	assert.Equal(t, "hunter2", input["Password"], "input must not be mutated")
	assert.NotNil(t, audit.MaskMeta(nil))
}
