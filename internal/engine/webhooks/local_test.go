package webhooks

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"leadhook/internal/engine/mapping"
)

func TestBuildLead(t *testing.T) {
	lead := buildLead(mapping.LeadData{
		"name":     "  João Silva ",
		"phone":    json.Number("5511999999999"),
		"value":    json.Number("1500.50"),
		"priority": "high",
		"status":   "new",
		"source":   "facebook",
		"campaign": "spring",
	})

	assert.Equal(t, "João Silva", lead.Name)
	assert.Equal(t, "5511999999999", lead.Phone)
	require.NotNil(t, lead.Value)
	assert.Equal(t, 1500.5, *lead.Value)
	assert.Equal(t, "high", lead.Priority)
	assert.Equal(t, map[string]any{"campaign": "spring"}, lead.CustomFields)
}

func TestBuildLead_Fallbacks(t *testing.T) {
	lead := buildLead(mapping.LeadData{
		"email":  "ana@example.com",
		"value":  "a lot",
		"status": "new",
	})

	assert.Equal(t, "ana@example.com", lead.Name)
	assert.Nil(t, lead.Value)
	assert.Equal(t, "a lot", lead.CustomFields["value"])
	assert.Equal(t, "medium", lead.Priority)

	assert.Equal(t, "Webhook lead", buildLead(mapping.LeadData{}).Name)
}

func TestBuildLead_NonFiniteValueKeptAsCustomField(t *testing.T) {
	for _, raw := range []string{"NaN", "Inf", "-Infinity", "+inf"} {
		t.Run(raw, func(t *testing.T) {
			lead := buildLead(mapping.LeadData{"name": "Ana", "value": raw})

			assert.Nil(t, lead.Value)
			assert.Equal(t, raw, lead.CustomFields["value"])
		})
	}
}
