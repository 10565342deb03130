package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonKeys(t *testing.T, v interface{}) map[string]json.RawMessage {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	var m map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(b, &m))
	return m
}

func TestAPITimestampsAreCamelCase(t *testing.T) {
	at := time.Date(2025, 5, 20, 12, 0, 0, 0, time.UTC)
	for name, v := range map[string]interface{}{
		"product":     Product{ID: "1", Price: decimal.NewFromInt(2850), CreatedAt: at},
		"order":       Order{ID: "ORD-000001", CreatedAt: at},
		"toast":       Toast{ID: "t", CreatedAt: at},
		"credentials": Credentials{Username: "admin", UpdatedAt: at},
	} {
		keys := jsonKeys(t, v)
		for k := range keys {
			assert.NotContains(t, k, "_", "%s key %s", name, k)
		}
	}
}

func TestProductPriceIsANumber(t *testing.T) {
	keys := jsonKeys(t, Product{ID: "1", Price: decimal.NewFromInt(2850)})
	assert.Equal(t, "2850", string(keys["price"]))
}

func TestToastAudienceIsNotSerialised(t *testing.T) {
	keys := jsonKeys(t, Toast{ID: "t", Audience: "admin"})
	assert.NotContains(t, keys, "audience")
	assert.NotContains(t, keys, "Audience")
}
