package handlers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/jingjai-backend/internal/apperrors"
)

func TestGooglePayToken(t *testing.T) {
	token, err := googlePayToken(json.RawMessage(`" tok_visa "`))
	require.NoError(t, err)
	assert.Equal(t, "tok_visa", token)

	token, err = googlePayToken(json.RawMessage(`{
		"apiVersion": 2,
		"paymentMethodData": {
			"type": "CARD",
			"tokenizationData": {"type": "PAYMENT_GATEWAY", "token": "{\"id\":\"tok_1\"}"}
		}
	}`))
	require.NoError(t, err)
	assert.Equal(t, `{"id":"tok_1"}`, token)

	for _, raw := range []string{`{"paymentMethodData":{}}`, `42`, `[1,2]`} {
		_, err := googlePayToken(json.RawMessage(raw))
		assert.True(t, apperrors.Is(err, apperrors.KindValidation), raw)
	}
}
