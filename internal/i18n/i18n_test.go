package i18n

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTranslate(t *testing.T) {
	require.NoError(t, Initialize())

	assert.Equal(t, "Payment not found", T("en", KeyPaymentNotFound))
	assert.Equal(t, "找不到付款紀錄", T("zh_TW", KeyPaymentNotFound))
	assert.Equal(t, "Invalid brand identifier", T("en", KeyCatalogInvalidID, "brand"))
}

func TestTranslateFallsBackToDefault(t *testing.T) {
	require.NoError(t, Initialize())

	assert.Equal(t, "Brand not found", T("fr", KeyBrandNotFound))
	assert.Equal(t, "no.such.key", T("en", "no.such.key"))
}

func TestSupportedLanguages(t *testing.T) {
	require.NoError(t, Initialize())

	assert.ElementsMatch(t, []string{"en", "zh_TW"}, GetSupportedLanguages())
}
