package quality

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func goodContent() string {
	sentence := "The measurement campaign collected data across several sites over two years. "
	return strings.Repeat(sentence, 30)
}

func TestValidateAcceptsReasonableContent(t *testing.T) {
	v := NewValidator(nil)
	result, err := v.ValidateContent(context.Background(), goodContent(), nil)
	require.NoError(t, err)

	assert.True(t, result.Passed)
	assert.GreaterOrEqual(t, result.Score, 0.9)
	assert.Empty(t, result.Issues)
	assert.Greater(t, result.WordCount, 100)
}

func TestValidateRejectsShortContent(t *testing.T) {
	v := NewValidator(nil)
	result, err := v.ValidateContent(context.Background(), "Too short.", nil)
	require.NoError(t, err)

	assert.False(t, result.Passed)
	assert.Contains(t, result.Issues, "content below minimum word count")
}

func TestValidateShortContentFailsRegardlessOfScore(t *testing.T) {
	v := NewValidator(nil)
	result, err := v.ValidateContent(context.Background(), "Too short.", nil)
	require.NoError(t, err)

	// Clean structure and zero links keep the averaged score above the
	// threshold, but the word-count gate still rejects the page.
	assert.GreaterOrEqual(t, result.Score, v.config.MinScore)
	assert.False(t, result.Passed)
}

func TestValidateFlagsLinkFarms(t *testing.T) {
	v := NewValidator(&ValidationConfig{
		MinWordCount:      5,
		MaxWordCount:      100000,
		MinSentenceCount:  0,
		MaxLinkDensity:    5.0,
		MaxUppercaseRatio: 0.9,
		MinScore:          0.8,
	})
	content := strings.Repeat("https://spam.example/offer word ", 50)
	result, err := v.ValidateContent(context.Background(), content, nil)
	require.NoError(t, err)

	assert.Contains(t, result.Issues, "excessive link density")
	assert.Less(t, result.Dimensions["link_density"], 1.0)
}

func TestValidateFlagsShouting(t *testing.T) {
	v := NewValidator(&ValidationConfig{
		MinWordCount:      1,
		MaxWordCount:      100000,
		MinSentenceCount:  0,
		MaxLinkDensity:    100,
		MaxUppercaseRatio: 0.4,
		MinScore:          0.9,
	})
	result, err := v.ValidateContent(context.Background(), strings.Repeat("BUY NOW LIMITED OFFER ", 40), nil)
	require.NoError(t, err)

	assert.False(t, result.Passed)
	assert.Contains(t, result.Issues, "excessive uppercase content")
}

func TestValidateCancelledContext(t *testing.T) {
	v := NewValidator(nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := v.ValidateContent(ctx, goodContent(), nil)
	assert.ErrorIs(t, err, context.Canceled)
}
