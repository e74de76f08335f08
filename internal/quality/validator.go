package quality

import (
	"context"
	"regexp"
	"strings"
	"time"

	"github.com/harvestkit/harvestkit/pkg/logging"
)

// ValidationConfig contains thresholds for content quality validation.
type ValidationConfig struct {
	MinWordCount      int     `json:"min_word_count"`
	MaxWordCount      int     `json:"max_word_count"`
	MinSentenceCount  int     `json:"min_sentence_count"`
	MaxLinkDensity    float64 `json:"max_link_density"` // URLs per 100 words
	MaxUppercaseRatio float64 `json:"max_uppercase_ratio"`
	MinScore          float64 `json:"min_score"`
}

// DefaultValidationConfig returns default validation thresholds.
func DefaultValidationConfig() *ValidationConfig {
	return &ValidationConfig{
		MinWordCount:      100,
		MaxWordCount:      100000,
		MinSentenceCount:  3,
		MaxLinkDensity:    10.0,
		MaxUppercaseRatio: 0.4,
		MinScore:          0.5,
	}
}

// ValidationResult reports quality scoring for one document.
type ValidationResult struct {
	Score      float64            `json:"score"`
	Passed     bool               `json:"passed"`
	Issues     []string           `json:"issues,omitempty"`
	Dimensions map[string]float64 `json:"dimensions"`
	WordCount  int                `json:"word_count"`
	CheckedAt  time.Time          `json:"checked_at"`
}

// Validator scores extracted content against configured heuristics.
type Validator struct {
	config *ValidationConfig
}

// NewValidator creates a validator.
func NewValidator(config *ValidationConfig) *Validator {
	if config == nil {
		config = DefaultValidationConfig()
	}
	return &Validator{config: config}
}

var (
	sentenceEnd = regexp.MustCompile(`[.!?](\s|$)`)
	urlPattern  = regexp.MustCompile(`https?://\S+`)
)

// ValidateContent scores content and decides whether it is worth
// storing. A failed result is not an error; errors are reserved for
// context cancellation.
func (v *Validator) ValidateContent(ctx context.Context, content string, metadata map[string]string) (*ValidationResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	logger := logging.GetLogger("quality")

	result := &ValidationResult{
		Dimensions: make(map[string]float64),
		CheckedAt:  time.Now(),
	}

	words := strings.Fields(content)
	result.WordCount = len(words)

	// Length dimension
	lengthScore := 1.0
	switch {
	case result.WordCount < v.config.MinWordCount:
		lengthScore = float64(result.WordCount) / float64(v.config.MinWordCount)
		result.Issues = append(result.Issues, "content below minimum word count")
	case result.WordCount > v.config.MaxWordCount:
		lengthScore = 0.5
		result.Issues = append(result.Issues, "content above maximum word count")
	}
	result.Dimensions["length"] = lengthScore

	// Structure dimension: sentences per content
	sentences := len(sentenceEnd.FindAllString(content, -1))
	structureScore := 1.0
	if sentences < v.config.MinSentenceCount {
		structureScore = float64(sentences) / float64(v.config.MinSentenceCount)
		result.Issues = append(result.Issues, "too few sentences")
	}
	result.Dimensions["structure"] = structureScore

	// Link density dimension: pages that are mostly URLs are link farms
	// or navigation shells.
	linkScore := 1.0
	if result.WordCount > 0 {
		urls := len(urlPattern.FindAllString(content, -1))
		density := float64(urls) / float64(result.WordCount) * 100
		if density > v.config.MaxLinkDensity {
			linkScore = v.config.MaxLinkDensity / density
			result.Issues = append(result.Issues, "excessive link density")
		}
	}
	result.Dimensions["link_density"] = linkScore

	// Shouting dimension: mostly-uppercase text is navigation, legal
	// disclaimers, or spam.
	caseScore := 1.0
	if ratio := uppercaseRatio(content); ratio > v.config.MaxUppercaseRatio {
		caseScore = v.config.MaxUppercaseRatio / ratio
		result.Issues = append(result.Issues, "excessive uppercase content")
	}
	result.Dimensions["case"] = caseScore

	result.Score = (lengthScore + structureScore + linkScore + caseScore) / 4
	result.Passed = result.Score >= v.config.MinScore

	// The word-count window is a hard gate. A short page with clean
	// structure must not average its way past the threshold.
	if result.WordCount < v.config.MinWordCount {
		result.Passed = false
	}

	logger.Debug().
		Float64("score", result.Score).
		Bool("passed", result.Passed).
		Int("word_count", result.WordCount).
		Strs("issues", result.Issues).
		Msg("Content validated")
	return result, nil
}

// uppercaseRatio returns the share of letters that are uppercase.
func uppercaseRatio(content string) float64 {
	var upper, letters int
	for _, r := range content {
		switch {
		case r >= 'A' && r <= 'Z':
			upper++
			letters++
		case r >= 'a' && r <= 'z':
			letters++
		}
	}
	if letters == 0 {
		return 0
	}
	return float64(upper) / float64(letters)
}
