package processing

import (
	"context"
	"time"

	"github.com/harvestkit/harvestkit/pkg/document"
	"github.com/harvestkit/harvestkit/pkg/logging"
)

// CleaningRule represents a single content cleaning rule
type CleaningRule interface {
	Name() string
	Apply(content string) (string, error)
	Applicable(docType string) bool
}

// CleaningResult contains the results of content cleaning
type CleaningResult struct {
	OriginalLength int           `json:"original_length"`
	CleanedLength  int           `json:"cleaned_length"`
	RulesApplied   []string      `json:"rules_applied"`
	BytesRemoved   int           `json:"bytes_removed"`
	ProcessingTime time.Duration `json:"processing_time"`
}

// ContentCleaner applies rule-based cleaning to document content
type ContentCleaner struct {
	rules        []CleaningRule
	enabledRules map[string]bool
}

// NewContentCleaner creates a cleaner with the default rule set.
func NewContentCleaner() *ContentCleaner {
	cleaner := &ContentCleaner{
		enabledRules: make(map[string]bool),
	}
	cleaner.AddRule(&EncodingArtifactRule{})
	cleaner.AddRule(&ControlCharacterRule{})
	cleaner.AddRule(&BoilerplateRule{})
	cleaner.AddRule(&BareLinkRule{})
	cleaner.AddRule(&DuplicateLineRule{})
	cleaner.AddRule(&WhitespaceRule{})
	return cleaner
}

// AddRule registers and enables a cleaning rule.
func (cc *ContentCleaner) AddRule(rule CleaningRule) {
	cc.rules = append(cc.rules, rule)
	cc.enabledRules[rule.Name()] = true
}

// DisableRule disables a rule by name.
func (cc *ContentCleaner) DisableRule(name string) {
	cc.enabledRules[name] = false
}

// CleanDocument cleans a document's text in place and reports what was
// done. Rule failures skip that rule rather than failing the document.
func (cc *ContentCleaner) CleanDocument(ctx context.Context, doc *document.Document) (*CleaningResult, error) {
	logger := logging.GetLogger("cleaner")
	start := time.Now()

	content := doc.Content.Text
	result := &CleaningResult{
		OriginalLength: len(content),
	}

	for _, rule := range cc.rules {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !cc.enabledRules[rule.Name()] || !rule.Applicable(doc.Source.Type) {
			continue
		}
		cleaned, err := rule.Apply(content)
		if err != nil {
			logger.Warn().
				Err(err).
				Str("rule", rule.Name()).
				Str("document_id", doc.ID).
				Msg("Cleaning rule failed, skipping")
			continue
		}
		if cleaned != content {
			result.RulesApplied = append(result.RulesApplied, rule.Name())
			content = cleaned
		}
	}

	doc.Content.Text = content
	doc.CountWords()

	result.CleanedLength = len(content)
	result.BytesRemoved = result.OriginalLength - result.CleanedLength
	result.ProcessingTime = time.Since(start)
	return result, nil
}
