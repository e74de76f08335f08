package processing

import (
	"regexp"
	"strings"
	"unicode"
)

// WhitespaceRule normalizes runs of whitespace while preserving
// paragraph breaks.
type WhitespaceRule struct{}

func (r *WhitespaceRule) Name() string { return "whitespace" }

func (r *WhitespaceRule) Applicable(docType string) bool { return true }

var (
	paragraphBreak = regexp.MustCompile(`\n\s*\n+`)
	spaceRun       = regexp.MustCompile(`[ \t]+`)
)

func (r *WhitespaceRule) Apply(content string) (string, error) {
	content = paragraphBreak.ReplaceAllString(content, "\x00")
	content = spaceRun.ReplaceAllString(content, " ")
	content = strings.ReplaceAll(content, "\n", " ")
	content = spaceRun.ReplaceAllString(content, " ")
	content = strings.ReplaceAll(content, "\x00", "\n\n")

	lines := strings.Split(content, "\n")
	for i := range lines {
		lines[i] = strings.TrimSpace(lines[i])
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

// ControlCharacterRule strips non-printing characters that PDF
// extraction tends to leave behind.
type ControlCharacterRule struct{}

func (r *ControlCharacterRule) Name() string { return "control_characters" }

func (r *ControlCharacterRule) Applicable(docType string) bool { return true }

func (r *ControlCharacterRule) Apply(content string) (string, error) {
	return strings.Map(func(c rune) rune {
		if c == '\n' || c == '\t' {
			return c
		}
		if unicode.IsControl(c) || c == '�' {
			return -1
		}
		return c
	}, content), nil
}

// EncodingArtifactRule repairs the common UTF-8-decoded-as-Latin-1
// sequences that show up in scraped content.
type EncodingArtifactRule struct{}

func (r *EncodingArtifactRule) Name() string { return "encoding_artifacts" }

func (r *EncodingArtifactRule) Applicable(docType string) bool { return true }

var encodingFixes = []struct{ from, to string }{
	{"â€™", "'"},
	{"â€˜", "'"},
	{"â€œ", "\""},
	{"â€", "\""},
	{"â€“", "-"},
	{"â€”", "-"},
	{"â€¦", "..."},
	{"Â ", " "},
	{"Ã©", "é"},
	{"Ã¨", "è"},
	{"Ã¼", "ü"},
	{"Ã¶", "ö"},
	{"Ã¤", "ä"},
}

func (r *EncodingArtifactRule) Apply(content string) (string, error) {
	for _, fix := range encodingFixes {
		content = strings.ReplaceAll(content, fix.from, fix.to)
	}
	return content, nil
}

// DuplicateLineRule removes consecutive identical lines, a frequent
// artifact of repeated page headers and footers in extracted PDFs.
type DuplicateLineRule struct{}

func (r *DuplicateLineRule) Name() string { return "duplicate_lines" }

func (r *DuplicateLineRule) Applicable(docType string) bool { return true }

func (r *DuplicateLineRule) Apply(content string) (string, error) {
	lines := strings.Split(content, "\n")
	out := lines[:0]
	var prev string
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if i > 0 && trimmed != "" && trimmed == prev {
			continue
		}
		out = append(out, line)
		prev = trimmed
	}
	return strings.Join(out, "\n"), nil
}

// BoilerplateRule drops lines that are pure site chrome: cookie
// banners, subscription prompts, social sharing labels.
type BoilerplateRule struct{}

func (r *BoilerplateRule) Name() string { return "boilerplate" }

func (r *BoilerplateRule) Applicable(docType string) bool {
	return docType == "html" || docType == "article"
}

var boilerplatePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(accept|we use|this (web)?site uses) (all )?cookies\b`),
	regexp.MustCompile(`(?i)^(subscribe|sign up) (to|for) (our )?newsletter\b`),
	regexp.MustCompile(`(?i)^share (this|on)\b`),
	regexp.MustCompile(`(?i)^(follow us|connect with us)\b`),
	regexp.MustCompile(`(?i)^advertisement$`),
	regexp.MustCompile(`(?i)^(read more|related articles?|you might also like):?$`),
	regexp.MustCompile(`(?i)^skip to (main )?content$`),
	regexp.MustCompile(`(?i)^javascript is (disabled|required)\b`),
}

func (r *BoilerplateRule) Apply(content string) (string, error) {
	lines := strings.Split(content, "\n")
	out := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if isBoilerplate(trimmed) {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n"), nil
}

func isBoilerplate(line string) bool {
	if line == "" {
		return false
	}
	for _, p := range boilerplatePatterns {
		if p.MatchString(line) {
			return true
		}
	}
	return false
}

// BareLinkRule drops lines that are nothing but a URL or an email
// address, the residue of link lists and footers.
type BareLinkRule struct{}

func (r *BareLinkRule) Name() string { return "bare_links" }

func (r *BareLinkRule) Applicable(docType string) bool {
	return docType == "html" || docType == "article"
}

var (
	bareURLPattern   = regexp.MustCompile(`^(https?://|www\.)\S+$`)
	bareEmailPattern = regexp.MustCompile(`^[\w.+-]+@[\w-]+\.[\w.]+$`)
)

func (r *BareLinkRule) Apply(content string) (string, error) {
	lines := strings.Split(content, "\n")
	out := lines[:0]
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if bareURLPattern.MatchString(trimmed) || bareEmailPattern.MatchString(trimmed) {
			continue
		}
		out = append(out, line)
	}
	return strings.Join(out, "\n"), nil
}
