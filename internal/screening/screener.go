package screening

import (
	"fmt"
	"os"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"gopkg.in/yaml.v3"
)

const (
	ReasonFullName   = "Text may contain a full name - please use only first names or initials"
	ReasonAddress    = "Text may contain specific address details - please keep locations vague"
	ReasonShouting   = "Please avoid excessive capitalization"
	ReasonURL        = "URLs are not allowed"
	ReasonProfanity  = "Please avoid explicit language"
	shoutingMinRunes = 20
	shoutingRatio    = 0.5
)

// DefaultProfanity is used when no rules file is configured.
var DefaultProfanity = []string{"fuck", "shit", "asshole", "bitch", "cunt"}

// Rules is the on-disk screener configuration.
type Rules struct {
	Profanity []string `yaml:"profanity"`
}

// Result is the outcome of screening one text. Reasons accumulate; a text
// passes only when no rule fired.
type Result struct {
	Passed  bool     `json:"passed"`
	Reasons []string `json:"reasons"`
}

// Screener is immutable after construction and safe for concurrent use.
type Screener struct {
	fullName  *regexp.Regexp
	addresses []*regexp.Regexp
	url       *regexp.Regexp
	profanity *regexp.Regexp
}

func DefaultRules() Rules {
	return Rules{Profanity: append([]string(nil), DefaultProfanity...)}
}

// LoadRules reads a YAML rules file. An empty path yields DefaultRules.
func LoadRules(path string) (Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("failed to read screener rules: %w", err)
	}
	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("failed to parse screener rules: %w", err)
	}
	if len(rules.Profanity) == 0 {
		rules.Profanity = DefaultRules().Profanity
	}
	return rules, nil
}

func New(rules Rules) (*Screener, error) {
	s := &Screener{
		fullName: regexp.MustCompile(`\b[A-Z][a-z]+\s+[A-Z][a-z]+\b`),
		addresses: []*regexp.Regexp{
			regexp.MustCompile(`(?i)\b\d+\s+[A-Za-z]+\s+(street|st|avenue|ave|road|rd|drive|dr|lane|ln|court|ct|way|place|pl)\b`),
			regexp.MustCompile(`(?i)\bapartment\s*#?\s*\d+`),
			regexp.MustCompile(`(?i)\bunit\s*#?\s*\d+`),
		},
		url: regexp.MustCompile(`(?i)https?://|www\.`),
	}

	alternatives := make([]string, 0, len(rules.Profanity))
	for _, word := range rules.Profanity {
		if p := elongated(word); p != "" {
			alternatives = append(alternatives, p)
		}
	}
	if len(alternatives) > 0 {
		re, err := regexp.Compile(`(?i)\b(` + strings.Join(alternatives, "|") + `)\b`)
		if err != nil {
			return nil, fmt.Errorf("failed to compile profanity rules: %w", err)
		}
		s.profanity = re
	}
	return s, nil
}

// elongated turns "fuck" into "f+u+c+k+" so stretched spellings still match.
func elongated(word string) string {
	word = strings.ToLower(strings.TrimSpace(word))
	var b strings.Builder
	for _, r := range word {
		b.WriteString(regexp.QuoteMeta(string(r)))
		b.WriteByte('+')
	}
	return b.String()
}

func (s *Screener) Screen(text string) Result {
	reasons := make([]string, 0, 2)

	if s.fullName.MatchString(text) {
		reasons = append(reasons, ReasonFullName)
	}

	for _, re := range s.addresses {
		if re.MatchString(text) {
			reasons = append(reasons, ReasonAddress)
			break
		}
	}

	if n := utf8.RuneCountInString(text); n > shoutingMinRunes {
		upper := 0
		for _, r := range text {
			if r <= unicode.MaxASCII && unicode.IsUpper(r) {
				upper++
			}
		}
		if float64(upper)/float64(n) > shoutingRatio {
			reasons = append(reasons, ReasonShouting)
		}
	}

	if s.url.MatchString(text) {
		reasons = append(reasons, ReasonURL)
	}

	if s.profanity != nil && s.profanity.MatchString(text) {
		reasons = append(reasons, ReasonProfanity)
	}

	return Result{Passed: len(reasons) == 0, Reasons: reasons}
}
