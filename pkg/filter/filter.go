package filter

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"research-assistant-be/internal/constant"
	"research-assistant-be/internal/entity"
)

type Reason string

const (
	ReasonValid               Reason = "valid"
	ReasonTooShort            Reason = "too_short"
	ReasonGreeting            Reason = "greeting"
	ReasonAcknowledgment      Reason = "acknowledgment"
	ReasonVagueQuery          Reason = "vague_query"
	ReasonSimpleResponse      Reason = "simple_response"
	ReasonSpam                Reason = "spam"
	ReasonLowMedicalRelevance Reason = "low_medical_relevance"
)

type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
)

const minNonSpaceChars = 5

type Config struct {
	MedicalKeywords           []string
	MedicalRelevanceThreshold float64
	Greetings                 []string
	VagueTerms                []string
	SessionKeywords           []string
}

func DefaultConfig() Config {
	return Config{
		MedicalKeywords:           constant.DefaultMedicalKeywords,
		MedicalRelevanceThreshold: constant.DefaultMedicalRelevanceThreshold,
		Greetings:                 constant.SessionGreetings,
		VagueTerms:                constant.SessionVagueTerms,
		SessionKeywords:           constant.SessionKeywords,
	}
}

// Result is the outcome of filtering one piece of text.
type Result struct {
	QueryId      string   `json:"query_id,omitempty"`
	Accepted     bool     `json:"is_valid"`
	OriginalText string   `json:"original_text"`
	CleanedText  string   `json:"cleaned_text"`
	Reason       Reason   `json:"reason"`
	Severity     Severity `json:"severity,omitempty"`
	MedicalScore float64  `json:"medical_score"`
}

type rule struct {
	reason   Reason
	severity Severity
	match    func(string) bool
}

var (
	whitespaceRe = regexp.MustCompile(`\s+`)
	disallowedRe = regexp.MustCompile(`[^\p{L}\p{N}_\s\-+/%.,;:?!]`)

	abbreviations = []struct {
		re   *regexp.Regexp
		full string
	}{
		{regexp.MustCompile(`(?i)\bmg\b`), "milligrams"},
		{regexp.MustCompile(`(?i)\bml\b`), "milliliters"},
		{regexp.MustCompile(`(?i)\bmcg\b`), "micrograms"},
		{regexp.MustCompile(`(?i)\bbid\b`), "twice daily"},
		{regexp.MustCompile(`(?i)\btid\b`), "three times daily"},
		{regexp.MustCompile(`(?i)\bqd\b`), "once daily"},
	}

	domainPatterns = []*regexp.Regexp{
		regexp.MustCompile(`\d+\s*(mg|ml|mcg|units|milligrams|milliliters|micrograms)`),
		regexp.MustCompile(`(clinical|randomized|controlled)\s+(trial|study)`),
		regexp.MustCompile(`(side\s+effects|adverse\s+events)`),
		regexp.MustCompile(`(efficacy|effectiveness|outcome)`),
	}

	acknowledgmentRe = regexp.MustCompile(`(?i)^(thanks|thank you|thx)\b`)
	simpleResponseRe = regexp.MustCompile(`(?i)^(yes|no|ok|okay|sure)$`)
	tooShortRe       = regexp.MustCompile(`^.{1,3}$`)
)

// Filter decides whether raw query text is informational enough to enter the pipeline.
type Filter struct {
	cfg             Config
	keywords        []string
	sessionKeywords []string
	greetingRe      *regexp.Regexp
	vagueRe         *regexp.Regexp
	rules           []rule
}

func New(cfg Config) *Filter {
	def := DefaultConfig()
	if len(cfg.MedicalKeywords) == 0 {
		cfg.MedicalKeywords = def.MedicalKeywords
	}
	if len(cfg.Greetings) == 0 {
		cfg.Greetings = def.Greetings
	}
	if len(cfg.VagueTerms) == 0 {
		cfg.VagueTerms = def.VagueTerms
	}
	if len(cfg.SessionKeywords) == 0 {
		cfg.SessionKeywords = def.SessionKeywords
	}

	f := &Filter{
		cfg:             cfg,
		keywords:        lowerAll(cfg.MedicalKeywords),
		sessionKeywords: lowerAll(append(append([]string{}, cfg.SessionKeywords...), cfg.MedicalKeywords...)),
		greetingRe:      leadingPhraseRe(cfg.Greetings),
		vagueRe:         leadingPhraseRe(cfg.VagueTerms),
	}
	f.rules = []rule{
		{ReasonGreeting, SeverityHigh, f.greetingRe.MatchString},
		{ReasonAcknowledgment, SeverityMedium, acknowledgmentRe.MatchString},
		{ReasonVagueQuery, SeverityHigh, f.vagueRe.MatchString},
		{ReasonSimpleResponse, SeverityMedium, simpleResponseRe.MatchString},
		{ReasonTooShort, SeverityHigh, tooShortRe.MatchString},
		{ReasonSpam, SeverityHigh, hasLeadingRun},
	}
	return f
}

// Filter runs the full check: clean, length, ordered patterns, medical relevance.
func (f *Filter) Filter(text string) Result {
	cleaned := Clean(text)
	res := Result{OriginalText: text, CleanedText: cleaned}

	if nonSpaceLen(cleaned) < minNonSpaceChars {
		res.Reason = ReasonTooShort
		res.Severity = SeverityHigh
		return res
	}

	lower := strings.ToLower(cleaned)
	for _, r := range f.rules {
		if r.match(lower) && r.severity == SeverityHigh {
			res.Reason = r.reason
			res.Severity = r.severity
			return res
		}
	}

	res.MedicalScore = f.MedicalScore(cleaned)
	if res.MedicalScore < f.cfg.MedicalRelevanceThreshold {
		res.Reason = ReasonLowMedicalRelevance
		return res
	}

	res.Accepted = true
	res.Reason = ReasonValid
	return res
}

// MedicalScore estimates in [0,1] how likely text concerns medical content.
func (f *Filter) MedicalScore(text string) float64 {
	lower := strings.ToLower(text)
	words := strings.Fields(lower)
	if len(words) == 0 {
		return 0
	}

	medical := 0
	for _, w := range words {
		if containsAny(w, f.keywords) {
			medical++
		}
	}

	score := float64(medical)/float64(len(words)) + 0.1*float64(domainMatches(lower))
	if score > 1 {
		score = 1
	}
	return score
}

// IsInformational is the coarse check used inside the session workflow. It rejects
// leading greetings and vague meta-queries and requires a medical keyword or a
// domain phrase somewhere in the text.
func (f *Filter) IsInformational(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	if lower == "" {
		return false
	}
	if f.greetingRe.MatchString(lower) || f.vagueRe.MatchString(lower) {
		return false
	}
	return containsAny(lower, f.sessionKeywords) || domainMatches(lower) > 0
}

// FilterBatch filters queries in place order. Accepted queries get their text
// replaced with the cleaned text and their medical score recorded.
func (f *Filter) FilterBatch(queries []*entity.Query) ([]*entity.Query, []Result) {
	valid := make([]*entity.Query, 0, len(queries))
	results := make([]Result, 0, len(queries))
	for _, q := range queries {
		res := f.Filter(q.Text)
		res.QueryId = q.Id
		if res.Accepted {
			q.Text = res.CleanedText
			q.MedicalScore = res.MedicalScore
			valid = append(valid, q)
		}
		results = append(results, res)
	}
	return valid, results
}

// Clean collapses whitespace, strips characters outside the allow-list and expands
// dosage abbreviations.
func Clean(text string) string {
	text = whitespaceRe.ReplaceAllString(strings.TrimSpace(text), " ")
	text = disallowedRe.ReplaceAllString(text, "")
	for _, a := range abbreviations {
		text = a.re.ReplaceAllString(text, a.full)
	}
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
}

func domainMatches(lower string) int {
	n := 0
	for _, p := range domainPatterns {
		if p.MatchString(lower) {
			n++
		}
	}
	return n
}

// hasLeadingRun reports a run of six or more identical runes at the start.
func hasLeadingRun(s string) bool {
	first, size := utf8.DecodeRuneInString(s)
	if size == 0 {
		return false
	}
	n := 0
	for _, r := range s {
		if r != first {
			break
		}
		n++
	}
	return n >= 6
}

func leadingPhraseRe(phrases []string) *regexp.Regexp {
	quoted := make([]string, 0, len(phrases))
	for _, p := range phrases {
		quoted = append(quoted, regexp.QuoteMeta(strings.ToLower(p)))
	}
	return regexp.MustCompile(`^(` + strings.Join(quoted, "|") + `)\b`)
}

func nonSpaceLen(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}

func containsAny(s string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(s, n) {
			return true
		}
	}
	return false
}

func lowerAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = strings.ToLower(s)
	}
	return out
}
