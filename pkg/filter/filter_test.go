package filter

import (
	"strings"
	"testing"
	"time"

	"research-assistant-be/internal/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFilterRejections(t *testing.T) {
	f := New(DefaultConfig())

	tests := []struct {
		name       string
		text       string
		wantReason Reason
	}{
		{"bare greeting is too short", "hi", ReasonTooShort},
		{"greeting with content", "hello there, anyone around?", ReasonGreeting},
		{"good evening greeting", "Good evening doctor", ReasonGreeting},
		{"vague meta query", "what can you do for me", ReasonVagueQuery},
		{"help request", "help me please", ReasonVagueQuery},
		{"spam run", "aaaaaaaaaa", ReasonSpam},
		{"punctuation only", "!! ?", ReasonTooShort},
		{"symbols stripped to nothing", "@@@@@@ ####", ReasonTooShort},
		{"no medical content", "the quick brown fox jumps", ReasonLowMedicalRelevance},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := f.Filter(tt.text)
			assert.False(t, res.Accepted)
			assert.Equal(t, tt.wantReason, res.Reason)
		})
	}
}

func TestFilterShortInputsAlwaysTooShort(t *testing.T) {
	f := New(DefaultConfig())
	for _, text := range []string{"", " ", "a", "ab c", "abcd", "  x  y  ", "a b c d", "mg"} {
		res := f.Filter(text)
		if nonSpaceLen(res.CleanedText) < 5 {
			assert.Equal(t, ReasonTooShort, res.Reason, "input %q", text)
		}
	}
}

func TestFilterAcceptsClinicalQuestion(t *testing.T) {
	f := New(DefaultConfig())

	res := f.Filter("What is the efficacy of metformin for type 2 diabetes management?")

	require.True(t, res.Accepted)
	assert.Equal(t, ReasonValid, res.Reason)
	assert.Greater(t, res.MedicalScore, 0.01)
}

func TestFilterAcknowledgmentIsNotRejected(t *testing.T) {
	f := New(DefaultConfig())

	res := f.Filter("thanks, what about insulin therapy dosage?")

	assert.True(t, res.Accepted)
}

func TestGreetingNeedsWordBoundary(t *testing.T) {
	f := New(DefaultConfig())

	res := f.Filter("High dose statin therapy outcomes")

	assert.True(t, res.Accepted)
}

func TestClean(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  take   500 mg  bid ", "take 500 milligrams twice daily"},
		{"Dose: 5 ML qd", "Dose: 5 milliliters once daily"},
		{"aspirin <script> & ibuprofen", "aspirin script ibuprofen"},
		{"HbA1c +/- 0.5%; p<0.05", "HbA1c +/- 0.5%; p0.05"},
		{"mgmt of TID-cases", "mgmt of three times daily-cases"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Clean(tt.in), "input %q", tt.in)
	}
}

func TestMedicalScore(t *testing.T) {
	f := New(DefaultConfig())

	assert.Zero(t, f.MedicalScore(""))
	assert.Zero(t, f.MedicalScore("quick brown fox"))

	score := f.MedicalScore("randomized controlled trial of 20 units insulin side effects and efficacy")
	assert.LessOrEqual(t, score, 1.0)
	assert.Greater(t, score, 0.4)

	assert.Equal(t, 1.0, f.MedicalScore("treatment therapy efficacy outcome"))
}

func TestThresholdIsConfigurable(t *testing.T) {
	cfg := DefaultConfig()
	cfg.MedicalRelevanceThreshold = 0.9
	f := New(cfg)

	res := f.Filter("What is the efficacy of metformin for type 2 diabetes management?")

	assert.False(t, res.Accepted)
	assert.Equal(t, ReasonLowMedicalRelevance, res.Reason)
}

func TestIsInformational(t *testing.T) {
	f := New(DefaultConfig())

	tests := []struct {
		text string
		want bool
	}{
		{"hello", false},
		{"hi, what treatment works for asthma?", false},
		{"how are you today", false},
		{"Which treatment is best for COPD?", true},
		{"compare aspirin versus ibuprofen side effects", true},
		{"the weather is nice", false},
		{"", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, f.IsInformational(tt.text), "text %q", tt.text)
	}
}

func TestFullAcceptanceImpliesCoarseAcceptance(t *testing.T) {
	f := New(DefaultConfig())
	corpus := []string{
		"What is the efficacy of metformin for type 2 diabetes management?",
		"Compare aspirin versus ibuprofen for pain relief",
		"Latest research on remdesivir mortality outcomes",
		"Give 20 units before meals",
		"Which statin has fewer adverse events in elderly patients",
		"thanks - any data on warfarin reversal?",
		"good morning",
		"what can you do",
		"lorem ipsum dolor sit amet",
	}
	for _, text := range corpus {
		res := f.Filter(text)
		if res.Accepted {
			assert.True(t, f.IsInformational(res.CleanedText), "text %q", text)
		}
	}
}

func TestFilterBatchAndReport(t *testing.T) {
	f := New(DefaultConfig())
	now := time.Now()

	var queries []*entity.Query
	for _, text := range []string{"hello friend, how is it going", "Insulin   dosage 10 mg for type 1 diabetes", "okay"} {
		q, err := entity.NewQuery(text, now)
		require.NoError(t, err)
		queries = append(queries, q)
	}

	valid, results := f.FilterBatch(queries)

	require.Len(t, valid, 1)
	assert.Equal(t, "Insulin dosage 10 milligrams for type 1 diabetes", valid[0].Text)
	assert.Greater(t, valid[0].MedicalScore, 0.0)
	require.Len(t, results, 3)
	assert.Equal(t, queries[0].Id, results[0].QueryId)

	report := BuildReport(results)
	assert.Equal(t, 3, report.Total)
	assert.Equal(t, 1, report.Valid)
	assert.Equal(t, 2, report.Filtered)
	assert.InDelta(t, 2.0/3.0, report.FilterRate, 1e-9)
	assert.Equal(t, 1, report.Reasons[ReasonGreeting])
	assert.Equal(t, 1, report.Reasons[ReasonTooShort])
}

func TestReportMerge(t *testing.T) {
	a := BuildReport([]Result{{Accepted: true}, {Reason: ReasonSpam}})
	b := BuildReport([]Result{{Reason: ReasonSpam}, {Reason: ReasonGreeting}})

	a.Merge(b)

	assert.Equal(t, 4, a.Total)
	assert.Equal(t, 3, a.Filtered)
	assert.Equal(t, 2, a.Reasons[ReasonSpam])
	assert.InDelta(t, 0.75, a.FilterRate, 1e-9)
	assert.Zero(t, BuildReport(nil).FilterRate)
}

func TestHasLeadingRun(t *testing.T) {
	assert.True(t, hasLeadingRun(strings.Repeat("z", 6)))
	assert.False(t, hasLeadingRun("zzzzz diabetes"))
	assert.False(t, hasLeadingRun(""))
}
