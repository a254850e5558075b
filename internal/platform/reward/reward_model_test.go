package reward

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sampleTexts = []string{
	"",
	"   ",
	"!!! ... ???",
	"Thank you for reaching out, I really appreciate it. Please let me know if you need anything else.",
	"The meeting is at 3pm in room 204.",
	"See https://example.com for details, it covers all 12 steps.",
	"I hate this terrible, awful, broken system and nothing works.",
	"Dear team,\n\nI would be happy to help you with the project deadline. I suggest we meet on Monday at 10:30 to clarify the scope. Kind regards,",
	strings.Repeat("please help support guide thanks ", 60),
}

func TestRewardModel_BreakdownInvariants(t *testing.T) {
	model := NewDefaultRewardModel()

	for _, text := range sampleTexts {
		b := model.Score(context.Background(), text)

		assert.GreaterOrEqual(t, b.Politeness, 0.0, text)
		assert.LessOrEqual(t, b.Politeness, 1.0, text)
		assert.GreaterOrEqual(t, b.Helpfulness, 0.0, text)
		assert.LessOrEqual(t, b.Helpfulness, 1.0, text)
		assert.GreaterOrEqual(t, b.Total, 0.0, text)
		assert.LessOrEqual(t, b.Total, 1.0, text)
		assert.InDelta(t, 0.5*b.Politeness+0.5*b.Helpfulness, b.Total, 1e-9, text)
	}
}

func TestRewardModel_EmptyInput(t *testing.T) {
	b := NewDefaultRewardModel().Evaluate("")

	assert.Equal(t, RewardBreakdown{}, b)
}

func TestRewardModel_KnownValues(t *testing.T) {
	b := NewDefaultRewardModel().Evaluate("Please help.")

	// tokens: please, help, "." ; both words carry positive valence so pos=1, neg=0
	assert.Equal(t, 3, b.WordCount)
	assert.InDelta(t, 0.7/3+0.3, b.Politeness, 1e-9)
	assert.InDelta(t, 0.4/3+0.3*0.03, b.Helpfulness, 1e-9)
	assert.InDelta(t, 0.5*(0.7/3+0.3)+0.5*(0.4/3+0.009), b.Total, 1e-9)
}

func TestRewardModel_Idempotent(t *testing.T) {
	model := NewDefaultRewardModel()
	for _, text := range sampleTexts {
		assert.Equal(t, model.Evaluate(text), model.Evaluate(text))
	}
}

func TestRewardModel_PolitenessScenario(t *testing.T) {
	model := NewDefaultRewardModel()

	polite := model.Evaluate("Thank you for reaching out, I really appreciate it. Please let me know if you need anything else.")
	plain := model.Evaluate("The meeting is at 3pm in room 204.")

	assert.Greater(t, polite.Politeness, plain.Politeness)
	assert.Equal(t, 0.0, plain.Politeness)
}

func TestRewardModel_PolitenessReferenceValues(t *testing.T) {
	model := NewDefaultRewardModel()

	tests := []struct {
		name  string
		text  string
		words int
		want  float64
	}{
		// 3 markers in 21 tokens, pos 0.413, neg 0
		{"grateful reply", "Thank you for reaching out, I really appreciate it. Please let me know if you need anything else.", 21, 0.7*3/21 + 0.3*0.413},
		// 1 marker in 6 tokens, pos 0.278, neg 0.389
		{"thanks then complaint", "thank you, this is horrible", 6, 0.7/6 + 0.3*(0.278-0.389)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := model.Evaluate(tt.text)
			assert.Equal(t, tt.words, b.WordCount)
			assert.InDelta(t, tt.want, b.Politeness, 1e-9)
		})
	}
}

func TestRewardModel_HelpfulnessScenario(t *testing.T) {
	model := NewDefaultRewardModel()

	concrete := model.Evaluate("See https://example.com for details, it covers all 12 steps.")
	stripped := model.Evaluate("See for details, it covers all steps.")

	assert.Greater(t, concrete.Helpfulness, stripped.Helpfulness)
	assert.InDelta(t, 0.3, concrete.Helpfulness-stripped.Helpfulness, 0.1)
}

func TestRewardModel_SubstringMatching(t *testing.T) {
	model := NewDefaultRewardModel()

	// "thankfully" contains "thank", "unhelpful" contains "help"
	b := model.Evaluate("thankfully unhelpful")
	assert.InDelta(t, 0.4*0.5+0.3*0.02, b.Helpfulness, 1e-9)
	assert.Greater(t, b.Politeness, 0.0)
}

type silentAnalyzer struct{}

func (silentAnalyzer) Name() string { return "silent" }

func (silentAnalyzer) PolarityScores(string) Polarity { return Polarity{Neutral: 1} }

func TestRewardModel_CustomMarkers(t *testing.T) {
	model := NewRewardModel(silentAnalyzer{}, NewMarkerSet("cheers"), NewMarkerSet("howto"))

	b := model.Evaluate("cheers")
	assert.InDelta(t, 0.7, b.Politeness, 1e-9)

	b = model.Evaluate("please thanks")
	assert.Equal(t, 0.0, b.Politeness)
}

func TestRewardModel_Clamping(t *testing.T) {
	model := NewDefaultRewardModel()

	b := model.Evaluate(strings.Repeat("please help support guide thanks ", 60) + "https://x.io 42")
	assert.LessOrEqual(t, b.Helpfulness, 1.0)
	assert.LessOrEqual(t, b.Politeness, 1.0)

	negative := model.Evaluate("terrible awful worst")
	assert.Equal(t, 0.0, negative.Politeness)
}

func TestRewardModel_Fingerprint(t *testing.T) {
	vader := NewDefaultRewardModel()
	silent := NewRewardModel(silentAnalyzer{}, DefaultPolitenessMarkers(), DefaultHelpfulnessMarkers())

	assert.Equal(t, vader.Fingerprint(), NewDefaultRewardModel().Fingerprint())
	assert.NotEqual(t, vader.Fingerprint(), silent.Fingerprint())
	assert.Contains(t, vader.Fingerprint(), NewVaderAnalyzer().Name())
}

func TestMarkerSet(t *testing.T) {
	set := NewMarkerSet("Help", "help", " assist ", "")

	require.Equal(t, []string{"assist", "help"}, set.Words())
	assert.Equal(t, 2, set.Len())
	assert.True(t, set.Matches("helpful"))
	assert.False(t, set.Matches("hello"))
	assert.Equal(t, 2, set.Count([]string{"helpdesk", "assistance", "other"}))

	words := set.Words()
	words[0] = "mutated"
	assert.Equal(t, []string{"assist", "help"}, set.Words())
}

func TestDefaultMarkerSets(t *testing.T) {
	assert.Equal(t, 10, DefaultPolitenessMarkers().Len())
	assert.Equal(t, 10, DefaultHelpfulnessMarkers().Len())
	assert.NotEqual(t, DefaultPolitenessMarkers().Fingerprint(), DefaultHelpfulnessMarkers().Fingerprint())
}

func TestCombineScores(t *testing.T) {
	assert.Equal(t, 0.5, CombineScores(1, 0))
	assert.Equal(t, 0.0, CombineScores(0, 0))
	assert.Equal(t, 1.0, CombineScores(1, 1))
}
