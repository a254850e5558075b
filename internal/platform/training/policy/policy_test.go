package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"github.com/openeeap/replytune/pkg/errors"
)

const prompt = "Could you help me with the project deadline?"

func newTestPolicy(t *testing.T, lr float64) *Policy {
	t.Helper()
	p, err := New(Config{Seed: 7, LearningRate: lr, FeatureDim: 32})
	require.NoError(t, err)
	return p
}

func TestNew_Defaults(t *testing.T) {
	p, err := New(Config{})
	require.NoError(t, err)

	assert.Equal(t, DefaultVocabulary(), p.Vocabulary())
	assert.Equal(t, 31, p.Size())
	assert.Equal(t, DefaultFeatureDim, p.featureDim)
	assert.Equal(t, ModeTrain, p.Mode())
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := New(Config{FeatureDim: -1})
	assert.True(t, errors.Is(err, errors.ErrTrainInvalidConfig.Code))

	_, err = New(Config{Vocabulary: []string{" ", ""}})
	assert.True(t, errors.Is(err, errors.ErrTrainInvalidConfig.Code))
}

func TestProbs_IsDistribution(t *testing.T) {
	p := newTestPolicy(t, 0)

	for _, in := range []string{"", prompt, "I need access to the shared drive."} {
		probs := p.Probs(in)
		require.Len(t, probs, p.Size())
		assert.InDelta(t, 1.0, floats.Sum(probs), 1e-9)
		for _, v := range probs {
			assert.Greater(t, v, 0.0)
		}
	}
}

func TestProbs_DeterministicForSeed(t *testing.T) {
	a := newTestPolicy(t, 0)
	b := newTestPolicy(t, 0)

	assert.Equal(t, a.Probs(prompt), b.Probs(prompt))
}

func TestApplyProbabilityGradient_MovesTowardsAction(t *testing.T) {
	p := newTestPolicy(t, 0.05)
	before := p.Probs(prompt)

	grad := make([]float64, p.Size())
	grad[3] = -1 // minimising -p_3
	for i := 0; i < 20; i++ {
		require.NoError(t, p.ApplyProbabilityGradient(prompt, p.Probs(prompt), grad))
	}

	after := p.Probs(prompt)
	assert.Greater(t, after[3], before[3])
	assert.InDelta(t, 1.0, floats.Sum(after), 1e-9)
	assert.Equal(t, 20, p.optimizer.Steps())
}

func TestApplyProbabilityGradient_ZeroGradientKeepsWeights(t *testing.T) {
	p := newTestPolicy(t, 0.05)
	before := p.Probs(prompt)

	require.NoError(t, p.ApplyProbabilityGradient(prompt, before, make([]float64, p.Size())))

	assert.Equal(t, before, p.Probs(prompt))
}

func TestApplyProbabilityGradient_Errors(t *testing.T) {
	p := newTestPolicy(t, 0.05)

	err := p.ApplyProbabilityGradient(prompt, []float64{1}, []float64{1})
	assert.True(t, errors.Is(err, errors.ErrTrainDistributionMismatch.Code))

	p.Eval()
	probs := p.Probs(prompt)
	err = p.ApplyProbabilityGradient(prompt, probs, make([]float64, len(probs)))
	assert.True(t, errors.Is(err, errors.ErrTrainPolicyFrozen.Code))

	p.Train()
	assert.NoError(t, p.ApplyProbabilityGradient(prompt, probs, make([]float64, len(probs))))
}

func TestTopPhrases(t *testing.T) {
	p := newTestPolicy(t, 0)

	top := p.TopPhrases(prompt, 3)
	require.Len(t, top, 3)

	probs := p.Probs(prompt)
	best := floats.MaxIdx(probs)
	assert.Equal(t, p.Vocabulary()[best], top[0])

	assert.Len(t, p.TopPhrases(prompt, 100), p.Size())
}

func TestActionForToken(t *testing.T) {
	p := newTestPolicy(t, 0)
	vocab := p.Vocabulary()

	idx, ok := p.ActionForToken("Thanks")
	require.True(t, ok)
	assert.Equal(t, "thanks", vocab[idx])

	idx, ok = p.ActionForToken("helpful")
	require.True(t, ok)
	assert.Equal(t, "help", vocab[idx])

	_, ok = p.ActionForToken("zebra")
	assert.False(t, ok)

	_, ok = p.ActionForToken("")
	assert.False(t, ok)
}

func TestAdam_FirstStepMagnitude(t *testing.T) {
	opt := NewAdam(0.1, 2)
	params := [][]float64{{1, 1}}

	opt.Step(params, [][]float64{{0.5, -2}})

	// bias-corrected first step moves each parameter by ~lr * sign(grad)
	assert.InDelta(t, 0.9, params[0][0], 1e-6)
	assert.InDelta(t, 1.1, params[0][1], 1e-6)
	assert.Equal(t, 1, opt.Steps())
}

func TestSnapshot_RoundTrip(t *testing.T) {
	p := newTestPolicy(t, 0.05)
	grad := make([]float64, p.Size())
	grad[0] = -1
	require.NoError(t, p.ApplyProbabilityGradient(prompt, p.Probs(prompt), grad))

	data, err := p.Snapshot("fine_tuned_email_model").Marshal()
	require.NoError(t, err)

	snap, err := UnmarshalSnapshot(data)
	require.NoError(t, err)
	assert.Equal(t, "fine_tuned_email_model", snap.Name)
	assert.Equal(t, SnapshotVersion, snap.Version)

	restored, err := Restore(snap)
	require.NoError(t, err)

	want, got := p.Probs(prompt), restored.Probs(prompt)
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-12)
	}
	assert.Equal(t, p.Vocabulary(), restored.Vocabulary())
	assert.Equal(t, 1, restored.optimizer.Steps())

	// continued training matches the original
	require.NoError(t, p.ApplyProbabilityGradient(prompt, p.Probs(prompt), grad))
	require.NoError(t, restored.ApplyProbabilityGradient(prompt, restored.Probs(prompt), grad))
	want, got = p.Probs(prompt), restored.Probs(prompt)
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-12)
	}
}

func TestRestore_RejectsMalformed(t *testing.T) {
	p := newTestPolicy(t, 0)

	snap := p.Snapshot("x")
	snap.Weights = snap.Weights[1:]
	_, err := Restore(snap)
	assert.True(t, errors.Is(err, errors.ErrTrainInvalidConfig.Code))

	snap = p.Snapshot("x")
	snap.Version = 99
	_, err = Restore(snap)
	assert.Error(t, err)

	_, err = UnmarshalSnapshot([]byte("{not json"))
	assert.Error(t, err)
}

func TestPolicy_LoadInPlace(t *testing.T) {
	trained := newTestPolicy(t, 0.05)
	grad := make([]float64, trained.Size())
	grad[2] = -1
	require.NoError(t, trained.ApplyProbabilityGradient(prompt, trained.Probs(prompt), grad))
	trained.Eval()

	other, err := New(Config{Seed: 99, FeatureDim: 16})
	require.NoError(t, err)
	require.NoError(t, other.Load(trained.Snapshot("x")))

	want, got := trained.Probs(prompt), other.Probs(prompt)
	for i := range want {
		assert.InDelta(t, want[i], got[i], 1e-12)
	}
	assert.Equal(t, ModeEval, other.Mode())

	bad := trained.Snapshot("x")
	bad.Bias = nil
	assert.Error(t, other.Load(bad))
}
