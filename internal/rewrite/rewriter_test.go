package rewrite

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"ghostwriter-workers/internal/common/genai"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockRewriter struct {
	mock.Mock
}

func (m *MockRewriter) Rewrite(ctx context.Context, instruction, text string) (string, error) {
	args := m.Called(ctx, instruction, text)
	return args.String(0), args.Error(1)
}

func TestService_RemoteConverged(t *testing.T) {
	remote := new(MockRewriter)
	local := new(MockRewriter)
	remote.On("Rewrite", mock.Anything, "instr", "original").Return("rewritten", nil)

	result, err := NewService(remote, local).Rewrite(context.Background(), "instr", "original")
	require.NoError(t, err)

	assert.Equal(t, "rewritten", result.Text)
	assert.Equal(t, StrategyRemote, result.Strategy)
	assert.True(t, result.Converged)
	local.AssertNotCalled(t, "Rewrite", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_FallsBackWhenRemoteEchoesInput(t *testing.T) {
	remote := new(MockRewriter)
	local := new(MockRewriter)
	remote.On("Rewrite", mock.Anything, "instr", "same text").Return("same text", nil)
	local.On("Rewrite", mock.Anything, "instr", "same text").Return("identical wording", nil)

	result, err := NewService(remote, local).Rewrite(context.Background(), "instr", "same text")
	require.NoError(t, err)

	assert.Equal(t, "identical wording", result.Text)
	assert.Equal(t, StrategyLocal, result.Strategy)
	assert.True(t, result.Converged)
	remote.AssertExpectations(t)
	local.AssertExpectations(t)
}

func TestService_EchoWithSurroundingWhitespaceFallsBack(t *testing.T) {
	echo := genai.GeneratorFunc(func(context.Context, string) (string, error) {
		return "The quick brown fox.\n", nil
	})
	local := new(MockRewriter)
	local.On("Rewrite", mock.Anything, "instr", "The quick brown fox.\n").Return("The fast brown fox.", nil)

	result, err := NewService(NewGeneratorRewriter(echo), local).Rewrite(context.Background(), "instr", "The quick brown fox.\n")
	require.NoError(t, err)

	assert.Equal(t, StrategyLocal, result.Strategy)
	assert.Equal(t, "The fast brown fox.", result.Text)
	assert.True(t, result.Converged)
	local.AssertExpectations(t)
}

func TestService_LocalWhitespaceOnlyChangeDoesNotConverge(t *testing.T) {
	remote := new(MockRewriter)
	local := new(MockRewriter)
	remote.On("Rewrite", mock.Anything, "instr", "  same text  ").Return("same text", nil)
	local.On("Rewrite", mock.Anything, "instr", "  same text  ").Return("same text\n", nil)

	result, err := NewService(remote, local).Rewrite(context.Background(), "instr", "  same text  ")
	require.NoError(t, err)

	assert.Equal(t, StrategyLocal, result.Strategy)
	assert.False(t, result.Converged)
}

func TestService_LocalMayAlsoFailToChangeText(t *testing.T) {
	remote := new(MockRewriter)
	local := new(MockRewriter)
	remote.On("Rewrite", mock.Anything, mock.Anything, "xyz").Return("xyz", nil)
	local.On("Rewrite", mock.Anything, mock.Anything, "xyz").Return("xyz", nil)

	result, err := NewService(remote, local).Rewrite(context.Background(), "instr", "xyz")
	require.NoError(t, err)
	assert.Equal(t, StrategyLocal, result.Strategy)
	assert.False(t, result.Converged)
}

func TestService_RemoteErrorIsReturned(t *testing.T) {
	remote := new(MockRewriter)
	local := new(MockRewriter)
	remote.On("Rewrite", mock.Anything, mock.Anything, mock.Anything).Return("", genai.ErrGenerationTimeout)

	_, err := NewService(remote, local).Rewrite(context.Background(), "instr", "text")
	assert.ErrorIs(t, err, genai.ErrGenerationTimeout)
	local.AssertNotCalled(t, "Rewrite", mock.Anything, mock.Anything, mock.Anything)
}

func TestService_EmptyText(t *testing.T) {
	_, err := NewService(new(MockRewriter), new(MockRewriter)).Rewrite(context.Background(), "instr", "  ")
	assert.Error(t, err)
}

func TestGeneratorRewriter_BuildsPrompt(t *testing.T) {
	var gotPrompt string
	g := genai.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		gotPrompt = prompt
		return "  fresh words \n", nil
	})

	out, err := NewGeneratorRewriter(g).Rewrite(context.Background(),
		"Rewrite the following content to make it original and distinct", "old words")
	require.NoError(t, err)

	assert.Equal(t, "fresh words", out)
	assert.Equal(t, "Rewrite the following content to make it original and distinct:\n\nold words", gotPrompt)
}

func TestGeneratorRewriter_PropagatesError(t *testing.T) {
	g := genai.GeneratorFunc(func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("upstream 503")
	})
	_, err := NewGeneratorRewriter(g).Rewrite(context.Background(), "i", "t")
	assert.EqualError(t, err, "upstream 503")
}

func TestBuildPrompt_TrimsTrailingPunctuation(t *testing.T) {
	assert.Equal(t, "Do it:\n\nbody", BuildPrompt("Do it.", "body"))
	assert.Equal(t, "Do it:\n\nbody", BuildPrompt(" Do it: ", "body"))
}

func TestSynonymRewriter_Paraphrase(t *testing.T) {
	r := NewSynonymRewriter(MapThesaurus{
		"happy": {"glad"},
		"dog":   {"dog", "hound"},
		"big":   {"large"},
	})

	tests := []struct {
		in   string
		want string
	}{
		{in: "a happy dog", want: "a glad hound"},
		{in: "Happy days!", want: "Glad days!"},
		{in: "BIG news, big dog.", want: "LARGE news, large hound."},
		{in: "unknown  words\tstay", want: "unknown  words\tstay"},
		{in: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, r.Paraphrase(tt.in))
		})
	}
}

func TestSynonymRewriter_DefaultThesaurus(t *testing.T) {
	r := NewSynonymRewriter(nil)
	out, err := r.Rewrite(context.Background(), "ignored", "A beautiful spring morning.")
	require.NoError(t, err)
	assert.Equal(t, "A lovely springtime dawn.", out)
}

func TestLoadThesaurus(t *testing.T) {
	path := filepath.Join(t.TempDir(), "thesaurus.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"Quick": ["rapid"]}`), 0o600))

	th, err := LoadThesaurus(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"rapid"}, th.Synonyms("quick"))

	_, err = LoadThesaurus(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}
