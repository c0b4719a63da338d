package checkoriginality

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"ghostwriter-workers/internal/common/errors"
	"ghostwriter-workers/internal/common/logger"
	"ghostwriter-workers/internal/common/session"
	"ghostwriter-workers/internal/common/validation"
	"ghostwriter-workers/internal/models"
	"ghostwriter-workers/internal/originality"
	"ghostwriter-workers/pkg/registry"

	"github.com/alicebob/miniredis/v2"
	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/pb"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) Search(ctx context.Context, query string) ([]models.SearchSnippet, error) {
	args := m.Called(ctx, query)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SearchSnippet), args.Error(1)
}

var testNow = time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)

func newTestHandler(t *testing.T, searcher *MockSearcher) (*Handler, *session.RedisStore) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	store := session.NewRedisStore(rdb, time.Hour)

	h, err := NewHandler(DefaultConfig(), Dependencies{
		Searcher:  searcher,
		Scorer:    originality.NewScorer(originality.DefaultOptions()),
		Store:     store,
		Validator: validation.NewValidator(registry.Default().InputSchemas()),
		Logger:    logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	return h, store
}

func snippets(lengths ...int) []models.SearchSnippet {
	out := make([]models.SearchSnippet, 0, len(lengths))
	for i, n := range lengths {
		out = append(out, models.SearchSnippet{
			Title:   fmt.Sprintf("result %d", i),
			URL:     fmt.Sprintf("https://example.com/%d", i),
			Snippet: strings.Repeat("a", n),
		})
	}
	return out
}

func requireCode(t *testing.T, err error, code errors.ErrorCode) {
	t.Helper()
	require.Error(t, err)
	var stdErr *errors.StandardError
	require.True(t, stderrors.As(err, &stdErr), "expected StandardError, got %T", err)
	assert.Equal(t, code, stdErr.Code)
}

func TestHandler_Execute_ScoresSearchResults(t *testing.T) {
	searcher := new(MockSearcher)
	h, _ := newTestHandler(t, searcher)

	results := snippets(201, 50, 300, 200, 250, 999, 999)
	searcher.On("Search", mock.Anything, "Some generated text").Return(results, nil)

	out, err := h.Execute(context.Background(), &Input{Content: "Some generated text"})
	require.NoError(t, err)

	// Matches among the first five: 201, 300, 250. The later 999s are ignored.
	assert.Equal(t, 70, out.Score)
	assert.Equal(t, out.Score, out.Assessment.Score)
	assert.Len(t, out.ConsideredSnippets, 5)
	assert.Equal(t, results[:5], out.ConsideredSnippets)
	assert.True(t, out.SimilarContentFound)
	assert.Equal(t, 7, out.ResultCount)
	assert.Empty(t, out.SearchError)
	searcher.AssertExpectations(t)
}

func TestHandler_Execute_NoResults(t *testing.T) {
	searcher := new(MockSearcher)
	h, _ := newTestHandler(t, searcher)
	searcher.On("Search", mock.Anything, mock.Anything).Return([]models.SearchSnippet{}, nil)

	out, err := h.Execute(context.Background(), &Input{Content: "unique words"})
	require.NoError(t, err)
	assert.Equal(t, 100, out.Score)
	assert.NotNil(t, out.ConsideredSnippets)
	assert.Empty(t, out.ConsideredSnippets)
	assert.False(t, out.SimilarContentFound)
}

func TestHandler_Execute_SearchFailureScoresAsOriginal(t *testing.T) {
	searcher := new(MockSearcher)
	h, _ := newTestHandler(t, searcher)
	searcher.On("Search", mock.Anything, mock.Anything).Return(nil, fmt.Errorf("search API returned 403: quota"))

	out, err := h.Execute(context.Background(), &Input{Content: "text"})
	require.NoError(t, err)
	assert.Equal(t, 100, out.Score)
	assert.Empty(t, out.ConsideredSnippets)
	assert.Zero(t, out.ResultCount)
	assert.Contains(t, out.SearchError, "403")
}

func TestHandler_Execute_UsesSessionText(t *testing.T) {
	searcher := new(MockSearcher)
	h, store := newTestHandler(t, searcher)

	sess := models.NewSession("s-1", testNow)
	sess.RecordGeneration("stored draft", testNow)
	require.NoError(t, store.Save(context.Background(), sess))

	searcher.On("Search", mock.Anything, "stored draft").Return(snippets(10), nil)

	out, err := h.Execute(context.Background(), &Input{SessionID: "s-1"})
	require.NoError(t, err)
	assert.Equal(t, 100, out.Score)
	assert.True(t, out.SimilarContentFound)
	searcher.AssertExpectations(t)
}

func TestHandler_Execute_ContentErrors(t *testing.T) {
	searcher := new(MockSearcher)
	h, store := newTestHandler(t, searcher)
	require.NoError(t, store.Save(context.Background(), models.NewSession("empty", testNow)))

	_, err := h.Execute(context.Background(), &Input{SessionID: "missing"})
	requireCode(t, err, errors.ErrCodeSessionNotFound)

	_, err = h.Execute(context.Background(), &Input{SessionID: "empty"})
	requireCode(t, err, errors.ErrCodeNoContent)

	_, err = h.Execute(context.Background(), &Input{})
	requireCode(t, err, errors.ErrCodeNoContent)

	searcher.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestHandler_ParseInput(t *testing.T) {
	h, _ := newTestHandler(t, new(MockSearcher))

	vars, _ := json.Marshal(map[string]interface{}{"sessionId": "s-1", "content": "text"})
	input, err := h.parseInput(entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 1, Type: TaskType, Variables: string(vars)}})
	require.NoError(t, err)
	assert.Equal(t, "text", input.Content)

	_, err = h.parseInput(entities.Job{ActivatedJob: &pb.ActivatedJob{Key: 2, Type: TaskType, Variables: `{"content": ["a"]}`}})
	requireCode(t, err, errors.ErrCodeInvalidInput)
}

func TestOutput_WorkflowVariables(t *testing.T) {
	out := &Output{
		Assessment:         models.OriginalityAssessment{Score: 90, ConsideredSnippets: []models.SearchSnippet{}},
		Score:              90,
		ConsideredSnippets: []models.SearchSnippet{},
		ResultCount:        1,
	}
	data, err := json.Marshal(out)
	require.NoError(t, err)

	var vars map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &vars))
	assert.Equal(t, float64(90), vars["score"])
	assert.Equal(t, []interface{}{}, vars["consideredSnippets"])
	assert.NotContains(t, vars, "searchError")
}
