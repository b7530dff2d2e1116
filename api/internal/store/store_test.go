package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"assessment-pipeline/api/internal/testutil"
	"assessment-pipeline/api/internal/types"
)

var baseTime = time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)

func artifact(id, user string, status types.Status, offset time.Duration) types.RunArtifact {
	finished := baseTime.Add(offset + time.Second)
	dur := 1.0
	a := types.RunArtifact{
		RunID:      id,
		UserID:     user,
		Input:      testutil.SampleRequest(),
		Attempts:   []types.AttemptRecord{},
		Final:      types.FinalResult{Status: status},
		Timestamps: types.Timestamps{StartedAt: baseTime.Add(offset), FinishedAt: &finished, DurationSeconds: &dur},
		Metadata:   map[string]string{"model": "m"},
	}
	if status == types.StatusApproved {
		d := testutil.SampleDraft()
		tags := testutil.SampleTags()
		a.Final.Content = &d
		a.Final.Tags = &tags
	} else {
		a.Final.RejectionReason = "Failed review after 3 attempts. Final issues: x: y"
	}
	return a
}

// exerciseRepository checks the behaviour every Repository must share.
func exerciseRepository(t *testing.T, repo Repository) {
	ctx := context.Background()
	require.NoError(t, repo.Clear(ctx))

	_, err := repo.Get(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	st, err := repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.Stats{}, st)

	_, err = repo.Save(ctx, types.RunArtifact{})
	assert.Error(t, err)

	for _, a := range []types.RunArtifact{
		artifact("r1", "alice", types.StatusApproved, 0),
		artifact("r2", "bob", types.StatusRejected, time.Minute),
		artifact("r3", "alice", types.StatusRejected, 2*time.Minute),
	} {
		id, err := repo.Save(ctx, a)
		require.NoError(t, err)
		assert.Equal(t, a.RunID, id)
	}

	got, err := repo.Get(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, types.StatusApproved, got.Final.Status)
	require.NotNil(t, got.Final.Content)
	assert.True(t, baseTime.Equal(got.Timestamps.StartedAt))

	all, err := repo.ListAll(ctx, 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"r3", "r2", "r1"}, ids(all))

	limited, err := repo.ListAll(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"r3", "r2"}, ids(limited))

	alice, err := repo.ListByUser(ctx, "alice", 50)
	require.NoError(t, err)
	assert.Equal(t, []string{"r3", "r1"}, ids(alice))

	nobody, err := repo.ListByUser(ctx, "nobody", 50)
	require.NoError(t, err)
	assert.Empty(t, nobody)

	// upsert replaces
	flipped := artifact("r2", "bob", types.StatusApproved, time.Minute)
	_, err = repo.Save(ctx, flipped)
	require.NoError(t, err)
	got, err = repo.Get(ctx, "r2")
	require.NoError(t, err)
	assert.Equal(t, types.StatusApproved, got.Final.Status)

	st, err = repo.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 2, st.Approved)
	assert.Equal(t, 1, st.Rejected)
	assert.InDelta(t, 2.0/3.0, st.ApprovalRate, 1e-9)

	// values handed out or passed in do not alias the stored record
	in := artifact("r4", "carol", types.StatusApproved, 3*time.Minute)
	in.Attempts = []types.AttemptRecord{{Attempt: 1, Draft: testutil.SampleDraft(), Review: testutil.PassingReview(), Timestamp: baseTime}}
	_, err = repo.Save(ctx, in)
	require.NoError(t, err)
	in.Metadata["model"] = "changed"
	in.Final.Content.MCQs[0].CorrectIndex = 3

	got, err = repo.Get(ctx, "r4")
	require.NoError(t, err)
	got.Metadata["model"] = "changed"
	got.Attempts[0].Review.Feedback[0].Issue = "changed"
	got.Final.Tags.Keywords[0] = "changed"
	got.Attempts = append(got.Attempts[:0], types.AttemptRecord{Attempt: 9})

	listed, err := repo.ListByUser(ctx, "carol", 1)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	listed[0].Metadata["provider"] = "changed"

	again, err := repo.Get(ctx, "r4")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"model": "m"}, again.Metadata)
	require.Len(t, again.Attempts, 1)
	assert.Equal(t, 1, again.Attempts[0].Attempt)
	assert.Equal(t, testutil.PassingReview().Feedback[0].Issue, again.Attempts[0].Review.Feedback[0].Issue)
	assert.Equal(t, testutil.SampleTags().Keywords[0], again.Final.Tags.Keywords[0])
	assert.Equal(t, testutil.SampleDraft().MCQs[0].CorrectIndex, again.Final.Content.MCQs[0].CorrectIndex)

	require.NoError(t, repo.Clear(ctx))
	all, err = repo.ListAll(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func ids(as []types.RunArtifact) []string {
	out := make([]string, len(as))
	for i, a := range as {
		out[i] = a.RunID
	}
	return out
}

func TestFileRepo(t *testing.T) {
	repo, err := OpenFile(filepath.Join(t.TempDir(), "data", "artifacts.json"))
	require.NoError(t, err)
	exerciseRepository(t, repo)
}

func TestFileRepoPersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifacts.json")
	repo, err := OpenFile(path)
	require.NoError(t, err)
	_, err = repo.Save(context.Background(), artifact("keep", "u", types.StatusApproved, 0))
	require.NoError(t, err)

	reopened, err := OpenFile(path)
	require.NoError(t, err)
	got, err := reopened.Get(context.Background(), "keep")
	require.NoError(t, err)
	assert.Equal(t, "u", got.UserID)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files must not be left behind")
}

func TestFileRepoRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "artifacts.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o644))
	_, err := OpenFile(path)
	assert.Error(t, err)
}

func TestFileRepoConcurrentSaves(t *testing.T) {
	repo, err := OpenFile(filepath.Join(t.TempDir(), "artifacts.json"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := repo.Save(context.Background(), artifact(fmt.Sprintf("run-%02d", i), "u", types.StatusRejected, time.Duration(i)*time.Second))
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	st, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 20, st.Total)
}

func TestCachedRepo(t *testing.T) {
	file, err := OpenFile(filepath.Join(t.TempDir(), "artifacts.json"))
	require.NoError(t, err)
	repo, err := NewCached(file, 2)
	require.NoError(t, err)
	exerciseRepository(t, repo)
}

func TestCachedServesFromCache(t *testing.T) {
	ctx := context.Background()
	file, err := OpenFile(filepath.Join(t.TempDir(), "artifacts.json"))
	require.NoError(t, err)
	repo, err := NewCached(file, 4)
	require.NoError(t, err)
	c := repo.(*Cached)

	_, err = c.Save(ctx, artifact("a", "u", types.StatusApproved, 0))
	require.NoError(t, err)
	assert.Equal(t, 1, c.Len())

	// drop it underneath; the cache still answers
	require.NoError(t, file.Clear(ctx))
	got, err := c.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "a", got.RunID)

	require.NoError(t, c.Clear(ctx))
	assert.Equal(t, 0, c.Len())
	_, err = c.Get(ctx, "a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestNewCachedDisabled(t *testing.T) {
	file, err := OpenFile(filepath.Join(t.TempDir(), "artifacts.json"))
	require.NoError(t, err)
	repo, err := NewCached(file, 0)
	require.NoError(t, err)
	assert.Same(t, file, repo)
}

func TestPostgresRepo(t *testing.T) {
	dsn := os.Getenv("ASSESSMENT_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("ASSESSMENT_TEST_DATABASE_URL not set")
	}
	db, err := OpenPostgres(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	repo := NewPostgresRepo(db)
	require.NoError(t, repo.EnsureSchema(context.Background()))
	exerciseRepository(t, repo)
}

func TestSafeDSNSummary(t *testing.T) {
	assert.Equal(t, "host=db port=5432 db=runs user=app",
		SafeDSNSummary("postgres://app:secret@db:5432/runs?sslmode=disable"))
	assert.Equal(t, "host=db db=runs user=app", SafeDSNSummary("postgres://app:secret@db/runs"))
}
