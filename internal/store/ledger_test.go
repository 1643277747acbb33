package store

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/fmigen/internal/testutil"
)

func TestRecordPackage_AssignsSeq(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	clock := testutil.NewDeterministicClock()

	seq1, inserted, err := s.RecordPackage(ctx, createTestPackage("Sine", "linux64", "aaa", clock.Now()))
	require.NoError(t, err)
	assert.True(t, inserted)

	seq2, inserted, err := s.RecordPackage(ctx, createTestPackage("Sine", "linux64", "bbb", clock.Now()))
	require.NoError(t, err)
	assert.True(t, inserted)
	assert.Greater(t, seq2, seq1)
}

func TestRecordPackage_Idempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	clock := testutil.NewDeterministicClock()

	first, _, err := s.RecordPackage(ctx, createTestPackage("Sine", "linux64", "aaa", clock.Now()))
	require.NoError(t, err)

	again, inserted, err := s.RecordPackage(ctx, createTestPackage("Sine", "linux64", "aaa", clock.Now()))
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.Equal(t, first, again)

	all, err := s.ListPackages(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestRecordPackage_SameDigestOtherPlatform(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	clock := testutil.NewDeterministicClock()

	_, _, err := s.RecordPackage(ctx, createTestPackage("Sine", "linux64", "aaa", clock.Now()))
	require.NoError(t, err)
	_, inserted, err := s.RecordPackage(ctx, createTestPackage("Sine", "darwin64", "aaa", clock.Now()))
	require.NoError(t, err)
	assert.True(t, inserted)
}

func TestListPackages(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	clock := testutil.NewDeterministicClock()

	for _, p := range []Package{
		createTestPackage("Sine", "linux64", "s1", clock.Now()),
		createTestPackage("Counter", "linux64", "c1", clock.Now()),
		createTestPackage("Sine", "linux64", "s2", clock.Now()),
	} {
		_, _, err := s.RecordPackage(ctx, p)
		require.NoError(t, err)
	}

	sine, err := s.ListPackages(ctx, "Sine")
	require.NoError(t, err)
	require.Len(t, sine, 2)
	assert.Equal(t, "s1", sine[0].SHA256)
	assert.Equal(t, "s2", sine[1].SHA256)
	assert.Equal(t, testutil.Epoch, sine[0].CreatedAt)
	assert.Equal(t, "d-s1", sine[0].DescriptionSHA256)
	assert.Equal(t, testutil.DefaultGUID, sine[0].GUID)

	all, err := s.ListPackages(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"Sine", "Counter", "Sine"}, []string{all[0].ModelName, all[1].ModelName, all[2].ModelName})
}

func TestListPackages_EmptyNotNil(t *testing.T) {
	s := createTestStore(t)

	got, err := s.ListPackages(context.Background(), "Nothing")
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLatestPackage(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()
	clock := testutil.NewDeterministicClock()

	_, _, err := s.RecordPackage(ctx, createTestPackage("Sine", "linux64", "old", clock.Now()))
	require.NoError(t, err)
	_, _, err = s.RecordPackage(ctx, createTestPackage("Sine", "linux64", "new", clock.Now()))
	require.NoError(t, err)

	latest, err := s.LatestPackage(ctx, "Sine")
	require.NoError(t, err)
	assert.Equal(t, "new", latest.SHA256)

	_, err = s.LatestPackage(ctx, "Missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}
