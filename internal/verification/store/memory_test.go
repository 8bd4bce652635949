package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"metasignet/internal/verification/models"
	"metasignet/internal/verification/store"
	"metasignet/pkg/domain"
	"metasignet/pkg/platform/sentinel"
	"metasignet/pkg/testutil"
)

func record(fp domain.Fingerprint, attester domain.ActorID) models.VerificationRecord {
	return models.VerificationRecord{
		Fingerprint:  fp,
		ContentURI:   "at://did:plc:abc/app.bsky.feed.post/3k44",
		Attester:     attester,
		CreationType: models.HumanCreated,
		Status:       models.SelfAttested,
		CreatedAt:    time.Now().UTC(),
	}
}

func TestMemoryStoreCreateIsInsertIfAbsent(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	fp := domain.Fingerprint("aaaa:")

	require.NoError(t, s.Create(ctx, record(fp, "alice.bsky.social")))

	err := s.Create(ctx, record(fp, "mallory.bsky.social"))
	require.ErrorIs(t, err, sentinel.ErrConflict)

	// First attestation wins: the original attester is untouched.
	got, err := s.Find(ctx, fp)
	require.NoError(t, err)
	assert.Equal(t, domain.ActorID("alice.bsky.social"), got.Attester)
}

func TestMemoryStoreAddVouch(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	fp := domain.Fingerprint("bbbb:")
	require.NoError(t, s.Create(ctx, record(fp, "alice.bsky.social")))

	for i := 1; i <= models.VouchThreshold-1; i++ {
		got, err := s.AddVouch(ctx, fp)
		require.NoError(t, err)
		assert.Equal(t, i, got.Vouches)
		assert.Equal(t, models.SelfAttested, got.Status)
	}

	got, err := s.AddVouch(ctx, fp)
	require.NoError(t, err)
	assert.Equal(t, models.VouchThreshold, got.Vouches)
	assert.Equal(t, models.CommunityVouched, got.Status)

	// Further vouches keep counting without a status change.
	got, err = s.AddVouch(ctx, fp)
	require.NoError(t, err)
	assert.Equal(t, models.VouchThreshold+1, got.Vouches)
	assert.Equal(t, models.CommunityVouched, got.Status)
}

func TestMemoryStoreNotFound(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	_, err := s.Find(ctx, "missing:")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)

	_, err = s.AddVouch(ctx, "missing:")
	assert.ErrorIs(t, err, sentinel.ErrNotFound)
}

func TestMemoryStoreFindByAttester(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()

	first := record("cccc:", "alice.bsky.social")
	first.CreatedAt = time.Now().Add(-time.Hour)
	second := record("dddd:", "alice.bsky.social")
	other := record("eeee:", "bob.bsky.social")

	require.NoError(t, s.Create(ctx, first))
	require.NoError(t, s.Create(ctx, second))
	require.NoError(t, s.Create(ctx, other))

	got, err := s.FindByAttester(ctx, "alice.bsky.social")
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Newest first.
	assert.Equal(t, domain.Fingerprint("dddd:"), got[0].Fingerprint)
	assert.Equal(t, domain.Fingerprint("cccc:"), got[1].Fingerprint)
}

func TestMemoryStoreConcurrentCreateRace(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	fp := domain.Fingerprint("ffff:")

	result := testutil.RunConcurrentCtx(ctx, 32, func(ctx context.Context, idx int) error {
		return s.Create(ctx, record(fp, domain.ActorID("user.bsky.social")))
	})

	assert.Equal(t, int32(1), result.Successes)
	assert.Equal(t, int32(31), result.Conflicts)
}

func TestMemoryStoreConcurrentVouchesNoLostUpdates(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemoryStore()
	fp := domain.Fingerprint("0000:")
	require.NoError(t, s.Create(ctx, record(fp, "alice.bsky.social")))

	const vouchers = 64
	result := testutil.RunConcurrentCtx(ctx, vouchers, func(ctx context.Context, idx int) error {
		_, err := s.AddVouch(ctx, fp)
		return err
	})
	require.Equal(t, int32(vouchers), result.Successes)

	got, err := s.Find(ctx, fp)
	require.NoError(t, err)
	assert.Equal(t, vouchers, got.Vouches)
	assert.Equal(t, models.CommunityVouched, got.Status)
}
