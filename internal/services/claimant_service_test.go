package services

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rxtech-lab/dropper-engine/internal/models"
)

func TestAddClaimants(t *testing.T) {
	db := setupTestDB(t)
	service := NewClaimantService(db)
	contract := createTestContract(t, db)
	claim := createTestClaim(t, db, contract.ID, 7, 1000)

	t.Run("partial success", func(t *testing.T) {
		result, err := service.AddClaimants(AddClaimantsArgs{
			DropperClaimID: claim.ID,
			Claimants: []ClaimantEntry{
				{Address: testClaimantAddress, Amount: "500"},
				{Address: "not-an-address", Amount: "100"},
				{Address: testOtherAddress, Amount: "-3"},
			},
			AddedBy: "operator-1",
		})
		require.NoError(t, err)

		require.Len(t, result.Added, 1)
		assert.Equal(t, testClaimantAddress, result.Added[0].Address)
		assert.Equal(t, "500", result.Added[0].Amount)
		assert.Equal(t, "operator-1", result.Added[0].AddedBy)

		require.Len(t, result.Rejected, 2)
		assert.Equal(t, RejectionInvalidAddress, result.Rejected[0].Reason)
		assert.Equal(t, "not-an-address", result.Rejected[0].Address)
		assert.Equal(t, RejectionInvalidAmount, result.Rejected[1].Reason)
	})

	t.Run("duplicate within one batch", func(t *testing.T) {
		result, err := service.AddClaimants(AddClaimantsArgs{
			DropperClaimID: claim.ID,
			Claimants: []ClaimantEntry{
				{Address: testOtherAddress, Amount: "100"},
				// Same address, different case: still the same claimant.
				{Address: "0xccc52ab2a456b468b9c5a1b1c1c0bfd61fd2ccc3", Amount: "200"},
			},
			AddedBy: "operator-1",
		})
		require.NoError(t, err)
		require.Len(t, result.Added, 1)
		require.Len(t, result.Rejected, 1)
		assert.Equal(t, RejectionDuplicateClaimant, result.Rejected[0].Reason)

		var count int64
		require.NoError(t, db.Model(&models.DropperClaimant{}).
			Where("dropper_claim_id = ? AND address = ?", claim.ID, testOtherAddress).
			Count(&count).Error)
		assert.Equal(t, int64(1), count, "exactly one stored row")
	})

	t.Run("duplicate across batches", func(t *testing.T) {
		result, err := service.AddClaimants(AddClaimantsArgs{
			DropperClaimID: claim.ID,
			Claimants:      []ClaimantEntry{{Address: testClaimantAddress, Amount: "999"}},
			AddedBy:        "operator-2",
		})
		require.NoError(t, err)
		assert.Empty(t, result.Added)
		require.Len(t, result.Rejected, 1)
		assert.Equal(t, RejectionDuplicateClaimant, result.Rejected[0].Reason)

		// The original entitlement is untouched.
		claimant, err := service.GetClaimant(claim.ID, testClaimantAddress)
		require.NoError(t, err)
		assert.Equal(t, "500", claimant.Amount)
		assert.Equal(t, "operator-1", claimant.AddedBy)
	})

	t.Run("raw amount preserved verbatim", func(t *testing.T) {
		otherClaim := createTestClaim(t, db, contract.ID, 9, 5000)
		wide := "1000000000000000000000000000000"
		result, err := service.AddClaimants(AddClaimantsArgs{
			DropperClaimID: otherClaim.ID,
			Claimants:      []ClaimantEntry{{Address: testClaimantAddress, Amount: wide}},
			AddedBy:        "operator-1",
		})
		require.NoError(t, err)
		require.Len(t, result.Added, 1)
		assert.Equal(t, wide, result.Added[0].Amount)
		assert.Equal(t, wide, result.Added[0].RawAmount)
	})

	t.Run("unknown claim", func(t *testing.T) {
		_, err := service.AddClaimants(AddClaimantsArgs{
			DropperClaimID: "00000000-0000-0000-0000-000000000000",
			Claimants:      []ClaimantEntry{{Address: testClaimantAddress, Amount: "1"}},
			AddedBy:        "operator-1",
		})
		assert.ErrorIs(t, err, ErrClaimNotFound)
	})
}

func TestRemoveClaimants(t *testing.T) {
	db := setupTestDB(t)
	service := NewClaimantService(db)
	contract := createTestContract(t, db)
	claim := createTestClaim(t, db, contract.ID, 7, 1000)

	_, err := service.AddClaimants(AddClaimantsArgs{
		DropperClaimID: claim.ID,
		Claimants: []ClaimantEntry{
			{Address: testClaimantAddress, Amount: "500"},
			{Address: testOtherAddress, Amount: "300"},
		},
		AddedBy: "operator-1",
	})
	require.NoError(t, err)

	t.Run("removes and reports only present addresses", func(t *testing.T) {
		removed, err := service.RemoveClaimants(claim.ID, []string{testClaimantAddress, testContractAddress})
		require.NoError(t, err)
		assert.Equal(t, []string{testClaimantAddress}, removed)
	})

	t.Run("second removal is an observable no-op", func(t *testing.T) {
		removed, err := service.RemoveClaimants(claim.ID, []string{testClaimantAddress})
		require.NoError(t, err)
		assert.Empty(t, removed)
	})

	t.Run("malformed addresses are skipped", func(t *testing.T) {
		removed, err := service.RemoveClaimants(claim.ID, []string{"garbage"})
		require.NoError(t, err)
		assert.Empty(t, removed)
	})
}

func TestRemoveClaimantsConcurrent(t *testing.T) {
	db := setupFileTestDB(t)
	service := NewClaimantService(db)
	contract := createTestContract(t, db)
	claim := createTestClaim(t, db, contract.ID, 7, 1000)

	// Two goroutines race to remove the same address; it must be reported
	// removed by exactly one of them.
	for trial := 0; trial < 20; trial++ {
		_, err := service.AddClaimants(AddClaimantsArgs{
			DropperClaimID: claim.ID,
			Claimants:      []ClaimantEntry{{Address: testClaimantAddress, Amount: "500"}},
			AddedBy:        "operator-1",
		})
		require.NoError(t, err)

		release := make(chan struct{})
		results := make(chan []string, 2)
		var ready sync.WaitGroup
		ready.Add(2)
		for i := 0; i < 2; i++ {
			go func() {
				ready.Done()
				<-release
				removed, err := service.RemoveClaimants(claim.ID, []string{testClaimantAddress})
				assert.NoError(t, err)
				results <- removed
			}()
		}
		ready.Wait()
		close(release)

		reported := 0
		for i := 0; i < 2; i++ {
			reported += len(<-results)
		}
		assert.Equal(t, 1, reported, "trial %d", trial)
	}
}

func TestGetClaimant(t *testing.T) {
	db := setupTestDB(t)
	service := NewClaimantService(db)
	contract := createTestContract(t, db)
	claim := createTestClaim(t, db, contract.ID, 7, 1000)

	_, err := service.AddClaimants(AddClaimantsArgs{
		DropperClaimID: claim.ID,
		Claimants:      []ClaimantEntry{{Address: testClaimantAddress, Amount: "500"}},
		AddedBy:        "operator-1",
	})
	require.NoError(t, err)

	t.Run("found with case-insensitive lookup", func(t *testing.T) {
		claimant, err := service.GetClaimant(claim.ID, "0xbbb52ab2a456b468b9c5a1b1c1c0bfd61fd2bbb2")
		require.NoError(t, err)
		assert.Equal(t, "500", claimant.Amount)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := service.GetClaimant(claim.ID, testOtherAddress)
		assert.ErrorIs(t, err, ErrClaimantNotFound)
	})

	t.Run("invalid address", func(t *testing.T) {
		_, err := service.GetClaimant(claim.ID, "0x12")
		assert.Error(t, err)
	})
}

func TestListClaimants(t *testing.T) {
	db := setupTestDB(t)
	service := NewClaimantService(db)
	contract := createTestContract(t, db)
	claim := createTestClaim(t, db, contract.ID, 7, 1000)

	_, err := service.AddClaimants(AddClaimantsArgs{
		DropperClaimID: claim.ID,
		Claimants: []ClaimantEntry{
			{Address: testClaimantAddress, Amount: "500"},
			{Address: testOtherAddress, Amount: "300"},
		},
		AddedBy: "operator-1",
	})
	require.NoError(t, err)

	claimants, err := service.ListClaimants(claim.ID, 10, 0)
	require.NoError(t, err)
	assert.Len(t, claimants, 2)

	page, err := service.ListClaimants(claim.ID, 1, 1)
	require.NoError(t, err)
	assert.Len(t, page, 1)
}
