package services

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rxtech-lab/dropper-engine/internal/models"
)

const (
	testContractAddress = "0xAAA52AB2A456B468B9c5a1b1C1C0bFD61fD2AAA1"
	testClaimantAddress = "0xBBB52AB2a456b468b9C5A1B1c1c0Bfd61fd2BBB2"
	testOtherAddress    = "0xCCC52ab2A456B468B9C5a1b1C1C0BFd61Fd2CCC3"
)

func setupTestDB(t *testing.T) *gorm.DB {
	// Use in-memory SQLite database for testing
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err, "Failed to connect to in-memory database")

	err = db.AutoMigrate(
		&models.DropperContract{},
		&models.DropperClaim{},
		&models.DropperClaimant{},
		&models.Leaderboard{},
		&models.LeaderboardScore{},
	)
	require.NoError(t, err, "Failed to run migrations")

	if testing.Verbose() {
		db = db.Debug()
	}

	return db
}

// setupFileTestDB opens a file-backed database through the production
// DBService constructor. Concurrency tests need this: the in-memory database
// hands every pooled connection its own empty store.
func setupFileTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dbService, err := NewSqliteDBService(filepath.Join(t.TempDir(), "dropper.db"))
	require.NoError(t, err, "Failed to open file-backed database")
	t.Cleanup(func() { dbService.Close() })
	return dbService.GetDB()
}

func createTestContract(t *testing.T, db *gorm.DB) *models.DropperContract {
	t.Helper()
	contract, err := NewContractService(db).CreateContract(CreateContractArgs{
		Blockchain: "ethereum",
		Address:    testContractAddress,
		Title:      "Test Dropper",
	})
	require.NoError(t, err)
	return contract
}

func createTestClaim(t *testing.T, db *gorm.DB, contractID string, claimID, deadline int64) *models.DropperClaim {
	t.Helper()
	claim, err := NewClaimService(db).CreateClaim(CreateClaimArgs{
		DropperContractID:  contractID,
		Title:              "Test Drop",
		ClaimID:            &claimID,
		ClaimBlockDeadline: &deadline,
	})
	require.NoError(t, err)
	return claim
}
