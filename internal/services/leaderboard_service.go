package services

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rxtech-lab/dropper-engine/internal/models"
	"github.com/rxtech-lab/dropper-engine/internal/utils"
)

// LeaderboardService owns the leaderboard entity family. Entirely separate
// from the dropper entities; no shared invariants.
type LeaderboardService interface {
	CreateLeaderboard(args CreateLeaderboardArgs) (*models.Leaderboard, error)
	GetLeaderboard(id string) (*models.Leaderboard, error)
	PushScores(leaderboardID string, scores []ScoreEntry) ([]models.LeaderboardScore, error)
	GetScores(leaderboardID string, limit, offset int) ([]models.LeaderboardScore, error)
	GetPosition(leaderboardID, address string) (*LeaderboardPosition, error)
}

type CreateLeaderboardArgs struct {
	Title       string `json:"title" validate:"required"`
	Description string `json:"description,omitempty"`
	ResourceID  string `json:"resource_id,omitempty"`
}

type ScoreEntry struct {
	Address    string      `json:"address" validate:"required"`
	Score      int64       `json:"score"`
	PointsData models.JSON `json:"points_data,omitempty"`
}

type LeaderboardPosition struct {
	Address string `json:"address"`
	Score   int64  `json:"score"`
	Rank    int64  `json:"rank"`
}

type leaderboardService struct {
	db        *gorm.DB
	validator *validator.Validate
}

func NewLeaderboardService(db *gorm.DB) LeaderboardService {
	return &leaderboardService{db: db, validator: validator.New()}
}

func (s *leaderboardService) CreateLeaderboard(args CreateLeaderboardArgs) (*models.Leaderboard, error) {
	if err := s.validator.Struct(args); err != nil {
		return nil, err
	}

	board := &models.Leaderboard{
		ID:          uuid.New().String(),
		Title:       args.Title,
		Description: args.Description,
		ResourceID:  args.ResourceID,
	}
	if err := s.db.Create(board).Error; err != nil {
		return nil, err
	}
	return board, nil
}

func (s *leaderboardService) GetLeaderboard(id string) (*models.Leaderboard, error) {
	var board models.Leaderboard
	err := s.db.Where("id = ?", id).First(&board).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrLeaderboardNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &board, nil
}

// PushScores upserts scores in bulk: an address already on the board gets its
// score and points data replaced in place.
func (s *leaderboardService) PushScores(leaderboardID string, scores []ScoreEntry) ([]models.LeaderboardScore, error) {
	if _, err := s.GetLeaderboard(leaderboardID); err != nil {
		return nil, err
	}

	rows := make([]models.LeaderboardScore, 0, len(scores))
	for _, entry := range scores {
		address, err := utils.NormalizeAddress(entry.Address)
		if err != nil {
			return nil, err
		}
		rows = append(rows, models.LeaderboardScore{
			ID:            uuid.New().String(),
			LeaderboardID: leaderboardID,
			Address:       address,
			Score:         entry.Score,
			PointsData:    entry.PointsData,
		})
	}
	if len(rows) == 0 {
		return rows, nil
	}

	err := s.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "leaderboard_id"}, {Name: "address"}},
		DoUpdates: clause.AssignmentColumns([]string{"score", "points_data", "updated_at"}),
	}).Create(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (s *leaderboardService) GetScores(leaderboardID string, limit, offset int) ([]models.LeaderboardScore, error) {
	limit, offset, err := normalizePage(limit, offset)
	if err != nil {
		return nil, err
	}

	var scores []models.LeaderboardScore
	err = s.db.
		Where("leaderboard_id = ?", leaderboardID).
		Order("score DESC").Limit(limit).Offset(offset).
		Find(&scores).Error
	return scores, err
}

// GetPosition returns an address's rank: 1 + the number of strictly higher
// scores on the same board.
func (s *leaderboardService) GetPosition(leaderboardID, address string) (*LeaderboardPosition, error) {
	normalized, err := utils.NormalizeAddress(address)
	if err != nil {
		return nil, err
	}

	var score models.LeaderboardScore
	err = s.db.Where("leaderboard_id = ? AND address = ?", leaderboardID, normalized).First(&score).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: address %s", ErrLeaderboardNotFound, normalized)
	}
	if err != nil {
		return nil, err
	}

	var higher int64
	err = s.db.Model(&models.LeaderboardScore{}).
		Where("leaderboard_id = ? AND score > ?", leaderboardID, score.Score).
		Count(&higher).Error
	if err != nil {
		return nil, err
	}

	return &LeaderboardPosition{
		Address: normalized,
		Score:   score.Score,
		Rank:    higher + 1,
	}, nil
}
