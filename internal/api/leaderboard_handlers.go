package api

import (
	"github.com/gofiber/fiber/v2"

	"github.com/rxtech-lab/dropper-engine/internal/services"
)

func (s *APIServer) handleCreateLeaderboard(c *fiber.Ctx) error {
	var args services.CreateLeaderboardArgs
	if err := c.BodyParser(&args); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	board, err := s.leaderboards.CreateLeaderboard(args)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(board)
}

func (s *APIServer) handleGetScores(c *fiber.Ctx) error {
	limit, offset, err := queryPage(c)
	if err != nil {
		return errorResponse(c, err)
	}

	scores, err := s.leaderboards.GetScores(c.Params("leaderboard_id"), limit, offset)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(scores)
}

type pushScoresRequest struct {
	Scores []services.ScoreEntry `json:"scores"`
}

func (s *APIServer) handlePushScores(c *fiber.Ctx) error {
	var req pushScoresRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	scores, err := s.leaderboards.PushScores(c.Params("leaderboard_id"), req.Scores)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(scores)
}

func (s *APIServer) handleGetPosition(c *fiber.Ctx) error {
	position, err := s.leaderboards.GetPosition(c.Params("leaderboard_id"), c.Params("address"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(position)
}
