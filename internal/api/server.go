package api

import (
	"errors"
	"fmt"
	"log"
	"net"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"

	"github.com/rxtech-lab/dropper-engine/internal/api/middleware"
	"github.com/rxtech-lab/dropper-engine/internal/dropper"
	"github.com/rxtech-lab/dropper-engine/internal/services"
	"github.com/rxtech-lab/dropper-engine/internal/signer"
	"github.com/rxtech-lab/dropper-engine/internal/utils"
)

type APIServer struct {
	app          *fiber.App
	contracts    services.ContractService
	claims       services.ClaimService
	claimants    services.ClaimantService
	vouchers     services.VoucherService
	leaderboards services.LeaderboardService
	port         int
}

// ServerConfig wires the optional pieces of the HTTP surface. A nil
// Authenticator leaves the mutating routes open, which is only acceptable in
// tests and local development.
type ServerConfig struct {
	Authenticator *utils.JwtAuthenticator
	ResourceID    string
}

func NewAPIServer(
	contracts services.ContractService,
	claims services.ClaimService,
	claimants services.ClaimantService,
	vouchers services.VoucherService,
	leaderboards services.LeaderboardService,
	cfg ServerConfig,
) *APIServer {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	// Add middleware
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		Format:     "[${time}] ${status} - ${latency} ${method} ${path}\n",
		TimeFormat: "15:04:05",
		TimeZone:   "Local",
	}))

	server := &APIServer{
		app:          app,
		contracts:    contracts,
		claims:       claims,
		claimants:    claimants,
		vouchers:     vouchers,
		leaderboards: leaderboards,
	}
	server.setupRoutes(cfg)
	return server
}

func (s *APIServer) setupRoutes(cfg ServerConfig) {
	// Public routes: no credentials needed to read drop data or fetch a
	// voucher, since a voucher is only useful to its claimant on-chain.
	s.app.Get("/ping", s.handlePing)
	s.app.Get("/time", s.handleTime)
	s.app.Get("/health", s.handlePing)

	s.app.Get("/drops", s.handleGetVoucher)
	s.app.Get("/drops/batch", s.handleGetBatchVouchers)
	s.app.Get("/drops/claims", s.handleListClaims)
	s.app.Get("/drops/contracts", s.handleListContracts)

	s.app.Get("/leaderboards/:leaderboard_id/scores", s.handleGetScores)
	s.app.Get("/leaderboards/:leaderboard_id/position/:address", s.handleGetPosition)

	// Mutating routes require a Bearer token when an authenticator is
	// configured.
	authed := s.app.Group("")
	if cfg.Authenticator != nil {
		authed.Use(middleware.AuthMiddleware(middleware.AuthConfig{
			JWTAuthenticator: cfg.Authenticator,
			ResourceID:       cfg.ResourceID,
		}))
	}

	authed.Post("/drops/contracts", s.handleCreateContract)
	authed.Post("/drops/claims", s.handleCreateClaim)
	authed.Post("/drops/claims/:claim_id/activate", s.handleActivateClaim)
	authed.Get("/drops/claimants", s.handleListClaimants)
	authed.Post("/drops/claimants", s.handleAddClaimants)
	authed.Delete("/drops/claimants", s.handleRemoveClaimants)

	authed.Post("/leaderboards", s.handleCreateLeaderboard)
	authed.Put("/leaderboards/:leaderboard_id/scores", s.handlePushScores)
}

func (s *APIServer) handlePing(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (s *APIServer) handleTime(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"epoch_time": time.Now().Unix()})
}

// errorResponse maps service sentinels onto HTTP statuses in one place so
// handlers stay thin.
func errorResponse(c *fiber.Ctx, err error) error {
	var validationErrs validator.ValidationErrors

	switch {
	case errors.Is(err, services.ErrContractNotFound),
		errors.Is(err, services.ErrClaimNotFound),
		errors.Is(err, services.ErrClaimantNotFound),
		errors.Is(err, services.ErrLeaderboardNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrDuplicateContract),
		errors.Is(err, services.ErrActiveSlotConflict):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidPagination),
		errors.Is(err, services.ErrInvalidAmount),
		errors.Is(err, utils.ErrInvalidAddress),
		errors.Is(err, dropper.ErrIncompleteClaim),
		errors.Is(err, dropper.ErrInvalidAddress),
		errors.Is(err, dropper.ErrInvalidAmount),
		errors.As(err, &validationErrs):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, signer.ErrSignerUnavailable):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "signer unavailable"})
	case errors.Is(err, signer.ErrSigningFailed):
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "signing failed"})
	default:
		log.Printf("internal error on %s %s: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal server error"})
	}
}

// Start listens on the given port, or a random available port when port is 0.
// Returns the bound port.
func (s *APIServer) Start(port int) (int, error) {
	if port == 0 {
		listener, err := net.Listen("tcp", ":0")
		if err != nil {
			return 0, fmt.Errorf("failed to find available port: %w", err)
		}
		port = listener.Addr().(*net.TCPAddr).Port
		listener.Close()
	}
	s.port = port

	go func() {
		if err := s.app.Listen(fmt.Sprintf(":%d", port)); err != nil {
			log.Printf("Error starting API server: %v\n", err)
		}
	}()

	return port, nil
}

func (s *APIServer) Shutdown() error {
	return s.app.Shutdown()
}

func (s *APIServer) GetPort() int {
	return s.port
}

// App exposes the underlying Fiber app for in-process testing.
func (s *APIServer) App() *fiber.App {
	return s.app
}
