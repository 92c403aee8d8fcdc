package api

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/rxtech-lab/dropper-engine/internal/api/middleware"
	"github.com/rxtech-lab/dropper-engine/internal/services"
)

// handleGetVoucher issues a signed voucher for one (claim, address) pair.
func (s *APIServer) handleGetVoucher(c *fiber.Ctx) error {
	claimID := c.Query("dropper_claim_id")
	address := c.Query("address")
	if claimID == "" || address == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "dropper_claim_id and address are required",
		})
	}

	voucher, err := s.vouchers.IssueVoucher(c.Context(), claimID, address)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(voucher)
}

// handleGetBatchVouchers issues vouchers for every active claim the address
// is entitled to.
func (s *APIServer) handleGetBatchVouchers(c *fiber.Ctx) error {
	address := c.Query("address")
	if address == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "address is required",
		})
	}
	limit, offset, err := queryPage(c)
	if err != nil {
		return errorResponse(c, err)
	}

	vouchers, err := s.vouchers.IssueBatch(c.Context(), address, c.Query("blockchain"), limit, offset)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(vouchers)
}

func (s *APIServer) handleListClaims(c *fiber.Ctx) error {
	limit, offset, err := queryPage(c)
	if err != nil {
		return errorResponse(c, err)
	}

	args := services.ListClaimsArgs{
		ContractAddress: c.Query("dropper_contract_address"),
		Blockchain:      c.Query("blockchain"),
		ClaimantAddress: c.Query("claimant_address"),
		Limit:           limit,
		Offset:          offset,
	}
	if raw := c.Query("active"); raw != "" {
		active, err := strconv.ParseBool(raw)
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error": "active must be a boolean",
			})
		}
		args.Active = &active
	}

	claims, err := s.claims.ListClaims(args)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(claims)
}

func (s *APIServer) handleCreateClaim(c *fiber.Ctx) error {
	var args services.CreateClaimArgs
	if err := c.BodyParser(&args); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	claim, err := s.claims.CreateClaim(args)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(claim)
}

func (s *APIServer) handleActivateClaim(c *fiber.Ctx) error {
	claim, err := s.claims.ActivateClaim(c.Params("claim_id"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(claim)
}

func (s *APIServer) handleListContracts(c *fiber.Ctx) error {
	contracts, err := s.contracts.ListContracts(c.Query("blockchain"))
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(contracts)
}

func (s *APIServer) handleCreateContract(c *fiber.Ctx) error {
	var args services.CreateContractArgs
	if err := c.BodyParser(&args); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	contract, err := s.contracts.CreateContract(args)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(contract)
}

func (s *APIServer) handleListClaimants(c *fiber.Ctx) error {
	claimID := c.Query("dropper_claim_id")
	if claimID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "dropper_claim_id is required",
		})
	}
	limit, offset, err := queryPage(c)
	if err != nil {
		return errorResponse(c, err)
	}

	claimants, err := s.claimants.ListClaimants(claimID, limit, offset)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(claimants)
}

type addClaimantsRequest struct {
	DropperClaimID string                   `json:"dropper_claim_id"`
	Claimants      []services.ClaimantEntry `json:"claimants"`
}

func (s *APIServer) handleAddClaimants(c *fiber.Ctx) error {
	var req addClaimantsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}

	addedBy := "anonymous"
	if user := middleware.GetAuthenticatedUser(c); user != nil {
		addedBy = user.Sub
	}

	result, err := s.claimants.AddClaimants(services.AddClaimantsArgs{
		DropperClaimID: req.DropperClaimID,
		Claimants:      req.Claimants,
		AddedBy:        addedBy,
	})
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(result)
}

type removeClaimantsRequest struct {
	DropperClaimID string   `json:"dropper_claim_id"`
	Addresses      []string `json:"addresses"`
}

func (s *APIServer) handleRemoveClaimants(c *fiber.Ctx) error {
	var req removeClaimantsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	if req.DropperClaimID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "dropper_claim_id is required",
		})
	}

	removed, err := s.claimants.RemoveClaimants(req.DropperClaimID, req.Addresses)
	if err != nil {
		return errorResponse(c, err)
	}
	return c.JSON(fiber.Map{"removed": removed})
}

// queryPage reads limit/offset query params, leaving defaults to the service
// layer.
func queryPage(c *fiber.Ctx) (int, int, error) {
	limit, err := strconv.Atoi(c.Query("limit", "0"))
	if err != nil {
		return 0, 0, services.ErrInvalidPagination
	}
	offset, err := strconv.Atoi(c.Query("offset", "0"))
	if err != nil {
		return 0, 0, services.ErrInvalidPagination
	}
	return limit, offset, nil
}
