package handler

import (
	"fmt"

	"go-production-inventory/internal/model"
	"go-production-inventory/internal/repository"
	"go-production-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
)

type BatchHandler struct {
	batches service.BatchService
	qc      service.QCService
}

func NewBatchHandler(batches service.BatchService, qc service.QCService) *BatchHandler {
	return &BatchHandler{batches: batches, qc: qc}
}

type AllocationRequest struct {
	LocationID string `json:"location_id"`
	Quantity   int    `json:"quantity"`
}

type CreateBatchRequest struct {
	ProductID            string              `json:"product_id" validate:"required,uuid"`
	ProductionDate       string              `json:"production_date" validate:"required,datetime=2006-01-02"`
	ProductionSource     string              `json:"production_source" validate:"required,oneof=IN_HOUSE CO_PACKER"`
	TotalUnits           int                 `json:"total_units" validate:"gt=0"`
	CoPackerPartnerID    *string             `json:"co_packer_partner_id"`
	CoPackerLotNumber    string              `json:"co_packer_lot_number" validate:"max=100"`
	CoPackerReceivedDate *string             `json:"co_packer_received_date"`
	Notes                string              `json:"notes"`
	Allocations          []AllocationRequest `json:"allocations"`
}

type EditBatchRequest struct {
	TotalUnits     *int                 `json:"total_units"`
	Notes          *string              `json:"notes"`
	ProductionDate *string              `json:"production_date"`
	Allocations    *[]AllocationRequest `json:"allocations"`
}

type TransitionRequest struct {
	Status string `json:"status" validate:"required"`
}

type DeleteBatchRequest struct {
	Reason string `json:"reason" validate:"required"`
}

type SubmitTestRequest struct {
	TestType string           `json:"test_type" validate:"required,oneof=PH VISUAL_TASTE"`
	PhLevel  *decimal.Decimal `json:"ph_level"`
	Passed   bool             `json:"passed"`
	Notes    string           `json:"notes"`
}

func toAllocationInputs(reqs []AllocationRequest) ([]service.AllocationInput, error) {
	inputs := make([]service.AllocationInput, 0, len(reqs))
	for i, r := range reqs {
		id, err := parseUUID(r.LocationID, fmt.Sprintf("allocations[%d].location_id", i))
		if err != nil {
			return nil, err
		}
		inputs = append(inputs, service.AllocationInput{LocationID: id, Quantity: r.Quantity})
	}
	return inputs, nil
}

func (req *CreateBatchRequest) toInput() (service.CreateBatchInput, error) {
	var input service.CreateBatchInput
	var err error

	if input.ProductID, err = parseUUID(req.ProductID, "product_id"); err != nil {
		return input, err
	}
	if input.ProductionDate, err = parseDate(req.ProductionDate, "production_date"); err != nil {
		return input, err
	}
	if input.CoPackerPartnerID, err = parseOptionalUUID(req.CoPackerPartnerID, "co_packer_partner_id"); err != nil {
		return input, err
	}
	if input.CoPackerReceivedDate, err = parseOptionalDate(req.CoPackerReceivedDate, "co_packer_received_date"); err != nil {
		return input, err
	}
	if input.Allocations, err = toAllocationInputs(req.Allocations); err != nil {
		return input, err
	}
	input.Source = model.ProductionSource(req.ProductionSource)
	input.TotalUnits = req.TotalUnits
	input.CoPackerLotNumber = req.CoPackerLotNumber
	input.Notes = req.Notes
	return input, nil
}

// CreateBatch plans a new batch
// POST /api/v1/batches
func (h *BatchHandler) CreateBatch(c *fiber.Ctx) error {
	var req CreateBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	if err := validateRequest(&req); err != nil {
		return respondError(c, err)
	}
	input, err := req.toInput()
	if err != nil {
		return respondError(c, err)
	}

	batch, err := h.batches.CreateBatch(c.UserContext(), actorFrom(c), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Batch created", "data": batch})
}

// GetBatches lists batches
// GET /api/v1/batches?status=&product_id=&include_inactive=
func (h *BatchHandler) GetBatches(c *fiber.Ctx) error {
	var filter repository.BatchFilter
	if status := c.Query("status"); status != "" {
		s := model.BatchStatus(status)
		if !s.Valid() {
			return respondError(c, validationQuery("status"))
		}
		filter.Status = &s
	}
	productID, err := queryUUID(c, "product_id")
	if err != nil {
		return respondError(c, err)
	}
	filter.ProductID = productID
	filter.IncludeInactive = c.QueryBool("include_inactive", false)

	batches, err := h.batches.ListBatches(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(batches)
}

// GetBatch returns one batch with allocations and QC history, deleted or not
// GET /api/v1/batches/:id
func (h *BatchHandler) GetBatch(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}
	batch, err := h.batches.GetBatch(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(batch)
}

// UpdateBatch edits a batch that has not reached QC yet
// PUT /api/v1/batches/:id
func (h *BatchHandler) UpdateBatch(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req EditBatchRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}

	input := service.EditBatchInput{TotalUnits: req.TotalUnits, Notes: req.Notes}
	if input.ProductionDate, err = parseOptionalDate(req.ProductionDate, "production_date"); err != nil {
		return respondError(c, err)
	}
	if req.Allocations != nil {
		allocations, err := toAllocationInputs(*req.Allocations)
		if err != nil {
			return respondError(c, err)
		}
		input.Allocations = &allocations
	}

	batch, err := h.batches.EditBatch(c.UserContext(), actorFrom(c), id, input)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Batch updated", "data": batch})
}

// DeleteBatch soft-deletes a batch
// DELETE /api/v1/batches/:id
func (h *BatchHandler) DeleteBatch(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req DeleteBatchRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return invalidJSON(c)
		}
	}
	if req.Reason == "" {
		req.Reason = c.Query("reason")
	}
	if err := validateRequest(&req); err != nil {
		return respondError(c, err)
	}

	batch, err := h.batches.SoftDeleteBatch(c.UserContext(), actorFrom(c), id, req.Reason)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Batch deleted", "data": batch})
}

// TransitionBatch moves a batch to another status
// POST /api/v1/batches/:id/transition
func (h *BatchHandler) TransitionBatch(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req TransitionRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	if err := validateRequest(&req); err != nil {
		return respondError(c, err)
	}

	batch, err := h.batches.Transition(c.UserContext(), actorFrom(c), id, model.BatchStatus(req.Status))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Batch status updated", "data": batch})
}

// SubmitTest records a QC test
// POST /api/v1/batches/:id/qc-tests
func (h *BatchHandler) SubmitTest(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}
	var req SubmitTestRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	if err := validateRequest(&req); err != nil {
		return respondError(c, err)
	}

	result, err := h.qc.SubmitTest(c.UserContext(), actorFrom(c), id, service.SubmitTestInput{
		Type:    model.QCTestType(req.TestType),
		PhLevel: req.PhLevel,
		Passed:  req.Passed,
		Notes:   req.Notes,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "QC test recorded", "data": result})
}

// GetTests lists a batch's QC tests, oldest first
// GET /api/v1/batches/:id/qc-tests
func (h *BatchHandler) GetTests(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}
	tests, err := h.qc.ListTests(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tests)
}
