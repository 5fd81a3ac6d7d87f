package handler

import (
	"go-production-inventory/internal/model"
	"go-production-inventory/internal/repository"
	"go-production-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
)

type InventoryHandler struct {
	inventory service.InventoryService
	stock     service.StockService
}

func NewInventoryHandler(inventory service.InventoryService, stock service.StockService) *InventoryHandler {
	return &InventoryHandler{inventory: inventory, stock: stock}
}

type TransferRequest struct {
	ProductID      string `json:"product_id" validate:"required,uuid"`
	FromLocationID string `json:"from_location_id" validate:"required,uuid"`
	ToLocationID   string `json:"to_location_id" validate:"required,uuid"`
	Quantity       int    `json:"quantity" validate:"gt=0"`
	Notes          string `json:"notes"`
}

type AdjustmentRequest struct {
	ProductID      string `json:"product_id" validate:"required,uuid"`
	LocationID     string `json:"location_id" validate:"required,uuid"`
	QuantityChange int    `json:"quantity_change" validate:"ne=0"`
	Reason         string `json:"reason" validate:"required,max=255"`
	Notes          string `json:"notes"`
}

const maxTransactionLimit = 500

// CreateTransfer moves stock between two locations
// POST /api/v1/inventory/transfers
func (h *InventoryHandler) CreateTransfer(c *fiber.Ctx) error {
	var req TransferRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	if err := validateRequest(&req); err != nil {
		return respondError(c, err)
	}

	input := service.TransferInput{Quantity: req.Quantity, Notes: req.Notes}
	var err error
	if input.ProductID, err = parseUUID(req.ProductID, "product_id"); err != nil {
		return respondError(c, err)
	}
	if input.FromLocationID, err = parseUUID(req.FromLocationID, "from_location_id"); err != nil {
		return respondError(c, err)
	}
	if input.ToLocationID, err = parseUUID(req.ToLocationID, "to_location_id"); err != nil {
		return respondError(c, err)
	}

	result, err := h.inventory.Transfer(c.UserContext(), actorFrom(c), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Transfer recorded", "data": result})
}

// CreateAdjustment corrects stock at a location
// POST /api/v1/inventory/adjustments
func (h *InventoryHandler) CreateAdjustment(c *fiber.Ctx) error {
	var req AdjustmentRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	if err := validateRequest(&req); err != nil {
		return respondError(c, err)
	}

	input := service.AdjustInput{QuantityChange: req.QuantityChange, Reason: req.Reason, Notes: req.Notes}
	var err error
	if input.ProductID, err = parseUUID(req.ProductID, "product_id"); err != nil {
		return respondError(c, err)
	}
	if input.LocationID, err = parseUUID(req.LocationID, "location_id"); err != nil {
		return respondError(c, err)
	}

	entry, err := h.inventory.Adjust(c.UserContext(), actorFrom(c), input)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Adjustment recorded", "data": entry})
}

// GetAdjustmentReasons returns the reasons the UI offers by default
// GET /api/v1/inventory/adjustment-reasons
func (h *InventoryHandler) GetAdjustmentReasons(c *fiber.Ctx) error {
	return c.JSON(model.CommonAdjustmentReasons)
}

// GetTransactions lists ledger entries, newest first
// GET /api/v1/inventory/transactions?product_id=&location_id=&type=&reference_id=&limit=
func (h *InventoryHandler) GetTransactions(c *fiber.Ctx) error {
	var filter repository.TransactionFilter
	var err error
	if filter.ProductID, err = queryUUID(c, "product_id"); err != nil {
		return respondError(c, err)
	}
	if filter.LocationID, err = queryUUID(c, "location_id"); err != nil {
		return respondError(c, err)
	}
	if filter.ReferenceID, err = queryUUID(c, "reference_id"); err != nil {
		return respondError(c, err)
	}
	if t := c.Query("type"); t != "" {
		txType := model.TransactionType(t)
		filter.Type = &txType
	}
	filter.Limit = c.QueryInt("limit", 100)
	if filter.Limit <= 0 || filter.Limit > maxTransactionLimit {
		filter.Limit = maxTransactionLimit
	}

	transactions, err := h.stock.ListTransactions(c.UserContext(), filter)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(transactions)
}

// GetTransaction returns one ledger entry
// GET /api/v1/inventory/transactions/:id
func (h *InventoryHandler) GetTransaction(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}
	tx, err := h.stock.GetTransaction(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(tx)
}

// GetStock returns derived stock for a product, optionally at one location
// GET /api/v1/inventory/stock?product_id=&location_id=
func (h *InventoryHandler) GetStock(c *fiber.Ctx) error {
	productID, err := parseUUID(c.Query("product_id"), "product_id")
	if err != nil {
		return respondError(c, err)
	}
	locationID, err := queryUUID(c, "location_id")
	if err != nil {
		return respondError(c, err)
	}

	quantity, err := h.stock.CurrentStock(c.UserContext(), productID, locationID)
	if err != nil {
		return respondError(c, err)
	}

	body := fiber.Map{"product_id": productID, "quantity": quantity}
	if locationID != nil {
		body["location_id"] = *locationID
	}
	return c.JSON(body)
}

// GetStockSummary returns every active product with its per-location stock
// GET /api/v1/inventory/summary
func (h *InventoryHandler) GetStockSummary(c *fiber.Ctx) error {
	summary, err := h.stock.SummaryByProduct(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}
