package handler

import (
	"go-production-inventory/internal/model"
	"go-production-inventory/internal/service"

	"github.com/gofiber/fiber/v2"
)

type CatalogHandler struct {
	service service.CatalogService
}

func NewCatalogHandler(s service.CatalogService) *CatalogHandler {
	return &CatalogHandler{service: s}
}

type ProductRequest struct {
	SKU  string `json:"sku"`
	Name string `json:"name"`
	Size string `json:"size"`
	Unit string `json:"unit"`
}

type LocationRequest struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

type CoPackerRequest struct {
	Name         string `json:"name"`
	ContactNotes string `json:"contact_notes"`
}

func (h *CatalogHandler) CreateProduct(c *fiber.Ctx) error {
	var req ProductRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	product := model.Product{SKU: req.SKU, Name: req.Name, Size: req.Size, Unit: req.Unit}
	if err := h.service.CreateProduct(c.UserContext(), actorFrom(c), &product); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Product created", "data": product})
}

func (h *CatalogHandler) GetProducts(c *fiber.Ctx) error {
	products, err := h.service.ListProducts(c.UserContext(), c.QueryBool("include_inactive", false))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(products)
}

func (h *CatalogHandler) DeactivateProduct(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.DeactivateProduct(c.UserContext(), actorFrom(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Product deactivated"})
}

func (h *CatalogHandler) CreateLocation(c *fiber.Ctx) error {
	var req LocationRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	location := model.Location{Name: req.Name, Type: model.LocationType(req.Type)}
	if err := h.service.CreateLocation(c.UserContext(), actorFrom(c), &location); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Location created", "data": location})
}

func (h *CatalogHandler) GetLocations(c *fiber.Ctx) error {
	locations, err := h.service.ListLocations(c.UserContext(), c.QueryBool("include_inactive", false))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(locations)
}

func (h *CatalogHandler) DeactivateLocation(c *fiber.Ctx) error {
	id, err := paramID(c)
	if err != nil {
		return respondError(c, err)
	}
	if err := h.service.DeactivateLocation(c.UserContext(), actorFrom(c), id); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Location deactivated"})
}

func (h *CatalogHandler) CreateCoPacker(c *fiber.Ctx) error {
	var req CoPackerRequest
	if err := c.BodyParser(&req); err != nil {
		return invalidJSON(c)
	}
	partner := model.CoPackerPartner{Name: req.Name, ContactNotes: req.ContactNotes}
	if err := h.service.CreateCoPacker(c.UserContext(), actorFrom(c), &partner); err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Co-packer created", "data": partner})
}

func (h *CatalogHandler) GetCoPackers(c *fiber.Ctx) error {
	partners, err := h.service.ListCoPackers(c.UserContext())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(partners)
}
