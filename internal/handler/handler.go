package handler

import (
	"time"

	"go-production-inventory/internal/apperror"
	"go-production-inventory/internal/middleware"
	"go-production-inventory/internal/service"
	"go-production-inventory/pkg/validator"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

// actorFrom builds the acting user from the locals RequireAuth sets.
func actorFrom(c *fiber.Ctx) service.Actor {
	userID, _ := c.Locals(middleware.LocalUserID).(string)
	role, _ := c.Locals(middleware.LocalUserRole).(string)
	return service.Actor{UserID: userID, Role: role}
}

// statusFor maps an error kind to its HTTP status.
func statusFor(kind apperror.Kind) int {
	switch kind {
	case apperror.KindValidation:
		return fiber.StatusBadRequest
	case apperror.KindBusinessRule:
		return fiber.StatusConflict
	case apperror.KindUnauthorized:
		return fiber.StatusForbidden
	case apperror.KindNotFound:
		return fiber.StatusNotFound
	case apperror.KindTransient:
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err as JSON. Core errors keep their message and metadata; anything else
// is reported as a generic internal error.
func respondError(c *fiber.Ctx, err error) error {
	appErr, ok := apperror.As(err)
	if !ok || appErr.Kind() == apperror.KindInternal {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal Server Error"})
	}

	body := fiber.Map{
		"error": appErr.Message,
		"code":  appErr.Code,
	}
	if len(appErr.Metadata) > 0 {
		body["details"] = appErr.Metadata
	}
	return c.Status(statusFor(appErr.Kind())).JSON(body)
}

func invalidJSON(c *fiber.Ctx) error {
	return respondError(c, apperror.New(apperror.CodeValidation, "Invalid JSON"))
}

// validateRequest runs struct validation and returns the first failure as VALIDATION_ERROR.
func validateRequest(req interface{}) error {
	errs := validator.ValidateStruct(req)
	if len(errs) == 0 {
		return nil
	}
	first := errs[0]
	return apperror.WithMetadata(apperror.CodeValidation, "validation failed: "+first.String(),
		map[string]string{"Field": first.FailedField, "Rule": first.Tag})
}

func parseUUID(value, field string) (uuid.UUID, error) {
	id, err := uuid.Parse(value)
	if err != nil {
		return uuid.Nil, apperror.Validation(field, "must be a valid UUID")
	}
	return id, nil
}

func parseOptionalUUID(value *string, field string) (*uuid.UUID, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	id, err := parseUUID(*value, field)
	if err != nil {
		return nil, err
	}
	return &id, nil
}

func parseDate(value, field string) (time.Time, error) {
	t, err := time.Parse(dateLayout, value)
	if err != nil {
		return time.Time{}, apperror.Validation(field, "must be a date formatted YYYY-MM-DD")
	}
	return t, nil
}

func parseOptionalDate(value *string, field string) (*time.Time, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	t, err := parseDate(*value, field)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// paramID parses the :id route parameter.
func paramID(c *fiber.Ctx) (uuid.UUID, error) {
	return parseUUID(c.Params("id"), "id")
}

// queryUUID parses an optional UUID query parameter.
func queryUUID(c *fiber.Ctx, key string) (*uuid.UUID, error) {
	value := c.Query(key)
	return parseOptionalUUID(&value, key)
}

func validationQuery(key string) error {
	return apperror.Validation(key, "has an invalid value")
}
