package http

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Cafeteria-api/internal/application/dto"
	"github.com/jhoicas/Cafeteria-api/internal/domain"
	"github.com/jhoicas/Cafeteria-api/pkg/logger"
)

// validate instancia compartida; validator cachea la metadata de cada struct.
var validate = validator.New()

// parseBody decodifica el JSON del cuerpo y aplica las reglas `validate`. Devuelve el
// cuerpo de error a responder con 400, o nil.
func parseBody(c *fiber.Ctx, out any) *dto.ErrorResponse {
	if err := c.BodyParser(out); err != nil {
		return &dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"}
	}
	if err := validate.Struct(out); err != nil {
		return &dto.ErrorResponse{Code: "VALIDATION", Message: validationMessage(err)}
	}
	return nil
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		if fe.Param() != "" {
			return fe.Field() + ": " + fe.Tag() + "=" + fe.Param()
		}
		return fe.Field() + ": " + fe.Tag()
	}
	return err.Error()
}

// errorStatus traduce un error de dominio a status HTTP y código estable.
func errorStatus(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrNotFound):
		return fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrForbidden):
		return fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrUnauthorized):
		return fiber.StatusUnauthorized, "UNAUTHORIZED"
	case errors.Is(err, domain.ErrDuplicate):
		return fiber.StatusConflict, "DUPLICATE"
	case errors.Is(err, domain.ErrNegativeBalance):
		return fiber.StatusConflict, "NEGATIVE_BALANCE"
	case errors.Is(err, domain.ErrImmutableMovement):
		return fiber.StatusConflict, "IMMUTABLE_MOVEMENT"
	case errors.Is(err, domain.ErrConflict):
		return fiber.StatusConflict, "CONFLICT"
	case errors.Is(err, domain.ErrInsufficientBatchHistory):
		return fiber.StatusUnprocessableEntity, "INSUFFICIENT_BATCH_HISTORY"
	case errors.Is(err, domain.ErrPayment):
		return fiber.StatusUnprocessableEntity, "PAYMENT_REJECTED"
	case errors.Is(err, domain.ErrLockNotObtained):
		return fiber.StatusLocked, "ITEM_LOCKED"
	}
	return fiber.StatusInternalServerError, "INTERNAL"
}

// respondError escribe el error como dto.ErrorResponse. Los 500 se registran y no exponen detalle.
func respondError(c *fiber.Ctx, log *logger.Logger, err error) error {
	status, code := errorStatus(err)
	msg := err.Error()
	if status == fiber.StatusInternalServerError {
		log.Error().Err(err).Str("method", c.Method()).Str("path", c.Path()).Msg("error no controlado")
		msg = "error interno"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

func unauthorized(c *fiber.Ctx) error {
	return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: "token inválido"})
}
