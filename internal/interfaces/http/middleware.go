package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// HeaderRequestID cabecera con el identificador de la petición.
const HeaderRequestID = "X-Request-ID"

// LocalRequestID key en c.Locals con el identificador de la petición.
const LocalRequestID = "request_id"

// RequestLogger registra cada petición al terminar (método, ruta, estado, duración, request id).
// Reutiliza el X-Request-ID entrante o genera uno nuevo y lo devuelve en la respuesta.
func RequestLogger(log zerolog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		requestID := c.Get(HeaderRequestID)
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Locals(LocalRequestID, requestID)
		c.Set(HeaderRequestID, requestID)

		err := settle(c, c.Next())

		status := c.Response().StatusCode()
		event := log.Info()
		switch {
		case status >= fiber.StatusInternalServerError:
			event = log.Error()
		case status >= fiber.StatusBadRequest:
			event = log.Warn()
		}
		event.
			Str("request_id", requestID).
			Str("method", c.Method()).
			Str("path", c.Path()).
			Int("status", status).
			Dur("duration", time.Since(start)).
			Msg("HTTP request completed")
		return err
	}
}

// GetRequestID devuelve el request id del contexto (después de RequestLogger).
func GetRequestID(c *fiber.Ctx) string {
	s, _ := c.Locals(LocalRequestID).(string)
	return s
}

// settle aplica el ErrorHandler de la app a un error de la cadena para que el estado
// de la respuesta ya sea el definitivo al medirlo.
func settle(c *fiber.Ctx, err error) error {
	if err == nil {
		return nil
	}
	if herr := c.App().ErrorHandler(c, err); herr != nil {
		_ = c.SendStatus(fiber.StatusInternalServerError)
	}
	return nil
}
