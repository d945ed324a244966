// Package utils holds the JSON envelope every portal endpoint answers with.
package utils

import "github.com/gofiber/fiber/v2"

// correlationLocal mirrors the key the correlation middleware stores ids under.
const correlationLocal = "correlation_id"

// APIResponse is the envelope for every REST response.
type APIResponse struct {
	Success   bool        `json:"success"`
	Message   string      `json:"message"`
	Data      interface{} `json:"data,omitempty"`
	Meta      interface{} `json:"meta,omitempty"`
	Details   interface{} `json:"details,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
}

func orDefault(message, fallback string) string {
	if message == "" {
		return fallback
	}
	return message
}

func respond(c *fiber.Ctx, status int, body APIResponse) error {
	if status == 0 {
		status = fiber.StatusOK
	}
	return c.Status(status).JSON(body)
}

// SendSuccess answers 200 with data.
func SendSuccess(c *fiber.Ctx, message string, data interface{}) error {
	return SendSuccessWithStatus(c, fiber.StatusOK, message, data)
}

// SendSuccessWithStatus answers with data and a custom status such as 201.
func SendSuccessWithStatus(c *fiber.Ctx, status int, message string, data interface{}) error {
	return respond(c, status, APIResponse{Success: true, Message: orDefault(message, "success"), Data: data})
}

// OK answers 200 with a page of data and its pagination meta.
func OK(c *fiber.Ctx, data interface{}, message string, meta interface{}) error {
	return respond(c, fiber.StatusOK, APIResponse{Success: true, Message: orDefault(message, "success"), Data: data, Meta: meta})
}

// SendError answers with a bare error message.
func SendError(c *fiber.Ctx, status int, message string) error {
	return Fail(c, status, message, nil)
}

// Fail answers with an error message and optional details. The request's
// correlation id is echoed so clients can quote it.
func Fail(c *fiber.Ctx, status int, message string, details interface{}) error {
	requestID, _ := c.Locals(correlationLocal).(string)
	return respond(c, status, APIResponse{
		Message:   orDefault(message, "error"),
		Details:   details,
		RequestID: requestID,
	})
}
