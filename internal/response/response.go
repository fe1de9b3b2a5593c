// Package response provides the success envelope and pagination block shared
// by every handler.
package response

import (
	"net/http"

	"github.com/gofiber/fiber/v2"
)

// Body is the standard success envelope: {success, message?, data?}.
type Body struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Data    any    `json:"data,omitempty"`
}

// OK writes a 200 envelope.
func OK(c *fiber.Ctx, message string, data any) error {
	return c.Status(http.StatusOK).JSON(Body{Success: true, Message: message, Data: data})
}

// Created writes a 201 envelope.
func Created(c *fiber.Ctx, message string, data any) error {
	return c.Status(http.StatusCreated).JSON(Body{Success: true, Message: message, Data: data})
}

// Pagination describes the page window of a list response.
type Pagination struct {
	Page        int   `json:"page"`
	Limit       int   `json:"limit"`
	Total       int64 `json:"total"`
	TotalPages  int   `json:"totalPages"`
	HasNextPage bool  `json:"hasNextPage"`
	HasPrevPage bool  `json:"hasPrevPage"`
}

// NewPagination computes the pagination block for a total row count.
func NewPagination(page, limit int, total int64) Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		Page:        page,
		Limit:       limit,
		Total:       total,
		TotalPages:  totalPages,
		HasNextPage: page < totalPages,
		HasPrevPage: page > 1,
	}
}
