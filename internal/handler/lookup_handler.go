package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/leadforge/enricher/internal/dto"
	"github.com/leadforge/enricher/internal/service"
)

// LookupHandler resolves company names to official websites.
type LookupHandler struct {
	lookupService *service.LookupService
	promptService *service.PromptService
}

// NewLookupHandler wires the handler.
func NewLookupHandler(lookupService *service.LookupService, promptService *service.PromptService) *LookupHandler {
	return &LookupHandler{lookupService: lookupService, promptService: promptService}
}

// Lookup finds the official website for a named company.
func (h *LookupHandler) Lookup(c echo.Context) error {
	var req dto.LookupRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	req.CompanyName = strings.TrimSpace(req.CompanyName)
	if req.CompanyName == "" {
		return Error(c, http.StatusBadRequest, "company_name is required")
	}

	result, err := h.lookupService.LookupWebsite(c.Request().Context(), req.CompanyName, req.Country)
	if err != nil {
		return lookupError(c, err)
	}

	return Success(c, http.StatusOK, "ok", result)
}

// PromptLookup parses a free-form prompt and runs the website lookup.
func (h *LookupHandler) PromptLookup(c echo.Context) error {
	var req dto.PromptLookupRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return Error(c, http.StatusBadRequest, "prompt is required")
	}

	parsed, err := h.promptService.Parse(req)
	if err != nil {
		return Error(c, http.StatusBadRequest, err.Error())
	}

	location := parsed.City
	if location == "" {
		location = parsed.Country
	}
	result, err := h.lookupService.LookupWebsite(c.Request().Context(), parsed.CompanyName, location)
	if err != nil {
		return lookupError(c, err)
	}

	return Success(c, http.StatusOK, "ok", map[string]any{
		"prompt": req.Prompt,
		"query": map[string]string{
			"company_name": parsed.CompanyName,
			"city":         parsed.City,
			"country":      parsed.Country,
		},
		"result": result,
	})
}

func lookupError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, service.ErrLookupNoResults), errors.Is(err, service.ErrWebsiteNotFound):
		return Error(c, http.StatusNotFound, err.Error())
	default:
		return Error(c, http.StatusBadGateway, "website lookup failed")
	}
}
