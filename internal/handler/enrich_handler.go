package handler

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/leadforge/enricher/internal/dto"
	"github.com/leadforge/enricher/internal/repository"
	"github.com/leadforge/enricher/internal/service"
)

// EnrichHandler runs the crawl and extraction pipeline for a company website.
type EnrichHandler struct {
	enrichService    *service.EnrichService
	companiesService *service.CompaniesService
}

// NewEnrichHandler wires a new EnrichHandler instance.
func NewEnrichHandler(enrichService *service.EnrichService, companiesService *service.CompaniesService) *EnrichHandler {
	return &EnrichHandler{enrichService: enrichService, companiesService: companiesService}
}

// Enrich crawls the company website and persists the extracted contact facts.
func (h *EnrichHandler) Enrich(c echo.Context) error {
	var payload dto.EnrichRequest
	if err := c.Bind(&payload); err != nil {
		return Error(c, http.StatusBadRequest, "invalid JSON payload")
	}
	if strings.TrimSpace(payload.CompanyID) == "" {
		return Error(c, http.StatusBadRequest, "company_id is required")
	}

	result, err := h.enrichService.Enrich(c.Request().Context(), payload.CompanyID, payload.Website)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCompanyID):
			return Error(c, http.StatusBadRequest, "invalid company_id")
		case errors.Is(err, service.ErrWebsiteRequired):
			return Error(c, http.StatusBadRequest, "company has no website to crawl")
		case errors.Is(err, repository.ErrCompanyNotFound):
			return Error(c, http.StatusNotFound, "company not found")
		default:
			return Error(c, http.StatusInternalServerError, "enrichment failed")
		}
	}

	return Success(c, http.StatusOK, "enrichment stored", result)
}

// GetResult retrieves the stored enrichment record for a company.
func (h *EnrichHandler) GetResult(c echo.Context) error {
	companyID := c.Param("company_id")
	if companyID == "" {
		return Error(c, http.StatusBadRequest, "company_id is required")
	}

	result, err := h.companiesService.GetEnrichment(c.Request().Context(), companyID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCompanyID):
			return Error(c, http.StatusBadRequest, "invalid company_id")
		case errors.Is(err, repository.ErrEnrichmentNotFound):
			return Error(c, http.StatusNotFound, "enrichment not found")
		default:
			return Error(c, http.StatusInternalServerError, "failed to fetch enrichment")
		}
	}

	return Success(c, http.StatusOK, "ok", result)
}

// PageText returns the readable text of a single page.
func (h *EnrichHandler) PageText(c echo.Context) error {
	pageURL := strings.TrimSpace(c.QueryParam("url"))
	if pageURL == "" {
		return Error(c, http.StatusBadRequest, "url query parameter is required")
	}

	text, err := h.enrichService.PageText(c.Request().Context(), pageURL)
	if err != nil {
		return Error(c, http.StatusBadRequest, err.Error())
	}

	return Success(c, http.StatusOK, "ok", dto.PageTextResponse{URL: pageURL, Text: text})
}
