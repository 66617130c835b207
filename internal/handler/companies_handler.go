package handler

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/leadforge/enricher/internal/dto"
	"github.com/leadforge/enricher/internal/entity"
	"github.com/leadforge/enricher/internal/repository"
	"github.com/leadforge/enricher/internal/service"
)

// CompaniesHandler exposes company catalogue endpoints.
type CompaniesHandler struct {
	service *service.CompaniesService
}

// NewCompaniesHandler creates a new handler instance.
func NewCompaniesHandler(service *service.CompaniesService) *CompaniesHandler {
	return &CompaniesHandler{service: service}
}

// List handles GET /companies requests.
func (h *CompaniesHandler) List(c echo.Context) error {
	filter := dto.ListFilter{
		Q:              strings.TrimSpace(c.QueryParam("q")),
		Industry:       strings.TrimSpace(c.QueryParam("industry")),
		City:           strings.TrimSpace(c.QueryParam("city")),
		Country:        strings.TrimSpace(c.QueryParam("country")),
		WebsiteStatus:  strings.TrimSpace(c.QueryParam("website")),
		EnrichedStatus: strings.TrimSpace(c.QueryParam("enriched")),
		Sort:           strings.TrimSpace(c.QueryParam("sort")),
		Page:           parseIntDefault(c.QueryParam("page"), 1),
		PerPage:        parseIntDefault(c.QueryParam("per_page"), 20),
	}

	if updatedSinceStr := strings.TrimSpace(c.QueryParam("updated_since")); updatedSinceStr != "" {
		parsed, err := time.Parse(time.RFC3339, updatedSinceStr)
		if err != nil {
			return Error(c, http.StatusBadRequest, "invalid updated_since (use RFC3339)")
		}
		filter.UpdatedSince = &parsed
	}

	companies, err := h.service.ListCompanies(c.Request().Context(), filter)
	if err != nil {
		return Error(c, http.StatusInternalServerError, "failed to list companies")
	}

	return Success(c, http.StatusOK, "companies retrieved", companies)
}

// Upsert handles POST /admin/companies requests.
func (h *CompaniesHandler) Upsert(c echo.Context) error {
	var req dto.CompanyRequest
	if err := c.Bind(&req); err != nil {
		return Error(c, http.StatusBadRequest, "invalid payload")
	}
	req.Company = strings.TrimSpace(req.Company)
	req.Address = strings.TrimSpace(req.Address)
	if req.Company == "" || req.Address == "" {
		return Error(c, http.StatusBadRequest, "company and address are required")
	}

	address := req.Address
	company := &entity.Company{
		Company:  req.Company,
		Address:  &address,
		Phone:    req.Phone,
		Website:  req.Website,
		Industry: req.Industry,
		City:     req.City,
		Country:  req.Country,
	}
	if err := h.service.UpsertCompany(c.Request().Context(), company); err != nil {
		return Error(c, http.StatusInternalServerError, "failed to store company")
	}

	return Success(c, http.StatusOK, "company stored", company)
}

// Get handles GET /companies/:id requests.
func (h *CompaniesHandler) Get(c echo.Context) error {
	id := c.Param("id")
	if id == "" {
		return Error(c, http.StatusBadRequest, "id is required")
	}

	company, err := h.service.GetCompany(c.Request().Context(), id)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCompanyID):
			return Error(c, http.StatusBadRequest, "invalid company id")
		case errors.Is(err, repository.ErrCompanyNotFound):
			return Error(c, http.StatusNotFound, "company not found")
		default:
			return Error(c, http.StatusInternalServerError, "failed to fetch company")
		}
	}

	return Success(c, http.StatusOK, "ok", company)
}

func parseIntDefault(input string, fallback int) int {
	if input == "" {
		return fallback
	}
	if value, err := strconv.Atoi(input); err == nil {
		return value
	}
	return fallback
}
