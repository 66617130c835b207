package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/leadforge/enricher/internal/dto"
	"github.com/leadforge/enricher/internal/entity"
	"github.com/leadforge/enricher/internal/repository"
	"github.com/leadforge/enricher/internal/service"
)

type capturingCompaniesRepo struct {
	lastFilter dto.ListFilter
	err        error
	company    *entity.Company
	enrichment *entity.CompanyEnrichment
	saved      *entity.CompanyEnrichment
	upserted   *entity.Company
}

func (c *capturingCompaniesRepo) List(ctx context.Context, filter dto.ListFilter) ([]entity.Company, error) {
	c.lastFilter = filter
	if c.err != nil {
		return nil, c.err
	}
	return []entity.Company{{Company: "Acme"}}, nil
}

func (c *capturingCompaniesRepo) BulkUpsertCompanies(ctx context.Context, records []repository.BulkUpsertCompanyInput) (repository.BulkUpsertResult, error) {
	return repository.BulkUpsertResult{Inserted: len(records), Total: len(records)}, nil
}

func (c *capturingCompaniesRepo) Upsert(ctx context.Context, company *entity.Company) error {
	c.upserted = company
	return c.err
}

func (c *capturingCompaniesRepo) GetByID(ctx context.Context, id uuid.UUID) (*entity.Company, error) {
	if c.company == nil {
		return nil, repository.ErrCompanyNotFound
	}
	return c.company, nil
}

func (c *capturingCompaniesRepo) UpsertEnrichment(ctx context.Context, enrichment *entity.CompanyEnrichment) error {
	dup := *enrichment
	c.saved = &dup
	return nil
}

func (c *capturingCompaniesRepo) GetEnrichment(ctx context.Context, companyID uuid.UUID) (*entity.CompanyEnrichment, error) {
	if c.enrichment == nil {
		return nil, repository.ErrEnrichmentNotFound
	}
	return c.enrichment, nil
}

func newCompaniesHandler(repo repository.CompaniesRepository) *CompaniesHandler {
	return NewCompaniesHandler(service.NewCompaniesService(repo))
}

func TestCompaniesHandler_List_Success(t *testing.T) {
	repo := &capturingCompaniesRepo{}
	handler := newCompaniesHandler(repo)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/companies?q=plumber&per_page=25&industry=hardware&enriched=pending", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.List(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if repo.lastFilter.Q != "plumber" {
		t.Fatalf("expected query filter applied")
	}
	if repo.lastFilter.PerPage != 25 {
		t.Fatalf("expected per_page 25, got %d", repo.lastFilter.PerPage)
	}
	if repo.lastFilter.Industry != "hardware" {
		t.Fatalf("expected industry parsed, got %q", repo.lastFilter.Industry)
	}
	if repo.lastFilter.EnrichedStatus != "pending" {
		t.Fatalf("expected enriched filter parsed, got %q", repo.lastFilter.EnrichedStatus)
	}

	var payload APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Status != "success" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestCompaniesHandler_List_BadUpdatedSince(t *testing.T) {
	handler := newCompaniesHandler(&capturingCompaniesRepo{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/companies?updated_since=yesterday", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	_ = handler.List(c)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCompaniesHandler_List_Error(t *testing.T) {
	repo := &capturingCompaniesRepo{err: context.DeadlineExceeded}
	handler := newCompaniesHandler(repo)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/companies", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	_ = handler.List(c)
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
}

func TestCompaniesHandler_Get(t *testing.T) {
	id := uuid.New()
	repo := &capturingCompaniesRepo{company: &entity.Company{ID: id, Company: "Acme"}}
	handler := newCompaniesHandler(repo)

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(id.String())

	if err := handler.Get(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestCompaniesHandler_Get_NotFound(t *testing.T) {
	handler := newCompaniesHandler(&capturingCompaniesRepo{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues(uuid.NewString())

	_ = handler.Get(c)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestCompaniesHandler_Get_InvalidID(t *testing.T) {
	handler := newCompaniesHandler(&capturingCompaniesRepo{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("id")
	c.SetParamValues("not-a-uuid")

	_ = handler.Get(c)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestCompaniesHandler_Upsert(t *testing.T) {
	repo := &capturingCompaniesRepo{}
	handler := newCompaniesHandler(repo)

	body := `{"company":"Acme Tools","address":"1 Main St","industry":"hardware","city":"Rotterdam"}`
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/companies", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	if err := handler.Upsert(e.NewContext(req, rec)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if repo.upserted == nil {
		t.Fatal("expected company to reach the repository")
	}
	if repo.upserted.Company != "Acme Tools" {
		t.Fatalf("unexpected company name %q", repo.upserted.Company)
	}
	if repo.upserted.Address == nil || *repo.upserted.Address != "1 Main St" {
		t.Fatal("expected address to be set")
	}
	if repo.upserted.City == nil || *repo.upserted.City != "Rotterdam" {
		t.Fatal("expected city to be set")
	}
}

func TestCompaniesHandler_Upsert_MissingFields(t *testing.T) {
	repo := &capturingCompaniesRepo{}
	handler := newCompaniesHandler(repo)

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/companies", strings.NewReader(`{"company":"  "}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()

	_ = handler.Upsert(e.NewContext(req, rec))
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if repo.upserted != nil {
		t.Fatal("expected no repository call")
	}
}

func TestCompaniesHandler_parseIntDefault(t *testing.T) {
	if val := parseIntDefault("", 5); val != 5 {
		t.Fatalf("expected fallback when empty")
	}
	if val := parseIntDefault("10", 5); val != 10 {
		t.Fatalf("expected parsed value, got %d", val)
	}
	if val := parseIntDefault("bad", 5); val != 5 {
		t.Fatalf("expected fallback on parse error")
	}
}
