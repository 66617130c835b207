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

	"github.com/leadforge/enricher/internal/entity"
	"github.com/leadforge/enricher/internal/scraper"
	"github.com/leadforge/enricher/internal/service"
)

type stubSiteCrawler struct {
	report   scraper.CrawlReport
	pageText string
}

func (s *stubSiteCrawler) Crawl(ctx context.Context, rootURL string) scraper.CrawlReport {
	return s.report
}

func (s *stubSiteCrawler) GetPageText(ctx context.Context, pageURL string) string {
	return s.pageText
}

func newEnrichHandler(repo *capturingCompaniesRepo, crawler service.SiteCrawler) *EnrichHandler {
	processor := service.NewDataProcessor("US")
	companiesService := service.NewCompaniesService(repo)
	enrichService := service.NewEnrichService(crawler, processor, repo)
	return NewEnrichHandler(enrichService, companiesService)
}

func TestEnrichHandler_Enrich_Success(t *testing.T) {
	repo := &capturingCompaniesRepo{}
	crawler := &stubSiteCrawler{report: scraper.CrawlReport{
		Outcome:      scraper.OutcomeOK,
		Contact:      scraper.ContactRecord{Phones: []string{"(415) 555-2671"}},
		PagesCrawled: 2,
	}}
	handler := newEnrichHandler(repo, crawler)

	body := `{"company_id":"` + uuid.NewString() + `","website":"https://acme.com"}`
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/enrich", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.Enrich(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if repo.saved == nil {
		t.Fatalf("expected enrichment to be persisted")
	}
	if len(repo.saved.Phones) != 1 || repo.saved.Phones[0] != "+14155552671" {
		t.Fatalf("expected normalized phone persisted, got %+v", repo.saved.Phones)
	}
}

func TestEnrichHandler_Enrich_MissingCompanyID(t *testing.T) {
	handler := newEnrichHandler(&capturingCompaniesRepo{}, &stubSiteCrawler{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/enrich", strings.NewReader(`{"website":"https://acme.com"}`))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	_ = handler.Enrich(c)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}

func TestEnrichHandler_Enrich_CompanyWithoutWebsite(t *testing.T) {
	id := uuid.New()
	repo := &capturingCompaniesRepo{company: &entity.Company{ID: id, Company: "Acme"}}
	handler := newEnrichHandler(repo, &stubSiteCrawler{})

	body := `{"company_id":"` + id.String() + `"}`
	e := echo.New()
	req := httptest.NewRequest(http.MethodPost, "/enrich", strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	_ = handler.Enrich(c)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}
}

func TestEnrichHandler_GetResult(t *testing.T) {
	id := uuid.New()
	repo := &capturingCompaniesRepo{enrichment: &entity.CompanyEnrichment{CompanyID: id, Score: 40}}
	handler := newEnrichHandler(repo, &stubSiteCrawler{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("company_id")
	c.SetParamValues(id.String())

	if err := handler.GetResult(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}

	var payload APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &payload); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if payload.Status != "success" {
		t.Fatalf("unexpected payload: %+v", payload)
	}
}

func TestEnrichHandler_GetResult_NotFound(t *testing.T) {
	handler := newEnrichHandler(&capturingCompaniesRepo{}, &stubSiteCrawler{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	c.SetParamNames("company_id")
	c.SetParamValues(uuid.NewString())

	_ = handler.GetResult(c)
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", rec.Code)
	}
}

func TestEnrichHandler_PageText(t *testing.T) {
	handler := newEnrichHandler(&capturingCompaniesRepo{}, &stubSiteCrawler{pageText: "Contact us at Main St"})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/pages/text?url=https://acme.com/contact", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	if err := handler.PageText(c); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "Contact us at Main St") {
		t.Fatalf("expected page text in response: %s", rec.Body.String())
	}
}

func TestEnrichHandler_PageText_MissingURL(t *testing.T) {
	handler := newEnrichHandler(&capturingCompaniesRepo{}, &stubSiteCrawler{})

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/pages/text", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	_ = handler.PageText(c)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
