package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/leadforge/enricher/internal/dto"
	"github.com/leadforge/enricher/internal/entity"
	"github.com/leadforge/enricher/internal/scraper"
)

// pgxPool is the subset of pgxpool.Pool the repositories rely on.
type pgxPool interface {
	QueryRow(ctx context.Context, query string, args ...any) pgx.Row
	Query(ctx context.Context, query string, args ...any) (pgx.Rows, error)
	Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

// CompaniesRepository describes persistence operations for companies.
type CompaniesRepository interface {
	Upsert(ctx context.Context, company *entity.Company) error
	GetByID(ctx context.Context, id uuid.UUID) (*entity.Company, error)
	List(ctx context.Context, filter dto.ListFilter) ([]entity.Company, error)
	BulkUpsertCompanies(ctx context.Context, records []BulkUpsertCompanyInput) (BulkUpsertResult, error)
	UpsertEnrichment(ctx context.Context, enrichment *entity.CompanyEnrichment) error
	GetEnrichment(ctx context.Context, companyID uuid.UUID) (*entity.CompanyEnrichment, error)
}

var (
	// ErrCompanyNotFound indicates there is no company row for the given id.
	ErrCompanyNotFound = errors.New("company not found")
	// ErrEnrichmentNotFound indicates there is no enrichment row for the given company.
	ErrEnrichmentNotFound = errors.New("company enrichment not found")
)

// BulkUpsertCompanyInput represents the minimal fields required for CSV ingestion.
type BulkUpsertCompanyInput struct {
	Company  string
	Phone    *string
	Website  *string
	Industry *string
	Address  string
	City     *string
	Country  *string
}

// BulkUpsertResult summarises the number of rows inserted or updated.
type BulkUpsertResult struct {
	Inserted int
	Updated  int
	Total    int
}

// PGXCompaniesRepository implements CompaniesRepository using pgx.
type PGXCompaniesRepository struct {
	pool pgxPool
}

// NewPGXCompaniesRepository wires a pgx backed repository.
func NewPGXCompaniesRepository(pool *pgxpool.Pool) *PGXCompaniesRepository {
	return &PGXCompaniesRepository{pool: pool}
}

var _ pgxPool = (*pgxpool.Pool)(nil)

// Upsert inserts or updates a company keyed by (company, address).
func (r *PGXCompaniesRepository) Upsert(ctx context.Context, company *entity.Company) error {
	if company == nil {
		return fmt.Errorf("company payload is nil")
	}

	query := `
        INSERT INTO companies (
            company,
            phone,
            website,
            industry,
            address,
            city,
            country,
            updated_at
        ) VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
        ON CONFLICT (company, address) DO UPDATE SET
            phone = COALESCE(EXCLUDED.phone, companies.phone),
            website = COALESCE(EXCLUDED.website, companies.website),
            industry = COALESCE(EXCLUDED.industry, companies.industry),
            city = COALESCE(EXCLUDED.city, companies.city),
            country = COALESCE(EXCLUDED.country, companies.country),
            updated_at = NOW();
    `

	_, err := r.pool.Exec(ctx, query,
		company.Company,
		company.Phone,
		company.Website,
		company.Industry,
		company.Address,
		company.City,
		company.Country,
	)
	if err != nil {
		return fmt.Errorf("upsert company: %w", err)
	}

	return nil
}

// GetByID fetches a single company row.
func (r *PGXCompaniesRepository) GetByID(ctx context.Context, id uuid.UUID) (*entity.Company, error) {
	query := `
        SELECT id, company, phone, website, industry, address, city, country, enriched_at, created_at, updated_at
        FROM companies
        WHERE id = $1
    `

	var (
		c          entity.Company
		phone      sql.NullString
		website    sql.NullString
		industry   sql.NullString
		address    sql.NullString
		city       sql.NullString
		country    sql.NullString
		enrichedAt sql.NullTime
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.Company,
		&phone,
		&website,
		&industry,
		&address,
		&city,
		&country,
		&enrichedAt,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCompanyNotFound
		}
		return nil, fmt.Errorf("fetch company: %w", err)
	}

	c.Phone = nullStringToPtr(phone)
	c.Website = nullStringToPtr(website)
	c.Industry = nullStringToPtr(industry)
	c.Address = nullStringToPtr(address)
	c.City = nullStringToPtr(city)
	c.Country = nullStringToPtr(country)
	if enrichedAt.Valid {
		ts := enrichedAt.Time
		c.EnrichedAt = &ts
	}

	return &c, nil
}

const bulkUpsertSQL = `
        INSERT INTO companies (company, phone, website, industry, address, city, country, updated_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,NOW())
        ON CONFLICT (company, address) DO UPDATE SET
            phone = EXCLUDED.phone,
            website = EXCLUDED.website,
            industry = EXCLUDED.industry,
            city = EXCLUDED.city,
            country = EXCLUDED.country,
            updated_at = NOW()
        RETURNING xmax = 0;
    `

// BulkUpsertCompanies persists a batch of companies with idempotent semantics.
func (r *PGXCompaniesRepository) BulkUpsertCompanies(ctx context.Context, records []BulkUpsertCompanyInput) (BulkUpsertResult, error) {
	var result BulkUpsertResult
	if len(records) == 0 {
		return result, nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return result, fmt.Errorf("start bulk upsert tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, record := range records {
		rows, err := tx.Query(ctx, bulkUpsertSQL,
			record.Company,
			stringOrNil(record.Phone),
			stringOrNil(record.Website),
			stringOrNil(record.Industry),
			record.Address,
			stringOrNil(record.City),
			stringOrNil(record.Country),
		)
		if err != nil {
			return result, fmt.Errorf("bulk upsert company %q: %w", record.Company, err)
		}

		var inserted bool
		if rows.Next() {
			if scanErr := rows.Scan(&inserted); scanErr != nil {
				rows.Close()
				return result, fmt.Errorf("scan bulk upsert result: %w", scanErr)
			}
		} else {
			err := rows.Err()
			rows.Close()
			if err != nil {
				return result, fmt.Errorf("bulk upsert company %q: %w", record.Company, err)
			}
			return result, fmt.Errorf("bulk upsert company %q: no result returned", record.Company)
		}
		rows.Close()

		if inserted {
			result.Inserted++
		} else {
			result.Updated++
		}
		result.Total++
	}

	if err := tx.Commit(ctx); err != nil {
		return result, fmt.Errorf("commit bulk upsert tx: %w", err)
	}

	return result, nil
}

// List retrieves companies matching the provided filter.
func (r *PGXCompaniesRepository) List(ctx context.Context, filter dto.ListFilter) ([]entity.Company, error) {
	baseQuery := strings.Builder{}
	baseQuery.WriteString(`
        SELECT
            id,
            company,
            phone,
            website,
            industry,
            address,
            city,
            country,
            enriched_at,
            created_at,
            updated_at
        FROM companies
    `)

	var (
		clauses []string
		args    []any
		idx     = 1
	)

	if filter.Q != "" {
		pattern := fmt.Sprintf("%%%s%%", filter.Q)
		clauses = append(clauses, fmt.Sprintf("(company ILIKE $%d OR address ILIKE $%d)", idx, idx+1))
		args = append(args, pattern, pattern)
		idx += 2
	}
	if filter.Industry != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER(industry) = LOWER($%d)", idx))
		args = append(args, filter.Industry)
		idx++
	}
	if filter.City != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER(city) = LOWER($%d)", idx))
		args = append(args, filter.City)
		idx++
	}
	if filter.Country != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER(country) = LOWER($%d)", idx))
		args = append(args, filter.Country)
		idx++
	}
	switch strings.ToLower(filter.WebsiteStatus) {
	case "missing":
		clauses = append(clauses, "website IS NULL")
	case "available":
		clauses = append(clauses, "website IS NOT NULL")
	}
	switch strings.ToLower(filter.EnrichedStatus) {
	case "pending":
		clauses = append(clauses, "enriched_at IS NULL")
	case "done":
		clauses = append(clauses, "enriched_at IS NOT NULL")
	}
	if filter.UpdatedSince != nil {
		clauses = append(clauses, fmt.Sprintf("updated_at >= $%d", idx))
		args = append(args, *filter.UpdatedSince)
		idx++
	}

	if len(clauses) > 0 {
		baseQuery.WriteString(" WHERE ")
		baseQuery.WriteString(strings.Join(clauses, " AND "))
	}

	orderClause := "company ASC, created_at DESC"
	if strings.EqualFold(filter.Sort, "recent") {
		orderClause = "updated_at DESC, company ASC"
	}
	baseQuery.WriteString(" ORDER BY ")
	baseQuery.WriteString(orderClause)

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}
	offset := (page - 1) * perPage
	baseQuery.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", idx, idx+1))
	args = append(args, perPage, offset)

	rows, err := r.pool.Query(ctx, baseQuery.String(), args...)
	if err != nil {
		return nil, fmt.Errorf("list companies: %w", err)
	}
	defer rows.Close()

	return scanCompanies(rows)
}

// UpsertEnrichment stores the extracted contact facts for a company and
// stamps the parent row as enriched in the same statement.
func (r *PGXCompaniesRepository) UpsertEnrichment(ctx context.Context, enrichment *entity.CompanyEnrichment) error {
	if enrichment == nil {
		return fmt.Errorf("enrichment payload is nil")
	}

	socialsJSON, err := json.Marshal(enrichment.Socials)
	if err != nil {
		return fmt.Errorf("marshal socials: %w", err)
	}

	branches := enrichment.Branches
	if branches == nil {
		branches = []scraper.BranchRecord{}
	}
	branchesJSON, err := json.Marshal(branches)
	if err != nil {
		return fmt.Errorf("marshal branches: %w", err)
	}

	query := `
		WITH upserted AS (
			INSERT INTO company_enrichments (
				company_id,
				website,
				emails,
				phones,
				socials,
				address,
				branches,
				outcome,
				pages_crawled,
				score,
				updated_at
			) VALUES ($1, $2, $3, $4, $5::jsonb, $6, $7::jsonb, $8, $9, $10, NOW())
			ON CONFLICT (company_id) DO UPDATE SET
				website = EXCLUDED.website,
				emails = EXCLUDED.emails,
				phones = EXCLUDED.phones,
				socials = EXCLUDED.socials,
				address = EXCLUDED.address,
				branches = EXCLUDED.branches,
				outcome = EXCLUDED.outcome,
				pages_crawled = EXCLUDED.pages_crawled,
				score = EXCLUDED.score,
				updated_at = NOW()
			RETURNING company_id
		)
		UPDATE companies
		SET enriched_at = NOW(), updated_at = NOW()
		WHERE id = (SELECT company_id FROM upserted);
	`

	_, err = r.pool.Exec(ctx, query,
		enrichment.CompanyID,
		enrichment.Website,
		stringSliceOrEmpty(enrichment.Emails),
		stringSliceOrEmpty(enrichment.Phones),
		string(socialsJSON),
		enrichment.Address,
		string(branchesJSON),
		enrichment.Outcome,
		enrichment.PagesCrawled,
		enrichment.Score,
	)
	if err != nil {
		return fmt.Errorf("upsert enrichment: %w", err)
	}

	return nil
}

func stringSliceOrEmpty(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// GetEnrichment returns the stored contact facts for a given company.
func (r *PGXCompaniesRepository) GetEnrichment(ctx context.Context, companyID uuid.UUID) (*entity.CompanyEnrichment, error) {
	query := `
		SELECT
			company_id,
			website,
			emails,
			phones,
			socials,
			address,
			branches,
			outcome,
			pages_crawled,
			score,
			created_at,
			updated_at
		FROM company_enrichments
		WHERE company_id = $1
	`

	var (
		record       entity.CompanyEnrichment
		website      sql.NullString
		emails       []string
		phones       []string
		socialsJSON  []byte
		address      sql.NullString
		branchesJSON []byte
		outcome      sql.NullString
	)

	err := r.pool.QueryRow(ctx, query, companyID).Scan(
		&record.CompanyID,
		&website,
		&emails,
		&phones,
		&socialsJSON,
		&address,
		&branchesJSON,
		&outcome,
		&record.PagesCrawled,
		&record.Score,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrEnrichmentNotFound
		}
		return nil, fmt.Errorf("fetch enrichment: %w", err)
	}

	if website.Valid {
		record.Website = website.String
	}
	if len(emails) > 0 {
		record.Emails = append([]string(nil), emails...)
	}
	if len(phones) > 0 {
		record.Phones = append([]string(nil), phones...)
	}
	if len(socialsJSON) > 0 {
		if err := json.Unmarshal(socialsJSON, &record.Socials); err != nil {
			return nil, fmt.Errorf("unmarshal socials: %w", err)
		}
	}
	if len(branchesJSON) > 0 {
		if err := json.Unmarshal(branchesJSON, &record.Branches); err != nil {
			return nil, fmt.Errorf("unmarshal branches: %w", err)
		}
	}
	record.Address = nullStringToPtr(address)
	if outcome.Valid {
		record.Outcome = outcome.String
	}

	return &record, nil
}

func nullStringToPtr(value sql.NullString) *string {
	if value.Valid {
		val := value.String
		return &val
	}
	return nil
}

func scanCompanies(rows pgx.Rows) ([]entity.Company, error) {
	var companies []entity.Company
	for rows.Next() {
		var (
			c          entity.Company
			phone      sql.NullString
			website    sql.NullString
			industry   sql.NullString
			address    sql.NullString
			city       sql.NullString
			country    sql.NullString
			enrichedAt sql.NullTime
		)

		err := rows.Scan(
			&c.ID,
			&c.Company,
			&phone,
			&website,
			&industry,
			&address,
			&city,
			&country,
			&enrichedAt,
			&c.CreatedAt,
			&c.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan company: %w", err)
		}

		c.Phone = nullStringToPtr(phone)
		c.Website = nullStringToPtr(website)
		c.Industry = nullStringToPtr(industry)
		c.Address = nullStringToPtr(address)
		c.City = nullStringToPtr(city)
		c.Country = nullStringToPtr(country)
		if enrichedAt.Valid {
			ts := enrichedAt.Time
			c.EnrichedAt = &ts
		}

		companies = append(companies, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate companies: %w", err)
	}
	return companies, nil
}

func stringOrNil(value *string) any {
	if value == nil {
		return nil
	}
	if *value == "" {
		return nil
	}
	return *value
}
