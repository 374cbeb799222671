package database

import (
	"context"
	"fmt"
	"time"

	"go-jobpilot-automation/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	db *pgxpool.Pool
}

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id             BIGSERIAL PRIMARY KEY,
	external_id    TEXT NOT NULL UNIQUE,
	title          TEXT NOT NULL,
	company        TEXT NOT NULL DEFAULT '',
	location       TEXT NOT NULL DEFAULT '',
	description    TEXT,
	url            TEXT NOT NULL DEFAULT '',
	easy_apply     BOOLEAN NOT NULL DEFAULT FALSE,
	posted_date    TEXT NOT NULL DEFAULT '',
	search_keyword TEXT NOT NULL DEFAULT '',
	scraped_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS applications (
	id           BIGSERIAL PRIMARY KEY,
	job_id       BIGINT NOT NULL REFERENCES jobs(id),
	status       TEXT NOT NULL DEFAULT 'PENDING',
	resume_used  TEXT NOT NULL DEFAULT '',
	cover_letter TEXT,
	error_detail TEXT,
	attempted_at TIMESTAMPTZ,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

-- one PENDING row per job: a crashed run's orphan is reused, not duplicated
CREATE UNIQUE INDEX IF NOT EXISTS applications_pending_one_per_job
	ON applications (job_id) WHERE status = 'PENDING';

CREATE INDEX IF NOT EXISTS applications_job_status_idx
	ON applications (job_id, status);
`

func ConnectDB(ctx context.Context, connString string) (*Repository, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("unable to parse database url: %w", err)
	}

	config.MaxConns = 5
	config.MinConns = 1
	config.MaxConnLifetime = time.Hour

	// Connection poolers in transaction mode (PgBouncer) choke on prepared
	// statements, so the statement cache stays off.
	config.ConnConfig.DefaultQueryExecMode = pgx.QueryExecModeExec

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("unable to connect to database: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("database unreachable: %w", err)
	}

	repo := &Repository{db: pool}
	if err := repo.ensureSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return repo, nil
}

func (r *Repository) ensureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure schema: %w", err)
	}
	return nil
}

func (r *Repository) Close() {
	if r.db != nil {
		r.db.Close()
	}
}

// ---------------- JOB OPERATIONS ----------------

// UpsertJob is the dedup boundary: the same external identifier always
// updates the existing row in place. Mutable fields are refreshed, the
// description is only overwritten by a non-empty value, and the first-seen
// timestamp is preserved. The (xmax = 0) trick reports insert vs update.
func (r *Repository) UpsertJob(ctx context.Context, job *models.Job) (*models.Job, bool, error) {
	query := `
		INSERT INTO jobs (external_id, title, company, location, description, url, easy_apply, posted_date, search_keyword, scraped_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (external_id)
		DO UPDATE SET
			title = EXCLUDED.title,
			company = EXCLUDED.company,
			location = EXCLUDED.location,
			description = COALESCE(EXCLUDED.description, jobs.description),
			easy_apply = EXCLUDED.easy_apply,
			posted_date = EXCLUDED.posted_date
		RETURNING id, description, scraped_at, (xmax = 0) AS inserted`

	scrapedAt := job.ScrapedAt
	if scrapedAt.IsZero() {
		scrapedAt = time.Now().UTC()
	}

	var (
		desc     *string
		inserted bool
	)
	err := r.db.QueryRow(ctx, query,
		job.ExternalID, job.Title, job.Company, job.Location, nilIfEmpty(job.Description),
		job.URL, job.EasyApply, job.PostedDate, job.SearchKeyword, scrapedAt,
	).Scan(&job.ID, &desc, &job.ScrapedAt, &inserted)
	if err != nil {
		return nil, false, fmt.Errorf("failed to upsert job %s: %w", job.ExternalID, err)
	}
	if desc != nil {
		job.Description = *desc
	}
	return job, inserted, nil
}

// GetJobByExternalID retrieves a job by the platform's listing identifier.
func (r *Repository) GetJobByExternalID(ctx context.Context, externalID string) (*models.Job, error) {
	query := `
		SELECT id, external_id, title, company, location, COALESCE(description, ''), url, easy_apply, posted_date, search_keyword, scraped_at
		FROM jobs WHERE external_id = $1`

	var job models.Job
	err := r.db.QueryRow(ctx, query, externalID).Scan(
		&job.ID, &job.ExternalID, &job.Title, &job.Company, &job.Location,
		&job.Description, &job.URL, &job.EasyApply, &job.PostedDate, &job.SearchKeyword, &job.ScrapedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, fmt.Errorf("job %s not found", externalID)
		}
		return nil, fmt.Errorf("failed to get job %s: %w", externalID, err)
	}
	return &job, nil
}

// UnappliedEasyApplyJobs returns easy-apply jobs still eligible for an
// apply run, oldest first. A job is excluded once it has a terminal
// (APPLIED or SKIPPED) record, or once it has burned maxAttempts FAILED
// attempts.
func (r *Repository) UnappliedEasyApplyJobs(ctx context.Context, limit, maxAttempts int) ([]models.Job, error) {
	query := `
		SELECT j.id, j.external_id, j.title, j.company, j.location, COALESCE(j.description, ''), j.url, j.easy_apply, j.posted_date, j.search_keyword, j.scraped_at
		FROM jobs j
		WHERE j.easy_apply
		  AND NOT EXISTS (
			SELECT 1 FROM applications a
			WHERE a.job_id = j.id AND a.status IN ('APPLIED', 'SKIPPED')
		  )
		  AND (
			SELECT count(*) FROM applications a
			WHERE a.job_id = j.id AND a.status = 'FAILED'
		  ) < $2
		ORDER BY j.scraped_at ASC
		LIMIT $1`

	rows, err := r.db.Query(ctx, query, limit, maxAttempts)
	if err != nil {
		return nil, fmt.Errorf("failed to query unapplied jobs: %w", err)
	}
	defer rows.Close()

	var jobs []models.Job
	for rows.Next() {
		var job models.Job
		if err := rows.Scan(
			&job.ID, &job.ExternalID, &job.Title, &job.Company, &job.Location,
			&job.Description, &job.URL, &job.EasyApply, &job.PostedDate, &job.SearchKeyword, &job.ScrapedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan job row: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

// ---------------- APPLICATION OPERATIONS ----------------

// CreatePendingApplication opens the application record for a job before
// the driver touches the browser. If a PENDING row already exists (a
// previous run crashed mid-application) it is reused.
func (r *Repository) CreatePendingApplication(ctx context.Context, jobID int64, resumeUsed string) (*models.Application, error) {
	query := `
		INSERT INTO applications (job_id, status, resume_used)
		VALUES ($1, 'PENDING', $2)
		ON CONFLICT (job_id) WHERE status = 'PENDING'
		DO UPDATE SET resume_used = EXCLUDED.resume_used
		RETURNING id, job_id, status, resume_used, cover_letter, error_detail, attempted_at, created_at`

	var app models.Application
	err := r.db.QueryRow(ctx, query, jobID, resumeUsed).Scan(
		&app.ID, &app.JobID, &app.Status, &app.ResumeUsed,
		&app.CoverLetter, &app.ErrorDetail, &app.AttemptedAt, &app.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create pending application for job %d: %w", jobID, err)
	}
	return &app, nil
}

// FinishApplication moves an application to its terminal state and stamps
// the attempt time. This is the only write path out of PENDING.
func (r *Repository) FinishApplication(ctx context.Context, appID int64, status models.ApplicationStatus, coverLetter, errDetail string) error {
	query := `
		UPDATE applications
		SET status = $2, cover_letter = $3, error_detail = $4, attempted_at = now()
		WHERE id = $1`

	tag, err := r.db.Exec(ctx, query, appID, status, nilIfEmpty(coverLetter), nilIfEmpty(errDetail))
	if err != nil {
		return fmt.Errorf("failed to finish application %d: %w", appID, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("application %d not found", appID)
	}
	return nil
}

// Stats returns per-status application counts plus the job total.
func (r *Repository) Stats(ctx context.Context) (map[string]int64, error) {
	stats := map[string]int64{}

	var totalJobs int64
	if err := r.db.QueryRow(ctx, `SELECT count(*) FROM jobs`).Scan(&totalJobs); err != nil {
		return nil, fmt.Errorf("failed to count jobs: %w", err)
	}
	stats["total_jobs"] = totalJobs

	rows, err := r.db.Query(ctx, `SELECT status, count(*) FROM applications GROUP BY status`)
	if err != nil {
		return nil, fmt.Errorf("failed to count applications: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			status string
			n      int64
		)
		if err := rows.Scan(&status, &n); err != nil {
			return nil, fmt.Errorf("failed to scan stats row: %w", err)
		}
		stats[status] = n
		stats["total_applications"] += n
	}
	return stats, rows.Err()
}

func nilIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
