package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/simonhust/trailer/internal/domain"
	"github.com/simonhust/trailer/internal/logger"
)

const (
	// DefaultPendingCap is the maximum number of pending submissions.
	DefaultPendingCap = 400

	// maxInsertAttempts bounds id regeneration on primary key conflicts.
	maxInsertAttempts = 3

	// DefaultReviewTimeout bounds the moderation transaction so it never
	// holds row locks indefinitely.
	DefaultReviewTimeout = 5 * time.Second
)

// SubmissionRepository handles the bounded submission queue and the
// moderation transaction.
type SubmissionRepository struct {
	db            *sqlx.DB
	log           logger.Logger
	pendingCap    int
	reviewTimeout time.Duration
}

// NewSubmissionRepository creates a submission repository with the given
// pending cap. Non-positive values fall back to the defaults.
func NewSubmissionRepository(db *sqlx.DB, log logger.Logger, pendingCap int, reviewTimeout time.Duration) *SubmissionRepository {
	if pendingCap <= 0 {
		pendingCap = DefaultPendingCap
	}
	if reviewTimeout <= 0 {
		reviewTimeout = DefaultReviewTimeout
	}
	return &SubmissionRepository{
		db:            db,
		log:           log,
		pendingCap:    pendingCap,
		reviewTimeout: reviewTimeout,
	}
}

// Create inserts a pending submission and returns its id. The capacity
// guard and the insert run in one transaction under an advisory lock on
// the queue, so concurrent submitters serialize and cannot push the
// pending count past the cap. Primary key conflicts are retried with a
// fresh id a bounded number of times.
func (r *SubmissionRepository) Create(ctx context.Context, sourceID, url string) (string, error) {
	for attempt := 1; attempt <= maxInsertAttempts; attempt++ {
		id, err := newSubmissionID(attempt)
		if err != nil {
			return "", fmt.Errorf("generate submission id: %w", err)
		}

		rows, err := r.insertPending(ctx, id, sourceID, url)
		if err != nil {
			if isUniqueViolation(err) {
				r.log.Warn("submission id collision, regenerating",
					logger.String("id", id),
					logger.Int("attempt", attempt))
				continue
			}
			return "", fmt.Errorf("insert submission: %w", err)
		}
		if rows == 0 {
			return "", domain.ErrCapacityExceeded
		}

		return id, nil
	}

	return "", fmt.Errorf("insert submission: %w", domain.ErrDuplicateID)
}

// insertPending runs the capacity-guarded insert under an advisory
// transaction lock. Under READ COMMITTED the guard subquery counts only
// its own snapshot, so without the lock two sessions at cap-1 could
// both pass the guard and commit past the cap. Zero rows means the
// queue was full; the lock is released when the transaction ends.
func (r *SubmissionRepository) insertPending(ctx context.Context, id, sourceID, url string) (rows int64, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin submission transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				r.log.Error("failed to rollback submission transaction",
					logger.String("submission_id", id),
					logger.Error(rbErr))
			}
		}
	}()

	_, err = tx.ExecContext(ctx,
		`SELECT pg_advisory_xact_lock(hashtext('submissions_pending_cap'))`)
	if err != nil {
		err = fmt.Errorf("acquire submission queue lock: %w", err)
		return 0, err
	}

	res, err := tx.ExecContext(ctx, `
		INSERT INTO submissions (id, source_id, url, status)
		SELECT $1, $2, $3, 'pending'
		WHERE (SELECT COUNT(*) FROM submissions WHERE status = 'pending') < $4`,
		id, sourceID, url, r.pendingCap,
	)
	if err != nil {
		return 0, err
	}

	rows, err = res.RowsAffected()
	if err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		err = fmt.Errorf("commit submission transaction: %w", err)
		return 0, err
	}

	return rows, nil
}

// newSubmissionID returns a time-ordered UUID on the first attempt and a
// random one when regenerating after a conflict.
func newSubmissionID(attempt int) (string, error) {
	if attempt == 1 {
		id, err := uuid.NewV7()
		if err != nil {
			return "", err
		}
		return id.String(), nil
	}
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

// PendingCount returns the number of pending submissions.
func (r *SubmissionRepository) PendingCount(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM submissions WHERE status = 'pending'`)
	if err != nil {
		return 0, fmt.Errorf("count pending submissions: %w", err)
	}
	return count, nil
}

// ListPending returns all pending submissions, oldest first.
func (r *SubmissionRepository) ListPending(ctx context.Context) ([]domain.Submission, error) {
	submissions := []domain.Submission{}
	err := r.db.SelectContext(ctx, &submissions, `
		SELECT id, source_id, url, status, created_at
		FROM submissions
		WHERE status = 'pending'
		ORDER BY created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list pending submissions: %w", err)
	}
	return submissions, nil
}

// Review decides a pending submission in one transaction: the status
// update only matches rows still pending, and an approval upserts the
// published mapping (last-approved-wins on source_id). Any failure rolls
// the whole transaction back. A submission that is absent or already
// decided yields domain.ErrNotFound without writes.
func (r *SubmissionRepository) Review(ctx context.Context, id string, approve bool, reviewer string) error {
	ctx, cancel := context.WithTimeout(ctx, r.reviewTimeout)
	defer cancel()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin review transaction: %w", err)
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				r.log.Error("failed to rollback review transaction",
					logger.String("submission_id", id),
					logger.Error(rbErr))
			}
		}
	}()

	status := domain.StatusRejected
	if approve {
		status = domain.StatusApproved
	}

	var sourceID, url string
	err = tx.QueryRowContext(ctx, `
		UPDATE submissions
		SET status = $2
		WHERE id = $1 AND status = 'pending'
		RETURNING source_id, url`,
		id, status,
	).Scan(&sourceID, &url)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			err = domain.ErrNotFound
			return err
		}
		err = fmt.Errorf("update submission status: %w", err)
		return err
	}

	if approve {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO mappings (source_id, url, reviewed_by, approved_at)
			VALUES ($1, $2, $3, now())
			ON CONFLICT (source_id) DO UPDATE
			SET url = EXCLUDED.url,
			    reviewed_by = EXCLUDED.reviewed_by,
			    approved_at = EXCLUDED.approved_at`,
			sourceID, url, reviewer,
		)
		if err != nil {
			err = fmt.Errorf("publish mapping: %w", err)
			return err
		}
	}

	if commitErr := tx.Commit(); commitErr != nil {
		err = fmt.Errorf("commit review transaction: %w", commitErr)
		return err
	}

	r.log.Info("submission reviewed",
		logger.String("submission_id", id),
		logger.String("source_id", sourceID),
		logger.Bool("approved", approve),
		logger.String("reviewer", reviewer))

	return nil
}

// isUniqueViolation reports whether err is a PostgreSQL unique constraint
// violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
