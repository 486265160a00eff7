package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/projectcompass/compass/internal/core/domain"
)

type InquiryRepository struct {
	db *sql.DB
}

func NewInquiryRepository(db *sql.DB) *InquiryRepository {
	return &InquiryRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *InquiryRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026083001)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS inquiries (
	id TEXT PRIMARY KEY,
	vendor_ref TEXT,
	vendor_name TEXT,
	from_email TEXT NOT NULL,
	from_name TEXT,
	to_email TEXT,
	cc JSONB NOT NULL DEFAULT '[]'::jsonb,
	subject TEXT NOT NULL,
	date_received TIMESTAMPTZ NOT NULL,
	has_attachments BOOLEAN NOT NULL DEFAULT FALSE,
	attachment_count INTEGER NOT NULL DEFAULT 0,
	attachment_names JSONB NOT NULL DEFAULT '[]'::jsonb,
	thread_id TEXT,
	in_reply_to TEXT,
	raw_content TEXT NOT NULL DEFAULT '',
	processed_content TEXT,
	category TEXT NOT NULL,
	inquiry_type TEXT,
	priority TEXT,
	status TEXT NOT NULL,
	confidence DOUBLE PRECISION NOT NULL DEFAULT 0,
	assigned_to TEXT,
	due_by TIMESTAMPTZ,
	tags JSONB NOT NULL DEFAULT '[]'::jsonb,
	notes JSONB NOT NULL DEFAULT '[]'::jsonb,
	related_ids JSONB NOT NULL DEFAULT '[]'::jsonb,
	metadata JSONB NOT NULL DEFAULT '{}'::jsonb,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_inquiries_status ON inquiries(status);
CREATE INDEX IF NOT EXISTS idx_inquiries_category ON inquiries(category);
CREATE INDEX IF NOT EXISTS idx_inquiries_priority ON inquiries(priority);
CREATE INDEX IF NOT EXISTS idx_inquiries_created_at ON inquiries(created_at DESC);

CREATE TABLE IF NOT EXISTS vendors (
	ref TEXT PRIMARY KEY,
	name TEXT NOT NULL,
	company TEXT,
	contact_emails JSONB NOT NULL DEFAULT '[]'::jsonb,
	is_key BOOLEAN NOT NULL DEFAULT FALSE,
	has_active_contract BOOLEAN NOT NULL DEFAULT FALSE,
	has_history BOOLEAN NOT NULL DEFAULT FALSE,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS vendor_assignments (
	vendor_ref TEXT PRIMARY KEY,
	assignee TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

const inquiryColumns = `id, vendor_ref, vendor_name, from_email, from_name, to_email, cc, subject, date_received,
	has_attachments, attachment_count, attachment_names, thread_id, in_reply_to,
	raw_content, processed_content, category, inquiry_type, priority, status, confidence,
	assigned_to, due_by, tags, notes, related_ids, metadata, created_at, updated_at`

func (r *InquiryRepository) Create(ctx context.Context, inq *domain.Inquiry) error {
	blob, err := marshalInquiryJSON(inq)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO inquiries (`+inquiryColumns+`)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28,$29)
`,
		inq.ID, inq.VendorRef, inq.VendorName,
		inq.Email.FromEmail, inq.Email.FromName, inq.Email.ToEmail, blob.cc,
		inq.Email.Subject, inq.Email.DateReceived,
		inq.Email.HasAttachments, inq.Email.AttachmentCount, blob.attachments,
		inq.Email.ThreadID, inq.Email.InReplyTo,
		inq.RawContent, inq.ProcessedContent,
		string(inq.Category), string(inq.Type), string(inq.Priority), string(inq.Status), inq.Confidence,
		inq.AssignedTo, inq.DueBy, blob.tags, blob.notes, blob.related, blob.metadata,
		inq.CreatedAt, inq.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert inquiry: %w", err)
	}
	return nil
}

func (r *InquiryRepository) GetByID(ctx context.Context, id string) (*domain.Inquiry, error) {
	row := r.db.QueryRowContext(ctx, `
SELECT `+inquiryColumns+`
FROM inquiries
WHERE id = $1
`, id)

	inq, err := scanInquiry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrInquiryNotFound, "get inquiry", fmt.Errorf("id %s", id))
		}
		return nil, err
	}
	return inq, nil
}

func (r *InquiryRepository) Update(ctx context.Context, inq *domain.Inquiry) error {
	blob, err := marshalInquiryJSON(inq)
	if err != nil {
		return err
	}

	res, err := r.db.ExecContext(ctx, `
UPDATE inquiries
SET vendor_ref = $2, vendor_name = $3, processed_content = $4,
	category = $5, inquiry_type = $6, priority = $7, status = $8, confidence = $9,
	assigned_to = $10, due_by = $11, tags = $12, notes = $13, related_ids = $14, metadata = $15,
	updated_at = $16
WHERE id = $1
`,
		inq.ID, inq.VendorRef, inq.VendorName, inq.ProcessedContent,
		string(inq.Category), string(inq.Type), string(inq.Priority), string(inq.Status), inq.Confidence,
		inq.AssignedTo, inq.DueBy, blob.tags, blob.notes, blob.related, blob.metadata,
		inq.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update inquiry: %w", err)
	}
	return requireRow(res, "update inquiry", inq.ID)
}

func (r *InquiryRepository) UpdateStatus(ctx context.Context, id string, status domain.Status) error {
	res, err := r.db.ExecContext(ctx, `
UPDATE inquiries
SET status = $2, updated_at = $3
WHERE id = $1
`, id, string(status), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update inquiry status: %w", err)
	}
	return requireRow(res, "update inquiry status", id)
}

func (r *InquiryRepository) List(ctx context.Context, filter domain.InquiryFilter) ([]domain.Inquiry, error) {
	where, args := filterClause(filter)
	limit := filter.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, filter.Offset)
	query := fmt.Sprintf(`
SELECT `+inquiryColumns+`
FROM inquiries
%s
ORDER BY created_at DESC
LIMIT $%d OFFSET $%d
`, where, len(args)-1, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list inquiries: %w", err)
	}
	defer rows.Close()

	var out []domain.Inquiry
	for rows.Next() {
		inq, err := scanInquiry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *inq)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate inquiries: %w", err)
	}
	return out, nil
}

func (r *InquiryRepository) Count(ctx context.Context, filter domain.InquiryFilter) (int, error) {
	where, args := filterClause(filter)
	var count int
	err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM inquiries "+where, args...).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count inquiries: %w", err)
	}
	return count, nil
}

func filterClause(filter domain.InquiryFilter) (string, []any) {
	var conds []string
	var args []any
	if filter.Status != "" {
		args = append(args, string(filter.Status))
		conds = append(conds, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, string(filter.Category))
		conds = append(conds, fmt.Sprintf("category = $%d", len(args)))
	}
	if filter.Priority != "" {
		args = append(args, string(filter.Priority))
		conds = append(conds, fmt.Sprintf("priority = $%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return "WHERE " + strings.Join(conds, " AND "), args
}

type inquiryJSON struct {
	cc          []byte
	attachments []byte
	tags        []byte
	notes       []byte
	related     []byte
	metadata    []byte
}

func marshalInquiryJSON(inq *domain.Inquiry) (inquiryJSON, error) {
	var blob inquiryJSON
	var err error
	if blob.cc, err = marshalOrEmptyList(inq.Email.CC); err != nil {
		return blob, fmt.Errorf("marshal cc: %w", err)
	}
	if blob.attachments, err = marshalOrEmptyList(inq.Email.AttachmentNames); err != nil {
		return blob, fmt.Errorf("marshal attachment names: %w", err)
	}
	if blob.tags, err = marshalOrEmptyList(inq.Tags); err != nil {
		return blob, fmt.Errorf("marshal tags: %w", err)
	}
	if inq.Notes == nil {
		blob.notes = []byte("[]")
	} else if blob.notes, err = json.Marshal(inq.Notes); err != nil {
		return blob, fmt.Errorf("marshal notes: %w", err)
	}
	if blob.related, err = marshalOrEmptyList(inq.RelatedIDs); err != nil {
		return blob, fmt.Errorf("marshal related ids: %w", err)
	}
	if inq.Metadata == nil {
		blob.metadata = []byte("{}")
	} else if blob.metadata, err = json.Marshal(inq.Metadata); err != nil {
		return blob, fmt.Errorf("marshal metadata: %w", err)
	}
	return blob, nil
}

func marshalOrEmptyList(values []string) ([]byte, error) {
	if values == nil {
		return []byte("[]"), nil
	}
	return json.Marshal(values)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInquiry(row rowScanner) (*domain.Inquiry, error) {
	var inq domain.Inquiry
	var vendorRef, vendorName, fromName, toEmail, threadID, inReplyTo sql.NullString
	var processedContent, inquiryType, priority, assignedTo sql.NullString
	var ccRaw, attachmentsRaw, tagsRaw, notesRaw, relatedRaw, metadataRaw []byte
	var category, status string
	var dueBy sql.NullTime

	err := row.Scan(
		&inq.ID, &vendorRef, &vendorName,
		&inq.Email.FromEmail, &fromName, &toEmail, &ccRaw,
		&inq.Email.Subject, &inq.Email.DateReceived,
		&inq.Email.HasAttachments, &inq.Email.AttachmentCount, &attachmentsRaw,
		&threadID, &inReplyTo,
		&inq.RawContent, &processedContent,
		&category, &inquiryType, &priority, &status, &inq.Confidence,
		&assignedTo, &dueBy, &tagsRaw, &notesRaw, &relatedRaw, &metadataRaw,
		&inq.CreatedAt, &inq.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan inquiry: %w", err)
	}

	inq.VendorRef = vendorRef.String
	inq.VendorName = vendorName.String
	inq.Email.FromName = fromName.String
	inq.Email.ToEmail = toEmail.String
	inq.Email.ThreadID = threadID.String
	inq.Email.InReplyTo = inReplyTo.String
	inq.ProcessedContent = processedContent.String
	inq.Category = domain.Category(category)
	inq.Type = domain.InquiryType(inquiryType.String)
	inq.Priority = domain.Priority(priority.String)
	inq.Status = domain.Status(status)
	inq.AssignedTo = assignedTo.String
	if dueBy.Valid {
		due := dueBy.Time
		inq.DueBy = &due
	}

	if err := json.Unmarshal(ccRaw, &inq.Email.CC); err != nil {
		return nil, fmt.Errorf("unmarshal cc: %w", err)
	}
	if err := json.Unmarshal(attachmentsRaw, &inq.Email.AttachmentNames); err != nil {
		return nil, fmt.Errorf("unmarshal attachment names: %w", err)
	}
	if err := json.Unmarshal(tagsRaw, &inq.Tags); err != nil {
		return nil, fmt.Errorf("unmarshal tags: %w", err)
	}
	if err := json.Unmarshal(notesRaw, &inq.Notes); err != nil {
		return nil, fmt.Errorf("unmarshal notes: %w", err)
	}
	if err := json.Unmarshal(relatedRaw, &inq.RelatedIDs); err != nil {
		return nil, fmt.Errorf("unmarshal related ids: %w", err)
	}
	if err := json.Unmarshal(metadataRaw, &inq.Metadata); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return &inq, nil
}

func requireRow(res sql.Result, operation, id string) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", operation, err)
	}
	if affected == 0 {
		return domain.WrapError(domain.ErrInquiryNotFound, operation, fmt.Errorf("id %s", id))
	}
	return nil
}
