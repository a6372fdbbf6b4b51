package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/harsh17045/IssueTracker-sub000/internal/domain"
)

// TicketFilter captures visibility and listing parameters.
// Channels and AssignedToID are alternatives: a ticket matches when its
// routed channel is listed or it is assigned to AssignedToID.
type TicketFilter struct {
	RaisedByID   *string
	DepartmentID *string
	Channels     []string
	AssignedToID *string
	Statuses     []domain.TicketStatus
	Limit        int
	Offset       int
}

// StatusChange describes a guarded status write.
type StatusChange struct {
	TicketID string
	From     domain.TicketStatus
	To       domain.TicketStatus
	// ClaimFor applies the change only while the ticket is unassigned and
	// assigns it to this staff id in the same write.
	ClaimFor string
	// AssigneeMustBe applies the change only while the ticket is held by this staff id.
	AssigneeMustBe string
	// Comment is appended in the same unit as the status change.
	Comment *domain.Comment
	At      time.Time
}

// TicketRepository encapsulates ticket persistence.
type TicketRepository interface {
	// Create allocates the next sequence number and stores the ticket as one unit.
	Create(ctx context.Context, ticket *domain.Ticket, idPrefix string) error
	GetByID(ctx context.Context, id string) (*domain.Ticket, error)
	List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error)
	UpdateStatus(ctx context.Context, change StatusChange) error
	// AppendComment stores the comment unless the ticket has been revoked.
	AppendComment(ctx context.Context, comment *domain.Comment) error
	// UpdateContent rewrites editable fields while the ticket is still pending.
	UpdateContent(ctx context.Context, ticket *domain.Ticket) error
	// MarkViewed records viewerID's last-seen time without touching activity timestamps.
	MarkViewed(ctx context.Context, ticketID, viewerID string, at time.Time) error
}

const ticketColumns = `id, sequence, human_readable_id, title, description, origin_department,
        origin_building_id, origin_floor, origin_lab, destination_department_id, routed_channel,
        raised_by_id, assigned_to_id, status, priority, attachment_ref, last_activity_at, created_at, updated_at`

type ticketRepository struct {
	db DB
}

// NewTicketRepository instantiates repository.
func NewTicketRepository(db DB) TicketRepository {
	return &ticketRepository{db: db}
}

func (r *ticketRepository) Create(ctx context.Context, ticket *domain.Ticket, idPrefix string) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		var sequence int64
		if err := tx.QueryRow(ctx,
			`UPDATE ticket_counters SET value = value + 1 WHERE name = 'ticket' RETURNING value`,
		).Scan(&sequence); err != nil {
			return fmt.Errorf("allocate ticket sequence: %w", err)
		}
		ticket.Sequence = sequence
		ticket.HumanReadableID = domain.HumanReadableID(idPrefix, sequence)

		var building, lab *string
		var floor *int
		if loc := ticket.OriginLocation; loc != nil {
			building, floor = &loc.BuildingID, &loc.FloorNumber
			if loc.Lab != "" {
				lab = &loc.Lab
			}
		}
		const query = `
            INSERT INTO tickets (id, sequence, human_readable_id, title, description, origin_department,
                origin_building_id, origin_floor, origin_lab, destination_department_id, routed_channel,
                raised_by_id, assigned_to_id, status, priority, attachment_ref, last_activity_at, created_at, updated_at)
            VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19)`
		_, err := tx.Exec(ctx, query,
			ticket.ID,
			ticket.Sequence,
			ticket.HumanReadableID,
			ticket.Title,
			ticket.Description,
			ticket.OriginDepartment,
			building,
			floor,
			lab,
			ticket.DestinationDepartmentID,
			ticket.RoutedChannel,
			ticket.RaisedByID,
			ticket.AssignedToID,
			ticket.Status,
			ticket.Priority,
			ticket.AttachmentRef,
			ticket.LastActivityAt,
			ticket.CreatedAt,
			ticket.UpdatedAt,
		)
		return err
	})
}

func (r *ticketRepository) GetByID(ctx context.Context, id string) (*domain.Ticket, error) {
	rows, err := r.db.Query(ctx, `SELECT `+ticketColumns+` FROM tickets WHERE id=$1`, id)
	if err != nil {
		return nil, err
	}
	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, err
	}
	if len(tickets) == 0 {
		return nil, ErrNotFound
	}
	if err := r.loadThreads(ctx, tickets); err != nil {
		return nil, err
	}
	return &tickets[0], nil
}

func (r *ticketRepository) List(ctx context.Context, filter TicketFilter) ([]domain.Ticket, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.RaisedByID != nil {
		args = append(args, *filter.RaisedByID)
		clauses = append(clauses, fmt.Sprintf("raised_by_id=$%d", len(args)))
	}
	if filter.DepartmentID != nil {
		args = append(args, *filter.DepartmentID)
		clauses = append(clauses, fmt.Sprintf("destination_department_id=$%d", len(args)))
	}
	if len(filter.Channels) > 0 || filter.AssignedToID != nil {
		var either []string
		if len(filter.Channels) > 0 {
			args = append(args, filter.Channels)
			either = append(either, fmt.Sprintf("routed_channel = ANY($%d)", len(args)))
		}
		if filter.AssignedToID != nil {
			args = append(args, *filter.AssignedToID)
			either = append(either, fmt.Sprintf("assigned_to_id=$%d", len(args)))
		}
		clauses = append(clauses, "("+strings.Join(either, " OR ")+")")
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM tickets WHERE %s ORDER BY last_activity_at DESC, sequence DESC LIMIT %d OFFSET %d`,
		ticketColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	tickets, err := scanTickets(rows)
	if err != nil {
		return nil, err
	}
	if err := r.loadThreads(ctx, tickets); err != nil {
		return nil, err
	}
	return tickets, nil
}

func (r *ticketRepository) UpdateStatus(ctx context.Context, change StatusChange) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		const query = `
            UPDATE tickets SET status=$2,
                assigned_to_id = CASE WHEN $4::text <> '' THEN $4 ELSE assigned_to_id END,
                last_activity_at=$6, updated_at=$6
            WHERE id=$1 AND status=$3
              AND ($4::text = '' OR assigned_to_id IS NULL)
              AND ($5::text = '' OR assigned_to_id = $5)`
		cmd, err := tx.Exec(ctx, query,
			change.TicketID,
			change.To,
			change.From,
			change.ClaimFor,
			change.AssigneeMustBe,
			change.At,
		)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return missOrConflict(ctx, tx, change.TicketID)
		}
		if change.Comment != nil {
			return insertComment(ctx, tx, change.Comment)
		}
		return nil
	})
}

func (r *ticketRepository) AppendComment(ctx context.Context, comment *domain.Comment) error {
	return inTx(ctx, r.db, func(tx pgx.Tx) error {
		cmd, err := tx.Exec(ctx,
			`UPDATE tickets SET last_activity_at=$2, updated_at=$2 WHERE id=$1 AND status <> $3`,
			comment.TicketID, comment.CreatedAt, domain.TicketStatusRevoked)
		if err != nil {
			return err
		}
		if cmd.RowsAffected() == 0 {
			return missOrConflict(ctx, tx, comment.TicketID)
		}
		return insertComment(ctx, tx, comment)
	})
}

func (r *ticketRepository) UpdateContent(ctx context.Context, ticket *domain.Ticket) error {
	const query = `
        UPDATE tickets SET title=$2, description=$3, destination_department_id=$4, routed_channel=$5,
            priority=$6, attachment_ref=$7, last_activity_at=$8, updated_at=$8
        WHERE id=$1 AND status=$9`
	cmd, err := r.db.Exec(ctx, query,
		ticket.ID,
		ticket.Title,
		ticket.Description,
		ticket.DestinationDepartmentID,
		ticket.RoutedChannel,
		ticket.Priority,
		ticket.AttachmentRef,
		ticket.UpdatedAt,
		domain.TicketStatusPending,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return missOrConflict(ctx, r.db, ticket.ID)
	}
	return nil
}

func (r *ticketRepository) MarkViewed(ctx context.Context, ticketID, viewerID string, at time.Time) error {
	const query = `
        INSERT INTO ticket_views (ticket_id, viewer_id, last_seen_at)
        SELECT id, $2, $3 FROM tickets WHERE id=$1
        ON CONFLICT (ticket_id, viewer_id) DO UPDATE SET last_seen_at=EXCLUDED.last_seen_at`
	cmd, err := r.db.Exec(ctx, query, ticketID, viewerID, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

type rowQuerier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

func missOrConflict(ctx context.Context, q rowQuerier, ticketID string) error {
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM tickets WHERE id=$1)`, ticketID).Scan(&exists); err != nil {
		return err
	}
	if !exists {
		return ErrNotFound
	}
	return ErrConflict
}

func insertComment(ctx context.Context, tx pgx.Tx, c *domain.Comment) error {
	const query = `
        INSERT INTO ticket_comments (id, ticket_id, author_id, author_role, body, attachment_ref, created_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7)`
	_, err := tx.Exec(ctx, query,
		c.ID,
		c.TicketID,
		c.AuthorID,
		c.AuthorRole,
		c.Text,
		c.AttachmentRef,
		c.CreatedAt,
	)
	return err
}

// loadThreads fills comments and viewer timestamps for the given tickets.
func (r *ticketRepository) loadThreads(ctx context.Context, tickets []domain.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	ids := make([]string, len(tickets))
	index := make(map[string]int, len(tickets))
	for i := range tickets {
		ids[i] = tickets[i].ID
		index[tickets[i].ID] = i
		tickets[i].ViewerLastSeen = map[string]time.Time{}
	}

	rows, err := r.db.Query(ctx, `
        SELECT id, ticket_id, author_id, author_role, body, attachment_ref, created_at
        FROM ticket_comments WHERE ticket_id = ANY($1) ORDER BY position ASC`, ids)
	if err != nil {
		return err
	}
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.TicketID, &c.AuthorID, &c.AuthorRole, &c.Text, &c.AttachmentRef, &c.CreatedAt); err != nil {
			rows.Close()
			return err
		}
		i := index[c.TicketID]
		tickets[i].Comments = append(tickets[i].Comments, c)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return err
	}

	rows, err = r.db.Query(ctx, `
        SELECT ticket_id, viewer_id, last_seen_at FROM ticket_views WHERE ticket_id = ANY($1)`, ids)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var (
			ticketID, viewerID string
			seen               time.Time
		)
		if err := rows.Scan(&ticketID, &viewerID, &seen); err != nil {
			return err
		}
		tickets[index[ticketID]].ViewerLastSeen[viewerID] = seen
	}
	return rows.Err()
}

func scanTickets(rows pgx.Rows) ([]domain.Ticket, error) {
	defer rows.Close()
	var result []domain.Ticket
	for rows.Next() {
		var (
			ticket   domain.Ticket
			building *string
			floor    *int
			lab      *string
		)
		if err := rows.Scan(
			&ticket.ID,
			&ticket.Sequence,
			&ticket.HumanReadableID,
			&ticket.Title,
			&ticket.Description,
			&ticket.OriginDepartment,
			&building,
			&floor,
			&lab,
			&ticket.DestinationDepartmentID,
			&ticket.RoutedChannel,
			&ticket.RaisedByID,
			&ticket.AssignedToID,
			&ticket.Status,
			&ticket.Priority,
			&ticket.AttachmentRef,
			&ticket.LastActivityAt,
			&ticket.CreatedAt,
			&ticket.UpdatedAt,
		); err != nil {
			return nil, err
		}
		if building != nil && floor != nil {
			ticket.OriginLocation = &domain.Location{BuildingID: *building, FloorNumber: *floor}
			if lab != nil {
				ticket.OriginLocation.Lab = *lab
			}
		}
		result = append(result, ticket)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
