package domain

import "time"

// CommentAuthorRole indicates which side of the ticket wrote a comment.
type CommentAuthorRole string

const (
	AuthorRoleEmployee CommentAuthorRole = "employee"
	AuthorRoleStaff    CommentAuthorRole = "staff"
)

// Counterpart returns the role whose comments are unread for r.
func (r CommentAuthorRole) Counterpart() CommentAuthorRole {
	if r == AuthorRoleStaff {
		return AuthorRoleEmployee
	}
	return AuthorRoleStaff
}

// Comment is one entry in a ticket thread.
type Comment struct {
	ID            string
	TicketID      string
	AuthorID      string
	AuthorRole    CommentAuthorRole
	Text          string
	AttachmentRef *string
	CreatedAt     time.Time
}
