package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/harsh17045/IssueTracker-sub000/internal/api/dto"
	"github.com/harsh17045/IssueTracker-sub000/internal/domain"
	"github.com/harsh17045/IssueTracker-sub000/internal/service"
)

// TicketsHandler exposes ticket lifecycle and unread endpoints.
type TicketsHandler struct {
	tickets  *service.TicketService
	activity *service.ActivityService
}

// NewTicketsHandler constructs handler.
func NewTicketsHandler(tickets *service.TicketService, activity *service.ActivityService) *TicketsHandler {
	return &TicketsHandler{tickets: tickets, activity: activity}
}

// Raise POST /api/tickets.
func (h *TicketsHandler) Raise(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.RaiseTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.Raise(c.UserContext(), principal, service.RaiseInput{
		Title:                   req.Title,
		Description:             req.Description,
		DestinationDepartmentID: req.DestinationDepartmentID,
		Priority:                req.Priority,
		AttachmentRef:           req.AttachmentRef,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// List GET /api/tickets.
func (h *TicketsHandler) List(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	filter := service.ListFilter{}
	for _, status := range splitList(c.Query("status")) {
		filter.Statuses = append(filter.Statuses, domain.TicketStatus(status))
	}
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	filter.Offset = (page - 1) * pageSize
	filter.Limit = pageSize

	tickets, err := h.tickets.ListVisible(c.UserContext(), principal, filter)
	if err != nil {
		return err
	}
	items := make([]dto.TicketResponse, 0, len(tickets))
	for i := range tickets {
		items = append(items, ticketResponse(&tickets[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}

// Unread GET /api/tickets/unread.
func (h *TicketsHandler) Unread(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	entries, err := h.activity.UnreadSummary(c.UserContext(), principal)
	if err != nil {
		return err
	}
	items := make([]dto.UnreadResponse, 0, len(entries))
	for _, entry := range entries {
		items = append(items, dto.UnreadResponse{
			TicketID:          entry.TicketID,
			HumanReadableID:   entry.HumanReadableID,
			Title:             entry.Title,
			Status:            entry.Status,
			UnreadCount:       entry.UnreadCount,
			HasUnreadActivity: entry.HasUnreadActivity,
			Updated:           entry.Updated,
			LastActivityAt:    entry.LastActivityAt,
			LastSeenAt:        entry.LastSeenAt,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Get GET /api/tickets/:id.
func (h *TicketsHandler) Get(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	ticket, err := h.tickets.Get(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Edit PATCH /api/tickets/:id.
func (h *TicketsHandler) Edit(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.EditTicketRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.EditContent(c.UserContext(), principal, c.Params("id"), service.EditInput{
		Title:                   req.Title,
		Description:             req.Description,
		DestinationDepartmentID: req.DestinationDepartmentID,
		Priority:                req.Priority,
		AttachmentRef:           req.AttachmentRef,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// Transition POST /api/tickets/:id/status.
func (h *TicketsHandler) Transition(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.TransitionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	result, err := h.tickets.Transition(c.UserContext(), principal, c.Params("id"), req.Status, req.Comment)
	if err != nil {
		return err
	}
	resp := dto.TransitionResponse{Ticket: ticketResponse(result.Ticket)}
	for _, w := range result.Warnings {
		resp.Warnings = append(resp.Warnings, dto.WarningResponse{Code: w.Code, Message: w.Message, Comment: w.Comment})
	}
	return c.JSON(fiber.Map{"data": resp})
}

// Comment POST /api/tickets/:id/comments.
func (h *TicketsHandler) Comment(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CommentRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	comment, err := h.tickets.Comment(c.UserContext(), principal, c.Params("id"), req.Text, req.AttachmentRef)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": commentResponse(comment)})
}

// Revoke POST /api/tickets/:id/revoke.
func (h *TicketsHandler) Revoke(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.RevokeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	ticket, err := h.tickets.Revoke(c.UserContext(), principal, c.Params("id"), req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": ticketResponse(ticket)})
}

// MarkViewed POST /api/tickets/:id/view.
func (h *TicketsHandler) MarkViewed(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	seenAt, err := h.activity.MarkViewed(c.UserContext(), principal, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.ViewedResponse{TicketID: c.Params("id"), SeenAt: seenAt}})
}

func ticketResponse(ticket *domain.Ticket) dto.TicketResponse {
	comments := make([]dto.CommentResponse, 0, len(ticket.Comments))
	for i := range ticket.Comments {
		comments = append(comments, commentResponse(&ticket.Comments[i]))
	}
	resp := dto.TicketResponse{
		ID:                      ticket.ID,
		HumanReadableID:         ticket.HumanReadableID,
		Title:                   ticket.Title,
		Description:             ticket.Description,
		OriginDepartment:        ticket.OriginDepartment,
		DestinationDepartmentID: ticket.DestinationDepartmentID,
		RoutedChannel:           ticket.RoutedChannel,
		RaisedByID:              ticket.RaisedByID,
		AssignedToID:            ticket.AssignedToID,
		Status:                  ticket.Status,
		Priority:                ticket.Priority,
		AttachmentRef:           ticket.AttachmentRef,
		Comments:                comments,
		LastActivityAt:          ticket.LastActivityAt,
		CreatedAt:               ticket.CreatedAt,
		UpdatedAt:               ticket.UpdatedAt,
	}
	if loc := ticket.OriginLocation; loc != nil {
		resp.OriginLocation = &dto.LocationResponse{BuildingID: loc.BuildingID, FloorNumber: loc.FloorNumber, Lab: loc.Lab}
	}
	return resp
}

func commentResponse(comment *domain.Comment) dto.CommentResponse {
	return dto.CommentResponse{
		ID:            comment.ID,
		AuthorID:      comment.AuthorID,
		AuthorRole:    comment.AuthorRole,
		Text:          comment.Text,
		AttachmentRef: comment.AttachmentRef,
		Timestamp:     comment.CreatedAt,
	}
}
