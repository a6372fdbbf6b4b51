package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harsh17045/IssueTracker-sub000/internal/domain"
	"github.com/harsh17045/IssueTracker-sub000/internal/repository"
)

func newTicket(id string) *domain.Ticket {
	now := time.Now().UTC()
	return &domain.Ticket{
		ID:                      id,
		Title:                   "Printer jam",
		DestinationDepartmentID: "it",
		RoutedChannel:           "dept:it",
		RaisedByID:              "e-1",
		Status:                  domain.TicketStatusPending,
		Priority:                domain.TicketPriorityNormal,
		LastActivityAt:          now,
		CreatedAt:               now,
		UpdatedAt:               now,
	}
}

func TestCreateAssignsDistinctSequences(t *testing.T) {
	repo := NewTicketRepository()
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			assert.NoError(t, repo.Create(ctx, newTicket(string(rune('A'+i))), "TK-"))
		}(i)
	}
	wg.Wait()

	tickets, err := repo.List(ctx, repository.TicketFilter{Limit: 100})
	require.NoError(t, err)
	seen := map[int64]bool{}
	for _, ticket := range tickets {
		assert.False(t, seen[ticket.Sequence], "duplicate sequence %d", ticket.Sequence)
		seen[ticket.Sequence] = true
	}
	assert.Len(t, seen, 50)
}

func TestClaimRaceHasOneWinner(t *testing.T) {
	repo := NewTicketRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newTicket("t-1"), "TK-"))

	var wg sync.WaitGroup
	results := make([]error, 8)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = repo.UpdateStatus(ctx, repository.StatusChange{
				TicketID: "t-1",
				From:     domain.TicketStatusPending,
				To:       domain.TicketStatusInProgress,
				ClaimFor: string(rune('a' + i)),
				At:       time.Now(),
			})
		}(i)
	}
	wg.Wait()

	wins := 0
	for _, err := range results {
		if err == nil {
			wins++
		} else {
			assert.ErrorIs(t, err, repository.ErrConflict)
		}
	}
	assert.Equal(t, 1, wins)
}

func TestReadsAreIsolatedCopies(t *testing.T) {
	repo := NewTicketRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newTicket("t-1"), "TK-"))

	got, err := repo.GetByID(ctx, "t-1")
	require.NoError(t, err)
	got.Title = "mutated"
	got.ViewerLastSeen["x"] = time.Now()

	again, err := repo.GetByID(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, "Printer jam", again.Title)
	assert.Empty(t, again.ViewerLastSeen)
}

func TestAppendCommentRefusedOnRevoked(t *testing.T) {
	repo := NewTicketRepository()
	ctx := context.Background()
	require.NoError(t, repo.Create(ctx, newTicket("t-1"), "TK-"))
	require.NoError(t, repo.UpdateStatus(ctx, repository.StatusChange{
		TicketID: "t-1", From: domain.TicketStatusPending, To: domain.TicketStatusRevoked, At: time.Now(),
	}))

	err := repo.AppendComment(ctx, &domain.Comment{ID: "c", TicketID: "t-1", Text: "hi", CreatedAt: time.Now()})
	assert.ErrorIs(t, err, repository.ErrConflict)
}

func TestMarkViewedLeavesActivityAlone(t *testing.T) {
	repo := NewTicketRepository()
	ctx := context.Background()
	ticket := newTicket("t-1")
	require.NoError(t, repo.Create(ctx, ticket, "TK-"))

	seen := ticket.LastActivityAt.Add(time.Minute)
	require.NoError(t, repo.MarkViewed(ctx, "t-1", "e-1", seen))

	got, err := repo.GetByID(ctx, "t-1")
	require.NoError(t, err)
	assert.True(t, got.LastActivityAt.Equal(ticket.LastActivityAt))
	assert.True(t, got.ViewerLastSeen["e-1"].Equal(seen))
	assert.ErrorIs(t, repo.MarkViewed(ctx, "missing", "e-1", seen), repository.ErrNotFound)
}

func TestListMatchesChannelsOrAssignee(t *testing.T) {
	repo := NewTicketRepository()
	ctx := context.Background()

	routed := newTicket("routed")
	routed.RoutedChannel = "loc:b1:2"
	other := newTicket("other")
	other.RoutedChannel = "loc:b9:9"
	held := newTicket("held")
	held.RoutedChannel = "loc:b9:9"
	for _, ticket := range []*domain.Ticket{routed, other, held} {
		require.NoError(t, repo.Create(ctx, ticket, "TK-"))
	}
	require.NoError(t, repo.UpdateStatus(ctx, repository.StatusChange{
		TicketID: "held", From: domain.TicketStatusPending, To: domain.TicketStatusInProgress, ClaimFor: "s-1", At: time.Now(),
	}))

	staff := "s-1"
	tickets, err := repo.List(ctx, repository.TicketFilter{Channels: []string{"loc:b1:2"}, AssignedToID: &staff})
	require.NoError(t, err)
	ids := []string{}
	for _, ticket := range tickets {
		ids = append(ids, ticket.ID)
	}
	assert.ElementsMatch(t, []string{"routed", "held"}, ids)
}

func TestFloorLocksDiscardFailedWrites(t *testing.T) {
	repo := NewAssignmentRepository()
	ctx := context.Background()
	key := domain.FloorKey{DepartmentID: "it", BuildingID: "b1", FloorNumber: 1}

	err := repo.WithFloorLocks(ctx, []domain.FloorKey{key}, func(tx repository.AssignmentTx) error {
		require.NoError(t, tx.Insert(ctx, &domain.LocationAssignment{
			ID: "a-1", StaffID: "s-1", DepartmentID: "it", BuildingID: "b1", FloorNumber: 1, Labs: []string{"L1"},
		}))
		return assert.AnError
	})
	assert.ErrorIs(t, err, assert.AnError)

	stored, err := repo.ListByFloor(ctx, key)
	require.NoError(t, err)
	assert.Empty(t, stored)
}
