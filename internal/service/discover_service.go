package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"alcyxob/coaching-platform/internal/domain"
	"alcyxob/coaching-platform/internal/repository"

	"go.uber.org/zap"
)

// CreateEventInput is an admin's new discover event. Date-times are RFC3339.
type CreateEventInput struct {
	Title         string
	Description   string
	StartDateTime string
	EndDateTime   string
	Timezone      string
	Location      string
	CoverImageURL string
	Featured      bool
}

// DiscoverService manages the organization's discover-page events.
type DiscoverService interface {
	ListEvents(ctx context.Context, caller domain.Caller, upcomingOnly bool) ([]domain.DiscoverEvent, error)
	CreateEvent(ctx context.Context, caller domain.Caller, input CreateEventInput) (*domain.DiscoverEvent, error)
}

type discoverService struct {
	eventRepo repository.DiscoverEventRepository
	logger    *zap.Logger
	now       func() time.Time
}

// NewDiscoverService creates a new DiscoverService.
func NewDiscoverService(eventRepo repository.DiscoverEventRepository, logger *zap.Logger) DiscoverService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &discoverService{
		eventRepo: eventRepo,
		logger:    logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (s *discoverService) ListEvents(ctx context.Context, caller domain.Caller, upcomingOnly bool) ([]domain.DiscoverEvent, error) {
	if caller.OrganizationID == "" {
		return nil, ErrForbidden
	}
	var after *time.Time
	if upcomingOnly {
		now := s.now()
		after = &now
	}
	events, err := s.eventRepo.ListByOrganization(ctx, caller.OrganizationID, after)
	if err != nil {
		return nil, fmt.Errorf("listing discover events: %w", err)
	}
	if events == nil {
		events = []domain.DiscoverEvent{}
	}
	return events, nil
}

func (s *discoverService) CreateEvent(ctx context.Context, caller domain.Caller, input CreateEventInput) (*domain.DiscoverEvent, error) {
	if caller.OrganizationID == "" {
		return nil, ErrForbidden
	}

	// 1. Validate
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, validationError("title is required")
	}
	start, err := time.Parse(time.RFC3339, input.StartDateTime)
	if err != nil {
		return nil, validationError("startDateTime must be an RFC3339 date-time")
	}
	var end *time.Time
	if input.EndDateTime != "" {
		e, err := time.Parse(time.RFC3339, input.EndDateTime)
		if err != nil {
			return nil, validationError("endDateTime must be an RFC3339 date-time")
		}
		if e.Before(start) {
			return nil, validationError("endDateTime must not be before startDateTime")
		}
		e = e.UTC()
		end = &e
	}
	if input.Timezone != "" {
		if _, err := time.LoadLocation(input.Timezone); err != nil {
			return nil, validationError("timezone must be an IANA zone name")
		}
	}

	// 2. Store
	now := s.now()
	event := &domain.DiscoverEvent{
		OrganizationID: caller.OrganizationID,
		Title:          title,
		Description:    input.Description,
		StartDateTime:  start.UTC(),
		EndDateTime:    end,
		Timezone:       input.Timezone,
		Location:       input.Location,
		CoverImageURL:  input.CoverImageURL,
		Featured:       input.Featured,
		CreatedBy:      caller.UserID,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	id, err := s.eventRepo.Create(ctx, event)
	if err != nil {
		return nil, fmt.Errorf("creating discover event: %w", err)
	}
	event.ID = id

	s.logger.Info("Discover event created",
		zap.String("eventId", id.Hex()),
		zap.String("organizationId", caller.OrganizationID),
		zap.String("by", caller.UserID),
	)
	return event, nil
}
