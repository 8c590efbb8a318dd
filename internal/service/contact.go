package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/openfolio/portfolio-api/internal/core"
	"github.com/openfolio/portfolio-api/internal/domain/model"
	"github.com/openfolio/portfolio-api/internal/observability/notify"
)

// contactNotifyTimeout bounds outbound notification delivery so a slow
// sink never delays the form response.
const contactNotifyTimeout = 10 * time.Second

// ContactServiceOptions groups dependencies for ContactService.
type ContactServiceOptions struct {
	Repo core.ContactRepository

	// Events is optional; when set, stored messages are announced to it.
	Events notify.Sink
	Logger *slog.Logger
}

// ContactService stores contact form submissions and serves the admin inbox.
type ContactService struct {
	repo   core.ContactRepository
	events notify.Sink
	logger *slog.Logger
}

// NewContactService constructs a new ContactService.
func NewContactService(opts ContactServiceOptions) (*ContactService, error) {
	if opts.Repo == nil {
		return nil, errors.New("contact service: repository is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &ContactService{repo: opts.Repo, events: opts.Events, logger: logger}, nil
}

// Submit validates and stores a contact form submission. Notification
// delivery happens off the request path; a failing sink never fails the
// submission.
func (s *ContactService) Submit(ctx context.Context, req *model.CreateContactMessageRequest) (*model.ContactMessage, error) {
	if req == nil {
		return nil, errors.New("contact message request is required")
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}

	msg, err := s.repo.Create(ctx, req)
	if err != nil {
		return nil, err
	}

	if s.events != nil {
		go s.announce(context.WithoutCancel(ctx), msg)
	}
	return msg, nil
}

func (s *ContactService) announce(ctx context.Context, msg *model.ContactMessage) {
	ctx, cancel := context.WithTimeout(ctx, contactNotifyTimeout)
	defer cancel()

	event := notify.Event{
		Kind:       notify.KindContactReceived,
		Severity:   notify.SeverityInfo,
		Summary:    fmt.Sprintf("New contact message from %s", msg.Name),
		Detail:     msg.Message,
		OccurredAt: msg.CreatedAt,
		Metadata: map[string]string{
			"id":    msg.ID,
			"email": msg.Email,
		},
	}
	if err := s.events.Send(ctx, event); err != nil {
		s.logger.WarnContext(ctx, "contact notification failed", "message_id", msg.ID, "error", err)
	}
}

// List returns a page of messages, newest first (admin inbox).
func (s *ContactService) List(ctx context.Context, limit, offset int) ([]*model.ContactMessage, error) {
	return s.repo.List(ctx, limit, offset)
}

// Delete removes a message from the inbox.
func (s *ContactService) Delete(ctx context.Context, id string) (bool, error) {
	return s.repo.Delete(ctx, id)
}
