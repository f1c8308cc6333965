package mail

import (
	"context"
	"errors"

	"github.com/socialsidekick/socialsidekick/backend/api/pkg/logger"
)

var (
	ErrMissingName    = errors.New("campaign name is required")
	ErrMissingSubject = errors.New("campaign subject is required")
	ErrMissingContent = errors.New("campaign content is required")
	ErrNoRecipients   = errors.New("at least one recipient list is required")
)

// Campaigner is the Brevo surface the service consumes. *BrevoClient
// satisfies it.
type Campaigner interface {
	CreateCampaign(ctx context.Context, req CreateCampaignRequest) (int64, error)
	ListCampaigns(ctx context.Context, limit int) ([]BrevoCampaign, error)
	SendNow(ctx context.Context, campaignID int64) error
}

type CreateRequest struct {
	Name        string  `json:"name"`
	Subject     string  `json:"subject"`
	HTMLContent string  `json:"html_content"`
	ListIDs     []int64 `json:"list_ids"`
	ScheduledAt string  `json:"scheduled_at,omitempty"`
	SendNow     bool    `json:"send_now"`
	CreatedBy   string  `json:"-"`
}

type Service struct {
	client Campaigner
	repo   Repository
	sender Sender
}

func NewService(client Campaigner, repo Repository, sender Sender) *Service {
	return &Service{client: client, repo: repo, sender: sender}
}

// Create drafts a campaign at Brevo, mirrors it locally and optionally
// triggers immediate delivery.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Campaign, error) {
	switch {
	case req.Name == "":
		return nil, ErrMissingName
	case req.Subject == "":
		return nil, ErrMissingSubject
	case req.HTMLContent == "":
		return nil, ErrMissingContent
	case len(req.ListIDs) == 0:
		return nil, ErrNoRecipients
	}

	brevoReq := CreateCampaignRequest{
		Name:        req.Name,
		Subject:     req.Subject,
		Sender:      s.sender,
		HTMLContent: req.HTMLContent,
		ScheduledAt: req.ScheduledAt,
	}
	brevoReq.Recipients.ListIDs = req.ListIDs

	brevoID, err := s.client.CreateCampaign(ctx, brevoReq)
	if err != nil {
		return nil, err
	}

	status := "draft"
	if req.SendNow {
		if err := s.client.SendNow(ctx, brevoID); err != nil {
			// The draft exists at Brevo; report it as such rather than
			// failing creation.
			logger.Warnf("mail: campaign %d created but send failed: %v", brevoID, err)
		} else {
			status = "sent"
		}
	} else if req.ScheduledAt != "" {
		status = "scheduled"
	}

	campaign := &Campaign{
		BrevoID:   brevoID,
		Name:      req.Name,
		Subject:   req.Subject,
		Status:    status,
		ListIDs:   req.ListIDs,
		CreatedBy: req.CreatedBy,
	}
	if err := s.repo.Insert(ctx, campaign); err != nil {
		logger.Warnf("mail: campaign %d not mirrored locally: %v", brevoID, err)
	}
	return campaign, nil
}

// List returns the local mirror; when it is empty the Brevo listing is
// consulted so a fresh deployment still shows existing campaigns.
func (s *Service) List(ctx context.Context) ([]Campaign, error) {
	local, err := s.repo.List(ctx)
	if err == nil && len(local) > 0 {
		return local, nil
	}
	if err != nil {
		logger.Warnf("mail: local campaign listing failed, falling back to brevo: %v", err)
	}

	remote, err := s.client.ListCampaigns(ctx, 50)
	if err != nil {
		return nil, err
	}
	out := make([]Campaign, len(remote))
	for i, c := range remote {
		out[i] = Campaign{BrevoID: c.ID, Name: c.Name, Subject: c.Subject, Status: c.Status}
	}
	return out, nil
}

// Send triggers delivery of an existing draft and updates the mirror.
func (s *Service) Send(ctx context.Context, brevoID int64) error {
	if err := s.client.SendNow(ctx, brevoID); err != nil {
		return err
	}
	if err := s.repo.SetStatus(ctx, brevoID, "sent"); err != nil {
		logger.Warnf("mail: campaign %d status not mirrored: %v", brevoID, err)
	}
	return nil
}
