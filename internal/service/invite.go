package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/trudify/trudify-core/internal/domain"
	"github.com/trudify/trudify-core/internal/repository"
	"github.com/trudify/trudify-core/pkg/logger/sl"
	"golang.org/x/sync/errgroup"
)

type InviteService interface {
	FindMatchingProfessionals(ctx context.Context, taskID, category, city, customerID string, limit int) ([]domain.ProfessionalRecord, error)
	SendAutoInvitations(ctx context.Context, job domain.InviteJob) (*domain.InviteResult, error)
}

type InviteServiceImpl struct {
	log           *slog.Logger
	professionals repository.ProfessionalRepository
	notifications repository.NotificationRepository
	notifier      Notifier
	links         LinkGenerator
	translator    Translator
	limit         int
	concurrency   int
	now           func() time.Time
	newID         func() string
}

func NewInviteService(
	log *slog.Logger,
	professionals repository.ProfessionalRepository,
	notifications repository.NotificationRepository,
	notifier Notifier,
	links LinkGenerator,
	translator Translator,
	limit int,
	concurrency int,
) *InviteServiceImpl {
	if concurrency < 1 {
		concurrency = 1
	}

	limit = max(limit, 0)

	return &InviteServiceImpl{
		log:           log,
		professionals: professionals,
		notifications: notifications,
		notifier:      notifier,
		links:         links,
		translator:    translator,
		limit:         limit,
		concurrency:   concurrency,
		now:           time.Now,
		newID:         newID,
	}
}

// FindMatchingProfessionals returns eligible professionals offering category
// who work in city and have not been invited to the task yet. The customer is
// never matched.
func (s *InviteServiceImpl) FindMatchingProfessionals(ctx context.Context, taskID, category, city, customerID string, limit int) ([]domain.ProfessionalRecord, error) {
	const op = "internal.service.invite.FindMatchingProfessionals"

	candidates, err := s.professionals.ListProfessionalsByCategory(ctx, category, customerID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list professionals: %w", op, err)
	}

	invitedIDs, err := s.notifications.ListInvitedUserIDs(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to list invited users: %w", op, err)
	}

	invited := make(map[string]struct{}, len(invitedIDs))
	for _, id := range invitedIDs {
		invited[id] = struct{}{}
	}

	limit = max(limit, 0)

	matches := make([]domain.ProfessionalRecord, 0, min(limit, len(candidates)))
	for i := range candidates {
		if len(matches) >= limit {
			break
		}

		p := &candidates[i]
		if p.ID == customerID || !p.ServesCity(city) {
			continue
		}

		if _, ok := invited[p.ID]; ok {
			continue
		}

		matches = append(matches, *p)
	}

	return matches, nil
}

// SendAutoInvitations invites every matching professional. A failure for one
// professional never stops the others; it is reported in the result.
func (s *InviteServiceImpl) SendAutoInvitations(ctx context.Context, job domain.InviteJob) (*domain.InviteResult, error) {
	const op = "internal.service.invite.SendAutoInvitations"
	log := s.log.With(slog.String("op", op), slog.String("task_id", job.TaskID))

	candidates, err := s.FindMatchingProfessionals(ctx, job.TaskID, job.Category, job.City, job.CustomerID, s.limit)
	if err != nil {
		return nil, err
	}

	var (
		mu     sync.Mutex
		result = &domain.InviteResult{Errors: []string{}}
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i := range candidates {
		p := candidates[i]

		g.Go(func() error {
			outcome, errs := s.invite(gctx, job, &p)

			mu.Lock()
			defer mu.Unlock()

			switch outcome {
			case inviteSent:
				result.InvitedCount++
			case inviteSkipped:
				result.SkippedCount++
			}
			result.Errors = append(result.Errors, errs...)

			return nil
		})
	}

	_ = g.Wait()

	log.Info("auto-invitations sent",
		slog.Int("candidates", len(candidates)),
		slog.Int("invited", result.InvitedCount),
		slog.Int("skipped", result.SkippedCount),
		slog.Int("errors", len(result.Errors)),
	)

	return result, nil
}

type inviteOutcome int

const (
	inviteFailed inviteOutcome = iota
	inviteSent
	inviteSkipped
)

func (s *InviteServiceImpl) invite(ctx context.Context, job domain.InviteJob, p *domain.ProfessionalRecord) (inviteOutcome, []string) {
	log := s.log.With(slog.String("task_id", job.TaskID), slog.String("professional_id", p.ID))

	locale := "bg"
	if p.PreferredLanguage != nil && *p.PreferredLanguage != "" {
		locale = *p.PreferredLanguage
	}

	categoryLabel := s.translator.Translate("category."+job.Category, locale)

	created, err := s.notifications.CreateTaskInvitation(ctx, &domain.Notification{
		ID:        s.newID(),
		UserID:    p.ID,
		Type:      domain.NotificationTaskInvitation,
		TaskID:    &job.TaskID,
		Title:     s.translator.Translate("invite.title", locale),
		Message:   fmt.Sprintf("%s: %s", categoryLabel, job.Title),
		CreatedAt: s.now().UTC(),
	})
	if err != nil {
		log.Error("failed to store invitation", sl.Err(err))
		invitationsTotal.WithLabelValues("error").Inc()

		return inviteFailed, []string{fmt.Sprintf("%s: store invitation: %v", p.ID, err)}
	}

	if !created {
		invitationsTotal.WithLabelValues("skipped").Inc()
		return inviteSkipped, nil
	}

	invitationsTotal.WithLabelValues("invited").Inc()

	var errs []string

	destination := "/tasks/" + job.TaskID

	telegramLink, err := s.links.Generate(p.ID, "telegram", destination)
	if err != nil {
		errs = append(errs, fmt.Sprintf("%s: telegram link: %v", p.ID, err))
		telegramLink = destination
	}

	res := s.notifier.SendTelegram(ctx, p.ID, fmt.Sprintf("%s\n%s (%s)\n%s",
		s.translator.Translate("invite.title", locale), job.Title, categoryLabel, telegramLink,
	))
	invitationDeliveriesTotal.WithLabelValues("telegram", string(res.Status)).Inc()
	if res.Failed() {
		errs = append(errs, fmt.Sprintf("%s: telegram: %s", p.ID, res.Reason))
	}

	emailLink, err := s.links.Generate(p.ID, "email", destination)
	if err != nil {
		errs = append(errs, fmt.Sprintf("%s: email link: %v", p.ID, err))
		emailLink = destination
	}

	data := map[string]any{
		"task_title":     job.Title,
		"category_label": categoryLabel,
		"city":           job.City,
		"link":           emailLink,
	}
	if job.BudgetMax != nil {
		data["budget_max"] = *job.BudgetMax
	}

	res = s.notifier.SendEmail(ctx, p.ID, "task_invitation", data, locale)
	invitationDeliveriesTotal.WithLabelValues("email", string(res.Status)).Inc()
	if res.Failed() {
		errs = append(errs, fmt.Sprintf("%s: email: %s", p.ID, res.Reason))
	}

	return inviteSent, errs
}
