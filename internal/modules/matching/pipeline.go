package matching

import (
	"context"
	"fmt"
	"log"

	"github.com/MattisW/matchmaking-platform-sub001/internal/models"
	"github.com/MattisW/matchmaking-platform-sub001/pkg/mailer"
	"github.com/MattisW/matchmaking-platform-sub001/pkg/queue"
)

// Pipeline runs the two background stages of carrier matching. The stages
// are queued independently, so each one must tolerate at-least-once
// delivery: a redelivered match stage resumes by re-enqueuing the invitation
// stage, and the invitation stage only touches carrier requests still "new".
type Pipeline struct {
	repo      RepositoryInterface
	matcher   *Matcher
	notifier  mailer.Notifier
	publisher queue.TaskPublisher
}

func NewPipeline(repo RepositoryInterface, matcher *Matcher, notifier mailer.Notifier, publisher queue.TaskPublisher) *Pipeline {
	return &Pipeline{
		repo:      repo,
		matcher:   matcher,
		notifier:  notifier,
		publisher: publisher,
	}
}

// HandleTask dispatches one queued task to its stage.
func (p *Pipeline) HandleTask(ctx context.Context, task queue.Task) error {
	switch task.Kind {
	case queue.TaskMatchStage:
		return p.RunMatchStage(ctx, task.TransportRequestID)
	case queue.TaskInviteStage:
		return p.RunInvitationStage(ctx, task.TransportRequestID)
	}
	return fmt.Errorf("pipeline: unknown task kind %q", task.Kind)
}

// RunMatchStage filters the carrier pool and materializes matches. Zero
// matches is not an error: the transport request reverts to "new" so the
// customer or ops can intervene. One or more matches enqueues the invitation
// stage.
func (p *Pipeline) RunMatchStage(ctx context.Context, transportRequestID string) error {
	tr, err := p.repo.GetTransportRequest(ctx, transportRequestID)
	if err != nil {
		return fmt.Errorf("Pipeline.RunMatchStage: %w", err)
	}

	// A redelivered task for an already-matched request resumes the chain
	// instead of re-running the matcher into the uniqueness constraint.
	existing, err := p.repo.CountCarrierRequests(ctx, transportRequestID)
	if err != nil {
		return fmt.Errorf("Pipeline.RunMatchStage: %w", err)
	}
	if existing > 0 {
		log.Printf("pipeline: request %s already has %d matches, resuming invitations", transportRequestID, existing)
		return p.publisher.Publish(ctx, queue.Task{Kind: queue.TaskInviteStage, TransportRequestID: transportRequestID})
	}

	if err := p.repo.SetRequestStatus(ctx, transportRequestID, models.RequestStatusMatching); err != nil {
		return fmt.Errorf("Pipeline.RunMatchStage: %w", err)
	}

	pool, err := p.repo.ListActiveCarriers(ctx)
	if err != nil {
		return fmt.Errorf("Pipeline.RunMatchStage: %w", err)
	}

	created, err := p.matcher.Run(ctx, tr, pool)
	if err != nil {
		return fmt.Errorf("Pipeline.RunMatchStage: %w", err)
	}

	if created == 0 {
		log.Printf("pipeline: request %s matched no carriers, reverting to new", transportRequestID)
		return p.repo.SetRequestStatus(ctx, transportRequestID, models.RequestStatusNew)
	}

	log.Printf("pipeline: request %s matched %d carriers", transportRequestID, created)
	return p.publisher.Publish(ctx, queue.Task{Kind: queue.TaskInviteStage, TransportRequestID: transportRequestID})
}

// RunInvitationStage dispatches an invitation for every carrier request still
// "new". Notification delivery is fire-and-forget; only the state transition
// matters for the stage's outcome.
func (p *Pipeline) RunInvitationStage(ctx context.Context, transportRequestID string) error {
	pending, err := p.repo.ListNewCarrierRequests(ctx, transportRequestID)
	if err != nil {
		return fmt.Errorf("Pipeline.RunInvitationStage: %w", err)
	}

	for _, cr := range pending {
		if err := p.repo.MarkInvitationSent(ctx, cr.ID); err != nil {
			// A concurrent run already sent this one; skip it.
			if err == models.ErrOfferNotOpen {
				continue
			}
			return fmt.Errorf("Pipeline.RunInvitationStage: %w", err)
		}
		p.notifier.NotifyInvitation(ctx, cr.ID)
	}
	return nil
}
