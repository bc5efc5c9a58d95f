package workflow

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"

	"snackzinabi/internal/extraction"
	"snackzinabi/internal/metrics"
	"snackzinabi/internal/models"
)

// Outcome is the explicit result of one confirmation attempt. Callers act
// on this, never on the response text.
type Outcome string

const (
	OutcomeNotConfirmed     Outcome = "not_confirmed"
	OutcomeIncomplete       Outcome = "incomplete"
	OutcomeCommitted        Outcome = "committed"
	OutcomeAlreadyCommitted Outcome = "already_committed"
	OutcomeStorageError     Outcome = "storage_error"
)

// Result is what one inbound utterance produced.
type Result struct {
	Outcome  Outcome
	Response string
	Missing  []string
	Order    *models.Commande
}

// Committed reports whether this attempt persisted an order.
func (r Result) Committed() bool {
	return r.Outcome == OutcomeCommitted
}

// maxConcurrentNotifications bounds the kitchen fan-out goroutines spawned
// by commits.
const maxConcurrentNotifications = 8

// Workflow is the confirmation state machine. For each conversation it
// decides when a candidate order is complete, reconstructs it from the last
// assistant summary when the user confirms, commits it, and dispatches the
// kitchen notification. Confirmation attempts for one conversation are
// serialized so duplicate submissions cannot commit two orders.
type Workflow struct {
	extractor   *extraction.Extractor
	transcripts TranscriptStore
	orders      OrderStore
	notifier    Notifier
	log         *logrus.Entry
	metrics     *metrics.Collector

	mu        sync.Mutex
	convLocks map[uint]*sync.Mutex
	summaries map[uint]extraction.CandidateOrder
	committed map[uint]bool

	notifyWG  sync.WaitGroup
	notifySem chan struct{}
}

// New creates a confirmation workflow.
func New(extractor *extraction.Extractor, transcripts TranscriptStore, orders OrderStore, notifier Notifier, log *logrus.Logger, collector *metrics.Collector) *Workflow {
	return &Workflow{
		extractor:   extractor,
		transcripts: transcripts,
		orders:      orders,
		notifier:    notifier,
		log:         log.WithField("component", "workflow"),
		metrics:     collector,
		convLocks:   make(map[uint]*sync.Mutex),
		summaries:   make(map[uint]extraction.CandidateOrder),
		committed:   make(map[uint]bool),
		notifySem:   make(chan struct{}, maxConcurrentNotifications),
	}
}

// lockConversation returns the mutex serializing one conversation's
// check-then-commit sequence.
func (w *Workflow) lockConversation(id uint) *sync.Mutex {
	w.mu.Lock()
	defer w.mu.Unlock()
	l, ok := w.convLocks[id]
	if !ok {
		l = &sync.Mutex{}
		w.convLocks[id] = l
	}
	return l
}

// ObserveAssistantMessage records the candidate order carried by an
// assistant reply. When the user later confirms, this cached candidate is
// preferred over re-parsing the transcript, which keeps the round trip off
// the response wording as long as the process lives.
func (w *Workflow) ObserveAssistantMessage(conversationID uint, text string) {
	candidate := w.extractor.Extract(text)
	if candidate.IsEmpty() {
		return
	}
	w.mu.Lock()
	w.summaries[conversationID] = candidate
	w.mu.Unlock()
}

// HandleMessage runs one inbound user utterance through the state machine.
// Validation problems return an error wrapping ErrValidation; storage
// problems return a Result carrying the generic failure response together
// with an error wrapping ErrStorage. Every other path is a Result with a
// nil error.
func (w *Workflow) HandleMessage(ctx context.Context, conversationID uint, userEmail, text string) (Result, error) {
	if strings.TrimSpace(text) == "" {
		return Result{}, fmt.Errorf("%w: empty message", ErrValidation)
	}
	if conversationID == 0 {
		return Result{}, fmt.Errorf("%w: conversation id required", ErrValidation)
	}

	lock := w.lockConversation(conversationID)
	lock.Lock()
	defer lock.Unlock()

	candidate := w.extractor.Extract(text)

	if !candidate.Confirmed {
		w.metrics.RecordConfirmationAttempt(metrics.OutcomeNotConfirmed)
		return Result{Outcome: OutcomeNotConfirmed, Response: msgPromptConfirmation}, nil
	}

	done, err := w.conversationCompleted(ctx, conversationID)
	if err != nil {
		w.metrics.RecordConfirmationAttempt(metrics.OutcomeStorageError)
		return Result{Outcome: OutcomeStorageError, Response: msgStorageError},
			fmt.Errorf("%w: completion lookup: %v", ErrStorage, err)
	}
	if done {
		return Result{Outcome: OutcomeAlreadyCommitted, Response: msgAlreadyConfirmed}, nil
	}

	// The confirmation utterance itself carries no order data; rebuild the
	// candidate from the assistant's last summary. Confirmation intent
	// stays with the user's current utterance.
	candidate, err = w.reconstruct(ctx, conversationID)
	if err != nil {
		w.metrics.RecordConfirmationAttempt(metrics.OutcomeStorageError)
		return Result{Outcome: OutcomeStorageError, Response: msgStorageError},
			fmt.Errorf("%w: transcript read: %v", ErrStorage, err)
	}
	candidate.Confirmed = true

	if missing := candidate.MissingFields(); len(missing) > 0 {
		w.metrics.RecordConfirmationAttempt(metrics.OutcomeIncomplete)
		w.log.WithFields(logrus.Fields{
			"conversation": conversationID,
			"missing":      missing,
		}).Info("confirmation with incomplete order")
		return Result{
			Outcome:  OutcomeIncomplete,
			Response: incompleteResponse(missing),
			Missing:  missing,
		}, nil
	}

	commande, err := w.orders.Insert(ctx, candidate, conversationID, userEmail)
	if err != nil {
		w.metrics.RecordConfirmationAttempt(metrics.OutcomeStorageError)
		w.log.WithField("conversation", conversationID).WithError(err).Error("order insert failed")
		return Result{Outcome: OutcomeStorageError, Response: msgStorageError},
			fmt.Errorf("%w: insert: %v", ErrStorage, err)
	}

	// The order is durable from here on: remember the commit locally so a
	// duplicate confirmation cannot book a second order even if the status
	// update below fails.
	w.mu.Lock()
	w.committed[conversationID] = true
	delete(w.summaries, conversationID)
	w.mu.Unlock()

	if err := w.orders.MarkConversationCompleted(ctx, conversationID); err != nil {
		w.log.WithField("conversation", conversationID).WithError(err).Warn("conversation status update failed")
	}

	w.metrics.RecordConfirmationAttempt(metrics.OutcomeCommitted)
	w.metrics.RecordOrderCommitted()
	w.log.WithFields(logrus.Fields{
		"conversation": conversationID,
		"commande":     commande.ID,
		"table":        commande.Table,
	}).Info("order committed")

	w.dispatchNotification(commande)

	return Result{
		Outcome:  OutcomeCommitted,
		Response: successResponse(commande),
		Order:    commande,
	}, nil
}

// conversationCompleted checks the local commit cache first, then the store
// (which covers orders committed before a restart).
func (w *Workflow) conversationCompleted(ctx context.Context, conversationID uint) (bool, error) {
	w.mu.Lock()
	done := w.committed[conversationID]
	w.mu.Unlock()
	if done {
		return true, nil
	}
	return w.orders.ConversationCompleted(ctx, conversationID)
}

// reconstruct rebuilds the candidate order for a confirming conversation:
// the cached candidate from the last observed assistant summary when
// available, otherwise a fresh extraction from the transcript. When the
// conversation has no qualifying assistant message the candidate is empty
// and the completeness gate rejects it.
func (w *Workflow) reconstruct(ctx context.Context, conversationID uint) (extraction.CandidateOrder, error) {
	w.mu.Lock()
	cached, ok := w.summaries[conversationID]
	w.mu.Unlock()
	if ok {
		return cached, nil
	}

	summary, err := w.transcripts.LastAssistantMessage(ctx, conversationID)
	if err != nil {
		return extraction.CandidateOrder{}, err
	}
	if summary == "" {
		return extraction.CandidateOrder{}, nil
	}
	return w.extractor.Extract(summary), nil
}

// dispatchNotification hands the committed order to the kitchen without
// blocking the response to the customer. Concurrency is bounded and every
// dispatch is accounted for: Wait drains them on shutdown.
func (w *Workflow) dispatchNotification(commande *models.Commande) {
	w.notifyWG.Add(1)
	go func() {
		defer w.notifyWG.Done()
		w.notifySem <- struct{}{}
		defer func() { <-w.notifySem }()

		deliveries := w.notifier.NotifyNewCommande(commande)
		var failed int
		for _, d := range deliveries {
			if d.Err != nil {
				failed++
			}
		}
		w.log.WithFields(logrus.Fields{
			"commande":  commande.ID,
			"delivered": len(deliveries) - failed,
			"failed":    failed,
		}).Info("kitchen notification dispatched")
	}()
}

// Wait blocks until all in-flight kitchen notifications have completed.
func (w *Workflow) Wait() {
	w.notifyWG.Wait()
}
