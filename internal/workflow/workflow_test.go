package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snackzinabi/internal/extraction"
	"snackzinabi/internal/kitchen"
	"snackzinabi/internal/metrics"
	"snackzinabi/internal/models"
)

type fakeTranscripts struct {
	mu       sync.Mutex
	messages map[uint][]models.Message
	readErr  error
}

func newFakeTranscripts() *fakeTranscripts {
	return &fakeTranscripts{messages: make(map[uint][]models.Message)}
}

func (f *fakeTranscripts) Append(_ context.Context, conversationID uint, text string, fromUser bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messages[conversationID] = append(f.messages[conversationID], models.Message{
		ConversationID: conversationID,
		Text:           text,
		IsUser:         fromUser,
	})
	return nil
}

func (f *fakeTranscripts) History(_ context.Context, conversationID uint) ([]models.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Message(nil), f.messages[conversationID]...), nil
}

func (f *fakeTranscripts) LastAssistantMessage(_ context.Context, conversationID uint) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.readErr != nil {
		return "", f.readErr
	}
	msgs := f.messages[conversationID]
	lastUser := -1
	for i := len(msgs) - 1; i >= 0; i-- {
		if msgs[i].IsUser {
			lastUser = i
			break
		}
	}
	for i := lastUser - 1; i >= 0; i-- {
		if !msgs[i].IsUser {
			return msgs[i].Text, nil
		}
	}
	return "", nil
}

type fakeOrders struct {
	mu        sync.Mutex
	inserted  []*models.Commande
	completed map[uint]bool
	insertErr error
	markErr   error
	nextID    uint
}

func newFakeOrders() *fakeOrders {
	return &fakeOrders{completed: make(map[uint]bool)}
}

func (f *fakeOrders) Insert(_ context.Context, c extraction.CandidateOrder, conversationID uint, userEmail string) (*models.Commande, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.insertErr != nil {
		return nil, f.insertErr
	}
	f.nextID++
	commande := &models.Commande{
		Plat:           c.Dish,
		Viande:         c.Meat,
		Legumes:        c.VegetablesDisplay(),
		Sauces:         c.SaucesDisplay(),
		Taille:         c.Size,
		Table:          c.Table,
		ConversationID: conversationID,
		UserEmail:      userEmail,
	}
	commande.ID = f.nextID
	f.inserted = append(f.inserted, commande)
	return commande, nil
}

func (f *fakeOrders) MarkConversationCompleted(_ context.Context, conversationID uint) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.markErr != nil {
		return f.markErr
	}
	f.completed[conversationID] = true
	return nil
}

func (f *fakeOrders) ConversationCompleted(_ context.Context, conversationID uint) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.completed[conversationID], nil
}

func (f *fakeOrders) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.inserted)
}

type fakeNotifier struct {
	mu    sync.Mutex
	calls []*models.Commande
}

func (f *fakeNotifier) NotifyNewCommande(c *models.Commande) []kitchen.Delivery {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func newTestWorkflow(transcripts *fakeTranscripts, orders *fakeOrders, notifier *fakeNotifier) *Workflow {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return New(extraction.NewExtractor(extraction.Config{}), transcripts, orders, notifier, log, metrics.NewCollector())
}

const summaryText = "Pour résumer votre commande : Plat : tacos , Viande : poulet , Taille : grand , Légumes : tomate , Sauces : mayonnaise , Table : 5 ."

func TestHandleMessageValidation(t *testing.T) {
	w := newTestWorkflow(newFakeTranscripts(), newFakeOrders(), &fakeNotifier{})

	_, err := w.HandleMessage(context.Background(), 1, "a@b.fr", "   ")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = w.HandleMessage(context.Background(), 0, "a@b.fr", "je confirme")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestHandleMessageNotConfirmed(t *testing.T) {
	orders := newFakeOrders()
	w := newTestWorkflow(newFakeTranscripts(), orders, &fakeNotifier{})

	res, err := w.HandleMessage(context.Background(), 1, "a@b.fr", "un tacos poulet grand table 5")
	require.NoError(t, err)
	assert.Equal(t, OutcomeNotConfirmed, res.Outcome)
	assert.False(t, res.Committed())
	assert.Equal(t, 0, orders.count())
}

func TestConfirmationReconstructsFromAssistantSummary(t *testing.T) {
	transcripts := newFakeTranscripts()
	orders := newFakeOrders()
	notifier := &fakeNotifier{}
	w := newTestWorkflow(transcripts, orders, notifier)

	ctx := context.Background()
	require.NoError(t, transcripts.Append(ctx, 1, "je veux un tacos", true))
	require.NoError(t, transcripts.Append(ctx, 1, summaryText, false))
	require.NoError(t, transcripts.Append(ctx, 1, "je confirme", true))

	res, err := w.HandleMessage(ctx, 1, "a@b.fr", "je confirme")
	require.NoError(t, err)
	require.True(t, res.Committed())
	require.NotNil(t, res.Order)

	assert.Equal(t, "tacos", res.Order.Plat)
	assert.Equal(t, "poulet", res.Order.Viande)
	assert.Equal(t, "grand", res.Order.Taille)
	assert.Equal(t, "tomate", res.Order.Legumes)
	assert.Equal(t, "mayonnaise", res.Order.Sauces)
	assert.Equal(t, 5, res.Order.Table)
	assert.Equal(t, "a@b.fr", res.Order.UserEmail)

	assert.Contains(t, res.Response, "Votre commande est confirmée")
	assert.Contains(t, res.Response, "Table : 5")

	w.Wait()
	assert.Equal(t, 1, orders.count())
	require.Equal(t, 1, notifier.count())
	assert.Equal(t, res.Order.ID, notifier.calls[0].ID)
	assert.True(t, orders.completed[1])
}

func TestConfirmationPrefersCachedSummary(t *testing.T) {
	transcripts := newFakeTranscripts()
	orders := newFakeOrders()
	w := newTestWorkflow(transcripts, orders, &fakeNotifier{})

	// Nothing in the transcript, only the observed assistant reply.
	w.ObserveAssistantMessage(2, summaryText)

	res, err := w.HandleMessage(context.Background(), 2, "a@b.fr", "ok parfait")
	require.NoError(t, err)
	assert.True(t, res.Committed())
	assert.Equal(t, "tacos", res.Order.Plat)
	w.Wait()
}

func TestConfirmationWithoutPriorSummaryIsIncomplete(t *testing.T) {
	orders := newFakeOrders()
	notifier := &fakeNotifier{}
	w := newTestWorkflow(newFakeTranscripts(), orders, notifier)

	res, err := w.HandleMessage(context.Background(), 3, "a@b.fr", "je confirme")
	require.NoError(t, err)
	assert.Equal(t, OutcomeIncomplete, res.Outcome)
	assert.Equal(t, []string{"plat", "viande", "taille", "table"}, res.Missing)
	assert.Equal(t, 0, orders.count())
	w.Wait()
	assert.Equal(t, 0, notifier.count())
}

func TestCompletenessGateMissingTable(t *testing.T) {
	transcripts := newFakeTranscripts()
	orders := newFakeOrders()
	w := newTestWorkflow(transcripts, orders, &fakeNotifier{})

	ctx := context.Background()
	require.NoError(t, transcripts.Append(ctx, 4, "Plat : tacos , Viande : poulet , Taille : grand .", false))
	require.NoError(t, transcripts.Append(ctx, 4, "je confirme", true))

	res, err := w.HandleMessage(ctx, 4, "a@b.fr", "je confirme")
	require.NoError(t, err)
	assert.Equal(t, OutcomeIncomplete, res.Outcome)
	assert.Equal(t, []string{"table"}, res.Missing)
	assert.Contains(t, res.Response, "table")
	assert.Equal(t, 0, orders.count())
}

func TestConfirmationIntentOverridesSummaryDetection(t *testing.T) {
	// The summary itself contains no confirmation phrase; the intent comes
	// from the user's utterance and the commit must still happen.
	transcripts := newFakeTranscripts()
	orders := newFakeOrders()
	w := newTestWorkflow(transcripts, orders, &fakeNotifier{})

	ctx := context.Background()
	plainSummary := "Plat : sandwich , Viande : thon , Taille : normal , Table : 3 ."
	require.NoError(t, transcripts.Append(ctx, 5, plainSummary, false))
	require.NoError(t, transcripts.Append(ctx, 5, "je valide", true))

	res, err := w.HandleMessage(ctx, 5, "a@b.fr", "je valide")
	require.NoError(t, err)
	assert.True(t, res.Committed())
	assert.Equal(t, "sandwich", res.Order.Plat)
	w.Wait()
}

func TestStorageFailureAbortsTransition(t *testing.T) {
	transcripts := newFakeTranscripts()
	orders := newFakeOrders()
	orders.insertErr = errors.New("pq: connection refused")
	notifier := &fakeNotifier{}
	w := newTestWorkflow(transcripts, orders, notifier)

	ctx := context.Background()
	require.NoError(t, transcripts.Append(ctx, 6, summaryText, false))
	require.NoError(t, transcripts.Append(ctx, 6, "je confirme", true))

	res, err := w.HandleMessage(ctx, 6, "a@b.fr", "je confirme")
	require.ErrorIs(t, err, ErrStorage)
	assert.Equal(t, OutcomeStorageError, res.Outcome)
	// Generic message, no storage internals leaked.
	assert.Equal(t, msgStorageError, res.Response)
	assert.NotContains(t, res.Response, "pq:")

	w.Wait()
	assert.Equal(t, 0, notifier.count())
	assert.False(t, orders.completed[6])

	// The conversation state is unchanged: fixing the store lets the same
	// confirmation succeed.
	orders.insertErr = nil
	res, err = w.HandleMessage(ctx, 6, "a@b.fr", "je confirme")
	require.NoError(t, err)
	assert.True(t, res.Committed())
	w.Wait()
}

func TestDoubleConfirmationCommitsOnce(t *testing.T) {
	transcripts := newFakeTranscripts()
	orders := newFakeOrders()
	notifier := &fakeNotifier{}
	w := newTestWorkflow(transcripts, orders, notifier)

	ctx := context.Background()
	require.NoError(t, transcripts.Append(ctx, 7, summaryText, false))
	require.NoError(t, transcripts.Append(ctx, 7, "je confirme", true))

	var wg sync.WaitGroup
	results := make([]Result, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = w.HandleMessage(ctx, 7, "a@b.fr", "je confirme")
		}(i)
	}
	wg.Wait()
	w.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])

	assert.Equal(t, 1, orders.count())
	assert.Equal(t, 1, notifier.count())

	var committed, already int
	for _, res := range results {
		switch res.Outcome {
		case OutcomeCommitted:
			committed++
		case OutcomeAlreadyCommitted:
			already++
		}
	}
	assert.Equal(t, 1, committed)
	assert.Equal(t, 1, already)
}

func TestTranscriptReadFailureIsStorageError(t *testing.T) {
	transcripts := newFakeTranscripts()
	transcripts.readErr = errors.New("disk gone")
	orders := newFakeOrders()
	w := newTestWorkflow(transcripts, orders, &fakeNotifier{})

	res, err := w.HandleMessage(context.Background(), 8, "a@b.fr", "je confirme")
	require.ErrorIs(t, err, ErrStorage)
	assert.Equal(t, OutcomeStorageError, res.Outcome)
	assert.Equal(t, 0, orders.count())
}
