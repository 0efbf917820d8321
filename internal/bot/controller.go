// internal/bot/controller.go
package bot

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"diet-diary-bot/internal/dedup"
	"diet-diary-bot/internal/models"
	"diet-diary-bot/internal/pending"
	"diet-diary-bot/internal/telegram"
)

// Analyzer produces free-form analysis text for a prompt and an optional
// JPEG image. Failures surface as sentinel text, never as errors.
type Analyzer interface {
	Analyze(ctx context.Context, prompt string, imageJPEG []byte) string
}

// Transcriber converts voice audio to text; failures surface as sentinel text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte) string
}

// Store is the persistence collaborator for diary entries and supplements.
type Store interface {
	AppendEntry(userID int64, text string, q models.NutrientQuantities) (int64, error)
	EntriesToday(userID int64) ([]models.DiaryEntry, error)
	DeleteEntry(id int64) error
	UpsertSupplement(userID int64, name, description string, q models.NutrientQuantities) error
	Supplement(userID int64, name string) (*models.Supplement, error)
	SupplementNames(userID int64) ([]string, error)
}

// Messenger is the Telegram transport surface the controller depends on.
type Messenger interface {
	GetUpdates(ctx context.Context, offset int64, timeout time.Duration) ([]telegram.Update, int64, error)
	SendMessage(ctx context.Context, chatID int64, text string, replyMarkup interface{}) (int64, error)
	DeleteMessage(ctx context.Context, chatID, messageID int64) error
	AnswerCallbackQuery(ctx context.Context, callbackID string) error
	GetFile(ctx context.Context, fileID string) (*telegram.File, error)
	DownloadFile(ctx context.Context, filePath string, maxBytes int64) ([]byte, error)
}

const workerQueueSize = 16

type Options struct {
	PollTimeout  time.Duration
	FileMaxBytes int64
}

// Controller drives the confirmation state machine. Updates for one chat are
// handled by that chat's worker goroutine in arrival order; different chats
// proceed in parallel. Collaborator calls block only the chat they belong to.
type Controller struct {
	tg      Messenger
	ai      Analyzer
	speech  Transcriber
	store   Store
	pending *pending.Store
	dedup   *dedup.Deduplicator
	logger  *zap.Logger
	opts    Options

	mu      sync.Mutex
	workers map[int64]chan telegram.Update
	wg      sync.WaitGroup
}

func NewController(tg Messenger, ai Analyzer, speech Transcriber, store Store,
	pendingStore *pending.Store, deduplicator *dedup.Deduplicator,
	logger *zap.Logger, opts Options) *Controller {

	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 30 * time.Second
	}
	return &Controller{
		tg:      tg,
		ai:      ai,
		speech:  speech,
		store:   store,
		pending: pendingStore,
		dedup:   deduplicator,
		logger:  logger,
		opts:    opts,
		workers: make(map[int64]chan telegram.Update),
	}
}

// Run polls for updates until ctx is cancelled, then drains the per-chat
// workers. No single event's failure stops the loop.
func (c *Controller) Run(ctx context.Context) error {
	var offset int64
	for {
		select {
		case <-ctx.Done():
			c.shutdownWorkers()
			return ctx.Err()
		default:
		}

		updates, next, err := c.tg.GetUpdates(ctx, offset, c.opts.PollTimeout)
		if err != nil {
			if ctx.Err() != nil {
				c.shutdownWorkers()
				return ctx.Err()
			}
			c.logger.Warn("getUpdates failed", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		offset = next

		for _, upd := range updates {
			c.dispatch(ctx, upd)
		}
	}
}

// dispatch routes an update to its chat's worker, spawning one on first use.
// A full queue drops the update rather than stall every other chat.
func (c *Controller) dispatch(ctx context.Context, upd telegram.Update) {
	chatID, ok := updateChatID(upd)
	if !ok {
		return
	}

	c.mu.Lock()
	ch, exists := c.workers[chatID]
	if !exists {
		ch = make(chan telegram.Update, workerQueueSize)
		c.workers[chatID] = ch
		c.wg.Add(1)
		go c.workerLoop(ctx, ch)
	}
	c.mu.Unlock()

	select {
	case ch <- upd:
	default:
		c.logger.Warn("worker queue full, dropping update",
			zap.Int64("chat_id", chatID),
			zap.Int64("update_id", upd.UpdateID))
	}
}

func (c *Controller) workerLoop(ctx context.Context, ch <-chan telegram.Update) {
	defer c.wg.Done()
	for upd := range ch {
		c.handleUpdate(ctx, upd)
	}
}

func (c *Controller) shutdownWorkers() {
	c.mu.Lock()
	for _, ch := range c.workers {
		close(ch)
	}
	c.workers = make(map[int64]chan telegram.Update)
	c.mu.Unlock()
	c.wg.Wait()
}

func (c *Controller) handleUpdate(ctx context.Context, upd telegram.Update) {
	logger := c.logger.With(
		zap.String("event_id", uuid.NewString()),
		zap.Int64("update_id", upd.UpdateID))

	switch {
	case upd.Message != nil:
		c.handleMessage(ctx, logger, upd.Message)
	case upd.CallbackQuery != nil:
		c.handleCallback(ctx, logger, upd.CallbackQuery)
	}
}

func updateChatID(upd telegram.Update) (int64, bool) {
	if upd.Message != nil && upd.Message.Chat != nil {
		return upd.Message.Chat.ID, true
	}
	if upd.CallbackQuery != nil && upd.CallbackQuery.Message != nil && upd.CallbackQuery.Message.Chat != nil {
		return upd.CallbackQuery.Message.Chat.ID, true
	}
	return 0, false
}
