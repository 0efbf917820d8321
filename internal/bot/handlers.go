// internal/bot/handlers.go
package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"diet-diary-bot/internal/ai"
	"diet-diary-bot/internal/models"
	"diet-diary-bot/internal/nutrition"
	"diet-diary-bot/internal/telegram"
)

// Callback data values. save_yes/save_no resolve the pending candidate;
// delete_<id> and take_<name> act directly against storage.
const (
	callbackSaveYes      = "save_yes"
	callbackSaveNo       = "save_no"
	callbackBack         = "back"
	callbackDeletePrefix = "delete_"
	callbackTakePrefix   = "take_"
)

const startMessage = `👋 Привет! Я помогу тебе считать калории и БЖУ.

📸 Пришли фото еды
🎙 Запиши голосом, что ты ел
📝 Или просто напиши мне

А ещё я могу запомнить твои любимые блюда и бады!`

func (c *Controller) handleMessage(ctx context.Context, logger *zap.Logger, msg *telegram.Message) {
	if msg.Chat == nil || msg.From == nil {
		return
	}
	chatID := msg.Chat.ID
	userID := msg.From.ID

	switch {
	case msg.Voice != nil:
		c.handleVoice(ctx, logger, chatID, userID, msg.Voice)
	case len(msg.Photo) > 0:
		c.handlePhoto(ctx, logger, chatID, userID, msg.Photo, msg.Caption)
	case msg.Text != "":
		c.handleText(ctx, logger, chatID, userID, msg.Text)
	}
}

// handleVoice transcribes the voice note, analyzes the transcript, and puts
// the candidate up for confirmation. No portion scaling on this path.
func (c *Controller) handleVoice(ctx context.Context, logger *zap.Logger, chatID, userID int64, voice *telegram.Voice) {
	audio, err := c.downloadByID(ctx, voice.FileID)
	if err != nil {
		logger.Warn("voice download failed", zap.Error(err))
		c.send(ctx, logger, chatID, "Не удалось получить голосовое сообщение.")
		return
	}

	rawText := c.speech.Transcribe(ctx, audio)
	analysis := c.ai.Analyze(ctx, ai.MealPrompt(rawText), nil)
	nutrients := nutrition.Extract(analysis)

	header := fmt.Sprintf("Вы сказали: '%s'", rawText)
	c.presentCandidate(ctx, logger, chatID, userID, rawText, nutrients, header, "Сохранить в дневнике?")
}

// handlePhoto runs vision analysis on the largest photo size and puts the
// candidate up for confirmation. No portion scaling on this path.
func (c *Controller) handlePhoto(ctx context.Context, logger *zap.Logger, chatID, userID int64, photos []telegram.PhotoSize, caption string) {
	// Telegram lists sizes smallest first.
	image, err := c.downloadByID(ctx, photos[len(photos)-1].FileID)
	if err != nil {
		logger.Warn("photo download failed", zap.Error(err))
		c.send(ctx, logger, chatID, "Не удалось получить фото.")
		return
	}

	analysis := c.ai.Analyze(ctx, ai.PhotoPrompt(caption), image)
	nutrients := nutrition.Extract(analysis)

	header := fmt.Sprintf("На фото: %s", analysis)
	c.presentCandidate(ctx, logger, chatID, userID, analysis, nutrients, header, "Запомнить как съеденное?")
}

func (c *Controller) handleText(ctx context.Context, logger *zap.Logger, chatID, userID int64, text string) {
	switch {
	case text == "/start":
		c.send(ctx, logger, chatID, startMessage)
		c.showMainMenu(ctx, logger, chatID)
	case text == "/stats":
		c.handleStats(ctx, logger, chatID, userID)
	case strings.HasPrefix(text, "/add_supplement"):
		c.handleAddSupplement(ctx, logger, chatID, userID, text)
	case strings.HasPrefix(text, "/take"):
		c.handleTake(ctx, logger, chatID, userID, text)
	default:
		c.handleFreeText(ctx, logger, chatID, userID, text)
	}
}

// handleFreeText is the only path with portion scaling: a trailing gram count
// in the typed text scales the per-100g analysis figures.
func (c *Controller) handleFreeText(ctx context.Context, logger *zap.Logger, chatID, userID int64, text string) {
	grams := nutrition.PortionGrams(text)

	analysis := c.ai.Analyze(ctx, ai.MealPrompt(text), nil)
	nutrients := nutrition.Scale(nutrition.Extract(analysis), grams)

	header := fmt.Sprintf("Вы написали: '%s'", text)
	c.presentCandidate(ctx, logger, chatID, userID, text, nutrients, header, "Сохранить в дневнике?")
}

// presentCandidate stores the pending record (overwriting any unconfirmed
// prior one) and sends the confirm/reject prompt.
func (c *Controller) presentCandidate(ctx context.Context, logger *zap.Logger, chatID, userID int64,
	text string, q models.NutrientQuantities, header, question string) {

	prompt := fmt.Sprintf("%s\n\n%s\n\n%s", header, formatNutrients(q), question)
	keyboard := telegram.InlineKeyboardMarkup{
		InlineKeyboard: [][]telegram.InlineKeyboardButton{{
			{Text: "✅ Сохранить", CallbackData: callbackSaveYes},
			{Text: "❌ Удалить", CallbackData: callbackSaveNo},
		}},
	}

	messageID, err := c.tg.SendMessage(ctx, chatID, prompt, keyboard)
	if err != nil {
		logger.Warn("failed to send confirmation prompt", zap.Error(err))
	}

	c.pending.Put(chatID, models.PendingRecord{
		UserID:          userID,
		Text:            text,
		Quantities:      q,
		PromptMessageID: messageID,
	})
}

func (c *Controller) handleStats(ctx context.Context, logger *zap.Logger, chatID, userID int64) {
	entries, err := c.store.EntriesToday(userID)
	if err != nil {
		logger.Error("failed to list today's entries", zap.Error(err))
		c.send(ctx, logger, chatID, "❌ Не удалось получить записи.")
		return
	}
	if len(entries) == 0 {
		c.send(ctx, logger, chatID, "📊 Ваш дневник питания пуст сегодня.")
		return
	}

	var total models.NutrientQuantities
	var rows [][]telegram.InlineKeyboardButton
	for _, entry := range entries {
		total.Calories += entry.Quantities.Calories
		total.Proteins += entry.Quantities.Proteins
		total.Fats += entry.Quantities.Fats
		total.Carbs += entry.Quantities.Carbs
		rows = append(rows, []telegram.InlineKeyboardButton{{
			Text:         fmt.Sprintf("🗑️ Удалить #%d", entry.ID),
			CallbackData: fmt.Sprintf("%s%d", callbackDeletePrefix, entry.ID),
		}})
	}
	rows = append(rows, backRow())

	text := fmt.Sprintf(
		"📊 Ваша статистика за сегодня:\n🔥 Калории: %.1f ккал\n🍗 Белки: %.1f г\n🥑 Жиры: %.1f г\n🍞 Углеводы: %.1f г",
		total.Calories, total.Proteins, total.Fats, total.Carbs)
	if _, err := c.tg.SendMessage(ctx, chatID, text, telegram.InlineKeyboardMarkup{InlineKeyboard: rows}); err != nil {
		logger.Warn("failed to send stats", zap.Error(err))
	}
}

// handleAddSupplement defines a reference item from an AI description of the
// named supplement. This shares the nutrition parser with the meal flows but
// bypasses the confirmation state machine.
func (c *Controller) handleAddSupplement(ctx context.Context, logger *zap.Logger, chatID, userID int64, text string) {
	parts := strings.SplitN(text, " ", 2)
	if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
		c.send(ctx, logger, chatID, "❌ Укажите название бада после команды.\nПример: /add_supplement Витамин D3")
		return
	}
	name := strings.TrimSpace(parts[1])

	analysis := c.ai.Analyze(ctx, ai.SupplementPrompt(name), nil)
	nutrients := nutrition.Extract(analysis)

	if err := c.store.UpsertSupplement(userID, name, analysis, nutrients); err != nil {
		logger.Error("failed to save supplement", zap.Error(err))
		c.send(ctx, logger, chatID, "❌ Не удалось сохранить бад.")
		return
	}
	c.send(ctx, logger, chatID, fmt.Sprintf("✅ Бад '%s' добавлен:\n%s", name, analysis))
}

// handleTake consumes a reference item: with a name it logs a diary entry
// immediately, without one it offers the saved supplements as buttons.
func (c *Controller) handleTake(ctx context.Context, logger *zap.Logger, chatID, userID int64, text string) {
	parts := strings.SplitN(text, " ", 2)
	if len(parts) < 2 || strings.TrimSpace(parts[1]) == "" {
		names, err := c.store.SupplementNames(userID)
		if err != nil {
			logger.Error("failed to list supplements", zap.Error(err))
			c.send(ctx, logger, chatID, "❌ Не удалось получить список бадов.")
			return
		}
		if len(names) == 0 {
			c.send(ctx, logger, chatID, "❌ У вас пока нет сохранённых бадов.")
			return
		}

		var rows [][]telegram.InlineKeyboardButton
		for _, name := range names {
			rows = append(rows, []telegram.InlineKeyboardButton{{
				Text:         name,
				CallbackData: callbackTakePrefix + name,
			}})
		}
		rows = append(rows, backRow())
		if _, err := c.tg.SendMessage(ctx, chatID, "Выберите бад для приёма:", telegram.InlineKeyboardMarkup{InlineKeyboard: rows}); err != nil {
			logger.Warn("failed to send supplement list", zap.Error(err))
		}
		return
	}

	c.takeSupplement(ctx, logger, chatID, userID, strings.TrimSpace(parts[1]))
}

func (c *Controller) takeSupplement(ctx context.Context, logger *zap.Logger, chatID, userID int64, name string) {
	sup, err := c.store.Supplement(userID, name)
	if err != nil {
		logger.Error("failed to look up supplement", zap.Error(err))
		c.send(ctx, logger, chatID, "❌ Не удалось получить бад.")
		return
	}
	if sup == nil {
		c.send(ctx, logger, chatID, fmt.Sprintf("❌ Бад '%s' не найден.", name))
		return
	}

	if _, err := c.store.AppendEntry(userID, "Принят бад: "+name, sup.Quantities); err != nil {
		logger.Error("failed to log supplement intake", zap.Error(err))
		c.send(ctx, logger, chatID, "❌ Не удалось записать приём.")
		return
	}
	c.send(ctx, logger, chatID, fmt.Sprintf("✅ Вы приняли '%s'. Записано в дневник.", name))
}

// handleCallback resolves button presses. The deduplicator gates first so a
// redelivered press is a no-op; a confirm/reject with no pending record is
// silently ignored.
func (c *Controller) handleCallback(ctx context.Context, logger *zap.Logger, cb *telegram.CallbackQuery) {
	if cb.ID == "" || !c.dedup.ShouldProcess(cb.ID) {
		return
	}
	if cb.Message == nil || cb.Message.Chat == nil || cb.From == nil {
		return
	}
	chatID := cb.Message.Chat.ID
	userID := cb.From.ID

	if err := c.tg.AnswerCallbackQuery(ctx, cb.ID); err != nil {
		logger.Debug("failed to answer callback query", zap.Error(err))
	}

	switch {
	case cb.Data == callbackSaveYes:
		c.confirmPending(ctx, logger, chatID)
	case cb.Data == callbackSaveNo:
		c.rejectPending(ctx, logger, chatID)
	case strings.HasPrefix(cb.Data, callbackDeletePrefix):
		c.deleteEntry(ctx, logger, chatID, strings.TrimPrefix(cb.Data, callbackDeletePrefix))
	case strings.HasPrefix(cb.Data, callbackTakePrefix):
		c.takeSupplement(ctx, logger, chatID, userID, strings.TrimPrefix(cb.Data, callbackTakePrefix))
	case cb.Data == callbackBack:
		c.showMainMenu(ctx, logger, chatID)
	}
}

func (c *Controller) confirmPending(ctx context.Context, logger *zap.Logger, chatID int64) {
	rec, ok := c.pending.Take(chatID)
	if !ok {
		return
	}

	if _, err := c.store.AppendEntry(rec.UserID, rec.Text, rec.Quantities); err != nil {
		logger.Error("failed to commit diary entry", zap.Error(err))
		c.send(ctx, logger, chatID, "❌ Не удалось сохранить запись.")
		return
	}
	c.send(ctx, logger, chatID, fmt.Sprintf("✅ Добавлено в дневник: %.1f ккал", rec.Quantities.Calories))
}

func (c *Controller) rejectPending(ctx context.Context, logger *zap.Logger, chatID int64) {
	rec, ok := c.pending.Take(chatID)
	if !ok {
		return
	}

	if rec.PromptMessageID != 0 {
		if err := c.tg.DeleteMessage(ctx, chatID, rec.PromptMessageID); err != nil {
			logger.Debug("failed to retract prompt", zap.Error(err))
		}
	}
	c.send(ctx, logger, chatID, "❌ Сообщение удалено.")
}

func (c *Controller) deleteEntry(ctx context.Context, logger *zap.Logger, chatID int64, rawID string) {
	entryID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		logger.Warn("malformed delete callback", zap.String("data", rawID))
		return
	}
	if err := c.store.DeleteEntry(entryID); err != nil {
		logger.Error("failed to delete entry", zap.Int64("entry_id", entryID), zap.Error(err))
		c.send(ctx, logger, chatID, "❌ Не удалось удалить запись.")
		return
	}
	c.send(ctx, logger, chatID, fmt.Sprintf("🗑️ Запись #%d удалена из дневника.", entryID))
}

func (c *Controller) showMainMenu(ctx context.Context, logger *zap.Logger, chatID int64) {
	menu := telegram.ReplyKeyboardMarkup{
		Keyboard: [][]string{
			{"/start"},
			{"/stats"},
			{"/add_supplement", "/take"},
		},
		ResizeKeyboard: true,
	}
	if _, err := c.tg.SendMessage(ctx, chatID, "Выберите команду:", menu); err != nil {
		logger.Warn("failed to send main menu", zap.Error(err))
	}
}

func (c *Controller) downloadByID(ctx context.Context, fileID string) ([]byte, error) {
	file, err := c.tg.GetFile(ctx, fileID)
	if err != nil {
		return nil, err
	}
	return c.tg.DownloadFile(ctx, file.FilePath, c.opts.FileMaxBytes)
}

func (c *Controller) send(ctx context.Context, logger *zap.Logger, chatID int64, text string) {
	if _, err := c.tg.SendMessage(ctx, chatID, text, nil); err != nil {
		logger.Warn("failed to send message", zap.Error(err))
	}
}

func formatNutrients(q models.NutrientQuantities) string {
	r := q.Rounded()
	return fmt.Sprintf("Калории: %.1f ккал\nБелки: %.1f г\nЖиры: %.1f г\nУглеводы: %.1f г",
		r.Calories, r.Proteins, r.Fats, r.Carbs)
}

func backRow() []telegram.InlineKeyboardButton {
	return []telegram.InlineKeyboardButton{{Text: "⬅️ Назад", CallbackData: callbackBack}}
}
