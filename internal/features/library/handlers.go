package library

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	log "github.com/sirupsen/logrus"

	"serotonyl.ru/lumi-bot/internal/common"
)

const docsUsage = "📚 Gửi tệp (.txt, .docx, .xlsx, .pdf) hoặc ảnh để lưu vào thư viện.\n" +
	"/savedoc <nội dung> — lưu văn bản (dòng đầu là tiêu đề)\n" +
	"/quizdoc <số> — câu hỏi từ tài liệu\n" +
	"/deldoc <số> — xóa tài liệu"

// Handler обрабатывает файлы, фото и команды библиотеки.
type Handler struct {
	service *Service
	bot     *tgbotapi.BotAPI
	http    *http.Client
	loc     *time.Location
}

func NewHandler(service *Service, bot *tgbotapi.BotAPI, timeout time.Duration, loc *time.Location) *Handler {
	return &Handler{
		service: service,
		bot:     bot,
		http:    &http.Client{Timeout: timeout},
		loc:     loc,
	}
}

// IsUpload — в сообщении есть файл или фото.
func IsUpload(message *tgbotapi.Message) bool {
	return message.Document != nil || len(message.Photo) > 0
}

// HandleUpload скачивает присланный файл или фото и сохраняет текст из него.
// Подпись к файлу становится названием документа.
func (h *Handler) HandleUpload(ctx context.Context, chatID, userID int64, message *tgbotapi.Message) {
	var (
		fileID string
		size   int
		f      File
		src    = SourceFile
		title  = message.Caption
	)
	switch {
	case message.Document != nil:
		d := message.Document
		fileID, size = d.FileID, d.FileSize
		f.Name, f.MIME = d.FileName, d.MimeType
	case len(message.Photo) > 0:
		// последний размер — самый крупный
		p := message.Photo[len(message.Photo)-1]
		fileID, size = p.FileID, p.FileSize
		f.Name, f.MIME = "photo.jpg", "image/jpeg"
		src = SourcePhoto
		if title == "" {
			title = "Ảnh " + common.FormatDateTime(time.Now(), h.loc)
		}
	default:
		return
	}

	if detectKind(f) == kindUnknown {
		h.replyError(chatID, common.ErrUnsupportedFile)
		return
	}
	limit := h.service.Limits().MaxFileBytes
	if limit > 0 && int64(size) > limit {
		h.replyError(chatID, common.ErrFileTooLarge)
		return
	}

	h.typing(chatID)
	fileURL, err := h.bot.GetFileDirectURL(fileID)
	if err != nil {
		h.replyError(chatID, fmt.Errorf("ссылка на файл: %w", err))
		return
	}
	f.Data, err = download(ctx, h.http, fileURL, limit)
	if err != nil {
		h.replyError(chatID, err)
		return
	}

	d, err := h.service.Import(ctx, userID, f, title, src)
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	h.sendSaved(ctx, chatID, userID, d)
}

// HandleSaveDoc — /savedoc <название>\n<текст>.
func (h *Handler) HandleSaveDoc(ctx context.Context, chatID, userID int64, text string) {
	if strings.TrimSpace(text) == "" {
		h.sendText(chatID, docsUsage)
		return
	}
	d, err := h.service.SaveText(ctx, userID, text)
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	h.sendSaved(ctx, chatID, userID, d)
}

// HandleDocs — /docs: список документов.
func (h *Handler) HandleDocs(ctx context.Context, chatID, userID int64) {
	docs, err := h.service.List(ctx, userID)
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	if len(docs) == 0 {
		h.sendText(chatID, "📚 Thư viện trống.\n\n"+docsUsage)
		return
	}
	var sb strings.Builder
	sb.WriteString("📚 Thư viện của bạn:\n")
	for i, d := range docs {
		fmt.Fprintf(&sb, "%d. %s (%d ký tự)\n", i+1, d.Title, utf8.RuneCountInString(d.Content))
	}
	sb.WriteString("\n" + docsUsage)
	h.sendText(chatID, sb.String())
}

// HandleDeleteDoc — /deldoc <номер>.
func (h *Handler) HandleDeleteDoc(ctx context.Context, chatID, userID int64, args []string) {
	n, ok := h.number(chatID, args)
	if !ok {
		return
	}
	d, err := h.service.Remove(ctx, userID, n)
	if err != nil {
		h.replyError(chatID, err)
		return
	}
	h.sendText(chatID, "🗑 Đã xóa: "+d.Title)
}

// DocumentText — текст документа для /quizdoc. ok == false — ученику уже ответили.
func (h *Handler) DocumentText(ctx context.Context, chatID, userID int64, args []string) (string, bool) {
	n, ok := h.number(chatID, args)
	if !ok {
		return "", false
	}
	d, err := h.service.Get(ctx, userID, n)
	if err != nil {
		h.replyError(chatID, err)
		return "", false
	}
	return d.Content, true
}

func (h *Handler) number(chatID int64, args []string) (int, bool) {
	if len(args) == 0 {
		h.sendText(chatID, docsUsage)
		return 0, false
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		h.replyError(chatID, common.ErrDocumentNotFound)
		return 0, false
	}
	return n, true
}

func (h *Handler) sendSaved(ctx context.Context, chatID, userID int64, d Document) {
	text := fmt.Sprintf("✅ Đã lưu «%s» (%d ký tự).", d.Title, utf8.RuneCountInString(d.Content))
	// новый документ последний в списке
	if docs, err := h.service.List(ctx, userID); err == nil && len(docs) > 0 {
		text += fmt.Sprintf("\nTạo câu hỏi: /quizdoc %d", len(docs))
	}
	h.sendText(chatID, text)
}

// download скачивает файл не больше limit байт.
// В ссылке на файл лежит токен бота, поэтому в ошибку она не попадает.
func download(ctx context.Context, client *http.Client, fileURL string, limit int64) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, errors.New("запрос файла: некорректная ссылка")
	}
	resp, err := client.Do(req)
	if err != nil {
		var ue *url.Error
		if errors.As(err, &ue) {
			err = ue.Err
		}
		return nil, fmt.Errorf("скачивание файла: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("скачивание файла: статус %d", resp.StatusCode)
	}

	body := io.Reader(resp.Body)
	if limit > 0 {
		body = io.LimitReader(resp.Body, limit+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return nil, fmt.Errorf("чтение файла: %w", err)
	}
	if limit > 0 && int64(len(data)) > limit {
		return nil, common.ErrFileTooLarge
	}
	return data, nil
}

func (h *Handler) typing(chatID int64) {
	if _, err := h.bot.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping)); err != nil {
		log.WithError(err).Debug("Не удалось отправить typing")
	}
}

func (h *Handler) replyError(chatID int64, err error) {
	text, known := common.UserMessage(err)
	if !known {
		log.WithError(err).Error("Ошибка библиотеки")
	}
	h.sendText(chatID, text)
}

func (h *Handler) sendText(chatID int64, text string) {
	if _, err := h.bot.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		log.WithError(err).Error("Ошибка отправки сообщения")
	}
}
