// Package common — messages.go переводит доменные ошибки в сообщения
// для ученика (на вьетнамском, как и весь интерфейс бота).
package common

import "errors"

var userMessages = []struct {
	err  error
	text string
}{
	{ErrInsufficientFunds, "❌ Bạn không đủ BP cho thao tác này."},
	{ErrInvalidAmount, "❌ Số lượng phải lớn hơn 0."},
	{ErrNoPassesAvailable, "❌ Bạn không còn thẻ bỏ qua. Mua thêm trong /store."},
	{ErrUnknownItem, "❌ Không có món hàng này. Xem /store."},
	{ErrAvatarNotOwned, "❌ Bạn chưa sở hữu ảnh đại diện này."},
	{ErrInvalidAppReference, "❌ Không tìm thấy ứng dụng. Xem /apps."},
	{ErrInvalidLimit, "❌ Giới hạn phải là số phút không âm."},
	{ErrQuizNotActive, "❌ Không có câu hỏi đang mở. Gõ /quiz để bắt đầu."},
	{ErrQuizInProgress, "❓ Bạn còn câu hỏi chưa trả lời. Trả lời hoặc dùng /skip."},
	{ErrQuizBusy, "⏳ Câu hỏi đang được tạo, chờ một chút nhé."},
	{ErrQuizNotAnswered, "❌ Hãy trả lời câu hỏi trước đã."},
	{ErrInvalidOption, "❌ Không có lựa chọn này."},
	{ErrExplanationLocked, "⏳ Hãy đọc kỹ lời giải thích rồi nhận thưởng sau ít giây."},
	{ErrAlreadyClaimed, "✅ Bạn đã nhận thưởng cho lời giải thích này rồi."},
	{ErrRoundExpired, "⌛ Hết giờ! Vòng chơi đã kết thúc."},
	{ErrRoundFinished, "✅ Vòng chơi đã kết thúc."},
	{ErrEmptyText, "✍️ Văn bản trống. Hãy gửi nội dung cần ôn tập."},
	{ErrFeatureDisabled, "🚫 Chế độ này đang tạm tắt."},
	{ErrInvalidEvent, "❌ Không hiểu lịch. Ví dụ: /plan 20/10 18:00 baitap Toán chương 2"},
	{ErrEventInPast, "⌛ Thời điểm này đã qua rồi."},
	{ErrEventNotFound, "❌ Không có sự kiện này. Xem /plan."},
	{ErrDocumentNotFound, "❌ Không có tài liệu này. Xem /docs."},
	{ErrUnsupportedFile, "❌ Chỉ đọc được .txt, .md, .docx, .xlsx, .pdf và ảnh."},
	{ErrFileTooLarge, "❌ Tệp quá lớn."},
	{ErrLimitReached, "❌ Đã đạt giới hạn. Hãy xóa bớt rồi thêm lại."},
	{ErrProviderUnavailable, "⚠️ Không tạo được nội dung lúc này. Hãy thử lại."},
	{ErrNotParent, "🚫 Bạn không có quyền phụ huynh."},
	{ErrWrongPassword, "❌ Sai mật khẩu."},
	{ErrTooManyAttempts, "🚫 Quá nhiều lần thử. Hãy đợi 1 giờ."},
	{ErrSessionExpired, "⌛ Phiên đã hết hạn, hãy đăng nhập lại bằng /parent."},
	{ErrUserNotFound, "❌ Không tìm thấy người dùng."},
}

// UserMessage возвращает текст для известной доменной ошибки.
// ok == false — ошибка неожиданная, её надо залогировать.
func UserMessage(err error) (text string, ok bool) {
	for _, m := range userMessages {
		if errors.Is(err, m.err) {
			return m.text, true
		}
	}
	return "❌ Đã xảy ra lỗi, hãy thử lại sau.", false
}
