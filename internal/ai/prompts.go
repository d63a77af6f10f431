package ai

import (
	"fmt"

	"serotonyl.ru/lumi-bot/internal/features/quiz"
)

const systemJSON = "Bạn là trợ lý giáo dục cho học sinh cấp 2. Chỉ trả lời bằng JSON hợp lệ, không thêm chữ nào khác."

const systemTutor = "Bạn là một gia sư AI thân thiện, giúp học sinh giải đáp thắc mắc học tập bằng tiếng Việt. " +
	"Trả lời ngắn gọn bằng văn bản thuần, công thức viết đơn giản (ví dụ: x^2, a/b)."

const systemExtract = "Bạn chép lại chính xác toàn bộ chữ có trong tài liệu hoặc hình ảnh. Không tóm tắt, không bình luận."

const extractPrompt = "Hãy trích xuất toàn bộ văn bản từ tài liệu này. Giữ nguyên ngôn ngữ và thứ tự các đoạn."

const systemParent = "Bạn viết báo cáo học tập ngắn gọn, thân thiện bằng tiếng Việt cho phụ huynh. Không dùng markdown."

var tierLabels = map[quiz.Tier]string{
	quiz.TierEasy:   "dễ (easy)",
	quiz.TierMedium: "trung bình (medium)",
	quiz.TierHard:   "khó (hard)",
}

const questionShape = `{"question": "...", "options": ["...", "...", "...", "..."], "correctAnswerIndex": 0, "explanation": "..."}`

func questionPrompt(topic string, d quiz.Difficulty) string {
	return fmt.Sprintf(`Tạo một câu hỏi trắc nghiệm giáo dục về chủ đề %s dành cho học sinh cấp 2.
Độ khó yêu cầu: %s.
%s
Yêu cầu:
- Câu hỏi và đúng 4 lựa chọn bằng tiếng Việt.
- correctAnswerIndex là chỉ số (0-3) của đáp án đúng.
- Phần giải thích (explanation) phải chi tiết: vì sao đáp án đúng là đúng và vì sao các đáp án khác sai.
Định dạng: %s`, topic, tierLabels[d.Tier], d.Guidance, questionShape)
}

func batchPrompt(topic string, count int) string {
	return fmt.Sprintf(`Tạo %d câu hỏi trắc nghiệm ngắn về chủ đề %s cho học sinh cấp 2, mỗi câu 4 lựa chọn bằng tiếng Việt, không cần giải thích.
Định dạng: {"questions": [{"question": "...", "options": ["...", "...", "...", "..."], "correctAnswerIndex": 0}]}`, count, topic)
}

func pairsPrompt(topic string) string {
	return fmt.Sprintf(`Tạo 5 cặp khái niệm - định nghĩa ngắn gọn về chủ đề %s cho học sinh cấp 2, bằng tiếng Việt.
Định dạng: {"pairs": [{"left": "...", "right": "..."}]}`, topic)
}

func fromTextPrompt(text string) string {
	return fmt.Sprintf("Tạo 1 câu hỏi trắc nghiệm (4 lựa chọn) dựa trên nội dung sau:\n\n%s\n\nĐịnh dạng: %s", text, questionShape)
}

func methodPrompt(problem string) string {
	return fmt.Sprintf(`Học sinh đang gặp vấn đề: "%s". Hãy gợi ý một phương pháp học tập phù hợp nhất (ví dụ: Pomodoro, Feynman, Spaced Repetition...) và giải thích cách áp dụng bằng tiếng Việt.`, problem)
}

func parentPrompt(statsJSON string) string {
	return fmt.Sprintf(`Dựa vào dữ liệu học tập và sử dụng ứng dụng sau đây của học sinh, hãy viết một báo cáo ngắn gọn gửi cho phụ huynh.

Dữ liệu:
%s

Yêu cầu:
1. Chào hỏi phụ huynh thân thiện.
2. Tóm tắt số câu hỏi đã làm và tỷ lệ đúng.
3. Chỉ ra điểm mạnh và điểm yếu theo môn học.
4. Nhận xét ngắn về thời gian dùng ứng dụng (nếu có ứng dụng dùng quá nhiều).
5. Lời khuyên hoặc động viên.`, statsJSON)
}
