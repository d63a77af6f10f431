package report

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"serotonyl.ru/lumi-bot/internal/common"
	"serotonyl.ru/lumi-bot/internal/features/profile"
)

// Листы выгрузки.
const (
	SheetQuiz    = "Quiz"
	SheetApps    = "Apps"
	SheetHistory = "History"
	SheetPoints  = "Points"
)

// ExportXLSX собирает книгу: ответы, приложения, расход по дням
// и журнал баллов. Время пишется строками в поясе loc.
func ExportXLSX(p profile.Profile, txs []profile.Transaction, loc *time.Location) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	f.SetSheetName("Sheet1", SheetQuiz)
	quiz := [][]any{{"Thời gian", "Chủ đề", "Kết quả"}}
	for _, rec := range p.QuizHistory {
		result := "Sai"
		if rec.IsCorrect {
			result = "Đúng"
		}
		quiz = append(quiz, []any{common.FormatDateTime(rec.Timestamp, loc), rec.Topic, result})
	}

	apps := [][]any{{"Ứng dụng", "Danh mục", "Đã dùng (phút)", "Giới hạn (phút)"}}
	for _, a := range p.Apps {
		apps = append(apps, []any{a.Name, string(a.Category), a.UsedTime, a.Limit})
	}

	history := [][]any{{"Ngày", "Đã dùng (phút)", "Giới hạn (phút)"}}
	for _, d := range p.UsageHistory {
		history = append(history, []any{d.Date.Format("2006-01-02"), d.Used, d.Limit})
	}

	points := [][]any{{"Thời gian", "Thay đổi", "Số dư", "Lý do"}}
	for _, tx := range txs {
		points = append(points, []any{common.FormatDateTime(tx.CreatedAt, loc), tx.Delta, tx.BalanceAfter, tx.Reason})
	}

	for _, sheet := range []struct {
		name string
		rows [][]any
	}{
		{SheetQuiz, quiz},
		{SheetApps, apps},
		{SheetHistory, history},
		{SheetPoints, points},
	} {
		if sheet.name != SheetQuiz {
			f.NewSheet(sheet.name)
		}
		if err := writeRows(f, sheet.name, sheet.rows); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("ошибка записи xlsx: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for r, row := range rows {
		for c, v := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return err
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return fmt.Errorf("лист %s, ячейка %s: %w", sheet, cell, err)
			}
		}
	}
	return nil
}
