// Package library — extract.go достаёт текст из файлов, которые можно
// прочитать без модели: обычный текст, .docx и .xlsx.
package library

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"path"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"
	"golang.org/x/text/unicode/norm"

	"serotonyl.ru/lumi-bot/internal/common"
)

type fileKind int

const (
	kindUnknown fileKind = iota
	kindPlain
	kindWord
	kindSheet
	kindModel // фото и PDF читает модель
)

// maxXMLBytes ограничивает распакованный document.xml.
const maxXMLBytes = 32 << 20

func detectKind(f File) fileKind {
	ext := strings.ToLower(path.Ext(f.Name))
	mime := strings.ToLower(f.MIME)
	switch {
	case ext == ".txt" || ext == ".md" || ext == ".csv" || strings.HasPrefix(mime, "text/"):
		return kindPlain
	case ext == ".docx":
		return kindWord
	case ext == ".xlsx":
		return kindSheet
	case ext == ".pdf" || mime == "application/pdf" || strings.HasPrefix(mime, "image/"):
		return kindModel
	case ext == ".jpg" || ext == ".jpeg" || ext == ".png" || ext == ".webp":
		return kindModel
	}
	return kindUnknown
}

func plainText(data []byte) (string, error) {
	data = bytes.TrimPrefix(data, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(data) {
		return "", fmt.Errorf("%w: текст не в UTF-8", common.ErrUnsupportedFile)
	}
	return string(data), nil
}

// wordText читает абзацы из word/document.xml.
func wordText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrUnsupportedFile, err)
	}
	for _, f := range zr.File {
		if f.Name != "word/document.xml" {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("ошибка чтения docx: %w", err)
		}
		defer rc.Close()
		return wordXMLText(io.LimitReader(rc, maxXMLBytes))
	}
	return "", fmt.Errorf("%w: в архиве нет word/document.xml", common.ErrUnsupportedFile)
}

func wordXMLText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var sb strings.Builder
	inText := false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return sb.String(), nil
		}
		if err != nil {
			return "", fmt.Errorf("%w: %v", common.ErrUnsupportedFile, err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				sb.WriteByte('\t')
			case "br":
				sb.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				sb.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				sb.Write(t)
			}
		}
	}
}

// sheetText склеивает все листы книги: строки через перевод строки,
// ячейки через табуляцию.
func sheetText(data []byte) (string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrUnsupportedFile, err)
	}
	defer f.Close()

	var sb strings.Builder
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return "", fmt.Errorf("ошибка чтения листа %q: %w", sheet, err)
		}
		sb.WriteString(sheet + "\n")
		for _, row := range rows {
			sb.WriteString(strings.Join(row, "\t"))
			sb.WriteByte('\n')
		}
	}
	return sb.String(), nil
}

var blankLines = regexp.MustCompile(`\n{3,}`)

// cleanText приводит текст к NFC, убирает лишние пустые строки и обрезает
// до maxRunes символов.
func cleanText(text string, maxRunes int) string {
	text = norm.NFC.String(strings.ReplaceAll(text, "\r\n", "\n"))
	lines := strings.Split(text, "\n")
	for i, l := range lines {
		lines[i] = strings.TrimRight(l, " \t")
	}
	text = strings.TrimSpace(blankLines.ReplaceAllString(strings.Join(lines, "\n"), "\n\n"))
	if maxRunes > 0 && utf8.RuneCountInString(text) > maxRunes {
		text = string([]rune(text)[:maxRunes])
	}
	return text
}
