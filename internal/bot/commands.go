package bot

import "strings"

// Command — разобранная команда.
type Command struct {
	Name string   // имя без префикса и @бота, в нижнем регистре
	Args []string // аргументы, разбитые по пробелам
	Text string   // всё после имени команды как есть (с переводами строк)
}

const parentOnlyText = "👨‍👩‍👧 Lệnh này dành cho học sinh. Dùng /parent để xem con của bạn."

// sharedCommands доступны и родителям. Остальные команды заводят профиль
// ученика, поэтому родителю их не выполняем.
var sharedCommands = map[string]bool{
	"start":  true,
	"help":   true,
	"parent": true,
}

func isStudentCommand(name string) bool {
	return !sharedCommands[name]
}

// CommandParser разбирает команды с префиксами / и !.
type CommandParser struct {
	validPrefixes []string
	aliases       map[string]string
}

// NewCommandParser создаёт парсер команд.
func NewCommandParser() *CommandParser {
	return &CommandParser{
		validPrefixes: []string{"/", "!"},
		aliases: map[string]string{
			"sodu":     "balance",
			"lichsu":   "history",
			"cuahang":  "store",
			"mua":      "buy",
			"doi":      "redeem",
			"thoigian": "status",
			"ungdung":  "apps",
			"chuoi":    "streak",
			"hoi":      "ask",
			"phuhuynh": "parent",
			"lich":     "plan",
			"huylich":  "unplan",
			"tailieu":  "docs",
			"luutl":    "savedoc",
			"xoatl":    "deldoc",
		},
	}
}

// ParseCommand разбирает текст. ok == false — это не команда.
func (p *CommandParser) ParseCommand(text string) (Command, bool) {
	text = strings.TrimSpace(text)

	hasPrefix := false
	for _, prefix := range p.validPrefixes {
		if strings.HasPrefix(text, prefix) {
			text = strings.TrimPrefix(text, prefix)
			hasPrefix = true
			break
		}
	}
	if !hasPrefix || text == "" {
		return Command{}, false
	}

	head, rest := text, ""
	if i := strings.IndexAny(text, " \t\n"); i >= 0 {
		head, rest = text[:i], strings.TrimSpace(text[i+1:])
	}
	// /quiz@LumiBot в группах и из меню команд
	if i := strings.IndexByte(head, '@'); i >= 0 {
		head = head[:i]
	}
	if head == "" {
		return Command{}, false
	}

	name := strings.ToLower(head)
	if canonical, ok := p.aliases[name]; ok {
		name = canonical
	}
	cmd := Command{Name: name, Text: rest}
	if rest != "" {
		cmd.Args = strings.Fields(rest)
	}
	return cmd, true
}
