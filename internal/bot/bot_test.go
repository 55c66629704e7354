package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCommand(t *testing.T) {
	parser := NewCommandParser()

	tests := []struct {
		name      string
		text      string
		wantCmd   string
		wantArgs  []string
		isCommand bool
	}{
		{name: "восклицательный знак", text: "!голос films statya 5", wantCmd: "голос", wantArgs: []string{"films", "statya", "5"}, isCommand: true},
		{name: "точка", text: ".кошелек", wantCmd: "кошелек", isCommand: true},
		{name: "слэш", text: "/start", wantCmd: "start", isCommand: true},
		{name: "регистр приводится к нижнему", text: "!ГОЛОС films x 1", wantCmd: "голос", wantArgs: []string{"films", "x", "1"}, isCommand: true},
		{name: "пробелы вокруг", text: "  !лимит films  ", wantCmd: "лимит", wantArgs: []string{"films"}, isCommand: true},
		{name: "обычный текст", text: "привет всем", isCommand: false},
		{name: "пустая строка", text: "", isCommand: false},
		{name: "только префикс", text: "!", isCommand: false},
		{name: "комментарий из нескольких слов", text: "!голос films statya 5 отличная работа",
			wantCmd: "голос", wantArgs: []string{"films", "statya", "5", "отличная", "работа"}, isCommand: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmd, args, ok := parser.ParseCommand(tt.text)
			assert.Equal(t, tt.isCommand, ok)
			if !tt.isCommand {
				return
			}
			assert.Equal(t, tt.wantCmd, cmd)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestHelpText(t *testing.T) {
	withExchange := helpText(true)
	withoutExchange := helpText(false)

	assert.Contains(t, withExchange, "!обмен")
	assert.NotContains(t, withoutExchange, "!обмен")
	assert.Contains(t, withoutExchange, "!голос")
}
