package member

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDisplayName(t *testing.T) {
	tests := []struct {
		name string
		m    Member
		want string
	}{
		{name: "с username", m: Member{Username: "ivan", FirstName: "Иван"}, want: "@ivan"},
		{name: "имя и фамилия", m: Member{FirstName: "Иван", LastName: "Петров"}, want: "Иван Петров"},
		{name: "только имя", m: Member{FirstName: "Иван"}, want: "Иван"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.m.DisplayName())
		})
	}
}
