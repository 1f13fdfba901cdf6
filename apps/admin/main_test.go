package main

import (
	"fmt"
	"testing"

	"github.com/trezcool/maabara/core"
	"github.com/trezcool/maabara/tests"
)

func Test_newEmailService(t *testing.T) {
	tests := []struct {
		name string
		conf *core.Config
		want string
	}{
		{name: "debug uses console", conf: &core.Config{Debug: true}, want: "*emailsvc.consoleService"},
		{name: "test mode uses console", conf: &core.Config{TestMode: true}, want: "*emailsvc.consoleService"},
		{name: "deployed uses sendgrid", conf: &core.Config{SendgridAPIKey: "SG.lol"}, want: "*sendgridmail.service"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newEmailService(tt.conf, testutil.NopLogger{})
			if got := fmt.Sprintf("%T", svc); got != tt.want {
				t.Errorf("newEmailService() = %s, want %s", got, tt.want)
			}
		})
	}
}
