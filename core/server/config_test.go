package server_test

import (
	"testing"

	"country-cache/core/server"

	"github.com/stretchr/testify/assert"
)

func TestConfig_Addr(t *testing.T) {
	tests := []struct {
		name string
		cfg  server.Config
		want string
	}{
		{"Defaults", server.Config{}, "0.0.0.0:8000"},
		{"CustomPort", server.Config{Host: "0.0.0.0", Port: "9090"}, "0.0.0.0:9090"},
		{"CustomHost", server.Config{Host: "127.0.0.1", Port: "8000"}, "127.0.0.1:8000"},
		{"EmptyPort", server.Config{Host: "localhost"}, "localhost:8000"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.cfg.Addr())
		})
	}
}
