// SPDX-License-Identifier: Apache-2.0

package server

import (
	"net/http"
	"testing"
	"time"

	"github.com/ItsRqtl/TeachCraft/internal/config"
	"github.com/ItsRqtl/TeachCraft/internal/logger"
)

func TestNewServer_NoAddress(t *testing.T) {
	_, err := NewServer(http.NewServeMux(), config.Server{}, logger.Nop())
	if err == nil {
		t.Fatal("expected error when no listen address is configured")
	}
}

func TestNewServer_Configured(t *testing.T) {
	cfg := config.Server{HTTPAddress: "127.0.0.1:0", RequestTimeout: 5 * time.Second}

	s, err := NewServer(http.NewServeMux(), cfg, logger.Nop())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	hs := s.(*server).httpServer
	if hs.server.Addr != "127.0.0.1:0" {
		t.Errorf("expected listen address to be propagated, got %s", hs.server.Addr)
	}
	if hs.server.ReadTimeout != 5*time.Second || hs.server.WriteTimeout != 5*time.Second {
		t.Error("expected request timeout to be propagated to both directions")
	}
}
