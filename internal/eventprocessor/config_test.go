// Verwerkingenlog - Processing Action Audit Log
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/verwerkingenlog

package eventprocessor

import (
	"testing"
	"time"

	"github.com/tomtom215/verwerkingenlog/internal/config"
)

func TestDefaultRouterConfig(t *testing.T) {
	t.Parallel()

	cfg := DefaultRouterConfig()

	if cfg.CloseTimeout != 30*time.Second {
		t.Errorf("CloseTimeout = %v, want %v", cfg.CloseTimeout, 30*time.Second)
	}
	if cfg.HandlerTimeout != 30*time.Second {
		t.Errorf("HandlerTimeout = %v, want %v", cfg.HandlerTimeout, 30*time.Second)
	}
	if cfg.ThrottlePerSecond != 0 {
		t.Errorf("ThrottlePerSecond = %d, want 0", cfg.ThrottlePerSecond)
	}
}

func TestRouterConfigFrom(t *testing.T) {
	t.Parallel()

	rc := RouterConfigFrom(config.ProcessorConfig{
		HandlerTimeout:    time.Second,
		ThrottlePerSecond: 50,
	})

	if rc.HandlerTimeout != time.Second {
		t.Errorf("HandlerTimeout = %v, want %v", rc.HandlerTimeout, time.Second)
	}
	if rc.CloseTimeout != 30*time.Second {
		t.Errorf("CloseTimeout = %v, want default %v", rc.CloseTimeout, 30*time.Second)
	}
	if rc.ThrottlePerSecond != 50 {
		t.Errorf("ThrottlePerSecond = %d, want 50", rc.ThrottlePerSecond)
	}
}

func TestNATSConfigs(t *testing.T) {
	t.Parallel()

	cfg := config.Default()
	cfg.NATS.StoreDir = "/tmp/nats"
	cfg.NATS.AckWait = 10 * time.Second
	cfg.Queue.Topic = "acties"
	cfg.Queue.Consumers = 2

	srv, pub, sub, stream := NATSConfigs(cfg.NATS, cfg.Queue)

	if srv.StoreDir != "/tmp/nats" {
		t.Errorf("StoreDir = %q, want %q", srv.StoreDir, "/tmp/nats")
	}
	if pub.URL != cfg.NATS.URL {
		t.Errorf("publisher URL = %q, want %q", pub.URL, cfg.NATS.URL)
	}
	if !pub.EnableTrackMsgID {
		t.Error("EnableTrackMsgID = false, want true")
	}
	if sub.MaxDeliver != cfg.Queue.MaxDeliveries+1 {
		t.Errorf("MaxDeliver = %d, want %d", sub.MaxDeliver, cfg.Queue.MaxDeliveries+1)
	}
	if sub.SubscribersCount != 2 {
		t.Errorf("SubscribersCount = %d, want 2", sub.SubscribersCount)
	}
	if sub.AckWaitTimeout != 10*time.Second {
		t.Errorf("AckWaitTimeout = %v, want %v", sub.AckWaitTimeout, 10*time.Second)
	}
	if sub.StreamName != "VERWERKINGEN" {
		t.Errorf("subscriber StreamName = %q, want %q", sub.StreamName, "VERWERKINGEN")
	}
	if stream.Name != "VERWERKINGEN" {
		t.Errorf("stream Name = %q, want %q", stream.Name, "VERWERKINGEN")
	}
	if len(stream.Subjects) != 1 || stream.Subjects[0] != "acties" {
		t.Errorf("stream Subjects = %v, want [acties]", stream.Subjects)
	}
}
