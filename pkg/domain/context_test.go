package domain_test

import (
	"testing"
	"time"

	"github.com/aretw0/tendril/pkg/domain"
)

func TestRuntimeContext_MarkExecuted(t *testing.T) {
	rc := domain.NewRuntimeContext("localhost", 6379, "metrics", "vm-stats", time.Now())

	if rc.LastExecutionAt != nil {
		t.Fatal("LastExecutionAt must start unset")
	}
	if rc.Env == nil {
		t.Fatal("Env must be initialized")
	}

	now := time.Now()
	rc.MarkExecuted(now)

	if rc.LastExecutionAt == nil || !rc.LastExecutionAt.Equal(now) {
		t.Errorf("expected LastExecutionAt %v, got %v", now, rc.LastExecutionAt)
	}
}
