package awsconf

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws/retry"
)

func TestNewRetryer(t *testing.T) {
	retryer := NewRetryer()

	if _, ok := retryer.(*retry.Standard); !ok {
		t.Fatalf("expected retryer to be *retry.Standard, got %T", retryer)
	}
	if got := retryer.MaxAttempts(); got != MaxAttempts {
		t.Errorf("expected MaxAttempts = %d, got %d", MaxAttempts, got)
	}
	if retryer.IsErrorRetryable(nil) {
		t.Error("IsErrorRetryable(nil) = true, want false")
	}
}

func TestLoad_Region(t *testing.T) {
	t.Setenv("AWS_CONFIG_FILE", t.TempDir()+"/config")
	t.Setenv("AWS_SHARED_CREDENTIALS_FILE", t.TempDir()+"/credentials")
	t.Setenv("AWS_PROFILE", "")
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_DEFAULT_REGION", "")

	cfg, err := Load(context.Background(), "eu-west-1")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Region != "eu-west-1" {
		t.Errorf("Region = %q, want eu-west-1", cfg.Region)
	}
	if cfg.Retryer == nil {
		t.Error("Retryer not configured")
	}

	if _, err := Load(context.Background(), ""); err == nil {
		t.Error("Load() without a region: error = nil, want error")
	}
}
