package telemetry

import (
	"context"
	"testing"
)

func TestSetupDefaults(t *testing.T) {
	ctx := context.Background()
	provider, err := Setup(ctx, Options{ServiceName: "typespeedd", ServiceVersion: "test"})
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	if provider == nil {
		t.Fatal("expected provider")
	}
	if err := provider.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
}

func TestSetupRejectsEmptyStrippedEndpoint(t *testing.T) {
	_, err := Setup(context.Background(), Options{
		ServiceName: "typespeedd",
		Endpoint:    "https://",
	})
	if err == nil {
		t.Fatal("expected error for empty endpoint")
	}
}

func TestSetupClampsSampleRatio(t *testing.T) {
	ctx := context.Background()
	provider, err := Setup(ctx, Options{ServiceName: "typespeedd", SampleRatio: -3})
	if err != nil {
		t.Fatalf("setup failed: %v", err)
	}
	if err := provider.Shutdown(ctx); err != nil {
		t.Fatalf("shutdown failed: %v", err)
	}
}
