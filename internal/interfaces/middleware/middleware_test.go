package middleware

import (
	"context"
	"errors"
	"strings"
	"testing"

	"immich-curator/internal/domain/entities"
)

func TestChain_Order(t *testing.T) {
	var calls []string
	trace := func(label string) Middleware {
		return func(name string, next Handler) Handler {
			return func(ctx context.Context) (interface{}, error) {
				calls = append(calls, label)
				return next(ctx)
			}
		}
	}

	h := Chain("dedup", func(ctx context.Context) (interface{}, error) {
		calls = append(calls, "handler")
		return "ok", nil
	}, trace("outer"), trace("inner"))

	got, err := h(context.Background())
	if err != nil || got != "ok" {
		t.Fatalf("handler = %v, %v", got, err)
	}
	if strings.Join(calls, ",") != "outer,inner,handler" {
		t.Fatalf("calls = %v", calls)
	}
}

func TestErrorHandler_RecoversPanic(t *testing.T) {
	h := Chain("dedup", func(ctx context.Context) (interface{}, error) {
		panic("nil map")
	}, ErrorHandler, Logging)

	got, err := h(context.Background())
	if got != nil || err == nil || !strings.Contains(err.Error(), "nil map") {
		t.Fatalf("handler = %v, %v", got, err)
	}
	if entities.ErrorCode(err) != entities.CodeInternal {
		t.Fatalf("code = %s", entities.ErrorCode(err))
	}
}

func TestLogging_PassesErrorsThrough(t *testing.T) {
	want := &entities.NotFoundError{Kind: "album", ID: "Trip"}
	h := Logging("album hide", func(ctx context.Context) (interface{}, error) {
		return nil, want
	})
	if _, err := h(context.Background()); !errors.Is(err, want) {
		t.Fatalf("err = %v", err)
	}
}
