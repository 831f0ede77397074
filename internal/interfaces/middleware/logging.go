package middleware

import (
	"context"
	"time"

	"k8s.io/klog/v2"

	"immich-curator/internal/domain/entities"
)

// Logging logs the start and outcome of a command with its duration
func Logging(name string, next Handler) Handler {
	return func(ctx context.Context) (interface{}, error) {
		start := time.Now()
		klog.V(1).Infof("🔵 %s", name)

		result, err := next(ctx)

		duration := time.Since(start)
		if err != nil {
			klog.Errorf("%s %s - %s - %v: %v", outcomeEmoji(err), name, entities.ErrorCode(err), duration, err)
			return result, err
		}
		klog.V(1).Infof("%s %s - %v", outcomeEmoji(nil), name, duration)
		return result, nil
	}
}

func outcomeEmoji(err error) string {
	switch entities.ErrorCode(err) {
	case "":
		return "✅"
	case entities.CodeConfiguration, entities.CodeNotFound:
		return "⚠️"
	default:
		return "❌"
	}
}
