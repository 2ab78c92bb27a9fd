package services

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/SscSPs/fleet_finance_engine/internal/apperrors"
	"github.com/SscSPs/fleet_finance_engine/internal/middleware"
	"github.com/SscSPs/fleet_finance_engine/internal/platform/lock"
	"github.com/SscSPs/fleet_finance_engine/internal/platform/metrics"
	"github.com/SscSPs/fleet_finance_engine/internal/utils/accounting"
	"github.com/cenkalti/backoff/v5"
)

const (
	defaultStoreCallTimeout     = 5 * time.Second
	defaultStoreRetryAttempts   = 3
	defaultStoreRetryInitialGap = 200 * time.Millisecond
)

// BaseService provides common functionality for all services
type BaseService struct {
	StoreCallTimeout     time.Duration
	RetryAttempts        int
	RetryInitialInterval time.Duration
	Locker               lock.Locker
	Metrics              *metrics.Metrics
	Clock                func() time.Time
	Precision            int32
}

// ServiceOption is a functional option for the settings every service shares
type ServiceOption func(*BaseService)

// WithStoreCallTimeout bounds every individual store call.
func WithStoreCallTimeout(d time.Duration) ServiceOption {
	return func(s *BaseService) {
		if d > 0 {
			s.StoreCallTimeout = d
		}
	}
}

// WithStoreRetry sets how often, and how soon, transient store failures are retried.
func WithStoreRetry(attempts int, initialInterval time.Duration) ServiceOption {
	return func(s *BaseService) {
		if attempts > 0 {
			s.RetryAttempts = attempts
		}
		if initialInterval > 0 {
			s.RetryInitialInterval = initialInterval
		}
	}
}

// WithLocker replaces the default in-process locker.
func WithLocker(l lock.Locker) ServiceOption {
	return func(s *BaseService) {
		if l != nil {
			s.Locker = l
		}
	}
}

// WithMetrics adds metrics recording
func WithMetrics(m *metrics.Metrics) ServiceOption {
	return func(s *BaseService) {
		s.Metrics = m
	}
}

// WithClock overrides time.Now, for tests.
func WithClock(clock func() time.Time) ServiceOption {
	return func(s *BaseService) {
		if clock != nil {
			s.Clock = clock
		}
	}
}

// WithCurrencyPrecision sets the number of decimal places amounts are rounded to.
func WithCurrencyPrecision(places int32) ServiceOption {
	return func(s *BaseService) {
		if places >= 0 {
			s.Precision = places
		}
	}
}

func newBaseService(opts ...ServiceOption) BaseService {
	base := BaseService{
		StoreCallTimeout:     defaultStoreCallTimeout,
		RetryAttempts:        defaultStoreRetryAttempts,
		RetryInitialInterval: defaultStoreRetryInitialGap,
		Clock:                time.Now,
		Precision:            accounting.DefaultCurrencyPrecision,
	}
	for _, opt := range opts {
		opt(&base)
	}
	if base.Locker == nil {
		base.Locker = lock.NewLocalLocker()
	}
	return base
}

// Now returns the current time in UTC.
func (s *BaseService) Now() time.Time {
	return s.Clock().UTC()
}

// GetLogger gets the logger from context or returns a default one
func (s *BaseService) GetLogger(ctx context.Context) *slog.Logger {
	return middleware.GetLoggerFromCtx(ctx)
}

// LogError logs an error with consistent formatting
func (s *BaseService) LogError(ctx context.Context, err error, msg string, keyvals ...any) {
	logger := s.GetLogger(ctx)
	args := make([]any, 0, len(keyvals)+1)
	args = append(args, slog.String("error", err.Error()))
	args = append(args, keyvals...)
	logger.Error(msg, args...)
}

// LogWarn logs a warning with consistent formatting
func (s *BaseService) LogWarn(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Warn(msg, keyvals...)
}

// LogInfo logs an info message with consistent formatting
func (s *BaseService) LogInfo(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Info(msg, keyvals...)
}

// LogDebug logs a debug message with consistent formatting
func (s *BaseService) LogDebug(ctx context.Context, msg string, keyvals ...any) {
	s.GetLogger(ctx).Debug(msg, keyvals...)
}

// callStore runs fn under the per-call timeout and retries transient failures with
// exponential backoff. Non-transient errors are returned on the first attempt.
func callStore[T any](ctx context.Context, s *BaseService, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.RetryInitialInterval

	attempt := 0
	operation := func() (T, error) {
		attempt++
		if attempt > 1 {
			s.Metrics.StoreRetry(op)
			s.LogWarn(ctx, "Retrying store call after transient failure", slog.String("op", op), slog.Int("attempt", attempt))
		}

		callCtx, cancel := context.WithTimeout(ctx, s.StoreCallTimeout)
		defer cancel()

		res, err := fn(callCtx)
		if err == nil {
			return res, nil
		}
		if ctx.Err() == nil && errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, apperrors.ErrTransientStore) {
			err = apperrors.NewTransientStoreError(op, err)
		}
		if !apperrors.IsRetryable(err) {
			return res, backoff.Permanent(err)
		}
		return res, err
	}

	res, err := backoff.Retry(ctx, operation, backoff.WithBackOff(b), backoff.WithMaxTries(uint(s.RetryAttempts)))
	if err != nil {
		var permanent *backoff.PermanentError
		if errors.As(err, &permanent) {
			err = permanent.Unwrap()
		}
		return res, err
	}
	return res, nil
}

// execStore is callStore for calls that only return an error.
func execStore(ctx context.Context, s *BaseService, op string, fn func(ctx context.Context) error) error {
	_, err := callStore(ctx, s, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
