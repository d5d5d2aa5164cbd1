package core

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// OracleObserver receives per-call oracle measurements
type OracleObserver interface {
	ObserveOracle(purpose string, seconds float64, err error)
	DecodeFailure(purpose string)
}

// OracleService wraps an Oracle with a per-call timeout, metrics and
// JSON decoding. Every component that talks to the model goes through it.
type OracleService struct {
	oracle   Oracle
	timeout  time.Duration
	observer OracleObserver
	logger   *zap.Logger
}

// NewOracleService creates a new oracle service. observer may be nil.
func NewOracleService(oracle Oracle, timeout time.Duration, observer OracleObserver, logger *zap.Logger) *OracleService {
	if oracle == nil {
		panic("core: nil oracle")
	}
	return &OracleService{
		oracle:   oracle,
		timeout:  timeout,
		observer: observer,
		logger:   logger,
	}
}

// Text runs prompt and returns the trimmed model output
func (s *OracleService) Text(ctx context.Context, purpose, prompt string, temperature float32) (string, error) {
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	start := time.Now()
	raw, err := s.oracle.Generate(ctx, prompt, temperature)
	elapsed := time.Since(start)
	if s.observer != nil {
		s.observer.ObserveOracle(purpose, elapsed.Seconds(), err)
	}
	if err != nil {
		s.logger.Error("Oracle call failed",
			zap.String("purpose", purpose),
			zap.Duration("elapsed", elapsed),
			zap.Error(err))
		return "", fmt.Errorf("failed to call oracle for %s: %w", purpose, err)
	}

	s.logger.Debug("Oracle call completed",
		zap.String("purpose", purpose),
		zap.Duration("elapsed", elapsed),
		zap.Int("response_size", len(raw)))

	return StripCodeFence(raw), nil
}

// JSON runs prompt and decodes the output into v. An undecodable response
// is logged with its raw text and reported as ErrOracleDecode.
func (s *OracleService) JSON(ctx context.Context, purpose, prompt string, temperature float32, v any) error {
	raw, err := s.Text(ctx, purpose, prompt, temperature)
	if err != nil {
		return err
	}

	if err := DecodeJSON(raw, v); err != nil {
		if s.observer != nil {
			s.observer.DecodeFailure(purpose)
		}
		s.logger.Warn("Oracle response could not be decoded",
			zap.String("purpose", purpose),
			zap.String("raw_response", raw),
			zap.Error(err))
		return err
	}
	return nil
}
