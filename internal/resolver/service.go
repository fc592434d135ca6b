package resolver

import (
	"context"
	"errors"

	"github.com/hashicorp/go-multierror"

	"github.com/sorarelay/sorarelay/internal/domain"
	"github.com/sorarelay/sorarelay/internal/logger"
)

// Service sequences resolvers. The standard chain is an ordered list
// tried one at a time, first success wins; no result comparison happens
// between providers. The alternate path runs a single resolver and is
// never chained onto the standard one.
type Service struct {
	standard  []Resolver
	alternate Resolver
	log       logger.Logger
}

func New(standard []Resolver, alternate Resolver, log logger.Logger) *Service {
	return &Service{
		standard:  standard,
		alternate: alternate,
		log:       log,
	}
}

// ResolveStandard validates raw and walks the standard chain in order.
// The returned error carries only the last classified failure; earlier
// failures are logged and folded into the debug output.
func (s *Service) ResolveStandard(ctx context.Context, raw string) (*domain.Result, error) {
	src, err := domain.ParseSource(raw)
	if err != nil {
		return nil, err
	}

	var all *multierror.Error
	var last error
	for _, r := range s.standard {
		res, err := r.Resolve(ctx, src)
		if err == nil {
			s.log.Info("resolved",
				logger.String("video_id", src.VideoID),
				logger.String("provider", string(r.Name())))
			return res, nil
		}
		s.log.Warn("provider failed",
			logger.String("video_id", src.VideoID),
			logger.String("provider", string(r.Name())),
			logger.String("kind", domain.KindOf(err).String()),
			logger.Error(err))
		all = multierror.Append(all, err)
		last = err
	}

	s.log.Error("all providers exhausted",
		logger.String("video_id", src.VideoID),
		logger.Error(all.ErrorOrNil()))
	return nil, exhausted(last)
}

// ResolveAlternate validates raw and runs the watermark-free resolver
// only. It is an explicitly requested path, not a fallback tier.
func (s *Service) ResolveAlternate(ctx context.Context, raw string) (*domain.Result, error) {
	src, err := domain.ParseSource(raw)
	if err != nil {
		return nil, err
	}

	res, err := s.alternate.Resolve(ctx, src)
	if err != nil {
		s.log.Warn("alternate provider failed",
			logger.String("video_id", src.VideoID),
			logger.String("kind", domain.KindOf(err).String()),
			logger.Error(err))
		return nil, exhausted(err)
	}

	s.log.Info("resolved",
		logger.String("video_id", src.VideoID),
		logger.String("provider", string(s.alternate.Name())))
	return res, nil
}

// exhausted wraps the last provider failure. The inner classification
// stays reachable through errors.As for callers that map kinds to
// status codes.
func exhausted(last error) error {
	if last == nil {
		last = errors.New("no resolvers configured")
	}
	var de *domain.Error
	provider := domain.Provider("")
	if errors.As(last, &de) {
		provider = de.Provider
	}
	return domain.NewError(domain.KindExhausted, provider, last)
}
