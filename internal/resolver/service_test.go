package resolver

import (
	"context"
	"testing"

	"github.com/sorarelay/sorarelay/internal/domain"
	"github.com/sorarelay/sorarelay/internal/logger"
)

// stubResolver counts calls and returns a fixed outcome.
type stubResolver struct {
	name  domain.Provider
	res   *domain.Result
	err   error
	calls int
}

func (s *stubResolver) Name() domain.Provider { return s.name }

func (s *stubResolver) Resolve(_ context.Context, _ *domain.Source) (*domain.Result, error) {
	s.calls++
	return s.res, s.err
}

func TestServiceFirstSuccessWins(t *testing.T) {
	first := &stubResolver{
		name: domain.ProviderPrimary,
		res:  &domain.Result{MediaURL: "https://a/v.mp4", Provider: domain.ProviderPrimary},
	}
	second := &stubResolver{
		name: domain.ProviderFallback,
		res:  &domain.Result{MediaURL: "https://b/v.mp4", Provider: domain.ProviderFallback},
	}
	svc := New([]Resolver{first, second}, nil, logger.Nop())

	res, err := svc.ResolveStandard(context.Background(), testShareLink)
	if err != nil {
		t.Fatalf("ResolveStandard() error: %v", err)
	}
	if res.Provider != domain.ProviderPrimary {
		t.Errorf("Provider = %q, want primary", res.Provider)
	}
	if second.calls != 0 {
		t.Errorf("fallback called %d times, want 0 after primary success", second.calls)
	}
}

func TestServiceFallsBackAfterPrimaryFailure(t *testing.T) {
	first := &stubResolver{
		name: domain.ProviderPrimary,
		err:  domain.Errorf(domain.KindServerError, domain.ProviderPrimary, "boom"),
	}
	second := &stubResolver{
		name: domain.ProviderFallback,
		res:  &domain.Result{MediaURL: "https://b/v.mp4", Provider: domain.ProviderFallback},
	}
	svc := New([]Resolver{first, second}, nil, logger.Nop())

	res, err := svc.ResolveStandard(context.Background(), testShareLink)
	if err != nil {
		t.Fatalf("ResolveStandard() error: %v", err)
	}
	if res.Provider != domain.ProviderFallback {
		t.Errorf("Provider = %q, want fallback", res.Provider)
	}
	if first.calls != 1 || second.calls != 1 {
		t.Errorf("calls = %d/%d, want 1/1", first.calls, second.calls)
	}
}

func TestServiceExhaustedKeepsLastKind(t *testing.T) {
	first := &stubResolver{
		name: domain.ProviderPrimary,
		err:  domain.Errorf(domain.KindServerError, domain.ProviderPrimary, "boom"),
	}
	second := &stubResolver{
		name: domain.ProviderFallback,
		err:  domain.Errorf(domain.KindNotFound, domain.ProviderFallback, "gone"),
	}
	svc := New([]Resolver{first, second}, nil, logger.Nop())

	_, err := svc.ResolveStandard(context.Background(), testShareLink)
	if err == nil {
		t.Fatal("ResolveStandard() expected error")
	}
	if !domain.IsKind(err, domain.KindExhausted) {
		t.Errorf("outer kind = %v, want exhausted", domain.KindOf(err))
	}
	// The last provider's classification stays reachable.
	if got := domain.RootKind(err); got != domain.KindNotFound {
		t.Errorf("RootKind = %v, want not_found from the final failure", got)
	}
}

func TestServiceInvalidSourceSkipsProviders(t *testing.T) {
	first := &stubResolver{name: domain.ProviderPrimary}
	svc := New([]Resolver{first}, nil, logger.Nop())

	_, err := svc.ResolveStandard(context.Background(), "https://example.com/not-a-sora-link")
	if err == nil {
		t.Fatal("ResolveStandard() expected error")
	}
	if !domain.IsKind(err, domain.KindInvalidSource) {
		t.Errorf("kind = %v, want invalid_source", domain.KindOf(err))
	}
	if first.calls != 0 {
		t.Errorf("provider called %d times for an invalid source, want 0", first.calls)
	}
}

func TestServiceAlternateNeverChains(t *testing.T) {
	standard := &stubResolver{
		name: domain.ProviderPrimary,
		res:  &domain.Result{MediaURL: "https://a/v.mp4", Provider: domain.ProviderPrimary},
	}
	alternate := &stubResolver{
		name: domain.ProviderWatermarkFree,
		err:  domain.Errorf(domain.KindServerError, domain.ProviderWatermarkFree, "down"),
	}
	svc := New([]Resolver{standard}, alternate, logger.Nop())

	_, err := svc.ResolveAlternate(context.Background(), testShareLink)
	if err == nil {
		t.Fatal("ResolveAlternate() expected error, not a silent fallback")
	}
	if !domain.IsKind(err, domain.KindExhausted) {
		t.Errorf("kind = %v, want exhausted", domain.KindOf(err))
	}
	if standard.calls != 0 {
		t.Errorf("standard chain called %d times from the alternate path, want 0", standard.calls)
	}
	if alternate.calls != 1 {
		t.Errorf("alternate called %d times, want 1", alternate.calls)
	}
}

func TestServiceAlternateSuccess(t *testing.T) {
	alternate := &stubResolver{
		name: domain.ProviderWatermarkFree,
		res:  &domain.Result{MediaURL: "https://c/clean.mp4", Provider: domain.ProviderWatermarkFree},
	}
	svc := New(nil, alternate, logger.Nop())

	res, err := svc.ResolveAlternate(context.Background(), testShareLink)
	if err != nil {
		t.Fatalf("ResolveAlternate() error: %v", err)
	}
	if res.Provider != domain.ProviderWatermarkFree {
		t.Errorf("Provider = %q, want watermark-free", res.Provider)
	}
}
