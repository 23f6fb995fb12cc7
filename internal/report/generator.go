package report

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/leaselens/leaselens/internal/cache"
	"github.com/leaselens/leaselens/internal/hash"
	"github.com/leaselens/leaselens/internal/model"
)

// ReportTTL bounds how long a generated report is reused for the same
// listing + preferences input.
const ReportTTL = 24 * time.Hour

// Service turns a resolved listing into a decoder report, caching by the
// composite key of address, preferences, and report version.
type Service struct {
	gen   Generator
	cache *cache.Cache
	log   zerolog.Logger
}

func NewService(gen Generator, c *cache.Cache, log zerolog.Logger) *Service {
	return &Service{gen: gen, cache: c, log: log.With().Str("component", "report").Logger()}
}

// Generate returns the decoder report for the listing, serving a cached copy
// when one exists for the same address + preferences within the TTL.
func (s *Service) Generate(ctx context.Context, l *model.Listing, a *model.Augmentation, prefs model.Preferences) (*model.DecoderReport, error) {
	key := hash.ReportKey(hash.Address(l.Fields.Address), hash.Prefs(prefs), model.ReportVersion)
	return cache.GetOrCompute(ctx, s.cache, key, ReportTTL, func(ctx context.Context) (*model.DecoderReport, error) {
		return s.generate(ctx, l, a, prefs)
	})
}

func (s *Service) generate(ctx context.Context, l *model.Listing, a *model.Augmentation, prefs model.Preferences) (*model.DecoderReport, error) {
	prompt := BuildPrompt(l, a, prefs)
	text, err := s.gen.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	rep, err := ParseReport(text)
	if err != nil {
		s.log.Warn().Err(err).Str("address", l.Fields.Address).Msg("generator output unparsable")
		return nil, err
	}
	rep.GeneratedAt = time.Now().UTC()
	return rep, nil
}
