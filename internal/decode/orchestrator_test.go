package decode

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaselens/leaselens/internal/kv/kvtest"
	"github.com/leaselens/leaselens/internal/model"
	"github.com/leaselens/leaselens/internal/reportstore"
)

type fakeResolver struct {
	listing *model.Listing
	err     error
	gotIn   model.NormalizedInput
}

func (f *fakeResolver) Resolve(_ context.Context, in model.NormalizedInput) (*model.Listing, error) {
	f.gotIn = in
	return f.listing, f.err
}

type fakeAugmenter struct {
	aug      *model.Augmentation
	gotPrefs model.Preferences
}

func (f *fakeAugmenter) Augment(_ context.Context, _ *model.Listing, prefs model.Preferences) *model.Augmentation {
	f.gotPrefs = prefs
	return f.aug
}

type fakeReports struct {
	rep   *model.DecoderReport
	err   error
	calls int
}

func (f *fakeReports) Generate(_ context.Context, _ *model.Listing, _ *model.Augmentation, _ model.Preferences) (*model.DecoderReport, error) {
	f.calls++
	return f.rep, f.err
}

type failingRenderer struct{}

func (failingRenderer) Render(context.Context, *model.ReportMapping) error {
	return errors.New("render blew up")
}

func f64(v float64) *float64 { return &v }

func completeListing() *model.Listing {
	return &model.Listing{
		Source: model.ListingSource{Provider: model.ProviderPrimary, Version: model.ListingVersion},
		Fields: model.ListingFields{
			Address: "450 oak street",
			City:    "portland",
			State:   "or",
			Price:   f64(1850),
			Beds:    f64(2),
		},
	}
}

func goodReport() *model.DecoderReport {
	return &model.DecoderReport{
		Summary: "decent",
		Scorecard: model.Scorecard{
			Value: model.ScoreEntry{Score: 7}, Livability: model.ScoreEntry{Score: 8},
			NoiseLight: model.ScoreEntry{Score: 6}, Hazards: model.ScoreEntry{Score: 9},
			Transparency: model.ScoreEntry{Score: 7}, Total: 74,
		},
		Caption: "nice spot",
		Version: model.ReportVersion,
	}
}

func newTestOrchestrator(res ListingResolver, rep ReportGenerator, renderer ShareImageRenderer) (*Orchestrator, *reportstore.Store, *fakeAugmenter) {
	store := reportstore.New(kvtest.NewMemoryStore())
	aug := &fakeAugmenter{aug: &model.Augmentation{Version: model.AugmentationVersion}}
	if renderer == nil {
		renderer = NewSVGRenderer(store)
	}
	return NewOrchestrator(res, aug, rep, store, renderer, zerolog.Nop()), store, aug
}

func collectStages(events *[]Event) Sink {
	return func(e Event) { *events = append(*events, e) }
}

func TestRun_FullPipeline(t *testing.T) {
	res := &fakeResolver{listing: completeListing()}
	rep := &fakeReports{rep: goodReport()}
	o, store, aug := newTestOrchestrator(res, rep, nil)

	var events []Event
	result, err := o.Run(context.Background(), Request{
		Address:     "450 Oak St, Portland, OR",
		Preferences: model.Preferences{WorkAddress: "100 main st"},
	}, collectStages(&events))
	require.NoError(t, err)

	assert.NotEmpty(t, result.RunID)
	assert.Len(t, result.ID, 16)
	assert.Equal(t, "/report/"+result.ID, result.Path)
	assert.Equal(t, "portland-450-oak-street-74", result.Slug)
	assert.Equal(t, "100 main st", aug.gotPrefs.WorkAddress)

	got := []Stage{}
	for _, e := range events {
		got = append(got, e.Stage)
	}
	assert.Equal(t, []Stage{StageNormalize, StageProperty, StageAugment, StageReport, StageShareImage, StagePublish, StageComplete}, got)
	for i := 1; i < len(events); i++ {
		assert.GreaterOrEqual(t, events[i].Progress, events[i-1].Progress)
	}

	saved, err := store.Get(context.Background(), result.ID)
	require.NoError(t, err)
	assert.Equal(t, 74, saved.Report.Scorecard.Total)
	assert.GreaterOrEqual(t, saved.Report.Scorecard.Total, 0)
	assert.LessOrEqual(t, saved.Report.Scorecard.Total, model.MaxTotalScore)
	assert.LessOrEqual(t, len(saved.Report.RedFlags), model.MaxRedFlags)
	require.NotNil(t, saved.Augmentation)

	img, err := store.Image(context.Background(), result.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(img), "<svg"))
	assert.Contains(t, string(img), "74/100")
}

func TestRun_BothInputsMissingIsValidationError(t *testing.T) {
	o, _, _ := newTestOrchestrator(&fakeResolver{}, &fakeReports{}, nil)
	_, err := o.Run(context.Background(), Request{}, nil)
	require.Error(t, err)
	assert.Equal(t, model.CodeValidation, model.CodeOf(err))
}

func TestRun_NoListingIsNotFound(t *testing.T) {
	o, _, _ := newTestOrchestrator(&fakeResolver{listing: nil}, &fakeReports{rep: goodReport()}, nil)
	_, err := o.Run(context.Background(), Request{Address: "1 nowhere rd, lost, ks"}, nil)
	require.Error(t, err)
	assert.Equal(t, model.CodeNotFound, model.CodeOf(err))
}

func TestRun_ResolverFailureAborts(t *testing.T) {
	res := &fakeResolver{err: model.NewDataQuality("missing fields", nil)}
	rep := &fakeReports{rep: goodReport()}
	o, _, _ := newTestOrchestrator(res, rep, nil)

	_, err := o.Run(context.Background(), Request{Address: "450 oak st, portland, or"}, nil)
	require.Error(t, err)
	assert.Equal(t, model.CodeDataQuality, model.CodeOf(err))
	assert.Equal(t, 0, rep.calls)
}

func TestRun_ReportFailureAborts(t *testing.T) {
	res := &fakeResolver{listing: completeListing()}
	rep := &fakeReports{err: model.NewAPI("model offline", 503, nil)}
	o, _, _ := newTestOrchestrator(res, rep, nil)

	var events []Event
	_, err := o.Run(context.Background(), Request{Address: "450 oak st, portland, or"}, collectStages(&events))
	require.Error(t, err)
	for _, e := range events {
		assert.NotEqual(t, StagePublish, e.Stage)
	}
}

func TestRun_ShareImageFailureIsNonFatal(t *testing.T) {
	res := &fakeResolver{listing: completeListing()}
	rep := &fakeReports{rep: goodReport()}
	o, store, _ := newTestOrchestrator(res, rep, failingRenderer{})

	var events []Event
	result, err := o.Run(context.Background(), Request{Address: "450 oak st, portland, or"}, collectStages(&events))
	require.NoError(t, err)

	var warned bool
	for _, e := range events {
		if e.Stage == StageShareImage && e.Warning != "" {
			warned = true
		}
	}
	assert.True(t, warned, "expected a share-image warning event")

	_, err = store.Get(context.Background(), result.ID)
	assert.NoError(t, err, "report should publish despite render failure")
}

func TestSlugFor(t *testing.T) {
	l := completeListing()
	rep := goodReport()
	assert.Equal(t, "portland-450-oak-street-74", slugFor(l, rep))

	l.Fields.City = ""
	l.Fields.Address = ""
	assert.Equal(t, "74", slugFor(l, rep))
}
