package scrape

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leaselens/leaselens/internal/kv/kvtest"
	"github.com/leaselens/leaselens/internal/model"
)

const listingURL = "https://www.example.com/homedetails/450-Oak-St-Portland-OR-97205"

func metadataRequest() IngestRequest {
	return IngestRequest{
		URL: listingURL,
		Metadata: map[string]string{
			"address": "450 oak st",
			"city":    "portland",
			"state":   "or",
			"price":   "1850",
			"beds":    "2",
		},
	}
}

func TestIngest_DisabledByFlag(t *testing.T) {
	svc := NewService(kvtest.NewMemoryStore(), false, zerolog.Nop())
	_, err := svc.Ingest(context.Background(), metadataRequest())
	require.Error(t, err)
	assert.Equal(t, model.CodeValidation, model.CodeOf(err))
}

func TestIngest_ValidatesInput(t *testing.T) {
	svc := NewService(kvtest.NewMemoryStore(), true, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Ingest(ctx, IngestRequest{Metadata: map[string]string{"address": "x"}})
	require.Error(t, err, "url is required")

	_, err = svc.Ingest(ctx, IngestRequest{URL: listingURL})
	require.Error(t, err, "html or metadata is required")
}

func TestIngest_MetadataOnlyThenLookup(t *testing.T) {
	svc := NewService(kvtest.NewMemoryStore(), true, zerolog.Nop())
	ctx := context.Background()

	listing, err := svc.Ingest(ctx, metadataRequest())
	require.NoError(t, err)
	assert.True(t, listing.CoreComplete())
	assert.Equal(t, model.ProviderScrape, listing.Source.Provider)

	cached, err := svc.Lookup(ctx, listingURL)
	require.NoError(t, err)
	require.NotNil(t, cached)
	assert.Equal(t, "450 oak st", cached.Fields.Address)
	require.NotNil(t, cached.Fields.Price)
	assert.Equal(t, 1850.0, *cached.Fields.Price)
}

func TestLookup_MissIsNilNotError(t *testing.T) {
	svc := NewService(kvtest.NewMemoryStore(), true, zerolog.Nop())
	cached, err := svc.Lookup(context.Background(), "https://example.com/never-seen")
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestLookup_BackendOutageDegradesToNil(t *testing.T) {
	store := kvtest.NewMemoryStore()
	svc := NewService(store, true, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Ingest(ctx, metadataRequest())
	require.NoError(t, err)

	store.FailAll = assert.AnError
	cached, err := svc.Lookup(ctx, listingURL)
	require.NoError(t, err)
	assert.Nil(t, cached)
}

func TestIngest_RefreshesNewerParse(t *testing.T) {
	svc := NewService(kvtest.NewMemoryStore(), true, zerolog.Nop())
	ctx := context.Background()

	_, err := svc.Ingest(ctx, metadataRequest())
	require.NoError(t, err)

	second := metadataRequest()
	second.Metadata["price"] = "1900"
	_, err = svc.Ingest(ctx, second)
	require.NoError(t, err)

	cached, err := svc.Lookup(ctx, listingURL)
	require.NoError(t, err)
	require.NotNil(t, cached)
	require.NotNil(t, cached.Fields.Price)
	assert.Equal(t, 1900.0, *cached.Fields.Price)
}

func TestIngest_LookupWithoutFlag(t *testing.T) {
	store := kvtest.NewMemoryStore()
	enabled := NewService(store, true, zerolog.Nop())
	disabled := NewService(store, false, zerolog.Nop())
	ctx := context.Background()

	_, err := enabled.Ingest(ctx, metadataRequest())
	require.NoError(t, err)

	// Cached reads stay available when fresh ingestion is gated off.
	cached, err := disabled.Lookup(ctx, listingURL)
	require.NoError(t, err)
	assert.NotNil(t, cached)
}
