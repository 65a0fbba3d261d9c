package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jimcal/jamstack-cms/internal/domain"
	"github.com/jimcal/jamstack-cms/internal/mocks"
)

func TestResolver_Resolve(t *testing.T) {
	storage := new(mocks.MockSignedURLResolver)
	storage.On("ResolveSignedURL", context.Background(), "images/abc123.png").
		Return("https://signed.test/images/abc123.png", nil)

	r, err := NewResolver(storage, newTestObs())
	require.NoError(t, err)

	url, err := r.Resolve(context.Background(), "abc123.png")
	require.NoError(t, err)
	assert.Equal(t, "https://signed.test/images/abc123.png", url)
	storage.AssertExpectations(t)
}

func TestResolver_Errors(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		err      error
		wantCode string
	}{
		{"not found keeps code", "", domain.ErrKeyNotFound, domain.ErrKeyNotFound.Code},
		{"other error wrapped", "", errors.New("boom"), domain.ErrResolution.Code},
		{"empty url", "", nil, domain.ErrResolution.Code},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			storage := new(mocks.MockSignedURLResolver)
			storage.On("ResolveSignedURL", context.Background(), "images/k.png").Return(tt.url, tt.err)

			r, err := NewResolver(storage, newTestObs())
			require.NoError(t, err)

			_, err = r.Resolve(context.Background(), "k.png")
			require.Error(t, err)

			var de *domain.Error
			require.ErrorAs(t, err, &de)
			assert.Equal(t, tt.wantCode, de.Code)
			assert.Equal(t, "k.png", de.Key)
		})
	}
}

func TestResolver_ResolveAllIsolatesFailures(t *testing.T) {
	s := &signer{fail: map[string]error{"images/bad.png": errors.New("denied")}}
	r, err := NewResolver(s, newTestObs())
	require.NoError(t, err)

	out := r.ResolveAll(context.Background(), []string{"a.png", "bad.png", "b.png"}, 2)

	require.Len(t, out, 3)
	assert.NoError(t, out["a.png"].Err)
	assert.NoError(t, out["b.png"].Err)
	assert.ErrorIs(t, out["bad.png"].Err, domain.ErrResolution)
	assert.Equal(t, signedURL("a.png"), out["a.png"].SignedURL)
}
