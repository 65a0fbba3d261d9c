package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jimcal/jamstack-cms/internal/domain"
	"github.com/jimcal/jamstack-cms/internal/mocks"
)

func newTestPreviewer(t *testing.T, content *mocks.MockContentAPI, s *signer) *Previewer {
	t.Helper()
	r, err := NewResolver(s, newTestObs())
	require.NoError(t, err)
	p, err := NewPreviewer(content, newTestScanner(), r, 4, newTestObs())
	require.NoError(t, err)
	return p
}

func TestPreviewer_SignsBucketURLs(t *testing.T) {
	post := &domain.Post{
		ID:         "p1",
		Title:      "Draft",
		Content:    "a " + bucketURL + "a.png b " + bucketURL + "a.png",
		CoverImage: bucketURL + "cover.jpg",
	}
	content := new(mocks.MockContentAPI)
	content.On("GetPost", mock.Anything, "p1").Return(post, nil)

	p := newTestPreviewer(t, content, &signer{})

	got, report, err := p.Preview(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, "a "+signedURL("a.png")+" b "+signedURL("a.png"), got.Content)
	assert.Equal(t, signedURL("cover.jpg"), got.CoverImage)
	assert.Equal(t, 2, report.Matches)
	assert.Equal(t, 2, report.Signed)
	assert.Empty(t, report.Failures)

	assert.Equal(t, bucketURL+"cover.jpg", post.CoverImage, "source post is untouched")
}

func TestPreviewer_UnsignableURLStaysRemote(t *testing.T) {
	post := &domain.Post{ID: "p1", Content: bucketURL + "gone.png"}
	content := new(mocks.MockContentAPI)
	content.On("GetPost", mock.Anything, "p1").Return(post, nil)

	p := newTestPreviewer(t, content, &signer{fail: map[string]error{"images/gone.png": domain.ErrKeyNotFound}})

	got, report, err := p.Preview(context.Background(), "p1")
	require.NoError(t, err)

	assert.Equal(t, post.Content, got.Content)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, stageResolve, report.Failures[0].Stage)
}

func TestPreviewer_FetchError(t *testing.T) {
	content := new(mocks.MockContentAPI)
	content.On("GetPost", mock.Anything, "missing").Return(nil, domain.ErrFetch.Wrap(errors.New("post not found")))

	p := newTestPreviewer(t, content, &signer{})

	_, _, err := p.Preview(context.Background(), "missing")
	assert.ErrorIs(t, err, domain.ErrFetch)
}
