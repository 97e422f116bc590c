package api

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogLists(t *testing.T) {
	h := newHarness(t)

	cities, err := h.client.Cities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Madrid", "Sevilla", "Valencia"}, cities)

	amenities, err := h.client.Amenities(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"wifi", "pool", "parking"}, amenities)
}

func TestImageUploadAndDelete(t *testing.T) {
	h := newHarness(t)
	h.sess.Login("tok-1", "ref-1")

	imageURL, err := h.client.UploadImage(context.Background(), "casa.jpg", strings.NewReader("jpeg-bytes"))
	require.NoError(t, err)
	assert.Equal(t, "http://img.test/casa.jpg", imageURL)

	require.NoError(t, h.client.DeleteImage(context.Background(), imageURL))
}

func TestImageUploadRejected(t *testing.T) {
	h := newHarness(t)

	err := h.client.DeleteImage(context.Background(), "")
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Contains(t, apiErr.Message, "missing url")
}
