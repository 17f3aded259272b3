package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoverKey(t *testing.T) {
	key, err := CoverKey("p1", "image/png")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(key, "campaigns/p1/"))
	assert.True(t, strings.HasSuffix(key, ".png"))

	_, err = CoverKey("p1", "application/pdf")
	assert.ErrorIs(t, err, ErrContentType)

	_, err = CoverKey("p1", "")
	assert.ErrorIs(t, err, ErrContentType)
}

func TestNilUploader(t *testing.T) {
	u, err := NewUploader(context.Background(), "us-east-1", "", "")
	require.NoError(t, err)
	assert.Nil(t, u)

	_, err = u.CoverUploadURL(context.Background(), "p1", "image/png")
	assert.ErrorIs(t, err, ErrNotConfigured)
}
