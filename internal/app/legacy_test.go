package app

import (
	"context"
	"contract-signing/internal/apperrors"
	"contract-signing/internal/fixtures"
	"contract-signing/internal/model"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLegacyUploadListSign(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	pdf, err := fixtures.PDF(1)
	require.NoError(t, err)

	ref, err := env.app.UploadFile(ctx, "My Agreement.pdf", pdf)
	require.NoError(t, err)
	assert.Equal(t, model.AreaUploads, ref.Area)
	assert.True(t, strings.HasSuffix(ref.Name, "-My_Agreement.pdf"))

	// non pdf names in the upload area are not listed
	require.NoError(t, env.blobs.Put(ctx, model.FileRef{Area: model.AreaUploads, Name: "readme.txt"}, []byte("x")))

	files, err := env.app.ListUploads(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{ref.Name}, files)

	req := signRequest(0)
	req.Filename = "../../" + ref.Name
	out, err := env.app.SignFile(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, model.AreaStorage, out.Area)
	assert.True(t, strings.HasPrefix(out.Name, strings.TrimSuffix(ref.Name, ".pdf")+"-signed-"))
	assert.True(t, env.exists(t, out))

	// signed outputs never show up in the upload listing
	files, err = env.app.ListUploads(ctx)
	require.NoError(t, err)
	assert.Len(t, files, 1)
}

func TestLegacySignMissingFile(t *testing.T) {
	env := newTestEnv(t)

	req := signRequest(0)
	req.Filename = "nope.pdf"
	_, err := env.app.SignFile(context.Background(), req)
	appErr := apperrors.As(err)
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.CodeFileNotFound, appErr.Code)

	req.Filename = ""
	_, err = env.app.SignFile(context.Background(), req)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}
