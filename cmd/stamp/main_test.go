package main

import (
	"contract-signing/internal/compositor"
	"contract-signing/internal/fixtures"
	"contract-signing/internal/placement"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestParsePointAndSize(t *testing.T) {
	p, err := parsePoint(" 120, 300.5")
	require.NoError(t, err)
	assert.Equal(t, point{X: 120, Y: 300.5}, p)

	_, err = parsePoint("120")
	assert.Error(t, err)

	w, h, err := parseSize("170X70")
	require.NoError(t, err)
	assert.Equal(t, 170.0, w)
	assert.Equal(t, 70.0, h)

	_, _, err = parseSize("0x70")
	assert.Error(t, err)
}

func TestCommitKeepsLastPlacementAfterUndo(t *testing.T) {
	opts, err := parseOptions([]string{
		"--in", "a.pdf", "--image", "sig.png", "--out", "b.pdf",
		"--scale", "2", "--page-height-px", "1000",
		"--click", "100,200", "--click", "300,400", "--click", "500,600",
		"--undo", "1",
	})
	require.NoError(t, err)

	committed, err := commit(opts)
	require.NoError(t, err)
	assert.Equal(t, placement.Rect{X: 150, Y: 265, Width: 85, Height: 35}, committed.Rect)
}

func TestCommitUndoEverything(t *testing.T) {
	opts, err := parseOptions([]string{
		"--in", "a.pdf", "--image", "sig.png", "--out", "b.pdf",
		"--page-height-px", "1000", "--click", "1,1", "--undo", "2",
	})
	require.NoError(t, err)

	_, err = commit(opts)
	assert.ErrorIs(t, err, placement.ErrNothingToUndo)
}

func TestParseOptionsRequiresInputs(t *testing.T) {
	_, err := parseOptions([]string{"--in", "a.pdf"})
	assert.Error(t, err)

	_, err = parseOptions([]string{"--in", "a.pdf", "--image", "s.png", "--out", "b.pdf", "--page-height-px", "990"})
	assert.Error(t, err)
}

func TestRun(t *testing.T) {
	dir := t.TempDir()
	source, err := fixtures.PDF(2)
	require.NoError(t, err)

	in := filepath.Join(dir, "in.pdf")
	image := filepath.Join(dir, "sig.png")
	out := filepath.Join(dir, "out.pdf")
	require.NoError(t, os.WriteFile(in, source, 0o644))
	require.NoError(t, os.WriteFile(image, fixtures.PNG(340, 140), 0o644))

	opts, err := parseOptions([]string{
		"--in", in, "--image", image, "--out", out,
		"--page", "1", "--scale", "1.25", "--page-height-px", "990", "--click", "120,300",
	})
	require.NoError(t, err)
	require.NoError(t, run(zap.NewNop(), opts))

	stamped, err := os.ReadFile(out)
	require.NoError(t, err)

	pages, err := compositor.New(zap.NewNop()).PageCount(stamped)
	require.NoError(t, err)
	assert.Equal(t, 2, pages)
}
