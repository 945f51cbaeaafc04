package blobstore

import (
	"context"
	"contract-signing/internal/model"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFileStore(t *testing.T) *FileStore {
	root := t.TempDir()
	store, err := NewFileStore(filepath.Join(root, "uploads"), filepath.Join(root, "storage"))
	require.NoError(t, err)
	return store
}

// runStoreContract checks the behaviour every Store shares.
func runStoreContract(t *testing.T, store Store) {
	ctx := context.Background()
	ref := model.FileRef{Area: model.AreaStorage, Name: "contract-7-signed-1.pdf"}

	exists, err := store.Exists(ctx, ref)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = store.Get(ctx, ref)
	assert.ErrorIs(t, err, ErrNotExist)

	require.NoError(t, store.Put(ctx, ref, []byte("v1")))

	err = store.Put(ctx, ref, []byte("v2"))
	assert.ErrorIs(t, err, ErrExists)

	data, err := store.Get(ctx, ref)
	require.NoError(t, err)
	assert.Equal(t, []byte("v1"), data)

	exists, err = store.Exists(ctx, ref)
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, store.Put(ctx, model.FileRef{Area: model.AreaUploads, Name: "1-a.pdf"}, []byte("a")))

	names, err := store.List(ctx, model.AreaStorage)
	require.NoError(t, err)
	assert.Equal(t, []string{"contract-7-signed-1.pdf"}, names)

	require.NoError(t, store.Delete(ctx, ref))
	require.NoError(t, store.Delete(ctx, ref), "deleting a missing blob is not an error")

	exists, err = store.Exists(ctx, ref)
	require.NoError(t, err)
	assert.False(t, exists)

	err = store.Put(ctx, model.FileRef{Area: model.AreaStorage, Name: "../escape.pdf"}, []byte("x"))
	assert.ErrorIs(t, err, ErrBadRef)

	err = store.Put(ctx, model.FileRef{Area: "tmp", Name: "x.pdf"}, []byte("x"))
	assert.ErrorIs(t, err, ErrBadRef)
}

func TestFileStore(t *testing.T) {
	runStoreContract(t, newTestFileStore(t))
}

func TestMemStore(t *testing.T) {
	runStoreContract(t, NewMemStore())
}

func TestFileStoreListSkipsTempFiles(t *testing.T) {
	store := newTestFileStore(t)
	dir := store.Dir(model.AreaUploads)
	require.NoError(t, os.WriteFile(filepath.Join(dir, tempPrefix+"abc"), []byte("partial"), 0644))
	require.NoError(t, store.Put(context.Background(), model.FileRef{Area: model.AreaUploads, Name: "2-b.pdf"}, []byte("b")))

	names, err := store.List(context.Background(), model.AreaUploads)
	require.NoError(t, err)
	assert.Equal(t, []string{"2-b.pdf"}, names)
}

func TestFileStoreConcurrentPutSingleWinner(t *testing.T) {
	store := newTestFileStore(t)
	ref := model.FileRef{Area: model.AreaStorage, Name: "race.pdf"}

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := store.Put(context.Background(), ref, []byte("x")); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestSanitizeName(t *testing.T) {
	assert.Equal(t, "my_contract__v2_.pdf", SanitizeName("my contract (v2).pdf"))
	assert.Equal(t, "passwd", SanitizeName("../../etc/passwd"))
	assert.Equal(t, "evil.pdf", SanitizeName(`C:\tmp\evil.pdf`))
	assert.Equal(t, "document.pdf", SanitizeName(""))
}

func TestNamer(t *testing.T) {
	fixed := time.UnixMilli(1700000000000)
	n := NewNamerWithClock(func() time.Time { return fixed })

	up := n.Upload("Vendor Agreement.pdf")
	assert.Equal(t, model.AreaUploads, up.Area)
	assert.Equal(t, "1700000000000-Vendor_Agreement.pdf", up.Name)

	// same millisecond, strictly increasing stamps
	assert.Equal(t, "contract-7-signed-1700000000001.pdf", n.ContractSigned(7).Name)
	assert.Equal(t, "approval-3-contract-7-signed-1700000000002.pdf", n.ApprovalSigned(3, 7).Name)
	assert.Equal(t, "1700000000000-a-signed-1700000000003.pdf", n.LegacySigned("1700000000000-a.pdf").Name)
	assert.Equal(t, model.AreaStorage, n.ContractSigned(7).Area)
}
