package backend

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writePC(t *testing.T, prefix, dir, name, content string) {
	t.Helper()
	path := filepath.Join(prefix, dir, "pkgconfig", name+".pc")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

const tbbPC = `prefix=/opt/tbb
libdir=${prefix}/lib

Name: Threading Building Blocks
Description: Intel's parallelism library for C++
Version: 2022.0.0
Libs: -L${libdir} -ltbb
Cflags: -I${prefix}/include
`

func TestStaticLookup(t *testing.T) {
	l := StaticLookup{"TBB": {Version: "2021.11.0"}}

	pkg, err := l.Find(context.Background(), "TBB", "2021.11.0")
	require.NoError(t, err)
	assert.Equal(t, "TBB", pkg.Name)

	_, err = l.Find(context.Background(), "TBB", "2022")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "2021.11.0", nf.Found)

	_, err = l.Find(context.Background(), "zlib", "")
	assert.True(t, IsNotFound(err))
}

func TestPrefixLookup(t *testing.T) {
	old := t.TempDir()
	writePC(t, old, "lib", "tbb", strings.Replace(tbbPC, "2022.0.0", "2020.3", 1))
	current := t.TempDir()
	writePC(t, current, "share", "tbb", tbbPC)

	l := NewPrefixLookup(old, "", current)
	assert.Equal(t, []string{filepath.Clean(old), filepath.Clean(current)}, l.Prefixes())

	pkg, err := l.Find(context.Background(), "TBB", "2021.11.0")
	require.NoError(t, err)
	assert.Equal(t, "TBB", pkg.Name)
	assert.Equal(t, "2022.0.0", pkg.Version)
	assert.Equal(t, filepath.Clean(current), pkg.Prefix)
	assert.Equal(t, []string{"-L/opt/tbb/lib", "-ltbb"}, pkg.Libs)

	_, err = l.Find(context.Background(), "TBB", "2023")
	var nf *NotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, "2022.0.0", nf.Found, "newest rejected version is reported")

	_, err = NewPrefixLookup(t.TempDir()).Find(context.Background(), "TBB", "")
	assert.True(t, IsNotFound(err))
}

func TestPrefixLookupCaches(t *testing.T) {
	prefix := t.TempDir()
	writePC(t, prefix, "lib", "tbb", tbbPC)
	l := NewPrefixLookup(prefix)

	_, err := l.Find(context.Background(), "TBB", "")
	require.NoError(t, err)

	// Replace the file on disk; the cached description is still served.
	writePC(t, prefix, "lib", "tbb", strings.Replace(tbbPC, "2022.0.0", "1.0", 1))
	pkg, err := l.Find(context.Background(), "TBB", "")
	require.NoError(t, err)
	assert.Equal(t, "2022.0.0", pkg.Version)
}

func TestPrefixLookupMalformed(t *testing.T) {
	prefix := t.TempDir()
	writePC(t, prefix, "lib", "tbb", "Name: tbb\n")

	_, err := NewPrefixLookup(prefix).Find(context.Background(), "TBB", "")
	require.Error(t, err)
	assert.False(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "missing Version")
}

func TestPrefixLookupCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewPrefixLookup(t.TempDir()).Find(ctx, "TBB", "")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestChainLookup(t *testing.T) {
	first := &CountingLookup{Next: StaticLookup{}}
	second := &CountingLookup{Next: NewFailingLookup(errors.New("disk on fire"))}
	third := &CountingLookup{Next: StaticLookup{"TBB": {Version: "2022.1"}}}

	pkg, err := ChainLookup{first, second, third}.Find(context.Background(), "TBB", "2021.11.0")
	require.NoError(t, err)
	assert.Equal(t, "2022.1", pkg.Version)
	assert.Equal(t, 1, first.Calls())
	assert.Equal(t, 1, second.Calls())
	assert.Equal(t, 1, third.Calls())

	_, err = ChainLookup{first, second}.Find(context.Background(), "TBB", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk on fire")

	_, err = ChainLookup{StaticLookup{}, StaticLookup{}}.Find(context.Background(), "TBB", "")
	assert.True(t, IsNotFound(err))
	assert.Contains(t, err.Error(), "2 locations")

	_, err = ChainLookup{}.Find(context.Background(), "TBB", "")
	assert.True(t, IsNotFound(err))
}

func TestChainLookupStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	canceling := LookupFunc(func(ctx context.Context, name, minVersion string) (Package, error) {
		cancel()
		return Package{}, ErrNotFound
	})
	after := &CountingLookup{Next: StaticLookup{"TBB": {Version: "2022"}}}

	_, err := ChainLookup{canceling, after}.Find(ctx, "TBB", "")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, after.Calls())
}
