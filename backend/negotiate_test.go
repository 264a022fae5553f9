package backend

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albertocavalcante/go-simdplan/internal/diag"
	"github.com/albertocavalcante/go-simdplan/platform"
)

func tbbSpec() Spec {
	return Spec{
		Name:        "TBB",
		MinVersion:  "2021.11.0",
		Target:      "TBB::tbb",
		Sources:     []string{"blake3_tbb.cpp"},
		Definitions: []string{"BLAKE3_USE_TBB"},
		CXXStandard: 20,
		PrivateOptions: []OptionSet{
			{Frontend: platform.FrontendGNU, Options: []string{"-fno-exceptions", "-fno-rtti"}},
			{Frontend: platform.FrontendMSVC, Options: []string{"/EHs-c-", "/D_HAS_EXCEPTIONS=0", "/GR-"}},
		},
		Stdlibs: []StdlibHint{
			{Name: "libc++", Link: "c++"},
			{Name: "libstdc++", Link: "stdc++", Default: true},
		},
		PkgConfigName: "tbb",
	}
}

var installed = StaticLookup{"TBB": {Version: "2022.0.0"}}

func newTestNegotiator(t *testing.T, lookup Lookup) (*Negotiator, *diag.Recorder) {
	t.Helper()
	rec := &diag.Recorder{}
	n, err := NewNegotiator(tbbSpec(), lookup, WithDiagnostics(rec))
	require.NoError(t, err)
	return n, rec
}

func TestNegotiateNotRequested(t *testing.T) {
	for _, lookup := range []Lookup{installed, StaticLookup{}, NewFailingLookup(nil)} {
		counting := &CountingLookup{Next: lookup}
		n, rec := newTestNegotiator(t, counting)

		for _, allowFetch := range []bool{false, true} {
			d, err := n.Negotiate(context.Background(), Request{AllowFetch: allowFetch}, Env{Frontend: platform.FrontendGNU})
			require.NoError(t, err)
			assert.False(t, d.Enabled)
			assert.Equal(t, Disabled, d.Status)
			assert.Equal(t, Decision{Status: Disabled}, d)
		}
		assert.Zero(t, counting.Calls(), "lookup must not be consulted")
		assert.Empty(t, rec.Lines(), "no diagnostics")
	}
}

func TestNegotiateNotFound(t *testing.T) {
	n, rec := newTestNegotiator(t, StaticLookup{})

	d, err := n.Negotiate(context.Background(), Request{Requested: true}, Env{Frontend: platform.FrontendGNU})
	require.NoError(t, err)
	assert.False(t, d.Enabled)
	assert.Equal(t, Disabled, d.Status)
	assert.Empty(t, d.LinkTarget)
	require.Len(t, d.Warnings, 1)

	assert.Equal(t, 1, rec.Count(diag.Warn), "exactly one warning")
	assert.Len(t, rec.Lines(), 1)
	assert.Contains(t, rec.Lines()[0].Text, "TBB >= 2021.11.0")
}

func TestNegotiateTooOld(t *testing.T) {
	n, rec := newTestNegotiator(t, StaticLookup{"TBB": {Version: "2021.5.0"}})

	d, err := n.Negotiate(context.Background(), Request{Requested: true}, Env{})
	require.NoError(t, err)
	assert.False(t, d.Enabled)
	assert.Equal(t, 1, rec.Count(diag.Warn))
	assert.Contains(t, d.Warnings[0], "2021.5.0 is too old")
}

func TestNegotiateFetch(t *testing.T) {
	counting := &CountingLookup{}
	n, rec := newTestNegotiator(t, counting)

	d, err := n.Negotiate(context.Background(), Request{Requested: true, AllowFetch: true}, Env{Frontend: platform.FrontendGNU})
	require.NoError(t, err)
	assert.Equal(t, FetchRequested, d.Status)
	assert.False(t, d.Enabled)
	assert.Zero(t, rec.Count(diag.Warn))
	assert.Equal(t, 1, rec.Count(diag.Info))
	assert.Equal(t, []string{"TBB>=2021.11.0"}, counting.Requests())

	fetched, err := n.AfterFetch(Package{Version: "2022.0.0"}, Env{Frontend: platform.FrontendGNU})
	require.NoError(t, err)
	assert.Equal(t, Linked, fetched.Status)
	assert.Equal(t, "TBB::tbb", fetched.LinkTarget)
	assert.Equal(t, "2022.0.0", fetched.ResolvedVersion)

	_, err = n.AfterFetch(Package{Version: "2020.3"}, Env{})
	assert.True(t, IsNotFound(err))
}

func TestNegotiateFound(t *testing.T) {
	tests := []struct {
		name        string
		env         Env
		wantOptions []string
		wantHint    string
	}{
		{
			name:        "gnu with libstdc++",
			env:         Env{Frontend: platform.FrontendGNU, Stdlib: "libstdc++"},
			wantOptions: []string{"-fno-exceptions", "-fno-rtti"},
			wantHint:    "stdc++",
		},
		{
			name:        "clang with libc++",
			env:         Env{Frontend: platform.FrontendGNU, Stdlib: "libc++"},
			wantOptions: []string{"-fno-exceptions", "-fno-rtti"},
			wantHint:    "c++",
		},
		{
			name:        "unknown stdlib uses the default",
			env:         Env{Frontend: platform.FrontendGNU},
			wantOptions: []string{"-fno-exceptions", "-fno-rtti"},
			wantHint:    "stdc++",
		},
		{
			name:        "msvc",
			env:         Env{Frontend: platform.FrontendMSVC, Stdlib: "libc++"},
			wantOptions: []string{"/EHs-c-", "/D_HAS_EXCEPTIONS=0", "/GR-"},
			wantHint:    "",
		},
		{
			name:     "other frontend gets no private options",
			env:      Env{Frontend: platform.FrontendOther},
			wantHint: "stdc++",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n, rec := newTestNegotiator(t, installed)
			d, err := n.Negotiate(context.Background(), Request{Requested: true}, tt.env)
			require.NoError(t, err)

			assert.True(t, d.Enabled)
			assert.Equal(t, Linked, d.Status)
			assert.NotEmpty(t, d.LinkTarget)
			assert.Equal(t, "TBB::tbb", d.LinkTarget)
			assert.Equal(t, "2022.0.0", d.ResolvedVersion)
			assert.Equal(t, []string{"BLAKE3_USE_TBB"}, d.ExtraDefinitions)
			assert.Equal(t, 20, d.CXXStandard)
			require.Len(t, d.ExtraSources, 1)
			assert.Equal(t, "blake3_tbb.cpp", d.ExtraSources[0].File)
			assert.Equal(t, tt.wantOptions, d.ExtraSources[0].Options)
			assert.Equal(t, tt.wantHint, d.StdlibLinkHint)
			assert.Empty(t, rec.Lines())
		})
	}
}

func TestNegotiatePackageTarget(t *testing.T) {
	n, _ := newTestNegotiator(t, StaticLookup{"TBB": {Version: "2021.11", Target: "tbb::static"}})
	d, err := n.Negotiate(context.Background(), Request{Requested: true}, Env{})
	require.NoError(t, err)
	assert.Equal(t, "tbb::static", d.LinkTarget)
}

func TestNegotiateLookupErrorDegrades(t *testing.T) {
	n, rec := newTestNegotiator(t, NewFailingLookup(errors.New("permission denied")))

	d, err := n.Negotiate(context.Background(), Request{Requested: true}, Env{})
	require.NoError(t, err)
	assert.False(t, d.Enabled)
	assert.Equal(t, 1, rec.Count(diag.Warn))
	assert.Contains(t, d.Warnings[0], "permission denied")
}

func TestNegotiateContextCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	n, rec := newTestNegotiator(t, installed)
	_, err := n.Negotiate(ctx, Request{Requested: true}, Env{})
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.Lines())

	n, _ = newTestNegotiator(t, NewFailingLookup(context.DeadlineExceeded))
	_, err = n.Negotiate(context.Background(), Request{Requested: true}, Env{})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPackages(t *testing.T) {
	n, _ := newTestNegotiator(t, installed)
	d, err := n.Negotiate(context.Background(), Request{Requested: true}, Env{Frontend: platform.FrontendGNU, Stdlib: "libc++"})
	require.NoError(t, err)

	info := n.Packages(d)
	assert.Equal(t, []string{"tbb >= 2022.0.0"}, info.Requires)
	assert.Equal(t, []string{"-DBLAKE3_USE_TBB"}, info.Cflags)
	assert.Equal(t, []string{"-lc++"}, info.Libs)

	assert.Equal(t, PackageInfo{}, n.Packages(Decision{Status: Disabled}))
}

func TestNewNegotiatorValidation(t *testing.T) {
	_, err := NewNegotiator(Spec{}, installed)
	assert.Error(t, err)

	_, err = NewNegotiator(tbbSpec(), nil)
	assert.Error(t, err)

	spec := tbbSpec()
	spec.Stdlibs = append(spec.Stdlibs, StdlibHint{Name: "other", Link: "x", Default: true})
	_, err = NewNegotiator(spec, installed)
	assert.ErrorContains(t, err, "default stdlib")
}

func TestStatusText(t *testing.T) {
	for _, s := range []Status{Disabled, Linked, FetchRequested} {
		text, err := s.MarshalText()
		require.NoError(t, err)
		var got Status
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, s, got)
	}
}
