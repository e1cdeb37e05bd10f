package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scratchkit/skw/internal/skwerr"
)

func TestOrder_SimpleChain(t *testing.T) {
	discovery := []string{"binutils", "gcc"}
	deps := map[string][]string{
		"gcc": {"binutils"},
	}
	order, err := Order(discovery, deps, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"binutils", "gcc"}, order)
}

func TestOrder_CycleFatalWithoutGroup(t *testing.T) {
	discovery := []string{"gcc", "glibc"}
	deps := map[string][]string{
		"gcc":   {"glibc"},
		"glibc": {"gcc"},
	}
	_, err := Order(discovery, deps, nil)
	require.Error(t, err)
	assert.True(t, skwerr.Is(err, skwerr.UnhandledCycle))
}

func TestOrder_CycleResolvedByGroup(t *testing.T) {
	discovery := []string{"gcc-pass1", "glibc", "gcc-pass2"}
	deps := map[string][]string{
		"gcc-pass1": {"glibc"},
		"glibc":     {"gcc-pass2"},
		"gcc-pass2": {"gcc-pass1"},
	}
	groups := []Group{{Packages: []string{"gcc-pass1", "glibc", "gcc-pass2"}}}
	order, err := Order(discovery, deps, groups)
	require.NoError(t, err)
	assert.Equal(t, []string{"gcc-pass1", "glibc", "gcc-pass2"}, order)
}

func TestOrder_DiscoveryOrderBreaksTies(t *testing.T) {
	discovery := []string{"c", "b", "a"}
	deps := map[string][]string{} // no dependencies at all
	order, err := Order(discovery, deps, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, order)
}

func TestOrder_AnchorAfterOverridesDiscoveryIndex(t *testing.T) {
	// Without an anchor, the gcc-pass1/glibc/gcc-pass2 group would be placed
	// by its minimum discovery index, ahead of "zlib" (discovered later).
	// An "after:zlib" anchor should place it right after zlib instead.
	discovery := []string{"gcc-pass1", "glibc", "gcc-pass2", "zlib"}
	deps := map[string][]string{
		"gcc-pass1": {"glibc"},
		"glibc":     {"gcc-pass2"},
		"gcc-pass2": {"gcc-pass1"},
	}
	groups := []Group{{Packages: []string{"gcc-pass1", "glibc", "gcc-pass2"}, Anchor: "after:zlib"}}
	order, err := Order(discovery, deps, groups)
	require.NoError(t, err)
	assert.Equal(t, []string{"zlib", "gcc-pass1", "glibc", "gcc-pass2"}, order)
}

func TestOrder_AnchorFirstPlacesGroupAheadOfEarlierDiscovery(t *testing.T) {
	discovery := []string{"zlib", "gcc-pass1", "glibc", "gcc-pass2"}
	deps := map[string][]string{
		"gcc-pass1": {"glibc"},
		"glibc":     {"gcc-pass2"},
		"gcc-pass2": {"gcc-pass1"},
	}
	groups := []Group{{Packages: []string{"gcc-pass1", "glibc", "gcc-pass2"}, Anchor: "first"}}
	order, err := Order(discovery, deps, groups)
	require.NoError(t, err)
	assert.Equal(t, []string{"gcc-pass1", "glibc", "gcc-pass2", "zlib"}, order)
}

func TestOrder_UnknownAnchorTargetFallsBackToDiscoveryIndex(t *testing.T) {
	discovery := []string{"gcc-pass1", "glibc", "gcc-pass2", "zlib"}
	deps := map[string][]string{
		"gcc-pass1": {"glibc"},
		"glibc":     {"gcc-pass2"},
		"gcc-pass2": {"gcc-pass1"},
	}
	groups := []Group{{Packages: []string{"gcc-pass1", "glibc", "gcc-pass2"}, Anchor: "after:nonexistent"}}
	order, err := Order(discovery, deps, groups)
	require.NoError(t, err)
	assert.Equal(t, []string{"gcc-pass1", "glibc", "gcc-pass2", "zlib"}, order)
}
