package assets

import (
	"golang.org/x/exp/slices"

	"github.com/spaghettifunk/anima-scene/engine/core"
)

// BundleReleaser frees the memory held by a loaded bundle.
type BundleReleaser interface {
	Unload(b *Bundle) error
}

/**
 * @brief AssetCache is the registry of asset records keyed by source. One
 * instance is owned by the application root and shared by every scene; it
 * holds exactly one record per source until the record is evicted.
 */
type AssetCache struct {
	assets   map[string]*Asset
	releaser BundleReleaser
}

func NewAssetCache(releaser BundleReleaser) *AssetCache {
	return &AssetCache{
		assets:   make(map[string]*Asset),
		releaser: releaser,
	}
}

// FindOrCreate returns the record for source, inserting a new one when
// absent. created reports whether the record was inserted by this call.
func (ac *AssetCache) FindOrCreate(source, layer string) (asset *Asset, created bool) {
	if a, ok := ac.assets[source]; ok {
		return a, false
	}
	a := NewAsset(source)
	if layer != "" {
		a.LayerName = layer
	}
	ac.assets[source] = a
	core.LogDebug("assetsCache:: new %s, layer=%s", source, a.LayerName)
	return a, true
}

func (ac *AssetCache) Lookup(source string) (*Asset, bool) {
	a, ok := ac.assets[source]
	return a, ok
}

// Keys is a sorted snapshot of the sources currently cached.
func (ac *AssetCache) Keys() []string {
	keys := make([]string, 0, len(ac.assets))
	for k := range ac.assets {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// All returns the cached records ordered by source.
func (ac *AssetCache) All() []*Asset {
	out := make([]*Asset, 0, len(ac.assets))
	for _, k := range ac.Keys() {
		out = append(out, ac.assets[k])
	}
	return out
}

func (ac *AssetCache) Len() int {
	return len(ac.assets)
}

/**
 * @brief Removes every record named in candidates unless its unload level
 * protects it or it was created by sceneName. A loaded bundle is released
 * before its record is dropped.
 * @param candidates keys cached before the scene parse that the new scene did not reference.
 * @returns the evicted sources.
 */
func (ac *AssetCache) EvictUnreferencedExcept(candidates []string, sceneName string) []string {
	var evicted []string
	for _, key := range candidates {
		a, ok := ac.assets[key]
		if !ok {
			continue
		}
		if a.UnloadLevel.Protected() {
			core.LogDebug("assetBundle(%s) is persisted!", a.Source)
			continue
		}
		if a.CreateAtScene == sceneName {
			continue
		}

		if a.Bundle != nil {
			if ac.releaser != nil {
				if err := ac.releaser.Unload(a.Bundle); err != nil {
					core.LogError("failed to release assetBundle(%s): %s", a.Source, err)
				}
			}
			a.Bundle = nil
			core.LogDebug("unload assetBundle(%s) successfully!", a.Source)
		} else {
			core.LogDebug("remove assetBundle(%s) successfully!", a.Source)
		}

		delete(ac.assets, key)
		evicted = append(evicted, key)
	}
	return evicted
}
