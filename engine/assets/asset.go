package assets

// LoadLevel is the phase at which an asset should start loading relative to
// scene entry.
type LoadLevel uint16

const (
	LoadLevelIdle LoadLevel = iota
	LoadLevelEnterBefore
	LoadLevelEnterAfter
	LoadLevelScriptDynamic
)

// LoadLevelFromCode maps the numeric code used by scene descriptions.
func LoadLevelFromCode(code uint16) LoadLevel {
	switch code {
	case 1:
		return LoadLevelEnterBefore
	case 2:
		return LoadLevelEnterAfter
	case 3:
		return LoadLevelScriptDynamic
	default:
		return LoadLevelIdle
	}
}

func (l LoadLevel) String() string {
	switch l {
	case LoadLevelEnterBefore:
		return "ENTER_BEFORE"
	case LoadLevelEnterAfter:
		return "ENTER_AFTER"
	case LoadLevelScriptDynamic:
		return "SCRIPT_DYNAMIC"
	default:
		return "IDLE"
	}
}

// UnloadLevel governs whether an asset, and the objects built from it,
// survive a scene change.
type UnloadLevel uint16

const (
	UnloadLevelNormal UnloadLevel = iota
	// the asset is never evicted from the cache
	UnloadLevelForbid
	// the asset is never evicted and its objects survive Unload
	UnloadLevelForbidGameObject
)

// UnloadLevelFromCode maps the numeric code used by scene descriptions.
func UnloadLevelFromCode(code uint16) UnloadLevel {
	switch code {
	case 1:
		return UnloadLevelForbid
	case 2:
		return UnloadLevelForbidGameObject
	default:
		return UnloadLevelNormal
	}
}

func (u UnloadLevel) String() string {
	switch u {
	case UnloadLevelForbid:
		return "FORBID"
	case UnloadLevelForbidGameObject:
		return "FORBID_GAMEOBJECT"
	default:
		return "NORMAL"
	}
}

// Protected reports whether records with this policy are exempt from eviction.
func (u UnloadLevel) Protected() bool {
	return u == UnloadLevelForbid || u == UnloadLevelForbidGameObject
}

type AssetType int

const (
	AssetTypeNormal AssetType = iota
	AssetTypeWorldObj
	AssetTypeSkybox
	AssetTypeTerrain
)

const DefaultLayer = "Default"

// Bundle is the loaded payload of an asset. Its content is opaque to the
// scene code.
type Bundle struct {
	Source      string
	ContentType string
	Data        []byte
}

/**
 * @brief Asset is one loadable unit shared by every scene that references
 * its source. Only the goroutine driving the scenes mutates it.
 */
type Asset struct {
	Source    string
	LayerName string

	LoadLevel   LoadLevel
	UnloadLevel UnloadLevel
	/** @brief Ordering within a load level; lower loads sooner. */
	LoadPri uint16
	Type    AssetType

	Loading bool
	Bundle  *Bundle
	/** @brief Name of the scene that first created the record. */
	CreateAtScene string

	refs map[string]struct{}
}

func NewAsset(source string) *Asset {
	return &Asset{
		Source:    source,
		LayerName: DefaultLayer,
		refs:      make(map[string]struct{}),
	}
}

func (a *Asset) IsLoaded() bool {
	return a.Bundle != nil
}

// AddRef records key as an owner. Adding the same key twice is a no-op.
func (a *Asset) AddRef(key string) {
	a.refs[key] = struct{}{}
}

func (a *Asset) RemoveRef(key string) {
	delete(a.refs, key)
}

func (a *Asset) HasRef(key string) bool {
	_, ok := a.refs[key]
	return ok
}

func (a *Asset) RefCount() int {
	return len(a.refs)
}
