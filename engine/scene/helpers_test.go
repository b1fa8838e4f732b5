package scene

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/spaghettifunk/anima-scene/engine/assets"
	"github.com/spaghettifunk/anima-scene/engine/core"
	"github.com/spaghettifunk/anima-scene/engine/math"
)

func init() {
	core.SetLogOutput(io.Discard)
}

// recordingRenderer hands out string game objects and records every call.
type recordingRenderer struct {
	settings     RenderSettings
	settingCalls int
	instantiated []string
	destroyed    []string
	failures     map[string]error
}

func newRecordingRenderer() *recordingRenderer {
	return &recordingRenderer{failures: make(map[string]error)}
}

func (r *recordingRenderer) SetFogEnabled(enabled bool) {
	r.settings.Fog = enabled
	r.settingCalls++
}
func (r *recordingRenderer) SetFogMode(mode FogMode)      { r.settings.FogMode = mode }
func (r *recordingRenderer) SetFogColor(color math.Color) { r.settings.FogColor = color }
func (r *recordingRenderer) SetFogDensity(density float32) {
	r.settings.FogDensity = density
}
func (r *recordingRenderer) SetFogStartDistance(distance float32) {
	r.settings.FogStartDistance = distance
}
func (r *recordingRenderer) SetFogEndDistance(distance float32) {
	r.settings.FogEndDistance = distance
}
func (r *recordingRenderer) SetAmbientLight(color math.Color) { r.settings.AmbientLight = color }
func (r *recordingRenderer) SetHaloStrength(strength float32) { r.settings.HaloStrength = strength }
func (r *recordingRenderer) SetFlareStrength(strength float32) {
	r.settings.FlareStrength = strength
}

func (r *recordingRenderer) Instantiate(obj *SceneObject) (GameObject, error) {
	if err, ok := r.failures[obj.IDKey]; ok {
		return nil, err
	}
	r.instantiated = append(r.instantiated, obj.IDKey)
	return "go:" + obj.IDKey, nil
}

func (r *recordingRenderer) Destroy(gameObject GameObject) {
	r.destroyed = append(r.destroyed, gameObject.(string))
}

// memFetcher serves descriptions from memory. A non-nil gate holds every
// fetch until it is closed.
type memFetcher struct {
	mutex sync.Mutex
	docs  map[string]string
	err   error
	gate  chan struct{}
	calls int
}

func newMemFetcher() *memFetcher {
	return &memFetcher{docs: make(map[string]string)}
}

func (mf *memFetcher) Fetch(ctx context.Context, sceneName string) ([]byte, error) {
	if mf.gate != nil {
		select {
		case <-mf.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	mf.mutex.Lock()
	defer mf.mutex.Unlock()
	mf.calls++
	if mf.err != nil {
		return nil, mf.err
	}
	doc, ok := mf.docs[sceneName]
	if !ok {
		return nil, errors.New("404 not found")
	}
	return []byte(doc), nil
}

func (mf *memFetcher) fetchCalls() int {
	mf.mutex.Lock()
	defer mf.mutex.Unlock()
	return mf.calls
}

// recordingQueue stands in for the load pool without loading anything.
type recordingQueue struct {
	added   []string
	starts  int
	clears  []bool
	startFn func() error
}

func (q *recordingQueue) AddLoad(a *assets.Asset) bool {
	q.added = append(q.added, a.Source)
	return true
}

func (q *recordingQueue) Start() error {
	q.starts++
	if q.startFn != nil {
		return q.startFn()
	}
	return nil
}

func (q *recordingQueue) Clear(fireCallbacks bool) {
	q.clears = append(q.clears, fireCallbacks)
}

type fixture struct {
	cache    *assets.AssetCache
	queue    *recordingQueue
	renderer *recordingRenderer
	fetcher  *memFetcher
	events   *core.EventSystem
	progress *core.Progress
}

func newFixture() *fixture {
	return &fixture{
		cache:    assets.NewAssetCache(nil),
		queue:    &recordingQueue{},
		renderer: newRecordingRenderer(),
		fetcher:  newMemFetcher(),
		events:   core.NewEventSystem(),
		progress: core.NewProgress(),
	}
}

func (f *fixture) config() Config {
	return Config{
		Cache:    f.cache,
		Queue:    f.queue,
		Renderer: f.renderer,
		Fetcher:  f.fetcher,
		Events:   f.events,
		Progress: f.progress,
	}
}

// loadedScene fetches and creates name from doc.
func (f *fixture) loadedScene(name, doc string) (*Scene, error) {
	f.fetcher.docs[name] = doc
	s := New(name, f.config())
	if err := s.LoadScene(context.Background(), true, false); err != nil {
		return s, err
	}
	return s, s.AwaitDescription(context.Background())
}

func description(entries ...string) string {
	return "<scene>" + strings.Join(entries, "") + "</scene>"
}

func transformXML(x, y, z float32) string {
	return fmt.Sprintf(
		"<transform><position><x>%g</x><y>%g</y><z>%g</z></position>"+
			"<rotation><x>0</x><y>0</y><z>0</z></rotation>"+
			"<scale><x>1</x><y>1</y><z>1</z></scale></transform>", x, y, z)
}

func objectXML(name, id, asset string, loadPri, load, unload int) string {
	return fmt.Sprintf(`<entry name="%s" id="%s" asset="%s" layer="Default" loadPri="%d" load="%d" unload="%d">%s</entry>`,
		name, id, asset, loadPri, load, unload, transformXML(0, 0, 0))
}

func renderSettingsXML(fogMode, skybox string) string {
	return fmt.Sprintf(`<entry name="renderSettings" fog="true" fogMode="%s" fogStartDistance="10" fogEndDistance="300" fogDensity="0.5"`+
		` haloStrength="0.3" flareStrength="0.7" fogColor_r="0.1" fogColor_g="0.2" fogColor_b="0.3" fogColor_a="1"`+
		` ambientLight_r="0.4" ambientLight_g="0.4" ambientLight_b="0.4" ambientLight_a="1" skybox="%s"/>`, fogMode, skybox)
}

func worldXML(objects ...string) string {
	terrain := `<entry name="Terrain"><name>ground</name><size>30 5 30</size><splitSize>3</splitSize>` +
		`<splatprotos><splat texture="grass.png" normalMap="grass_n.png" tileSizeX="4" tileSizeY="4" tileOffsetX="0" tileOffsetY="0"/></splatprotos>` +
		`<treePrototypes><tree prefab="pine.prefab"/></treePrototypes>` +
		`<detailPrototypes><detail prefab="bush.prefab"/></detailPrototypes></entry>`
	return `<entry name="world" wname="island">` + terrain + strings.Join(objects, "") + `</entry>`
}

func worldObjectXML(name, id, asset string, x, z float32) string {
	return fmt.Sprintf(`<entry name="%s" id="%s" asset="%s" layer="Default">%s</entry>`,
		name, id, asset, transformXML(x, 0, z))
}
