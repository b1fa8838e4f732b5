package scene

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"strconv"
	"strings"

	"github.com/spaghettifunk/anima-scene/engine/assets"
	"github.com/spaghettifunk/anima-scene/engine/core"
	"github.com/spaghettifunk/anima-scene/engine/math"
)

const (
	renderSettingsEntryName = "renderSettings"
	worldEntryName          = "world"
	terrainChildName        = "Terrain"
)

// xmlNode is the untyped description tree kept between a fetch and Create.
type xmlNode struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Text     string     `xml:",chardata"`
	Children []*xmlNode `xml:",any"`
}

func decodeTree(data []byte) (*xmlNode, error) {
	root := &xmlNode{}
	dec := xml.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(root); err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrMalformedDescription, err)
	}
	return root, nil
}

func (n *xmlNode) attr(name string) (string, bool) {
	for _, a := range n.Attrs {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

func (n *xmlNode) child(tag string) *xmlNode {
	for _, c := range n.Children {
		if c.XMLName.Local == tag {
			return c
		}
	}
	return nil
}

// Entry is one top-level element of a scene description:
// *RenderSettingsEntry, *WorldEntry or *ObjectEntry.
type Entry interface {
	entryName() string
}

type RenderSettingsEntry struct {
	Settings RenderSettings
}

type SplatPrototype struct {
	Texture    string
	NormalMap  string
	TileSize   math.Vec2
	TileOffset math.Vec2
}

type TerrainEntry struct {
	Name             string
	Size             math.Vec3
	SplitSize        int
	SplatPrototypes  []SplatPrototype
	TreePrototypes   []string
	DetailPrototypes []string
}

type WorldObjectEntry struct {
	Name      string
	ID        string
	Asset     string
	Layer     string
	Transform math.Transform
}

type WorldEntry struct {
	Name    string
	Terrain TerrainEntry
	Objects []WorldObjectEntry
}

type ObjectEntry struct {
	Name        string
	ID          string
	Asset       string
	Layer       string
	LoadPri     uint16
	LoadLevel   assets.LoadLevel
	UnloadLevel assets.UnloadLevel
	Transform   math.Transform
}

func (*RenderSettingsEntry) entryName() string { return renderSettingsEntryName }
func (*WorldEntry) entryName() string          { return worldEntryName }
func (e *ObjectEntry) entryName() string       { return e.Name }

// Description is the validated form of a scene description, entries in
// document order.
type Description struct {
	Scene   string
	Entries []Entry
}

// ParseDescription decodes and validates a scene description document.
func ParseDescription(sceneName string, data []byte) (*Description, error) {
	root, err := decodeTree(data)
	if err != nil {
		return nil, err
	}
	return parseDescription(sceneName, root)
}

// entryParser tracks the element being parsed so errors can name it.
type entryParser struct {
	index int
	name  string
}

func (p *entryParser) errorf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: entry %d (%s): %s", core.ErrMalformedDescription, p.index, p.name, fmt.Sprintf(format, args...))
}

func parseDescription(sceneName string, root *xmlNode) (*Description, error) {
	desc := &Description{Scene: sceneName}
	for i, n := range root.Children {
		name, _ := n.attr("name")
		p := &entryParser{index: i, name: name}

		var (
			entry Entry
			err   error
		)
		switch name {
		case renderSettingsEntryName:
			entry, err = p.renderSettings(n)
		case worldEntryName:
			entry, err = p.world(n)
		default:
			entry, err = p.object(n)
		}
		if err != nil {
			return nil, err
		}
		desc.Entries = append(desc.Entries, entry)
	}
	return desc, nil
}

func (p *entryParser) requireAttr(n *xmlNode, name string) (string, error) {
	v, ok := n.attr(name)
	if !ok {
		return "", p.errorf("missing attribute %q", name)
	}
	return v, nil
}

func (p *entryParser) floatAttr(n *xmlNode, name string) (float32, error) {
	v, err := p.requireAttr(n, name)
	if err != nil {
		return 0, err
	}
	return p.parseFloat(name, v)
}

func (p *entryParser) uint16Attr(n *xmlNode, name string) (uint16, error) {
	v, err := p.requireAttr(n, name)
	if err != nil {
		return 0, err
	}
	u, err := strconv.ParseUint(strings.TrimSpace(v), 10, 16)
	if err != nil {
		return 0, p.errorf("attribute %q: %v", name, err)
	}
	return uint16(u), nil
}

func (p *entryParser) parseFloat(what, v string) (float32, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 32)
	if err != nil {
		return 0, p.errorf("%s: %v", what, err)
	}
	return float32(f), nil
}

func (p *entryParser) requireChild(n *xmlNode, path ...string) (*xmlNode, error) {
	cur := n
	for _, tag := range path {
		cur = cur.child(tag)
		if cur == nil {
			return nil, p.errorf("missing element %q", strings.Join(path, "/"))
		}
	}
	return cur, nil
}

func (p *entryParser) vec3(n *xmlNode, tag string) (math.Vec3, error) {
	var v math.Vec3
	node, err := p.requireChild(n, "transform", tag)
	if err != nil {
		return v, err
	}
	for _, axis := range []struct {
		tag string
		dst *float32
	}{{"x", &v.X}, {"y", &v.Y}, {"z", &v.Z}} {
		c, err := p.requireChild(node, axis.tag)
		if err != nil {
			return v, err
		}
		f, err := p.parseFloat("transform/"+tag+"/"+axis.tag, c.Text)
		if err != nil {
			return v, err
		}
		*axis.dst = f
	}
	return v, nil
}

func (p *entryParser) transform(n *xmlNode) (math.Transform, error) {
	pos, err := p.vec3(n, "position")
	if err != nil {
		return math.Transform{}, err
	}
	rot, err := p.vec3(n, "rotation")
	if err != nil {
		return math.Transform{}, err
	}
	sca, err := p.vec3(n, "scale")
	if err != nil {
		return math.Transform{}, err
	}
	return math.NewTransform(pos, rot, sca), nil
}

func (p *entryParser) object(n *xmlNode) (*ObjectEntry, error) {
	e := &ObjectEntry{Name: p.name}
	var err error
	if e.ID, err = p.requireAttr(n, "id"); err != nil {
		return nil, err
	}
	if e.Asset, err = p.requireAttr(n, "asset"); err != nil {
		return nil, err
	}
	if e.Layer, err = p.requireAttr(n, "layer"); err != nil {
		return nil, err
	}
	if e.LoadPri, err = p.uint16Attr(n, "loadPri"); err != nil {
		return nil, err
	}
	load, err := p.uint16Attr(n, "load")
	if err != nil {
		return nil, err
	}
	unload, err := p.uint16Attr(n, "unload")
	if err != nil {
		return nil, err
	}
	e.LoadLevel = assets.LoadLevelFromCode(load)
	e.UnloadLevel = assets.UnloadLevelFromCode(unload)
	if e.Transform, err = p.transform(n); err != nil {
		return nil, err
	}
	return e, nil
}

func (p *entryParser) renderSettings(n *xmlNode) (*RenderSettingsEntry, error) {
	var rs RenderSettings

	fog, err := p.requireAttr(n, "fog")
	if err != nil {
		return nil, err
	}
	rs.Fog = fog == "true"

	mode, err := p.requireAttr(n, "fogMode")
	if err != nil {
		return nil, err
	}
	code, err := strconv.Atoi(strings.TrimSpace(mode))
	if err != nil {
		return nil, p.errorf("attribute \"fogMode\": %v", err)
	}
	rs.FogMode = FogModeFromCode(code)

	floats := []struct {
		attr string
		dst  *float32
	}{
		{"fogStartDistance", &rs.FogStartDistance},
		{"fogEndDistance", &rs.FogEndDistance},
		{"fogDensity", &rs.FogDensity},
		{"haloStrength", &rs.HaloStrength},
		{"flareStrength", &rs.FlareStrength},
		{"fogColor_r", &rs.FogColor.R},
		{"fogColor_g", &rs.FogColor.G},
		{"fogColor_b", &rs.FogColor.B},
		{"fogColor_a", &rs.FogColor.A},
		{"ambientLight_r", &rs.AmbientLight.R},
		{"ambientLight_g", &rs.AmbientLight.G},
		{"ambientLight_b", &rs.AmbientLight.B},
		{"ambientLight_a", &rs.AmbientLight.A},
	}
	for _, f := range floats {
		if *f.dst, err = p.floatAttr(n, f.attr); err != nil {
			return nil, err
		}
	}

	if rs.SkyboxName, err = p.requireAttr(n, "skybox"); err != nil {
		return nil, err
	}
	return &RenderSettingsEntry{Settings: rs}, nil
}

func (p *entryParser) world(n *xmlNode) (*WorldEntry, error) {
	e := &WorldEntry{}
	var err error
	if e.Name, err = p.requireAttr(n, "wname"); err != nil {
		return nil, err
	}

	terrainFound := false
	for _, c := range n.Children {
		name, _ := c.attr("name")
		if name == terrainChildName {
			if terrainFound {
				return nil, p.errorf("more than one %q child", terrainChildName)
			}
			terrainFound = true
			if e.Terrain, err = p.terrain(c); err != nil {
				return nil, err
			}
			continue
		}

		obj := WorldObjectEntry{Name: name}
		if obj.ID, err = p.requireAttr(c, "id"); err != nil {
			return nil, err
		}
		if obj.Asset, err = p.requireAttr(c, "asset"); err != nil {
			return nil, err
		}
		if obj.Layer, err = p.requireAttr(c, "layer"); err != nil {
			return nil, err
		}
		if obj.Transform, err = p.transform(c); err != nil {
			return nil, err
		}
		e.Objects = append(e.Objects, obj)
	}
	if !terrainFound {
		return nil, p.errorf("missing %q child", terrainChildName)
	}
	return e, nil
}

func (p *entryParser) terrain(n *xmlNode) (TerrainEntry, error) {
	var t TerrainEntry

	name, err := p.requireChild(n, "name")
	if err != nil {
		return t, err
	}
	t.Name = strings.TrimSpace(name.Text)

	size, err := p.requireChild(n, "size")
	if err != nil {
		return t, err
	}
	parts := strings.Fields(size.Text)
	if len(parts) != 3 {
		return t, p.errorf("terrain size %q: want 3 values", size.Text)
	}
	for i, dst := range []*float32{&t.Size.X, &t.Size.Y, &t.Size.Z} {
		if *dst, err = p.parseFloat("terrain size", parts[i]); err != nil {
			return t, err
		}
	}

	split, err := p.requireChild(n, "splitSize")
	if err != nil {
		return t, err
	}
	if t.SplitSize, err = strconv.Atoi(strings.TrimSpace(split.Text)); err != nil {
		return t, p.errorf("terrain splitSize: %v", err)
	}
	if t.SplitSize < 1 {
		return t, p.errorf("terrain splitSize %d: must be positive", t.SplitSize)
	}

	splats, err := p.requireChild(n, "splatprotos")
	if err != nil {
		return t, err
	}
	for _, c := range splats.Children {
		var sp SplatPrototype
		if sp.Texture, err = p.requireAttr(c, "texture"); err != nil {
			return t, err
		}
		if sp.NormalMap, err = p.requireAttr(c, "normalMap"); err != nil {
			return t, err
		}
		for _, f := range []struct {
			attr string
			dst  *float32
		}{
			{"tileSizeX", &sp.TileSize.X},
			{"tileSizeY", &sp.TileSize.Y},
			{"tileOffsetX", &sp.TileOffset.X},
			{"tileOffsetY", &sp.TileOffset.Y},
		} {
			if *f.dst, err = p.floatAttr(c, f.attr); err != nil {
				return t, err
			}
		}
		t.SplatPrototypes = append(t.SplatPrototypes, sp)
	}

	if t.TreePrototypes, err = p.prefabs(n, "treePrototypes"); err != nil {
		return t, err
	}
	if t.DetailPrototypes, err = p.prefabs(n, "detailPrototypes"); err != nil {
		return t, err
	}
	return t, nil
}

func (p *entryParser) prefabs(n *xmlNode, tag string) ([]string, error) {
	list, err := p.requireChild(n, tag)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, c := range list.Children {
		prefab, err := p.requireAttr(c, "prefab")
		if err != nil {
			return nil, err
		}
		out = append(out, prefab)
	}
	return out, nil
}
