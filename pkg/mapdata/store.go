package mapdata

// MapData is the geometry store for one loaded map.
//
// Entities, brushes and faces are filled by the parser. EntityGeo is filled
// by the geometry generator and is parallel-indexed with Entities.
type MapData struct {
	Entities         []Entity
	EntityGeo        []EntityGeometry
	Textures         []TextureData
	WorldspawnLayers []WorldspawnLayer
}

// New returns an empty store.
func New() *MapData {
	return &MapData{}
}

// FindWorldspawnLayer returns the index of the layer using textureIdx, or -1.
func (m *MapData) FindWorldspawnLayer(textureIdx int) int {
	for i, l := range m.WorldspawnLayers {
		if l.TextureIdx == textureIdx {
			return i
		}
	}
	return -1
}

// FindTexture returns the index of the named texture, or -1.
func (m *MapData) FindTexture(name string) int {
	for i, t := range m.Textures {
		if t.Name == name {
			return i
		}
	}
	return -1
}

// RegisterTexture returns the index of the named texture, adding it on first use.
func (m *MapData) RegisterTexture(name string) int {
	if idx := m.FindTexture(name); idx != -1 {
		return idx
	}
	m.Textures = append(m.Textures, TextureData{Name: name})
	return len(m.Textures) - 1
}

// SetTextureSize sets the pixel size of a registered texture.
// Unknown names are ignored.
func (m *MapData) SetTextureSize(name string, width, height int) {
	idx := m.FindTexture(name)
	if idx == -1 {
		return
	}
	m.Textures[idx] = TextureData{Name: name, Width: width, Height: height}
}

// SetSpawnTypeByClassname sets the spawn type of every entity with the given classname.
func (m *MapData) SetSpawnTypeByClassname(classname string, spawnType SpawnType) {
	for i := range m.Entities {
		if c, ok := m.Entities[i].Classname(); ok && c == classname {
			m.Entities[i].SpawnType = spawnType
		}
	}
}

// TextureNames returns the registered texture names in index order.
func (m *MapData) TextureNames() []string {
	names := make([]string, len(m.Textures))
	for i, t := range m.Textures {
		names[i] = t.Name
	}
	return names
}

// BrushHasTexture reports whether any face of the brush uses textureIdx.
func (m *MapData) BrushHasTexture(entityIdx, brushIdx, textureIdx int) bool {
	for _, f := range m.Entities[entityIdx].Brushes[brushIdx].Faces {
		if f.TextureIdx == textureIdx {
			return true
		}
	}
	return false
}

// IsLayerBrush reports whether any face of the brush carries a worldspawn layer texture.
func (m *MapData) IsLayerBrush(entityIdx, brushIdx int) bool {
	for _, f := range m.Entities[entityIdx].Brushes[brushIdx].Faces {
		if m.FindWorldspawnLayer(f.TextureIdx) != -1 {
			return true
		}
	}
	return false
}

// FaceCount returns the total number of faces in the store.
func (m *MapData) FaceCount() int {
	n := 0
	for _, e := range m.Entities {
		for _, b := range e.Brushes {
			n += len(b.Faces)
		}
	}
	return n
}

// BrushCount returns the total number of brushes in the store.
func (m *MapData) BrushCount() int {
	n := 0
	for _, e := range m.Entities {
		n += len(e.Brushes)
	}
	return n
}

// Reset clears the store.
func (m *MapData) Reset() {
	m.Entities = nil
	m.EntityGeo = nil
	m.Textures = nil
	m.WorldspawnLayers = nil
}
