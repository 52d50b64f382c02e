package level

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/udisondev/portalgo/internal/model"
	"github.com/udisondev/portalgo/internal/world"
)

// ErrMapNotFound is returned when a map has no entity file.
var ErrMapNotFound = errors.New("map not found")

// MapPath returns the entity file path of mapName.
func MapPath(mapName string) string {
	return "maps/" + mapName + ".yaml"
}

// EntityDef is one map entity: its class and its properties in file order.
type EntityDef struct {
	Classname string
	KeyValues []world.KeyValue
	Line      int
}

// MapFile is a parsed map entity file.
type MapFile struct {
	Bounds   float64
	Brushes  []world.Brush
	Entities []EntityDef
}

type brushDoc struct {
	Mins string `yaml:"mins"`
	Maxs string `yaml:"maxs"`
}

type mapDoc struct {
	Bounds   float64     `yaml:"bounds"`
	Brushes  []brushDoc  `yaml:"brushes"`
	Entities []yaml.Node `yaml:"entities"`
}

// LoadMapFile reads maps/<mapName>.yaml from fsys.
func LoadMapFile(fsys fs.FS, mapName string) (*MapFile, error) {
	path := MapPath(mapName)
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", mapName, ErrMapNotFound)
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	mf, err := ParseMapFile(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return mf, nil
}

// ParseMapFile decodes a map entity file. Entity properties keep their
// order; outputs are listed under a connections mapping, where a sequence
// value adds several connections to one output.
func ParseMapFile(data []byte) (*MapFile, error) {
	var doc mapDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding map: %w", err)
	}

	mf := &MapFile{Bounds: doc.Bounds}
	for i, b := range doc.Brushes {
		mins, err := model.ParseVector(b.Mins)
		if err != nil {
			return nil, fmt.Errorf("brush %d mins: %w", i, err)
		}
		maxs, err := model.ParseVector(b.Maxs)
		if err != nil {
			return nil, fmt.Errorf("brush %d maxs: %w", i, err)
		}
		mf.Brushes = append(mf.Brushes, world.Brush{Mins: mins, Maxs: maxs})
	}

	for i := range doc.Entities {
		def, err := parseEntity(&doc.Entities[i])
		if err != nil {
			return nil, err
		}
		mf.Entities = append(mf.Entities, def)
	}
	return mf, nil
}

func parseEntity(n *yaml.Node) (EntityDef, error) {
	def := EntityDef{Line: n.Line}
	if n.Kind != yaml.MappingNode {
		return def, fmt.Errorf("line %d: entity must be a mapping", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		switch {
		case key.Value == "connections":
			if err := parseConnections(val, &def); err != nil {
				return def, err
			}
		case val.Kind != yaml.ScalarNode:
			return def, fmt.Errorf("line %d: property %q must be a scalar", val.Line, key.Value)
		case strings.EqualFold(key.Value, "classname"):
			def.Classname = val.Value
		default:
			def.KeyValues = append(def.KeyValues, world.KeyValue{Key: key.Value, Value: val.Value})
		}
	}
	if def.Classname == "" {
		return def, fmt.Errorf("line %d: entity has no classname", n.Line)
	}
	return def, nil
}

func parseConnections(n *yaml.Node, def *EntityDef) error {
	if n.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: connections must be a mapping", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		key, val := n.Content[i], n.Content[i+1]
		switch val.Kind {
		case yaml.ScalarNode:
			def.KeyValues = append(def.KeyValues, world.KeyValue{Key: key.Value, Value: val.Value})
		case yaml.SequenceNode:
			for _, item := range val.Content {
				if item.Kind != yaml.ScalarNode {
					return fmt.Errorf("line %d: connection of %q must be a string", item.Line, key.Value)
				}
				def.KeyValues = append(def.KeyValues, world.KeyValue{Key: key.Value, Value: item.Value})
			}
		default:
			return fmt.Errorf("line %d: connection %q must be a string or a list", val.Line, key.Value)
		}
	}
	return nil
}
