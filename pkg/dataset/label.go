package dataset

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/glesirok/selexpr/pkg/index"
	"gopkg.in/yaml.v3"
)

// Label 是 YAML 中一个标签对应的索引，支持以下写法：
//
//	Sr: 0                               # 单个索引
//	p: "1:4"                            # 切片 start:stop[:step]
//	O: [2, 3, 4]                        # 索引列表
//	d: {start: 4, stop: 9}              # 切片
//	spin: {values: {"1": 0, "2": "1:"}} # 取值表，用 spin=1 选择
type Label struct {
	Spec index.Spec
}

// UnmarshalYAML 根据节点类型解析索引
func (l *Label) UnmarshalYAML(node *yaml.Node) error {
	spec, err := decodeSpec(node)
	if err != nil {
		return fmt.Errorf("line %d: %w", node.Line, err)
	}
	l.Spec = spec
	return nil
}

func decodeSpec(node *yaml.Node) (index.Spec, error) {
	switch node.Kind {
	case yaml.ScalarNode:
		return decodeScalar(node)

	case yaml.SequenceNode:
		var indices []int
		if err := node.Decode(&indices); err != nil {
			return index.Spec{}, fmt.Errorf("decode index list: %w", err)
		}
		return index.List(indices...), nil

	case yaml.MappingNode:
		if valuesNode := mappingValue(node, "values"); valuesNode != nil {
			return decodeValues(valuesNode)
		}
		var slice struct {
			Start *int `yaml:"start"`
			Stop  *int `yaml:"stop"`
			Step  *int `yaml:"step"`
		}
		if err := node.Decode(&slice); err != nil {
			return index.Spec{}, fmt.Errorf("decode slice: %w", err)
		}
		step := 1
		if slice.Step != nil {
			step = *slice.Step
		}
		return index.Slice(slice.Start, slice.Stop, step), nil

	case yaml.AliasNode:
		return decodeSpec(node.Alias)

	default:
		return index.Spec{}, fmt.Errorf("unsupported node kind for an index")
	}
}

func decodeScalar(node *yaml.Node) (index.Spec, error) {
	if node.Tag == "!!int" {
		var i int
		if err := node.Decode(&i); err != nil {
			return index.Spec{}, fmt.Errorf("decode index: %w", err)
		}
		return index.Index(i), nil
	}

	if !strings.Contains(node.Value, ":") {
		return index.Spec{}, fmt.Errorf("invalid index %q, expected an integer or start:stop[:step]", node.Value)
	}
	return parseSlice(node.Value)
}

// parseSlice 解析 "start:stop[:step]"，省略的部分取默认值
// 例如: "1:4" -> [1, 4)，":" -> 整个轴，"::2" -> 每隔一个
func parseSlice(text string) (index.Spec, error) {
	fields := strings.Split(text, ":")
	if len(fields) > 3 {
		return index.Spec{}, fmt.Errorf("invalid slice %q", text)
	}

	bounds := make([]*int, 3)
	for i, field := range fields {
		field = strings.TrimSpace(field)
		if field == "" {
			continue
		}
		n, err := strconv.Atoi(field)
		if err != nil {
			return index.Spec{}, fmt.Errorf("invalid slice %q: %w", text, err)
		}
		bounds[i] = &n
	}

	step := 1
	if bounds[2] != nil {
		step = *bounds[2]
	}
	return index.Slice(bounds[0], bounds[1], step), nil
}

func decodeValues(node *yaml.Node) (index.Spec, error) {
	if node.Kind != yaml.MappingNode {
		return index.Spec{}, fmt.Errorf("values must be a mapping")
	}
	values := make(map[string]index.Spec, len(node.Content)/2)
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		spec, err := decodeSpec(node.Content[i+1])
		if err != nil {
			return index.Spec{}, fmt.Errorf("value %q: %w", key, err)
		}
		values[key] = spec
	}
	return index.Values(values), nil
}

func mappingValue(node *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return node.Content[i+1]
		}
	}
	return nil
}
