package labelme2yolo

import (
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// DatasetFileName is the name of the dataset descriptor written to the output directory.
const DatasetFileName = "dataset.yaml"

// Dataset is the content of a dataset descriptor.
type Dataset struct {
	Labels     string   `yaml:"labels"` // The label directory.
	NumClasses int      `yaml:"nc"`
	Names      []string `yaml:"names"` // Ordered by class ID.
}

// NewDataset describes the labels of registry written to labelDir.
func NewDataset(labelDir string, registry *LabelRegistry) Dataset {
	return Dataset{Labels: labelDir, NumClasses: registry.Len(), Names: registry.Names()}
}

// MarshalYAML writes the names as a single line flow sequence of quoted strings, which is what
// training tools expect to find.
func (d Dataset) MarshalYAML() (interface{}, error) {
	str := func(v string) *yaml.Node {
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v}
	}

	names := &yaml.Node{Kind: yaml.SequenceNode, Style: yaml.FlowStyle, Content: []*yaml.Node{}}
	for _, n := range d.Names {
		name := str(n)
		name.Style = yaml.SingleQuotedStyle
		names.Content = append(names.Content, name)
	}

	return &yaml.Node{
		Kind: yaml.MappingNode,
		Content: []*yaml.Node{
			str("labels"), str(d.Labels),
			str("nc"), {Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(d.NumClasses)},
			str("names"), names,
		},
	}, nil
}

// WriteDatasetYAML writes the dataset descriptor to path.
func WriteDatasetYAML(path string, d Dataset) error {
	enc, err := yaml.Marshal(d)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, enc, 0644); err != nil {
		return &WriteError{Path: path, Err: err}
	}
	return nil
}
