// Package graphfile loads expression graphs from YAML.
//
// A graph file declares tables and one query pipeline:
//
//	tables:
//	  - name: events
//	    schema:
//	      - {name: userId, type: int64}
//	      - {name: createTime, type: timestamp, not_null: true}
//	    watermark: {column: createTime, delay: 15s}
//	query:
//	  from: events
//	  steps:
//	    - filter: [{gt: [{col: amount}, 0]}]
//	    - select: [{col: userId}, {as: doubled, multiply: [{col: amount}, 2]}]
//
// Expressions are YAML scalars (literals) or single-operator mappings with
// an optional "as" name.
package graphfile

import (
	"bytes"
	"fmt"
	"os"

	"github.com/leapstack-labs/xsql/pkg/ir"
	"gopkg.in/yaml.v3"
)

// File is the decoded form of a graph file.
type File struct {
	Tables []Table `yaml:"tables"`
	Query  Query   `yaml:"query"`
}

// Table declares an unbound table.
type Table struct {
	Name      string     `yaml:"name"`
	Schema    []Column   `yaml:"schema"`
	Source    *Source    `yaml:"source,omitempty"`
	Watermark *Watermark `yaml:"watermark,omitempty"`

	// Sink marks the table the query result is inserted into.
	Sink bool `yaml:"sink,omitempty"`
}

// Column is one schema field.
type Column struct {
	Name    string `yaml:"name"`
	Type    string `yaml:"type"`
	NotNull bool   `yaml:"not_null,omitempty"`
}

// Source is the connector of a streaming table.
type Source struct {
	Connector  string            `yaml:"connector"`
	Topic      string            `yaml:"topic"`
	Format     string            `yaml:"format"`
	Properties map[string]string `yaml:"properties,omitempty"`
}

// Watermark declares the event-time column and its allowed delay ("15s").
type Watermark struct {
	Column string `yaml:"column"`
	Delay  string `yaml:"delay"`
}

// Query is a pipeline of relational steps applied to a table.
type Query struct {
	From  string `yaml:"from"`
	Steps []Step `yaml:"steps"`
}

// Step is one pipeline stage. Exactly one field is set.
type Step struct {
	Join      *Join       `yaml:"join,omitempty"`
	Filter    []yaml.Node `yaml:"filter,omitempty"`
	Select    []yaml.Node `yaml:"select,omitempty"`
	Aggregate *Aggregate  `yaml:"aggregate,omitempty"`
	Distinct  bool        `yaml:"distinct,omitempty"`
	OrderBy   []OrderKey  `yaml:"order_by,omitempty"`
	Limit     *Limit      `yaml:"limit,omitempty"`
	Tumble    *TimeWindow `yaml:"tumble,omitempty"`
	Hop       *TimeWindow `yaml:"hop,omitempty"`
}

// Join joins the current relation with a declared table. Predicates see
// the left side through "col" and the right side through "right".
type Join struct {
	Table string      `yaml:"table"`
	Kind  string      `yaml:"kind,omitempty"` // inner (default), left, right, outer
	On    []yaml.Node `yaml:"on,omitempty"`
}

// Aggregate groups by keys and computes metrics.
type Aggregate struct {
	By      []yaml.Node `yaml:"by,omitempty"`
	Metrics []yaml.Node `yaml:"metrics"`
	Having  []yaml.Node `yaml:"having,omitempty"`
}

// OrderKey is a sort key.
type OrderKey struct {
	Expr yaml.Node `yaml:"expr"`
	Desc bool      `yaml:"desc,omitempty"`
}

// Limit keeps n rows after skipping offset.
type Limit struct {
	N      int64 `yaml:"n"`
	Offset int64 `yaml:"offset,omitempty"`
}

// TimeWindow assigns rows to tumbling or hopping event-time windows.
type TimeWindow struct {
	TimeCol string `yaml:"time_col"`
	Size    string `yaml:"size"`
	Slide   string `yaml:"slide,omitempty"`
}

// Graph is a loaded graph: its tables in declaration order, the optional
// sink and the query root.
type Graph struct {
	Tables []*ir.Node
	Sink   *ir.Node
	Root   *ir.Node
}

// Load reads and builds the graph file at path into a.
func Load(path string, a *ir.Arena) (*Graph, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read graph file: %w", err)
	}
	g, err := Parse(data, a)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return g, nil
}

// Parse decodes a graph file and builds it into a. Unknown fields are
// rejected.
func Parse(data []byte, a *ir.Arena) (*Graph, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return Build(&f, a)
}

// Build builds a decoded graph file into a.
func Build(f *File, a *ir.Arena) (*Graph, error) {
	g := &Graph{}
	tables := make(map[string]*ir.Node, len(f.Tables))
	for _, t := range f.Tables {
		if _, dup := tables[t.Name]; dup {
			return nil, fmt.Errorf("table %q declared twice", t.Name)
		}
		n, err := buildTable(t, a)
		if err != nil {
			return nil, err
		}
		tables[t.Name] = n
		g.Tables = append(g.Tables, n)
		if t.Sink {
			if g.Sink != nil {
				return nil, fmt.Errorf("table %q: only one sink is allowed", t.Name)
			}
			g.Sink = n
		}
	}

	root, err := buildQuery(f.Query, tables, a)
	if err != nil {
		return nil, fmt.Errorf("query: %w", err)
	}
	g.Root = root
	return g, nil
}

func buildTable(t Table, a *ir.Arena) (*ir.Node, error) {
	if t.Name == "" {
		return nil, fmt.Errorf("table name is required")
	}
	fields := make([]ir.Field, len(t.Schema))
	for i, c := range t.Schema {
		typ, err := ir.ParseDataType(c.Type)
		if err != nil {
			return nil, fmt.Errorf("table %q column %q: %w", t.Name, c.Name, err)
		}
		if c.NotNull {
			typ = typ.NonNull()
		}
		fields[i] = ir.Field{Name: c.Name, Type: typ}
	}
	schema, err := ir.NewSchema(fields...)
	if err != nil {
		return nil, fmt.Errorf("table %q: %w", t.Name, err)
	}

	var opts []ir.TableOption
	if s := t.Source; s != nil {
		opts = append(opts, ir.WithSource(ir.Source{
			Connector:  s.Connector,
			Topic:      s.Topic,
			Format:     s.Format,
			Properties: s.Properties,
		}))
	}
	if w := t.Watermark; w != nil {
		delay, err := ir.ParseInterval(w.Delay)
		if err != nil {
			return nil, fmt.Errorf("table %q watermark: %w", t.Name, err)
		}
		opts = append(opts, ir.WithWatermark(w.Column, delay))
	}
	n, err := a.Table(t.Name, schema, opts...)
	if err != nil {
		return nil, fmt.Errorf("table %q: %w", t.Name, err)
	}
	return n, nil
}
