// Package document defines the host document capability the engine drives,
// and an in-memory implementation of it.
//
// The engine never owns the document graph. It creates, mutates, clones,
// places and removes instances only through the Host interface, so a real
// design-tool bridge and the in-memory Memory host are interchangeable.
package document

import (
	"context"
	"strings"

	"github.com/cockroachdb/errors"

	"github.com/roach88/variantforge/internal/schema"
)

var (
	// ErrNotFound is returned when a component or instance does not exist.
	ErrNotFound = errors.New("node not found")

	// ErrRejected is returned when an instance does not accept a property
	// assignment.
	ErrRejected = errors.New("property assignment rejected")
)

// NodeID identifies a node in the host document.
type NodeID string

// Size is the bounding box of a node.
type Size struct {
	Width  float64
	Height float64
}

// ExposedInstance is a nested instance reachable from a top-level instance
// whose properties can be overridden independently.
type ExposedInstance struct {
	// ID is stable within the owning component and addresses the nested
	// instance inside any instance or clone of it.
	ID string
	// Name is the nested instance's layer name.
	Name string
	// Remote marks instances whose main component is published from another
	// file.
	Remote bool
	// Properties is the nested instance's own property schema.
	Properties schema.Schema
}

// Component is a read-only snapshot of a component set.
type Component struct {
	ID   NodeID
	Name string
	// Path is the structural path of the component in the document,
	// e.g. "Page / Buttons / Button".
	Path string
	// Remote marks components published from another file.
	Remote             bool
	DocumentationLinks []string
	// Children are the raw variant children in document order. The first
	// child is the template used for instantiation.
	Children []NodeID
	// Size is the template child's size.
	Size Size

	properties schema.Schema
	schemaErr  error
}

// NewComponent builds a component snapshot. schemaErr records a failure to
// read the property definitions; it is reported by Schema.
func NewComponent(id NodeID, name, path string, props schema.Schema, schemaErr error) *Component {
	return &Component{ID: id, Name: name, Path: path, properties: props, schemaErr: schemaErr}
}

// Schema returns the component's property schema, or the error encountered
// while reading it.
func (c *Component) Schema() (schema.Schema, error) {
	if c.schemaErr != nil {
		return schema.Schema{}, c.schemaErr
	}
	return c.properties, nil
}

// Template returns the first child, used as the instantiation template.
func (c *Component) Template() (NodeID, bool) {
	if len(c.Children) == 0 {
		return "", false
	}
	return c.Children[0], true
}

// Private reports whether the component follows the private naming
// convention (a leading "." or "_").
func (c *Component) Private() bool {
	return strings.HasPrefix(c.Name, ".") || strings.HasPrefix(c.Name, "_")
}

// Host is the document capability used by expansion and materialization.
// Implementations must serialize mutations; callers issue them from a single
// goroutine.
type Host interface {
	// Surface identifies the canvas that receives placed instances. The
	// placement cursor is persisted per surface.
	Surface() string

	// Components lists every component set in document order.
	Components(ctx context.Context) ([]*Component, error)

	// Component returns the component set with the given ID.
	Component(ctx context.Context, id NodeID) (*Component, error)

	// CreateInstance instantiates a component child. The instance is not
	// placed on any surface.
	CreateInstance(ctx context.Context, template NodeID) (NodeID, error)

	// ExposedInstances lists the nested instances exposed by an instance.
	ExposedInstances(ctx context.Context, inst NodeID) ([]ExposedInstance, error)

	// SetProperties applies a combination to an instance.
	SetProperties(ctx context.Context, inst NodeID, c schema.Combination) error

	// SetNestedProperties applies a combination to the exposed instance
	// exposedID inside inst.
	SetNestedProperties(ctx context.Context, inst NodeID, exposedID string, c schema.Combination) error

	// Clone duplicates an instance, carrying its property values.
	Clone(ctx context.Context, inst NodeID) (NodeID, error)

	// Rename sets the layer name of an instance.
	Rename(ctx context.Context, inst NodeID, name string) error

	// Place positions an instance on the surface.
	Place(ctx context.Context, inst NodeID, x, y float64) error

	// Remove deletes an instance.
	Remove(ctx context.Context, inst NodeID) error
}

// Navigator is implemented by hosts that can bring a node into view.
type Navigator interface {
	Focus(ctx context.Context, id NodeID) error
}
