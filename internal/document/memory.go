package document

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/cockroachdb/errors"
	"github.com/google/uuid"

	"github.com/roach88/variantforge/internal/schema"
)

// Memory is an in-memory Host backed by a document File.
//
// It enforces the same acceptance rules a design tool does: values must match
// the property kind and options, and the resulting set of VARIANT values must
// name an existing variant child. An accepted variant assignment switches the
// instance to that child, which also changes its exposed instances.
type Memory struct {
	mu sync.Mutex

	page       string
	components []*memComponent
	byID       map[NodeID]*memComponent
	variants   map[NodeID]*memVariant
	instances  map[NodeID]*memInstance
	placed     []NodeID
	focused    NodeID
	newID      func() string
}

type memComponent struct {
	snapshot  Component
	props     schema.Schema
	schemaErr error
	variants  []*memVariant
}

type memVariant struct {
	id         NodeID
	name       string
	values     map[string]string
	exposed    []ExposedInstance
	exposedErr error
	owner      *memComponent
}

type memInstance struct {
	id      NodeID
	name    string
	variant *memVariant
	values  schema.Combination
	nested  map[string]schema.Combination
	placed  bool
	x, y    float64
}

// MemoryOption configures a Memory host.
type MemoryOption func(*Memory)

// WithIDGenerator overrides instance ID generation. The default generates
// UUIDv7 strings.
func WithIDGenerator(gen func() string) MemoryOption {
	return func(m *Memory) {
		m.newID = gen
	}
}

// NewMemory builds a Memory host from a document file.
//
// Property definitions that cannot be read (unknown kinds, duplicate names)
// do not fail construction; they are reported by Component.Schema so callers
// can exclude the component.
func NewMemory(f *File, opts ...MemoryOption) (*Memory, error) {
	m := &Memory{
		page:      f.Page,
		byID:      make(map[NodeID]*memComponent),
		variants:  make(map[NodeID]*memVariant),
		instances: make(map[NodeID]*memInstance),
		newID:     newUUID,
	}
	if m.page == "" {
		m.page = "Page 1"
	}
	for _, opt := range opts {
		opt(m)
	}

	for ci, cs := range f.Components {
		id := NodeID(cs.ID)
		if id == "" {
			return nil, errors.Newf("component %d (%q) has no id", ci, cs.Name)
		}
		if _, dup := m.byID[id]; dup {
			return nil, errors.Newf("duplicate component id %q", id)
		}

		path := cs.Path
		if path == "" {
			path = m.page + " / " + cs.Name
		}
		props, schemaErr := BuildSchema(cs.Properties)
		mc := &memComponent{props: props, schemaErr: schemaErr}
		mc.snapshot = Component{
			ID:                 id,
			Name:               cs.Name,
			Path:               path,
			Remote:             cs.Remote,
			DocumentationLinks: append([]string(nil), cs.DocumentationLinks...),
			Size:               Size{Width: cs.Width, Height: cs.Height},
		}

		for vi, vs := range cs.Variants {
			vid := NodeID(vs.ID)
			if vid == "" {
				vid = NodeID(fmt.Sprintf("%s/%d", id, vi))
			}
			if _, dup := m.variants[vid]; dup {
				return nil, errors.Newf("duplicate variant id %q", vid)
			}
			mv := &memVariant{
				id:     vid,
				name:   vs.Name,
				values: maps.Clone(vs.Values),
				owner:  mc,
			}
			for _, es := range vs.Exposed {
				ep, err := BuildSchema(es.Properties)
				if err != nil {
					mv.exposedErr = errors.Wrapf(err, "exposed instance %q", es.Name)
					break
				}
				eid := es.ID
				if eid == "" {
					eid = es.Name
				}
				mv.exposed = append(mv.exposed, ExposedInstance{ID: eid, Name: es.Name, Remote: es.Remote, Properties: ep})
			}
			if vi == 0 && (vs.Width > 0 || vs.Height > 0) {
				mc.snapshot.Size = Size{Width: vs.Width, Height: vs.Height}
			}
			mc.variants = append(mc.variants, mv)
			mc.snapshot.Children = append(mc.snapshot.Children, vid)
			m.variants[vid] = mv
		}

		m.components = append(m.components, mc)
		m.byID[id] = mc
	}
	return m, nil
}

// LoadMemory reads a document file and builds a Memory host from it.
func LoadMemory(path string, opts ...MemoryOption) (*Memory, error) {
	f, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return NewMemory(f, opts...)
}

// Reload replaces the document structure with f. Existing instances keep
// the variants they were created from; new instances use f.
func (m *Memory) Reload(f *File) error {
	fresh, err := NewMemory(f, WithIDGenerator(m.newID))
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.page = fresh.page
	m.components = fresh.components
	m.byID = fresh.byID
	m.variants = fresh.variants
	return nil
}

func newUUID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Surface returns the page name.
func (m *Memory) Surface() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.page
}

// Components lists the component sets in document order.
func (m *Memory) Components(ctx context.Context) ([]*Component, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]*Component, len(m.components))
	for i, mc := range m.components {
		out[i] = mc.snapshotCopy()
	}
	return out, nil
}

// Component returns the component set with the given ID.
func (m *Memory) Component(ctx context.Context, id NodeID) (*Component, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mc, ok := m.byID[id]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "component %q", id)
	}
	return mc.snapshotCopy(), nil
}

func (mc *memComponent) snapshotCopy() *Component {
	c := mc.snapshot
	c.Children = append([]NodeID(nil), mc.snapshot.Children...)
	c.DocumentationLinks = append([]string(nil), mc.snapshot.DocumentationLinks...)
	c.properties = mc.props
	c.schemaErr = mc.schemaErr
	return &c
}

// CreateInstance instantiates a variant child. The instance starts with the
// child's variant values.
func (m *Memory) CreateInstance(ctx context.Context, template NodeID) (NodeID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	mv, ok := m.variants[template]
	if !ok {
		return "", errors.Wrapf(ErrNotFound, "variant %q", template)
	}
	var initial schema.Combination
	for _, p := range mv.owner.props.Properties() {
		if v, ok := mv.values[p.Name]; ok {
			initial = initial.With(p.Name, schema.TextValue(v))
		}
	}
	inst := &memInstance{
		id:      NodeID(m.newID()),
		name:    mv.owner.snapshot.Name,
		variant: mv,
		values:  initial,
		nested:  make(map[string]schema.Combination),
	}
	m.instances[inst.id] = inst
	return inst.id, nil
}

func (m *Memory) instance(id NodeID) (*memInstance, error) {
	inst, ok := m.instances[id]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "instance %q", id)
	}
	return inst, nil
}

// ExposedInstances lists the nested instances exposed by the instance's
// current variant.
func (m *Memory) ExposedInstances(ctx context.Context, id NodeID) ([]ExposedInstance, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst, err := m.instance(id)
	if err != nil {
		return nil, err
	}
	if inst.variant.exposedErr != nil {
		return nil, inst.variant.exposedErr
	}
	return append([]ExposedInstance(nil), inst.variant.exposed...), nil
}

// SetProperties applies c to the instance. Nothing is modified when the
// assignment is rejected.
func (m *Memory) SetProperties(ctx context.Context, id NodeID, c schema.Combination) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst, err := m.instance(id)
	if err != nil {
		return err
	}
	owner := inst.variant.owner
	if owner.schemaErr != nil {
		return errors.Mark(owner.schemaErr, ErrRejected)
	}
	if err := owner.props.Check(c); err != nil {
		return errors.Mark(err, ErrRejected)
	}

	values := inst.values
	for _, a := range c.Assignments() {
		values = values.With(a.Name, a.Value)
	}

	target, err := owner.matchVariant(values)
	if err != nil {
		return err
	}
	inst.variant = target
	inst.values = values
	for eid := range inst.nested {
		if target.exposedByID(eid) == nil {
			delete(inst.nested, eid)
		}
	}
	return nil
}

// matchVariant finds the child whose variant values equal the VARIANT
// assignments in values.
func (mc *memComponent) matchVariant(values schema.Combination) (*memVariant, error) {
	for _, mv := range mc.variants {
		match := true
		for _, p := range mc.props.Properties() {
			if p.Definition.Kind != schema.KindVariant {
				continue
			}
			v, ok := values.Get(p.Name)
			if !ok {
				continue
			}
			if mv.values[p.Name] != v.String() {
				match = false
				break
			}
		}
		if match {
			return mv, nil
		}
	}
	return nil, errors.Wrapf(ErrRejected, "no variant of %q matches %s", mc.snapshot.Name, values)
}

func (mv *memVariant) exposedByID(id string) *ExposedInstance {
	for i := range mv.exposed {
		if mv.exposed[i].ID == id {
			return &mv.exposed[i]
		}
	}
	return nil
}

// SetNestedProperties applies c to an exposed instance inside inst.
func (m *Memory) SetNestedProperties(ctx context.Context, id NodeID, exposedID string, c schema.Combination) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst, err := m.instance(id)
	if err != nil {
		return err
	}
	ex := inst.variant.exposedByID(exposedID)
	if ex == nil {
		return errors.Wrapf(ErrRejected, "instance %q exposes no %q", id, exposedID)
	}
	if err := ex.Properties.Check(c); err != nil {
		return errors.Mark(errors.Wrapf(err, "exposed instance %q", ex.Name), ErrRejected)
	}

	merged := inst.nested[exposedID]
	for _, a := range c.Assignments() {
		merged = merged.With(a.Name, a.Value)
	}
	inst.nested[exposedID] = merged
	return nil
}

// Clone duplicates an instance. The clone is not placed.
func (m *Memory) Clone(ctx context.Context, id NodeID) (NodeID, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	src, err := m.instance(id)
	if err != nil {
		return "", err
	}
	clone := &memInstance{
		id:      NodeID(m.newID()),
		name:    src.name,
		variant: src.variant,
		values:  src.values,
		nested:  maps.Clone(src.nested),
	}
	m.instances[clone.id] = clone
	return clone.id, nil
}

// Rename sets an instance's layer name.
func (m *Memory) Rename(ctx context.Context, id NodeID, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst, err := m.instance(id)
	if err != nil {
		return err
	}
	inst.name = name
	return nil
}

// Place positions an instance on the page.
func (m *Memory) Place(ctx context.Context, id NodeID, x, y float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst, err := m.instance(id)
	if err != nil {
		return err
	}
	if !inst.placed {
		m.placed = append(m.placed, id)
	}
	inst.placed = true
	inst.x, inst.y = x, y
	return nil
}

// Remove deletes an instance.
func (m *Memory) Remove(ctx context.Context, id NodeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	inst, err := m.instance(id)
	if err != nil {
		return err
	}
	delete(m.instances, id)
	if inst.placed {
		for i, pid := range m.placed {
			if pid == id {
				m.placed = append(m.placed[:i], m.placed[i+1:]...)
				break
			}
		}
	}
	return nil
}

// Focus records the node brought into view.
func (m *Memory) Focus(ctx context.Context, id NodeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[id]; !ok {
		if _, ok := m.instances[id]; !ok {
			return errors.Wrapf(ErrNotFound, "node %q", id)
		}
	}
	m.focused = id
	return nil
}

// Focused returns the last node passed to Focus.
func (m *Memory) Focused() NodeID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.focused
}

// LiveInstances returns how many instances exist, placed or not.
func (m *Memory) LiveInstances() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.instances)
}

// Placement is a placed instance as reported by Placements.
type Placement struct {
	ID         NodeID                       `yaml:"id" json:"id"`
	Name       string                       `yaml:"name" json:"name"`
	Component  NodeID                       `yaml:"component" json:"component"`
	Variant    NodeID                       `yaml:"variant" json:"variant"`
	X          float64                      `yaml:"x" json:"x"`
	Y          float64                      `yaml:"y" json:"y"`
	Properties map[string]string            `yaml:"properties,omitempty" json:"properties,omitempty"`
	Nested     map[string]map[string]string `yaml:"nested,omitempty" json:"nested,omitempty"`
}

// Placements returns placed instances in placement order.
func (m *Memory) Placements() []Placement {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Placement, 0, len(m.placed))
	for _, id := range m.placed {
		inst := m.instances[id]
		p := Placement{
			ID:         inst.id,
			Name:       inst.name,
			Component:  inst.variant.owner.snapshot.ID,
			Variant:    inst.variant.id,
			X:          inst.x,
			Y:          inst.y,
			Properties: flatten(inst.values),
		}
		if len(inst.nested) > 0 {
			p.Nested = make(map[string]map[string]string, len(inst.nested))
			for eid, c := range inst.nested {
				p.Nested[eid] = flatten(c)
			}
		}
		out = append(out, p)
	}
	return out
}

func flatten(c schema.Combination) map[string]string {
	if c.Len() == 0 {
		return nil
	}
	out := make(map[string]string, c.Len())
	for _, a := range c.Assignments() {
		out[a.Name] = a.Value.String()
	}
	return out
}

// Export is the serialized result of a generation session.
type Export struct {
	Page       string      `yaml:"page" json:"page"`
	Placements []Placement `yaml:"placements" json:"placements"`
}

// Export snapshots the placed instances.
func (m *Memory) Export() Export {
	return Export{Page: m.Surface(), Placements: m.Placements()}
}
