package mesh

// Element is an addressable entity in a node.
type Element struct {
	// Loc is the location descriptor.
	Loc    uint16
	Models []*Model

	addr Address
	node *Node
}

// NewElement creates an element with models.
func NewElement(loc uint16, models ...*Model) *Element {
	e := &Element{Loc: loc}
	for _, m := range models {
		e.AddModel(m)
	}
	return e
}

// AddModel adds a model to the element.
func (e *Element) AddModel(m *Model) *Element {
	m.elem = e
	e.Models = append(e.Models, m)
	return e
}

// Addr returns the unicast address of the element.
func (e *Element) Addr() Address {
	return e.addr
}

// Node returns the node the element belongs to.
func (e *Element) Node() *Node {
	return e.node
}

// Primary checks if it's the primary element of the node.
func (e *Element) Primary() bool {
	return e.node != nil && e.addr == e.node.Addr
}

// FindModel finds the model by ID.
func (e *Element) FindModel(id ModelID) *Model {
	for _, m := range e.Models {
		if m.ID == id {
			return m
		}
	}
	return nil
}
