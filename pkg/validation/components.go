package validation

import "github.com/aretw0/branchflow/pkg/domain"

// components labels the strongly connected components reachable from a root
// (Tarjan). An edge lies on a directed cycle iff both ends share a component.
type components struct {
	flow  domain.Flow
	index map[string]int

	counter int
	order   map[string]int
	low     map[string]int
	onStack map[string]bool
	stack   []string
	comp    map[string]int
	next    int
}

func newComponents(flow domain.Flow, index map[string]int, root string) *components {
	c := &components{
		flow:    flow,
		index:   index,
		order:   make(map[string]int),
		low:     make(map[string]int),
		onStack: make(map[string]bool),
		comp:    make(map[string]int),
	}
	c.visit(root)
	return c
}

func (c *components) visit(id string) {
	c.order[id] = c.counter
	c.low[id] = c.counter
	c.counter++
	c.stack = append(c.stack, id)
	c.onStack[id] = true

	for _, opt := range c.flow.Nodes[c.index[id]].Options {
		to := opt.TargetID
		if _, exists := c.index[to]; !exists {
			continue
		}
		if _, seen := c.order[to]; !seen {
			c.visit(to)
			c.low[id] = min(c.low[id], c.low[to])
		} else if c.onStack[to] {
			c.low[id] = min(c.low[id], c.order[to])
		}
	}

	if c.low[id] != c.order[id] {
		return
	}
	for {
		top := c.stack[len(c.stack)-1]
		c.stack = c.stack[:len(c.stack)-1]
		c.onStack[top] = false
		c.comp[top] = c.next
		if top == id {
			break
		}
	}
	c.next++
}

func (c *components) sameComponent(from, to string) bool {
	if from == to {
		return true
	}
	a, okA := c.comp[from]
	b, okB := c.comp[to]
	return okA && okB && a == b
}
