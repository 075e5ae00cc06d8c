package doc

import "fmt"

// executer is implemented by objects that compute an output shape.
type executer interface {
	execute() error
}

// depender is implemented by objects with same-document dependencies.
type depender interface {
	dependencies() []int64
}

// Recompute executes every object of the document in dependency order.
// Execution errors are collected per object and do not abort the pass;
// objects downstream of a failed feature fail with their own "upstream
// shape is null" error. A dependency cycle aborts ordering for the
// objects on the cycle and is reported once.
func (d *Document) Recompute() []error {
	order, cycleErr := d.topoOrder()

	var errs []error
	if cycleErr != nil {
		errs = append(errs, cycleErr)
	}
	for _, tag := range order {
		obj := d.objects[tag]
		ex, ok := obj.(executer)
		if !ok {
			continue
		}
		if err := ex.execute(); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

// topoOrder returns the document's tags in dependency order using DFS
// with 3-color marking: white = unvisited, gray = on the current path,
// black = done. Hitting a gray node means a cycle.
func (d *Document) topoOrder() ([]int64, error) {
	const (
		white = iota
		gray
		black
	)
	color := make(map[int64]int)
	var order []int64
	var cycleErr error

	var visit func(tag int64) bool
	visit = func(tag int64) bool {
		switch color[tag] {
		case black:
			return false
		case gray:
			if cycleErr == nil {
				cycleErr = fmt.Errorf("dependency cycle through object %d", tag)
			}
			return true
		}
		color[tag] = gray
		obj := d.objects[tag]
		if dep, ok := obj.(depender); ok {
			for _, up := range dep.dependencies() {
				if _, exists := d.objects[up]; !exists {
					continue
				}
				if visit(up) {
					color[tag] = black
					return true
				}
			}
		}
		color[tag] = black
		order = append(order, tag)
		return false
	}

	for _, tag := range d.order {
		if _, exists := d.objects[tag]; !exists {
			continue
		}
		if color[tag] == white {
			visit(tag)
		}
	}
	return order, cycleErr
}
