package doc

import (
	"strings"

	"github.com/chazu/tenon/pkg/topo"
)

// RelatedResult is one entry of a related-elements query, cached on the
// owning object.
type RelatedResult struct {
	Name  topo.MappedName
	Index topo.IndexedName
	Score int
}

// elementSearch is a cached geometric search: the sub-shape snapshot the
// search ran against and its matches.
type elementSearch struct {
	shape   *topo.Shape
	matches []topo.SearchMatch
}

// core is the shared identity and cache state embedded by every object
// type. Caches are owned exclusively by their object; other objects read
// only through the accessor functions.
type core struct {
	tag  int64
	name string
	doc  *Document

	shape *topo.Shape

	shapeCache    map[string]*topo.Shape
	elementCache  map[string]elementSearch
	cachePrefixes []string
	relatedCache  map[string][]RelatedResult
}

func newCore(d *Document, name string) core {
	return core{tag: d.newTag(), name: name, doc: d}
}

func (c *core) Tag() int64          { return c.tag }
func (c *core) Name() string        { return c.name }
func (c *core) Document() *Document { return c.doc }

// TopoShape returns the object's authoritative output shape; the null
// shape before the first successful recompute.
func (c *core) TopoShape() *topo.Shape {
	if c.shape == nil {
		return &topo.Shape{}
	}
	return c.shape
}

// setShape installs a new governing shape. Caches are invalidated before
// the change so no reader can observe pre-mutation cache content against
// the post-mutation shape.
func (c *core) setShape(s *topo.Shape) {
	c.onBeforeChange()
	c.shape = s
}

// onBeforeChange purges derived caches. Element-search entries under a
// registered prefix are purged selectively; with no registrations the
// whole element cache goes. Shape and related caches are always cleared.
func (c *core) onBeforeChange() {
	c.shapeCache = nil
	c.relatedCache = nil
	if c.elementCache == nil {
		return
	}
	if len(c.cachePrefixes) == 0 {
		c.elementCache = nil
		return
	}
	for key := range c.elementCache {
		for _, p := range c.cachePrefixes {
			if strings.HasPrefix(key, p) {
				delete(c.elementCache, key)
				break
			}
		}
	}
}

// RegisterElementCache declares a name prefix whose search entries must
// be invalidated when the governing shape changes.
func (c *core) RegisterElementCache(prefix string) {
	for _, p := range c.cachePrefixes {
		if p == prefix {
			return
		}
	}
	c.cachePrefixes = append(c.cachePrefixes, prefix)
}

// StoreElementSearch caches a geometric search result under an element
// name key.
func (c *core) StoreElementSearch(name string, shape *topo.Shape, matches []topo.SearchMatch) {
	if c.elementCache == nil {
		c.elementCache = make(map[string]elementSearch)
	}
	c.elementCache[name] = elementSearch{shape: shape, matches: matches}
}

// SearchElementCache returns the cached search for an element name.
func (c *core) SearchElementCache(name string) (*topo.Shape, []topo.SearchMatch, bool) {
	es, ok := c.elementCache[name]
	if !ok {
		return nil, nil, false
	}
	return es.shape, es.matches, true
}

// RelatedCache returns a cached related-elements result.
func (c *core) RelatedCache(key string) ([]RelatedResult, bool) {
	r, ok := c.relatedCache[key]
	return r, ok
}

// StoreRelatedCache caches a related-elements result.
func (c *core) StoreRelatedCache(key string, results []RelatedResult) {
	if c.relatedCache == nil {
		c.relatedCache = make(map[string][]RelatedResult)
	}
	c.relatedCache[key] = results
}

func (c *core) cachedShape(subname string) (*topo.Shape, bool) {
	s, ok := c.shapeCache[subname]
	return s, ok
}

func (c *core) cacheShape(subname string, s *topo.Shape) {
	if c.shapeCache == nil {
		c.shapeCache = make(map[string]*topo.Shape)
	}
	c.shapeCache[subname] = s
}
