package render

import (
	"context"
	"sort"
	"sync"

	"github.com/Comcast/pathways/core"
)

// WidgetCode is a widget's raw code.
//
// The code can contain {{param}} placeholders, which are resolved
// against the widget's default Params overlaid with the params given
// at generation time.  Resolved values are HTML-escaped.
type WidgetCode struct {
	Id          string                 `json:"id" yaml:"id"`
	Interactive bool                   `json:"interactive,omitempty" yaml:"interactive,omitempty"`
	Code        string                 `json:"code" yaml:"code"`
	Params      map[string]interface{} `json:"params,omitempty" yaml:"params,omitempty"`
}

// MapCatalog is an in-memory core.Catalog.
//
// Safe for concurrent use.
type MapCatalog struct {
	sync.RWMutex

	widgets map[string]*WidgetCode
}

// NewMapCatalog makes a MapCatalog with the given widgets.
func NewMapCatalog(ws ...*WidgetCode) *MapCatalog {
	c := &MapCatalog{
		widgets: make(map[string]*WidgetCode, len(ws)),
	}
	for _, w := range ws {
		c.Add(w)
	}
	return c
}

// Add adds or replaces a widget.
func (c *MapCatalog) Add(w *WidgetCode) {
	c.Lock()
	c.widgets[w.Id] = w
	c.Unlock()
}

// Ids returns the sorted ids of all widgets.
func (c *MapCatalog) Ids() []string {
	c.RLock()
	defer c.RUnlock()
	ids := make([]string, 0, len(c.widgets))
	for id := range c.widgets {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func (c *MapCatalog) generate(id string, interactive bool, params map[string]interface{}) (string, error) {
	c.RLock()
	w, have := c.widgets[id]
	c.RUnlock()

	if !have || w.Interactive != interactive {
		return "", &core.MissingWidget{Id: id}
	}

	ps := make(core.Params, len(w.Params)+len(params))
	for k, v := range w.Params {
		ps[k] = v
	}
	for k, v := range params {
		ps[k] = v
	}

	return core.ResolveHTML(w.Code, ps), nil
}

// NonInteractive generates the code for a widget embedded in content.
func (c *MapCatalog) NonInteractive(ctx context.Context, id string, params map[string]interface{}) (string, error) {
	return c.generate(id, false, params)
}

// Interactive generates the code for a state's widget.
func (c *MapCatalog) Interactive(ctx context.Context, id string, params map[string]interface{}) (string, error) {
	return c.generate(id, true, params)
}
