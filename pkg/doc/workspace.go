package doc

import (
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/chazu/tenon/pkg/config"
	"github.com/chazu/tenon/pkg/kernel"
)

// Workspace is the explicit registry context shared by documents: the
// geometry kernel backend, tuning parameters and the logger. Nothing in
// the naming core reaches for process-wide state.
type Workspace struct {
	Params config.Params
	Log    *logrus.Logger
	Kernel kernel.Kernel

	docs  map[uuid.UUID]*Document
	order []uuid.UUID
}

// NewWorkspace creates a workspace around a kernel backend. A nil logger
// gets a default logrus logger.
func NewWorkspace(k kernel.Kernel, params config.Params, log *logrus.Logger) *Workspace {
	if log == nil {
		log = logrus.New()
	}
	return &Workspace{
		Params: params,
		Log:    log,
		Kernel: k,
		docs:   make(map[uuid.UUID]*Document),
	}
}

// NewDocument creates an empty document registered in the workspace.
func (ws *Workspace) NewDocument(name string) *Document {
	d := newDocument(ws, name)
	ws.docs[d.ID] = d
	ws.order = append(ws.order, d.ID)
	return d
}

// FindDocument returns the document with the given id, or nil.
func (ws *Workspace) FindDocument(id uuid.UUID) *Document {
	return ws.docs[id]
}

// Documents returns the documents in creation order.
func (ws *Workspace) Documents() []*Document {
	out := make([]*Document, 0, len(ws.order))
	for _, id := range ws.order {
		if d, ok := ws.docs[id]; ok {
			out = append(out, d)
		}
	}
	return out
}
