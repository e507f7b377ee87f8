package system

import (
	"fmt"
	"reflect"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/l1jgo/shell/internal/component"
	"github.com/l1jgo/shell/internal/core/ecs"
)

// CanvasService is the service id under which a shared *Canvas may be
// registered. Render(nil) and Render((*Canvas)(nil)) draw onto it.
var CanvasService = ecs.MustServiceID("3b8f0d52-7c1e-4a69-9f04-6d2e1a5c8b73")

// RenderSystem draws every entity with a Position and Bounds onto a
// *Canvas, filling its rectangle with the first letter of its name.
type RenderSystem struct {
	ecs.SystemBase
	log    *zap.Logger
	warned bool
	drawn  int
}

func NewRenderSystem(log *zap.Logger) *RenderSystem {
	if log == nil {
		log = zap.NewNop()
	}
	return &RenderSystem{log: log}
}

func (s *RenderSystem) Requires() []reflect.Type {
	return []reflect.Type{
		ecs.TypeOf[component.Position](),
		ecs.TypeOf[component.Bounds](),
	}
}

func (s *RenderSystem) Render(target any) {
	canvas, ok := target.(*Canvas)
	if canvas == nil && (ok || target == nil) {
		var err error
		canvas, err = ecs.Resolve[*Canvas](s.Domain(), CanvasService)
		ok = err == nil && canvas != nil
	}
	if !ok {
		if !s.warned {
			s.log.Warn("render target is not a canvas", zap.String("type", fmt.Sprintf("%T", target)))
			s.warned = true
		}
		return
	}
	d := s.Domain()
	s.drawn = 0
	s.Entries().Each(func(en ecs.Entry) bool {
		pos := ecs.Field[component.Position](en, 0)
		b := ecs.Field[component.Bounds](en, 1)
		if b.Empty() {
			return true
		}
		glyph := '*'
		if name := d.EntityName(ecs.EntityOf(en)); name != "" {
			glyph, _ = utf8.DecodeRuneInString(name)
		}
		if canvas.FillRect(int(pos.X), int(pos.Y), b.Width, b.Height, glyph) > 0 {
			s.drawn++
		}
		return true
	})
}

// Drawn returns how many entities the last Render put on the canvas.
func (s *RenderSystem) Drawn() int { return s.drawn }
