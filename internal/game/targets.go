package game

import "github.com/hajimehoshi/ebiten/v2"

// renderTargets are the offscreen images of the post-processing chain. They
// are reallocated lazily when the screen size changes.
type renderTargets struct {
	w, h   int
	scene  *ebiten.Image
	bloomA *ebiten.Image
	bloomB *ebiten.Image
}

func (t *renderTargets) ensure(w, h int) *renderTargets {
	if t.scene != nil && t.w == w && t.h == h {
		return t
	}
	t.release()
	t.w, t.h = w, h
	t.scene = ebiten.NewImage(w, h)
	t.bloomA = ebiten.NewImage(w, h)
	t.bloomB = ebiten.NewImage(w, h)
	return t
}

func (t *renderTargets) release() {
	for _, img := range []*ebiten.Image{t.scene, t.bloomA, t.bloomB} {
		if img != nil {
			img.Deallocate()
		}
	}
	t.scene, t.bloomA, t.bloomB = nil, nil, nil
}
