package ecs

// Each2 visits active entities carrying both A and B. It walks the smaller
// storage and probes the larger one. fn must not add or delete components
// of A or B.
func Each2[A, B any](d *Domain, fn func(Entity, *A, *B)) {
	sa, sb := StorageOf[A](d), StorageOf[B](d)
	if sa == nil || sb == nil {
		return
	}
	if sa.Len() <= sb.Len() {
		sa.Each(func(e Entity, a *A) bool {
			if b := sb.Lookup(e); b != nil && d.IsActive(e) {
				fn(e, a, b)
			}
			return true
		})
		return
	}
	sb.Each(func(e Entity, b *B) bool {
		if a := sa.Lookup(e); a != nil && d.IsActive(e) {
			fn(e, a, b)
		}
		return true
	})
}

// Each3 visits active entities carrying A, B and C, walking the smallest
// storage.
func Each3[A, B, C any](d *Domain, fn func(Entity, *A, *B, *C)) {
	sa, sb, sc := StorageOf[A](d), StorageOf[B](d), StorageOf[C](d)
	if sa == nil || sb == nil || sc == nil {
		return
	}
	visit := func(e Entity) {
		if !d.IsActive(e) {
			return
		}
		a, b, c := sa.Lookup(e), sb.Lookup(e), sc.Lookup(e)
		if a != nil && b != nil && c != nil {
			fn(e, a, b, c)
		}
	}
	switch {
	case sa.Len() <= sb.Len() && sa.Len() <= sc.Len():
		sa.Each(func(e Entity, _ *A) bool { visit(e); return true })
	case sb.Len() <= sc.Len():
		sb.Each(func(e Entity, _ *B) bool { visit(e); return true })
	default:
		sc.Each(func(e Entity, _ *C) bool { visit(e); return true })
	}
}
