package deskrt

import (
	"sync"
	"sync/atomic"
)

// WeakHandleTag mirrors ResourceTag for weak handles; TagNull signals that
// explicit deinit has occurred (spec §3/§4.4).
type WeakHandleTag int

const (
	TagNull WeakHandleTag = iota
	TagWeakNative
)

type weakSlot struct {
	tag    WeakHandleTag
	ptr    any
	deinit func(ptr any)
}

// WeakHandleTable is a flat slot allocator for native objects whose
// release is driven by the script engine's garbage collector rather than
// by a resource list walk. Grounded directly on
// other_examples/buke-quickjs-go__handle.go's HandleStore: sync.Map keyed
// by int32, atomic.Int32 counter starting at 1 (0 reserved invalid),
// generalized from "store any cgo.Handle payload" to the spec's
// {ptr, tag, script_object} weak handle record plus the tag-Null
// invalidation rule spec §4.4 requires (HandleStore has no tag concept of
// its own since every payload there is equally opaque).
type WeakHandleTable struct {
	slots  sync.Map // int32 -> *weakSlot
	nextID atomic.Int32
}

func NewWeakHandleTable() *WeakHandleTable {
	t := &WeakHandleTable{}
	t.nextID.Store(1)
	return t
}

// Create allocates a slot and returns its id.
func (t *WeakHandleTable) Create(ptr any, deinit func(ptr any)) int32 {
	id := t.nextID.Add(1)
	t.slots.Store(id, &weakSlot{tag: TagWeakNative, ptr: ptr, deinit: deinit})
	return id
}

// Get returns the native pointer for id, or HandleExpired if the slot was
// explicitly deinited (tag == Null) or never existed, per spec §4.4:
// "native code holding a weak handle id must validate the tag before
// dereferencing".
func (t *WeakHandleTable) Get(id int32) (any, error) {
	v, ok := t.slots.Load(id)
	if !ok {
		return nil, HandleExpiredError(id)
	}
	s := v.(*weakSlot)
	if s.tag == TagNull {
		return nil, HandleExpiredError(id)
	}
	return s.ptr, nil
}

// Destroy deinits by tag and marks the slot Null rather than deleting it
// outright, so a subsequent Get still distinguishes "expired" from
// "never existed" the way the spec's tag check implies — a deleted map
// entry would collapse that distinction.
func (t *WeakHandleTable) Destroy(id int32) error {
	v, ok := t.slots.Load(id)
	if !ok {
		return HandleExpiredError(id)
	}
	s := v.(*weakSlot)
	if s.tag == TagNull {
		return nil
	}
	if s.deinit != nil {
		s.deinit(s.ptr)
	}
	s.tag = TagNull
	s.ptr = nil
	return nil
}
