package translate

import "github.com/avast/dexjvm/dex"

// frame holds the per-method state InstructionTranslator needs across both
// passes: where the mapped register region starts, and each register's
// last-known category for disambiguating polymorphic tests (spec.md
// §4.7.1).
type frame struct {
	paramSlots int // P
	lastCat    map[int]dex.Category
}

func width(cat dex.Category) int {
	if cat == dex.CategoryLong || cat == dex.CategoryDouble {
		return 2
	}
	return 1
}

// slot maps source register r in category c to its destination local
// slot: P + r*K + c (spec.md §4.7.1).
func (f *frame) slot(r int, c dex.Category) int {
	return f.paramSlots + r*dex.NumCategories + int(c)
}

// categoryOf returns register r's last-known category, defaulting to int
// for a register the prologue and prior instructions never touched.
func (f *frame) categoryOf(r int) dex.Category {
	if c, ok := f.lastCat[r]; ok {
		return c
	}
	return dex.CategoryInt
}

func (f *frame) setCategory(r int, c dex.Category) {
	f.lastCat[r] = c
}

// currentSlot resolves r to the slot holding its last-known category —
// the slot a plain register reference (move, if-eqz, array index, ...)
// should read from.
func (f *frame) currentSlot(r int) int {
	return f.slot(r, f.categoryOf(r))
}
