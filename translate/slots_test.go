package translate

import (
	"testing"

	"github.com/avast/dexjvm/dex"
)

func TestSlotFormula(t *testing.T) {
	f := &frame{paramSlots: 2, lastCat: map[int]dex.Category{}}
	got := f.slot(3, dex.CategoryFloat)
	want := 2 + 3*dex.NumCategories + int(dex.CategoryFloat)
	if got != want {
		t.Errorf("slot(3, Float) = %d, want %d", got, want)
	}
}

func TestSlotNeverCollidesAcrossCategoriesForSameRegister(t *testing.T) {
	f := &frame{lastCat: map[int]dex.Category{}}
	seen := map[int]dex.Category{}
	for c := dex.CategoryInt; c <= dex.CategoryReference; c++ {
		s := f.slot(5, c)
		if prev, ok := seen[s]; ok {
			t.Fatalf("register 5 category %v and %v both map to slot %d", prev, c, s)
		}
		seen[s] = c
	}
}

func TestCategoryOfDefaultsToIntForUntouchedRegister(t *testing.T) {
	f := &frame{lastCat: map[int]dex.Category{}}
	if got := f.categoryOf(7); got != dex.CategoryInt {
		t.Errorf("categoryOf(untouched) = %v, want CategoryInt", got)
	}
}

func TestSetCategoryUpdatesCurrentSlot(t *testing.T) {
	f := &frame{lastCat: map[int]dex.Category{}}
	before := f.currentSlot(1)
	f.setCategory(1, dex.CategoryReference)
	after := f.currentSlot(1)
	if before == after {
		t.Errorf("currentSlot unchanged after setCategory: both %d", before)
	}
	want := f.slot(1, dex.CategoryReference)
	if after != want {
		t.Errorf("currentSlot after setCategory(Reference) = %d, want %d", after, want)
	}
}
