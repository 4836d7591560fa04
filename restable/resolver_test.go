package restable_test

import (
	"testing"

	"github.com/avast/dexjvm/restable"
)

func tableWithOneStringResource(defaultValue, frValue string) *restable.Table {
	entries := []*restable.Entry{
		{ID: 0, Name: "app_name", Value: &restable.Value{Kind: restable.ValueString, Str: defaultValue}},
	}
	frEntries := []*restable.Entry{
		{ID: 0, Name: "app_name", Value: &restable.Value{Kind: restable.ValueString, Str: frValue}},
	}
	pkg := &restable.Package{
		ID: 0x7f,
		Types: []*restable.TypeChunk{
			{TypeID: 1, Name: "string", Entries: entries},
			{TypeID: 1, Name: "string", Config: restable.Config{Language: [2]byte{'f', 'r'}}, Entries: frEntries},
		},
	}
	return &restable.Table{Packages: []*restable.Package{pkg}}
}

func TestResolverPicksLocaleMatch(t *testing.T) {
	table := tableWithOneStringResource("Hello", "Bonjour")
	id := uint32(0x7f010000)

	r := restable.NewResolver(table, restable.DeviceConfig{Language: "fr"})
	got, ok := r.ResolveString(id)
	if !ok || got != "Bonjour" {
		t.Errorf("ResolveString(fr) = (%q, %v), want (Bonjour, true)", got, ok)
	}

	r2 := restable.NewResolver(table, restable.DeviceConfig{Language: "de"})
	got2, ok2 := r2.ResolveString(id)
	if !ok2 || got2 != "Hello" {
		t.Errorf("ResolveString(de) = (%q, %v), want (Hello, true) falling back to the default variant", got2, ok2)
	}
}

func TestResolverReturnsFalseForWrongKind(t *testing.T) {
	table := tableWithOneStringResource("Hello", "Bonjour")
	r := restable.NewResolver(table, restable.DeviceConfig{})
	if _, ok := r.ResolveInteger(0x7f010000); ok {
		t.Error("ResolveInteger on a string resource: ok = true, want false")
	}
}

func TestResolverMissingResourceIsAbsent(t *testing.T) {
	table := tableWithOneStringResource("Hello", "Bonjour")
	r := restable.NewResolver(table, restable.DeviceConfig{})
	if _, ok := r.ResolveString(0x7f019999); ok {
		t.Error("ResolveString on a missing entry id: ok = true, want false")
	}
}

func TestSplitID(t *testing.T) {
	pkg, typ, entry := restable.SplitID(0x7f010203)
	if pkg != 0x7f || typ != 0x01 || entry != 0x0203 {
		t.Errorf("SplitID = (%#x, %#x, %#x), want (0x7f, 0x01, 0x0203)", pkg, typ, entry)
	}
}
