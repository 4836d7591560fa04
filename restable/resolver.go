package restable

// Resolver is the typed lookup surface over a Table plus a held device
// configuration, spec.md §4.9 and §6. It holds a non-owning handle to the
// table and an owned copy of the device configuration.
type Resolver struct {
	table  *Table
	device DeviceConfig
}

// NewResolver ties a Table to a device configuration.
func NewResolver(table *Table, device DeviceConfig) *Resolver {
	return &Resolver{table: table, device: device}
}

// winner runs the configuration matcher over id's variants and returns the
// winning entry, or (nil, false) when the id has no variants or every
// variant was eliminated.
func (r *Resolver) winner(id uint32) (*Entry, bool) {
	variants := r.table.Variants(id)
	if len(variants) == 0 {
		return nil, false
	}
	idx := BestMatch(variants, r.device)
	if idx < 0 {
		return nil, false
	}
	return variants[idx].Entry, true
}

// ResolveString resolves a string resource.
func (r *Resolver) ResolveString(id uint32) (string, bool) {
	e, ok := r.winner(id)
	if !ok || e.Value == nil || e.Value.Kind != ValueString {
		return "", false
	}
	return e.Value.Str, true
}

// ResolveLayout resolves a layout resource, which is encoded the same way
// as a plain string (a file-path reference into the APK).
func (r *Resolver) ResolveLayout(id uint32) (string, bool) {
	return r.ResolveString(id)
}

// ResolveInteger resolves an integer resource.
func (r *Resolver) ResolveInteger(id uint32) (int32, bool) {
	e, ok := r.winner(id)
	if !ok || e.Value == nil || e.Value.Kind != ValueInt {
		return 0, false
	}
	return e.Value.Int, true
}

// ResolveBoolean resolves a boolean resource.
func (r *Resolver) ResolveBoolean(id uint32) (bool, bool) {
	e, ok := r.winner(id)
	if !ok || e.Value == nil || e.Value.Kind != ValueBool {
		return false, false
	}
	return e.Value.Bool, true
}

// ResolveColor resolves an ARGB color resource.
func (r *Resolver) ResolveColor(id uint32) (uint32, bool) {
	e, ok := r.winner(id)
	if !ok || e.Value == nil || e.Value.Kind != ValueColor {
		return 0, false
	}
	return e.Value.Color, true
}

// ResolveDimension resolves a dimension resource, returning its value in
// the declared unit (spec.md §4.9 does not ask the resolver to convert
// between units -- that needs a display metric the resolver doesn't own).
func (r *Resolver) ResolveDimension(id uint32) (float32, string, bool) {
	e, ok := r.winner(id)
	if !ok || e.Value == nil || e.Value.Kind != ValueDimension {
		return 0, "", false
	}
	return e.Value.Dim, e.Value.Unit, true
}
