package restable

import "github.com/samber/lo"

// candidate pairs a Variant's original index with its Config, so filtering
// steps can narrow the pool while still reporting the winner's position in
// the caller's original slice.
type candidate struct {
	idx int
	cfg Config
}

// BestMatch implements spec.md §4.4's two-step best-match algorithm:
// eliminate candidates that contradict the device configuration, then
// apply an ordered qualifier-priority filter until one candidate remains.
// Returns the winning candidate's index, or -1 if every candidate
// contradicts the device.
func BestMatch(candidates []Variant, device DeviceConfig) int {
	if len(candidates) == 0 {
		return -1
	}
	if len(candidates) == 1 {
		return 0 // short-circuit, spec.md §8 "Matcher short-circuit"
	}

	pool := make([]candidate, len(candidates))
	for i, c := range candidates {
		pool[i] = candidate{idx: i, cfg: c.Config}
	}

	pool = lo.Filter(pool, func(c candidate, _ int) bool { return !contradicts(c.cfg, device) })
	if len(pool) == 0 {
		return -1
	}

	pool = narrowOrKeep(pool, lo.Filter(pool, func(c candidate, _ int) bool {
		return c.cfg.languageStr() == device.Language
	}))

	pool = narrowOrKeep(pool, lo.Filter(pool, func(c candidate, _ int) bool {
		return c.cfg.NightMode() == byte(device.NightMode)
	}))

	pool = filterByDensity(pool, device.Density)

	pool = narrowOrKeep(pool, lo.Filter(pool, func(c candidate, _ int) bool {
		return c.cfg.Orientation == byte(device.Orientation)
	}))

	pool = filterByScreenSize(pool, byte(device.ScreenSize))

	pool = filterByMaxSDK(pool)

	return pool[0].idx
}

// narrowOrKeep implements the "keep only X; if none, keep all" refrain that
// shows up repeatedly in spec.md §4.4 step 2.
func narrowOrKeep(pool, narrowed []candidate) []candidate {
	if len(narrowed) == 0 {
		return pool
	}
	return narrowed
}

// contradicts implements spec.md §4.4 step 1.
func contradicts(c Config, device DeviceConfig) bool {
	if lang := c.languageStr(); lang != "" && lang != device.Language {
		return true
	}
	if country := c.countryStr(); country != "" && country != device.Country {
		return true
	}
	if c.Orientation != 0 && c.Orientation != byte(device.Orientation) {
		return true
	}
	if c.NightMode() != 0 && c.NightMode() != byte(device.NightMode) {
		return true
	}
	if s := c.ScreenSize(); s != 0 && s > byte(device.ScreenSize) {
		return true
	}
	if c.SDKVersion != 0 && c.SDKVersion > device.SDKVersion {
		return true
	}
	return false
}

// filterByDensity implements spec.md §4.4 step 2.3: among declared-density
// candidates, keep the single minimiser of the asymmetric distance
// function that penalises up-scaling twice as heavily as down-scaling.
func filterByDensity(pool []candidate, deviceDensity uint16) []candidate {
	declared := lo.Filter(pool, func(c candidate, _ int) bool { return c.cfg.Density != 0 })
	if len(declared) == 0 {
		return pool
	}
	best := declared[0]
	bestDist := densityDistance(best.cfg.Density, deviceDensity)
	for _, c := range declared[1:] {
		if d := densityDistance(c.cfg.Density, deviceDensity); d < bestDist {
			best, bestDist = c, d
		}
	}
	return []candidate{best}
}

func densityDistance(d, device uint16) int {
	if d >= device {
		return int(d) - int(device)
	}
	return 2 * (int(device) - int(d))
}

// filterByScreenSize implements spec.md §4.4 step 2.5.
func filterByScreenSize(pool []candidate, device byte) []candidate {
	fitting := lo.Filter(pool, func(c candidate, _ int) bool {
		s := c.cfg.ScreenSize()
		return s != 0 && s <= device
	})
	if len(fitting) == 0 {
		return pool
	}
	maxSize := lo.MaxBy(fitting, func(a, b candidate) bool { return a.cfg.ScreenSize() > b.cfg.ScreenSize() }).cfg.ScreenSize()
	return lo.Filter(fitting, func(c candidate, _ int) bool { return c.cfg.ScreenSize() == maxSize })
}

// filterByMaxSDK implements spec.md §4.4 step 2.6.
func filterByMaxSDK(pool []candidate) []candidate {
	declared := lo.Filter(pool, func(c candidate, _ int) bool { return c.cfg.SDKVersion != 0 })
	if len(declared) == 0 {
		return pool
	}
	maxSDK := lo.MaxBy(declared, func(a, b candidate) bool { return a.cfg.SDKVersion > b.cfg.SDKVersion }).cfg.SDKVersion
	return lo.Filter(declared, func(c candidate, _ int) bool { return c.cfg.SDKVersion == maxSDK })
}
