package restable

import "testing"

func TestBestMatchSingleCandidateShortCircuits(t *testing.T) {
	variants := []Variant{{Config: Config{Density: 320}}}
	if got := BestMatch(variants, DeviceConfig{Density: 160}); got != 0 {
		t.Errorf("BestMatch single candidate = %d, want 0", got)
	}
}

func TestBestMatchEliminatesContradictingLanguage(t *testing.T) {
	en := Variant{Config: Config{Language: [2]byte{'e', 'n'}}}
	fr := Variant{Config: Config{Language: [2]byte{'f', 'r'}}}
	got := BestMatch([]Variant{en, fr}, DeviceConfig{Language: "fr"})
	if got != 1 {
		t.Errorf("BestMatch language contradiction = %d, want 1 (fr)", got)
	}
}

func TestBestMatchEverythingContradictsReturnsNegativeOne(t *testing.T) {
	en := Variant{Config: Config{Language: [2]byte{'e', 'n'}}}
	fr := Variant{Config: Config{Language: [2]byte{'f', 'r'}}}
	got := BestMatch([]Variant{en, fr}, DeviceConfig{Language: "de"})
	if got != -1 {
		t.Errorf("BestMatch all contradict = %d, want -1", got)
	}
}

func TestBestMatchLocaleBeatsDensity(t *testing.T) {
	// A candidate matching the device's language should win over one that
	// only matches density more closely, since language is filtered before
	// density in the priority order (spec.md §4.4 step 2).
	matchesLang := Variant{Config: Config{Language: [2]byte{'f', 'r'}, Density: 120}}
	matchesDensity := Variant{Config: Config{Density: 160}}
	got := BestMatch([]Variant{matchesLang, matchesDensity}, DeviceConfig{Language: "fr", Density: 160})
	if got != 0 {
		t.Errorf("BestMatch locale-vs-density = %d, want 0 (the locale match)", got)
	}
}

func TestDensityDistancePenalizesUpscaleTwiceAsMuch(t *testing.T) {
	// A declared density below the device (upscale) of the same absolute
	// gap as one above it (downscale) must lose.
	below := candidate{idx: 0, cfg: Config{Density: 120}} // device 160: upscale by 40
	above := candidate{idx: 1, cfg: Config{Density: 200}} // device 160: downscale by 40
	pool := filterByDensity([]candidate{below, above}, 160)
	if len(pool) != 1 || pool[0].idx != 1 {
		t.Errorf("filterByDensity symmetric gap = %+v, want the downscale candidate (idx 1) to win", pool)
	}
}

func TestFilterByScreenSizePicksLargestFittingSize(t *testing.T) {
	small := candidate{idx: 0, cfg: Config{ScreenLayout: byte(ScreenSizeSmall)}}
	normal := candidate{idx: 1, cfg: Config{ScreenLayout: byte(ScreenSizeNormal)}}
	large := candidate{idx: 2, cfg: Config{ScreenLayout: byte(ScreenSizeLarge)}}
	pool := filterByScreenSize([]candidate{small, normal, large}, byte(ScreenSizeNormal))
	if len(pool) != 1 || pool[0].idx != 1 {
		t.Errorf("filterByScreenSize = %+v, want the normal candidate (idx 1); large overshoots the device", pool)
	}
}

func TestFilterByMaxSDKPicksHighestDeclared(t *testing.T) {
	v21 := candidate{idx: 0, cfg: Config{SDKVersion: 21}}
	v29 := candidate{idx: 1, cfg: Config{SDKVersion: 29}}
	pool := filterByMaxSDK([]candidate{v21, v29})
	if len(pool) != 1 || pool[0].idx != 1 {
		t.Errorf("filterByMaxSDK = %+v, want the higher-SDK candidate (idx 1)", pool)
	}
}

func TestContradictsSDKAboveDevice(t *testing.T) {
	cfg := Config{SDKVersion: 30}
	if !contradicts(cfg, DeviceConfig{SDKVersion: 21}) {
		t.Error("contradicts: a variant requiring a higher SDK than the device should contradict")
	}
	if contradicts(cfg, DeviceConfig{SDKVersion: 33}) {
		t.Error("contradicts: a variant requiring an SDK the device exceeds should not contradict")
	}
}

func TestContradictsScreenSizeAboveDevice(t *testing.T) {
	cfg := Config{ScreenLayout: byte(ScreenSizeXLarge)}
	if !contradicts(cfg, DeviceConfig{ScreenSize: ScreenSizeSmall}) {
		t.Error("contradicts: an xlarge-only variant on a small-screen device should contradict")
	}
}

func TestBestMatchNightModeSelection(t *testing.T) {
	day := Variant{Config: Config{UIMode: byte(1) << 4}}
	night := Variant{Config: Config{UIMode: byte(2) << 4}}
	got := BestMatch([]Variant{day, night}, DeviceConfig{NightMode: NightModeYes})
	if got != 1 {
		t.Errorf("BestMatch night mode = %d, want 1 (the night variant)", got)
	}
}
