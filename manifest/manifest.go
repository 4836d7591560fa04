// Package manifest walks a parsed binary-XML document into the shape a
// caller actually wants: package name, application class, activities (with
// launcher/MAIN detection and activity-alias merging), plus the uses-sdk
// and uses-permission declarations most real manifest consumers also need
// (spec.md §4.8 and its supplement).
package manifest

import (
	"strings"

	"github.com/avast/dexjvm/binxml"
	"github.com/samber/lo"
)

const (
	actionMain       = "android.intent.action.MAIN"
	categoryLauncher = "android.intent.category.LAUNCHER"
)

// Activity is one <activity> (or alias target), with its launcher/MAIN
// intent-filter flags OR-merged across every declaration that names it.
type Activity struct {
	Name       string
	IsLauncher bool
	IsMain     bool
}

// UsesSDK is the <uses-sdk> declaration, zero-valued fields meaning
// "not declared."
type UsesSDK struct {
	MinSdkVersion    int
	TargetSdkVersion int
}

// Manifest is the application manifest's interpreted form.
type Manifest struct {
	Package     string
	Application string // resolved application class name, "" if undeclared
	Activities  []Activity
	UsesSDK     UsesSDK
	Permissions []string
}

// Interpret walks doc per spec.md §4.8.
func Interpret(doc *binxml.Document) Manifest {
	var m Manifest
	if doc == nil || doc.Root == nil {
		return m
	}
	root := doc.Root
	m.Package = root.AttrString("package")

	type flagged struct {
		name       string
		isLauncher bool
		isMain     bool
	}
	var declared []flagged

	for _, child := range root.Children {
		switch child.Name {
		case "application":
			if name := child.AttrString("name"); name != "" {
				m.Application = resolveClassName(m.Package, name)
			}
			for _, grandchild := range child.Children {
				switch grandchild.Name {
				case "activity":
					f := flaggedFromActivity(grandchild)
					if f.name != "" {
						f.name = resolveClassName(m.Package, f.name)
					}
					declared = append(declared, flagged(f))
				case "activity-alias":
					if target := grandchild.AttrString("targetActivity"); target != "" {
						f := flaggedFromActivity(grandchild)
						f.name = resolveClassName(m.Package, target)
						declared = append(declared, flagged(f))
					}
				}
			}
		case "uses-sdk":
			if v, ok := attrInt(child, "minSdkVersion"); ok {
				m.UsesSDK.MinSdkVersion = v
			}
			if v, ok := attrInt(child, "targetSdkVersion"); ok {
				m.UsesSDK.TargetSdkVersion = v
			}
		case "uses-permission":
			if name := child.AttrString("name"); name != "" {
				m.Permissions = append(m.Permissions, name)
			}
		}
	}

	groups := lo.GroupBy(declared, func(f flagged) string { return f.name })
	seen := make(map[string]bool, len(groups))
	for _, f := range declared {
		if seen[f.name] {
			continue
		}
		seen[f.name] = true
		merged := Activity{Name: f.name}
		for _, g := range groups[f.name] {
			merged.IsLauncher = merged.IsLauncher || g.isLauncher
			merged.IsMain = merged.IsMain || g.isMain
		}
		m.Activities = append(m.Activities, merged)
	}

	return m
}

type flaggedActivity struct {
	name       string
	isLauncher bool
	isMain     bool
}

func flaggedFromActivity(el *binxml.Element) flaggedActivity {
	f := flaggedActivity{name: el.AttrString("name")}
	for _, filter := range el.ChildrenNamed("intent-filter") {
		for _, action := range filter.ChildrenNamed("action") {
			if action.AttrString("name") == actionMain {
				f.isMain = true
			}
		}
		for _, cat := range filter.ChildrenNamed("category") {
			if cat.AttrString("name") == categoryLauncher {
				f.isLauncher = true
			}
		}
	}
	return f
}

// attrInt reads an attribute's decoded integer value, whether it was
// encoded as a decimal or hex int (spec.md §4.2's two int value kinds).
func attrInt(el *binxml.Element, name string) (int, bool) {
	a, ok := el.Attr(name)
	if !ok {
		return 0, false
	}
	switch a.Value.Kind {
	case binxml.ValueIntDec, binxml.ValueIntHex:
		return int(a.Value.Int), true
	default:
		return 0, false
	}
}

// resolveClassName implements spec.md §4.8's three dotted-name forms:
// ".Foo" -> "<pkg>.Foo", "Foo" -> "<pkg>.Foo", "com.x.Foo" -> unchanged.
func resolveClassName(pkg, name string) string {
	switch {
	case strings.HasPrefix(name, "."):
		return pkg + name
	case strings.Contains(name, "."):
		return name
	default:
		return pkg + "." + name
	}
}
