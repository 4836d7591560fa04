package manifest_test

import (
	"testing"

	"github.com/avast/dexjvm/binxml"
	"github.com/avast/dexjvm/manifest"
)

func attr(name, value string) binxml.Attribute {
	return binxml.Attribute{Name: name, Value: binxml.Value{Kind: binxml.ValueString, Str: value}}
}

func intAttr(name string, v int32) binxml.Attribute {
	return binxml.Attribute{Name: name, Value: binxml.Value{Kind: binxml.ValueIntDec, Int: v}}
}

func TestInterpretNilDocument(t *testing.T) {
	m := manifest.Interpret(nil)
	if m.Package != "" || len(m.Activities) != 0 {
		t.Errorf("Interpret(nil) = %+v, want zero value", m)
	}
}

func TestInterpretPackageAndApplicationName(t *testing.T) {
	root := &binxml.Element{
		Name:  "manifest",
		Attrs: []binxml.Attribute{attr("package", "com.example.app")},
		Children: []*binxml.Element{
			{
				Name:  "application",
				Attrs: []binxml.Attribute{attr("name", ".MyApplication")},
			},
		},
	}
	m := manifest.Interpret(&binxml.Document{Root: root})
	if m.Package != "com.example.app" {
		t.Errorf("Package = %q, want com.example.app", m.Package)
	}
	if m.Application != "com.example.app.MyApplication" {
		t.Errorf("Application = %q, want com.example.app.MyApplication", m.Application)
	}
}

func TestResolveClassNameThreeForms(t *testing.T) {
	tests := []struct {
		pkg, name, want string
	}{
		{"com.example.app", ".Foo", "com.example.app.Foo"},
		{"com.example.app", "Foo", "com.example.app.Foo"},
		{"com.example.app", "com.other.Foo", "com.other.Foo"},
	}
	for _, tc := range tests {
		root := &binxml.Element{
			Name:  "manifest",
			Attrs: []binxml.Attribute{attr("package", tc.pkg)},
			Children: []*binxml.Element{
				{Name: "application", Attrs: []binxml.Attribute{attr("name", tc.name)}},
			},
		}
		m := manifest.Interpret(&binxml.Document{Root: root})
		if m.Application != tc.want {
			t.Errorf("resolveClassName(%q, %q) = %q, want %q", tc.pkg, tc.name, m.Application, tc.want)
		}
	}
}

func intentFilter(actionName, categoryName string) *binxml.Element {
	f := &binxml.Element{Name: "intent-filter"}
	if actionName != "" {
		f.Children = append(f.Children, &binxml.Element{
			Name:  "action",
			Attrs: []binxml.Attribute{attr("name", actionName)},
		})
	}
	if categoryName != "" {
		f.Children = append(f.Children, &binxml.Element{
			Name:  "category",
			Attrs: []binxml.Attribute{attr("name", categoryName)},
		})
	}
	return f
}

func TestInterpretLauncherActivity(t *testing.T) {
	activity := &binxml.Element{
		Name:  "activity",
		Attrs: []binxml.Attribute{attr("name", ".MainActivity")},
		Children: []*binxml.Element{
			intentFilter("android.intent.action.MAIN", "android.intent.category.LAUNCHER"),
		},
	}
	root := &binxml.Element{
		Name:  "manifest",
		Attrs: []binxml.Attribute{attr("package", "com.example.app")},
		Children: []*binxml.Element{
			{Name: "application", Children: []*binxml.Element{activity}},
		},
	}
	m := manifest.Interpret(&binxml.Document{Root: root})
	if len(m.Activities) != 1 {
		t.Fatalf("Activities = %d, want 1", len(m.Activities))
	}
	a := m.Activities[0]
	if !a.IsLauncher || !a.IsMain {
		t.Errorf("activity = %+v, want IsLauncher=true IsMain=true", a)
	}
	if a.Name != "com.example.app.MainActivity" {
		t.Errorf("activity name = %q, want com.example.app.MainActivity", a.Name)
	}
}

func TestInterpretActivityAliasMergesFlagsOntoTarget(t *testing.T) {
	// The real activity declares no intent filter; only its alias does.
	// The merge must surface IsLauncher/IsMain on the activity's own name,
	// not the alias's.
	activity := &binxml.Element{
		Name:  "activity",
		Attrs: []binxml.Attribute{attr("name", ".MainActivity")},
	}
	alias := &binxml.Element{
		Name: "activity-alias",
		Attrs: []binxml.Attribute{
			attr("targetActivity", ".MainActivity"),
		},
		Children: []*binxml.Element{
			intentFilter("android.intent.action.MAIN", "android.intent.category.LAUNCHER"),
		},
	}
	root := &binxml.Element{
		Name:  "manifest",
		Attrs: []binxml.Attribute{attr("package", "com.example.app")},
		Children: []*binxml.Element{
			{Name: "application", Children: []*binxml.Element{activity, alias}},
		},
	}
	m := manifest.Interpret(&binxml.Document{Root: root})
	if len(m.Activities) != 1 {
		t.Fatalf("Activities = %d, want 1 (alias merges onto its target)", len(m.Activities))
	}
	a := m.Activities[0]
	if a.Name != "com.example.app.MainActivity" {
		t.Errorf("merged activity name = %q, want com.example.app.MainActivity", a.Name)
	}
	if !a.IsLauncher || !a.IsMain {
		t.Errorf("merged activity = %+v, want IsLauncher=true IsMain=true", a)
	}
}

func TestInterpretUsesSDKAndPermissions(t *testing.T) {
	root := &binxml.Element{
		Name:  "manifest",
		Attrs: []binxml.Attribute{attr("package", "com.example.app")},
		Children: []*binxml.Element{
			{Name: "uses-sdk", Attrs: []binxml.Attribute{intAttr("minSdkVersion", 21), intAttr("targetSdkVersion", 33)}},
			{Name: "uses-permission", Attrs: []binxml.Attribute{attr("name", "android.permission.INTERNET")}},
			{Name: "uses-permission", Attrs: []binxml.Attribute{attr("name", "android.permission.CAMERA")}},
		},
	}
	m := manifest.Interpret(&binxml.Document{Root: root})
	if m.UsesSDK.MinSdkVersion != 21 || m.UsesSDK.TargetSdkVersion != 33 {
		t.Errorf("UsesSDK = %+v, want {21 33}", m.UsesSDK)
	}
	if len(m.Permissions) != 2 || m.Permissions[0] != "android.permission.INTERNET" {
		t.Errorf("Permissions = %v, want [android.permission.INTERNET android.permission.CAMERA]", m.Permissions)
	}
}
