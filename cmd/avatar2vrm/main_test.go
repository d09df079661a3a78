package main

import "testing"

func TestDefaultOutputFile(t *testing.T) {
	cases := map[string]string{
		"Assets/Avatar/Avatar.prefab": "Avatar.vrm",
		"Assets/Scenes/Main.unity":    "Main.vrm",
		"Model":                       "Model.vrm",
	}
	for in, want := range cases {
		if got := defaultOutputFile(in); got != want {
			t.Errorf("defaultOutputFile(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestOpenAssetsMissing(t *testing.T) {
	if _, err := openAssets("no/such/input"); err == nil {
		t.Error("expected error")
	}
}
