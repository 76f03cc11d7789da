package main

import (
	"path/filepath"
	"reflect"
	"testing"

	"github.com/Carmen-Shannon/oxy-anim/engine/loader"
	"github.com/Carmen-Shannon/oxy-anim/engine/parameter"
)

func TestBoneNamesFromShippedDefinition(t *testing.T) {
	m, err := loader.NewLoader(loader.BackendTypeYAML).Load(filepath.Join("..", "..", defaultDefPath))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	got := boneNames(m, "root")
	want := []string{"root", "arm_r", "hips", "leg_l", "leg_r", "spine"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("boneNames = %v, want %v", got, want)
	}
}

func TestBar(t *testing.T) {
	tests := []struct {
		fraction float64
		want     string
	}{
		{0, "····"},
		{0.5, "██··"},
		{1, "████"},
		{2, "████"},
		{-1, "····"},
	}
	for _, tt := range tests {
		if got := bar(tt.fraction, 4); got != tt.want {
			t.Errorf("bar(%v) = %q, want %q", tt.fraction, got, tt.want)
		}
	}
}

func TestParamValue(t *testing.T) {
	f := parameter.New("speed", parameter.KindFloat)
	f.Float = 0.25
	i := parameter.New("emote", parameter.KindInt)
	i.Int = 2
	b := parameter.New("grounded", parameter.KindBool)
	b.Bool = true

	for p, want := range map[*parameter.Parameter]string{&f: "0.25", &i: "2", &b: "true"} {
		if got := paramValue(*p); got != want {
			t.Errorf("paramValue(%s) = %q, want %q", p.Name, got, want)
		}
	}
}

func TestUnique(t *testing.T) {
	got := unique([]string{"a", "b", "a", "c", "b"})
	if !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Fatalf("unique = %v", got)
	}
}
