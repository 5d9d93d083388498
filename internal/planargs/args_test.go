package planargs

import (
	"errors"
	"testing"

	"github.com/wsmigrate/wsmigrate/internal/migerr"
)

func TestParseRunMigrationsMode(t *testing.T) {
	tests := []struct {
		name string
		opts Options
		want RunMigrations
	}{
		{
			name: "explicit path",
			opts: Options{RunMigrationsSet: true, RunMigrations: "custom.json"},
			want: RunMigrations{MigrationsFilePath: "custom.json"},
		},
		{
			name: "empty defaults to migrations.json",
			opts: Options{RunMigrationsSet: true, RunMigrations: ""},
			want: RunMigrations{MigrationsFilePath: "migrations.json"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.opts)
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			run, ok := got.(RunMigrations)
			if !ok {
				t.Fatalf("Parse() = %T, want RunMigrations", got)
			}
			if run != tt.want {
				t.Errorf("Parse() = %+v, want %+v", run, tt.want)
			}
		})
	}
}

func TestParsePackageAndVersionScenarios(t *testing.T) {
	tests := []struct {
		name        string
		raw         string
		wantPackage string
		wantVersion string
	}{
		{name: "legacy shorthand", raw: "13.9.0", wantPackage: "@nrwl/workspace", wantVersion: "13.9.0"},
		{name: "nx shorthand", raw: "16.0.0", wantPackage: "nx", wantVersion: "16.0.0"},
		{name: "latest tag", raw: "latest", wantPackage: "nx", wantVersion: "latest"},
		{name: "next tag", raw: "next", wantPackage: "nx", wantVersion: "next"},
		{name: "explicit pkg at version", raw: "@nrwl/workspace@15.0.0", wantPackage: "@nrwl/workspace", wantVersion: "15.0.0"},
		{name: "bare package name", raw: "@my/plugin", wantPackage: "@my/plugin", wantVersion: "latest"},
		{name: "numeric major only", raw: "14", wantPackage: "nx", wantVersion: "14"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(Options{PackageAndVersion: tt.raw})
			if err != nil {
				t.Fatalf("Parse() error = %v", err)
			}
			gen, ok := got.(GenerateMigrations)
			if !ok {
				t.Fatalf("Parse() = %T, want GenerateMigrations", got)
			}
			if gen.TargetPackage != tt.wantPackage || gen.TargetVersion != tt.wantVersion {
				t.Errorf("Parse(%q) = {%q, %q}, want {%q, %q}", tt.raw, gen.TargetPackage, gen.TargetVersion, tt.wantPackage, tt.wantVersion)
			}
		})
	}
}

func TestParseFromToLists(t *testing.T) {
	got, err := Parse(Options{From: "a@1.2.3,b@2.0.0"})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	gen := got.(GenerateMigrations)
	if gen.From["a"] != "1.2.3" || gen.From["b"] != "2.0.0" {
		t.Errorf("From = %v, want {a:1.2.3, b:2.0.0}", gen.From)
	}
}

func TestParseFromMalformedEntryIsInputError(t *testing.T) {
	_, err := Parse(Options{From: "bad"})
	if !errors.Is(err, migerr.ErrInputError) {
		t.Fatalf("expected ErrInputError, got %v", err)
	}
}

func TestParseNormalizesPackageNameSeparator(t *testing.T) {
	got, err := Parse(Options{PackageAndVersion: `@my\plugin`})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	gen := got.(GenerateMigrations)
	if gen.TargetPackage != "@my/plugin" {
		t.Errorf("TargetPackage = %q, want @my/plugin", gen.TargetPackage)
	}
}

func TestParseDefaultsWhenPackageAndVersionEmpty(t *testing.T) {
	got, err := Parse(Options{})
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	gen := got.(GenerateMigrations)
	if gen.TargetPackage != "nx" || gen.TargetVersion != "latest" {
		t.Errorf("Parse(empty) = {%q, %q}, want {nx, latest}", gen.TargetPackage, gen.TargetVersion)
	}
}
