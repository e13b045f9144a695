package pkginfo

import (
	"bytes"
	"reflect"
	"strings"
	"testing"
)

func TestParser_Parse_RoundTrip(t *testing.T) {
	m := sampleMetadata()
	var buf bytes.Buffer
	if err := NewEmitter(&buf).Emit(m); err != nil {
		t.Fatal(err)
	}

	got, err := NewParser(&buf).Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}

	// package data is not part of PKG-INFO
	m.PackageData = nil
	if !reflect.DeepEqual(got, m) {
		t.Errorf("Parse() =\n%+v\nwant\n%+v", got, m)
	}
}

func TestParser_Parse_Continuation(t *testing.T) {
	input := "Metadata-Version: 2.1\nName: demo\nVersion: 1.0\nLicense: MIT\n        Copyright (c) 2024\nX-Unknown: ignored\n"

	got, err := NewParser(strings.NewReader(input)).Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got.License != "MIT\nCopyright (c) 2024" {
		t.Errorf("License = %q", got.License)
	}
	if got.Description != "" {
		t.Errorf("Description = %q, want empty", got.Description)
	}
}

func TestParser_Parse_MultilineLicense(t *testing.T) {
	m := sampleMetadata()
	m.License = "MIT License\n\nCopyright (c) 2024 Hemant Nagar"

	var buf bytes.Buffer
	if err := NewEmitter(&buf).Emit(m); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), "License: MIT License\n        \n        Copyright (c) 2024 Hemant Nagar\n") {
		t.Errorf("License not emitted with continuation lines:\n%s", buf.String())
	}

	got, err := NewParser(&buf).Parse()
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if got.License != m.License {
		t.Errorf("License = %q, want %q", got.License, m.License)
	}
	if got.Description != m.Description {
		t.Errorf("Description = %q, want %q", got.Description, m.Description)
	}
}

func TestParser_Parse_Errors(t *testing.T) {
	tests := []struct {
		name  string
		input string
	}{
		{"missing version", "Metadata-Version: 2.1\nName: demo\n"},
		{"malformed header", "Metadata-Version: 2.1\nnot a header\n"},
		{"bad requirement", "Name: demo\nVersion: 1\nRequires-Dist: torch=>1\n"},
		{"bad project url", "Name: demo\nVersion: 1\nProject-URL: nourl\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := NewParser(strings.NewReader(tt.input)).Parse(); err == nil {
				t.Error("Parse() error = nil")
			}
		})
	}
}
