package loader

import (
	"bytes"
	"compress/gzip"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/osvaldoandrade/modelcheck/pkg/domain"
)

const sampleSBML = `<?xml version="1.0" encoding="UTF-8"?>
<sbml xmlns="http://www.sbml.org/sbml/level3/version1/core" xmlns:fbc="http://www.sbml.org/sbml/level3/version1/fbc/version2" level="3" version="1">
  <model id="e_coli_core" name="E. coli core model">
    <listOfCompartments>
      <compartment id="c"/>
      <compartment id="e"/>
    </listOfCompartments>
    <listOfSpecies>
      <species id="M_glc__D_e" compartment="e"/>
      <species id="M_g6p_c" compartment="c"/>
      <species id="M_atp_c" compartment="c"/>
    </listOfSpecies>
    <listOfReactions>
      <reaction id="R_HEX1">
        <listOfReactants><speciesReference species="M_glc__D_e"/></listOfReactants>
      </reaction>
      <reaction id="R_PGI"/>
    </listOfReactions>
    <fbc:listOfGeneProducts>
      <fbc:geneProduct fbc:id="G_b2388"/>
    </fbc:listOfGeneProducts>
  </model>
</sbml>`

func TestLoad_SBML(t *testing.T) {
	path := write(t, "e_coli_core.xml", []byte(sampleSBML))

	m, err := NewFileLoader().Load(context.Background(), path, domain.FormatSBML)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.ID != "e_coli_core" || m.Name != "E. coli core model" {
		t.Errorf("unexpected identity: %+v", m)
	}
	if m.Level != 3 || m.Version != 1 {
		t.Errorf("level/version = %d/%d", m.Level, m.Version)
	}
	if m.Metabolites != 3 || m.Reactions != 2 || m.Compartments != 2 || m.Genes != 1 {
		t.Errorf("unexpected counts: %+v", m)
	}
	if m.Path != path || m.Format != domain.FormatSBML {
		t.Errorf("path/format not set: %+v", m)
	}
}

func TestLoad_SBMLGzip(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	if _, err := gz.Write([]byte(sampleSBML)); err != nil {
		t.Fatal(err)
	}
	if err := gz.Close(); err != nil {
		t.Fatal(err)
	}
	path := write(t, "e_coli_core.xml.gz", buf.Bytes())

	m, err := NewFileLoader().Load(context.Background(), path, domain.FormatSBMLGzip)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.Reactions != 2 || m.ID != "e_coli_core" {
		t.Errorf("unexpected model: %+v", m)
	}
}

func TestLoad_SBMLGzipNotCompressed(t *testing.T) {
	path := write(t, "plain.xml.gz", []byte(sampleSBML))
	if _, err := NewFileLoader().Load(context.Background(), path, domain.FormatSBMLGzip); err == nil {
		t.Fatal("expected gzip error")
	}
}

func TestLoad_SBMLInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"not xml", "this is not xml <"},
		{"no sbml root", `<root><model id="x"/></root>`},
		{"no model", `<sbml level="3" version="1"></sbml>`},
		{"empty", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := write(t, "bad.xml", []byte(tt.body))
			_, err := NewFileLoader().Load(context.Background(), path, domain.FormatSBML)
			if !errors.Is(err, ErrInvalidModel) {
				t.Fatalf("expected ErrInvalidModel, got %v", err)
			}
		})
	}
}

func TestLoad_JSON(t *testing.T) {
	body := `{"id":"iMM904","name":"yeast","metabolites":[{"id":"a"},{"id":"b"}],` +
		`"reactions":[{"id":"r1"}],"genes":[{"id":"g1"},{"id":"g2"},{"id":"g3"}],"compartments":{"c":"cytosol"}}`
	path := write(t, "iMM904.json", []byte(body))

	m, err := NewFileLoader().Load(context.Background(), path, domain.FormatJSON)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.ID != "iMM904" || m.Metabolites != 2 || m.Reactions != 1 || m.Genes != 3 || m.Compartments != 1 {
		t.Errorf("unexpected model: %+v", m)
	}
}

func TestLoad_JSONWithoutNetwork(t *testing.T) {
	path := write(t, "empty.json", []byte(`{"id":"x"}`))
	if _, err := NewFileLoader().Load(context.Background(), path, domain.FormatJSON); !errors.Is(err, ErrInvalidModel) {
		t.Fatalf("expected ErrInvalidModel, got %v", err)
	}
}

func TestLoad_MAT(t *testing.T) {
	hdr := make([]byte, 128)
	copy(hdr, "MATLAB 5.0 MAT-file, Platform: GLNXA64, Created on: Mon Jan  1 00:00:00 2018")
	for i := len("MATLAB 5.0 MAT-file, Platform: GLNXA64, Created on: Mon Jan  1 00:00:00 2018"); i < 116; i++ {
		hdr[i] = ' '
	}
	hdr[124], hdr[125] = 0x00, 0x01
	hdr[126], hdr[127] = 'I', 'M'
	path := write(t, "Recon3D.mat", append(hdr, 0x0e, 0, 0, 0))

	m, err := NewFileLoader().Load(context.Background(), path, domain.FormatMAT)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if m.ID != "Recon3D" {
		t.Errorf("ID = %q, want file stem", m.ID)
	}
}

func TestLoad_MATInvalid(t *testing.T) {
	short := write(t, "short.mat", []byte("MATLAB"))
	if _, err := NewFileLoader().Load(context.Background(), short, domain.FormatMAT); !errors.Is(err, ErrInvalidModel) {
		t.Fatalf("short file: expected ErrInvalidModel, got %v", err)
	}

	hdr := bytes.Repeat([]byte{' '}, 128)
	copy(hdr, "not a matlab file")
	bad := write(t, "bad.mat", hdr)
	if _, err := NewFileLoader().Load(context.Background(), bad, domain.FormatMAT); !errors.Is(err, ErrInvalidModel) {
		t.Fatalf("bad header: expected ErrInvalidModel, got %v", err)
	}
}

func TestLoad_Errors(t *testing.T) {
	l := NewFileLoader()

	if _, err := l.Load(context.Background(), filepath.Join(t.TempDir(), "missing.xml"), domain.FormatSBML); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("missing file: got %v", err)
	}

	path := write(t, "a.sbml", []byte(sampleSBML))
	if _, err := l.Load(context.Background(), path, domain.Format(".sbml")); !errors.Is(err, ErrUnsupportedFormat) {
		t.Errorf("unsupported format: got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := l.Load(ctx, path, domain.FormatSBML); !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled context: got %v", err)
	}
}

func write(t *testing.T, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}
