package slha_test

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/llpbakery/effmap/internal/adapters/slha"
)

const model = `BLOCK MODSEL  # Model selection
    1     0   # generic model
BLOCK MASS  # Mass Spectrum
# PDG code           mass       particle
   1000015     5.00000000E+02   # ~tau_1
   1000022     1.00000000E+02   # ~chi_10
`

func writeModel(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "m500.slha")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestReadMasses(t *testing.T) {
	path := writeModel(t, model)

	masses, err := slha.ReadMasses(path, []int{1000022, 1000015})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if masses[0] != 100 || masses[1] != 500 {
		t.Errorf("unexpected masses %v", masses)
	}

	if _, err := slha.ReadMasses(path, []int{1000024}); !errors.Is(err, slha.ErrMissingMass) {
		t.Errorf("expected ErrMissingMass, got %v", err)
	}
}

func TestReadMassesWithoutBlock(t *testing.T) {
	path := writeModel(t, "BLOCK MODSEL\n    1     0\n")
	if _, err := slha.ReadMasses(path, []int{1000015}); !errors.Is(err, slha.ErrNoMassBlock) {
		t.Errorf("expected ErrNoMassBlock, got %v", err)
	}
}

func TestReadMassesMissingFile(t *testing.T) {
	if _, err := slha.ReadMasses(filepath.Join(t.TempDir(), "nope.slha"), []int{1}); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("expected not-exist error, got %v", err)
	}
}
