// Package slha reads particle masses from SUSY Les Houches Accord model files.
package slha

import (
	"errors"
	"fmt"
	"os"

	hepslha "go-hep.org/x/hep/slha"
)

const massBlock = "MASS"

// Sentinel kinds for model file errors.
var (
	ErrNoMassBlock = errors.New("model file has no MASS block")
	ErrMissingMass = errors.New("mass not listed in MASS block")
)

// ReadMasses returns the MASS block entry of every requested PDG code, in
// the order requested.
func ReadMasses(path string, pdgs []int) ([]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := hepslha.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}

	blk := data.Blocks.Get(massBlock)
	if blk == nil {
		return nil, fmt.Errorf("%s: %w", path, ErrNoMassBlock)
	}

	masses := make([]float64, len(pdgs))
	for i, pdg := range pdgs {
		val, err := blk.Get(pdg)
		if err != nil {
			return nil, fmt.Errorf("%s: pdg %d: %w", path, pdg, ErrMissingMass)
		}
		masses[i] = val.Float()
	}
	return masses, nil
}
