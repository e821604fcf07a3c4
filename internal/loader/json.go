package loader

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/osvaldoandrade/modelcheck/pkg/domain"
)

// jsonModel is the subset of the cobra JSON schema needed for a summary.
type jsonModel struct {
	ID           string            `json:"id"`
	Name         string            `json:"name"`
	Metabolites  []json.RawMessage `json:"metabolites"`
	Reactions    []json.RawMessage `json:"reactions"`
	Genes        []json.RawMessage `json:"genes"`
	Compartments map[string]string `json:"compartments"`
}

func decodeJSON(r io.Reader) (*domain.Model, error) {
	var jm jsonModel
	if err := json.NewDecoder(r).Decode(&jm); err != nil {
		return nil, fmt.Errorf("%w: json: %v", ErrInvalidModel, err)
	}
	if jm.Reactions == nil && jm.Metabolites == nil {
		return nil, fmt.Errorf("%w: json has neither reactions nor metabolites", ErrInvalidModel)
	}
	return &domain.Model{
		ID:           jm.ID,
		Name:         jm.Name,
		Metabolites:  len(jm.Metabolites),
		Reactions:    len(jm.Reactions),
		Genes:        len(jm.Genes),
		Compartments: len(jm.Compartments),
	}, nil
}
