package loader

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strconv"

	"github.com/osvaldoandrade/modelcheck/pkg/domain"
)

// decodeSBML streams the document and counts the elements of interest without
// building the full tree.
func decodeSBML(r io.Reader) (*domain.Model, error) {
	dec := xml.NewDecoder(r)
	m := &domain.Model{}
	var sawSBML, sawModel bool

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: sbml: %v", ErrInvalidModel, err)
		}
		se, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch se.Name.Local {
		case "sbml":
			sawSBML = true
			m.Level = atoi(attr(se, "level"))
			m.Version = atoi(attr(se, "version"))
		case "model":
			sawModel = true
			m.ID = attr(se, "id")
			m.Name = attr(se, "name")
		case "species":
			m.Metabolites++
		case "reaction":
			m.Reactions++
		case "compartment":
			m.Compartments++
		case "geneProduct":
			m.Genes++
		}
	}

	if !sawSBML {
		return nil, fmt.Errorf("%w: missing <sbml> root element", ErrInvalidModel)
	}
	if !sawModel {
		return nil, fmt.Errorf("%w: missing <model> element", ErrInvalidModel)
	}
	return m, nil
}

func attr(se xml.StartElement, name string) string {
	for _, a := range se.Attr {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
