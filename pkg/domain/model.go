package domain

// Model is the in-memory view of a metabolic network loaded from one file.
// It is built fresh for every task and dropped once the check returns.
type Model struct {
	Path    string `json:"path"`
	Format  Format `json:"format"`
	ID      string `json:"id"`
	Name    string `json:"name,omitempty"`
	Level   int    `json:"level,omitempty"`
	Version int    `json:"version,omitempty"`

	Metabolites  int `json:"metabolites"`
	Reactions    int `json:"reactions"`
	Genes        int `json:"genes"`
	Compartments int `json:"compartments"`
}
