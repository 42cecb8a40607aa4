package entities

// FileMapping binds one extract file on disk to the period it covers.
type FileMapping struct {
	File        string            `json:"file" yaml:"file"`
	Subdir      string            `json:"subdir" yaml:"subdir"`
	SourceID    string            `json:"sourceId" yaml:"source_id"`
	PeriodLabel string            `json:"periodLabel" yaml:"period_label"`
	Year        int               `json:"year" yaml:"year"`
	Meta        map[string]string `json:"meta,omitempty" yaml:"meta,omitempty"`
}

// ParserType selects which extract layout a mapping is parsed with.
type ParserType string

const (
	ParserEtat2080      ParserType = "etat2080"
	ParserListeProduits ParserType = "listeProduits"
)
