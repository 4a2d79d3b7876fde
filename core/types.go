package core

type (
	// FormatterOptions provide various options for formatters
	FormatterOptions struct {
		// typed column descriptions, aligned with header
		Columns []Column
	}

	// Formatter converts header and rows to bytes
	Formatter interface {
		Format(header Header, rows []Row, opts *FormatterOptions) ([]byte, error)
	}
)

type (
	// Row and Header are attributes of ResultStream iterator
	Row    []any
	Header []string

	// Column describes a single result column in the host's model.
	Column struct {
		Name         string `json:"name"`
		FriendlyName string `json:"friendly_name"`
		Type         string `json:"type"`
	}

	// Meta holds metadata
	Meta struct {
		Columns []Column
	}

	// ResultStream is a result from executed query and has a form of an iterator
	ResultStream interface {
		Meta() *Meta
		Header() Header
		Next() (Row, error)
		HasNext() bool
		Close()
	}
)
