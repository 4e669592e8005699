package output

import (
	"io"

	"gopkg.in/yaml.v3"

	"github.com/aryankumar/taskpool/internal/pool"
)

// YAMLFormatter formats output as YAML
type YAMLFormatter struct {
	options *Options
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(opts *Options) *YAMLFormatter {
	if opts == nil {
		opts = &Options{}
	}
	return &YAMLFormatter{
		options: opts,
	}
}

// Format outputs a single data item as YAML
func (f *YAMLFormatter) Format(w io.Writer, data any) error {
	encoder := yaml.NewEncoder(w)
	encoder.SetIndent(2)
	defer encoder.Close()

	return encoder.Encode(data)
}

// FormatReport outputs a run report as YAML
func (f *YAMLFormatter) FormatReport(w io.Writer, report *pool.Report) error {
	return f.Format(w, toDoc(report))
}
