package output

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/aryankumar/taskpool/internal/pool"
	"github.com/aryankumar/taskpool/internal/util"
)

// sampleReport mirrors a stop-on-error run: task 1 failed, task 0 finished later
func sampleReport() *pool.Report {
	return &pool.Report{
		Stats: pool.Stats{Dispatched: 2, Succeeded: 1, Failed: 1},
		Outcomes: []pool.Outcome[any]{
			{Index: 0, Value: "alpha", Duration: 100 * time.Millisecond},
			{Index: 1, Err: &util.StatusError{Status: http.StatusConflict, Err: util.ErrConflict}, Duration: 10 * time.Millisecond},
		},
		State:   pool.StateFailed,
		Err:     &pool.TaskError{Index: 1, Err: util.ErrConflict},
		Elapsed: 120 * time.Millisecond,
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"", FormatTable, false},
		{"table", FormatTable, false},
		{"json", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseFormat(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseFormat(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseFormat(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestNewFormatter(t *testing.T) {
	tests := []struct {
		name   string
		format Format
		check  func(Formatter) bool
	}{
		{"table", FormatTable, func(f Formatter) bool { _, ok := f.(*TableFormatter); return ok }},
		{"json", FormatJSON, func(f Formatter) bool { _, ok := f.(*JSONFormatter); return ok }},
		{"yaml", FormatYAML, func(f Formatter) bool { _, ok := f.(*YAMLFormatter); return ok }},
		{"unknown falls back to table", Format("xml"), func(f Formatter) bool { _, ok := f.(*TableFormatter); return ok }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFormatter(tt.format)
			if !tt.check(f) {
				t.Errorf("unexpected formatter type %T", f)
			}
		})
	}
}

func TestNewFormatter_Options(t *testing.T) {
	f := NewFormatter(FormatTable, WithNoColor(true), WithNoHeaders(true), WithWide(true))
	tf, ok := f.(*TableFormatter)
	if !ok {
		t.Fatalf("unexpected formatter type %T", f)
	}
	if !tf.options.NoColor || !tf.options.NoHeaders || !tf.options.Wide {
		t.Errorf("options not applied: %+v", tf.options)
	}
}

func TestToDoc(t *testing.T) {
	doc := toDoc(sampleReport())

	if doc.State != "failed" || doc.Elapsed != "120ms" {
		t.Errorf("unexpected header %+v", doc)
	}
	if doc.Error != "task 1 failed: conflict" {
		t.Errorf("unexpected error %q", doc.Error)
	}
	if len(doc.Outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(doc.Outcomes))
	}
	if doc.Outcomes[0].Status != "success" || doc.Outcomes[0].Value != "alpha" {
		t.Errorf("unexpected outcome 0 %+v", doc.Outcomes[0])
	}
	if doc.Outcomes[1].Status != "failed" || doc.Outcomes[1].Code != http.StatusConflict || doc.Outcomes[1].Value != nil {
		t.Errorf("unexpected outcome 1 %+v", doc.Outcomes[1])
	}
}

func TestFormatReport_AllFormats(t *testing.T) {
	for _, format := range []Format{FormatTable, FormatJSON, FormatYAML} {
		t.Run(string(format), func(t *testing.T) {
			buf := &bytes.Buffer{}
			if err := NewFormatter(format, WithNoColor(true)).FormatReport(buf, sampleReport()); err != nil {
				t.Fatalf("FormatReport failed: %v", err)
			}
			if buf.Len() == 0 {
				t.Error("expected output")
			}
		})
	}
}

func TestFormatReport_FromPool(t *testing.T) {
	tasks := []pool.Task[int]{
		func(context.Context) (int, error) { return 42, nil },
		func(context.Context) (int, error) { return 0, errSample },
	}
	p, err := pool.New(pool.FromSlice(tasks), 2)
	if err != nil {
		t.Fatalf("pool.New failed: %v", err)
	}
	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	buf := &bytes.Buffer{}
	if err := NewJSONFormatter(nil).FormatReport(buf, res.Report()); err != nil {
		t.Fatalf("FormatReport failed: %v", err)
	}

	var doc reportDoc
	if err := json.Unmarshal(buf.Bytes(), &doc); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if doc.State != "completed" || doc.Stats.Succeeded != 1 || doc.Stats.Failed != 1 {
		t.Errorf("unexpected report %+v", doc)
	}
	if doc.Outcomes[0].Value != float64(42) || doc.Outcomes[1].Error != "sample" {
		t.Errorf("unexpected outcomes %+v", doc.Outcomes)
	}
}

var errSample = errors.New("sample")
