package output

import (
	"github.com/aryankumar/taskpool/internal/pool"
	"github.com/aryankumar/taskpool/internal/util"
)

// reportDoc is the serialized shape of a run report
type reportDoc struct {
	State    string       `json:"state" yaml:"state"`
	Error    string       `json:"error,omitempty" yaml:"error,omitempty"`
	Elapsed  string       `json:"elapsed" yaml:"elapsed"`
	Stats    pool.Stats   `json:"stats" yaml:"stats"`
	Outcomes []outcomeDoc `json:"outcomes" yaml:"outcomes"`
}

type outcomeDoc struct {
	Index    int    `json:"index" yaml:"index"`
	Status   string `json:"status" yaml:"status"`
	Duration string `json:"duration" yaml:"duration"`
	Value    any    `json:"value,omitempty" yaml:"value,omitempty"`
	Error    string `json:"error,omitempty" yaml:"error,omitempty"`
	Code     int    `json:"code,omitempty" yaml:"code,omitempty"`
}

func toDoc(r *pool.Report) reportDoc {
	doc := reportDoc{
		State:    r.State.String(),
		Elapsed:  r.Elapsed.String(),
		Stats:    r.Stats,
		Outcomes: make([]outcomeDoc, len(r.Outcomes)),
	}
	if r.Err != nil {
		doc.Error = r.Err.Error()
	}

	for i, o := range r.Outcomes {
		item := outcomeDoc{
			Index:    o.Index,
			Duration: o.Duration.String(),
		}
		if o.Err != nil {
			item.Status = "failed"
			item.Error = o.Err.Error()
			item.Code = util.StatusOf(o.Err)
		} else {
			item.Status = "success"
			item.Value = o.Value
		}
		doc.Outcomes[i] = item
	}

	return doc
}
