package render

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/AntoineSebert/scheduling-solver/internal/schedule"
)

func sampleSolution() *schedule.Solution {
	return &schedule.Solution{
		Status:      schedule.Feasible,
		Hyperperiod: 20,
		Placements: []schedule.Placement{
			{TaskID: 0, JobIndex: 0, CpuID: 0, CoreID: 0, Start: 0, Finish: 3},
			{TaskID: 1, JobIndex: 0, CpuID: 0, CoreID: 0, Start: 3, Finish: 7},
			{TaskID: 0, JobIndex: 1, CpuID: 0, CoreID: 0, Start: 10, Finish: 13},
			{TaskID: 2, JobIndex: 0, CpuID: 1, CoreID: 0, Start: 0, Finish: 5},
		},
		Slices: []schedule.Slice{
			{TaskID: 0, JobIndex: 0, CpuID: 0, CoreID: 0, Start: 0, End: 3},
			{TaskID: 1, JobIndex: 0, CpuID: 0, CoreID: 0, Start: 3, End: 7},
			{TaskID: 0, JobIndex: 1, CpuID: 0, CoreID: 0, Start: 10, End: 13},
			{TaskID: 2, JobIndex: 0, CpuID: 1, CoreID: 0, Start: 0, End: 5},
		},
		ChainSpans: map[string]int{"control": 7},
	}
}

func TestParseFormat(t *testing.T) {
	for _, ok := range []string{"raw", "json", "xml"} {
		if _, err := ParseFormat(ok); err != nil {
			t.Errorf("ParseFormat(%q): unexpected error %v", ok, err)
		}
	}
	if _, err := ParseFormat("yaml"); err == nil {
		t.Error("expected an error for an unsupported format")
	}
}

func TestRenderJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleSolution(), FormatJSON); err != nil {
		t.Fatalf("render: %v", err)
	}

	var out struct {
		Status      string         `json:"status"`
		Hyperperiod int            `json:"hyperperiod"`
		Schedule    []struct {
			TaskID int `json:"task_id"`
			Start  int `json:"start"`
			Finish int `json:"finish"`
		} `json:"schedule"`
		ChainSpans map[string]int `json:"chain_spans"`
	}
	if err := json.Unmarshal(buf.Bytes(), &out); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if out.Status != "feasible" || out.Hyperperiod != 20 {
		t.Errorf("unexpected header: %+v", out)
	}
	if len(out.Schedule) != 4 {
		t.Errorf("expected 4 schedule rows, got %d", len(out.Schedule))
	}
	if out.ChainSpans["control"] != 7 {
		t.Errorf("expected chain span 7, got %d", out.ChainSpans["control"])
	}
}

func TestRenderXML(t *testing.T) {
	var buf bytes.Buffer
	if err := Render(&buf, sampleSolution(), FormatXML); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		`<Tables Status="feasible">`,
		`<Schedule CpuId="0" CoreId="0">`,
		`<Schedule CpuId="1" CoreId="0">`,
		`<Slice TaskId="0" Start="0" Duration="3">`,
		`<Slice TaskId="1" Start="3" Duration="4">`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q:\n%s", want, out)
		}
	}
}

func TestRenderRaw(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	if err := Render(&buf, sampleSolution(), FormatRaw); err != nil {
		t.Fatalf("render: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"status: feasible",
		"hyperperiod: 20",
		"cpu 0 / core 0",
		"cpu 1 / core 0",
		"chain spans",
		"control",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q:\n%s", want, out)
		}
	}
}

func TestRenderRaw_Infeasible(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	sol := &schedule.Solution{Status: schedule.Infeasible, Hyperperiod: 20}
	if err := Render(&buf, sol, FormatRaw); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), "infeasible") {
		t.Errorf("expected an infeasible status line:\n%s", buf.String())
	}
}
