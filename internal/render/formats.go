package render

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"io"
	"sort"

	"github.com/dustin/go-humanize"

	"github.com/AntoineSebert/scheduling-solver/internal/schedule"
	"github.com/AntoineSebert/scheduling-solver/internal/ui"
)

type jsonSlice struct {
	TaskID   int `json:"task_id"`
	JobIndex int `json:"job_index"`
	CpuID    int `json:"cpu_id"`
	CoreID   int `json:"core_id"`
	Start    int `json:"start"`
	Finish   int `json:"finish"`
}

type jsonSolution struct {
	Status      string         `json:"status"`
	Hyperperiod int            `json:"hyperperiod"`
	Schedule    []jsonSlice    `json:"schedule"`
	ChainSpans  map[string]int `json:"chain_spans,omitempty"`
}

func renderJSON(w io.Writer, sol *schedule.Solution) error {
	out := jsonSolution{
		Status:      sol.Status.String(),
		Hyperperiod: sol.Hyperperiod,
		Schedule:    []jsonSlice{},
		ChainSpans:  sol.ChainSpans,
	}
	for _, p := range sol.Placements {
		out.Schedule = append(out.Schedule, jsonSlice{
			TaskID:   p.TaskID,
			JobIndex: p.JobIndex,
			CpuID:    p.CpuID,
			CoreID:   p.CoreID,
			Start:    p.Start,
			Finish:   p.Finish,
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

// The XML schema mirrors the historical case-file tooling:
// <Tables><Schedule CpuId CoreId><Slice TaskId Start Duration/>.
type xmlTables struct {
	XMLName   xml.Name      `xml:"Tables"`
	Status    string        `xml:"Status,attr"`
	Schedules []xmlSchedule `xml:"Schedule"`
}

type xmlSchedule struct {
	CpuID  int        `xml:"CpuId,attr"`
	CoreID int        `xml:"CoreId,attr"`
	Slices []xmlSlice `xml:"Slice"`
}

type xmlSlice struct {
	TaskID   int `xml:"TaskId,attr"`
	Start    int `xml:"Start,attr"`
	Duration int `xml:"Duration,attr"`
}

func renderXML(w io.Writer, sol *schedule.Solution) error {
	tables := xmlTables{Status: sol.Status.String()}

	byCore := make(map[[2]int][]xmlSlice)
	for _, sl := range sol.Slices {
		key := [2]int{sl.CpuID, sl.CoreID}
		byCore[key] = append(byCore[key], xmlSlice{
			TaskID:   sl.TaskID,
			Start:    sl.Start,
			Duration: sl.End - sl.Start,
		})
	}
	keys := make([][2]int, 0, len(byCore))
	for key := range byCore {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})
	for _, key := range keys {
		tables.Schedules = append(tables.Schedules, xmlSchedule{
			CpuID:  key[0],
			CoreID: key[1],
			Slices: byCore[key],
		})
	}

	if _, err := fmt.Fprint(w, xml.Header); err != nil {
		return err
	}
	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")
	if err := enc.Encode(tables); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

func renderRaw(w io.Writer, sol *schedule.Solution) error {
	fmt.Fprintf(w, "%s %s\n", ui.Bold("status:"), coloredStatus(sol.Status))
	fmt.Fprintf(w, "%s %s µs\n", ui.Bold("hyperperiod:"), humanize.Comma(int64(sol.Hyperperiod)))

	lastCore := [2]int{-1, -1}
	for _, p := range sol.Placements {
		core := [2]int{p.CpuID, p.CoreID}
		if core != lastCore {
			fmt.Fprintf(w, "\n%s\n", ui.BoldCyan(fmt.Sprintf("cpu %d / core %d", p.CpuID, p.CoreID)))
			lastCore = core
		}
		fmt.Fprintf(w, "  task %-4d job %-4d [%s, %s)\n",
			p.TaskID, p.JobIndex,
			humanize.Comma(int64(p.Start)), humanize.Comma(int64(p.Finish)))
	}

	if len(sol.ChainSpans) > 0 {
		fmt.Fprintf(w, "\n%s\n", ui.BoldCyan("chain spans"))
		names := make([]string, 0, len(sol.ChainSpans))
		for name := range sol.ChainSpans {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  %-16s %s µs\n", name, humanize.Comma(int64(sol.ChainSpans[name])))
		}
	}
	return nil
}

func coloredStatus(s schedule.Status) string {
	switch s {
	case schedule.Feasible:
		return ui.BoldGreen(s.String())
	case schedule.Infeasible:
		return ui.BoldRed(s.String())
	}
	return ui.BoldYellow(s.String())
}
