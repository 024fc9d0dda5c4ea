package loader

import (
	"encoding/xml"
	"fmt"
	"math/big"
	"os"
	"sort"

	"github.com/AntoineSebert/scheduling-solver/internal/model"
)

// .cfg schema: any root element holding <Cpu Id> nodes, each with
// <Core Id MacroTick> children.
type cfgFile struct {
	Cpus []cfgCpu `xml:"Cpu"`
}

type cfgCpu struct {
	ID    int       `xml:"Id,attr"`
	Cores []cfgCore `xml:"Core"`
}

type cfgCore struct {
	ID        int `xml:"Id,attr"`
	MacroTick int `xml:"MacroTick,attr"`
}

// .tsk schema: <Graph> elements holding <Node> and <Chain> children;
// chains are also accepted at the root level.
type tskFile struct {
	Graphs []tskGraph `xml:"Graph"`
	Nodes  []tskNode  `xml:"Node"`
	Chains []tskChain `xml:"Chain"`
}

type tskGraph struct {
	Nodes  []tskNode  `xml:"Node"`
	Chains []tskChain `xml:"Chain"`
}

// Pointer fields distinguish an absent attribute from a literal value;
// absent CoreId and MaxJitter both mean "unassigned" (-1).
type tskNode struct {
	ID        int    `xml:"Id,attr"`
	Name      string `xml:"Name,attr"`
	WCET      int    `xml:"WCET,attr"`
	Period    int    `xml:"Period,attr"`
	Deadline  int    `xml:"Deadline,attr"`
	Offset    int    `xml:"Offset,attr"`
	MaxJitter *int   `xml:"MaxJitter,attr"`
	CpuID     int    `xml:"CpuId,attr"`
	CoreID    *int   `xml:"CoreId,attr"`
}

type tskChain struct {
	Name      string        `xml:"Name,attr"`
	Budget    int           `xml:"Budget,attr"`
	Priority  string        `xml:"Priority,attr"`
	Runnables []tskRunnable `xml:"Runnable"`
}

type tskRunnable struct {
	Name string `xml:"Name,attr"`
}

// loadArchitectureXML reads a .cfg architecture descriptor.
func loadArchitectureXML(path string) (model.Architecture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	var f cfgFile
	if err := xml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	arch := make(model.Architecture, 0, len(f.Cpus))
	for _, cpu := range f.Cpus {
		cores := make([]model.Core, 0, len(cpu.Cores))
		for _, core := range cpu.Cores {
			cores = append(cores, model.Core{ID: core.ID, MacroTick: core.MacroTick})
		}
		sort.Slice(cores, func(i, j int) bool { return cores[i].ID < cores[j].ID })
		arch = append(arch, model.Cpu{ID: cpu.ID, Cores: cores})
	}
	sort.Slice(arch, func(i, j int) bool { return arch[i].ID < arch[j].ID })
	return arch, nil
}

// loadApplicationXML reads a .tsk application descriptor.
func loadApplicationXML(path string) (model.Application, error) {
	var app model.Application

	data, err := os.ReadFile(path)
	if err != nil {
		return app, fmt.Errorf("read %s: %w", path, err)
	}
	var f tskFile
	if err := xml.Unmarshal(data, &f); err != nil {
		return app, fmt.Errorf("parse %s: %w", path, err)
	}

	nodes := f.Nodes
	chains := f.Chains
	for _, g := range f.Graphs {
		nodes = append(nodes, g.Nodes...)
		chains = append(chains, g.Chains...)
	}

	for _, n := range nodes {
		app.Tasks = append(app.Tasks, model.Task{
			ID:        n.ID,
			Name:      n.Name,
			WCET:      n.WCET,
			Period:    n.Period,
			Deadline:  n.Deadline,
			Offset:    n.Offset,
			MaxJitter: intOr(n.MaxJitter, model.Unassigned),
			CpuID:     n.CpuID,
			CoreID:    intOr(n.CoreID, model.Unassigned),
		})
	}
	sort.Slice(app.Tasks, func(i, j int) bool { return app.Tasks[i].ID < app.Tasks[j].ID })

	for _, c := range chains {
		prio, err := parsePriority(c.Priority)
		if err != nil {
			return app, fmt.Errorf("parse %s: chain %q: %w", path, c.Name, err)
		}
		runnables := make([]string, 0, len(c.Runnables))
		for _, r := range c.Runnables {
			runnables = append(runnables, r.Name)
		}
		app.Chains = append(app.Chains, model.Chain{
			Name:      c.Name,
			Budget:    c.Budget,
			Priority:  prio,
			Runnables: runnables,
		})
	}
	return app, nil
}

func intOr(v *int, def int) int {
	if v == nil {
		return def
	}
	return *v
}

// parsePriority reads a decimal or fraction literal into an exact
// rational. An absent attribute defaults to zero.
func parsePriority(s string) (*big.Rat, error) {
	if s == "" {
		return new(big.Rat), nil
	}
	r, ok := new(big.Rat).SetString(s)
	if !ok {
		return nil, fmt.Errorf("invalid priority %q", s)
	}
	return r, nil
}
