package loader

import (
	"fmt"
	"os"
	"sort"

	"github.com/tidwall/gjson"

	"github.com/AntoineSebert/scheduling-solver/internal/model"
)

// JSON descriptors carry the same fields as the XML case files:
//
//	{"cpus": [{"id": 0, "cores": [{"id": 0, "macrotick": 1}]}]}
//	{"tasks": [...], "chains": [{"name": ..., "budget": ..., "priority": "0.5", "runnables": [...]}]}

// loadArchitectureJSON reads a JSON architecture descriptor.
func loadArchitectureJSON(path string) (model.Architecture, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("parse %s: not valid JSON", path)
	}

	var arch model.Architecture
	gjson.GetBytes(data, "cpus").ForEach(func(_, cpu gjson.Result) bool {
		c := model.Cpu{ID: int(cpu.Get("id").Int())}
		cpu.Get("cores").ForEach(func(_, core gjson.Result) bool {
			c.Cores = append(c.Cores, model.Core{
				ID:        int(core.Get("id").Int()),
				MacroTick: int(core.Get("macrotick").Int()),
			})
			return true
		})
		sort.Slice(c.Cores, func(i, j int) bool { return c.Cores[i].ID < c.Cores[j].ID })
		arch = append(arch, c)
		return true
	})
	sort.Slice(arch, func(i, j int) bool { return arch[i].ID < arch[j].ID })
	return arch, nil
}

// loadApplicationJSON reads a JSON application descriptor.
func loadApplicationJSON(path string) (model.Application, error) {
	var app model.Application

	data, err := os.ReadFile(path)
	if err != nil {
		return app, fmt.Errorf("read %s: %w", path, err)
	}
	if !gjson.ValidBytes(data) {
		return app, fmt.Errorf("parse %s: not valid JSON", path)
	}

	gjson.GetBytes(data, "tasks").ForEach(func(_, task gjson.Result) bool {
		app.Tasks = append(app.Tasks, model.Task{
			ID:        int(task.Get("id").Int()),
			Name:      task.Get("name").String(),
			WCET:      int(task.Get("wcet").Int()),
			Period:    int(task.Get("period").Int()),
			Deadline:  int(task.Get("deadline").Int()),
			Offset:    int(task.Get("offset").Int()),
			MaxJitter: intField(task, "max_jitter", model.Unassigned),
			CpuID:     int(task.Get("cpu_id").Int()),
			CoreID:    intField(task, "core_id", model.Unassigned),
		})
		return true
	})
	sort.Slice(app.Tasks, func(i, j int) bool { return app.Tasks[i].ID < app.Tasks[j].ID })

	var chainErr error
	gjson.GetBytes(data, "chains").ForEach(func(_, chain gjson.Result) bool {
		name := chain.Get("name").String()
		prio, err := parsePriority(chain.Get("priority").String())
		if err != nil {
			chainErr = fmt.Errorf("parse %s: chain %q: %w", path, name, err)
			return false
		}
		var runnables []string
		chain.Get("runnables").ForEach(func(_, r gjson.Result) bool {
			runnables = append(runnables, r.String())
			return true
		})
		app.Chains = append(app.Chains, model.Chain{
			Name:      name,
			Budget:    int(chain.Get("budget").Int()),
			Priority:  prio,
			Runnables: runnables,
		})
		return true
	})
	if chainErr != nil {
		return model.Application{}, chainErr
	}
	return app, nil
}

func intField(r gjson.Result, path string, def int) int {
	v := r.Get(path)
	if !v.Exists() {
		return def
	}
	return int(v.Int())
}
