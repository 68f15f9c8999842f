// Package problem reads allocation problems from YAML or JSON files.
package problem

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"

	"rostering/pkg/api/schedulerv1"
	"rostering/pkg/apperror"
	"rostering/services/scheduler-svc/internal/roster"
)

// Problem is a problem file:
//
//	name: march
//	agents: [alice, bob]
//	preferences:
//	  - [1, 0]
//	  - [0, 1]
//	sysadmins_per_night: 1
//	max_unwanted_shifts: 2
//	min_shifts: 1
type Problem struct {
	Name              string   `koanf:"name"`
	Agents            []string `koanf:"agents"`
	Preferences       [][]int  `koanf:"preferences"`
	SysadminsPerNight int      `koanf:"sysadmins_per_night"`
	MaxUnwantedShifts int      `koanf:"max_unwanted_shifts"`
	MinShifts         int      `koanf:"min_shifts"`
}

// Load reads a problem from path. YAML is a superset of JSON, so one parser
// serves .yaml, .yml and .json files.
func Load(path string) (*Problem, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml", ".json", "":
	default:
		return nil, apperror.Newf(apperror.CodeInvalidArgument, "unsupported problem file extension %q", filepath.Ext(path))
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("problem file: %w", err)
	}

	k := koanf.New(".")
	if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInvalidArgument, "failed to parse problem file "+path)
	}
	return decode(k, path)
}

// Parse reads a problem from raw YAML or JSON.
func Parse(data []byte) (*Problem, error) {
	raw, err := yaml.Parser().Unmarshal(data)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInvalidArgument, "failed to parse problem")
	}
	k := koanf.New(".")
	if err := k.Load(confmap.Provider(raw, "."), nil); err != nil {
		return nil, err
	}
	return decode(k, "<input>")
}

func decode(k *koanf.Koanf, source string) (*Problem, error) {
	if !k.Exists("preferences") {
		return nil, apperror.NewWithField(apperror.CodeEmptyPreferences,
			source+": preferences are required", "preferences")
	}

	var p Problem
	if err := k.Unmarshal("", &p); err != nil {
		return nil, apperror.Wrap(err, apperror.CodeInvalidArgument, source+": malformed problem")
	}
	if len(p.Agents) > 0 && len(p.Preferences) > 0 && len(p.Agents) != len(p.Preferences[0]) {
		return nil, apperror.Newf(apperror.CodeInvalidArgument,
			"%s: %d agent names for %d preference columns", source, len(p.Agents), len(p.Preferences[0])).
			WithField("agents")
	}
	return &p, nil
}

// Request converts p for the in-process allocator.
func (p *Problem) Request() roster.Request {
	return roster.Request{
		Preferences:       roster.Matrix(p.Preferences),
		SysadminsPerNight: p.SysadminsPerNight,
		MaxUnwantedShifts: p.MaxUnwantedShifts,
		MinShifts:         p.MinShifts,
	}
}

// AllocateRequest converts p for the remote service.
func (p *Problem) AllocateRequest() *schedulerv1.AllocateRequest {
	prefs := make([][]int32, len(p.Preferences))
	for i, row := range p.Preferences {
		prefs[i] = make([]int32, len(row))
		for j, v := range row {
			prefs[i][j] = int32(v) //nolint:gosec // preference cells are 0/1
		}
	}
	return &schedulerv1.AllocateRequest{
		Preferences:       prefs,
		SysadminsPerNight: int32(p.SysadminsPerNight), //nolint:gosec // small bounds
		MaxUnwantedShifts: int32(p.MaxUnwantedShifts), //nolint:gosec // small bounds
		MinShifts:         int32(p.MinShifts),         //nolint:gosec // small bounds
	}
}

// AgentName returns the configured name of agent j or "agent-j".
func (p *Problem) AgentName(j int) string {
	if j >= 0 && j < len(p.Agents) && p.Agents[j] != "" {
		return p.Agents[j]
	}
	return fmt.Sprintf("agent-%d", j)
}
