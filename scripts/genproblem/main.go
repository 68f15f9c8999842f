// genproblem writes a random night-shift problem file that is feasible by
// construction: a hidden roster is drawn first and the preferences and
// bounds are derived from it.
//
//	go run ./scripts/genproblem -nights 30 -agents 8 -per-night 2 -out march.yaml
package main

import (
	"flag"
	"fmt"
	"io"
	"math/rand"
	"os"
	"runtime"

	"github.com/knadh/koanf/parsers/yaml"
)

// ANSI Colors
var (
	RED   = "\033[0;31m"
	GREEN = "\033[0;32m"
	GRAY  = "\033[0;90m"
	NC    = "\033[0m"
)

func init() {
	if runtime.GOOS == "windows" {
		if os.Getenv("WT_SESSION") == "" && os.Getenv("TERM_PROGRAM") != "vscode" {
			RED, GREEN, GRAY, NC = "", "", "", ""
		}
	}
}

// Params задают размер и плотность задачи
type Params struct {
	Name         string
	Nights       int
	Agents       int
	PerNight     int
	UnwantedRate float64 // доля смен скрытого расписания, которые админ не хотел
	ExtraRate    float64 // доля лишних "хочу" вне расписания
	Seed         int64
}

func (p Params) validate() error {
	switch {
	case p.Nights <= 0 || p.Agents <= 0:
		return fmt.Errorf("nights and agents must be positive")
	case p.PerNight <= 0 || p.PerNight > p.Agents:
		return fmt.Errorf("per-night must be in [1, %d]", p.Agents)
	case p.UnwantedRate < 0 || p.UnwantedRate > 1 || p.ExtraRate < 0 || p.ExtraRate > 1:
		return fmt.Errorf("rates must be in [0, 1]")
	}
	return nil
}

// Generate returns the problem as a document ready for YAML encoding.
func Generate(p Params) (map[string]any, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	rng := rand.New(rand.NewSource(p.Seed))

	prefs := make([][]int, p.Nights)
	shifts := make([]int, p.Agents)
	unwanted := make([]int, p.Agents)

	// скрытое расписание: по кругу, со случайным сдвигом
	next := rng.Intn(p.Agents)
	for i := range prefs {
		prefs[i] = make([]int, p.Agents)
		onDuty := make([]bool, p.Agents)
		for k := 0; k < p.PerNight; k++ {
			onDuty[next] = true
			next = (next + 1) % p.Agents
		}
		for j := range prefs[i] {
			switch {
			case onDuty[j]:
				shifts[j]++
				if rng.Float64() < p.UnwantedRate {
					unwanted[j]++
				} else {
					prefs[i][j] = 1
				}
			case rng.Float64() < p.ExtraRate:
				prefs[i][j] = 1
			}
		}
	}

	minShifts, maxUnwanted := shifts[0], 0
	for j := range shifts {
		minShifts = min(minShifts, shifts[j])
		maxUnwanted = max(maxUnwanted, unwanted[j])
	}

	agents := make([]any, p.Agents)
	for j := range agents {
		agents[j] = fmt.Sprintf("agent-%d", j)
	}
	rows := make([]any, len(prefs))
	for i, row := range prefs {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		rows[i] = cells
	}

	return map[string]any{
		"name":                p.Name,
		"agents":              agents,
		"preferences":         rows,
		"sysadmins_per_night": p.PerNight,
		"max_unwanted_shifts": maxUnwanted,
		"min_shifts":          minShifts,
	}, nil
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("genproblem", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var p Params
	fs.StringVar(&p.Name, "name", "generated", "problem name")
	fs.IntVar(&p.Nights, "nights", 30, "number of nights")
	fs.IntVar(&p.Agents, "agents", 6, "number of sysadmins")
	fs.IntVar(&p.PerNight, "per-night", 2, "sysadmins required per night")
	fs.Float64Var(&p.UnwantedRate, "unwanted-rate", 0.1, "share of hidden shifts the sysadmin did not ask for")
	fs.Float64Var(&p.ExtraRate, "extra-rate", 0.3, "share of extra preferred nights")
	fs.Int64Var(&p.Seed, "seed", 1, "random seed")
	out := fs.String("out", "", "output file (default: stdout)")

	if err := fs.Parse(args); err != nil {
		return 1
	}

	doc, err := Generate(p)
	if err != nil {
		fmt.Fprintf(stderr, "%s%v%s\n", RED, err, NC)
		return 1
	}
	body, err := yaml.Parser().Marshal(doc)
	if err != nil {
		fmt.Fprintf(stderr, "%sencode: %v%s\n", RED, err, NC)
		return 1
	}

	if *out == "" {
		_, _ = stdout.Write(body)
		return 0
	}
	if err := os.WriteFile(*out, body, 0o600); err != nil {
		fmt.Fprintf(stderr, "%s%v%s\n", RED, err, NC)
		return 1
	}
	fmt.Fprintf(stderr, "%sproblem written to %s%s %s(%d nights, %d sysadmins, seed %d)%s\n",
		GREEN, *out, NC, GRAY, p.Nights, p.Agents, p.Seed, NC)
	return 0
}
