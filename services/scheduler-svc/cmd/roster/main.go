// Command roster allocates a night-shift roster from a problem file and
// renders it as CSV, Markdown, XLSX or PDF.
//
//	roster -problem march.yaml -format xlsx -out march.xlsx
//	roster -problem march.yaml -remote localhost:50061 -token $TOKEN
//	roster -hash-key "$KEY"          # argon2id hash for auth.api_keys
//	roster -issue-token night-ops    # JWT signed with auth.jwt_secret
//
// Exit status is 0 when a roster was found, 2 when the problem is
// infeasible and 1 on any error.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"rostering/pkg/auth"
	"rostering/pkg/client"
	"rostering/pkg/config"
	"rostering/pkg/logger"
	"rostering/services/scheduler-svc/internal/problem"
	"rostering/services/scheduler-svc/internal/report"
	"rostering/services/scheduler-svc/internal/roster"
)

const (
	exitFeasible   = 0
	exitError      = 1
	exitInfeasible = 2
)

// ANSI Colors
var (
	RED    = "\033[0;31m"
	GREEN  = "\033[0;32m"
	YELLOW = "\033[1;33m"
	NC     = "\033[0m"
)

func init() {
	if runtime.GOOS == "windows" {
		if os.Getenv("WT_SESSION") == "" && os.Getenv("TERM_PROGRAM") != "vscode" {
			RED, GREEN, YELLOW, NC = "", "", "", ""
		}
	}
}

type options struct {
	problem string
	format  string
	out     string
	remote  string
	title   string
	horizon int
	timeout time.Duration
	token   string

	hashKey    string
	issueToken string
	role       string
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(stderr, "%sconfig: %v%s\n", RED, err, NC)
		return exitError
	}

	fs := flag.NewFlagSet("roster", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.problem, "problem", "", "problem file (YAML or JSON)")
	fs.StringVar(&opts.format, "format", cfg.Report.DefaultFormat, "report format: csv, markdown, xlsx, pdf")
	fs.StringVar(&opts.out, "out", "", "output file (default: stdout for text formats)")
	fs.StringVar(&opts.remote, "remote", "", "scheduler-svc gRPC address; empty allocates locally")
	fs.StringVar(&opts.title, "title", "", "report title (default: problem name)")
	fs.IntVar(&opts.horizon, "horizon", 0, "required number of nights, 0 for any (local mode)")
	fs.DurationVar(&opts.timeout, "timeout", cfg.Schedule.Timeout, "allocation deadline")
	fs.StringVar(&opts.token, "token", cfg.Client.Token, "bearer token for -remote")
	fs.StringVar(&opts.hashKey, "hash-key", "", "print the argon2id hash of an API key and exit")
	fs.StringVar(&opts.issueToken, "issue-token", "", "print a JWT for this subject and exit")
	fs.StringVar(&opts.role, "role", "", "role claim for -issue-token")

	if err := fs.Parse(args); err != nil {
		return exitError
	}

	if opts.hashKey != "" || opts.issueToken != "" {
		if err := credentials(cfg.Auth, opts, stdout); err != nil {
			fmt.Fprintf(stderr, "%s%v%s\n", RED, err, NC)
			return exitError
		}
		return exitFeasible
	}
	if opts.problem == "" {
		fmt.Fprintf(stderr, "%s-problem is required%s\n", RED, NC)
		fs.Usage()
		return exitError
	}

	// CLI пишет логи только в stderr
	logger.InitWithConfig(logger.Config{Level: cfg.Log.Level, Format: "text", Output: "stderr"})

	format, err := report.ParseFormat(opts.format)
	if err != nil {
		fmt.Fprintf(stderr, "%s%v%s\n", RED, err, NC)
		return exitError
	}

	p, err := problem.Load(opts.problem)
	if err != nil {
		fmt.Fprintf(stderr, "%s%v%s\n", RED, err, NC)
		return exitError
	}

	ctx := context.Background()
	if opts.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.timeout)
		defer cancel()
	}

	var data *report.Data
	if opts.remote != "" {
		data, err = allocateRemote(ctx, cfg, opts.remote, opts.token, p)
	} else {
		data, err = allocateLocal(ctx, opts.horizon, p)
	}
	if err != nil {
		fmt.Fprintf(stderr, "%sallocation failed: %v%s\n", RED, err, NC)
		return exitError
	}

	data.Agents = p.Agents
	data.Title = opts.title
	if data.Title == "" && p.Name != "" {
		data.Title = "Night Shift Roster: " + p.Name
	}

	if err := render(ctx, cfg.Report, format, data, opts.out, stdout); err != nil {
		fmt.Fprintf(stderr, "%s%v%s\n", RED, err, NC)
		return exitError
	}

	if !data.Feasible {
		fmt.Fprintf(stderr, "%s%s: %s%s\n", YELLOW, data.Status, data.Reason, NC)
		return exitInfeasible
	}
	if opts.out != "" {
		fmt.Fprintf(stderr, "%sroster written to %s%s\n", GREEN, opts.out, NC)
	}
	return exitFeasible
}

func allocateLocal(ctx context.Context, horizon int, p *problem.Problem) (*report.Data, error) {
	opts := roster.DefaultOptions()
	opts.Horizon = horizon

	req := p.Request()
	alloc, err := roster.NewAllocator(opts).Allocate(ctx, req)
	if err != nil {
		return nil, err
	}
	return report.FromAllocation(req, alloc), nil
}

func allocateRemote(ctx context.Context, cfg *config.Config, addr, token string, p *problem.Problem) (*report.Data, error) {
	ccfg := client.FromConfig(cfg.Client)
	ccfg.Address = addr
	ccfg.Token = token

	c, err := client.NewSchedulerClient(ccfg)
	if err != nil {
		return nil, err
	}
	defer c.Close()

	resp, err := c.Allocate(ctx, p.AllocateRequest())
	if err != nil {
		return nil, err
	}
	return report.FromResponse(p.Request(), resp), nil
}

// credentials prints an API key hash or a signed token.
func credentials(cfg config.AuthConfig, opts options, stdout io.Writer) error {
	if opts.hashKey != "" {
		h, err := auth.HashKey(opts.hashKey)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(stdout, h)
		return err
	}

	tm, err := auth.NewTokenManager(auth.TokenConfig{
		Secret: cfg.JWTSecret,
		Issuer: cfg.Issuer,
		TTL:    cfg.TokenTTL,
	})
	if err != nil {
		return err
	}
	token, err := tm.Issue(opts.issueToken, opts.role)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(stdout, token)
	return err
}

func render(ctx context.Context, cfg config.ReportConfig, format report.Format, data *report.Data, out string, stdout io.Writer) error {
	gen, err := report.New(format, cfg)
	if err != nil {
		return err
	}
	body, err := gen.Generate(ctx, data)
	if err != nil {
		return err
	}

	if out == "" {
		// бинарные форматы в терминал не пишем
		if format == report.FormatXLSX || format == report.FormatPDF {
			out = "roster." + format.Extension()
		} else {
			_, err := stdout.Write(body)
			return err
		}
	}
	if dir := filepath.Dir(out); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(out, body, 0o600)
}
