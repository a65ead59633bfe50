// Command wowsreplay decodes World of Warships replay files into chat logs,
// packet dumps, schema-coverage surveys, and full battle reports (spec §6).
package main

import (
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/landaire/wows-replay-go/internal/analyzer"
	"github.com/landaire/wows-replay-go/internal/battle"
	"github.com/landaire/wows-replay-go/internal/container"
	"github.com/landaire/wows-replay-go/internal/pipeline"
	"github.com/landaire/wows-replay-go/internal/schema"
	"github.com/landaire/wows-replay-go/internal/semantic"
	"github.com/landaire/wows-replay-go/internal/streamserver"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	if len(args) == 0 {
		usage()
		return 2
	}

	switch args[0] {
	case "dump":
		return runDump(args[1:])
	case "survey":
		return runSurvey(args[1:])
	case "chat":
		return runChat(args[1:])
	case "summary":
		return runSummary(args[1:])
	case "investigate":
		return runInvestigate(args[1:])
	case "search":
		return runSearch(args[1:])
	case "spec":
		return runSpec(args[1:])
	case "serve":
		return runServe(args[1:])
	case "-h", "--help", "help":
		usage()
		return 0
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		usage()
		return 2
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "wowsreplay dump        --replay <path> --schema <path>...")
	fmt.Fprintln(os.Stderr, "wowsreplay survey      --replay <path> --schema <path>...")
	fmt.Fprintln(os.Stderr, "wowsreplay chat        --replay <path> --schema <path>...")
	fmt.Fprintln(os.Stderr, "wowsreplay summary     --replay <path> --schema <path>...")
	fmt.Fprintln(os.Stderr, "wowsreplay investigate --replay <path> --schema <path>... [--kind Name]")
	fmt.Fprintln(os.Stderr, "wowsreplay search      --replay <path> --schema <path>... --query substring")
	fmt.Fprintln(os.Stderr, "wowsreplay spec        --schema <path>...")
	fmt.Fprintln(os.Stderr, "wowsreplay serve       --replay <path> --schema <path>... [--addr :8080]")
}

// commonFlags holds the -replay/-schema/-aliases/-build flags every
// subcommand but `spec` (no replay) shares.
type commonFlags struct {
	replayPath  string
	schemaPaths multiStringFlag
	aliasesPath string
	build       string
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	return fs
}

func (c *commonFlags) registerReplayFlags(fs *flag.FlagSet) {
	fs.StringVar(&c.replayPath, "replay", "", "path to a .wowsreplay file")
	fs.Var(&c.schemaPaths, "schema", "path to an EntityType XML document (repeatable)")
	fs.StringVar(&c.aliasesPath, "aliases", "", "path to a shared Aliases XML document")
	fs.StringVar(&c.build, "build", "", "schema build name (default: derived from the replay's metadata)")
}

func decodeReplay(c *commonFlags, extra ...analyzer.Analyzer) (*pipeline.Result, error) {
	if c.replayPath == "" {
		return nil, fmt.Errorf("-replay is required")
	}
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	schemaPaths := []string(c.schemaPaths)
	if len(schemaPaths) == 0 {
		schemaPaths = cfg.SchemaPaths
	}
	aliasesPath := c.aliasesPath
	if aliasesPath == "" {
		aliasesPath = cfg.AliasesPath
	}
	data, err := os.ReadFile(c.replayPath)
	if err != nil {
		return nil, fmt.Errorf("reading replay: %w", err)
	}

	build := c.build
	if build == "" {
		build = cfg.DefaultBuild
	}
	if build == "" {
		ct, err := container.Decode(data)
		if err != nil {
			return nil, fmt.Errorf("reading replay metadata: %w", err)
		}
		build = ct.Meta.ClientVersionFromExe
	}

	reg, err := loadRegistry(schema.Build(build), aliasesPath, schemaPaths)
	if err != nil {
		return nil, err
	}

	return pipeline.Decode(data, pipeline.Options{
		Registry:  reg,
		Build:     schema.Build(build),
		Analyzers: extra,
	})
}

func runDump(args []string) int {
	fs := newFlagSet("dump")
	c := &commonFlags{}
	c.registerReplayFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	dump := analyzer.NewPacketDump(os.Stdout)
	if _, err := decodeReplay(c, dump); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runSurvey(args []string) int {
	fs := newFlagSet("survey")
	c := &commonFlags{}
	c.registerReplayFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, _, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	schemaPaths := []string(c.schemaPaths)
	if len(schemaPaths) == 0 {
		schemaPaths = cfg.SchemaPaths
	}
	build := c.build
	if build == "" {
		build = cfg.DefaultBuild
	}
	reg, err := loadRegistry(schema.Build(build), c.aliasesPath, schemaPaths)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	decoder, err := semantic.NewDecoder(reg, schema.Build(build))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	survey := analyzer.NewSurvey(decoder)
	if _, err := decodeReplay(c, survey); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	stats, unknown := survey.Stats()
	fmt.Printf("total packets:   %d\n", stats.TotalPackets)
	fmt.Printf("unknown packets: %d\n", stats.UnknownPackets)
	fmt.Printf("decode errors:   %d\n", stats.DecodeErrors)
	sort.Strings(unknown)
	for _, m := range unknown {
		fmt.Printf("  unresolved method: %s\n", m)
	}
	return 0
}

func runChat(args []string) int {
	fs := newFlagSet("chat")
	c := &commonFlags{}
	c.registerReplayFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	cfg, _, err := loadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	schemaPaths := []string(c.schemaPaths)
	if len(schemaPaths) == 0 {
		schemaPaths = cfg.SchemaPaths
	}
	build := c.build
	if build == "" {
		build = cfg.DefaultBuild
	}
	reg, err := loadRegistry(schema.Build(build), c.aliasesPath, schemaPaths)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	decoder, err := semantic.NewDecoder(reg, schema.Build(build))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logger := analyzer.NewChatLogger(decoder, os.Stdout)
	if _, err := decodeReplay(c, logger); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}

func runSummary(args []string) int {
	fs := newFlagSet("summary")
	c := &commonFlags{}
	c.registerReplayFlags(fs)
	if err := fs.Parse(args); err != nil {
		return 2
	}

	result, err := decodeReplay(c)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	fmt.Printf("map: %s\n", result.Meta.MapDisplayName)
	fmt.Println()
	printPlayerTable(result.Report.Players)
	fmt.Println()
	printCapturePoints(result.Report.CapturePoints)
	fmt.Println()
	printTeamScores(result.Report.TeamScores)
	if len(result.Report.Warnings) > 0 {
		fmt.Printf("\n%d warnings recorded during reconstruction\n", len(result.Report.Warnings))
	}
	return 0
}

func printPlayerTable(players []battle.PlayerReport) {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "Name\tTeam\tDamage\tFrags\tDied")
	for _, p := range players {
		fmt.Fprintf(w, "%s\t%d\t%.0f\t%d\t%t\n", p.Name, p.TeamID, p.DamageDealt, len(p.Frags), p.Died)
	}
	_ = w.Flush()
}

func printCapturePoints(cps []battle.CapturePointState) {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "Point\tInvaderTeam\tBothInside\tProgress\tTimeRemaining")
	for _, cp := range cps {
		fmt.Fprintf(w, "%d\t%d\t%t\t%.2f\t%.1f\n", cp.Index, cp.InvaderTeam, cp.BothInside, cp.Progress[0], cp.Progress[1])
	}
	_ = w.Flush()
}

func printTeamScores(scores []battle.TeamScore) {
	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "Team\tScore")
	for _, s := range scores {
		fmt.Fprintf(w, "%d\t%d\n", s.TeamID, s.Score)
	}
	_ = w.Flush()
}

func runInvestigate(args []string) int {
	fs := newFlagSet("investigate")
	c := &commonFlags{}
	c.registerReplayFlags(fs)
	kind := fs.String("kind", "", "only show timeline events of this kind (e.g. ShipDestroyed)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	result, err := decodeReplay(c)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 8, 2, ' ', 0)
	fmt.Fprintln(w, "Clock\tKind\tData")
	for _, ev := range result.Report.Timeline {
		if *kind != "" && ev.Kind.String() != *kind {
			continue
		}
		fmt.Fprintf(w, "%.1f\t%s\t%+v\n", float32(ev.At), ev.Kind, ev.Data)
	}
	_ = w.Flush()
	return 0
}

func runSearch(args []string) int {
	fs := newFlagSet("search")
	c := &commonFlags{}
	c.registerReplayFlags(fs)
	query := fs.String("query", "", "substring to search for in rendered timeline event data")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if *query == "" {
		fmt.Fprintln(os.Stderr, "-query is required")
		return 2
	}

	result, err := decodeReplay(c)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	needle := strings.ToLower(*query)
	for _, ev := range result.Report.Timeline {
		rendered := fmt.Sprintf("%s %+v", ev.Kind, ev.Data)
		if strings.Contains(strings.ToLower(rendered), needle) {
			fmt.Printf("%.1f: %s\n", float32(ev.At), rendered)
		}
	}
	return 0
}

func runSpec(args []string) int {
	fs := newFlagSet("spec")
	schemaPaths := multiStringFlag{}
	aliasesPath := fs.String("aliases", "", "path to a shared Aliases XML document")
	build := fs.String("build", "generic", "build name to register the loaded schema under")
	fs.Var(&schemaPaths, "schema", "path to an EntityType XML document (repeatable)")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	reg, err := loadRegistry(schema.Build(*build), *aliasesPath, []string(schemaPaths))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	names, err := reg.TypeNames(schema.Build(*build))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	fmt.Printf("build %q: %d entity types\n", *build, len(names))
	for _, n := range names {
		fmt.Printf("  %s\n", n)
	}
	return 0
}

func runServe(args []string) int {
	fs := newFlagSet("serve")
	c := &commonFlags{}
	c.registerReplayFlags(fs)
	addr := fs.String("addr", ":8080", "address to serve the timeline websocket on")
	if err := fs.Parse(args); err != nil {
		return 2
	}

	result, err := decodeReplay(c)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	srv := streamserver.NewServer()
	for _, ev := range result.Report.Timeline {
		srv.Publish(ev)
	}

	log.Printf("serving %d timeline events on %s/ws", len(result.Report.Timeline), *addr)
	return httpServe(*addr, srv.Routes())
}

func httpServe(addr string, handler http.Handler) int {
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	return 0
}
