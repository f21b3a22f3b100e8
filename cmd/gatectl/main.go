// gatectl is a small inspection CLI for TaskGate: it lists the taxonomy,
// maps prompts to tasks offline, and dumps the local audit log.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/taskgate/taskgate/internal/audit"
	"github.com/taskgate/taskgate/internal/classify"
	"github.com/taskgate/taskgate/internal/intent"
	"github.com/taskgate/taskgate/internal/taxonomy"
)

const usage = `usage: gatectl [flags] <command>

commands:
  personas            list personas and their departments
  tasks               list task types and their persona bindings
  grants <persona>    show the grant table for a persona
  map <prompt...>     map a prompt to task candidates (keyword extractor)
  audit               dump recent audit records

flags:
  -taxonomy <path>    taxonomy YAML file (default: built-in)
  -db <path>          audit database path (default: taskgate.db)
  -limit <n>          max audit records to show (default: 50)
`

func main() {
	taxonomyPath := flag.String("taxonomy", "", "taxonomy YAML file")
	dbPath := flag.String("db", "taskgate.db", "audit database path")
	limit := flag.Int("limit", 50, "max audit records to show")
	flag.Usage = func() { fmt.Fprint(os.Stderr, usage) }
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	reg, err := loadRegistry(*taxonomyPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	switch flag.Arg(0) {
	case "personas":
		listPersonas(reg)
	case "tasks":
		listTasks(reg)
	case "grants":
		if flag.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "usage: gatectl grants <persona>")
			os.Exit(2)
		}
		showGrants(reg, flag.Arg(1))
	case "map":
		if flag.NArg() < 2 {
			fmt.Fprintln(os.Stderr, "usage: gatectl map <prompt>")
			os.Exit(2)
		}
		mapPrompt(strings.Join(flag.Args()[1:], " "))
	case "audit":
		if err := dumpAudit(*dbPath, *limit); err != nil {
			fmt.Fprintln(os.Stderr, "error:", err)
			os.Exit(1)
		}
	default:
		flag.Usage()
		os.Exit(2)
	}
}

func loadRegistry(path string) (*taxonomy.Registry, error) {
	if path == "" {
		return taxonomy.Default(), nil
	}
	return taxonomy.Load(path)
}

func listPersonas(reg *taxonomy.Registry) {
	for _, p := range reg.Personas() {
		fmt.Printf("%-14s %-24s %s\n", p.ID, p.DisplayName, p.Department)
	}
}

func listTasks(reg *taxonomy.Registry) {
	for _, t := range reg.Tasks() {
		fmt.Printf("%-28s %-28s -> %s\n", t.ID, t.DisplayName, t.Persona)
	}
}

func showGrants(reg *taxonomy.Registry, persona string) {
	if !reg.HasPersona(persona) {
		fmt.Fprintf(os.Stderr, "persona %q not found\n", persona)
		os.Exit(1)
	}
	for _, g := range reg.GrantsFor(persona) {
		ops := make([]string, len(g.Operations))
		for i, op := range g.Operations {
			ops[i] = string(op)
		}
		fmt.Printf("%-18s %s\n", g.Resource, strings.Join(ops, ","))
	}
}

func mapPrompt(prompt string) {
	extractor := intent.NewKeywordExtractor()
	cands, err := extractor.Extract(context.Background(), prompt)
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}

	if len(cands) == 0 {
		fmt.Println("no candidates")
		return
	}
	for _, cand := range cands {
		fmt.Printf("%-28s %.3f\n", cand.Task, cand.Confidence)
	}

	if task, ok := classify.DefaultPolicy().Classify(cands); ok {
		fmt.Printf("classified: %s\n", task)
	} else {
		fmt.Println("classified: unknown (ambiguous or below threshold)")
	}
}

func dumpAudit(dbPath string, limit int) error {
	db, err := audit.Open(dbPath)
	if err != nil {
		return err
	}
	log, err := audit.NewLog(db)
	if err != nil {
		return err
	}

	recs, err := log.Query(audit.Filter{Limit: limit})
	if err != nil {
		return err
	}
	for _, r := range recs {
		fmt.Printf("%6d  %s  %-5s %-30s persona=%-12s %s/%s  %s\n",
			r.Seq, r.CreatedAt.Format("2006-01-02T15:04:05Z"), r.Outcome,
			r.Reason, r.Persona, r.Resource, r.Operation, r.TaskType)
	}
	return nil
}
