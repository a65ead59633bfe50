package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/landaire/wows-replay-go/internal/schema"
)

// multiStringFlag collects repeatable -schema flags (grounded on the
// teacher's cmd/eqlog multiStringFlag for -force-pc/-force-npc).
type multiStringFlag []string

func (m *multiStringFlag) String() string { return strings.Join(*m, ",") }

func (m *multiStringFlag) Set(v string) error {
	*m = append(*m, v)
	return nil
}

// loadRegistry reads every schema document in schemaPaths (entity-type XML,
// spec §4.2) under one build name, plus an optional shared aliases document.
func loadRegistry(build schema.Build, aliasesPath string, schemaPaths []string) (*schema.Registry, error) {
	if len(schemaPaths) == 0 {
		return nil, fmt.Errorf("at least one -schema path is required")
	}

	var aliasesXML []byte
	if aliasesPath != "" {
		b, err := os.ReadFile(aliasesPath)
		if err != nil {
			return nil, fmt.Errorf("reading aliases %q: %w", aliasesPath, err)
		}
		aliasesXML = b
	}

	docs := make([][]byte, 0, len(schemaPaths))
	for _, p := range schemaPaths {
		b, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("reading schema %q: %w", p, err)
		}
		docs = append(docs, b)
	}

	types, err := schema.Load(aliasesXML, docs)
	if err != nil {
		return nil, fmt.Errorf("parsing schema documents: %w", err)
	}

	reg := schema.NewRegistry()
	reg.Register(build, types)
	return reg, nil
}
