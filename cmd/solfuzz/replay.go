// Copyright 2025 The solfuzz Authors
// This file is part of solfuzz.
//
// solfuzz is free software: you can redistribute it and/or modify
// it under the terms of the GNU General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
//
// solfuzz is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU General Public License for more details.
//
// You should have received a copy of the GNU General Public License
// along with solfuzz. If not, see <http://www.gnu.org/licenses/>.

package main

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/log"
	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"

	"github.com/tiangegege/solfuzz/compiler"
	"github.com/tiangegege/solfuzz/evm"
	"github.com/tiangegege/solfuzz/fuzzer"
)

var replayCommand = &cli.Command{
	Name:      "replay",
	Usage:     "Replay a corpus directory and summarize the verdicts",
	ArgsUsage: "<dir>",
	Action:    replayCorpus,
	Flags: []cli.Flag{
		JobsFlag,
		CacheFlag,
		SolSourceFlag,
		LibraryFlag,
		EVMVersionFlag,
		OptimizeFlag,
	},
}

func replayCorpus(ctx *cli.Context) error {
	if ctx.NArg() != 1 {
		return errors.New("replay needs a corpus directory")
	}
	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	solc, err := compiler.New(cfg.Compiler.Path)
	if err != nil {
		return err
	}
	var comp fuzzer.Compiler = solc
	if cfg.Replay.Cache > 0 {
		if comp, err = compiler.NewCached(solc, cfg.Replay.Cache); err != nil {
			return err
		}
	}
	files := collectFiles(ctx.Args().First())
	if len(files) == 0 {
		return errors.New("empty corpus")
	}
	log.Info("Replaying corpus", "inputs", len(files), "jobs", cfg.Replay.Jobs, "solc", solc.Version())

	var (
		mu      sync.Mutex
		results = make([]caseResult, 0, len(files))
	)
	var g errgroup.Group
	g.SetLimit(cfg.Replay.Jobs)
	for _, file := range files {
		file := file
		g.Go(func() error {
			tc, err := loadCase(file, ctx.Bool(SolSourceFlag.Name), ctx.String(LibraryFlag.Name))
			if err != nil {
				return err
			}
			res := runCase(comp, cfg.settings(), tc)
			mu.Lock()
			results = append(results, res)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	sort.Slice(results, func(i, j int) bool { return results[i].name < results[j].name })

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Input", "Status", "Verdict"})
	var passed, skipped, findings int
	for _, res := range results {
		status := res.outcome.Status.String()
		verdict := color.GreenString("ok")
		switch {
		case res.err != nil:
			status = "error"
			verdict = color.YellowString(res.err.Error())
		case res.finding != nil:
			findings++
			status = res.finding.Status.String()
			verdict = color.RedString("FINDING: %s", res.finding.Msg)
		case res.outcome.Status == evm.Success:
			passed++
		default:
			skipped++
			verdict = color.GreenString("skipped")
		}
		table.Append([]string{res.name, status, verdict})
	}
	table.Render()
	log.Info("Corpus replayed", "passed", passed, "skipped", skipped, "findings", findings)
	if findings > 0 {
		return fmt.Errorf("%d finding(s) raised", findings)
	}
	return nil
}
