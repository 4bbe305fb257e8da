// Copyright 2026 The Fuzzbed Authors
// SPDX-License-Identifier: Apache-2.0

// fuzzbed-progtool inspects and packs test programs.
//
// Usage:
//
//	fuzzbed-progtool pack [--compress=lz4] <program.jsonc> <out>
//	fuzzbed-progtool show <corpus-file>
//	fuzzbed-progtool digest <corpus-file>
package main

import (
	"encoding/json"
	"fmt"
	"os"

	flag "github.com/spf13/pflag"
	"github.com/tidwall/jsonc"

	"github.com/fuzzbed-foundation/fuzzbed/lib/program"
	"github.com/fuzzbed-foundation/fuzzbed/lib/pseudo"
	"github.com/fuzzbed-foundation/fuzzbed/lib/version"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	var err error
	switch cmd := os.Args[1]; cmd {
	case "pack":
		err = packCmd(os.Args[2:])
	case "show":
		err = showCmd(os.Args[2:])
	case "digest":
		err = digestCmd(os.Args[2:])
	case "version", "--version":
		fmt.Printf("fuzzbed-progtool %s\n", version.Info())
		return
	case "help", "--help", "-h":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Print(`fuzzbed-progtool - Inspect and pack test programs

USAGE
    fuzzbed-progtool <command> [flags] <args>

COMMANDS
    pack      Pack a JSONC program description into a corpus file
    show      Decode a corpus file and print its calls
    digest    Print a corpus file's program digest
    version   Show version

PROGRAM FORMAT
    A JSONC object with a "calls" array. Each call names an opcode
    (helper name or syscall number) and its arguments:

    {
        "calls": [
            {"op": "syz_open_dev", "args": [12, 1, 3]},
            {"op": "39"},  // getpid on amd64
        ]
    }
`)
}

// authoredCall is the human-written form: opcode as a name or a
// number string, missing args implied zero.
type authoredCall struct {
	Op   string   `json:"op"`
	Args []uint64 `json:"args"`
}

type authoredProgram struct {
	Calls []authoredCall `json:"calls"`
}

func parseAuthored(data []byte) (*program.Program, error) {
	var authored authoredProgram
	if err := json.Unmarshal(jsonc.ToJSON(data), &authored); err != nil {
		return nil, fmt.Errorf("parsing program description: %w", err)
	}
	p := &program.Program{}
	for i, call := range authored.Calls {
		op, err := pseudo.ParseOpcode(call.Op)
		if err != nil {
			return nil, fmt.Errorf("call %d: %w", i, err)
		}
		if len(call.Args) > 9 {
			return nil, fmt.Errorf("call %d: %d arguments, maximum is 9", i, len(call.Args))
		}
		compiled := program.Call{Op: op}
		copy(compiled.Args[:], call.Args)
		p.Calls = append(p.Calls, compiled)
	}
	return p, nil
}

func packCmd(args []string) error {
	flags := flag.NewFlagSet("pack", flag.ExitOnError)
	compress := flags.String("compress", "none", "Corpus compression: none, lz4 or zstd")
	_ = flags.Parse(args)
	rest := flags.Args()
	if len(rest) != 2 {
		return fmt.Errorf("usage: pack [--compress=...] <program.jsonc> <out>")
	}

	var tag program.CompressionTag
	switch *compress {
	case "none":
		tag = program.CompressionNone
	case "lz4":
		tag = program.CompressionLZ4
	case "zstd":
		tag = program.CompressionZstd
	default:
		return fmt.Errorf("unknown compression %q", *compress)
	}

	data, err := os.ReadFile(rest[0])
	if err != nil {
		return fmt.Errorf("reading program description: %w", err)
	}
	p, err := parseAuthored(data)
	if err != nil {
		return err
	}
	if err := program.WriteFile(rest[1], p, tag); err != nil {
		return err
	}
	digest, err := p.Digest()
	if err != nil {
		return err
	}
	fmt.Printf("%s  %s  (%d calls, %s)\n", digest, rest[1], len(p.Calls), tag)
	return nil
}

func showCmd(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: show <corpus-file>")
	}
	p, err := program.ReadFile(args[0])
	if err != nil {
		return err
	}
	digest, err := p.Digest()
	if err != nil {
		return err
	}
	fmt.Printf("program %s (%d calls)\n", digest, len(p.Calls))
	for i, call := range p.Calls {
		fmt.Printf("  #%d %v(", i, call.Op)
		for j, arg := range call.Args {
			if j > 0 {
				fmt.Print(", ")
			}
			fmt.Printf("%#x", arg)
		}
		fmt.Println(")")
	}
	return nil
}

func digestCmd(args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: digest <corpus-file>")
	}
	p, err := program.ReadFile(args[0])
	if err != nil {
		return err
	}
	digest, err := p.Digest()
	if err != nil {
		return err
	}
	fmt.Println(digest)
	return nil
}
