// Command bpevocab trains byte-pair-encoding merge rules from a text corpus,
// tokenizes words with them and serves both over HTTP.
//
//	bpevocab [-config file] train -corpus text.txt -vocab 1000 -out rules.txt
//	bpevocab tokenize -rules rules.txt paris euros
//	bpevocab serve
//	bpevocab rules -name default
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/bpevocab/internal/config"
	"github.com/bpevocab/internal/logging"
)

type command struct {
	name  string
	usage string
	run   func(cfg *config.Config, logger *logging.Logger, args []string) error
}

var commands = []command{
	{"train", "count a corpus and learn merge rules", runTrain},
	{"tokenize", "split words (arguments or stdin) into symbols", runTokenize},
	{"serve", "run the HTTP tokenization service", runServe},
	{"rules", "list stored encodings or print one's rules", runRules},
}

func main() {
	configPath := flag.String("config", "", "YAML config file")
	envFile := flag.String("env", ".env", "dotenv file (ignored when missing)")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() == 0 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(*configPath, *envFile)
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger, err := logging.New(&cfg.Logging)
	if err != nil {
		log.Fatalf("failed to create logger: %v", err)
	}
	defer logger.Close()

	name, args := flag.Arg(0), flag.Args()[1:]
	for _, c := range commands {
		if c.name != name {
			continue
		}
		if err := c.run(cfg, logger, args); err != nil {
			logger.Close()
			log.Fatalf("%s: %v", name, err)
		}
		return
	}
	usage()
	os.Exit(2)
}

func usage() {
	out := flag.CommandLine.Output()
	fmt.Fprintf(out, "usage: bpevocab [flags] <command> [command flags]\n\ncommands:\n")
	for _, c := range commands {
		fmt.Fprintf(out, "  %-10s %s\n", c.name, c.usage)
	}
	fmt.Fprintf(out, "\nflags:\n")
	flag.PrintDefaults()
}
