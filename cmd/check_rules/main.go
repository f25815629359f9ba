package main

import (
	"flag"
	"log"

	"github.com/bpevocab/internal/tokenizer"
)

func main() {
	path := flag.String("rules", "rules.txt", "rules file to check")
	flag.Parse()

	merges, skipped, err := tokenizer.LoadRules(*path)
	if err != nil {
		log.Fatalf("failed to load rules: %v", err)
	}
	if len(merges) == 0 {
		log.Fatalf("%s holds no rules", *path)
	}

	ranks := tokenizer.NewRankTable(merges)
	if dup := len(merges) - ranks.Len(); dup > 0 {
		log.Printf("%d duplicate or <UNK> rules will never be used by lowest-rank tokenization", dup)
	}
	if skipped > 0 {
		log.Printf("skipped %d malformed lines", skipped)
	}

	log.Printf("%d rules over %d characters, fingerprint %s",
		len(merges), tokenizer.CharsetOf(merges).Len(), tokenizer.FingerprintOf(merges))
	log.Println("rules loaded successfully")
}
