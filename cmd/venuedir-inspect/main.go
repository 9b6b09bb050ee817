package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/cockroachdb/pebble"
)

// Dumps raw keys (and optionally values) from a venuedir pebble database.
// Handy when debugging keyset ordering without starting the server.
func main() {
	var (
		path   = flag.String("path", "", "pebble db path")
		prefix = flag.String("prefix", "venue:", "key prefix to scan")
		values = flag.Bool("values", false, "print values as well")
		limit  = flag.Int("limit", 0, "stop after N keys (0 = all)")
	)
	flag.Parse()
	if *path == "" {
		fmt.Fprintln(os.Stderr, "--path required")
		os.Exit(2)
	}

	db, err := pebble.Open(*path, &pebble.Options{ReadOnly: true})
	if err != nil {
		fmt.Fprintf(os.Stderr, "open %s: %v\n", *path, err)
		os.Exit(1)
	}
	defer db.Close()

	lo := []byte(*prefix)
	hi := append(append([]byte{}, lo...), 0xff)
	iter, err := db.NewIter(&pebble.IterOptions{LowerBound: lo, UpperBound: hi})
	if err != nil {
		fmt.Fprintf(os.Stderr, "iterator: %v\n", err)
		os.Exit(1)
	}
	defer iter.Close()

	n := 0
	for ok := iter.First(); ok; ok = iter.Next() {
		if *values {
			fmt.Printf("%s\t%s\n", iter.Key(), iter.Value())
		} else {
			fmt.Printf("%s\n", iter.Key())
		}
		n++
		if *limit > 0 && n >= *limit {
			break
		}
	}
	fmt.Fprintf(os.Stderr, "%d keys\n", n)
}
