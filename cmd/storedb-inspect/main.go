// Command storedb-inspect prints the header and record summary of a
// storedb container without needing the schemas it was written with:
// the (version, records) envelope is stable, so any container can be
// examined.
package main

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/joho/godotenv"

	"github.com/ndim/storedb"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	command := os.Args[1]
	switch command {
	case "inspect":
		inspectCommand(os.Args[2:])
	case "verify":
		verifyCommand(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Fprintf(os.Stderr, "Usage: %s <command> [options] <container>\n", os.Args[0])
	fmt.Fprintf(os.Stderr, "\nCommands:\n")
	fmt.Fprintf(os.Stderr, "  inspect  Print format version and per-class record counts\n")
	fmt.Fprintf(os.Stderr, "  verify   Check that the container parses and its checksum holds\n")
}

func inspectCommand(args []string) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	envFile := fs.String("env", "", "Optional .env file to load before reading configuration")
	sqlitePath := fs.String("sqlite", "", "Read the container from this SQLite database instead of a file")
	fs.Parse(args)

	version, records := readContainer(fs.Args(), *envFile, *sqlitePath)

	fmt.Printf("format version: %d\n", version)
	fmt.Printf("root records:   %d\n", len(records))

	counts := make(map[string]int)
	total := countRecords(records, counts)
	fmt.Printf("total records:  %d\n", total)

	classes := make([]string, 0, len(counts))
	for class := range counts {
		classes = append(classes, class)
	}
	sort.Strings(classes)
	for _, class := range classes {
		fmt.Printf("  %-24s %d\n", class, counts[class])
	}
}

func verifyCommand(args []string) {
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	envFile := fs.String("env", "", "Optional .env file to load before reading configuration")
	sqlitePath := fs.String("sqlite", "", "Read the container from this SQLite database instead of a file")
	fs.Parse(args)

	version, records := readContainer(fs.Args(), *envFile, *sqlitePath)
	fmt.Printf("ok: version %d, %d root records\n", version, len(records))
}

func readContainer(args []string, envFile, sqlitePath string) (int, []*storedb.Record) {
	if len(args) != 1 {
		fmt.Fprintln(os.Stderr, "expected exactly one container path")
		os.Exit(1)
	}
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			fatal(fmt.Errorf("loading %s: %w", envFile, err))
		}
	}

	var store storedb.ContainerStore = storedb.FileStore{}
	if sqlitePath != "" {
		sqlStore, err := storedb.NewSQLiteStore(sqlitePath)
		if err != nil {
			fatal(err)
		}
		defer sqlStore.Close()
		store = sqlStore
	}

	blob, err := store.ReadContainer(args[0])
	if err != nil {
		fatal(err)
	}
	version, records, err := storedb.DecodeContainer(blob)
	if err != nil {
		fatal(err)
	}
	return version, records
}

// countRecords tallies every distinct record reachable from the roots.
// The memo mirrors the engine's: without it a cyclic database would
// never finish counting.
func countRecords(roots []*storedb.Record, counts map[string]int) int {
	seen := make(map[*storedb.Record]bool)

	var walkValue func(v any)
	var walkRecord func(rec *storedb.Record)

	walkRecord = func(rec *storedb.Record) {
		if seen[rec] {
			return
		}
		seen[rec] = true
		counts[rec.Class]++
		for _, value := range rec.SavedData {
			walkValue(value)
		}
	}
	walkValue = func(v any) {
		switch val := v.(type) {
		case *storedb.Record:
			if val != nil {
				walkRecord(val)
			}
		case []any:
			for _, item := range val {
				walkValue(item)
			}
		case map[any]any:
			for key, value := range val {
				walkValue(key)
				walkValue(value)
			}
		}
	}

	for _, root := range roots {
		walkRecord(root)
	}
	return len(seen)
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
