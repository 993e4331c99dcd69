package main

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"

	"github.com/funvibe/duby/internal/config"
	"github.com/funvibe/duby/internal/types"
)

const usage = `Usage: duby [-config duby.yaml] <command> [arguments]

Commands:
  intrinsics [type...]              list the intrinsics of the given types
  lookup <type> <name> [param...]   resolve one intrinsic by exact signature
  emit [-stmt] [-hex] <type> <name> [param...]
                                    compile recv.name(params) and disassemble it
  export [-format f] [-o path] [type...]
                                    export intrinsics as text, yaml, proto, schema or sqlite
  help                              show this message

Types are written as in source: int, String, java.util.List, long[][].
Without type arguments the built-in types are used.
`

func main() {
	defer func() {
		if r := recover(); r != nil {
			if os.Getenv("DEBUG") == "1" {
				panic(r)
			}
			fmt.Fprintf(os.Stderr, "Internal error: %v\n", r)
			fmt.Fprintln(os.Stderr, "This is a bug. Please report it.")
			os.Exit(1)
		}
	}()

	log.SetFlags(0)
	log.SetPrefix("duby: ")
	log.SetOutput(os.Stderr)

	args := os.Args[1:]
	configPath := ""
	if len(args) >= 2 && (args[0] == "-config" || args[0] == "--config") {
		configPath = args[1]
		args = args[2:]
	}
	if len(args) == 0 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	u, err := loadUniverse(configPath)
	if err != nil {
		log.Fatal(err)
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "intrinsics":
		err = runIntrinsics(u, rest)
	case "lookup":
		err = runLookup(u, rest)
	case "emit":
		err = runEmit(u, rest)
	case "export":
		err = runExport(u, rest)
	case "help", "-help", "--help":
		fmt.Print(usage)
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}
	if errors.Is(err, errUsage) {
		log.Print(err)
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

// loadUniverse declares the classes of the given config file, or of
// duby.yaml in the working directory when present.
func loadUniverse(path string) (*types.Universe, error) {
	u := types.NewUniverse()
	explicit := path != ""
	if !explicit {
		path = config.ConfigFileName
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return u, nil
		}
		return nil, err
	}
	if err := u.Declare(cfg); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return u, nil
}

func parseTypes(u *types.Universe, names []string) ([]types.Type, error) {
	if len(names) == 0 {
		return u.BuiltinTypes(), nil
	}
	out := make([]types.Type, len(names))
	for i, name := range names {
		t, err := u.Parse(name)
		if err != nil {
			return nil, err
		}
		out[i] = t
	}
	return out, nil
}
