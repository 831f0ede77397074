package cli

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"

	"immich-curator/internal/domain/entities"
)

const defaultHistoryLimit = 20

// Usage lists the accepted command lines
const Usage = `commands:
  get asset [--one] <id>...
  get library [--one] <id>...
  get album [--one] [--keys k,...] <name>...
  list library [--one] [--uploads]
  list album [--keys k,...] [<name>...]
  list single-stored
  list not-in-library <libraryId>
  list redundant-folders
  list subdirs <path>
  dedup
  reconcile <folder> [--library id]
  reconcile --all
  album hide <name>
  album export <name> <dest>
  person reassign <assetId> <from> <to>
  db <sql...> [--index col]
  history [--limit n] [--command name]
`

// Parse converts the arguments following the global flags into a Command.
// Nothing is contacted while parsing; every malformed line is a ConfigurationError.
func Parse(args []string) (Command, error) {
	if len(args) == 0 {
		return nil, usageError("", "missing command")
	}

	verb, rest := args[0], args[1:]
	switch verb {
	case "get":
		return parseGet(rest)
	case "list":
		return parseList(rest)
	case "dedup":
		if _, err := parseArgs(newFlagSet("dedup"), rest, 0, 0); err != nil {
			return nil, err
		}
		return Dedup{}, nil
	case "reconcile":
		return parseReconcile(rest)
	case "album":
		return parseAlbum(rest)
	case "person":
		return parsePerson(rest)
	case "db":
		return parseQuery(rest)
	case "history":
		return parseHistory(rest)
	default:
		return nil, usageError(verb, fmt.Sprintf("unknown command %q", verb))
	}
}

func parseGet(args []string) (Command, error) {
	if len(args) == 0 {
		return nil, usageError("get", "missing predicate (asset, library or album)")
	}
	predicate, rest := args[0], args[1:]
	name := "get " + predicate

	fs := newFlagSet(name)
	one := fs.Bool("one", false, "return only one entry")

	switch predicate {
	case "asset":
		ids, err := parseArgs(fs, rest, 1, -1)
		if err != nil {
			return nil, err
		}
		return GetAssets{IDs: ids, One: *one}, nil
	case "library":
		ids, err := parseArgs(fs, rest, 1, -1)
		if err != nil {
			return nil, err
		}
		return GetLibraries{IDs: ids, One: *one}, nil
	case "album":
		keys := fs.String("keys", "", "comma separated album keys to print")
		names, err := parseArgs(fs, rest, 1, -1)
		if err != nil {
			return nil, err
		}
		projected, err := parseKeys(*keys)
		if err != nil {
			return nil, err
		}
		return GetAlbums{Names: names, One: *one, Keys: projected}, nil
	default:
		return nil, usageError(name, fmt.Sprintf("unknown predicate %q", predicate))
	}
}

func parseList(args []string) (Command, error) {
	if len(args) == 0 {
		return nil, usageError("list", "missing predicate")
	}
	predicate, rest := args[0], args[1:]
	name := "list " + predicate
	fs := newFlagSet(name)

	switch predicate {
	case "library":
		one := fs.Bool("one", false, "return only the first library")
		uploads := fs.Bool("uploads", false, "include the upload pseudo-library")
		if _, err := parseArgs(fs, rest, 0, 0); err != nil {
			return nil, err
		}
		return ListLibraries{One: *one, IncludeUploads: *uploads}, nil
	case "album":
		keys := fs.String("keys", "", "comma separated album keys to print")
		names, err := parseArgs(fs, rest, 0, -1)
		if err != nil {
			return nil, err
		}
		projected, err := parseKeys(*keys)
		if err != nil {
			return nil, err
		}
		return ListAlbums{Names: names, Keys: projected}, nil
	case "single-stored":
		if _, err := parseArgs(fs, rest, 0, 0); err != nil {
			return nil, err
		}
		return ListSingleStored{}, nil
	case "not-in-library":
		pos, err := parseArgs(fs, rest, 1, 1)
		if err != nil {
			return nil, err
		}
		return ListNotInLibrary{LibraryID: pos[0]}, nil
	case "redundant-folders":
		if _, err := parseArgs(fs, rest, 0, 0); err != nil {
			return nil, err
		}
		return ListRedundantFolders{}, nil
	case "subdirs":
		pos, err := parseArgs(fs, rest, 1, 1)
		if err != nil {
			return nil, err
		}
		return ListSubdirs{Path: pos[0]}, nil
	default:
		return nil, usageError(name, fmt.Sprintf("unknown predicate %q", predicate))
	}
}

func parseReconcile(args []string) (Command, error) {
	fs := newFlagSet("reconcile")
	all := fs.Bool("all", false, "reconcile every redundant folder")
	library := fs.String("library", "", "library to add the exclusion pattern to")

	pos, err := parseArgs(fs, args, 0, 1)
	if err != nil {
		return nil, err
	}
	switch {
	case *all && (len(pos) > 0 || *library != ""):
		return nil, usageError("reconcile", "--all takes no folder and no --library")
	case !*all && len(pos) == 0:
		return nil, usageError("reconcile", "missing folder")
	case *all:
		return Reconcile{All: true}, nil
	}
	return Reconcile{Folder: pos[0], LibraryID: *library}, nil
}

func parseAlbum(args []string) (Command, error) {
	if len(args) == 0 {
		return nil, usageError("album", "missing action (hide or export)")
	}
	action, rest := args[0], args[1:]
	name := "album " + action
	fs := newFlagSet(name)

	switch action {
	case "hide":
		pos, err := parseArgs(fs, rest, 1, 1)
		if err != nil {
			return nil, err
		}
		return HideAlbum{AlbumName: pos[0]}, nil
	case "export":
		pos, err := parseArgs(fs, rest, 2, 2)
		if err != nil {
			return nil, err
		}
		return ExportAlbum{AlbumName: pos[0], Destination: pos[1]}, nil
	default:
		return nil, usageError(name, fmt.Sprintf("unknown action %q", action))
	}
}

func parsePerson(args []string) (Command, error) {
	if len(args) == 0 || args[0] != "reassign" {
		return nil, usageError("person", "expected: person reassign <assetId> <from> <to>")
	}
	pos, err := parseArgs(newFlagSet("person reassign"), args[1:], 3, 3)
	if err != nil {
		return nil, err
	}
	// the id ends up in SQL against a uuid column
	if _, err := uuid.Parse(pos[0]); err != nil {
		return nil, usageError("person reassign", fmt.Sprintf("asset id %q is not a UUID", pos[0]))
	}
	return ReassignFaces{AssetID: pos[0], From: pos[1], To: pos[2]}, nil
}

func parseQuery(args []string) (Command, error) {
	fs := newFlagSet("db")
	index := fs.String("index", "", "column to group result rows by")
	pos, err := parseArgs(fs, args, 1, -1)
	if err != nil {
		return nil, err
	}
	return RunQuery{SQL: strings.Join(pos, " "), Index: *index}, nil
}

func parseHistory(args []string) (Command, error) {
	fs := newFlagSet("history")
	limit := fs.Int("limit", defaultHistoryLimit, "number of runs to show")
	command := fs.String("command", "", "only show runs of this command")
	if _, err := parseArgs(fs, args, 0, 0); err != nil {
		return nil, err
	}
	if *limit <= 0 {
		return nil, usageError("history", "--limit must be positive")
	}
	if *command != "" && !contains(entities.RunCommands, *command) {
		return nil, usageError("history", fmt.Sprintf("unknown journal command %q (known: %s)", *command, strings.Join(entities.RunCommands, ", ")))
	}
	return History{Limit: *limit, Command: *command}, nil
}

func newFlagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// parseArgs parses flags placed anywhere among the positional arguments and
// checks the positional count; max < 0 means unbounded. "--" ends flag parsing.
func parseArgs(fs *flag.FlagSet, args []string, min, max int) ([]string, error) {
	var flags, positional []string
	for i := 0; i < len(args); i++ {
		arg := args[i]
		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}
		if len(arg) < 2 || arg[0] != '-' {
			positional = append(positional, arg)
			continue
		}

		flags = append(flags, arg)
		name := strings.TrimLeft(arg, "-")
		if strings.Contains(name, "=") {
			continue
		}
		f := fs.Lookup(name)
		if f == nil {
			continue
		}
		if bf, ok := f.Value.(interface{ IsBoolFlag() bool }); ok && bf.IsBoolFlag() {
			continue
		}
		if i+1 < len(args) {
			i++
			flags = append(flags, args[i])
		}
	}

	if err := fs.Parse(flags); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, usageError(fs.Name(), "help requested")
		}
		return nil, usageError(fs.Name(), err.Error())
	}

	switch {
	case len(positional) < min:
		return nil, usageError(fs.Name(), fmt.Sprintf("expected at least %d argument(s), got %d", min, len(positional)))
	case max >= 0 && len(positional) > max:
		return nil, usageError(fs.Name(), fmt.Sprintf("expected at most %d argument(s), got %d", max, len(positional)))
	}
	return positional, nil
}

func parseKeys(raw string) ([]string, error) {
	if raw == "" {
		return nil, nil
	}
	var keys []string
	for _, key := range strings.Split(raw, ",") {
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if !contains(entities.AlbumKeys, key) {
			return nil, usageError("--keys", fmt.Sprintf("unknown album key %q (known: %s)", key, strings.Join(entities.AlbumKeys, ", ")))
		}
		keys = append(keys, key)
	}
	return keys, nil
}

func usageError(command, reason string) error {
	return &entities.ConfigurationError{Field: command, Reason: reason}
}

func contains(values []string, v string) bool {
	for _, value := range values {
		if value == v {
			return true
		}
	}
	return false
}
