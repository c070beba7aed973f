package service

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"recipebox/app/config"
	"recipebox/app/repositories"
)

var (
	stdout io.Writer = os.Stdout
	stderr io.Writer = os.Stderr
	stdin  io.Reader = os.Stdin
)

// HandleDBCommand runs a database subcommand against the Badger store and
// returns an exit code.
func HandleDBCommand(args []string) int {
	fs := flag.NewFlagSet("db", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", config.DefaultPath, "path to the TOML configuration file")
	if err := fs.Parse(args); err != nil {
		return 2
	}
	args = fs.Args()

	if len(args) < 1 {
		printDBHelp()
		return 1
	}

	cmd := args[0]
	if cmd == "help" {
		printDBHelp()
		return 0
	}

	config.LoadDotEnv()
	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v\n", err)
		return 1
	}
	if cfg.Store.Driver != config.DriverBadger {
		fmt.Fprintf(stderr, "Error: db commands only manage the badger store (driver is %q)\n", cfg.Store.Driver)
		return 1
	}
	dbPath := cfg.Store.Badger.Path

	switch cmd {
	case "backup":
		if len(args) < 2 {
			fmt.Fprintln(stderr, "Error: backup file path required for backup")
			return 1
		}
		return backup(dbPath, args[1])
	case "restore":
		if len(args) < 2 {
			fmt.Fprintln(stderr, "Error: backup file path required for restore")
			return 1
		}
		return restore(dbPath, args[1])
	case "clean":
		yes := len(args) > 1 && (args[1] == "-y" || args[1] == "--yes")
		return clean(dbPath, yes)
	default:
		fmt.Fprintf(stderr, "Unknown db command: %s\n\n", cmd)
		printDBHelp()
		return 1
	}
}

// printDBHelp prints help for db subcommands.
func printDBHelp() {
	helpText := `Usage: recipebox db [-config path] <command>

Commands:
  backup <file>     Write a full backup of the blog database to file
  restore <file>    Load a backup into the blog database
  clean [-y]        Delete the blog database
  help              Display this help message
`
	fmt.Fprintln(stdout, helpText)
}

func confirm(question string) bool {
	fmt.Fprintf(stdout, "%s [y/N] ", question)
	response, _ := bufio.NewReader(stdin).ReadString('\n')
	response = strings.TrimSpace(response)
	return response == "y" || response == "Y"
}

func dbExists(dbPath string) bool {
	entries, err := os.ReadDir(dbPath)
	return err == nil && len(entries) > 0
}

// clean removes the database.
func clean(dbPath string, yes bool) int {
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		fmt.Fprintln(stdout, "Database is already clean (does not exist)")
		return 0
	}

	if !yes && !confirm("Are you sure you want to clean the database? This cannot be undone.") {
		fmt.Fprintln(stdout, "Operation cancelled")
		return 1
	}

	if err := os.RemoveAll(dbPath); err != nil {
		fmt.Fprintf(stderr, "Failed to clean database: %v\n", err)
		return 1
	}
	fmt.Fprintln(stdout, "Database cleaned successfully")
	return 0
}

// backup writes a full backup of the database to backupFile.
func backup(dbPath, backupFile string) int {
	if !dbExists(dbPath) {
		fmt.Fprintln(stderr, "No database exists to backup")
		return 1
	}

	db, err := repositories.OpenBadger(config.Badger{Path: dbPath})
	if err != nil {
		fmt.Fprintf(stderr, "Failed to open database: %v\n", err)
		return 1
	}
	defer db.Close()

	f, err := os.Create(backupFile)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to create backup file: %v\n", err)
		return 1
	}
	defer f.Close()

	if _, err := db.Backup(f, 0); err != nil {
		fmt.Fprintf(stderr, "Failed to backup database: %v\n", err)
		return 1
	}

	fmt.Fprintf(stdout, "Database backed up successfully to %s\n", backupFile)
	return 0
}

// restore loads backupFile into the database, replacing it after confirmation.
func restore(dbPath, backupFile string) int {
	fi, err := os.Stat(backupFile)
	if os.IsNotExist(err) {
		fmt.Fprintf(stderr, "Backup file does not exist: %s\n", backupFile)
		return 1
	}
	if err != nil {
		fmt.Fprintf(stderr, "Failed to stat backup file: %v\n", err)
		return 1
	}
	if fi.Size() == 0 {
		fmt.Fprintf(stderr, "Backup file is empty: %s\n", backupFile)
		return 1
	}

	if dbExists(dbPath) {
		if !confirm("Existing database found. Do you want to replace it?") {
			fmt.Fprintln(stdout, "Operation cancelled")
			return 1
		}
		if err := os.RemoveAll(dbPath); err != nil {
			fmt.Fprintf(stderr, "Failed to remove existing database: %v\n", err)
			return 1
		}
	}

	if err := os.MkdirAll(dbPath, 0755); err != nil {
		fmt.Fprintf(stderr, "Failed to create database directory: %v\n", err)
		return 1
	}

	db, err := repositories.OpenBadger(config.Badger{Path: dbPath})
	if err != nil {
		fmt.Fprintf(stderr, "Failed to open database: %v\n", err)
		return 1
	}
	defer db.Close()

	f, err := os.Open(backupFile)
	if err != nil {
		fmt.Fprintf(stderr, "Failed to open backup file: %v\n", err)
		return 1
	}
	defer f.Close()

	err = func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("panic occurred during restore: %v", r)
			}
		}()
		return db.Load(f, 256)
	}()
	if err != nil {
		fmt.Fprintf(stderr, "Failed to restore database: %v\n", err)
		return 1
	}

	fmt.Fprintln(stdout, "Database restored successfully")
	return 0
}
