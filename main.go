package main

import (
	"fmt"
	"os"
	"strings"

	"recipebox/service"
)

// CliVersion is reported by the version command.
const CliVersion = "1.0.0"

var exit = os.Exit

func main() {
	RealMain()
}

// RealMain dispatches os.Args to a command and exits with its code.
func RealMain() {
	if len(os.Args) < 2 {
		printHelp()
		exit(1)
		return
	}

	cmd := strings.ToLower(os.Args[1])
	switch cmd {
	case "help", "-h", "--help":
		printHelp()
		exit(0)
	case "version":
		fmt.Printf("recipebox version %s\n", CliVersion)
		exit(0)
	case "serve":
		exit(service.RunAppServer(os.Args[2:]))
	case "db":
		exit(service.HandleDBCommand(os.Args[2:]))
	default:
		fmt.Printf("Unknown command: %s\n\n", os.Args[1])
		printHelp()
		exit(1)
	}
}

func printHelp() {
	helpText := `Usage: recipebox <command> [options]
Commands:
  help                           Display this help message.
  version                        Show version information.
  serve [-config <file>]         Run the blog service (JSON API on /api/posts, page on /blog).
  db [-config <file>] <command>  Manage the badger store:
      backup <file>              Write a full backup to file.
      restore <file>             Load a backup, replacing the current database.
      clean [-y]                 Delete the database.
`
	fmt.Println(helpText)
}
