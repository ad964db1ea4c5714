package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/0muji4/ifacenav/internal/app"
	"github.com/0muji4/ifacenav/internal/server"
)

const version = "0.1.0"

func main() {
	configPath := flag.String("config", os.Getenv("IFACENAV_CONFIG"), "path to an ifacenav YAML config file")
	jsonLog := flag.Bool("json-log", false, "write logs as JSON")
	flag.Parse()

	a, err := app.New(*configPath, *jsonLog, 0)
	if err != nil {
		log.Fatal(err)
	}
	defer a.Sync()

	handler := server.NewNavHandler(a.ProviderFactory(), a.Logger.Named("mcp"), a.NavOptions()...)
	s := server.New(handler, version)

	fmt.Fprintln(os.Stderr, "ifacenav MCP server starting...")
	err = mcpserver.ServeStdio(s)
	if cerr := handler.Close(); cerr != nil {
		a.Logger.Warnw("failed to close providers", "error", cerr)
	}
	if err != nil {
		a.Logger.Errorw("server error", "error", err)
		a.Sync()
		os.Exit(1)
	}
}
