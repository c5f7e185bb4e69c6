// meshtool is a CLI utility for inspecting and converting polygon mesh files.
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/Faultbox/meshlib/internal/config"
	"github.com/Faultbox/meshlib/internal/logger"
)

func main() {
	// Global flags come before the command
	config.ParseFlags()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Config error: %v\n", err)
		os.Exit(1)
	}

	if err := logger.InitWithOptions(cfg.LoggerOptions()); err != nil {
		fmt.Fprintf(os.Stderr, "Logger error: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()
	logger.Sugar.Debugf("Config: %+v", cfg)

	args := flag.Args()
	if len(args) < 1 {
		printUsage()
		os.Exit(1)
	}

	command := args[0]
	args = args[1:]

	switch command {
	case "info":
		err = cmdInfo(cfg, args)
	case "convert", "cv":
		err = cmdConvert(cfg, args)
	case "normals":
		err = cmdNormals(cfg, args)
	case "bounds":
		err = cmdBounds(cfg, args)
	case "rotate":
		err = cmdRotate(cfg, args)
	case "watch":
		err = cmdWatch(cfg, args)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		logger.Error("command failed", zap.String("command", command), zap.Error(err))
		logger.Sync()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`meshtool - polygon mesh file utility (OBJ, OFF, M)

Usage:
  meshtool [global options] <command> [options]

Global options:
  -config <file>     Config file (.yaml or .toml)
  -debug             Enable debug logging
  -log-file <file>   Also log to a rotating file
  -json-log          Write the log file as JSON lines
  -dedup             Merge vertices with identical coordinates
  -format <ext>      Output format for paths without an extension

Commands:
  info [-dedup] [-no-topology] <file>           Show counts, boundary and bounds
  convert [-dedup] [-drop-degenerate] <in> <out> Convert between formats
  normals <in> <out>                            Recompute vertex normals
  bounds <file>                                 Show bounding box and unit transform
  rotate [-axis x|y|z] [-degrees n] <in> <out>  Rotate around an axis through the origin
  watch <file>...                               Reload files when they change

Examples:
  meshtool info bunny.obj
  meshtool convert -dedup bunny.obj bunny.off
  meshtool -format m normals bunny.off bunny
  meshtool rotate -axis y -degrees 90 bunny.obj turned.obj`)
}
