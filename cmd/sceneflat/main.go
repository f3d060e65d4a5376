// sceneflat flattens 3D scenes (RSM, glTF, YAML) into C headers or SCB
// binaries.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Faultbox/sceneflat/internal/logger"

	_ "github.com/Faultbox/sceneflat/internal/source/gltfsource"
	_ "github.com/Faultbox/sceneflat/internal/source/rsmsource"
	_ "github.com/Faultbox/sceneflat/internal/source/yamlsource"
)

// errUsage marks errors already reported with command usage.
var errUsage = errors.New("invalid usage")

func main() {
	err := run(os.Args[1:], os.Stdout)
	logger.Sync()
	if err != nil {
		if !errors.Is(err, errUsage) {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout io.Writer) error {
	if len(args) < 1 {
		printUsage(os.Stderr)
		return errUsage
	}

	command, args := args[0], args[1:]
	switch command {
	case "export", "x":
		return cmdExport(args, stdout)
	case "inspect", "info":
		return cmdInspect(args, stdout)
	case "textures", "tex":
		return cmdTextures(args, stdout)
	case "models", "ls":
		return cmdModels(args, stdout)
	case "config":
		return cmdConfig(args, stdout)
	case "help", "-h", "--help":
		printUsage(stdout)
		return nil
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		printUsage(os.Stderr)
		return errUsage
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `sceneflat - flatten 3D scenes into C headers or SCB binaries

Usage:
  sceneflat <command> [options]

Commands:
  export [options] <scene> <output>  Flatten a scene (.rsm, .gltf, .glb, .yaml)
  inspect <file.scb>                 Show the contents of an SCB file
  textures [options] <scene>         Probe every texture a scene references
  models <file.grf> [pattern]        List RSM models in a GRF archive
  config [-o path]                   Write the default config file

Output format follows the extension (.scb and .bin are binary, anything
else is a C header) unless -format is given.

Examples:
  sceneflat export model.glb model.h
  sceneflat export -grf data.grf data/model/prontera/fountain.rsm fountain.scb
  sceneflat inspect fountain.scb
  sceneflat models data.grf "*fountain*"`)
}
