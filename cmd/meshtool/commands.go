package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/Faultbox/meshlib/internal/assets"
	"github.com/Faultbox/meshlib/internal/config"
	"github.com/Faultbox/meshlib/internal/logger"
	"github.com/Faultbox/meshlib/internal/watch"
	"github.com/Faultbox/meshlib/pkg/formats"
	"github.com/Faultbox/meshlib/pkg/math"
	"github.com/Faultbox/meshlib/pkg/mesh"
)

var errUsage = errors.New("invalid arguments")

func usageError(usage string) error {
	return fmt.Errorf("%w; usage: meshtool %s", errUsage, usage)
}

func cmdInfo(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("info", flag.ExitOnError)
	dedup := fs.Bool("dedup", cfg.Load.Dedup, "Merge vertices with identical coordinates")
	noTopology := fs.Bool("no-topology", !cfg.Load.BuildTopology, "Skip edge and one-ring construction")
	fs.Parse(args)

	if fs.NArg() < 1 {
		return usageError("info [-dedup] [-no-topology] <file>")
	}

	opts := cfg.MeshOptions()
	opts.Dedup = *dedup
	opts.BuildTopology = !*noTopology

	m, err := mesh.Load(fs.Arg(0), opts)
	if err != nil {
		return err
	}
	printInfo(m)
	return nil
}

func printInfo(m *mesh.Mesh) {
	s := m.Stats()
	fmt.Printf("File:     %s\n", m.Path)
	fmt.Printf("Vertices: %d\n", s.Vertices)
	fmt.Printf("Faces:    %d\n", s.Faces)
	if s.InvalidFaces > 0 {
		fmt.Printf("Invalid:  %d\n", s.InvalidFaces)
	}
	if s.Lines > 0 {
		fmt.Printf("Lines:    %d\n", s.Lines)
	}
	fmt.Printf("Normals:  %d\n", len(m.Normals))
	fmt.Printf("UVs:      %d\n", len(m.Textures))

	if m.HasTopology() {
		fmt.Printf("Edges:    %d\n", s.Edges)
		fmt.Printf("Boundary: %d edges, %d vertices\n", s.BoundaryEdges, s.BoundaryVertices)
		if s.IsolatedVertices > 0 {
			fmt.Printf("Isolated: %d vertices\n", s.IsolatedVertices)
		}
		fmt.Printf("Closed:   %v (Euler characteristic %d)\n", s.Closed(), s.EulerCharacteristic())
	}

	fmt.Printf("Min:      %s\n", formatVec3(m.Min))
	fmt.Printf("Max:      %s\n", formatVec3(m.Max))

	if m.MaterialLib != "" {
		fmt.Printf("Material: %s\n", m.MaterialLib)
		mtl := filepath.Join(filepath.Dir(m.Path), m.MaterialLib)
		if tex, err := formats.TextureFromMTL(mtl); err == nil {
			fmt.Printf("Texture:  %s\n", tex)
		} else {
			logger.Debug("no texture from material library", zap.String("path", mtl), zap.Error(err))
		}
	}
}

func cmdConvert(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("convert", flag.ExitOnError)
	dedup := fs.Bool("dedup", cfg.Load.Dedup, "Merge vertices with identical coordinates")
	dropDegenerate := fs.Bool("drop-degenerate", cfg.Load.MarkDegenerate, "Leave out zero-area faces")
	fs.Parse(args)

	if fs.NArg() < 2 {
		return usageError("convert [-dedup] [-drop-degenerate] <in> <out>")
	}

	opts := cfg.MeshOptions()
	opts.Dedup = *dedup
	opts.MarkDegenerate = *dropDegenerate

	m, err := mesh.Load(fs.Arg(0), opts)
	if err != nil {
		return err
	}

	out := outputPath(fs.Arg(1), cfg.Output.Format)
	if err := m.Save(out); err != nil {
		return err
	}
	fmt.Printf("%s -> %s (%d vertices, %d faces)\n", fs.Arg(0), out, len(m.Vertices), len(m.FaceIndices()))
	return nil
}

func cmdNormals(cfg *config.Config, args []string) error {
	if len(args) < 2 {
		return usageError("normals <in> <out>")
	}

	opts := cfg.MeshOptions()
	opts.BuildTopology = true
	opts.RecomputeNormals = true

	m, err := mesh.Load(args[0], opts)
	if err != nil {
		return err
	}

	out := outputPath(args[1], cfg.Output.Format)
	if err := m.Save(out); err != nil {
		return err
	}
	fmt.Printf("%s -> %s (%d normals)\n", args[0], out, len(m.Normals))
	return nil
}

func cmdBounds(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return usageError("bounds <file>")
	}

	// Bounds only need positions.
	opts := cfg.MeshOptions()
	opts.BuildTopology = false

	m, err := mesh.Load(args[0], opts)
	if err != nil {
		return err
	}

	fmt.Printf("Min:    %s\n", formatVec3(m.Min))
	fmt.Printf("Max:    %s\n", formatVec3(m.Max))
	fmt.Printf("Center: %s\n", formatVec3(m.Center))
	fmt.Printf("Scale:  %g\n", m.Scale)
	fmt.Println("Transform:")
	fmt.Print(m.Transform().String())
	return nil
}

func cmdRotate(cfg *config.Config, args []string) error {
	fs := flag.NewFlagSet("rotate", flag.ExitOnError)
	axisName := fs.String("axis", "y", "Rotation axis: x, y, z or a comma separated vector")
	degrees := fs.Float64("degrees", 90, "Rotation angle in degrees")
	fs.Parse(args)

	if fs.NArg() < 2 {
		return usageError("rotate [-axis x|y|z] [-degrees n] <in> <out>")
	}

	axis, err := parseAxis(*axisName)
	if err != nil {
		return err
	}

	m, err := mesh.Load(fs.Arg(0), cfg.MeshOptions())
	if err != nil {
		return err
	}

	out := outputPath(fs.Arg(1), cfg.Output.Format)
	if err := m.Rotated(axis, float32(*degrees)).Save(out); err != nil {
		return err
	}
	fmt.Printf("%s -> %s (rotated %g degrees around %s)\n", fs.Arg(0), out, *degrees, formatVec3(axis))
	return nil
}

func cmdWatch(cfg *config.Config, args []string) error {
	if len(args) < 1 {
		return usageError("watch <file>...")
	}

	opts := cfg.MeshOptions()
	load := func(path string) (*mesh.Mesh, error) {
		return mesh.Load(path, opts)
	}
	store := assets.NewManager(load)
	defer store.Close()

	w, err := watch.New(store, time.Duration(cfg.Watch.DebounceMS)*time.Millisecond)
	if err != nil {
		return err
	}
	for _, path := range args {
		if err := w.Add(path); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	logger.Info("watching mesh files", zap.Strings("paths", args))
	for u := range w.Updates() {
		if u.Err != nil {
			fmt.Fprintf(os.Stderr, "%s: %v\n", u.Path, u.Err)
			continue
		}
		s := u.Mesh.Stats()
		fmt.Printf("%s: %d vertices, %d faces, %d edges, closed=%v\n",
			u.Path, s.Vertices, s.Faces, s.Edges, s.Closed())
	}
	return <-done
}

// outputPath appends the default format extension when path has none.
func outputPath(path, format string) string {
	if filepath.Ext(path) != "" {
		return path
	}
	return path + "." + strings.TrimPrefix(format, ".")
}

// parseAxis accepts x, y, z or an "x,y,z" vector.
func parseAxis(s string) (math.Vec3, error) {
	switch strings.ToLower(s) {
	case "x":
		return math.Vec3{X: 1}, nil
	case "y":
		return math.Vec3{Y: 1}, nil
	case "z":
		return math.Vec3{Z: 1}, nil
	}

	var v math.Vec3
	if _, err := fmt.Sscanf(s, "%g,%g,%g", &v.X, &v.Y, &v.Z); err != nil {
		return math.Vec3{}, fmt.Errorf("invalid axis %q: %w", s, err)
	}
	if v.Length() == 0 {
		return math.Vec3{}, fmt.Errorf("invalid axis %q: zero vector", s)
	}
	return v, nil
}

func formatVec3(v math.Vec3) string {
	return fmt.Sprintf("(%g, %g, %g)", v.X, v.Y, v.Z)
}
